package core

import (
	"fmt"
	"math"
)

// TTSProvider names a speech-output backend.
type TTSProvider string

const (
	TTSProviderLocal      TTSProvider = "local"
	TTSProviderOpenAI     TTSProvider = "openai"
	TTSProviderElevenLabs TTSProvider = "elevenlabs"
)

// STTProvider names a speech-input backend.
type STTProvider string

const (
	STTProviderOpenAI STTProvider = "openai"
	STTProviderLocal  STTProvider = "local"
	STTProviderMacOS  STTProvider = "macos"
)

// Verbosity hints the narration length to the upstream prompt generator.
// Extraction does not enforce it.
type Verbosity string

const (
	VerbosityBrief    Verbosity = "brief"
	VerbosityMedium   Verbosity = "medium"
	VerbosityDetailed Verbosity = "detailed"
)

// ParseVerbosity validates a verbosity name.
func ParseVerbosity(s string) (Verbosity, error) {
	switch v := Verbosity(s); v {
	case VerbosityBrief, VerbosityMedium, VerbosityDetailed:
		return v, nil
	default:
		return "", fmt.Errorf("invalid verbosity %q (want brief, medium, or detailed)", s)
	}
}

// Recognized voice setting keys. Partial updates use these names; anything
// else is rejected before any field is touched.
const (
	SettingTTSProvider      = "tts_provider"
	SettingSTTProvider      = "stt_provider"
	SettingTTSVoice         = "tts_voice"
	SettingTTSSpeed         = "tts_speed"
	SettingAutoSpeak        = "auto_speak"
	SettingNarrationEnabled = "narration_enabled"
	SettingVerbosity        = "verbosity"
)

const (
	TTSSpeedMin = 0.25
	TTSSpeedMax = 4.0
)

// VoiceSettings is the closed set of per-session voice options. A session
// always carries a fully populated copy; there are no unset fields.
type VoiceSettings struct {
	TTSProvider      TTSProvider `json:"tts_provider"`
	STTProvider      STTProvider `json:"stt_provider"`
	TTSVoice         string      `json:"tts_voice"`
	TTSSpeed         float64     `json:"tts_speed"`
	AutoSpeak        bool        `json:"auto_speak"`
	NarrationEnabled bool        `json:"narration_enabled"`
	Verbosity        Verbosity   `json:"verbosity"`
}

// DefaultVoiceSettings returns the settings a fresh session starts with.
// Local TTS is the default so a missing API key never breaks a new session.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		TTSProvider:      TTSProviderLocal,
		STTProvider:      STTProviderOpenAI,
		TTSVoice:         "default",
		TTSSpeed:         1.0,
		AutoSpeak:        true,
		NarrationEnabled: true,
		Verbosity:        VerbosityMedium,
	}
}

// Apply merges a partial update into the settings. Every supplied key is
// validated before any field changes, so a bad update leaves the settings
// untouched. Returns the keys that were applied.
func (s *VoiceSettings) Apply(update map[string]any) ([]string, error) {
	next := *s
	applied := make([]string, 0, len(update))

	for key, value := range update {
		switch key {
		case SettingTTSProvider:
			str, err := settingString(key, value)
			if err != nil {
				return nil, err
			}
			switch TTSProvider(str) {
			case TTSProviderLocal, TTSProviderOpenAI, TTSProviderElevenLabs:
				next.TTSProvider = TTSProvider(str)
			default:
				return nil, fmt.Errorf("invalid %s %q (choose: local, openai, elevenlabs)", key, str)
			}
		case SettingSTTProvider:
			str, err := settingString(key, value)
			if err != nil {
				return nil, err
			}
			switch STTProvider(str) {
			case STTProviderOpenAI, STTProviderLocal, STTProviderMacOS:
				next.STTProvider = STTProvider(str)
			default:
				return nil, fmt.Errorf("invalid %s %q (choose: openai, local, macos)", key, str)
			}
		case SettingTTSVoice:
			str, err := settingString(key, value)
			if err != nil {
				return nil, err
			}
			next.TTSVoice = str
		case SettingTTSSpeed:
			speed, err := settingFloat(key, value)
			if err != nil {
				return nil, err
			}
			if speed < TTSSpeedMin || speed > TTSSpeedMax {
				return nil, fmt.Errorf("invalid %s %v (must be between %v and %v)", key, speed, TTSSpeedMin, TTSSpeedMax)
			}
			next.TTSSpeed = speed
		case SettingAutoSpeak:
			b, err := settingBool(key, value)
			if err != nil {
				return nil, err
			}
			next.AutoSpeak = b
		case SettingNarrationEnabled:
			b, err := settingBool(key, value)
			if err != nil {
				return nil, err
			}
			next.NarrationEnabled = b
		case SettingVerbosity:
			str, err := settingString(key, value)
			if err != nil {
				return nil, err
			}
			switch Verbosity(str) {
			case VerbosityBrief, VerbosityMedium, VerbosityDetailed:
				next.Verbosity = Verbosity(str)
			default:
				return nil, fmt.Errorf("invalid %s %q (choose: brief, medium, detailed)", key, str)
			}
		default:
			return nil, fmt.Errorf("unknown voice setting %q", key)
		}
		applied = append(applied, key)
	}

	*s = next
	return applied, nil
}

// Map returns the settings keyed by their wire names.
func (s VoiceSettings) Map() map[string]any {
	return map[string]any{
		SettingTTSProvider:      string(s.TTSProvider),
		SettingSTTProvider:      string(s.STTProvider),
		SettingTTSVoice:         s.TTSVoice,
		SettingTTSSpeed:         s.TTSSpeed,
		SettingAutoSpeak:        s.AutoSpeak,
		SettingNarrationEnabled: s.NarrationEnabled,
		SettingVerbosity:        string(s.Verbosity),
	}
}

func settingString(key string, value any) (string, error) {
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, value)
	}
	return str, nil
}

func settingBool(key string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean, got %T", key, value)
	}
	return b, nil
}

func settingFloat(key string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s must be a finite number", key)
		}
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, value)
	}
}
