package factories

import (
	"fmt"

	"narrationkit/core"
	elevenlabstts "narrationkit/services/elevenlabs/tts"
	localtts "narrationkit/services/local/tts"
	openaitts "narrationkit/services/openai/tts"
)

// localRateBase converts the session speed multiplier to words per minute
// for engines that take a rate instead of a multiplier.
const localRateBase = 200

// NewTTS constructs the speech-output service named by the settings. The
// lookup is a pure name-to-constructor mapping; voice and speed carry over
// from the settings, credentials come from the factory's keys.
func (f *Factory) NewTTS(settings core.VoiceSettings) (core.TTSService, error) {
	voice := settings.TTSVoice
	if voice == "default" {
		voice = ""
	}

	switch settings.TTSProvider {
	case core.TTSProviderOpenAI:
		return openaitts.New(openaitts.Config{
			APIKey: f.keys.OpenAI,
			Voice:  voice,
			Speed:  settings.TTSSpeed,
		}, f.logger), nil
	case core.TTSProviderElevenLabs:
		return elevenlabstts.New(elevenlabstts.Config{
			APIKey: f.keys.ElevenLabs,
			Voice:  voice,
		}, f.logger), nil
	case core.TTSProviderLocal:
		return localtts.New(localtts.Config{
			Voice: voice,
			Rate:  int(settings.TTSSpeed * localRateBase),
		}, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", settings.TTSProvider)
	}
}
