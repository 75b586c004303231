package factories

import (
	"fmt"

	"narrationkit/core"
	localstt "narrationkit/services/local/stt"
	macosstt "narrationkit/services/macos/stt"
	openaistt "narrationkit/services/openai/stt"
)

// NewSTT constructs the speech-input service named by the settings.
func (f *Factory) NewSTT(settings core.VoiceSettings) (core.STTService, error) {
	switch settings.STTProvider {
	case core.STTProviderOpenAI:
		return openaistt.New(openaistt.Config{
			APIKey: f.keys.OpenAI,
		}, f.logger), nil
	case core.STTProviderLocal:
		return localstt.New(localstt.Config{
			ModelPath: f.whisperModel,
		}, f.logger), nil
	case core.STTProviderMacOS:
		return macosstt.New(macosstt.Config{}, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", settings.STTProvider)
	}
}
