// Package factories maps provider names from a session's voice settings to
// concrete service constructors. Credentials are injected here once, at
// construction time, so the services themselves never read the environment.
package factories

import "narrationkit/core"

// APIKeys holds API credentials for the supported service providers.
type APIKeys struct {
	OpenAI     string // Used for OpenAI TTS and Whisper STT.
	ElevenLabs string // Used for ElevenLabs TTS.
}

// Factory builds provider services from voice settings. It satisfies the
// voice package's ProviderFactory.
type Factory struct {
	keys   APIKeys
	logger *core.Logger

	// whisperModel is the ggml model file for the local Whisper provider.
	whisperModel string
}

// Option configures a Factory.
type Option func(*Factory)

// WithWhisperModel points the local STT provider at a whisper.cpp model file.
func WithWhisperModel(path string) Option {
	return func(f *Factory) {
		f.whisperModel = path
	}
}

// NewFactory creates a provider factory with the given credentials.
func NewFactory(keys APIKeys, logger *core.Logger, opts ...Option) *Factory {
	if logger == nil {
		logger = core.GetLogger()
	}
	f := &Factory{
		keys:   keys,
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}
