package core

import (
	"context"
	"time"
)

// TTSService is the speech-output capability. Implementations are selected by
// provider name and constructed by the factories package.
type TTSService interface {
	// Synthesize converts text to playable audio bytes (a complete file,
	// typically WAV or MP3 depending on the provider).
	Synthesize(ctx context.Context, text string) ([]byte, error)
	// Speak synthesizes and plays the audio, blocking until playback ends.
	Speak(ctx context.Context, text string) error
}

// STTService is the speech-input capability.
type STTService interface {
	// Transcribe converts a recorded audio file to text.
	Transcribe(ctx context.Context, audioPath string) (string, error)
	// Listen records from the microphone and transcribes. A zero duration
	// records until the user sends a stop signal (Enter); there is no
	// timeout on that wait.
	Listen(ctx context.Context, duration time.Duration) (string, error)
}
