// Package stt implements the macOS-native speech-input service through the
// hear CLI, which fronts the system speech recognizer. Offline and free, but
// macOS only.
package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"narrationkit/core"
	"narrationkit/utils/audio"
)

// Config holds configuration for the macOS STT service.
type Config struct {
	// Locale is a BCP-47 locale for the recognizer, e.g. en-US.
	Locale string `json:"locale"`
}

// Service shells out to the hear CLI for recognition.
type Service struct {
	config Config
	logger *core.Logger
}

// New creates the service, filling config defaults for zero fields.
func New(config Config, logger *core.Logger) *Service {
	if config.Locale == "" {
		config.Locale = "en-US"
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Service{
		config: config,
		logger: logger,
	}
}

// Transcribe recognizes speech in a recorded audio file.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if runtime.GOOS != "darwin" {
		return "", errors.New("macos stt: only available on macOS")
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("macos stt: audio file: %w", err)
	}
	bin, err := exec.LookPath("hear")
	if err != nil {
		return "", fmt.Errorf("macos stt: hear CLI not found (brew install hear): %w", err)
	}

	out, err := exec.CommandContext(ctx, bin, "-i", audioPath, "-l", s.config.Locale).Output()
	if err != nil {
		return "", fmt.Errorf("macos stt: hear: %w", err)
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", errors.New("macos stt: could not understand audio")
	}
	return text, nil
}

// Listen records from the microphone and transcribes the result. A zero
// duration records until the user presses Enter.
func (s *Service) Listen(ctx context.Context, duration time.Duration) (string, error) {
	path, err := audio.RecordWAV(ctx, duration)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	s.logger.Debug("transcribing recording", "path", path)
	return s.Transcribe(ctx, path)
}
