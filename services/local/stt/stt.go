// Package stt implements the offline speech-input service using a local
// whisper.cpp binary.
package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"narrationkit/core"
	"narrationkit/utils/audio"
)

// Config holds configuration for the local Whisper STT service.
type Config struct {
	// BinPath is the whisper.cpp executable. Defaults to whisper-cli on PATH.
	BinPath string `json:"bin_path"`
	// ModelPath points to a ggml model file and is required.
	ModelPath string `json:"model_path"`
	// Language is an ISO-639-1 code; empty means auto-detect.
	Language string `json:"language"`
}

// Service shells out to whisper.cpp for transcription.
type Service struct {
	config Config
	logger *core.Logger
}

// New creates the service, filling config defaults for zero fields.
func New(config Config, logger *core.Logger) *Service {
	if config.BinPath == "" {
		config.BinPath = "whisper-cli"
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Service{
		config: config,
		logger: logger,
	}
}

// Transcribe runs whisper.cpp over a recorded audio file.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if s.config.ModelPath == "" {
		return "", errors.New("local stt: model path is required")
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("local stt: audio file: %w", err)
	}
	bin, err := exec.LookPath(s.config.BinPath)
	if err != nil {
		return "", fmt.Errorf("local stt: whisper binary not found: %w", err)
	}

	args := []string{"-m", s.config.ModelPath, "-f", audioPath, "--no-timestamps"}
	if s.config.Language != "" {
		args = append(args, "-l", s.config.Language)
	}

	out, err := exec.CommandContext(ctx, bin, args...).Output()
	if err != nil {
		return "", fmt.Errorf("local stt: %s: %w", s.config.BinPath, err)
	}
	return strings.TrimSpace(string(out)), nil
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
