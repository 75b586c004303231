// Package stt implements the speech-input service backed by the OpenAI
// Whisper transcription API.
package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"narrationkit/core"
	"narrationkit/utils/audio"
)

// Config holds configuration for the OpenAI Whisper STT service.
type Config struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
	// Language is an ISO-639-1 code; empty means auto-detect.
	Language string `json:"language"`
}

// Service records microphone input and transcribes it with Whisper.
type Service struct {
	config Config
	logger *core.Logger
	client *openai.Client
}

// New creates the service, filling config defaults for zero fields.
func New(config Config, logger *core.Logger) *Service {
	if config.Model == "" {
		config.Model = openai.Whisper1
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	s := &Service{
		config: config,
		logger: logger,
	}
	if config.APIKey != "" {
		s.client = openai.NewClient(config.APIKey)
	}
	return s
}

// Transcribe converts a recorded audio file to text.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if s.client == nil {
		return "", errors.New("openai stt: API key is required")
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("openai stt: audio file: %w", err)
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.config.Model,
		FilePath: audioPath,
		Language: s.config.Language,
	})
	if err != nil {
		return "", fmt.Errorf("openai stt: %w", err)
	}
	return resp.Text, nil
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
