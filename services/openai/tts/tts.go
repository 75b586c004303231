// Package tts implements the speech-output service backed by the OpenAI
// speech API.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"narrationkit/core"
	"narrationkit/utils/audio"
)

// Config holds configuration for the OpenAI TTS service.
type Config struct {
	APIKey string  `json:"api_key"`
	Voice  string  `json:"voice"`
	Model  string  `json:"model"`
	Speed  float64 `json:"speed"`
}

// Service calls the OpenAI speech endpoint and plays the result through the
// system player.
type Service struct {
	config Config
	logger *core.Logger
	client *openai.Client
}

// New creates the service, filling config defaults for zero fields.
func New(config Config, logger *core.Logger) *Service {
	if config.Voice == "" {
		config.Voice = "nova"
	}
	if config.Model == "" {
		config.Model = string(openai.TTSModel1)
	}
	if config.Speed == 0 {
		config.Speed = 1.0
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

// Synthesize converts text to WAV bytes via the OpenAI speech API.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("openai tts: text cannot be empty")
	}
	if s.client == nil {
		return nil, errors.New("openai tts: API key is required")
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          s.config.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("openai tts: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("openai tts: read response: %w", err)
	}
	return data, nil
}

// Speak synthesizes the text and plays it, blocking until playback finishes.
func (s *Service) Speak(ctx context.Context, text string) error {
	data, err := s.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "narrationkit-tts-*.wav")
	if err != nil {
		return fmt.Errorf("openai tts: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("openai tts: write audio: %w", err)
	}
	tmp.Close()

	return audio.PlayFile(ctx, tmp.Name())
}
