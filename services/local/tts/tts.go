// Package tts implements the offline speech-output service using the host
// system's speech engine (say on macOS, espeak elsewhere). No API key, no
// network.
package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"narrationkit/core"
)

// Config holds configuration for the local TTS service.
type Config struct {
	// Voice is an engine-specific voice name; empty uses the engine default.
	Voice string `json:"voice"`
	// Rate is the speech rate in words per minute.
	Rate int `json:"rate"`
}

// Service shells out to the platform speech engine.
type Service struct {
	config Config
	logger *core.Logger
}

// New creates the service, filling config defaults for zero fields.
func New(config Config, logger *core.Logger) *Service {
	if config.Rate == 0 {
		config.Rate = 200
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Service{
		config: config,
		logger: logger,
	}
}

// engine returns the speech command for this platform.
func (s *Service) engine() (string, error) {
	if runtime.GOOS == "darwin" {
		return exec.LookPath("say")
	}
	if bin, err := exec.LookPath("espeak-ng"); err == nil {
		return bin, nil
	}
	return exec.LookPath("espeak")
}

func (s *Service) args(outPath string) []string {
	var args []string
	if runtime.GOOS == "darwin" {
		args = append(args, "-r", fmt.Sprint(s.config.Rate))
		if s.config.Voice != "" && s.config.Voice != "default" {
			args = append(args, "-v", s.config.Voice)
		}
		if outPath != "" {
			args = append(args, "-o", outPath, "--data-format=LEI16@22050")
		}
	} else {
		args = append(args, "-s", fmt.Sprint(s.config.Rate))
		if s.config.Voice != "" && s.config.Voice != "default" {
			args = append(args, "-v", s.config.Voice)
		}
		if outPath != "" {
			args = append(args, "-w", outPath)
		}
	}
	return args
}

// Synthesize renders the text to an audio file via the system engine and
// returns its bytes.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("local tts: text cannot be empty")
	}
	bin, err := s.engine()
	if err != nil {
		return nil, fmt.Errorf("local tts: no speech engine found: %w", err)
	}

	tmp, err := os.CreateTemp("", "narrationkit-tts-*.wav")
	if err != nil {
		return nil, fmt.Errorf("local tts: temp file: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	args := append(s.args(tmp.Name()), text)
	if out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("local tts: %s: %w: %s", bin, err, strings.TrimSpace(string(out)))
	}
	return os.ReadFile(tmp.Name())
}

// Speak plays the text directly through the system engine, blocking until it
// finishes.
func (s *Service) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	bin, err := s.engine()
	if err != nil {
		return fmt.Errorf("local tts: no speech engine found: %w", err)
	}
	args := append(s.args(""), text)
	if out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("local tts: %s: %w: %s", bin, err, strings.TrimSpace(string(out)))
	}
	return nil
}
