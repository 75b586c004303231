// Package elevenlabs implements the speech-output service backed by the
// ElevenLabs streaming WebSocket API.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"narrationkit/core"
	"narrationkit/utils/audio"
)

const (
	defaultBaseURL      = "wss://api.elevenlabs.io/v1/text-to-speech"
	defaultModelID      = "eleven_turbo_v2_5"
	defaultOutputFormat = "pcm_24000"
	pcmSampleRate       = 24000
	ulawSampleRate      = 8000
)

// voiceIDs maps friendly voice names to ElevenLabs voice identifiers.
// Unrecognized names are assumed to already be raw voice IDs.
var voiceIDs = map[string]string{
	"adam":    "pNInz6obpgDQGcFmaJgB",
	"rachel":  "21m00Tcm4TlvDq8ikWAM",
	"domi":    "AZnzlk1XvdvUeBnXmlld",
	"bella":   "EXAVITQu4vr4xnSDxMaL",
	"antoni":  "ErXwobaYiN019PkySvjV",
	"elli":    "MF3mGyEYCl7XYWbV9V6O",
	"josh":    "TxGEqnHWrfWFTfGW9XjX",
	"arnold":  "VR6AewLTigWG4xSOukaG",
	"callum":  "N2lVS1w4EtoT3dr4eOWO",
	"charlie": "IKne3meq5aSn9XLyUdCD",
}

// Config holds configuration for the ElevenLabs TTS service.
type Config struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	// Voice is a friendly name (adam, rachel, ...) or a raw voice ID.
	Voice   string `json:"voice"`
	ModelID string `json:"model_id"`

	// Voice settings
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`

	// OutputFormat is the ElevenLabs output_format parameter. Supported here:
	// pcm_24000 (default) and ulaw_8000.
	OutputFormat string `json:"output_format"`
}

// Service synthesizes over the ElevenLabs stream-input WebSocket, collecting
// the audio chunks into a single playable WAV.
type Service struct {
	config  Config
	voiceID string
	logger  *core.Logger
}

// Client messages
type (
	// BOS (Beginning of Stream) - sent once on connect
	bosMessage struct {
		Text             string        `json:"text"`
		VoiceSettings    voiceSettings `json:"voice_settings"`
		GenerationConfig genConfig     `json:"generation_config"`
	}

	voiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	}

	genConfig struct {
		ChunkLengthSchedule []int `json:"chunk_length_schedule"`
	}

	textMessage struct {
		Text string `json:"text"`
	}
)

// Server messages
type (
	audioMessage struct {
		Audio   string `json:"audio"`
		IsFinal bool   `json:"isFinal"`
	}
)

// New creates the service, filling config defaults for zero fields and
// resolving friendly voice names to voice IDs.
func New(config Config, logger *core.Logger) *Service {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Voice == "" {
		config.Voice = "adam"
	}
	if config.ModelID == "" {
		config.ModelID = defaultModelID
	}
	if config.Stability == 0 {
		config.Stability = 0.5
	}
	if config.SimilarityBoost == 0 {
		config.SimilarityBoost = 0.75
	}
	if config.OutputFormat == "" {
		config.OutputFormat = defaultOutputFormat
	}
	if logger == nil {
		logger = core.GetLogger()
	}

	voiceID := config.Voice
	if id, ok := voiceIDs[strings.ToLower(config.Voice)]; ok {
		voiceID = id
	}

	return &Service{
		config:  config,
		voiceID: voiceID,
		logger:  logger,
	}
}

// Synthesize streams the text through ElevenLabs and returns the audio as a
// WAV file.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("elevenlabs tts: text cannot be empty")
	}
	if s.config.APIKey == "" {
		return nil, errors.New("elevenlabs tts: API key is required")
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs tts: connect: %w", err)
	}
	defer conn.Close()

	if err := s.sendStream(conn, text); err != nil {
		return nil, fmt.Errorf("elevenlabs tts: send: %w", err)
	}

	raw, err := s.collectAudio(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs tts: %w", err)
	}

	if s.config.OutputFormat == "ulaw_8000" {
		return audio.WrapPCMInWAV(audio.ULawBytesToPCM(raw), ulawSampleRate, 1), nil
	}
	return audio.WrapPCMInWAV(raw, pcmSampleRate, 1), nil
}

// Speak synthesizes the text and plays it, blocking until playback finishes.
func (s *Service) Speak(ctx context.Context, text string) error {
	data, err := s.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "narrationkit-tts-*.wav")
	if err != nil {
		return fmt.Errorf("elevenlabs tts: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("elevenlabs tts: write audio: %w", err)
	}
	tmp.Close()

	return audio.PlayFile(ctx, tmp.Name())
}

func (s *Service) dial(ctx context.Context) (*websocket.Conn, error) {
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=%s",
		s.config.BaseURL,
		s.voiceID,
		s.config.ModelID,
		s.config.OutputFormat,
	)

	headers := map[string][]string{
		"xi-api-key": {s.config.APIKey},
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn, nil
}

// sendStream performs the BOS / text / EOS exchange that the stream-input
// endpoint expects. An empty text message is the EOS marker.
func (s *Service) sendStream(conn *websocket.Conn, text string) error {
	bos := bosMessage{
		Text: " ",
		VoiceSettings: voiceSettings{
			Stability:       s.config.Stability,
			SimilarityBoost: s.config.SimilarityBoost,
		},
		GenerationConfig: genConfig{
			ChunkLengthSchedule: []int{120, 160, 250, 290},
		},
	}
	if err := conn.WriteJSON(bos); err != nil {
		return fmt.Errorf("BOS: %w", err)
	}
	if err := conn.WriteJSON(textMessage{Text: text + " "}); err != nil {
		return fmt.Errorf("text: %w", err)
	}
	if err := conn.WriteJSON(textMessage{Text: ""}); err != nil {
		return fmt.Errorf("EOS: %w", err)
	}
	return nil
}

func (s *Service) collectAudio(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	var out []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var msg audioMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && len(out) > 0 {
				return out, nil
			}
			return nil, fmt.Errorf("read: %w", err)
		}

		if msg.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return nil, fmt.Errorf("decode audio: %w", err)
			}
			out = append(out, chunk...)
		}
		if msg.IsFinal {
			return out, nil
		}
	}
}
