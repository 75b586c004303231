// Package voice binds a session's settings to speech provider services and
// exposes the speak/listen operations the tool surface delegates to.
package voice

import (
	"context"
	"sync"
	"time"

	"narrationkit/core"
	"narrationkit/narration"
	"narrationkit/session"
)

// ProviderFactory constructs provider services from a session's settings.
// The factories package supplies the real implementation; tests supply fakes.
type ProviderFactory interface {
	NewTTS(settings core.VoiceSettings) (core.TTSService, error)
	NewSTT(settings core.VoiceSettings) (core.STTService, error)
}

// Coordinator drives voice input/output for a single session. Provider
// handles are built lazily from the session's current settings and cached
// until a settings change invalidates them.
type Coordinator struct {
	sess    *session.Session
	factory ProviderFactory
	logger  *core.Logger

	mu  sync.Mutex
	tts core.TTSService
	stt core.STTService
}

// NewCoordinator binds a coordinator to a session.
func NewCoordinator(sess *session.Session, factory ProviderFactory, logger *core.Logger) *Coordinator {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Coordinator{
		sess:    sess,
		factory: factory,
		logger:  logger.With(map[string]any{"session_id": sess.ID()}),
	}
}

// Session returns the bound session.
func (c *Coordinator) Session() *session.Session {
	return c.sess
}

// Speaker returns the cached speech-output service, constructing it from the
// session's current settings on first use.
func (c *Coordinator) Speaker() (core.TTSService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tts == nil {
		tts, err := c.factory.NewTTS(c.sess.Settings())
		if err != nil {
			return nil, err
		}
		c.tts = tts
	}
	return c.tts, nil
}

// Listener returns the cached speech-input service, constructing it from the
// session's current settings on first use.
func (c *Coordinator) Listener() (core.STTService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stt == nil {
		stt, err := c.factory.NewSTT(c.sess.Settings())
		if err != nil {
			return nil, err
		}
		c.stt = stt
	}
	return c.stt, nil
}

// UpdateSettings merges a partial update into the session's settings and
// drops any cached provider whose configuration it touched. Returns the
// applied keys.
func (c *Coordinator) UpdateSettings(update map[string]any) ([]string, error) {
	applied, err := c.sess.UpdateSettings(update)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range applied {
		switch key {
		case core.SettingTTSProvider, core.SettingTTSVoice, core.SettingTTSSpeed:
			c.tts = nil
		case core.SettingSTTProvider:
			c.stt = nil
		}
	}
	return applied, nil
}

// ExtractAndSpeak runs narration extraction (first-region semantics) against
// the text. When a narration is found and the session has both narration and
// auto-speak enabled, it is spoken in the background. The extracted narration
// is returned either way.
func (c *Coordinator) ExtractAndSpeak(text string) (string, bool) {
	narr, ok := narration.Extract(text, narration.ModeFirst)
	if !ok {
		return "", false
	}
	settings := c.sess.Settings()
	if settings.NarrationEnabled && settings.AutoSpeak && narr != "" {
		c.SpeakAsync(narr)
	}
	return narr, true
}

// SpeakAsync hands the text to a background task that synthesizes and plays
// it. It returns immediately; failures (errors or panics) are logged and
// swallowed so a broken voice backend never interrupts the conversation.
func (c *Coordinator) SpeakAsync(text string) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				c.logger.With(map[string]any{"panic": rec}).Error("TTS panic")
			}
		}()
		c.SpeakSync(context.Background(), text)
	}()
}

// SpeakSync synthesizes and plays the text, blocking until playback ends.
// Errors are logged, never returned: voice failure must not break the
// conversation.
func (c *Coordinator) SpeakSync(ctx context.Context, text string) {
	speaker, err := c.Speaker()
	if err != nil {
		c.logger.With(map[string]any{"error": err.Error()}).Error("TTS unavailable")
		return
	}
	if err := speaker.Speak(ctx, text); err != nil {
		c.logger.With(map[string]any{"error": err.Error()}).Error("TTS error")
	}
}

// Listen records voice input and returns the transcript. Unlike speaking,
// errors propagate: the caller is waiting on the result. A zero duration
// records until the user's stop signal, with no timeout.
func (c *Coordinator) Listen(ctx context.Context, duration time.Duration) (string, error) {
	listener, err := c.Listener()
	if err != nil {
		return "", err
	}
	text, err := listener.Listen(ctx, duration)
	if err != nil {
		c.logger.With(map[string]any{"error": err.Error()}).Error("STT error")
		return "", err
	}
	return text, nil
}
