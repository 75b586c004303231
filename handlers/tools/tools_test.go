package tools

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrationkit/core"
	"narrationkit/session"
)

type stubSpeaker struct {
	mu     sync.Mutex
	spoken []string
	done   chan struct{}
}

func (s *stubSpeaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte(text), nil
}

func (s *stubSpeaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

type stubListener struct {
	text string
	err  error
	dur  time.Duration
}

func (s *stubListener) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return s.text, s.err
}

func (s *stubListener) Listen(ctx context.Context, duration time.Duration) (string, error) {
	s.dur = duration
	return s.text, s.err
}

type stubFactory struct {
	speaker  *stubSpeaker
	listener *stubListener
}

func (s *stubFactory) NewTTS(settings core.VoiceSettings) (core.TTSService, error) {
	return s.speaker, nil
}

func (s *stubFactory) NewSTT(settings core.VoiceSettings) (core.STTService, error) {
	return s.listener, nil
}

func newTestHandler(t *testing.T) (*Handler, *stubFactory) {
	t.Helper()
	logger := core.NewWriterLogger(io.Discard)
	factory := &stubFactory{
		speaker:  &stubSpeaker{done: make(chan struct{}, 16)},
		listener: &stubListener{text: "transcribed words"},
	}
	return NewHandler(session.NewRegistry(logger), factory, logger), factory
}

func call(h *Handler, name string, args map[string]any) Result {
	return h.Call(context.Background(), name, args)
}

func TestUnknownTool(t *testing.T) {
	h, _ := newTestHandler(t)
	res := call(h, "reticulate_splines", nil)
	assert.True(t, res.IsError)
	assert.Equal(t, "Unknown tool: reticulate_splines", res.Text)
}

func TestSendMessage(t *testing.T) {
	h, factory := newTestHandler(t)

	res := call(h, ToolSendMessage, map[string]any{
		"text":      "done <voice_narration>I finished the refactor.</voice_narration>",
		"use_voice": true,
	})
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, "Message sent:")
	assert.Contains(t, res.Text, "Narration: I finished the refactor.")

	select {
	case <-factory.speaker.done:
	case <-time.After(2 * time.Second):
		t.Fatal("narration was not spoken")
	}

	msg, ok := res.Data.(core.Message)
	require.True(t, ok)
	assert.Equal(t, core.RoleUser, msg.Role)
	narr, found := msg.NarrationText()
	require.True(t, found)
	assert.Equal(t, "I finished the refactor.", narr)
}

func TestSendMessageWithoutNarration(t *testing.T) {
	h, _ := newTestHandler(t)

	res := call(h, ToolSendMessage, map[string]any{"text": "plain message"})
	require.False(t, res.IsError)
	assert.Contains(t, res.Text, "Narration: none")

	history := h.Registry().Current().History(-1)
	require.Len(t, history, 1)
	_, found := history[0].NarrationText()
	assert.False(t, found)
}

func TestSendMessageRole(t *testing.T) {
	h, _ := newTestHandler(t)

	res := call(h, ToolSendMessage, map[string]any{"text": "hi", "role": "assistant"})
	require.False(t, res.IsError)
	assert.Equal(t, core.RoleAssistant, h.Registry().Current().History(-1)[0].Role)

	res = call(h, ToolSendMessage, map[string]any{"text": "hi", "role": "narrator"})
	assert.True(t, res.IsError)
	// Invalid role was rejected before storage.
	assert.Equal(t, 1, h.Registry().Current().Len())
}

func TestSendMessageUseVoiceFalse(t *testing.T) {
	h, factory := newTestHandler(t)

	res := call(h, ToolSendMessage, map[string]any{
		"text":      "<voice_narration>silent</voice_narration>",
		"use_voice": false,
	})
	require.False(t, res.IsError)
	assert.Equal(t, 1, h.Registry().Current().Len())

	select {
	case <-factory.speaker.done:
		t.Fatal("spoke despite use_voice false")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendMessageVoiceIsOptIn(t *testing.T) {
	h, factory := newTestHandler(t)

	// Without use_voice, narration markers are stored as plain content:
	// nothing is extracted, attached, or spoken.
	res := call(h, ToolSendMessage, map[string]any{
		"text": "done <voice_narration>I finished the refactor.</voice_narration>",
	})
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, "Narration: none")

	history := h.Registry().Current().History(-1)
	require.Len(t, history, 1)
	_, found := history[0].NarrationText()
	assert.False(t, found, "narration must not be attached when use_voice is absent")

	select {
	case <-factory.speaker.done:
		t.Fatal("spoke despite use_voice being absent")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendMessageEmptyNarrationRendersNone(t *testing.T) {
	h, _ := newTestHandler(t)

	res := call(h, ToolSendMessage, map[string]any{
		"text":      "before <voice_narration></voice_narration> after",
		"use_voice": true,
	})
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, "Narration: none")

	// The stored message keeps the empty-narration distinction.
	narr, found := h.Registry().Current().History(-1)[0].NarrationText()
	require.True(t, found)
	assert.Equal(t, "", narr)
}

func TestSendMessageValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	for name, args := range map[string]map[string]any{
		"missing text":         {},
		"text wrong type":      {"text": 42},
		"use_voice wrong type": {"text": "hi", "use_voice": "yes"},
	} {
		res := call(h, ToolSendMessage, args)
		assert.True(t, res.IsError, name)
	}
	assert.Equal(t, 0, h.Registry().Current().Len())
}

func TestGetHistory(t *testing.T) {
	h, _ := newTestHandler(t)
	call(h, ToolSendMessage, map[string]any{"text": "first"})
	call(h, ToolSendMessage, map[string]any{"text": "second", "role": "assistant"})

	res := call(h, ToolGetHistory, nil)
	require.False(t, res.IsError)
	assert.Contains(t, res.Text, "Conversation history (2 messages):")
	assert.Contains(t, res.Text, "1. [user]")
	assert.Contains(t, res.Text, "2. [assistant]")
	assert.Contains(t, res.Text, "first")
	assert.Contains(t, res.Text, "second")
}

func TestGetHistoryEmpty(t *testing.T) {
	h, _ := newTestHandler(t)
	res := call(h, ToolGetHistory, nil)
	require.False(t, res.IsError)
	assert.Equal(t, "No conversation history", res.Text)
}

func TestGetHistoryLimit(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, text := range []string{"a", "b", "c"} {
		call(h, ToolSendMessage, map[string]any{"text": text})
	}

	res := call(h, ToolGetHistory, map[string]any{"limit": float64(2)})
	require.False(t, res.IsError)
	assert.Contains(t, res.Text, "Conversation history (2 messages):")
	assert.NotContains(t, res.Text, "   a\n")
}

func TestGetHistoryShowsNarration(t *testing.T) {
	h, _ := newTestHandler(t)
	call(h, ToolSendMessage, map[string]any{
		"text":      "body <voice_narration>spoken bit</voice_narration>",
		"use_voice": true,
	})

	res := call(h, ToolGetHistory, nil)
	assert.Contains(t, res.Text, "[Narration: spoken bit]")
}

func TestGetHistoryValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.True(t, call(h, ToolGetHistory, map[string]any{"limit": float64(-1)}).IsError)
	assert.True(t, call(h, ToolGetHistory, map[string]any{"limit": 1.5}).IsError)
	assert.True(t, call(h, ToolGetHistory, map[string]any{"limit": "ten"}).IsError)
}

func TestClearConversation(t *testing.T) {
	h, _ := newTestHandler(t)
	call(h, ToolSendMessage, map[string]any{"text": "a"})
	call(h, ToolSendMessage, map[string]any{"text": "b"})

	res := call(h, ToolClearConversation, nil)
	require.False(t, res.IsError)
	assert.Equal(t, "Conversation cleared (2 messages removed)", res.Text)
	assert.Equal(t, 0, h.Registry().Current().Len())
}

func TestSetVoiceSettingsEchoesOnlySuppliedKeys(t *testing.T) {
	h, _ := newTestHandler(t)

	res := call(h, ToolSetVoiceSettings, map[string]any{
		"tts_speed":    1.5,
		"tts_provider": "openai",
	})
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, "tts_provider: openai")
	assert.Contains(t, res.Text, "tts_speed: 1.5")
	assert.NotContains(t, res.Text, "stt_provider")
	assert.NotContains(t, res.Text, "auto_speak")

	echoed, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, echoed, 2)
}

func TestSetVoiceSettingsRejectsBadUpdate(t *testing.T) {
	h, _ := newTestHandler(t)
	before := h.Registry().Current().Settings()

	for name, args := range map[string]map[string]any{
		"unknown key":    {"pitch": 2.0},
		"out of range":   {"tts_speed": 5.0},
		"bad provider":   {"tts_provider": "sings_badly"},
		"mixed good bad": {"tts_speed": 1.5, "bogus": true},
		"empty update":   {},
	} {
		res := call(h, ToolSetVoiceSettings, args)
		assert.True(t, res.IsError, name)
	}
	assert.Equal(t, before, h.Registry().Current().Settings())
}

func TestGetVoiceSettings(t *testing.T) {
	h, _ := newTestHandler(t)
	res := call(h, ToolGetVoiceSettings, nil)
	require.False(t, res.IsError)
	assert.Contains(t, res.Text, "Current voice settings:")
	assert.Contains(t, res.Text, "tts_provider: local")
	assert.Contains(t, res.Text, "tts_speed: 1")
	assert.Contains(t, res.Text, "narration_enabled: true")

	settings, ok := res.Data.(core.VoiceSettings)
	require.True(t, ok)
	assert.Equal(t, core.DefaultVoiceSettings(), settings)
}

func TestSettingsRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)
	res := call(h, ToolSetVoiceSettings, map[string]any{"verbosity": "detailed"})
	require.False(t, res.IsError)

	res = call(h, ToolGetVoiceSettings, nil)
	assert.Contains(t, res.Text, "verbosity: detailed")
}

func TestListen(t *testing.T) {
	h, factory := newTestHandler(t)

	res := call(h, ToolListen, map[string]any{"duration": float64(5)})
	require.False(t, res.IsError, res.Text)
	assert.Equal(t, "Transcribed: transcribed words", res.Text)
	assert.Equal(t, 5*time.Second, factory.listener.dur)
}

func TestListenOpenEnded(t *testing.T) {
	h, factory := newTestHandler(t)

	res := call(h, ToolListen, nil)
	require.False(t, res.IsError)
	assert.Equal(t, time.Duration(0), factory.listener.dur)
}

func TestListenErrorShapedResult(t *testing.T) {
	h, factory := newTestHandler(t)
	factory.listener.err = errors.New("microphone not found")

	res := call(h, ToolListen, nil)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error during voice input: microphone not found", res.Text)
}

func TestListenValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.True(t, call(h, ToolListen, map[string]any{"duration": float64(-1)}).IsError)
	assert.True(t, call(h, ToolListen, map[string]any{"duration": "five"}).IsError)
}

func TestCoordinatorCacheFollowsRegistry(t *testing.T) {
	h, _ := newTestHandler(t)

	sess := h.Registry().Current()
	first := h.coordinatorFor(sess)
	assert.Same(t, first, h.coordinatorFor(sess))

	h.Registry().Delete(sess.ID())
	next := h.Registry().Current()
	assert.NotSame(t, first, h.coordinatorFor(next))

	h.mu.Lock()
	_, stale := h.coordinators[sess.ID()]
	h.mu.Unlock()
	assert.False(t, stale, "deleted session's coordinator must be dropped")
}

func TestToolCatalog(t *testing.T) {
	h, _ := newTestHandler(t)
	specs := h.Tools()
	require.Len(t, specs, 6)

	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		names[spec.Name] = true
		assert.NotEmpty(t, spec.Description, spec.Name)
		assert.Equal(t, "object", spec.InputSchema["type"], spec.Name)
	}
	for _, want := range []string{
		ToolSendMessage, ToolGetHistory, ToolClearConversation,
		ToolSetVoiceSettings, ToolGetVoiceSettings, ToolListen,
	} {
		assert.True(t, names[want], want)
	}
}
