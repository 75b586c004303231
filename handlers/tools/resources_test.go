package tools

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrationkit/core"
	"narrationkit/session"
)

func TestReadResourceCurrent(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Call(context.Background(), ToolSendMessage, map[string]any{"text": "hello", "use_voice": false})

	doc, err := h.ReadResource(ResourceCurrent)
	require.NoError(t, err)

	var snap session.Snapshot
	require.NoError(t, sonic.UnmarshalString(doc, &snap))
	assert.Equal(t, h.Registry().Current().ID(), snap.SessionID)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "hello", snap.History[0].Content)
}

func TestReadResourceHistory(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Call(context.Background(), ToolSendMessage, map[string]any{"text": "a", "use_voice": false})
	h.Call(context.Background(), ToolSendMessage, map[string]any{"text": "b", "use_voice": false})

	doc, err := h.ReadResource(ResourceHistory)
	require.NoError(t, err)

	var history []core.Message
	require.NoError(t, sonic.UnmarshalString(doc, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].Content)
}

func TestReadResourceSettings(t *testing.T) {
	h, _ := newTestHandler(t)

	doc, err := h.ReadResource(ResourceSettings)
	require.NoError(t, err)

	var settings core.VoiceSettings
	require.NoError(t, sonic.UnmarshalString(doc, &settings))
	assert.Equal(t, core.DefaultVoiceSettings(), settings)
}

func TestReadResourceByID(t *testing.T) {
	h, _ := newTestHandler(t)
	sess := h.Registry().Current()

	doc, err := h.ReadResource(resourceSessionPrefix + sess.ID())
	require.NoError(t, err)

	var snap session.Snapshot
	require.NoError(t, sonic.UnmarshalString(doc, &snap))
	assert.Equal(t, sess.ID(), snap.SessionID)
}

func TestReadResourceUnknown(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.ReadResource("conversation://nothing")
	assert.ErrorContains(t, err, "unknown resource")

	_, err = h.ReadResource(resourceSessionPrefix + "no-such-id")
	assert.ErrorContains(t, err, "unknown session")
}

func TestResourceCatalog(t *testing.T) {
	h, _ := newTestHandler(t)
	specs := h.Resources()
	require.Len(t, specs, 3)
	for _, spec := range specs {
		assert.Equal(t, "application/json", spec.MimeType)
		assert.NotEmpty(t, spec.Description)
	}
}
