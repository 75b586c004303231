package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrationkit/core"
)

func TestNewSessionDefaults(t *testing.T) {
	sess := New()

	assert.NotEmpty(t, sess.ID())
	assert.Equal(t, 0, sess.Len())
	assert.Equal(t, core.DefaultVoiceSettings(), sess.Settings())
	assert.False(t, sess.LastActivity().IsZero())
}

func TestSessionIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, New().ID(), New().ID())
}

func TestAddMessagePreservesOrder(t *testing.T) {
	sess := New()
	sess.AddMessage(core.RoleUser, "one", nil)
	sess.AddMessage(core.RoleAssistant, "two", nil)
	sess.AddMessage(core.RoleUser, "three", nil)

	history := sess.History(-1)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "two", history[1].Content)
	assert.Equal(t, "three", history[2].Content)
}

func TestAddMessageStoresNarration(t *testing.T) {
	sess := New()
	narr := "spoken text"
	msg := sess.AddMessage(core.RoleAssistant, "full text", &narr)

	got, ok := msg.NarrationText()
	require.True(t, ok)
	assert.Equal(t, "spoken text", got)

	_, ok = sess.AddMessage(core.RoleUser, "plain", nil).NarrationText()
	assert.False(t, ok)
}

func TestAddMessageAcceptsEmptyContent(t *testing.T) {
	sess := New()
	sess.AddMessage(core.RoleUser, "", nil)
	sess.AddMessage(core.RoleUser, "   ", nil)
	assert.Equal(t, 2, sess.Len())
}

func TestHistoryLimit(t *testing.T) {
	sess := New()
	for _, content := range []string{"a", "b", "c", "d"} {
		sess.AddMessage(core.RoleUser, content, nil)
	}

	assert.Empty(t, sess.History(0))
	assert.Len(t, sess.History(-1), 4)
	assert.Len(t, sess.History(10), 4)

	last2 := sess.History(2)
	require.Len(t, last2, 2)
	// Most recent n, still oldest first.
	assert.Equal(t, "c", last2[0].Content)
	assert.Equal(t, "d", last2[1].Content)
}

func TestHistoryReturnsCopy(t *testing.T) {
	sess := New()
	sess.AddMessage(core.RoleUser, "original", nil)

	history := sess.History(-1)
	history[0].Content = "mutated"

	assert.Equal(t, "original", sess.History(-1)[0].Content)
}

func TestClear(t *testing.T) {
	sess := New()
	sess.AddMessage(core.RoleUser, "a", nil)
	sess.AddMessage(core.RoleUser, "b", nil)

	assert.Equal(t, 2, sess.Clear())
	assert.Equal(t, 0, sess.Len())
	assert.Equal(t, 0, sess.Clear())
}

func TestClearKeepsSettings(t *testing.T) {
	sess := New()
	_, err := sess.UpdateSettings(map[string]any{"tts_speed": 2.0})
	require.NoError(t, err)

	sess.Clear()
	assert.Equal(t, 2.0, sess.Settings().TTSSpeed)
}

func TestUpdateSettingsAppliesAtomically(t *testing.T) {
	sess := New()

	applied, err := sess.UpdateSettings(map[string]any{
		"tts_provider": "openai",
		"tts_speed":    1.5,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tts_provider", "tts_speed"}, applied)

	got := sess.Settings()
	assert.Equal(t, core.TTSProviderOpenAI, got.TTSProvider)
	assert.Equal(t, 1.5, got.TTSSpeed)
}

func TestUpdateSettingsRejectsWithoutPartialApply(t *testing.T) {
	sess := New()
	before := sess.Settings()

	tests := []map[string]any{
		{"tts_speed": 9.0},
		{"tts_speed": 0.1},
		{"tts_provider": "bogus"},
		{"verbosity": "loud"},
		{"made_up_key": true},
		{"tts_provider": "openai", "tts_speed": 99.0}, // one valid, one not
		{"auto_speak": "yes"},
	}
	for _, update := range tests {
		_, err := sess.UpdateSettings(update)
		require.Error(t, err, "update %v", update)
		assert.Equal(t, before, sess.Settings(), "update %v must not partially apply", update)
	}
}

func TestActivityRefreshedByMutations(t *testing.T) {
	sess := New()
	sess.lastActivity = time.Now().Add(-time.Hour)

	sess.AddMessage(core.RoleUser, "hello", nil)
	assert.WithinDuration(t, time.Now(), sess.LastActivity(), time.Second)

	sess.lastActivity = time.Now().Add(-time.Hour)
	sess.Clear()
	assert.WithinDuration(t, time.Now(), sess.LastActivity(), time.Second)

	sess.lastActivity = time.Now().Add(-time.Hour)
	_, err := sess.UpdateSettings(map[string]any{"auto_speak": false})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), sess.LastActivity(), time.Second)
}

func TestFailedUpdateDoesNotRefreshActivity(t *testing.T) {
	sess := New()
	stale := time.Now().Add(-time.Hour)
	sess.lastActivity = stale

	_, err := sess.UpdateSettings(map[string]any{"nope": 1})
	require.Error(t, err)
	assert.Equal(t, stale, sess.LastActivity())
}

func TestSnapshot(t *testing.T) {
	sess := New()
	narr := "spoken"
	sess.AddMessage(core.RoleAssistant, "text", &narr)

	snap := sess.Snapshot()
	assert.Equal(t, sess.ID(), snap.SessionID)
	require.Len(t, snap.History, 1)
	assert.Equal(t, sess.Settings(), snap.VoiceSettings)
	assert.Equal(t, sess.CreatedAt(), snap.CreatedAt)
}
