package tools

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"narrationkit/protocol"
	"narrationkit/session"
)

// Resource URIs readable through ReadResource.
const (
	ResourceCurrent       = "conversation://current"
	ResourceHistory       = "conversation://history"
	ResourceSettings      = "conversation://settings"
	resourceSessionPrefix = "conversation://session/"
)

// ReadResource returns the JSON document behind a conversation:// URI.
func (h *Handler) ReadResource(uri string) (string, error) {
	var sess *session.Session
	switch {
	case uri == ResourceCurrent, uri == ResourceHistory, uri == ResourceSettings:
		sess = h.registry.Current()
	case strings.HasPrefix(uri, resourceSessionPrefix):
		id := strings.TrimPrefix(uri, resourceSessionPrefix)
		found, ok := h.registry.Get(id)
		if !ok {
			return "", fmt.Errorf("unknown session: %s", id)
		}
		sess = found
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}

	var doc any
	switch uri {
	case ResourceHistory:
		doc = sess.History(-1)
	case ResourceSettings:
		doc = sess.Settings()
	default:
		doc = sess.Snapshot()
	}

	out, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode resource %s: %w", uri, err)
	}
	return string(out), nil
}

// Tools lists the operations Call accepts, with their argument schemas.
func (h *Handler) Tools() []protocol.ToolSpec {
	return []protocol.ToolSpec{
		{
			Name:        ToolSendMessage,
			Description: "Record a conversation message; with use_voice, narration markers in the text are extracted, cleaned, and spoken aloud.",
			InputSchema: objectSchema(map[string]any{
				"text":      map[string]any{"type": "string", "description": "Message text, optionally carrying narration markers."},
				"use_voice": map[string]any{"type": "boolean", "description": "Speak the extracted narration (default false)."},
				"role":      map[string]any{"type": "string", "enum": []string{"user", "assistant"}, "description": "Message author (default user)."},
			}, []string{"text"}),
		},
		{
			Name:        ToolGetHistory,
			Description: "Return the current session's message history, oldest first.",
			InputSchema: objectSchema(map[string]any{
				"limit": map[string]any{"type": "integer", "description": "Return only the most recent N messages; omit for all."},
			}, nil),
		},
		{
			Name:        ToolClearConversation,
			Description: "Remove all messages from the current session.",
			InputSchema: objectSchema(nil, nil),
		},
		{
			Name:        ToolSetVoiceSettings,
			Description: "Update voice settings for the current session. Unknown keys and invalid values are rejected without applying anything.",
			InputSchema: objectSchema(map[string]any{
				"tts_provider":      map[string]any{"type": "string", "enum": []string{"local", "openai", "elevenlabs"}},
				"stt_provider":      map[string]any{"type": "string", "enum": []string{"local", "openai", "macos"}},
				"tts_voice":         map[string]any{"type": "string"},
				"tts_speed":         map[string]any{"type": "number", "minimum": 0.25, "maximum": 4.0},
				"narration_enabled": map[string]any{"type": "boolean"},
				"auto_speak":        map[string]any{"type": "boolean"},
				"verbosity":         map[string]any{"type": "string", "enum": []string{"brief", "medium", "detailed"}},
			}, nil),
		},
		{
			Name:        ToolGetVoiceSettings,
			Description: "Return the current session's voice settings.",
			InputSchema: objectSchema(nil, nil),
		},
		{
			Name:        ToolListen,
			Description: "Record microphone audio and transcribe it with the configured speech-to-text provider.",
			InputSchema: objectSchema(map[string]any{
				"duration": map[string]any{"type": "number", "description": "Recording length in seconds; omit to record until Enter is pressed."},
			}, nil),
		},
	}
}

// Resources lists the readable conversation:// URIs.
func (h *Handler) Resources() []protocol.ResourceSpec {
	return []protocol.ResourceSpec{
		{URI: ResourceCurrent, Name: "Current session", Description: "Full snapshot of the current session.", MimeType: "application/json"},
		{URI: ResourceHistory, Name: "Conversation history", Description: "Message history of the current session.", MimeType: "application/json"},
		{URI: ResourceSettings, Name: "Voice settings", Description: "Voice settings of the current session.", MimeType: "application/json"},
	}
}

func objectSchema(props map[string]any, required []string) map[string]any {
	schema := map[string]any{"type": "object"}
	if len(props) > 0 {
		schema["properties"] = props
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
