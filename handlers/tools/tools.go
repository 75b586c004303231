// Package tools implements the tool surface: the named operations callers
// invoke to send messages, manage history, tune voice settings, and listen
// for voice input. Every operation returns a text result, even on error.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"narrationkit/core"
	"narrationkit/session"
	"narrationkit/voice"
)

// Tool operation names.
const (
	ToolSendMessage       = "send_message"
	ToolGetHistory        = "get_conversation_history"
	ToolClearConversation = "clear_conversation"
	ToolSetVoiceSettings  = "set_voice_settings"
	ToolGetVoiceSettings  = "get_voice_settings"
	ToolListen            = "listen"
)

// Result is a tool outcome: human-readable text plus the structured value it
// was rendered from.
type Result struct {
	Text    string
	Data    any
	IsError bool
}

func errorResult(format string, args ...any) Result {
	return Result{Text: fmt.Sprintf(format, args...), IsError: true}
}

// Handler validates tool arguments and delegates to the session registry and
// per-session voice coordinators.
type Handler struct {
	registry *session.Registry
	factory  voice.ProviderFactory
	logger   *core.Logger

	mu           sync.Mutex
	coordinators map[string]*voice.Coordinator
}

// NewHandler creates a tool handler over a registry and provider factory.
func NewHandler(registry *session.Registry, factory voice.ProviderFactory, logger *core.Logger) *Handler {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Handler{
		registry:     registry,
		factory:      factory,
		logger:       logger,
		coordinators: make(map[string]*voice.Coordinator),
	}
}

// Registry returns the underlying session registry.
func (h *Handler) Registry() *session.Registry {
	return h.registry
}

// Call routes a tool invocation by name. Unknown names produce an explicit
// result, not a failure.
func (h *Handler) Call(ctx context.Context, name string, args map[string]any) Result {
	if args == nil {
		args = map[string]any{}
	}
	switch name {
	case ToolSendMessage:
		return h.sendMessage(args)
	case ToolGetHistory:
		return h.getHistory(args)
	case ToolClearConversation:
		return h.clearConversation()
	case ToolSetVoiceSettings:
		return h.setVoiceSettings(args)
	case ToolGetVoiceSettings:
		return h.getVoiceSettings()
	case ToolListen:
		return h.listen(ctx, args)
	default:
		return errorResult("Unknown tool: %s", name)
	}
}

// coordinatorFor returns the coordinator bound to the session, creating and
// caching it on first use. Entries for sessions the registry no longer knows
// are dropped so a deleted session's coordinator does not outlive it.
func (h *Handler) coordinatorFor(sess *session.Session) *voice.Coordinator {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.coordinators {
		if _, ok := h.registry.Get(id); !ok {
			delete(h.coordinators, id)
		}
	}
	coord, ok := h.coordinators[sess.ID()]
	if !ok {
		coord = voice.NewCoordinator(sess, h.factory, h.logger)
		h.coordinators[sess.ID()] = coord
	}
	return coord
}

func (h *Handler) sendMessage(args map[string]any) Result {
	text, ok, err := stringArg(args, "text")
	if err != nil {
		return errorResult("Error: %v", err)
	}
	if !ok {
		return errorResult("Error: missing required argument \"text\"")
	}
	// Voice is opt-in: absent means false.
	useVoice, _, err := boolArg(args, "use_voice")
	if err != nil {
		return errorResult("Error: %v", err)
	}
	roleStr, _, err := stringArg(args, "role")
	if err != nil {
		return errorResult("Error: %v", err)
	}
	role, err := core.ParseRole(roleStr)
	if err != nil {
		return errorResult("Error: %v", err)
	}

	sess := h.registry.Current()

	var narr *string
	if useVoice {
		if n, found := h.coordinatorFor(sess).ExtractAndSpeak(text); found {
			narr = &n
		}
	}

	msg := sess.AddMessage(role, text, narr)

	spoken := "none"
	if n, found := msg.NarrationText(); found && n != "" {
		spoken = n
	}
	return Result{
		Text: fmt.Sprintf("Message sent:\n%s\n\nNarration: %s", text, spoken),
		Data: msg,
	}
}

func (h *Handler) getHistory(args map[string]any) Result {
	limit := -1
	if n, ok, err := intArg(args, "limit"); err != nil {
		return errorResult("Error: %v", err)
	} else if ok {
		if n < 0 {
			return errorResult("Error: limit must not be negative")
		}
		limit = n
	}

	history := h.registry.Current().History(limit)
	if len(history) == 0 {
		return Result{Text: "No conversation history", Data: history}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Conversation history (%d messages):\n\n", len(history))
	for i, msg := range history {
		fmt.Fprintf(&b, "%d. [%s] (%s)\n", i+1, msg.Role, msg.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "   %s\n", msg.Content)
		if n, found := msg.NarrationText(); found {
			fmt.Fprintf(&b, "   [Narration: %s]\n", n)
		}
		b.WriteString("\n")
	}
	return Result{Text: strings.TrimRight(b.String(), "\n"), Data: history}
}

func (h *Handler) clearConversation() Result {
	removed := h.registry.Current().Clear()
	return Result{
		Text: fmt.Sprintf("Conversation cleared (%d messages removed)", removed),
		Data: map[string]any{"messages_removed": removed},
	}
}

func (h *Handler) setVoiceSettings(args map[string]any) Result {
	if len(args) == 0 {
		return errorResult("Error: no settings provided")
	}
	sess := h.registry.Current()
	applied, err := h.coordinatorFor(sess).UpdateSettings(args)
	if err != nil {
		return errorResult("Error: %v", err)
	}

	// Echo back exactly the keys the caller supplied, not the full map.
	sort.Strings(applied)
	full := sess.Settings().Map()
	echoed := make(map[string]any, len(applied))
	var b strings.Builder
	b.WriteString("Voice settings updated:")
	for _, key := range applied {
		echoed[key] = full[key]
		fmt.Fprintf(&b, "\n  %s: %v", key, full[key])
	}
	return Result{Text: b.String(), Data: echoed}
}

func (h *Handler) getVoiceSettings() Result {
	settings := h.registry.Current().Settings()
	full := settings.Map()
	keys := make([]string, 0, len(full))
	for key := range full {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Current voice settings:")
	for _, key := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", key, full[key])
	}
	return Result{Text: b.String(), Data: settings}
}

func (h *Handler) listen(ctx context.Context, args map[string]any) Result {
	var duration time.Duration
	if secs, ok, err := floatArg(args, "duration"); err != nil {
		return errorResult("Error: %v", err)
	} else if ok {
		if secs <= 0 {
			return errorResult("Error: duration must be positive")
		}
		duration = time.Duration(secs * float64(time.Second))
	}

	sess := h.registry.Current()
	text, err := h.coordinatorFor(sess).Listen(ctx, duration)
	if err != nil {
		return errorResult("Error during voice input: %v", err)
	}
	return Result{
		Text: fmt.Sprintf("Transcribed: %s", text),
		Data: map[string]any{"text": text},
	}
}

func stringArg(args map[string]any, key string) (string, bool, error) {
	v, ok := args[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return s, true, nil
}

func boolArg(args map[string]any, key string) (bool, bool, error) {
	v, ok := args[key]
	if !ok {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, fmt.Errorf("%s must be a boolean, got %T", key, v)
	}
	return b, true, nil
}

func floatArg(args map[string]any, key string) (float64, bool, error) {
	v, ok := args[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number, got %T", key, v)
	}
}

func intArg(args map[string]any, key string) (int, bool, error) {
	f, ok, err := floatArg(args, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, false, fmt.Errorf("%s must be an integer", key)
	}
	return n, true, nil
}
