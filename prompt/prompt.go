// Package prompt generates the instruction text that teaches an assistant to
// emit narration markers alongside its normal output.
package prompt

import (
	"fmt"
	"strings"

	"narrationkit/core"
	"narrationkit/narration"
)

func sentenceGuidance(verbosity core.Verbosity) string {
	switch verbosity {
	case core.VerbosityBrief:
		return "1-2 short sentences"
	case core.VerbosityDetailed:
		return "4-6 sentences with context on what you found and what comes next"
	default:
		return "2-4 sentences"
	}
}

// NarrationPrompt returns instructions for wrapping spoken summaries in
// narration markers, sized to the given verbosity.
func NarrationPrompt(verbosity core.Verbosity) string {
	var b strings.Builder
	b.WriteString("# Voice Narration\n\n")
	b.WriteString("While you work, narrate what you are doing so it can be spoken aloud.\n\n")
	fmt.Fprintf(&b, "Wrap each spoken update in %s and %s markers. Everything outside the markers is shown as normal text; everything inside is read out by a text-to-speech voice.\n\n", narration.StartTag, narration.EndTag)
	b.WriteString("Rules for narration content:\n")
	fmt.Fprintf(&b, "- Keep each update to %s.\n", sentenceGuidance(verbosity))
	b.WriteString("- Use plain conversational language. No code, file paths, URLs, or markdown.\n")
	b.WriteString("- Say what you are doing and why, not how. \"I'm fixing the login timeout\" reads better than a diff.\n")
	b.WriteString("- Narrate at natural checkpoints: starting a task, finishing one, or hitting something unexpected.\n\n")
	b.WriteString("Example:\n\n")
	fmt.Fprintf(&b, "%sI found the bug. The retry loop never resets its counter, so I'm patching that now.%s\n", narration.StartTag, narration.EndTag)
	return b.String()
}
