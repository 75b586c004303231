// Package narration extracts the spoken-narration segment from an assistant
// response and cleans it for speech synthesis.
package narration

import (
	"regexp"
	"strings"
)

// Marker pair bounding a narration region. Matched case-insensitively and
// across newlines. The prompt package emits the same literals, so the two
// sides of the contract stay in one place.
const (
	StartTag = "<voice_narration>"
	EndTag   = "</voice_narration>"
)

// Mode selects how multiple narration regions in one message are handled.
type Mode int

const (
	// ModeFirst returns the cleaned content of the first region only.
	ModeFirst Mode = iota
	// ModeCombined cleans every region and joins them with ". " so TTS
	// pauses naturally between blocks.
	ModeCombined
)

var tagPattern = regexp.MustCompile(`(?is)` + StartTag + `(.*?)` + EndTag)

var (
	newlineRuns = regexp.MustCompile(`[\r\n]+`)
	codeFences  = regexp.MustCompile("```[\\s\\S]*?```")
	headings    = regexp.MustCompile(`#+\s*`)
	emphasis    = regexp.MustCompile(`\*\*?(.*?)\*\*?`)
	mdLinks     = regexp.MustCompile(`\[(.*?)\]\((?:.*?)\)`)
	spaceRuns   = regexp.MustCompile(`\s+`)
	urlTokens   = regexp.MustCompile(`https?://\S+`)

	// Glyphs that TTS engines mispronounce: checkmarks, crosses, warnings,
	// arrows, bullets, variation selectors, and the pictographic blocks
	// (emoji, dingbats, symbols).
	glyphs = regexp.MustCompile(`[\x{2022}\x{2190}-\x{21FF}\x{2300}-\x{23FF}\x{2460}-\x{24FF}\x{25A0}-\x{25FF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{FE00}-\x{FE0F}\x{1F000}-\x{1FAFF}]+`)

	// A run of symbols with no word characters or basic punctuation,
	// standing alone between whitespace (or a string edge).
	straySymbols = regexp.MustCompile(`(?:^| )[^\w .,!?;:'"()-]+(?: |$)`)

	dashes = strings.NewReplacer("—", "-", "–", "-")
)

// Extract finds narration regions in text and returns the cleaned result.
// The second return is false when no region matched. An empty region is a
// match: it cleans to "" with ok true, which callers must treat as distinct
// from no narration at all.
func Extract(text string, mode Mode) (string, bool) {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	if mode == ModeFirst {
		return Clean(matches[0][1]), true
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, Clean(m[1]))
	}
	return strings.Join(parts, ". "), true
}

// Clean prepares raw narration text for speech synthesis. The passes run in a
// fixed order; later passes assume the earlier ones already ran. Clean is
// idempotent on its own output.
func Clean(raw string) string {
	cleaned := strings.TrimSpace(raw)

	// Newline runs become a single space so the remaining passes see one line.
	cleaned = newlineRuns.ReplaceAllString(cleaned, " ")

	// Fenced code blocks go away entirely; inline code keeps its text.
	cleaned = codeFences.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, "`", "")

	// Markdown that reads badly aloud: heading markers, emphasis, links.
	cleaned = headings.ReplaceAllString(cleaned, "")
	cleaned = emphasis.ReplaceAllString(cleaned, "$1")
	cleaned = mdLinks.ReplaceAllString(cleaned, "$1")

	// Dashes are spoken as a pause, so keep them as plain hyphens; other
	// symbol glyphs are dropped outright.
	cleaned = dashes.Replace(cleaned)
	cleaned = glyphs.ReplaceAllString(cleaned, "")

	cleaned = spaceRuns.ReplaceAllString(cleaned, " ")

	// URLs sound terrible when spoken.
	cleaned = urlTokens.ReplaceAllString(cleaned, "")

	// Leftover symbol runs isolated between spaces. Removing one can leave a
	// new isolated run against a string edge, so iterate to a fixpoint.
	for {
		next := straySymbols.ReplaceAllString(cleaned, " ")
		next = spaceRuns.ReplaceAllString(next, " ")
		next = strings.TrimSpace(next)
		if next == cleaned {
			break
		}
		cleaned = next
	}

	return strings.TrimSpace(cleaned)
}

// RemoveTags deletes every narration region, delimiters included, producing
// the caller-visible transcript. Only the ends are trimmed; interior spacing
// outside the regions is preserved as-is.
func RemoveTags(text string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
}

// Split separates a response into its visible transcript and its narration
// (first-region semantics). ok is false when the text carries no narration.
func Split(text string) (visible string, narr string, ok bool) {
	narr, ok = Extract(text, ModeFirst)
	return RemoveTags(text), narr, ok
}
