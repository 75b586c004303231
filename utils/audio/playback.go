package audio

import (
	"fmt"
	"os/exec"
	"runtime"

	"context"
)

// playerCandidates lists playback commands in preference order per platform.
// Each entry is the command plus the flags to play a file path appended last.
func playerCandidates() [][]string {
	if runtime.GOOS == "darwin" {
		return [][]string{
			{"afplay"},
			{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		}
	}
	return [][]string{
		{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		{"aplay", "-q"},
		{"mpg123", "-q"},
		{"paplay"},
	}
}

// PlayFile plays an audio file with the first available system player,
// blocking until playback finishes.
func PlayFile(ctx context.Context, path string) error {
	for _, candidate := range playerCandidates() {
		bin, err := exec.LookPath(candidate[0])
		if err != nil {
			continue
		}
		args := append(append([]string{}, candidate[1:]...), path)
		cmd := exec.CommandContext(ctx, bin, args...)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("audio: %s: %w", candidate[0], err)
		}
		return nil
	}
	return fmt.Errorf("audio: no playback command found (tried afplay/ffplay/aplay/mpg123/paplay)")
}
