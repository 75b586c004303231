package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// Whisper expects 16 kHz mono input; every recorder below is pinned to that.
const (
	recordSampleRate = 16000
	recordChannels   = 1
)

// waitForStop blocks until a newline arrives on r or ctx is cancelled. On
// cancellation the pending read is unblocked via a read deadline, so an
// abandoned wait never consumes a line meant for a later reader of r.
func waitForStop(ctx context.Context, r io.Reader) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bufio.NewReader(r).ReadString('\n')
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	if f, ok := r.(*os.File); ok {
		if f.SetReadDeadline(time.Now()) == nil {
			<-done
			f.SetReadDeadline(time.Time{})
		}
	}
}

// recorderCommand returns the capture command for the host system. A positive
// duration is encoded into the command; a zero duration records until the
// process is interrupted.
func recorderCommand(ctx context.Context, outPath string, duration time.Duration) (*exec.Cmd, error) {
	secs := duration.Seconds()

	if bin, err := exec.LookPath("sox"); err == nil {
		args := []string{"-q", "-d", "-r", fmt.Sprint(recordSampleRate), "-c", fmt.Sprint(recordChannels), "-b", "16", outPath}
		if secs > 0 {
			args = append(args, "trim", "0", fmt.Sprintf("%.2f", secs))
		}
		return exec.CommandContext(ctx, bin, args...), nil
	}
	if runtime.GOOS != "darwin" {
		if bin, err := exec.LookPath("arecord"); err == nil {
			args := []string{"-q", "-f", "S16_LE", "-r", fmt.Sprint(recordSampleRate), "-c", fmt.Sprint(recordChannels)}
			if secs > 0 {
				args = append(args, "-d", fmt.Sprint(int(secs+0.5)))
			}
			args = append(args, outPath)
			return exec.CommandContext(ctx, bin, args...), nil
		}
	}
	if bin, err := exec.LookPath("ffmpeg"); err == nil {
		input := []string{"-f", "alsa", "-i", "default"}
		if runtime.GOOS == "darwin" {
			input = []string{"-f", "avfoundation", "-i", ":0"}
		}
		args := append([]string{"-loglevel", "quiet", "-y"}, input...)
		args = append(args, "-ar", fmt.Sprint(recordSampleRate), "-ac", fmt.Sprint(recordChannels))
		if secs > 0 {
			args = append(args, "-t", fmt.Sprintf("%.2f", secs))
		}
		args = append(args, outPath)
		return exec.CommandContext(ctx, bin, args...), nil
	}
	return nil, fmt.Errorf("audio: no capture command found (tried sox/arecord/ffmpeg)")
}

// RecordWAV records microphone input to a temporary WAV file and returns its
// path. The caller removes the file when done. A positive duration records
// for that long; zero records until the user presses Enter, with no timeout
// on that wait.
func RecordWAV(ctx context.Context, duration time.Duration) (string, error) {
	tmp, err := os.CreateTemp("", "narrationkit-rec-*.wav")
	if err != nil {
		return "", fmt.Errorf("audio: temp file: %w", err)
	}
	tmp.Close()
	outPath := tmp.Name()

	cmd, err := recorderCommand(ctx, outPath, duration)
	if err != nil {
		os.Remove(outPath)
		return "", err
	}

	if duration > 0 {
		if err := cmd.Run(); err != nil {
			os.Remove(outPath)
			return "", fmt.Errorf("audio: record: %w", err)
		}
		return outPath, nil
	}

	if err := cmd.Start(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("audio: record: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Recording... (press Enter to stop)")
	waitForStop(ctx, os.Stdin)

	// Interrupt lets the recorder finalize the WAV header before exiting.
	cmd.Process.Signal(os.Interrupt)
	if err := cmd.Wait(); err != nil {
		// Recorders report a non-zero status after SIGINT; the file is
		// still valid, so only a missing file is treated as failure.
		if _, statErr := os.Stat(outPath); statErr != nil {
			os.Remove(outPath)
			return "", fmt.Errorf("audio: record: %w", err)
		}
	}
	if ctx.Err() != nil {
		os.Remove(outPath)
		return "", ctx.Err()
	}
	return outPath, nil
}
