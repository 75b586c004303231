package audio

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForStopReturnsOnNewline(t *testing.T) {
	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	defer rd.Close()
	defer wr.Close()

	_, err = wr.WriteString("\n")
	require.NoError(t, err)

	finished := make(chan struct{})
	go func() {
		waitForStop(context.Background(), rd)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("waitForStop did not return on newline")
	}
}

func TestWaitForStopCancelDoesNotConsumeLaterInput(t *testing.T) {
	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	defer rd.Close()
	defer wr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	waitForStop(ctx, rd)

	// A line written after the abandoned wait must still reach the next
	// reader of the stream.
	_, err = wr.WriteString("next request\n")
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := rd.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "next request\n", string(buf[:n]))
}
