package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"narrationkit/core"
	"narrationkit/factories"
	"narrationkit/handlers/tools"
	"narrationkit/narration"
	"narrationkit/prompt"
	"narrationkit/runner"
	"narrationkit/session"
	"narrationkit/voice"
)

// Stale sessions are reaped in the background while the server runs.
const (
	cleanupInterval = time.Hour
	sessionMaxAge   = 24 * time.Hour
)

func main() {
	var (
		processMode bool
		promptMode  bool
		verbosity   string
	)
	flag.BoolVar(&processMode, "process", false, "read text from stdin, print it without narration markers, speak the narration")
	flag.BoolVar(&promptMode, "prompt", false, "print the narration instruction prompt and exit")
	flag.StringVar(&verbosity, "verbosity", "", "narration verbosity for -prompt (brief, medium, detailed)")
	flag.Parse()

	logger := core.GetLogger()

	if promptMode {
		level := core.VerbosityMedium
		if verbosity != "" {
			parsed, err := core.ParseVerbosity(verbosity)
			if err != nil {
				logger.With(map[string]any{"error": err}).Error("invalid verbosity")
				os.Exit(1)
			}
			level = parsed
		}
		fmt.Print(prompt.NarrationPrompt(level))
		return
	}

	if err := godotenv.Load(".env.local"); err != nil {
		logger.With(map[string]any{"error": err}).Warn("No .env.local file found or failed to load")
	}

	factory := factories.NewFactory(factories.APIKeys{
		OpenAI:     os.Getenv("OPENAI_API_KEY"),
		ElevenLabs: os.Getenv("ELEVENLABS_API_KEY"),
	}, logger, factories.WithWhisperModel(os.Getenv("WHISPER_MODEL_PATH")))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if processMode {
		runProcessMode(ctx, factory, logger)
		return
	}

	runServerMode(ctx, factory, logger)
}

// runServerMode serves the tool surface over stdio until stdin closes.
func runServerMode(ctx context.Context, factory voice.ProviderFactory, logger *core.Logger) {
	registry := session.NewRegistry(logger)
	handler := tools.NewHandler(registry, factory, logger)

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := registry.Cleanup(sessionMaxAge); removed > 0 {
					logger.With(map[string]any{"removed": removed}).Info("reaped stale sessions")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("narration server listening on stdio")
	if err := runner.NewRunner(handler, logger).Run(ctx); err != nil {
		logger.With(map[string]any{"error": err}).Error("server stopped")
		os.Exit(1)
	}
}

// runProcessMode reads all of stdin as one document, prints the visible text,
// and speaks the narration. Speech failures are logged, not fatal; the text
// output must survive a missing audio stack.
func runProcessMode(ctx context.Context, factory voice.ProviderFactory, logger *core.Logger) {
	reader := bufio.NewReader(os.Stdin)
	var input []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := reader.Read(buf)
		input = append(input, buf[:n]...)
		if err != nil {
			break
		}
	}

	visible, narr, found := narration.Split(string(input))
	fmt.Println(visible)

	if !found || narr == "" {
		return
	}

	sess := session.New()
	coord := voice.NewCoordinator(sess, factory, logger)
	coord.SpeakSync(ctx, narr)
}
