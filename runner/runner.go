// Package runner drives the stdio request loop: one JSON envelope per line
// in, one JSON response per line out.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"narrationkit/core"
	"narrationkit/handlers/tools"
	"narrationkit/protocol"
)

// maxLineBytes bounds a single request line. Tool arguments are small; this
// is generous headroom.
const maxLineBytes = 1 << 20

// Runner reads requests from in, dispatches them to the tool handler, and
// writes responses to out.
type Runner struct {
	handler *tools.Handler
	logger  *core.Logger
	in      io.Reader
	out     io.Writer
}

// NewRunner creates a runner on stdin/stdout.
func NewRunner(handler *tools.Handler, logger *core.Logger) *Runner {
	return NewRunnerWithStreams(handler, logger, os.Stdin, os.Stdout)
}

// NewRunnerWithStreams creates a runner on explicit streams.
func NewRunnerWithStreams(handler *tools.Handler, logger *core.Logger, in io.Reader, out io.Writer) *Runner {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Runner{handler: handler, logger: logger, in: in, out: out}
}

// Run processes requests until the input stream closes or ctx is cancelled.
// A malformed or failing request produces an error response; it never stops
// the loop.
func (r *Runner) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := r.dispatch(ctx, line)
		encoded, err := protocol.EncodeResponse(resp)
		if err != nil {
			r.logger.Error("encode response", "error", err)
			continue
		}
		if _, err := r.out.Write(append(encoded, '\n')); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

func (r *Runner) dispatch(ctx context.Context, line []byte) (resp protocol.Response) {
	req, err := protocol.DecodeRequest(line)
	if err != nil {
		r.logger.Warn("bad request", "error", err)
		return protocol.Response{Text: fmt.Sprintf("Error: %v", err), IsError: true}
	}
	resp.ID = req.ID

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("request panicked", "kind", string(req.Kind), "tool", req.Tool, "panic", rec)
			resp = protocol.Response{ID: req.ID, Text: fmt.Sprintf("Error: internal failure: %v", rec), IsError: true}
		}
	}()

	switch req.Kind {
	case protocol.KindTool:
		args, err := protocol.DecodeArguments(req.Arguments)
		if err != nil {
			return protocol.Response{ID: req.ID, Text: fmt.Sprintf("Error: %v", err), IsError: true}
		}
		result := r.handler.Call(ctx, req.Tool, args)
		resp.Text = result.Text
		resp.IsError = result.IsError
		if result.Data != nil {
			data, err := protocol.MarshalData(result.Data)
			if err != nil {
				r.logger.Warn("encode result data", "tool", req.Tool, "error", err)
			} else {
				resp.Data = data
			}
		}
	case protocol.KindResource:
		doc, err := r.handler.ReadResource(req.URI)
		if err != nil {
			return protocol.Response{ID: req.ID, Text: fmt.Sprintf("Error: %v", err), IsError: true}
		}
		resp.Text = doc
	case protocol.KindListTools:
		data, err := protocol.MarshalData(r.handler.Tools())
		if err != nil {
			return protocol.Response{ID: req.ID, Text: fmt.Sprintf("Error: %v", err), IsError: true}
		}
		resp.Data = data
	case protocol.KindListResources:
		data, err := protocol.MarshalData(r.handler.Resources())
		if err != nil {
			return protocol.Response{ID: req.ID, Text: fmt.Sprintf("Error: %v", err), IsError: true}
		}
		resp.Data = data
	}
	return resp
}
