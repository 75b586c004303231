package protocol

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// DecodeRequest parses a request envelope, applying the default kind and
// rejecting envelopes that name no operation.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := sonic.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("protocol: unmarshal request: %w", err)
	}
	if req.Kind == "" {
		req.Kind = KindTool
	}
	switch req.Kind {
	case KindTool:
		if req.Tool == "" {
			return Request{}, errors.New("protocol: request missing tool name")
		}
	case KindResource:
		if req.URI == "" {
			return Request{}, errors.New("protocol: request missing resource uri")
		}
	case KindListTools, KindListResources:
	default:
		return Request{}, fmt.Errorf("protocol: unknown request kind %q", req.Kind)
	}
	return req, nil
}

// DecodeArguments parses a request's argument bag. Absent arguments decode to
// an empty map.
func DecodeArguments(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := sonic.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("protocol: unmarshal arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// EncodeResponse serializes a response envelope.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := sonic.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal response: %w", err)
	}
	return data, nil
}

// MarshalData serializes a structured result for the response Data field.
func MarshalData(v any) ([]byte, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal data: %w", err)
	}
	return data, nil
}
