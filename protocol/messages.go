// Package protocol defines the request/response schema of the tool surface
// and its wire codec. One JSON envelope per line in each direction.
package protocol

import "encoding/json"

// RequestKind discriminates the request envelope.
type RequestKind string

const (
	// KindTool invokes a named tool operation.
	KindTool RequestKind = "tool"
	// KindResource reads a conversation:// resource.
	KindResource RequestKind = "resource"
	// KindListTools returns the tool catalog.
	KindListTools RequestKind = "list_tools"
	// KindListResources returns the resource catalog.
	KindListResources RequestKind = "list_resources"
)

// Request is the inbound envelope. ID is opaque and echoed back; Kind
// defaults to KindTool when omitted.
type Request struct {
	ID        string          `json:"id,omitempty"`
	Kind      RequestKind     `json:"kind,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	URI       string          `json:"uri,omitempty"`
}

// Response is the outbound envelope. Text is set even on error, so callers
// never see a transport-level crash for the defined error kinds.
type Response struct {
	ID      string          `json:"id,omitempty"`
	Text    string          `json:"text"`
	Data    json.RawMessage `json:"data,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
}

// ToolSpec documents one tool operation for catalog listings.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ResourceSpec documents one readable resource.
type ResourceSpec struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mime_type"`
}
