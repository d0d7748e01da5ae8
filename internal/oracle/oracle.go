// Package oracle wraps the text-generation backends the dialogue pipeline
// consults. Replies are untrusted text; tool calls are limited to read-only
// lookups executed by the caller.
package oracle

import (
	"context"
	"errors"

	"github.com/Domenick1991/tablebot/internal/domain"
)

var ErrEmptyReply = errors.New("oracle returned an empty reply")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role
	Text string
}

type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
)

type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// ToolSpec describes a function the model may ask the caller to run.
type ToolSpec struct {
	Name        string
	Description string
	Params      []Param
}

type ToolCall struct {
	Name string
	Args map[string]any
}

// SummaryKey names the plain-text rendering every tool output carries.
const SummaryKey = "summary"

type ToolResult struct {
	Call   ToolCall
	Output map[string]any
}

type Request struct {
	System string
	// History is ordered oldest first and excludes Prompt.
	History []Message
	Prompt  string
	Tools   []ToolSpec
	// ToolResult is set on the second step, after the caller ran Call.
	ToolResult *ToolResult
	// Missing lists draft slots still needed for a booking.
	Missing    []string
	Restaurant domain.RestaurantInfo
}

// Reply carries either text or a tool call.
type Reply struct {
	Text string
	Call *ToolCall
}

type Oracle interface {
	Generate(ctx context.Context, req Request) (Reply, error)
}
