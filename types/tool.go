package types

import (
	"encoding/json"
	"time"
)

// ToolSchema defines a tool's interface for LLM function calling.
// Parameters holds the raw JSON Schema for the tool's arguments; names
// and enum values are part of the wire contract with calling LLMs.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is a structured, named request with typed arguments to be
// executed against one backend.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult represents the result of a tool execution. A ToolResult is
// always produced, even on failure: errors never escape the executor
// boundary as exceptions.
type ToolResult struct {
	Success         bool            `json:"success"`
	ToolName        string          `json:"tool_name"`
	Data            json.RawMessage `json:"data,omitempty"`
	Error           string          `json:"error,omitempty"`
	ExecutionTimeMS int64           `json:"execution_time_ms"`
}

// NewToolResult builds a successful result with marshaled data. A
// marshal failure is folded into a failed result rather than returned.
func NewToolResult(name string, data any, elapsed time.Duration) ToolResult {
	raw, err := json.Marshal(data)
	if err != nil {
		return FailedToolResult(name, NewError(ErrCodeInternal, "marshal tool data").WithCause(err), elapsed)
	}
	return ToolResult{
		Success:         true,
		ToolName:        name,
		Data:            raw,
		ExecutionTimeMS: elapsed.Milliseconds(),
	}
}

// FailedToolResult builds a failed result carrying the error as
// "{error_type}: {message}" so callers can classify without parsing.
func FailedToolResult(name string, err error, elapsed time.Duration) ToolResult {
	msg := "unknown error"
	if err != nil {
		msg = FormatToolError(err)
	}
	return ToolResult{
		Success:         false,
		ToolName:        name,
		Error:           msg,
		ExecutionTimeMS: elapsed.Milliseconds(),
	}
}

// IsError returns true if the tool execution failed.
func (tr ToolResult) IsError() bool {
	return !tr.Success
}
