// Package tools dispatches named tool calls to backend-specific
// handlers: structured user facts (relational), past conversations
// (vector), character backstory (relational), quality metric trends
// (time-series), and a relationship summary aggregator that merges the
// facts and conversation handlers.
//
// Every call produces a ToolResult, even on failure. Handler errors,
// timeouts, and panics are caught at the executor boundary and
// converted to failed results carrying "{error_type}: {message}" and
// the elapsed time; one failing tool never aborts a batch.
package tools
