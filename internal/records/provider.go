// Package records defines the records-service capability trait (spec §9):
// the shared interface the proxy uses for command hashing, whitelisting and
// execution bookkeeping. The external records service itself is out of
// scope; this package only names the shape and the HTTP-backed client.
package records

import "context"

// CommandRecord is a deduplicated command body keyed by its content hash.
type CommandRecord struct {
	ID      string `json:"id"`
	Hash    string `json:"hash"`
	Command string `json:"command"`
}

// ExecutionRecord tracks one invocation of a CommandRecord.
type ExecutionRecord struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Output   map[string]any `json:"output,omitempty"`
	ExitCode *int           `json:"exit_code,omitempty"`
}

// WhitelistRecord marks a command as pre-approved for unattended execution.
type WhitelistRecord struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// Execution statuses used by CreateExecution/UpdateExecutionStatus.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Provider is the polymorphic records-service capability set (spec §9):
// {get_command_by_hash, create_command, is_whitelisted, create_execution,
// get_execution, update_execution_status}. The proxy may run with this
// entirely absent (no provider configured), in which case callers skip
// the audit trail rather than fail the request.
type Provider interface {
	GetCommandByHash(ctx context.Context, hash string) (*CommandRecord, error)
	CreateCommand(ctx context.Context, cmd, hash string) (CommandRecord, error)
	IsWhitelisted(ctx context.Context, commandID string) (bool, error)
	CreateExecution(ctx context.Context, cmdID, cwd, status, source string, metadata map[string]any, usageID string) (ExecutionRecord, error)
	GetExecution(ctx context.Context, id string) (ExecutionRecord, error)
	UpdateExecutionStatus(ctx context.Context, id, status string, output map[string]any, exitCode *int) error
}
