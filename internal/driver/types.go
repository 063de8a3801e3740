// Package driver implements the pane-multiplexed command runner (spec §4.1):
// it injects a shell command into an existing tmux pane, waits for a
// per-invocation sentinel line to appear in the pane's scrollback, and
// recovers the command's exit status from it.
package driver

import (
	"fmt"
)

// ExecRequest is the caller-supplied execution payload (spec §3).
type ExecRequest struct {
	Cmd      string
	Cwd      string
	UsageID  string
	Metadata map[string]any
}

// CommandResult is what the driver returns for a completed invocation.
type CommandResult struct {
	Output   string
	ExitCode int
}

// PaneAddress identifies a single tmux pane (spec §3). PaneIndex is always
// 0 in the current design; WindowDesignator may be a numeric index or a
// window name, both accepted by tmux's target-pane syntax.
type PaneAddress struct {
	SocketPath       string
	SessionName      string
	WindowDesignator string
	PaneIndex        int
}

// Target renders the tmux target-pane string "session:window.pane".
func (p PaneAddress) Target() string {
	return fmt.Sprintf("%s:%s.%d", p.SessionName, p.WindowDesignator, p.PaneIndex)
}

// DriverError enumerates the failure modes exec() can return.
type DriverError string

const (
	ErrPaneUnavailable    DriverError = "pane_unavailable"
	ErrTimeout            DriverError = "timeout"
	ErrMultiplexerIoError DriverError = "multiplexer_io_error"
)

func (e DriverError) Error() string { return string(e) }

// wrapErr pairs a DriverError sentinel with underlying context.
func wrapErr(kind DriverError, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %v", kind, cause)
}
