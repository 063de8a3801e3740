// Package tmux wraps the subset of the tmux control-socket contract this
// proxy depends on: has-session, new-session, send-keys, capture-pane,
// clear-history and list-windows (spec §6).
package tmux

import (
	"strconv"
	"strings"
)

type Window struct {
	Index int
	Name  string
}

// Adapter issues control commands against one tmux socket.
type Adapter struct {
	exec       Exec
	socketPath string
}

func NewAdapter(e Exec, socketPath string) *Adapter {
	return &Adapter{exec: e, socketPath: socketPath}
}

func (a *Adapter) withSocket(args ...string) []string {
	if strings.TrimSpace(a.socketPath) == "" {
		return args
	}
	return append([]string{"-S", a.socketPath}, args...)
}

// HasSession reports whether a session with this name currently exists.
func (a *Adapter) HasSession(session string) (bool, error) {
	err := a.exec.Run("tmux", a.withSocket("has-session", "-t", session)...)
	return err == nil, nil
}

// NewSession creates a detached session. Only invoked when the driver's
// auto-create-session policy is enabled (spec §9 Open Question #1).
func (a *Adapter) NewSession(session string) error {
	return a.exec.Run("tmux", a.withSocket("new-session", "-d", "-s", session)...)
}

// Interrupt sends Ctrl-C to the target pane (sanitise step (a), spec §4.1).
func (a *Adapter) Interrupt(target string) error {
	return a.exec.Run("tmux", a.withSocket("send-keys", "-t", target, "C-c")...)
}

// ClearScreen submits a literal `clear` command (sanitise step (b)).
func (a *Adapter) ClearScreen(target string) error {
	return a.exec.Run("tmux", a.withSocket("send-keys", "-t", target, "clear", "Enter")...)
}

// ClearHistory wipes the pane scrollback buffer (sanitise step (c)).
func (a *Adapter) ClearHistory(target string) error {
	return a.exec.Run("tmux", a.withSocket("clear-history", "-t", target)...)
}

// SendCommand injects one line of text followed by Enter.
func (a *Adapter) SendCommand(target, line string) error {
	return a.exec.Run("tmux", a.withSocket("send-keys", "-t", target, line, "Enter")...)
}

// CapturePane returns the pane's currently visible buffer.
func (a *Adapter) CapturePane(target string) (string, error) {
	out, err := a.exec.Output("tmux", a.withSocket("capture-pane", "-p", "-t", target)...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ListWindows returns the windows of a session, used by the resolver to
// match a window name to its numeric index (spec §4.2 step 3).
func (a *Adapter) ListWindows(session string) ([]Window, error) {
	out, err := a.exec.Output("tmux", a.withSocket("list-windows", "-t", session, "-F", "#{window_index}\t#{window_name}")...)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, nil
	}
	var windows []Window
	for _, line := range strings.Split(text, "\n") {
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		windows = append(windows, Window{Index: idx, Name: strings.TrimSpace(fields[1])})
	}
	return windows, nil
}
