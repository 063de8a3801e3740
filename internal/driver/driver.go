package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sentinelPrefix = "POCKETCODER_EXIT"

// Multiplexer is the subset of tmux control operations the driver needs.
// Satisfied by *tmux.Adapter; abstracted here so the sentinel protocol can
// be tested without a real tmux binary.
type Multiplexer interface {
	HasSession(session string) (bool, error)
	NewSession(session string) error
	Interrupt(target string) error
	ClearScreen(target string) error
	ClearHistory(target string) error
	SendCommand(target, line string) error
	CapturePane(target string) (string, error)
}

// Config are the tunable, deployment-scoped knobs (spec §4.1, §9).
type Config struct {
	// AutoCreateSession resolves the "should the driver create a session on
	// demand" Open Question (spec §9): off by default, and must stay off
	// for agent-named panes, which are owned by a separate lifecycle.
	AutoCreateSession bool
	SettleDelay       time.Duration
	PollInterval      time.Duration
	Deadline          time.Duration
}

func (c Config) withDefaults() Config {
	if c.SettleDelay <= 0 {
		c.SettleDelay = 300 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 200 * time.Millisecond
	}
	if c.Deadline <= 0 {
		c.Deadline = 300 * time.Second
	}
	return c
}

// Driver runs the sentinel completion protocol against one tmux target.
type Driver struct {
	tmux Multiplexer
	cfg  Config
	log  *slog.Logger
}

func New(tmux Multiplexer, cfg Config, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{tmux: tmux, cfg: cfg.withDefaults(), log: log}
}

// Exec implements the protocol in spec §4.1: existence check, sanitise,
// settle, wrap+inject, poll, extract. Every step is synchronous with
// respect to the previous one.
func (d *Driver) Exec(ctx context.Context, req ExecRequest, pane PaneAddress) (CommandResult, error) {
	target := pane.Target()

	// 1. Pane existence check.
	exists, err := d.tmux.HasSession(pane.SessionName)
	if err != nil {
		return CommandResult{}, wrapErr(ErrMultiplexerIoError, err)
	}
	if !exists {
		if !d.cfg.AutoCreateSession {
			return CommandResult{}, ErrPaneUnavailable
		}
		if err := d.tmux.NewSession(pane.SessionName); err != nil {
			return CommandResult{}, wrapErr(ErrPaneUnavailable, err)
		}
	}

	// 2. Sanitise. Fire-and-forget: failures are logged, never fatal.
	if err := d.tmux.Interrupt(target); err != nil {
		d.log.Warn("pane interrupt failed", "target", target, "error", err)
	}
	if err := d.tmux.ClearScreen(target); err != nil {
		d.log.Warn("pane clear failed", "target", target, "error", err)
	}
	if err := d.tmux.ClearHistory(target); err != nil {
		d.log.Warn("pane clear-history failed", "target", target, "error", err)
	}

	// 3. Settle: let the shell prompt redraw after the interrupt.
	if err := sleepCtx(ctx, d.cfg.SettleDelay); err != nil {
		return CommandResult{}, err
	}

	// 4. Wrap and inject.
	sentinelID := uuid.NewString()
	wrapped := wrapCommand(req.Cmd, req.Cwd, sentinelID)
	if err := d.tmux.SendCommand(target, wrapped); err != nil {
		return CommandResult{}, wrapErr(ErrMultiplexerIoError, err)
	}

	// 5. Poll and 6. Extract.
	return d.pollForSentinel(ctx, target, sentinelID, req.Cwd)
}

func wrapCommand(cmd, cwd, sentinelID string) string {
	body := cmd
	if strings.TrimSpace(cwd) != "" {
		body = fmt.Sprintf("cd %q && %s", cwd, cmd)
	}
	return fmt.Sprintf(`(%s); echo "---%s:$?_ID:{%s}---"`, body, sentinelPrefix, sentinelID)
}

func (d *Driver) pollForSentinel(ctx context.Context, target, sentinelID, cwd string) (CommandResult, error) {
	deadline := time.Now().Add(d.cfg.Deadline)
	for {
		if time.Now().After(deadline) {
			return CommandResult{}, ErrTimeout
		}

		buf, err := d.tmux.CapturePane(target)
		if err != nil {
			return CommandResult{}, wrapErr(ErrMultiplexerIoError, err)
		}

		if line, ok := findSentinelLine(buf, sentinelID); ok {
			return CommandResult{
				ExitCode: parseExitCode(line),
				Output:   extractOutput(buf, sentinelID, cwd),
			}, nil
		}

		if err := sleepCtx(ctx, d.cfg.PollInterval); err != nil {
			return CommandResult{}, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func findSentinelLine(buf, sentinelID string) (string, bool) {
	for _, line := range strings.Split(buf, "\n") {
		if strings.Contains(line, sentinelPrefix) && strings.Contains(line, sentinelID) {
			return line, true
		}
	}
	return "", false
}

// parseExitCode reads the <code> field between the first ':' and the next
// '_' following the sentinel prefix (spec §4.1 step 6); defaults to 0 if
// unparseable, since the line was present and the command did finish.
func parseExitCode(line string) int {
	idx := strings.Index(line, sentinelPrefix)
	if idx < 0 {
		return 0
	}
	rest := line[idx+len(sentinelPrefix):]
	rest = strings.TrimPrefix(rest, ":")
	field := rest
	if cut := strings.IndexByte(rest, '_'); cut >= 0 {
		field = rest[:cut]
	}
	code, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0
	}
	return code
}

// extractOutput removes the sentinel line, any other line carrying this
// invocation's random id, and the injected cd preamble, then trims
// surrounding whitespace (spec §4.1 step 6, §8 invariants).
func extractOutput(buf, sentinelID, cwd string) string {
	preamble := ""
	if strings.TrimSpace(cwd) != "" {
		preamble = fmt.Sprintf("cd %q &&", cwd)
	}

	var kept []string
	for _, line := range strings.Split(buf, "\n") {
		if strings.Contains(line, sentinelPrefix) {
			continue
		}
		if strings.Contains(line, sentinelID) {
			continue
		}
		if preamble != "" && strings.Contains(line, preamble) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
