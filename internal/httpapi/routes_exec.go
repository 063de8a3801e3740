package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"pocketcoder/internal/driver"
	"pocketcoder/internal/records"
	"pocketcoder/internal/resolver"
)

type execRequest struct {
	Cmd       string         `json:"cmd"`
	Cwd       string         `json:"cwd,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	UsageID   string         `json:"usage_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type execResponse struct {
	Stdout   string `json:"stdout,omitempty"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

// handleExec is the C3 /exec route: resolve the target pane, run it through
// the driver, and always answer 200 with the result or an in-band error
// (spec §7 "never 4xx; errors are in-band").
func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	var req execRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cmd == "" {
		writeJSON(w, http.StatusOK, execResponse{Error: "invalid request: cmd is required", ExitCode: 1})
		return
	}
	if req.Cwd == "" {
		req.Cwd = "/workspace"
	}

	pane := s.deps.DefaultPane
	if req.SessionID != "" {
		if s.deps.Resolver == nil {
			writeJSON(w, http.StatusOK, execResponse{Error: "CAO lookup failed: no registry configured", ExitCode: 1})
			return
		}
		res, err := s.deps.Resolver.Resolve(r.Context(), req.SessionID)
		if err != nil {
			writeJSON(w, http.StatusOK, execResponse{Error: resolveErrorMessage(err), ExitCode: 1})
			return
		}
		pane.SessionName = res.SessionName
		pane.WindowDesignator = res.WindowDesignator
	}

	result, err := s.deps.Driver.Exec(r.Context(), driver.ExecRequest{
		Cmd:      req.Cmd,
		Cwd:      req.Cwd,
		UsageID:  req.UsageID,
		Metadata: req.Metadata,
	}, pane)
	if err != nil {
		writeJSON(w, http.StatusOK, execResponse{Error: execErrorMessage(err), ExitCode: 1})
		return
	}

	s.recordExecution(r, req, result)
	writeJSON(w, http.StatusOK, execResponse{Stdout: result.Output, ExitCode: result.ExitCode})
}

// resolveErrorMessage maps a resolver failure to the in-band text the
// caller sees; scenario 5 requires the phrase "CAO lookup failed" verbatim.
func resolveErrorMessage(err error) string {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		return "CAO lookup failed: session not found"
	case errors.Is(err, resolver.ErrUnreachable):
		return "CAO lookup failed: registry unreachable"
	default:
		return "CAO lookup failed: " + err.Error()
	}
}

func execErrorMessage(err error) string {
	switch {
	case errors.Is(err, driver.ErrTimeout):
		return "Command execution timed out (Sandbox)."
	case errors.Is(err, driver.ErrPaneUnavailable):
		return "Sandbox pane unavailable: " + err.Error()
	case errors.Is(err, driver.ErrMultiplexerIoError):
		return "Sandbox multiplexer error: " + err.Error()
	default:
		return err.Error()
	}
}

// recordExecution best-effort audits the call via the records provider, if
// one is configured; failures here never affect the HTTP response.
func (s *Server) recordExecution(r *http.Request, req execRequest, result driver.CommandResult) {
	if s.deps.Records == nil {
		return
	}
	hash := hashCommand(req.Cmd)
	cmdRecord, err := s.deps.Records.GetCommandByHash(r.Context(), hash)
	if err != nil {
		return
	}
	if cmdRecord == nil {
		created, err := s.deps.Records.CreateCommand(r.Context(), req.Cmd, hash)
		if err != nil {
			return
		}
		cmdRecord = &created
	}

	exec, err := s.deps.Records.CreateExecution(r.Context(), cmdRecord.ID, req.Cwd, records.StatusRunning, "exec", req.Metadata, req.UsageID)
	if err != nil {
		return
	}

	exitCode := result.ExitCode
	_ = s.deps.Records.UpdateExecutionStatus(r.Context(), exec.ID, records.StatusDone, map[string]any{"stdout": result.Output}, &exitCode)
}

func hashCommand(cmd string) string {
	sum := sha256.Sum256([]byte(cmd))
	return hex.EncodeToString(sum[:])
}
