package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type notifyRequest struct {
	SessionID string         `json:"session_id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload,omitempty"`
}

type brainPromptRequest struct {
	Prompt string `json:"prompt"`
}

// handleNotify forwards a synthesised prompt to the Brain's prompt_async
// endpoint (spec §4.3). The response is advisory only: forwarding failures
// are logged, never surfaced to the caller (spec §7 "notification failures:
// logged, not propagated").
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if s.deps.BrainBaseURL != "" {
		go s.forwardNotify(req)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) forwardNotify(req notifyRequest) {
	prompt := synthesizePrompt(req)
	body, err := json.Marshal(brainPromptRequest{Prompt: prompt})
	if err != nil {
		return
	}

	url := fmt.Sprintf("%s/session/%s/prompt_async", s.deps.BrainBaseURL, req.SessionID)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	res, err := client.Do(httpReq)
	if err != nil {
		s.deps.Log.Warn("notify forward failed", "session_id", req.SessionID, "err", err)
		return
	}
	_ = res.Body.Close()
}

func synthesizePrompt(req notifyRequest) string {
	return fmt.Sprintf("event %q occurred for session %s", req.EventType, req.SessionID)
}
