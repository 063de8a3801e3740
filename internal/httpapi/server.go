// Package httpapi implements the HTTP surface: /exec, /notify, /health,
// /sse, /mcp/ws, and the legacy reverse proxy, via a Deps-injected
// *http.ServeMux and JSON envelope helpers.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"pocketcoder/internal/driver"
	"pocketcoder/internal/records"
	"pocketcoder/internal/resolver"
	"pocketcoder/internal/sserelay"
	"pocketcoder/internal/tunnel"
)

// Driver is the subset of driver.Driver the server depends on.
type Driver interface {
	Exec(ctx context.Context, req driver.ExecRequest, pane driver.PaneAddress) (driver.CommandResult, error)
}

// Resolver is the subset of resolver.Resolver the server depends on.
type Resolver interface {
	Resolve(ctx context.Context, callerSessionID string) (resolver.Resolution, error)
}

// Deps wires the HTTP surface to the driver, resolver, SSE relay, tunnel
// and (optional) records provider.
type Deps struct {
	Driver         Driver
	Resolver       Resolver
	DefaultPane    driver.PaneAddress
	BrainBaseURL   string
	Relay          *sserelay.Relay
	Tunnel         *tunnel.Bridge
	Records        records.Provider // may be nil; callers skip the audit trail
	DownstreamBase func(*http.Request) string
	Log            *slog.Logger
}

// Server is the HTTP surface mux; NewServer registers every route once.
type Server struct {
	deps     Deps
	mux      *http.ServeMux
	sessions *SessionMap
}

func NewServer(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	s := &Server{deps: deps, mux: http.NewServeMux(), sessions: NewSessionMap()}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /sse", s.handleSSE)
	s.mux.HandleFunc("POST /exec", s.handleExec)
	s.mux.HandleFunc("POST /notify", s.handleNotify)
	if deps.Tunnel != nil {
		s.mux.HandleFunc("/mcp/ws", deps.Tunnel.HandleHTTP)
	}
	if deps.Relay != nil {
		s.mux.HandleFunc("GET /mcp/sse", deps.Relay.ServeSSE)
		s.mux.HandleFunc("/mcp/messages/", deps.Relay.ServeMessages)
		s.mux.HandleFunc("/mcp/", deps.Relay.ServeMessages)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
