// Package sserelay implements the SSE relay (spec §4.4): it reverse-proxies
// an upstream MCP event stream to a downstream client, rewriting the
// endpoint-advertisement line on the fly without buffering the body.
// Grounded on _examples/original_source/proxy/src/mcp.rs's
// mcp_sse_relay_handler and mcp_message_proxy_handler.
package sserelay

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Relay proxies one upstream SSE endpoint, rewriting lines as they stream.
type Relay struct {
	upstreamBase  string // e.g. "http://sandbox:9888"
	downstreamURL func(*http.Request) string
	httpClient    *http.Client
}

func New(upstreamBase string, downstreamURL func(*http.Request) string) *Relay {
	return &Relay{
		upstreamBase:  strings.TrimRight(upstreamBase, "/"),
		downstreamURL: downstreamURL,
		httpClient:    &http.Client{Timeout: 0},
	}
}

// ServeSSE streams the upstream's /sse endpoint to w, rewriting lines
// matching "data: /messages/..." into an absolute downstream URL and
// forcing event type "endpoint" for them.
func (r *Relay) ServeSSE(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = req.URL.Query().Get("session_id")
	}

	upstreamURL := fmt.Sprintf("%s/sse?session_id=%s", r.upstreamBase, sessionID)
	upReq, err := http.NewRequestWithContext(req.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	upRes, err := r.httpClient.Do(upReq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer upRes.Body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	downstream := r.downstreamURL(req)

	reader := bufio.NewReader(upRes.Body)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if werr := writeRewritten(w, line, downstream); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
		select {
		case <-req.Context().Done():
			return
		default:
		}
	}
}

func writeRewritten(w io.Writer, rawLine, downstream string) error {
	line := strings.TrimRight(rawLine, "\r\n")
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, "data: /messages/"):
		path := strings.TrimPrefix(trimmed, "data: ")
		path = prefixSessionID(path)
		_, err := fmt.Fprintf(w, "event: endpoint\ndata: %s%s\n\n", downstream, path)
		return err
	case strings.HasPrefix(trimmed, "data: "), strings.HasPrefix(trimmed, "event: "):
		_, err := fmt.Fprintf(w, "%s\n", trimmed)
		return err
	case trimmed == "":
		_, err := fmt.Fprint(w, "\n")
		return err
	default:
		return nil
	}
}

// prefixSessionID rewrites a trailing "session_id=<id>" query value by
// prefixing it with "ses_", per the downstream consumer's expectation.
func prefixSessionID(path string) string {
	const marker = "session_id="
	idx := strings.Index(path, marker)
	if idx < 0 {
		return path
	}
	start := idx + len(marker)
	value := path[start:]
	if strings.HasPrefix(value, "ses_") {
		return path
	}
	return path[:start] + "ses_" + value
}

// ServeMessages forwards a POST body to the upstream /messages/ endpoint,
// preserving headers except Host, and relays the upstream's status,
// headers and body back verbatim.
func (r *Relay) ServeMessages(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("session_id")
	upstreamURL := fmt.Sprintf("%s/messages/?session_id=%s", r.upstreamBase, sessionID)

	upReq, err := http.NewRequestWithContext(req.Context(), http.MethodPost, upstreamURL, req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	for key, values := range req.Header {
		if strings.EqualFold(key, "Host") {
			continue
		}
		for _, v := range values {
			upReq.Header.Add(key, v)
		}
	}

	client := &http.Client{Timeout: 30 * time.Second}
	upRes, err := client.Do(upReq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer upRes.Body.Close()

	for key, values := range upRes.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(upRes.StatusCode)
	_, _ = io.Copy(w, upRes.Body)
}
