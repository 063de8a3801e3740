package httpapi

import "net/http"

// handleSSE opens an event stream associated with sessionId (fresh UUID if
// absent), retained in the session map until client disconnect (spec
// §4.3). The current core never publishes to it; the mapping's existence
// is what the tunnel/notify layers depend on.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = newSessionID()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.sessions.Add(sessionID, flusher)
	defer s.sessions.Remove(sessionID)

	<-r.Context().Done()
}
