package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestRun_SendsCurrentWorkingDirectory(t *testing.T) {
	var gotCwd string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Cwd string `json:"cwd"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotCwd = body.Cwd
		_ = json.NewEncoder(w).Encode(map[string]any{"stdout": "", "exit_code": 0})
	}))
	defer srv.Close()

	wantCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd: %v", err)
	}

	code := run([]string{"bash", "-c", "true"}, srv.URL, "sess-1", "usage-1")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if gotCwd != wantCwd {
		t.Fatalf("expected cwd %q, got %q", wantCwd, gotCwd)
	}
}
