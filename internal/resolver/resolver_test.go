package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeWindows struct {
	windows []Window
}

func (f *fakeWindows) ListWindows(string) ([]Window, error) { return f.windows, nil }

func TestResolver_NumericWindowID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := 3
		_ = json.NewEncoder(w).Encode(registryPayload{TmuxSession: "main", TmuxWindowID: &id})
	}))
	defer srv.Close()

	r := New(srv.URL, nil)
	res, err := r.Resolve(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SessionName != "main" || res.WindowDesignator != "3" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolver_WindowNameAtSuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryPayload{TmuxSession: "main", TmuxWindow: "build@7"})
	}))
	defer srv.Close()

	r := New(srv.URL, nil)
	res, err := r.Resolve(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WindowDesignator != "7" {
		t.Fatalf("expected designator 7, got %q", res.WindowDesignator)
	}
}

func TestResolver_WindowNameLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(registryPayload{TmuxSession: "main", TmuxWindow: "build"})
	}))
	defer srv.Close()

	r := New(srv.URL, &fakeWindows{windows: []Window{{Index: 0, Name: "shell"}, {Index: 2, Name: "build"}}})
	res, err := r.Resolve(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WindowDesignator != "2" {
		t.Fatalf("expected designator 2, got %q", res.WindowDesignator)
	}
}

func TestResolver_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := New(srv.URL, nil)
	_, err := r.Resolve(context.Background(), "agent-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolver_Unreachable(t *testing.T) {
	r := New("http://127.0.0.1:0", nil)
	_, err := r.Resolve(context.Background(), "agent-1")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestAgentPane(t *testing.T) {
	res := AgentPane("main", "bob")
	if res.SessionName != "main" || res.WindowDesignator != "bob:terminal" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}
