package tunnel

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func catSpawner() Spawner {
	return func(ctx context.Context) (*exec.Cmd, io.WriteCloser, io.ReadCloser, error) {
		cmd := exec.CommandContext(ctx, "cat")
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, nil, err
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, nil, nil, err
		}
		return cmd, stdin, stdout, nil
	}
}

func TestBridge_EchoesThroughChild(t *testing.T) {
	bridge := New(catSpawner(), nil)

	srv := httptest.NewServer(http.HandlerFunc(bridge.HandleHTTP))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := conn.Write(ctx, websocket.MessageText, []byte("hello tunnel")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "hello tunnel" {
		t.Fatalf("expected echoed line, got %q", data)
	}
}

func TestBridge_ClientCloseKillsSilentChild(t *testing.T) {
	bridge := New(catSpawner(), nil)

	finished := make(chan struct{})
	handler := func(w http.ResponseWriter, r *http.Request) {
		bridge.HandleHTTP(w, r)
		close(finished)
	}
	srv := httptest.NewServer(http.HandlerFunc(handler))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	// Child (cat) stays silent since nothing was ever written to it — the
	// normal steady state for an MCP server idling between requests.
	if err := conn.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("bridge.run did not return after client close; silent child leaked")
	}
}

func TestBridge_SpawnFailureClosesConn(t *testing.T) {
	bridge := New(func(ctx context.Context) (*exec.Cmd, io.WriteCloser, io.ReadCloser, error) {
		return nil, nil, nil, io.ErrClosedPipe
	}, nil)

	srv := httptest.NewServer(http.HandlerFunc(bridge.HandleHTTP))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if _, _, err := conn.Read(ctx); err == nil {
		t.Fatalf("expected connection to be closed after spawn failure")
	}
}
