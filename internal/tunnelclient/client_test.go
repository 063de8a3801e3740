package tunnelclient

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

type fakeSocket struct {
	reads  chan string
	writes []string
	closed bool
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{reads: make(chan string, 8)}
}

func (f *fakeSocket) ReadText(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case text, ok := <-f.reads:
		if !ok {
			return "", io.EOF
		}
		return text, nil
	}
}

func (f *fakeSocket) WriteText(ctx context.Context, text string) error {
	f.writes = append(f.writes, text)
	return nil
}

func (f *fakeSocket) Close() error {
	f.closed = true
	close(f.reads)
	return nil
}

type fakeDialer struct {
	sock *fakeSocket
}

func (d fakeDialer) Dial(ctx context.Context, url string) (Socket, error) {
	return d.sock, nil
}

func TestClient_Run_StdinToSocket(t *testing.T) {
	sock := newFakeSocket()
	c := New(fakeDialer{sock: sock})

	stdin := strings.NewReader("{\"jsonrpc\":\"2.0\"}\n")
	var stdout bytes.Buffer

	sock.reads <- "{\"result\":true}"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx, "ws://proxy/mcp/ws", stdin, &stdout)
		close(done)
	}()

	// Run returns once stdin reaches EOF, after its line has been written.
	<-done
	cancel()

	if len(sock.writes) == 0 || sock.writes[0] != `{"jsonrpc":"2.0"}` {
		t.Fatalf("expected stdin line written to socket, got %+v", sock.writes)
	}
}

func TestProxyWebSocketURL(t *testing.T) {
	cases := map[string]string{
		"http://proxy:3001":  "ws://proxy:3001/mcp/ws",
		"https://proxy:3001": "wss://proxy:3001/mcp/ws",
		"http://proxy:3001/": "ws://proxy:3001/mcp/ws",
	}
	for in, want := range cases {
		if got := ProxyWebSocketURL(in); got != want {
			t.Fatalf("ProxyWebSocketURL(%q) = %q, want %q", in, got, want)
		}
	}
}
