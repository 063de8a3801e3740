// Package tunnelclient is the stdio-side counterpart of the MCP tunnel:
// it dials the proxy's /mcp/ws endpoint and splices it to the calling
// process's own stdin/stdout, so a local MCP client process can speak
// through the proxy without knowing about websockets, using the
// github.com/coder/websocket duplex idiom.
package tunnelclient

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/coder/websocket"
)

// Dialer abstracts the websocket dial so tests can substitute a fake.
type Dialer interface {
	Dial(ctx context.Context, url string) (Socket, error)
}

// Socket is the minimal duplex text-frame interface the client needs.
type Socket interface {
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
	Close() error
}

type RealDialer struct{}

func (RealDialer) Dial(ctx context.Context, url string) (Socket, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &realSocket{conn: conn}, nil
}

type realSocket struct {
	conn *websocket.Conn
}

func (s *realSocket) ReadText(ctx context.Context) (string, error) {
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *realSocket) WriteText(ctx context.Context, text string) error {
	return s.conn.Write(ctx, websocket.MessageText, []byte(text))
}

func (s *realSocket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

// ProxyWebSocketURL converts an http(s) proxy base URL into the ws(s)
// /mcp/ws endpoint URL.
func ProxyWebSocketURL(proxyURL string) string {
	ws := proxyURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimRight(ws, "/") + "/mcp/ws"
}

// Client bridges stdin/stdout to a dialed websocket.
type Client struct {
	dialer Dialer
}

func New(dialer Dialer) *Client {
	if dialer == nil {
		dialer = RealDialer{}
	}
	return &Client{dialer: dialer}
}

// Run dials url and splices stdin/stdout to the socket until either side
// closes or ctx is cancelled (spec §4.5 step 3, client-process variant).
func (c *Client) Run(ctx context.Context, url string, stdin io.Reader, stdout io.Writer) error {
	sock, err := c.dialer.Dial(ctx, url)
	if err != nil {
		return err
	}
	defer sock.Close()

	errCh := make(chan error, 2)
	go func() { errCh <- pumpStdinToSocket(ctx, stdin, sock) }()
	go func() { errCh <- pumpSocketToStdout(ctx, sock, stdout) }()

	return <-errCh
}

func pumpStdinToSocket(ctx context.Context, stdin io.Reader, sock Socket) error {
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := sock.WriteText(ctx, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func pumpSocketToStdout(ctx context.Context, sock Socket, stdout io.Writer) error {
	for {
		text, err := sock.ReadText(ctx)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(stdout, text+"\n"); err != nil {
			return err
		}
	}
}
