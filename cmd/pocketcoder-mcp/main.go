// Command pocketcoder-mcp is the C5 tunnel's stdio-client variant
// (CLI form: `mcp [--session-id ID]`): it dials the proxy's
// already-running /mcp/ws endpoint and splices the connection to its own
// stdin/stdout, so a local MCP client process can speak through the
// tunnel without knowing about websockets.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pocketcoder/internal/tunnelclient"
)

func main() {
	sessionID := flag.String("session-id", "", "session identifier (accepted for forward compatibility; the tunnel itself is session-agnostic)")
	flag.Parse()
	_ = sessionID

	proxyURL := os.Getenv("PROXY_URL")
	if proxyURL == "" {
		proxyURL = "http://proxy:3001"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := tunnelclient.New(nil)
	if err := client.Run(ctx, tunnelclient.ProxyWebSocketURL(proxyURL), os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		slog.Error("tunnel client failed", "error", err)
		os.Exit(1)
	}
}
