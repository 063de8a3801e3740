// Package tunnel implements the bidirectional MCP tunnel: it bridges a
// duplex client websocket to a spawned subprocess's stdin/stdout,
// newline-framed both ways, with the child guaranteed killed on every
// exit path, using the github.com/coder/websocket duplex idiom.
package tunnel

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"

	"github.com/coder/websocket"
)

// Spawner creates the child process for one tunnel session. In production
// this runs `ssh -T -p 2222 ... worker@sandbox "cd ... && cao-mcp-server"`;
// tests substitute a local command.
type Spawner func(ctx context.Context) (cmd *exec.Cmd, stdin io.WriteCloser, stdout io.ReadCloser, err error)

// Bridge owns one tunnel session's lifetime.
type Bridge struct {
	spawn Spawner
	log   *slog.Logger
}

func New(spawn Spawner, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{spawn: spawn, log: log}
}

// HandleHTTP accepts the websocket upgrade and runs the splice loop to
// completion (spec §4.5 steps 1-4).
func (b *Bridge) HandleHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	b.run(r.Context(), conn)
}

func (b *Bridge) run(ctx context.Context, conn *websocket.Conn) {
	cmd, stdin, stdout, err := b.spawn(ctx)
	if err != nil {
		b.log.Error("tunnel spawn failed", "error", err)
		conn.Close(websocket.StatusInternalError, "spawn failed")
		return
	}
	defer func() {
		_ = stdin.Close()
		_ = stdout.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	done := make(chan struct{}, 2)
	go func() { b.pumpClientToChild(ctx, conn, stdin); done <- struct{}{} }()
	go func() { b.pumpChildToClient(ctx, conn, stdout); done <- struct{}{} }()
	<-done
}

// pumpClientToChild reads text frames from the websocket and writes each,
// newline-terminated, to the child's stdin (spec §4.5 step 3a).
func (b *Bridge) pumpClientToChild(ctx context.Context, conn *websocket.Conn, stdin io.WriteCloser) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		if _, err := stdin.Write(data); err != nil {
			return
		}
		if _, err := stdin.Write([]byte("\n")); err != nil {
			return
		}
	}
}

// pumpChildToClient reads lines from the child's stdout and forwards each
// as a text frame to the client (spec §4.5 step 3b).
func (b *Bridge) pumpChildToClient(ctx context.Context, conn *websocket.Conn, stdout io.ReadCloser) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := conn.Write(ctx, websocket.MessageText, scanner.Bytes()); err != nil {
			return
		}
	}
}

// SSHSpawner returns a Spawner that runs the given ssh args, the
// deployment's actual remote-entry command (spec §4.5 step 1).
func SSHSpawner(sshPath string, args ...string) Spawner {
	return func(ctx context.Context) (*exec.Cmd, io.WriteCloser, io.ReadCloser, error) {
		cmd := exec.CommandContext(ctx, sshPath, args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, nil, err
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, nil, err
		}
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, nil, nil, err
		}
		return cmd, stdin, stdout, nil
	}
}
