// Package shellclient implements the shell client (spec §4.6, C6): it
// canonicalises a shell-invoked argv into a single command string and
// POSTs it to the proxy's /exec endpoint, relaying stdout and exit code.
// Grounded on _examples/original_source/proxy/src/shell.rs.
package shellclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ExecRequest is the JSON body the proxy's /exec endpoint accepts.
type ExecRequest struct {
	Cmd       string `json:"cmd"`
	Cwd       string `json:"cwd,omitempty"`
	UsageID   string `json:"usage_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type execResponse struct {
	Stdout   string `json:"stdout"`
	ExitCode *int   `json:"exit_code"`
	Error    string `json:"error"`
}

// FirewallError indicates argv could not be canonicalised into a single
// command string, e.g. an interactive shell invocation with no -c flag.
type FirewallError string

func (e FirewallError) Error() string { return string(e) }

// Canonicalize implements the shell-aware argv reduction (spec §4.6):
// strip a leading sh/bash interpreter and a -c flag if present, taking the
// following argument verbatim; otherwise single-quote-rejoin all
// arguments; a bare interactive invocation is rejected.
func Canonicalize(args []string) (string, error) {
	if len(args) == 0 {
		return "", FirewallError("Interactive or raw shell invocation is restricted for security. Always execute commands via 'bash -c \"command\"'.")
	}

	rest := args
	if isShellInterpreter(rest[0]) {
		rest = rest[1:]
	}

	if len(rest) > 0 && rest[0] == "-c" {
		if len(rest) < 2 {
			return "", FirewallError("received -c but no command following it")
		}
		return rest[1], nil
	}

	return rejoin(args), nil
}

func isShellInterpreter(arg string) bool {
	base := arg
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.HasSuffix(base, "sh") || strings.HasSuffix(base, "bash")
}

func rejoin(args []string) string {
	base := args[0]
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	var b strings.Builder
	b.WriteString(base)
	for _, arg := range args[1:] {
		b.WriteByte(' ')
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(arg, "'", `'\''`))
		b.WriteByte('\'')
	}
	return b.String()
}

// Client POSTs a canonicalised command to the proxy's /exec endpoint.
type Client struct {
	proxyURL   string
	httpClient *http.Client
}

func New(proxyURL string) *Client {
	if proxyURL == "" {
		proxyURL = "http://proxy:3001"
	}
	return &Client{proxyURL: strings.TrimRight(proxyURL, "/"), httpClient: &http.Client{Timeout: 310 * time.Second}}
}

// Result is what the caller's process should do: print Stdout, exit with
// ExitCode.
type Result struct {
	Stdout   string
	ExitCode int
}

func (c *Client) Exec(req ExecRequest) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, err
	}

	res, err := c.httpClient.Post(c.proxyURL+"/exec", "application/json", bytes.NewReader(body))
	if err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("connection to proxy failed (%w); is the server running?", err)
	}
	defer res.Body.Close()

	var out execResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Result{ExitCode: 1}, fmt.Errorf("invalid JSON from proxy: %w", err)
	}

	if out.Error != "" {
		return Result{ExitCode: 1}, FirewallError(out.Error)
	}

	exitCode := 0
	if out.ExitCode != nil {
		exitCode = *out.ExitCode
	}
	return Result{Stdout: out.Stdout, ExitCode: exitCode}, nil
}
