// Command pocketcoder-shell is the C6 shell client binary (CLI form:
// `shell [-c CMD | ARGS…]`): it canonicalises its own argv into a
// single command string and executes it via the proxy's /exec endpoint,
// relaying stdout and exit code so it drops in as an `sh`-compatible
// shell inside the sandbox.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"pocketcoder/internal/shellclient"
)

func main() {
	os.Exit(run(os.Args[1:], os.Getenv("PROXY_URL"), os.Getenv("OPENCODE_SESSION_ID"), os.Getenv("POCKETCODER_USAGE_ID")))
}

func run(args []string, proxyURL, sessionID, usageID string) int {
	cmd, err := shellclient.Canonicalize(args)
	if err != nil {
		slog.Error(err.Error())
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error(err.Error())
		return 1
	}

	client := shellclient.New(proxyURL)
	result, err := client.Exec(shellclient.ExecRequest{
		Cmd:       cmd,
		Cwd:       cwd,
		SessionID: sessionID,
		UsageID:   usageID,
	})
	if err != nil {
		slog.Error(err.Error())
		return 1
	}

	fmt.Print(result.Stdout)
	return result.ExitCode
}
