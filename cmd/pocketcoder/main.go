package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"pocketcoder/internal/command"
	"pocketcoder/internal/config"
	"pocketcoder/internal/configstore"
	"pocketcoder/internal/driver"
	"pocketcoder/internal/httpapi"
	"pocketcoder/internal/lifecycle"
	"pocketcoder/internal/logging"
	"pocketcoder/internal/records"
	"pocketcoder/internal/recordsdb"
	"pocketcoder/internal/resolver"
	"pocketcoder/internal/sserelay"
	"pocketcoder/internal/tmux"
	"pocketcoder/internal/tunnel"
)

var version = "dev"

func main() {
	app := command.BuildApp(command.Deps{
		RunServer: func(ctx context.Context, cfg config.Config) error {
			return runServer(ctx, os.Stdout, cfg)
		},
	})
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		slog.Error("pocketcoder exited with error", "error", err)
		os.Exit(1)
	}
}

// windowListerAdapter bridges tmux.Adapter's own Window type to
// resolver.Window, the one-line conversion the two packages' independent
// testability costs at the wiring site.
type windowListerAdapter struct {
	adapter *tmux.Adapter
}

func (w windowListerAdapter) ListWindows(session string) ([]resolver.Window, error) {
	windows, err := w.adapter.ListWindows(session)
	if err != nil {
		return nil, err
	}
	out := make([]resolver.Window, len(windows))
	for i, win := range windows {
		out[i] = resolver.Window{Index: win.Index, Name: win.Name}
	}
	return out, nil
}

// applyConfigOverlay pins operator-configured values (registry/records
// URLs, auto-create-session, legacy port) from ~/.pocketcoder/config.toml
// over the environment-derived defaults, so a deployer need not repeat
// them on every invocation.
func applyConfigOverlay(cfg config.Config, log *slog.Logger) config.Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return cfg
	}
	store := configstore.New(filepath.Join(home, ".pocketcoder"))
	ov, err := store.LoadOrInit()
	if err != nil {
		log.Warn("config overlay unavailable, using environment config only", "error", err)
		return cfg
	}
	if ov.RegistryURL != "" {
		cfg.RegistryURL = ov.RegistryURL
	}
	if ov.RecordsServiceURL != "" {
		cfg.RecordsServiceURL = ov.RecordsServiceURL
	}
	if ov.AutoCreateSession {
		cfg.AutoCreateSession = true
	}
	if ov.LegacyPort != 0 {
		cfg.LegacyPort = ov.LegacyPort
	}
	return cfg
}

func runServer(ctx context.Context, out io.Writer, cfg config.Config) error {
	log := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "pocketcoder"})

	cfg = applyConfigOverlay(cfg, log)

	if err := records.Bootstrap(ctx, cfg.RecordsServiceURL, log); err != nil {
		return fmt.Errorf("records service bootstrap failed: %w", err)
	}

	var recordsProvider records.Provider
	if cfg.RecordsServiceURL != "" {
		recordsProvider = records.NewHTTPClient(cfg.RecordsServiceURL)
	} else {
		store, err := recordsdb.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening local records store: %w", err)
		}
		defer store.Close()
		recordsProvider = store
	}

	tmuxAdapter := tmux.NewAdapter(&tmux.RealExec{}, cfg.TmuxSocket)
	drv := driver.New(tmuxAdapter, driver.Config{AutoCreateSession: cfg.AutoCreateSession}, log)

	defaultPane := driver.PaneAddress{
		SocketPath:       cfg.TmuxSocket,
		SessionName:      cfg.TmuxSession,
		WindowDesignator: "0",
		PaneIndex:        0,
	}

	var resolverDep httpapi.Resolver
	if cfg.RegistryURL != "" {
		resolverDep = resolver.New(cfg.RegistryURL, windowListerAdapter{adapter: tmuxAdapter})
	}

	downstreamBase := func(r *http.Request) string {
		return fmt.Sprintf("http://%s", r.Host)
	}
	relay := sserelay.New(fmt.Sprintf("http://%s:9888", cfg.SandboxHost), downstreamBase)

	sshArgs := []string{
		"-T",
		"-p", fmt.Sprintf("%d", cfg.SSHPort),
		"-i", cfg.SSHKeyPath,
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		cfg.SSHHost,
		cfg.SSHRemoteCommand,
	}
	bridge := tunnel.New(tunnel.SSHSpawner("ssh", sshArgs...), log)

	deps := httpapi.Deps{
		Driver:         drv,
		Resolver:       resolverDep,
		DefaultPane:    defaultPane,
		BrainBaseURL:   cfg.OpenCodeURL,
		Relay:          relay,
		Tunnel:         bridge,
		Records:        recordsProvider,
		DownstreamBase: downstreamBase,
		Log:            log,
	}
	server := httpapi.NewServer(deps)

	addr := fmt.Sprintf(":%d", cfg.Port)
	legacyAddr := fmt.Sprintf(":%d", cfg.LegacyPort)
	fmt.Fprintf(out, "pocketcoder listening at %s (legacy %s, version=%s)\n", addr, legacyAddr, version)

	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}
	legacyServer := &http.Server{Addr: legacyAddr, Handler: httpapi.NewLegacyProxy(cfg.SandboxHost, cfg.LegacyPort)}

	mgr := lifecycle.NewManager()
	mgr.AddRun("http-server", func(runCtx context.Context) error {
		go func() {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	mgr.AddRun("legacy-server", func(runCtx context.Context) error {
		go func() {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = legacyServer.Shutdown(shutdownCtx)
		}()
		err := legacyServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	mgr.AddShutdown("http-server-shutdown", func(context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	mgr.AddShutdown("legacy-server-shutdown", func(context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := legacyServer.Shutdown(shutdownCtx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	return mgr.StartAndWait(ctx, syscall.SIGINT, syscall.SIGTERM)
}
