// Package command wires the pocketcoder server CLI with urfave/cli/v2,
// binding flags to a Deps-injected runner function.
package command

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v2"

	"pocketcoder/internal/config"
)

type Deps struct {
	LoadConfig func() config.Config
	RunServer  func(context.Context, config.Config) error
}

func BuildApp(deps Deps) *cli.App {
	return &cli.App{
		Name:  "pocketcoder",
		Usage: "sovereign execution proxy",
		Action: func(ctx *cli.Context) error {
			return runServer(ctx.Context, deps, ctx)
		},
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "start the HTTP surface, tunnel, and legacy proxy",
				Flags: serverFlags(),
				Action: func(ctx *cli.Context) error {
					return runServer(ctx.Context, deps, ctx)
				},
			},
		},
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "port",
			Usage: "HTTP surface listen port",
		},
		&cli.IntFlag{
			Name:  "legacy-port",
			Usage: "legacy reverse-proxy listen port",
		},
		&cli.StringFlag{
			Name:  "tmux-socket",
			Usage: "tmux control socket path",
		},
		&cli.StringFlag{
			Name:  "tmux-session",
			Usage: "default tmux session name",
		},
	}
}

func runServer(ctx context.Context, deps Deps, cliCtx *cli.Context) error {
	cfg := loadConfig(deps)
	cfg = applyServerFlagOverrides(cliCtx, cfg)
	if deps.RunServer == nil {
		return errors.New("server runner is not configured")
	}
	return deps.RunServer(ctx, cfg)
}

func loadConfig(deps Deps) config.Config {
	if deps.LoadConfig != nil {
		return deps.LoadConfig()
	}
	return config.LoadConfig()
}

func applyServerFlagOverrides(cliCtx *cli.Context, cfg config.Config) config.Config {
	if cliCtx == nil {
		return cfg
	}
	if cliCtx.IsSet("port") {
		cfg.Port = cliCtx.Int("port")
	}
	if cliCtx.IsSet("legacy-port") {
		cfg.LegacyPort = cliCtx.Int("legacy-port")
	}
	if cliCtx.IsSet("tmux-socket") {
		cfg.TmuxSocket = strings.TrimSpace(cliCtx.String("tmux-socket"))
	}
	if cliCtx.IsSet("tmux-session") {
		cfg.TmuxSession = strings.TrimSpace(cliCtx.String("tmux-session"))
	}
	return cfg
}
