package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hitoshi/guildcal/internal/config"
)

// サブコマンド名
const (
	CommandServe       = "serve"
	CommandMigrate     = "migrate"
	CommandHealthcheck = "healthcheck"
)

// NewCLI はguildcalのコマンドラインアプリケーションを生成する。
// サブコマンドを省略した場合はserveとして動作する。
// ログはwに出力する。
func NewCLI(w io.Writer) *cli.App {
	serve := serveCommand(w)
	return &cli.App{
		Name:   "guildcal",
		Usage:  "Guild event calendar API server",
		Writer: w,
		Action: serve.Action,
		Commands: []*cli.Command{
			serve,
			migrateCommand(w),
			healthcheckCommand(),
		},
	}
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	return NewCLI(w).Run(append([]string{"guildcal"}, args...))
}

func serveCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  CommandServe,
		Usage: "Start the API server",
		Action: func(c *cli.Context) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}

			slog.Info("starting application",
				slog.String("command", CommandServe),
				slog.String("port", cfg.ServerPort),
				slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
			)

			// SIGINTまたはSIGTERMでグレースフルシャットダウンする
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg)
		},
	}
}

func migrateCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  CommandMigrate,
		Usage: "Apply pending database migrations and exit",
		Action: func(c *cli.Context) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			return runMigrate(cfg)
		},
	}
}

// healthcheckCommand はフル初期化をスキップする軽量サブコマンド。
func healthcheckCommand() *cli.Command {
	return &cli.Command{
		Name:  CommandHealthcheck,
		Usage: "Probe the local API server health endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Value:   config.DefaultPort,
				EnvVars: []string{"PORT"},
				Usage:   "port of the local API server",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			if ctx == nil {
				ctx = context.Background()
			}
			return runHealthcheck(ctx, c.String("port"))
		},
	}
}
