package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/melkeydev/formengine/engine"
	"github.com/melkeydev/formengine/handlers"
	"github.com/spf13/cobra"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.Server.Addr = addr
		}

		e, err := engine.New(cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		app := handlers.NewApp(e, cfg.Server.BasePath)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			if err := app.Shutdown(); err != nil {
				slog.Error("shutdown failed", "error", err)
			}
		}()

		slog.Info("listening", "addr", cfg.Server.Addr, "base_path", cfg.Server.BasePath, "db", cfg.Database.DBType)
		return app.Listen(cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides server.addr)")
}
