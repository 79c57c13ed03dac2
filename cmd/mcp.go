package cmd

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/melkeydev/formengine/engine"
	"github.com/melkeydev/formengine/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve read-only form tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		e, err := engine.New(cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		s := server.NewMCPServer(
			"formengine",
			version,
			server.WithToolCapabilities(false),
			server.WithLogging(),
		)
		mcp.RegisterTools(s, e)

		slog.Info("serving mcp tools", "db", cfg.Database.DBType)
		return server.ServeStdio(s)
	},
}
