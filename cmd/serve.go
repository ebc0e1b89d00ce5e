package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/sweepview/internal/mcp"
	"github.com/oakwood-commons/sweepview/pkg/logger"
	"github.com/oakwood-commons/sweepview/pkg/settings"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dashboard pages as MCP tools over stdio",
	Long: `Serve starts a Model Context Protocol server on stdin/stdout. Each configured
page keeps its own selection snapshot; tools list the pages, apply events,
read the snapshot and fetch table rows. --page limits the server to one page.

Tools: ` + fmt.Sprint(mcp.AllTools),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		srv, err := newMCPServer(cmd.Context(), resolveConfigPath(configFile))
		if err != nil {
			return err
		}
		return srv.ServeStdio()
	},
}

// newMCPServer loads the configured pages and wraps them in an MCP server.
// Tool results use yaml when --output yaml is given, json otherwise.
func newMCPServer(ctx context.Context, cfgPath string) (*mcp.Server, error) {
	run := settings.FromContextOrDefault(ctx)
	cfg, err := loadMergedConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	var names []string
	if run.Page != "" {
		names = []string{run.Page}
	}
	engine, err := openEngine(ctx, cfg, names)
	if err != nil {
		return nil, err
	}
	format := settings.OutputJSON
	if run.Output == settings.OutputYAML {
		format = settings.OutputYAML
	}
	srv, err := mcp.New(engine, mcp.Config{Name: cfg.App.Name, Format: format})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).V(1).Info("mcp server ready", "pages", engine.Pages(), "tools", mcp.AllTools)
	return srv, nil
}
