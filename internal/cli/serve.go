package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/workgraph/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve cached work graphs over HTTP",
		Long: `Serve starts the HTTP API on the configured cache backend.

Routes:
  GET    /healthz
  GET    /v1/graphs/{key}
  GET    /v1/graphs/{key}/dot
  DELETE /v1/graphs/{key}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	if addr == "" {
		addr = c.Config.Server.Addr
	}
	if c.noCache || c.Config.Cache.Backend == BackendNone {
		printWarning("Caching is disabled, every graph lookup will miss")
	}
	return server.New(runner, c.Logger).ListenAndServe(ctx, addr)
}
