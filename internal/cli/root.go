package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/workgraph/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Workgraph encodes and inspects build work graphs",
		Long:         `Workgraph turns build plan descriptions into compact binary work graphs that can be cached, inspected, rendered and served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/workgraph/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the graph cache")

	// Register all subcommands
	root.AddCommand(c.encodeCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
