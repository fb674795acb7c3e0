package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
	"github.com/matzehuels/workgraph/pkg/render"
)

// Output formats for the render command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderOpts holds the render command flags.
type renderOpts struct {
	format   string
	output   string
	detailed bool
	clusters bool
}

// renderCommand creates the render command for drawing work graphs.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		src  graphSource
		opts renderOpts
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a work graph as Graphviz DOT or SVG",
		Long: `Render draws a work graph as a node-link diagram.

DOT output goes to stdout unless --output is given. SVG is rendered in-process
and written next to the input (or to --output).`,
		Example: `  workgraph render build.wkg | dot -Tpng > build.png
  workgraph render build.toml -f svg --clusters
  workgraph render --key app-release -f svg -o release.svg --detailed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.resolve(args); err != nil {
				return err
			}
			if err := wgerrors.ValidateFormat(opts.format, formatDOT, formatSVG); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), src, opts)
		},
	}

	src.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatDOT, "output format: dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show kind, project, action and group in node labels")
	cmd.Flags().BoolVar(&opts.clusters, "clusters", false, "box nodes sharing an ordinal group")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, src graphSource, opts renderOpts) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := loadGraph(ctx, runner, src)
	if err != nil {
		return err
	}

	dot := render.ToDOT(res.Nodes, render.Options{Detailed: opts.detailed, Clusters: opts.clusters})
	if opts.format == formatDOT && opts.output == "" {
		fmt.Print(dot)
		return nil
	}

	data := []byte(dot)
	if opts.format == formatSVG {
		prog := newProgress(c.Logger)
		err := spin(ctx, "Rendering SVG", func() (err error) {
			data, err = render.RenderSVG(ctx, dot)
			return err
		})
		if err != nil {
			return err
		}
		prog.done("Rendered SVG", "bytes", len(data))
	}

	out := opts.output
	if out == "" {
		out = defaultRenderPath(src, opts.format)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	printSuccess("Rendered %d nodes", len(res.Nodes))
	printFile(out)
	return nil
}

// defaultRenderPath places output next to the input file, or in the working
// directory for cached graphs.
func defaultRenderPath(src graphSource, format string) string {
	base := src.key
	if src.path != "" {
		base = src.path[:len(src.path)-len(filepath.Ext(src.path))]
	}
	return base + "." + format
}
