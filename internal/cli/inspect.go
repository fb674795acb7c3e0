package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	wgio "github.com/matzehuels/workgraph/pkg/io"
	"github.com/matzehuels/workgraph/pkg/plan"
)

// inspectCommand creates the inspect command for printing a decoded graph.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		src      graphSource
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Decode a work graph and print its nodes, edges and groups",
		Long: `Inspect decodes a work graph and prints it.

The graph is read from a framed .wkg file, from a plan description (.toml),
or from the cache with --key. Use --json for the machine-readable export.`,
		Example: `  workgraph inspect build.wkg
  workgraph inspect --key app-release --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.resolve(args); err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), src, jsonMode)
		},
	}

	src.addFlags(cmd)
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print the JSON export")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, src graphSource, jsonMode bool) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := loadGraph(ctx, runner, src)
	if err != nil {
		return err
	}
	if jsonMode {
		return wgio.WriteJSON(res.Nodes, os.Stdout)
	}

	fmt.Println(StyleTitle.Render(src.String()))
	printKeyValue("Build", res.BuildID)
	printStats(res)
	printNewline()

	g := wgio.NewGraph(res.Nodes)
	for _, n := range g.Nodes {
		fmt.Printf("%s %s %s\n",
			StyleNumber.Render(fmt.Sprintf("%3d", n.ID)),
			StyleValue.Render(n.Path),
			StyleDim.Render("("+n.Kind+")"))
		for _, e := range []struct {
			label string
			ids   []int
		}{
			{"depends on", n.DependsOn},
			{"should run after", n.ShouldRunAfter},
			{"must run after", n.MustRunAfter},
			{"finalized by", n.FinalizedBy},
			{"lifecycle", n.Lifecycle},
		} {
			if len(e.ids) > 0 {
				printDetail("%s %s %s", iconArrow, e.label, joinPaths(g, e.ids))
			}
		}
		if grp := res.Nodes[n.ID].Group(); grp != plan.Default {
			printDetail("group %d: %s", n.Group, grp)
		}
	}

	if len(g.Groups) > 0 {
		printNewline()
		fmt.Println(StyleTitle.Render("Groups"))
		for _, grp := range g.Groups {
			printKeyValue(fmt.Sprintf("%d", grp.ID), StyleHighlight.Render(grp.Type)+groupDetail(grp))
		}
	}
	return nil
}

func joinPaths(g wgio.Graph, ids []int) string {
	paths := make([]string, len(ids))
	for i, id := range ids {
		paths[i] = g.Nodes[id].Path
	}
	return strings.Join(paths, ", ")
}

func groupDetail(g wgio.Group) string {
	var parts []string
	if g.Position != nil {
		parts = append(parts, fmt.Sprintf("position %d", *g.Position))
	}
	if g.Node != nil {
		parts = append(parts, fmt.Sprintf("node %d", *g.Node))
	}
	if g.Delegate != nil {
		parts = append(parts, fmt.Sprintf("delegate %d", *g.Delegate))
	}
	if g.Ordinal != nil {
		parts = append(parts, fmt.Sprintf("ordinal %d", *g.Ordinal))
	}
	if len(g.Finalizers) > 0 {
		parts = append(parts, fmt.Sprintf("finalizers %v", g.Finalizers))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + StyleDim.Render(strings.Join(parts, ", "))
}
