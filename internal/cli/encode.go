package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
	wgio "github.com/matzehuels/workgraph/pkg/io"
	"github.com/matzehuels/workgraph/pkg/pipeline"
)

// encodeCommand creates the encode command for turning plan descriptions
// into framed work graphs.
func (c *CLI) encodeCommand() *cobra.Command {
	var output, key string

	cmd := &cobra.Command{
		Use:   "encode <plan.toml>",
		Short: "Encode a plan description into a binary work graph",
		Long: `Encode imports a TOML plan description and writes the encoded work graph.

The graph is written to a .wkg file next to the plan unless --output or --key
is given. With --key the graph is also stored in the configured cache, where
inspect, render and the HTTP API can find it.`,
		Example: `  workgraph encode build.toml
  workgraph encode build.toml -o out/build.wkg
  workgraph encode build.toml --key app-release`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEncode(cmd.Context(), args[0], output, key)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <plan>"+graphExt+")")
	cmd.Flags().StringVar(&key, "key", "", "store the graph in the cache under this key")

	return cmd
}

func (c *CLI) runEncode(ctx context.Context, input, output, key string) error {
	if key != "" {
		if err := wgerrors.ValidateKey(key); err != nil {
			return err
		}
	}
	if output == "" && key == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + graphExt
	}

	prog := newProgress(c.Logger)
	nodes, err := wgio.ImportPlan(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("imported plan", "file", input, "nodes", len(nodes))

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	data, frame, err := runner.Pack(ctx, nodes)
	if err != nil {
		return pipeline.Classify(err)
	}
	if output != "" {
		if dir := filepath.Dir(output); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	}
	if key != "" {
		if err := runner.Put(ctx, runner.Keyer.GraphKey(key), data); err != nil {
			return pipeline.Classify(err)
		}
	}
	prog.done("Encoded", "nodes", len(nodes), "bytes", len(data))

	printSuccess("Encoded %s", input)
	printStats(&pipeline.Result{Nodes: nodes, BuildID: frame.BuildID, Size: len(data)})
	if output != "" {
		printFile(output)
	}
	if key != "" {
		printDetail("Stored under key %s", key)
	}
	printNewline()
	if key != "" {
		printNextStep("Inspect it", appName+" inspect --key "+key)
	} else {
		printNextStep("Inspect it", appName+" inspect "+output)
	}
	return nil
}
