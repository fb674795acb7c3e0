package cli

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/workgraph/pkg/cache"
	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
	wgio "github.com/matzehuels/workgraph/pkg/io"
	"github.com/matzehuels/workgraph/pkg/pipeline"
	"github.com/matzehuels/workgraph/pkg/plan"
)

// graphSource names where a command reads its graph from: a framed graph
// file, a plan description (.toml) or a cache key.
type graphSource struct {
	path string
	key  string
}

func (s *graphSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.key, "key", "", "read the graph stored in the cache under this key")
}

// resolve fills path from args and checks that exactly one source is set.
func (s *graphSource) resolve(args []string) error {
	if len(args) > 0 {
		s.path = args[0]
	}
	switch {
	case s.path == "" && s.key == "":
		return wgerrors.New(wgerrors.ErrCodeInvalidInput, "a graph file, plan file or --key is required")
	case s.path != "" && s.key != "":
		return wgerrors.New(wgerrors.ErrCodeInvalidInput, "give either a file or --key, not both")
	case s.key != "":
		return wgerrors.ValidateKey(s.key)
	}
	return nil
}

func (s *graphSource) String() string {
	if s.key != "" {
		return "key " + s.key
	}
	return s.path
}

// loadGraph reads the graph named by src.
//
// Plan files are encoded through the cache, keyed by their content, so an
// unchanged plan is decoded from its cached graph instead of being imported
// again.
func loadGraph(ctx context.Context, runner *pipeline.Runner, src graphSource) (*pipeline.Result, error) {
	if src.key != "" {
		res, hit, err := runner.Load(ctx, runner.Keyer.GraphKey(src.key))
		if err != nil {
			return nil, pipeline.Classify(err)
		}
		if !hit {
			return nil, wgerrors.New(wgerrors.ErrCodeNotFound, "no graph stored under key %q", src.key)
		}
		loggerFromContext(ctx).Debug("loaded graph", "key", src.key, "build", res.BuildID)
		return res, nil
	}

	data, err := os.ReadFile(src.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, wgerrors.Wrap(wgerrors.ErrCodeFileNotFound, err, "file not found: %s", src.path)
	}
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(src.path), ".toml") {
		planRunner := *runner
		planRunner.TTL = cache.TTLPlan
		key := runner.Keyer.PlanKey(data, cache.PlanKeyOpts{FormatVersion: pipeline.FormatVersion})
		res, err := planRunner.LoadOrPlan(ctx, key, func(context.Context) ([]*plan.Node, error) {
			return wgio.ReadPlan(bytes.NewReader(data))
		})
		if err != nil {
			return nil, pipeline.Classify(err)
		}
		loggerFromContext(ctx).Debug("loaded plan", "file", src.path, "cached", res.Cached)
		return res, nil
	}

	res, err := runner.Unpack(ctx, data)
	if errors.Is(err, pipeline.ErrCacheInvalid) {
		return nil, wgerrors.Wrap(wgerrors.ErrCodeCorruptGraph, err, "%s is not a valid work graph: %v", src.path, err)
	}
	if err != nil {
		return nil, pipeline.Classify(err)
	}
	return res, nil
}
