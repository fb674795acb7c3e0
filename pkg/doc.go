// Package pkg provides the core libraries for workgraph.
//
// # Overview
//
// Workgraph stores the scheduled work graph of a build (tasks, actions and
// transforms with their ordering edges and group membership) in a compact
// binary form that can be cached and decoded without replanning. The pkg
// directory is organized into three areas:
//
//  1. Model and codec: [plan], [serialization], [workgraph]
//  2. Persistence: [pipeline], [cache]
//  3. Surfaces: [io] (TOML import, JSON export), [render] (DOT/SVG)
//
// [errors] and [observability] are shared by all of them.
//
// # Architecture
//
//	plan.toml
//	    ↓
//	[io] package (import nodes, edges, groups)
//	    ↓
//	[workgraph] package (encode node table + group identities)
//	    ↓
//	[pipeline] package (frame with version, build id, checksum)
//	    ↓
//	[cache] package (file, redis, mongo)
//
// # Quick Start
//
// Encode a plan and store it:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/workgraph/pkg/cache"
//	    "github.com/matzehuels/workgraph/pkg/io"
//	    "github.com/matzehuels/workgraph/pkg/pipeline"
//	)
//
//	nodes, _ := io.ImportPlan("build.toml")
//	fc, _ := cache.NewFileCache("/tmp/workgraph")
//	runner := pipeline.NewRunner(fc, nil, nil)
//	res, _ := runner.Store(context.Background(), "graph:app", nodes)
//
// Load it back, replanning when the entry is missing or unusable:
//
//	res, err := runner.LoadOrPlan(ctx, "graph:app", func(ctx context.Context) ([]*plan.Node, error) {
//	    return io.ImportPlan("build.toml")
//	})
package pkg
