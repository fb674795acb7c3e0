// Package render draws work graphs as node-link diagrams.
//
// [ToDOT] produces Graphviz DOT source for an ordered node sequence, and
// [RenderSVG] turns DOT into SVG in-process with
// [github.com/goccy/go-graphviz], so no Graphviz installation is needed.
//
//	dot := render.ToDOT(nodes, render.Options{Detailed: true, Clusters: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Each successor category has its own edge style: dependencies are plain
// arrows, should/must-run-after edges are dotted/dashed, finalizer edges are
// red, and lifecycle edges are blue. Nodes of other builds are dashed boxes,
// actions and transforms are ellipses, and finalizer tasks get a double
// outline. With Clusters set, nodes sharing an ordinal group are boxed
// together.
package render
