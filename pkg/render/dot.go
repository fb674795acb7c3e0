package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/workgraph/pkg/plan"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds project, action and group lines to node labels.
	Detailed bool

	// Clusters draws one box per ordinal group around the nodes placed in it.
	Clusters bool
}

type edgeStyle struct {
	attrs string
	set   func(*plan.Node) *plan.NodeSet
}

var edgeStyles = []edgeStyle{
	{"", (*plan.Node).DependencySuccessors},
	{`style=dotted, color=gray50, label="should run after"`, (*plan.Node).ShouldSuccessors},
	{`style=dashed, label="must run after"`, (*plan.Node).MustSuccessors},
	{`color=firebrick, penwidth=2, label="finalized by"`, (*plan.Node).FinalizingSuccessors},
	{`style=dashed, color=steelblue, label="lifecycle"`, (*plan.Node).LifecycleSuccessors},
}

// ToDOT converts an ordered work graph to Graphviz DOT. Edges to nodes
// outside nodes are omitted.
func ToDOT(nodes []*plan.Node, opts Options) string {
	ids := make(map[*plan.Node]string, len(nodes))
	for i, n := range nodes {
		ids[n] = fmt.Sprintf("n%d", i)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if opts.Clusters {
		writeClusters(&buf, nodes, ids, opts)
	} else {
		for _, n := range nodes {
			writeNode(&buf, "  ", ids[n], n, opts)
		}
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, style := range edgeStyles {
			for s := range style.set(n).All {
				to, ok := ids[s]
				if !ok {
					continue
				}
				if style.attrs == "" {
					fmt.Fprintf(&buf, "  %s -> %s;\n", ids[n], to)
				} else {
					fmt.Fprintf(&buf, "  %s -> %s [%s];\n", ids[n], to, style.attrs)
				}
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeClusters(buf *bytes.Buffer, nodes []*plan.Node, ids map[*plan.Node]string, opts Options) {
	var order []*plan.OrdinalGroup
	members := map[*plan.OrdinalGroup][]*plan.Node{}
	for _, n := range nodes {
		o := n.Group().Ordinal()
		if o == nil {
			writeNode(buf, "  ", ids[n], n, opts)
			continue
		}
		if _, seen := members[o]; !seen {
			order = append(order, o)
		}
		members[o] = append(members[o], n)
	}
	for i, o := range order {
		fmt.Fprintf(buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(buf, "    label=%q;\n", o.String())
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, n := range members[o] {
			writeNode(buf, "    ", ids[n], n, opts)
		}
		buf.WriteString("  }\n")
	}
}

func writeNode(buf *bytes.Buffer, indent, id string, n *plan.Node, opts Options) {
	attrs := []string{fmt.Sprintf("label=%q", label(n, opts.Detailed))}
	switch n.Kind {
	case plan.KindTaskInAnotherBuild:
		attrs = append(attrs, `style="rounded,filled,dashed"`, "fillcolor=lightgrey")
	case plan.KindAction, plan.KindTransform:
		attrs = append(attrs, "shape=ellipse", `style=filled`, "fillcolor=lightyellow")
	}
	if _, ok := n.Group().(*plan.FinalizerGroup); ok {
		attrs = append(attrs, "peripheries=2")
	}
	fmt.Fprintf(buf, "%s%s [%s];\n", indent, id, strings.Join(attrs, ", "))
}

func label(n *plan.Node, detailed bool) string {
	if !detailed {
		return n.Path
	}
	parts := []string{n.Path, "kind: " + n.Kind.String()}
	if n.Project != nil {
		parts = append(parts, "project: "+n.Project.Path)
	}
	if n.Action != "" {
		parts = append(parts, "action: "+n.Action)
	}
	if n.TargetBuild != "" {
		parts = append(parts, "build: "+n.TargetBuild)
	}
	if g := n.Group(); g != plan.Default {
		parts = append(parts, g.String())
	}
	return strings.Join(parts, "\n")
}
