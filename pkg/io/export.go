package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/workgraph/pkg/plan"
)

// Graph is the JSON view of a work graph. Node and group ids are indices
// into Nodes and Groups; groups are numbered in order of first use.
type Graph struct {
	Nodes  []Node  `json:"nodes"`
	Groups []Group `json:"groups"`
}

// Node is the JSON view of a [plan.Node].
type Node struct {
	ID                    int    `json:"id"`
	Path                  string `json:"path"`
	Kind                  string `json:"kind"`
	Project               string `json:"project,omitempty"`
	Build                 string `json:"build,omitempty"`
	Action                string `json:"action,omitempty"`
	TargetBuild           string `json:"target_build,omitempty"`
	Required              bool   `json:"required"`
	DependenciesProcessed bool   `json:"dependencies_processed"`
	DependsOn             []int  `json:"depends_on,omitempty"`
	ShouldRunAfter        []int  `json:"should_run_after,omitempty"`
	MustRunAfter          []int  `json:"must_run_after,omitempty"`
	FinalizedBy           []int  `json:"finalized_by,omitempty"`
	Lifecycle             []int  `json:"lifecycle,omitempty"`
	Group                 int    `json:"group"`
}

// Group is the JSON view of a [plan.Group].
type Group struct {
	ID         int    `json:"id"`
	Type       string `json:"type"`
	Position   *int   `json:"position,omitempty"`
	Node       *int   `json:"node,omitempty"`
	Delegate   *int   `json:"delegate,omitempty"`
	Ordinal    *int   `json:"ordinal,omitempty"`
	Finalizers []int  `json:"finalizers,omitempty"`
}

// NewGraph builds the JSON view of nodes. Successors outside nodes are
// omitted. Shared group instances appear once.
func NewGraph(nodes []*plan.Node) Graph {
	ids := make(map[*plan.Node]int, len(nodes))
	for i, n := range nodes {
		ids[n] = i
	}
	b := &graphBuilder{nodeIDs: ids, groupIDs: map[plan.Group]int{}}

	out := Graph{Nodes: make([]Node, len(nodes))}
	for i, n := range nodes {
		jn := Node{
			ID:                    i,
			Path:                  n.Path,
			Kind:                  n.Kind.String(),
			Action:                n.Action,
			TargetBuild:           n.TargetBuild,
			Required:              n.IsRequired(),
			DependenciesProcessed: n.IsDependenciesProcessed(),
			DependsOn:             b.refs(n.DependencySuccessors()),
			ShouldRunAfter:        b.refs(n.ShouldSuccessors()),
			MustRunAfter:          b.refs(n.MustSuccessors()),
			FinalizedBy:           b.refs(n.FinalizingSuccessors()),
			Lifecycle:             b.refs(n.LifecycleSuccessors()),
		}
		if n.Project != nil {
			jn.Project = n.Project.Path
			jn.Build = n.Project.BuildPath
		}
		out.Nodes[i] = jn
	}
	for i, n := range nodes {
		out.Nodes[i].Group = b.group(n.Group())
	}
	out.Groups = b.groups
	return out
}

// WriteJSON writes the JSON view of nodes to w.
func WriteJSON(nodes []*plan.Node, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewGraph(nodes)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the JSON view of nodes to the file at path.
func ExportJSON(nodes []*plan.Node, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(nodes, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type graphBuilder struct {
	nodeIDs  map[*plan.Node]int
	groupIDs map[plan.Group]int
	groups   []Group
}

func (b *graphBuilder) refs(s *plan.NodeSet) []int {
	var out []int
	for n := range s.All {
		if id, ok := b.nodeIDs[n]; ok {
			out = append(out, id)
		}
	}
	return out
}

// group returns the id of g. Unseen groups are numbered before their members.
func (b *graphBuilder) group(g plan.Group) int {
	if id, ok := b.groupIDs[g]; ok {
		return id
	}
	id := len(b.groups)
	b.groupIDs[g] = id
	b.groups = append(b.groups, Group{ID: id})

	jg := Group{ID: id}
	switch g := g.(type) {
	case *plan.OrdinalGroup:
		jg.Type = "ordinal"
		jg.Position = &g.Position
	case *plan.FinalizerGroup:
		jg.Type = "finalizer"
		if nid, ok := b.nodeIDs[g.Node]; ok {
			jg.Node = &nid
		}
		d := b.group(g.Delegate)
		jg.Delegate = &d
	case *plan.CompositeGroup:
		jg.Type = "composite"
		o := b.group(g.OrdinalGroup)
		jg.Ordinal = &o
		for _, f := range g.Finalizers {
			jg.Finalizers = append(jg.Finalizers, b.group(f))
		}
	default:
		jg.Type = "default"
	}
	b.groups[id] = jg
	return id
}
