package io

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/workgraph/pkg/errors"
	"github.com/matzehuels/workgraph/pkg/plan"
)

type planFile struct {
	Projects []projectDecl `toml:"project"`
	Groups   []groupDecl   `toml:"group"`
	Nodes    []nodeDecl    `toml:"node"`
}

type projectDecl struct {
	Path  string `toml:"path"`
	Build string `toml:"build"`
}

type groupDecl struct {
	ID         string   `toml:"id"`
	Type       string   `toml:"type"`
	Position   int      `toml:"position"`
	Node       string   `toml:"node"`
	Delegate   string   `toml:"delegate"`
	Ordinal    string   `toml:"ordinal"`
	Finalizers []string `toml:"finalizers"`
}

type nodeDecl struct {
	Path           string   `toml:"path"`
	Kind           string   `toml:"kind"`
	Project        string   `toml:"project"`
	Action         string   `toml:"action"`
	TargetBuild    string   `toml:"target_build"`
	Group          string   `toml:"group"`
	DependsOn      []string `toml:"depends_on"`
	ShouldRunAfter []string `toml:"should_run_after"`
	MustRunAfter   []string `toml:"must_run_after"`
	FinalizedBy    []string `toml:"finalized_by"`
	Lifecycle      []string `toml:"lifecycle"`
}

// ReadPlan decodes a TOML plan description from r into an ordered node
// sequence. Node order in the file is the schedule order.
//
// Successor lists and group members refer to nodes by path; any node in
// the file may be referenced. Groups may only refer to groups declared
// before them. ReadPlan returns an INVALID_PLAN error for unknown kinds,
// types or references, duplicate paths or ids, and edges the node kind does
// not allow.
func ReadPlan(r io.Reader) ([]*plan.Node, error) {
	var pf planFile
	md, err := toml.NewDecoder(r).Decode(&pf)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "decode plan")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "unknown field %q", undecoded[0].String())
	}

	projects := make(map[string]*plan.Project, len(pf.Projects))
	for _, p := range pf.Projects {
		if p.Path == "" {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "project without path")
		}
		if _, dup := projects[p.Path]; dup {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "duplicate project %s", p.Path)
		}
		build := p.Build
		if build == "" {
			build = ":"
		}
		projects[p.Path] = &plan.Project{Path: p.Path, BuildPath: build}
	}

	nodes := make([]*plan.Node, 0, len(pf.Nodes))
	byPath := make(map[string]*plan.Node, len(pf.Nodes))
	for _, d := range pf.Nodes {
		n, err := newNode(d, projects)
		if err != nil {
			return nil, err
		}
		if _, dup := byPath[n.Path]; dup {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "duplicate node %s", n.Path)
		}
		byPath[n.Path] = n
		nodes = append(nodes, n)
	}

	for i, d := range pf.Nodes {
		if err := addSuccessors(nodes[i], d, byPath); err != nil {
			return nil, err
		}
	}

	groups, err := buildGroups(pf.Groups, byPath)
	if err != nil {
		return nil, err
	}
	for i, d := range pf.Nodes {
		if d.Group == "" {
			continue
		}
		g, ok := groups[d.Group]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "node %s: unknown group %q", d.Path, d.Group)
		}
		nodes[i].SetGroup(g)
	}
	return nodes, nil
}

// ImportPlan reads the TOML plan description at path.
func ImportPlan(path string) ([]*plan.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "plan %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPlan(f)
}

func newNode(d nodeDecl, projects map[string]*plan.Project) (*plan.Node, error) {
	if err := errors.ValidateNodePath(d.Path); err != nil {
		return nil, err
	}
	kindName := d.Kind
	if kindName == "" {
		kindName = plan.KindLocalTask.String()
	}
	kind, err := plan.ParseKind(kindName)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "node %s", d.Path)
	}

	var project *plan.Project
	if d.Project != "" {
		p, ok := projects[d.Project]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "node %s: unknown project %q", d.Path, d.Project)
		}
		project = p
	}

	if d.TargetBuild != "" && !kind.DefersFinalization() {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "node %s: target_build is only valid for %s nodes", d.Path, plan.KindTaskInAnotherBuild)
	}
	n := plan.NewNode(kind, d.Path, project)
	n.Action = d.Action
	n.TargetBuild = d.TargetBuild
	return n, nil
}

func addSuccessors(n *plan.Node, d nodeDecl, byPath map[string]*plan.Node) error {
	categories := []struct {
		name  string
		paths []string
		add   func(*plan.Node) error
	}{
		{"depends_on", d.DependsOn, n.AddDependencySuccessor},
		{"should_run_after", d.ShouldRunAfter, n.AddShouldSuccessor},
		{"must_run_after", d.MustRunAfter, n.AddMustSuccessor},
		{"finalized_by", d.FinalizedBy, n.AddFinalizingSuccessor},
	}
	for _, c := range categories {
		for _, p := range c.paths {
			s, err := lookup(byPath, n.Path, c.name, p)
			if err != nil {
				return err
			}
			if err := c.add(s); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPlan, err, "node %s: %s", n.Path, c.name)
			}
		}
	}

	if len(d.Lifecycle) == 0 {
		return nil
	}
	set := plan.NewNodeSet()
	for _, p := range d.Lifecycle {
		s, err := lookup(byPath, n.Path, "lifecycle", p)
		if err != nil {
			return err
		}
		set.Add(s)
	}
	if err := n.SetLifecycleSuccessors(set); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPlan, err, "node %s: lifecycle", n.Path)
	}
	return nil
}

func lookup(byPath map[string]*plan.Node, from, field, path string) (*plan.Node, error) {
	n, ok := byPath[path]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "node %s: %s refers to unknown node %q", from, field, path)
	}
	return n, nil
}

func buildGroups(decls []groupDecl, byPath map[string]*plan.Node) (map[string]plan.Group, error) {
	groups := make(map[string]plan.Group, len(decls))
	ref := func(owner, id string) (plan.Group, error) {
		if id == "" {
			return plan.Default, nil
		}
		g, ok := groups[id]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "group %s: unknown or later group %q", owner, id)
		}
		return g, nil
	}

	for _, d := range decls {
		if d.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "group without id")
		}
		if _, dup := groups[d.ID]; dup || d.ID == "default" {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "duplicate group %s", d.ID)
		}

		var g plan.Group
		switch d.Type {
		case "ordinal":
			g = plan.NewOrdinalGroup(d.Position)
		case "finalizer":
			n, ok := byPath[d.Node]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidPlan, "group %s: unknown finalizer node %q", d.ID, d.Node)
			}
			if !n.Kind.IsTask() {
				return nil, errors.Wrap(errors.ErrCodeInvalidPlan, plan.ErrNotATask, "group %s: finalizer %s", d.ID, n.Path)
			}
			delegate, err := ref(d.ID, d.Delegate)
			if err != nil {
				return nil, err
			}
			g = plan.NewFinalizerGroup(n, delegate)
		case "composite":
			ordinal, err := ref(d.ID, d.Ordinal)
			if err != nil {
				return nil, err
			}
			finalizers := make([]*plan.FinalizerGroup, 0, len(d.Finalizers))
			for _, id := range d.Finalizers {
				fg, err := ref(d.ID, id)
				if err != nil {
					return nil, err
				}
				f, ok := fg.(*plan.FinalizerGroup)
				if !ok {
					return nil, errors.New(errors.ErrCodeInvalidPlan, "group %s: %q is not a finalizer group", d.ID, id)
				}
				finalizers = append(finalizers, f)
			}
			g = plan.NewCompositeGroup(ordinal, finalizers...)
		default:
			return nil, errors.New(errors.ErrCodeInvalidPlan, "group %s: unknown type %q", d.ID, d.Type)
		}
		groups[d.ID] = g
	}
	groups["default"] = plan.Default
	return groups, nil
}
