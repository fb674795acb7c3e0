package workgraph

import (
	"fmt"

	"github.com/matzehuels/workgraph/pkg/plan"
	"github.com/matzehuels/workgraph/pkg/serialization"
)

// PayloadCodec writes and reads a node's own type and state. The codec calls
// it exactly once per node in each direction, always through the same
// Writer or Reader for a pass, so implementations can share objects between
// nodes through [serialization.Writer.Shared] and [serialization.Reader.Shared].
//
// ReadNode must return a fully constructed node of the correct kind with
// empty successor sets.
type PayloadCodec interface {
	WriteNode(w *serialization.Writer, n *plan.Node) error
	ReadNode(r *serialization.Reader) (*plan.Node, error)
}

// NodePayloads is the default [PayloadCodec]. It persists the node kind,
// path, action type, target build and owning project. Projects are written
// once per pass and shared by every node that references them.
type NodePayloads struct{}

var _ PayloadCodec = NodePayloads{}

// WriteNode implements [PayloadCodec].
func (NodePayloads) WriteNode(w *serialization.Writer, n *plan.Node) error {
	if !n.Kind.Valid() {
		return fmt.Errorf("%s: unsupported node kind %d", n.Path, int(n.Kind))
	}
	if err := w.WriteSmallInt(int(n.Kind)); err != nil {
		return err
	}
	if err := w.WriteString(n.Path); err != nil {
		return err
	}
	if err := writeProject(w, n.Project); err != nil {
		return err
	}
	if err := w.WriteString(n.Action); err != nil {
		return err
	}
	if n.Kind.DefersFinalization() {
		return w.WriteString(n.TargetBuild)
	}
	return nil
}

// ReadNode implements [PayloadCodec].
func (NodePayloads) ReadNode(r *serialization.Reader) (*plan.Node, error) {
	k, err := r.ReadSmallInt()
	if err != nil {
		return nil, err
	}
	kind := plan.Kind(k)
	if !kind.Valid() {
		return nil, r.Corruptf("unknown node kind %d", k)
	}
	path, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	project, err := readProject(r)
	if err != nil {
		return nil, err
	}
	n := plan.NewNode(kind, path, project)
	if n.Action, err = r.ReadString(); err != nil {
		return nil, err
	}
	if kind.DefersFinalization() {
		if n.TargetBuild, err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func writeProject(w *serialization.Writer, p *plan.Project) error {
	if err := w.WriteBool(p != nil); err != nil || p == nil {
		return err
	}
	return serialization.EncodePreservingIdentity(w, w.Shared(), any(p), func() error {
		if err := w.WriteString(p.Path); err != nil {
			return err
		}
		return w.WriteString(p.BuildPath)
	})
}

func readProject(r *serialization.Reader) (*plan.Project, error) {
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	v, err := serialization.DecodePreservingIdentity(r, r.Shared(), func() (any, error) {
		path, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		build, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return &plan.Project{Path: path, BuildPath: build}, nil
	})
	if err != nil {
		return nil, err
	}
	p, ok := v.(*plan.Project)
	if !ok {
		return nil, r.Corruptf("shared reference is %T, not a project", v)
	}
	return p, nil
}
