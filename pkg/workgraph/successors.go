package workgraph

import (
	"fmt"

	"github.com/matzehuels/workgraph/pkg/plan"
	"github.com/matzehuels/workgraph/pkg/serialization"
)

// endOfSuccessors terminates each successor category. It never collides
// with a node id.
const endOfSuccessors = -1

func (e *encoder) writeSuccessorsOf(n *plan.Node) error {
	if err := e.writeSuccessors(n.DependencySuccessors()); err != nil {
		return err
	}
	if !n.Kind.IsTask() {
		return nil
	}
	for _, set := range []*plan.NodeSet{
		n.ShouldSuccessors(),
		n.MustSuccessors(),
		n.FinalizingSuccessors(),
		n.LifecycleSuccessors(),
	} {
		if err := e.writeSuccessors(set); err != nil {
			return err
		}
	}
	return nil
}

// writeSuccessors discards successors that have no id: they are not
// scheduled in this graph.
func (e *encoder) writeSuccessors(successors *plan.NodeSet) error {
	for s := range successors.All {
		if id, ok := e.ids[s]; ok {
			if err := e.w.WriteSmallInt(id); err != nil {
				return err
			}
		}
	}
	return e.w.WriteSmallInt(endOfSuccessors)
}

func (d *decoder) readSuccessorsOf(n *plan.Node) error {
	if err := d.readSuccessors("dependency", n.AddDependencySuccessor); err != nil {
		return err
	}
	if !n.Kind.IsTask() {
		return nil
	}
	if err := d.readSuccessors("should", n.AddShouldSuccessor); err != nil {
		return err
	}
	if err := d.readSuccessors("must", n.AddMustSuccessor); err != nil {
		return err
	}
	if err := d.readSuccessors("finalizing", n.AddFinalizingSuccessor); err != nil {
		return err
	}
	lifecycle := plan.NewNodeSet()
	if err := d.readSuccessors("lifecycle", func(s *plan.Node) error {
		lifecycle.Add(s)
		return nil
	}); err != nil {
		return err
	}
	return n.SetLifecycleSuccessors(lifecycle)
}

func (d *decoder) readSuccessors(category string, add func(*plan.Node) error) error {
	for {
		start := d.r.Offset()
		id, err := d.r.ReadSmallInt()
		if err != nil {
			return err
		}
		if id == endOfSuccessors {
			return nil
		}
		s, ok := d.nodes.lookup(id)
		if !ok {
			return &serialization.CorruptionError{Offset: start, Reason: fmt.Sprintf("unknown %s successor id %d", category, id)}
		}
		if err := add(s); err != nil {
			return &serialization.CorruptionError{Offset: start, Reason: fmt.Sprintf("%s successor %s", category, s.Path), Err: err}
		}
	}
}
