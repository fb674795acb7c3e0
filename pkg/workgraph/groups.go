package workgraph

import (
	"fmt"

	"github.com/matzehuels/workgraph/pkg/plan"
	"github.com/matzehuels/workgraph/pkg/serialization"
)

// Group variant tags. The table is part of the wire format.
const (
	tagOrdinal   = 0
	tagFinalizer = 1
	tagComposite = 2
	tagDefault   = 3
)

func (e *encoder) writeGroup(g plan.Group) error {
	if g == nil {
		g = plan.Default
	}
	return serialization.EncodePreservingIdentity(e.w, e.groups, g, func() error {
		if g == plan.Default {
			return e.w.WriteSmallInt(tagDefault)
		}
		switch g := g.(type) {
		case *plan.OrdinalGroup:
			if err := e.w.WriteSmallInt(tagOrdinal); err != nil {
				return err
			}
			return e.w.WriteSmallInt(g.Position)
		case *plan.FinalizerGroup:
			id, ok := e.ids[g.Node]
			if !ok {
				return fmt.Errorf("%v: %w", g, ErrUnscheduledFinalizer)
			}
			if !g.Node.Kind.IsTask() {
				return fmt.Errorf("%v: %w", g, plan.ErrNotATask)
			}
			if err := e.w.WriteSmallInt(tagFinalizer); err != nil {
				return err
			}
			if err := e.w.WriteSmallInt(id); err != nil {
				return err
			}
			return e.writeGroup(g.Delegate)
		case *plan.CompositeGroup:
			if err := e.w.WriteSmallInt(tagComposite); err != nil {
				return err
			}
			if err := e.writeGroup(g.OrdinalGroup); err != nil {
				return err
			}
			return serialization.WriteCollection(e.w, g.Finalizers, func(f *plan.FinalizerGroup) error {
				return e.writeGroup(f)
			})
		default:
			return fmt.Errorf("%T: %w", g, ErrUnsupportedGroup)
		}
	})
}

func (d *decoder) readGroup() (plan.Group, error) {
	return serialization.DecodePreservingIdentity(d.r, d.groups, func() (plan.Group, error) {
		start := d.r.Offset()
		tag, err := d.r.ReadSmallInt()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagOrdinal:
			ordinal, err := d.r.ReadSmallInt()
			if err != nil {
				return nil, err
			}
			return plan.NewOrdinalGroup(ordinal), nil
		case tagFinalizer:
			node, err := d.readFinalizerNode()
			if err != nil {
				return nil, err
			}
			delegate, err := d.readGroup()
			if err != nil {
				return nil, err
			}
			return plan.NewFinalizerGroup(node, delegate), nil
		case tagComposite:
			ordinal, err := d.readGroup()
			if err != nil {
				return nil, err
			}
			finalizers, err := serialization.ReadCollection(d.r, d.readFinalizerGroup)
			if err != nil {
				return nil, err
			}
			return plan.NewCompositeGroup(ordinal, finalizers...), nil
		case tagDefault:
			return plan.Default, nil
		default:
			return nil, &serialization.CorruptionError{Offset: start, Reason: fmt.Sprintf("unknown group tag %d", tag)}
		}
	})
}

func (d *decoder) readFinalizerNode() (*plan.Node, error) {
	start := d.r.Offset()
	id, err := d.r.ReadSmallInt()
	if err != nil {
		return nil, err
	}
	node, ok := d.nodes.lookup(id)
	if !ok {
		return nil, &serialization.CorruptionError{Offset: start, Reason: fmt.Sprintf("unknown finalizer node id %d", id)}
	}
	if !node.Kind.IsTask() {
		return nil, &serialization.CorruptionError{Offset: start, Reason: fmt.Sprintf("finalizer %s is not a task", node.Path)}
	}
	return node, nil
}

func (d *decoder) readFinalizerGroup() (*plan.FinalizerGroup, error) {
	start := d.r.Offset()
	g, err := d.readGroup()
	if err != nil {
		return nil, err
	}
	f, ok := g.(*plan.FinalizerGroup)
	if !ok {
		return nil, &serialization.CorruptionError{Offset: start, Reason: fmt.Sprintf("composite member is %v, not a finalizer group", g)}
	}
	return f, nil
}
