package plan

import (
	"fmt"
	"strings"
)

// Group describes a node's placement relative to build ordering and
// finalization. The variant set is closed: [*OrdinalGroup],
// [*FinalizerGroup], [*CompositeGroup] and [Default].
//
// Groups are compared by identity.
type Group interface {
	fmt.Stringer
	// Ordinal returns the ordinal grouping this group belongs to, or nil
	// when the group is not ordered.
	Ordinal() *OrdinalGroup
	// FinalizerGroups returns the finalizer groups this group participates in.
	FinalizerGroups() []*FinalizerGroup

	isGroup()
}

// Default is the shared group of nodes with no ordinal or finalizer placement.
var Default Group = defaultGroup{}

type defaultGroup struct{}

func (defaultGroup) isGroup()                           {}
func (defaultGroup) String() string                     { return "default group" }
func (defaultGroup) Ordinal() *OrdinalGroup             { return nil }
func (defaultGroup) FinalizerGroups() []*FinalizerGroup { return nil }

// OrdinalGroup places a node at a position among the requested entry points.
type OrdinalGroup struct {
	Position int
}

// NewOrdinalGroup creates an ordinal group at the given position.
func NewOrdinalGroup(position int) *OrdinalGroup { return &OrdinalGroup{Position: position} }

func (*OrdinalGroup) isGroup() {}

// Ordinal returns g.
func (g *OrdinalGroup) Ordinal() *OrdinalGroup { return g }

// FinalizerGroups returns nil.
func (*OrdinalGroup) FinalizerGroups() []*FinalizerGroup { return nil }

func (g *OrdinalGroup) String() string { return fmt.Sprintf("task group %d", g.Position) }

// FinalizerGroup groups a finalizer task with the nodes it finalizes.
// Its own placement is given by the delegate group.
type FinalizerGroup struct {
	Node     *Node // the finalizer task
	Delegate Group
}

// NewFinalizerGroup creates a finalizer group for node. A nil delegate
// becomes [Default].
func NewFinalizerGroup(node *Node, delegate Group) *FinalizerGroup {
	if delegate == nil {
		delegate = Default
	}
	return &FinalizerGroup{Node: node, Delegate: delegate}
}

func (*FinalizerGroup) isGroup() {}

// Ordinal returns the delegate's ordinal group.
func (g *FinalizerGroup) Ordinal() *OrdinalGroup {
	if g.Delegate == nil {
		return nil
	}
	return g.Delegate.Ordinal()
}

// FinalizerGroups returns a single-element slice holding g.
func (g *FinalizerGroup) FinalizerGroups() []*FinalizerGroup { return []*FinalizerGroup{g} }

func (g *FinalizerGroup) String() string {
	path := "<nil>"
	if g.Node != nil {
		path = g.Node.Path
	}
	return fmt.Sprintf("finalizer %s delegate %v", path, g.Delegate)
}

// CompositeGroup combines an ordinal placement with membership in several
// finalizer groups. Finalizer group instances are routinely shared between
// composite groups and with the finalizer node itself.
type CompositeGroup struct {
	OrdinalGroup Group
	Finalizers   []*FinalizerGroup
}

// NewCompositeGroup creates a composite group. Duplicate and nil finalizer
// groups are dropped; order is preserved.
func NewCompositeGroup(ordinal Group, finalizers ...*FinalizerGroup) *CompositeGroup {
	if ordinal == nil {
		ordinal = Default
	}
	seen := make(map[*FinalizerGroup]bool, len(finalizers))
	set := make([]*FinalizerGroup, 0, len(finalizers))
	for _, f := range finalizers {
		if f == nil || seen[f] {
			continue
		}
		seen[f] = true
		set = append(set, f)
	}
	return &CompositeGroup{OrdinalGroup: ordinal, Finalizers: set}
}

func (*CompositeGroup) isGroup() {}

// Ordinal returns the ordinal group of the composite's ordinal placement.
func (g *CompositeGroup) Ordinal() *OrdinalGroup {
	if g.OrdinalGroup == nil {
		return nil
	}
	return g.OrdinalGroup.Ordinal()
}

// FinalizerGroups returns the composite's finalizer groups.
func (g *CompositeGroup) FinalizerGroups() []*FinalizerGroup { return g.Finalizers }

func (g *CompositeGroup) String() string {
	parts := make([]string, len(g.Finalizers))
	for i, f := range g.Finalizers {
		parts[i] = f.String()
	}
	return fmt.Sprintf("composite %v [%s]", g.OrdinalGroup, strings.Join(parts, ", "))
}
