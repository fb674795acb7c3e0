package plan

import "slices"

// NodeSet is an insertion-ordered set of nodes keyed by identity.
// The zero value is not usable; use [NewNodeSet].
type NodeSet struct {
	order []*Node
	index map[*Node]int
}

// NewNodeSet creates a set holding the given nodes in order, skipping
// duplicates and nils.
func NewNodeSet(nodes ...*Node) *NodeSet {
	s := &NodeSet{index: make(map[*Node]int, len(nodes))}
	for _, n := range nodes {
		s.Add(n)
	}
	return s
}

// Add inserts n and reports whether it was not already present.
func (s *NodeSet) Add(n *Node) bool {
	if n == nil {
		return false
	}
	if _, ok := s.index[n]; ok {
		return false
	}
	s.index[n] = len(s.order)
	s.order = append(s.order, n)
	return true
}

// Contains reports whether n is in the set.
func (s *NodeSet) Contains(n *Node) bool {
	_, ok := s.index[n]
	return ok
}

// Len returns the number of nodes in the set.
func (s *NodeSet) Len() int { return len(s.order) }

// Nodes returns the members in insertion order. The slice is a copy.
func (s *NodeSet) Nodes() []*Node { return slices.Clone(s.order) }

// All iterates over the members in insertion order.
func (s *NodeSet) All(yield func(*Node) bool) {
	for _, n := range s.order {
		if !yield(n) {
			return
		}
	}
}
