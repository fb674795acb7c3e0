package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrNotATask is returned when a must-run-after or finalizer successor
	// is added to a node whose kind does not carry those edge categories,
	// or when the successor itself is not a task.
	ErrNotATask = errors.New("node is not a task")

	// ErrNilNode is returned when a nil successor is added.
	ErrNilNode = errors.New("nil node")
)

// Kind identifies the concrete variant of a [Node].
type Kind int

const (
	// KindLocalTask is a task owned by the build being planned.
	KindLocalTask Kind = iota
	// KindTaskInAnotherBuild stands in for a task of an included build. Its
	// dependency processing is deferred until the cross-build link is wired.
	KindTaskInAnotherBuild
	// KindAction is a standalone work action scheduled without a task.
	KindAction
	// KindTransform is an artifact transform step.
	KindTransform
)

type kindInfo struct {
	name     string
	task     bool
	deferred bool
}

var kinds = [...]kindInfo{
	KindLocalTask:          {name: "task", task: true},
	KindTaskInAnotherBuild: {name: "task-in-another-build", task: true, deferred: true},
	KindAction:             {name: "action"},
	KindTransform:          {name: "transform"},
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool { return k >= 0 && int(k) < len(kinds) }

// IsTask reports whether nodes of this kind carry should, must, finalizing
// and lifecycle successors.
func (k Kind) IsTask() bool { return k.Valid() && kinds[k].task }

// DefersFinalization reports whether decoding must skip the "dependencies
// processed" step for nodes of this kind.
func (k Kind) DefersFinalization() bool { return k.Valid() && kinds[k].deferred }

// String returns the kind's short name.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kinds[k].name
}

// ParseKind returns the kind with the given short name.
func ParseKind(s string) (Kind, error) {
	for k, info := range kinds {
		if info.name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// Project is the owner of a node. One project instance is typically shared
// by every node it owns.
type Project struct {
	Path      string // project path, e.g. ":app"
	BuildPath string // path of the owning build, e.g. ":" for the root build
}

// Node is one schedulable unit of work.
//
// The zero value is not usable; create nodes with [NewNode].
type Node struct {
	Kind    Kind
	Path    string   // identity path, e.g. ":app:compileJava"
	Project *Project // owner, may be nil for detached actions
	Action  string   // implementation type for actions and transforms
	// TargetBuild is the build that owns the real task for
	// KindTaskInAnotherBuild nodes.
	TargetBuild string

	dependencySuccessors *NodeSet
	shouldSuccessors     *NodeSet
	mustSuccessors       *NodeSet
	finalizingSuccessors *NodeSet
	lifecycleSuccessors  *NodeSet

	group                 Group
	required              bool
	dependenciesProcessed bool
}

// NewNode creates a node of the given kind.
func NewNode(kind Kind, path string, project *Project) *Node {
	n := &Node{
		Kind:                 kind,
		Path:                 path,
		Project:              project,
		dependencySuccessors: NewNodeSet(),
		group:                Default,
	}
	if kind.IsTask() {
		n.shouldSuccessors = NewNodeSet()
		n.mustSuccessors = NewNodeSet()
		n.finalizingSuccessors = NewNodeSet()
		n.lifecycleSuccessors = NewNodeSet()
	}
	return n
}

// String returns the node's path and kind.
func (n *Node) String() string {
	return fmt.Sprintf("%s (%s)", n.Path, n.Kind)
}

// DependencySuccessors returns the nodes this node depends on.
func (n *Node) DependencySuccessors() *NodeSet { return n.dependencySuccessors }

// ShouldSuccessors returns the "should run after" targets. Empty for non-task nodes.
func (n *Node) ShouldSuccessors() *NodeSet { return orEmpty(n.shouldSuccessors) }

// MustSuccessors returns the "must run after" targets. Empty for non-task nodes.
func (n *Node) MustSuccessors() *NodeSet { return orEmpty(n.mustSuccessors) }

// FinalizingSuccessors returns the nodes that finalize this node. Empty for
// non-task nodes.
func (n *Node) FinalizingSuccessors() *NodeSet { return orEmpty(n.finalizingSuccessors) }

// LifecycleSuccessors returns the nodes whose lifecycle this node is bound
// to. Empty for non-task nodes.
func (n *Node) LifecycleSuccessors() *NodeSet { return orEmpty(n.lifecycleSuccessors) }

// AddDependencySuccessor records that n depends on s.
func (n *Node) AddDependencySuccessor(s *Node) error {
	if s == nil {
		return ErrNilNode
	}
	n.dependencySuccessors.Add(s)
	return nil
}

// AddShouldSuccessor records that n should run after s.
func (n *Node) AddShouldSuccessor(s *Node) error {
	if err := n.requireTask(s, false); err != nil {
		return err
	}
	n.shouldSuccessors.Add(s)
	return nil
}

// AddMustSuccessor records that n must run after s. Both must be tasks.
func (n *Node) AddMustSuccessor(s *Node) error {
	if err := n.requireTask(s, true); err != nil {
		return err
	}
	n.mustSuccessors.Add(s)
	return nil
}

// AddFinalizingSuccessor records that s finalizes n. Both must be tasks.
func (n *Node) AddFinalizingSuccessor(s *Node) error {
	if err := n.requireTask(s, true); err != nil {
		return err
	}
	n.finalizingSuccessors.Add(s)
	return nil
}

// SetLifecycleSuccessors replaces the lifecycle successor set wholesale.
func (n *Node) SetLifecycleSuccessors(set *NodeSet) error {
	if !n.Kind.IsTask() {
		return fmt.Errorf("%s: lifecycle successors: %w", n.Path, ErrNotATask)
	}
	if set == nil {
		set = NewNodeSet()
	}
	n.lifecycleSuccessors = set
	return nil
}

func (n *Node) requireTask(s *Node, successorMustBeTask bool) error {
	if s == nil {
		return ErrNilNode
	}
	if !n.Kind.IsTask() {
		return fmt.Errorf("%s: %w", n.Path, ErrNotATask)
	}
	if successorMustBeTask && !s.Kind.IsTask() {
		return fmt.Errorf("%s -> %s: %w", n.Path, s.Path, ErrNotATask)
	}
	return nil
}

// Group returns the node's group. It is never nil.
func (n *Node) Group() Group {
	if n.group == nil {
		return Default
	}
	return n.group
}

// SetGroup assigns the node's group. A nil group resets it to [Default].
func (n *Node) SetGroup(g Group) {
	if g == nil {
		g = Default
	}
	n.group = g
}

// Require marks the node as required for execution.
func (n *Node) Require() { n.required = true }

// IsRequired reports whether [Node.Require] was called.
func (n *Node) IsRequired() bool { return n.required }

// DependenciesProcessed marks the node's dependency wiring as complete.
func (n *Node) DependenciesProcessed() { n.dependenciesProcessed = true }

// IsDependenciesProcessed reports whether [Node.DependenciesProcessed] was called.
func (n *Node) IsDependenciesProcessed() bool { return n.dependenciesProcessed }

func orEmpty(s *NodeSet) *NodeSet {
	if s == nil {
		return NewNodeSet()
	}
	return s
}
