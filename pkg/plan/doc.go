// Package plan models a scheduled work graph: the nodes a build will execute
// and the ordering relationships between them.
//
// # Overview
//
// A work graph is an ordered sequence of [Node] values. Each node carries up
// to five categorized successor sets and exactly one [Group]. The graph is a
// graph, not a tree: successors are shared, and group objects are shared
// between many nodes.
//
// # Node Kinds
//
// The set of node kinds is closed. Each [Kind] advertises capabilities rather
// than being inspected by name:
//
//   - [Kind.IsTask]: the node carries should/must/finalizing/lifecycle
//     successors in addition to its dependency successors.
//   - [Kind.DefersFinalization]: the node's "dependencies processed" step is
//     postponed until its cross-build target has been wired.
//
// # Groups
//
// A [Group] places a node relative to build ordering and finalization. There
// are four variants: [OrdinalGroup], [FinalizerGroup], [CompositeGroup] and
// the shared [Default] sentinel. Group identity is semantic: two nodes belong
// to the same grouping only when they reference the same group instance, so
// code comparing groups must use ==, never structural equality.
//
//	compile := plan.NewNode(plan.KindLocalTask, ":app:compileJava", app)
//	test := plan.NewNode(plan.KindLocalTask, ":app:test", app)
//	_ = test.AddDependencySuccessor(compile)
//
//	ordinal := plan.NewOrdinalGroup(0)
//	compile.SetGroup(ordinal)
//	test.SetGroup(ordinal)
//
// # Concurrency
//
// Nodes are not safe for concurrent mutation. The planner builds them on one
// goroutine and hands the finished sequence to readers.
package plan
