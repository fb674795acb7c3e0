// Package io reads plan descriptions and exports decoded work graphs.
//
// # Plan descriptions
//
// A plan description is a TOML file listing projects, groups and nodes. The
// order of [[node]] tables is the schedule order handed to the codec:
//
//	[[project]]
//	path = ":app"
//
//	[[group]]
//	id = "first"
//	type = "ordinal"
//	position = 0
//
//	[[group]]
//	id = "cleanup"
//	type = "finalizer"
//	node = ":app:cleanup"
//	delegate = "first"
//
//	[[node]]
//	path = ":app:cleanup"
//	project = ":app"
//	group = "cleanup"
//
//	[[node]]
//	path = ":app:compile"
//	project = ":app"
//	finalized_by = [":app:cleanup"]
//
// Node kinds are "task" (the default), "task-in-another-build", "action"
// and "transform". Group types are "ordinal", "finalizer" and "composite";
// a node without a group, or with group "default", gets [plan.Default].
//
// Use [ImportPlan] to read a file or [ReadPlan] to read any io.Reader.
//
// # JSON export
//
// [WriteJSON] and [ExportJSON] write the nodes, their successors and their
// groups as JSON. Nodes and groups are referenced by index; each shared
// group instance appears once, so the output shows which nodes share a
// group:
//
//	{
//	  "nodes": [{"id": 0, "path": ":app:cleanup", "kind": "task", "group": 0, ...}],
//	  "groups": [{"id": 0, "type": "finalizer", "node": 0, "delegate": 1}, ...]
//	}
package io
