// Package workgraph encodes a scheduled work graph to a compact binary form
// and restores it, so a later build can resume from the cached graph instead
// of planning again.
//
// # Protocol
//
// [Codec.Encode] makes two passes over the ordered node sequence:
//
//  1. For each node, in order: the node payload (written by the
//     [PayloadCodec]) immediately followed by its successor references.
//     The node is assigned the next local id once its edges are written.
//  2. For each node, in order: its [plan.Group].
//
// Groups are written last because a finalizer group refers to its finalizer
// node by id, and every id is only known once the first pass is complete.
//
// # Successors
//
// Successor references are grouped by category in a fixed order: dependency
// successors for every node, followed by should, must, finalizing and
// lifecycle successors for task nodes. Each category is a list of node ids
// terminated by -1. A successor that has no id yet (it is not part of the
// persisted subset, or it appears later in the sequence) is dropped
// silently; callers must supply nodes so that every successor precedes the
// nodes that reference it.
//
// # Groups
//
// Groups are written with identity preservation: the first occurrence of a
// group instance is written in full, later occurrences as a back-reference.
// Decoding therefore yields exactly as many group instances as were encoded,
// and nodes that shared a group before encoding share it afterwards. This
// includes [plan.Default].
//
// # Finalization
//
// Every decoded node is marked required. Nodes whose kind does not defer
// finalization also have their dependencies marked processed as soon as
// their edges are attached; deferred-wiring nodes are left for the
// cross-build wiring step.
//
// # Errors
//
// Decoding either returns the full node sequence or fails. Truncated input,
// unknown ids, unknown tags and trailing bytes are reported as
// [serialization.ErrCorrupt]; payload delegate errors are returned wrapped
// but otherwise unchanged.
package workgraph
