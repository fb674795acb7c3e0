// Package serialization provides the stream primitives shared by the work
// graph codecs: a compact integer/string [Writer] and [Reader], identity
// tables for reference-preserving encoding, and the structural corruption
// error reported for unusable input.
//
// # Integers
//
// Every integer (counts, node ids, slots, tags, ordinals) is written as a
// zig-zag encoded protobuf varint, so small values of either sign take a
// single byte. -1 is a valid value and is used as a list terminator and as
// the "new instance" identity header.
//
// # Identity
//
// [EncodePreservingIdentity] writes a value the first time it is seen and a
// back-reference to its slot afterwards. [DecodePreservingIdentity] mirrors
// it, returning the very same instance for every back-reference. Slots are
// assigned in first-seen order on both sides, before nested values are
// written, so nested identity-preserved values never disturb numbering.
//
// Each [Writer] and [Reader] also carries a shared identity scope
// ([Writer.Shared], [Reader.Shared]) that payload delegates use to write
// objects referenced from several nodes exactly once.
//
// # Errors
//
// Any input that cannot be decoded (truncation, out-of-range integers,
// unknown back-references) is reported as a [*CorruptionError], which
// matches [ErrCorrupt] under errors.Is. Corruption is never recoverable:
// callers discard the input wholesale.
package serialization
