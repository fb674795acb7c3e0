package serialization

import (
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Writer encodes integers and strings onto an underlying io.Writer.
// A Writer is owned by a single encode pass and is not safe for concurrent use.
type Writer struct {
	w       io.Writer
	scratch []byte
	n       int64
	shared  *WriteIdentities[any]
}

// NewWriter creates a Writer with a fresh shared identity scope.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:       w,
		scratch: make([]byte, 0, 16),
		shared:  NewWriteIdentities[any](),
	}
}

// WriteSmallInt writes v as a zig-zag varint. v must fit in 32 bits.
func (w *Writer) WriteSmallInt(v int) error {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return fmt.Errorf("small int %d out of range", v)
	}
	return w.flush(protowire.AppendVarint(w.scratch[:0], protowire.EncodeZigZag(int64(v))))
}

// WriteString writes a length-prefixed string.
func (w *Writer) WriteString(s string) error {
	return w.flush(protowire.AppendString(w.scratch[:0], s))
}

// WriteBool writes b as a single varint.
func (w *Writer) WriteBool(b bool) error {
	return w.flush(protowire.AppendVarint(w.scratch[:0], protowire.EncodeBool(b)))
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.n }

// Shared returns the identity scope shared by every value written through w.
func (w *Writer) Shared() *WriteIdentities[any] { return w.shared }

func (w *Writer) flush(b []byte) error {
	n, err := w.w.Write(b)
	w.n += int64(n)
	w.scratch = b[:0]
	return err
}

// Reader decodes values written by a [Writer] from an in-memory byte range.
// A Reader is owned by a single decode pass and is not safe for concurrent use.
type Reader struct {
	data   []byte
	off    int
	shared *ReadIdentities[any]
}

// NewReader creates a Reader over data with a fresh shared identity scope.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, shared: NewReadIdentities[any]()}
}

// ReadSmallInt reads a zig-zag varint written by [Writer.WriteSmallInt].
func (r *Reader) ReadSmallInt() (int, error) {
	u, n := protowire.ConsumeVarint(r.data[r.off:])
	if n < 0 {
		return 0, r.corrupt("malformed integer", protowire.ParseError(n))
	}
	v := protowire.DecodeZigZag(u)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, r.Corruptf("integer %d out of range", v)
	}
	r.off += n
	return int(v), nil
}

// ReadString reads a string written by [Writer.WriteString].
func (r *Reader) ReadString() (string, error) {
	b, n := protowire.ConsumeBytes(r.data[r.off:])
	if n < 0 {
		return "", r.corrupt("malformed string", protowire.ParseError(n))
	}
	r.off += n
	return string(b), nil
}

// ReadBool reads a value written by [Writer.WriteBool].
func (r *Reader) ReadBool() (bool, error) {
	u, n := protowire.ConsumeVarint(r.data[r.off:])
	if n < 0 {
		return false, r.corrupt("malformed bool", protowire.ParseError(n))
	}
	if u > 1 {
		return false, r.Corruptf("bool value %d", u)
	}
	r.off += n
	return protowire.DecodeBool(u), nil
}

// ReadCount reads a collection size and rejects values that cannot be
// satisfied by the remaining input, assuming each element occupies at
// least one byte.
func (r *Reader) ReadCount() (int, error) {
	start := r.off
	count, err := r.ReadSmallInt()
	if err != nil {
		return 0, err
	}
	if count < 0 || count > r.Remaining() {
		r.off = start
		return 0, r.Corruptf("implausible count %d with %d bytes left", count, r.Remaining())
	}
	return count, nil
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

// Shared returns the identity scope shared by every value read through r.
func (r *Reader) Shared() *ReadIdentities[any] { return r.shared }

// Corruptf returns a [*CorruptionError] at the current offset.
func (r *Reader) Corruptf(format string, args ...any) error {
	return &CorruptionError{Offset: r.off, Reason: fmt.Sprintf(format, args...)}
}

func (r *Reader) corrupt(reason string, err error) error {
	if r.off >= len(r.data) {
		err = io.ErrUnexpectedEOF
		reason = "truncated stream"
	}
	return &CorruptionError{Offset: r.off, Reason: reason, Err: err}
}

// WriteCollection writes len(items) followed by each item.
func WriteCollection[T any](w *Writer, items []T, write func(T) error) error {
	if err := w.WriteSmallInt(len(items)); err != nil {
		return err
	}
	for _, it := range items {
		if err := write(it); err != nil {
			return err
		}
	}
	return nil
}

// ReadCollection reads a collection written by [WriteCollection].
func ReadCollection[T any](r *Reader, read func() (T, error)) ([]T, error) {
	count, err := r.ReadCount()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, count)
	for range count {
		it, err := read()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
