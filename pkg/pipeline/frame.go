package pipeline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// FormatVersion is the version of the encoded work graph layout. Entries
// written with any other version are treated as invalid.
const FormatVersion = 1

var frameMagic = []byte("WKGR")

// ErrCacheInvalid is returned when a stored entry cannot be used: its frame
// does not match, or its payload fails to decode.
var ErrCacheInvalid = errors.New("cache entry invalid")

// Frame is the persisted envelope around an encoded work graph.
type Frame struct {
	Version int
	BuildID string // uuid of the invocation that wrote the entry
	Payload []byte
}

// NewFrame wraps payload in a frame with the current format version and a
// fresh build id.
func NewFrame(payload []byte) Frame {
	return Frame{Version: FormatVersion, BuildID: uuid.NewString(), Payload: payload}
}

// MarshalBinary lays out magic, version, build id, payload length, payload
// and the xxhash64 of the payload.
func (f Frame) MarshalBinary() ([]byte, error) {
	if _, err := uuid.Parse(f.BuildID); err != nil {
		return nil, fmt.Errorf("build id %q: %w", f.BuildID, err)
	}
	b := make([]byte, 0, len(frameMagic)+len(f.Payload)+64)
	b = append(b, frameMagic...)
	b = protowire.AppendVarint(b, uint64(f.Version))
	b = protowire.AppendString(b, f.BuildID)
	b = protowire.AppendBytes(b, f.Payload)
	b = binary.BigEndian.AppendUint64(b, xxhash.Sum64(f.Payload))
	return b, nil
}

// UnmarshalFrame parses data written by [Frame.MarshalBinary]. Any mismatch
// is reported as [ErrCacheInvalid].
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	if !bytes.HasPrefix(data, frameMagic) {
		return f, invalid("bad magic")
	}
	rest := data[len(frameMagic):]

	version, n := protowire.ConsumeVarint(rest)
	if n < 0 {
		return f, invalid("truncated version")
	}
	if version != FormatVersion {
		return f, invalid(fmt.Sprintf("format version %d, want %d", version, FormatVersion))
	}
	rest = rest[n:]

	id, n := protowire.ConsumeString(rest)
	if n < 0 {
		return f, invalid("truncated build id")
	}
	if _, err := uuid.Parse(id); err != nil {
		return f, invalid(fmt.Sprintf("build id %q", id))
	}
	rest = rest[n:]

	payload, n := protowire.ConsumeBytes(rest)
	if n < 0 {
		return f, invalid("truncated payload")
	}
	rest = rest[n:]

	if len(rest) != 8 {
		return f, invalid(fmt.Sprintf("checksum length %d", len(rest)))
	}
	if binary.BigEndian.Uint64(rest) != xxhash.Sum64(payload) {
		return f, invalid("checksum mismatch")
	}

	f.Version = int(version)
	f.BuildID = id
	f.Payload = payload
	return f, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrCacheInvalid, reason)
}
