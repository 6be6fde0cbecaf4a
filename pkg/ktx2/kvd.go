package ktx2

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Well-known keys.
const (
	KeyOrientation = "KTXorientation"
	KeyWriter      = "KTXwriter"
)

// KeyValue is one entry of the key/value block. Value is a view into the
// container buffer and includes any trailing NUL the writer stored.
type KeyValue struct {
	Key   string
	Value []byte
}

func decodeKeyValues(data []byte, offset, length uint32) ([]KeyValue, error) {
	c, err := newCursor(data, uint64(offset), uint64(length))
	if err != nil {
		return nil, fmt.Errorf("kvd: %w", err)
	}
	var out []KeyValue
	for c.remaining() > 0 {
		n, err := c.readU32()
		if err != nil {
			return nil, fmt.Errorf("kvd entry %d: %w", len(out), err)
		}
		entry, err := c.bytes(uint64(n))
		if err != nil {
			return nil, fmt.Errorf("kvd entry %d: %w", len(out), err)
		}
		nul := bytes.IndexByte(entry, 0)
		if nul <= 0 {
			return nil, fmt.Errorf("%w: kvd entry %d has no NUL-terminated key", ErrStructuralOverrun, len(out))
		}
		out = append(out, KeyValue{Key: string(entry[:nul]), Value: entry[nul+1:]})

		// Entries are padded to 4 bytes; the final entry's padding may be
		// absent when it ends the block.
		if pad := padding(uint64(n), 4); pad > 0 {
			if err := c.skip(min(pad, c.remaining())); err != nil {
				return nil, fmt.Errorf("kvd entry %d: %w", len(out)-1, err)
			}
		}
	}
	return out, nil
}

// String returns the value with a trailing NUL removed.
func (kv KeyValue) String() string {
	return string(bytes.TrimSuffix(kv.Value, []byte{0}))
}

func encodeKeyValues(kvs []KeyValue) []byte {
	var buf []byte
	for _, kv := range kvs {
		n := len(kv.Key) + 1 + len(kv.Value)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(n))
		buf = append(buf, kv.Key...)
		buf = append(buf, 0)
		buf = append(buf, kv.Value...)
		for range padding(uint64(n), 4) {
			buf = append(buf, 0)
		}
	}
	return buf
}

func padding(n, align uint64) uint64 {
	return (align - n%align) % align
}
