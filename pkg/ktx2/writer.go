package ktx2

import (
	"encoding/binary"
	"fmt"
)

// EncodeSpec describes a container to lay out. Header geometry and scheme
// are written as given; all byte offsets and lengths are computed.
type EncodeSpec struct {
	Header    Header
	DFD       FormatDescriptor
	KeyValues []KeyValue
	Global    *GlobalData

	// Levels holds the uncompressed payload of each level, level 0 first.
	// Zstd and ZLIB schemes are applied while encoding.
	Levels [][]byte
}

// Encode lays out identifier, header, level index, DFD, key/value data,
// global data and level payloads. Levels are stored smallest first, as
// KTX2 writers do, with the alignment the scheme requires.
func Encode(spec EncodeSpec) ([]byte, error) {
	h := spec.Header
	if len(spec.Levels) != h.NumLevels() {
		return nil, fmt.Errorf("ktx2 encode: %d level payloads for levelCount %d", len(spec.Levels), h.LevelCount)
	}

	dfd, err := spec.DFD.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ktx2 encode: %w", err)
	}
	kvd := encodeKeyValues(spec.KeyValues)
	var sgd []byte
	if spec.Global != nil {
		if sgd, err = spec.Global.MarshalBinary(); err != nil {
			return nil, fmt.Errorf("ktx2 encode: %w", err)
		}
	}

	stored := make([][]byte, len(spec.Levels))
	for i, raw := range spec.Levels {
		if stored[i], err = deflateLevel(h.Supercompression, raw); err != nil {
			return nil, fmt.Errorf("ktx2 encode level %d: %w", i, err)
		}
	}

	off := uint64(HeaderSize) + uint64(len(stored))*LevelEntrySize
	off += padding(off, 4)
	h.DFDByteOffset, h.DFDByteLength = uint32(off), uint32(len(dfd))
	off += uint64(len(dfd))

	h.KVDByteOffset, h.KVDByteLength = 0, uint32(len(kvd))
	if len(kvd) > 0 {
		off += padding(off, 4)
		h.KVDByteOffset = uint32(off)
		off += uint64(len(kvd))
	}

	h.SGDByteOffset, h.SGDByteLength = 0, uint64(len(sgd))
	if len(sgd) > 0 {
		off += padding(off, 8)
		h.SGDByteOffset = off
		off += uint64(len(sgd))
	}

	align := levelAlignment(h.Supercompression)
	levels := make([]Level, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		off += padding(off, align)
		levels[i] = Level{ByteOffset: off, ByteLength: uint64(len(stored[i]))}
		if h.Supercompression != SupercompressionBasisLZ {
			levels[i].UncompressedByteLength = uint64(len(spec.Levels[i]))
		}
		off += uint64(len(stored[i]))
	}

	buf := make([]byte, off)
	h.EncodeTo(buf)
	le := binary.LittleEndian
	for i, l := range levels {
		e := HeaderSize + i*LevelEntrySize
		le.PutUint64(buf[e:], l.ByteOffset)
		le.PutUint64(buf[e+8:], l.ByteLength)
		le.PutUint64(buf[e+16:], l.UncompressedByteLength)
		copy(buf[l.ByteOffset:], stored[i])
	}
	copy(buf[h.DFDByteOffset:], dfd)
	copy(buf[h.KVDByteOffset:], kvd)
	copy(buf[h.SGDByteOffset:], sgd)
	return buf, nil
}

func levelAlignment(scheme SupercompressionScheme) uint64 {
	if scheme != SupercompressionNone {
		return 1
	}
	// UASTC blocks are 16 bytes.
	return 16
}
