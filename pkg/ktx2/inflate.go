package ktx2

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// MaxLevelSize bounds the declared uncompressed length of a supercompressed
// level. Larger declarations are rejected before any buffer is allocated.
const MaxLevelSize = 1 << 31

// zstd.Encoder and zstd.Decoder are safe for concurrent use, so one of each
// serves every level.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("ktx2: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxLevelSize))
	if err != nil {
		panic("ktx2: zstd decoder initialization failed: " + err.Error())
	}
}

// InflateLevel returns an owned copy of level i with any Zstd or ZLIB
// supercompression removed. BasisLZ levels are returned as stored; their
// slices are addressed through the global data instead.
func InflateLevel(c *Container, i int) ([]byte, error) {
	if i < 0 || i >= len(c.Levels) {
		return nil, fmt.Errorf("%w: level %d of %d", ErrStructuralOverrun, i, len(c.Levels))
	}
	src := c.LevelData(i)
	want := c.Levels[i].UncompressedByteLength

	switch c.Header.Supercompression {
	case SupercompressionNone, SupercompressionBasisLZ:
		return bytes.Clone(src), nil
	case SupercompressionZstd:
		return inflateZstd(src, want)
	case SupercompressionZLIB:
		return inflateZLIB(src, want)
	default:
		return nil, fmt.Errorf("%w: scheme %s", ErrUnsupportedSupercompression, c.Header.Supercompression)
	}
}

func inflateZstd(src []byte, want uint64) ([]byte, error) {
	if err := checkDeclaredSize(want); err != nil {
		return nil, err
	}
	out, err := zstdDecoder.DecodeAll(src, make([]byte, 0, preallocSize(len(src), want)))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd level: %w", ErrStructuralOverrun, err)
	}
	if uint64(len(out)) != want {
		return nil, fmt.Errorf("%w: zstd level inflated to %d bytes, header declares %d",
			ErrStructuralOverrun, len(out), want)
	}
	return out, nil
}

func inflateZLIB(src []byte, want uint64) ([]byte, error) {
	if err := checkDeclaredSize(want); err != nil {
		return nil, err
	}
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib level: %w", ErrStructuralOverrun, err)
	}
	defer func() { _ = r.Close() }()

	// Read one byte past the declared size to detect oversized streams.
	out, err := io.ReadAll(io.LimitReader(r, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib level: %w", ErrStructuralOverrun, err)
	}
	if uint64(len(out)) != want {
		return nil, fmt.Errorf("%w: zlib level inflated to %d bytes, header declares %d",
			ErrStructuralOverrun, len(out), want)
	}
	return out, nil
}

func checkDeclaredSize(want uint64) error {
	if want > MaxLevelSize || want > uint64(maxInt) {
		return fmt.Errorf("%w: uncompressed length %d exceeds %d", ErrStructuralOverrun, want, MaxLevelSize)
	}
	return nil
}

// preallocSize caps the output buffer hint so a declared length that the
// compressed payload cannot plausibly produce does not reserve memory up
// front. The buffer still grows to the real output size.
func preallocSize(compressed int, want uint64) int {
	limit := uint64(compressed)*8 + 64<<10
	return int(min(want, limit))
}

// deflateLevel applies scheme to a level payload for the encoder.
func deflateLevel(scheme SupercompressionScheme, data []byte) ([]byte, error) {
	switch scheme {
	case SupercompressionNone, SupercompressionBasisLZ:
		return data, nil
	case SupercompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case SupercompressionZLIB:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("zlib level: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("zlib level: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: scheme %s", ErrUnsupportedSupercompression, scheme)
	}
}

const maxInt = int(^uint(0) >> 1)
