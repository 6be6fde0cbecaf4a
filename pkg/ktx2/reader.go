package ktx2

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Level is one entry of the level index.
type Level struct {
	ByteOffset             uint64
	ByteLength             uint64
	UncompressedByteLength uint64
}

// Container is a parsed KTX2 file. Slices inside it are views into Data.
type Container struct {
	Data      []byte
	Header    Header
	Levels    []Level
	DFD       FormatDescriptor
	KeyValues []KeyValue
	Global    *GlobalData

	// Warnings lists non-fatal findings, such as 64-bit fields beyond
	// 2^53-1.
	Warnings []string

	mmapped bool
}

// Open maps a KTX2 file read-only and parses it.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned container must be closed to release any mapping.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: file size %d cannot be addressed", ErrStructuralOverrun, size64)
	}
	size := int(size64)
	if size < identifierSize {
		return nil, fmt.Errorf("%w: file is %d bytes", ErrInvalidIdentifier, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		c, parseErr := parse(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return c, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// OpenReaderAt loads and parses a container from a random-access reader
// without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*Container, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: size %d cannot be addressed", ErrStructuralOverrun, size)
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Parse validates data as a KTX2 container. The buffer is retained, not
// copied, and must not be modified while the container is in use.
func Parse(data []byte) (*Container, error) {
	return parse(data, false)
}

func parse(data []byte, mmapped bool) (*Container, error) {
	if err := checkIdentifier(data); err != nil {
		return nil, err
	}
	hc, err := newCursor(data, identifierSize, HeaderSize-identifierSize)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	var h Header
	if err := decodeHeader(hc, &h); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	warnings := hc.warnings

	if err := h.validateGeometry(); err != nil {
		return nil, err
	}

	levels, levelWarnings, err := decodeLevelIndex(data, h.NumLevels())
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, levelWarnings...)

	dfd, err := decodeFormatDescriptor(data, h.DFDByteOffset, h.DFDByteLength)
	if err != nil {
		return nil, err
	}

	if err := checkSupported(&h, &dfd); err != nil {
		return nil, err
	}

	var kvs []KeyValue
	if h.KVDByteLength > 0 {
		if kvs, err = decodeKeyValues(data, h.KVDByteOffset, h.KVDByteLength); err != nil {
			return nil, err
		}
	}

	var global *GlobalData
	switch {
	case h.SGDByteLength > 0 && h.Supercompression != SupercompressionBasisLZ:
		return nil, fmt.Errorf("%w: global data present for scheme %s", ErrUnsupportedSupercompression, h.Supercompression)
	case h.SGDByteLength > 0:
		if global, err = decodeGlobalData(data, h.SGDByteOffset, h.SGDByteLength, len(levels)); err != nil {
			return nil, err
		}
	case h.Supercompression == SupercompressionBasisLZ:
		return nil, fmt.Errorf("%w: BasisLZ container has no global data", ErrStructuralOverrun)
	}

	return &Container{
		Data:      data,
		Header:    h,
		Levels:    levels,
		DFD:       dfd,
		KeyValues: kvs,
		Global:    global,
		Warnings:  warnings,
		mmapped:   mmapped,
	}, nil
}

func decodeLevelIndex(data []byte, n int) ([]Level, []string, error) {
	c, err := newCursor(data, HeaderSize, uint64(n)*LevelEntrySize)
	if err != nil {
		return nil, nil, fmt.Errorf("level index: %w", err)
	}
	levels := make([]Level, n)
	for i := range levels {
		l := &levels[i]
		for _, f := range []*uint64{&l.ByteOffset, &l.ByteLength, &l.UncompressedByteLength} {
			if *f, err = c.readU64(); err != nil {
				return nil, nil, fmt.Errorf("level %d: %w", i, err)
			}
		}
		end := l.ByteOffset + l.ByteLength
		if end < l.ByteOffset || end > uint64(len(data)) {
			return nil, nil, fmt.Errorf("%w: level %d range [%d, +%d) exceeds file of %d bytes",
				ErrStructuralOverrun, i, l.ByteOffset, l.ByteLength, len(data))
		}
	}
	return levels, c.warnings, nil
}

func checkSupported(h *Header, d *FormatDescriptor) error {
	if h.VkFormat != VkFormatUndefined {
		return fmt.Errorf("%w: vkFormat %d is not a Basis payload", ErrUnsupportedSupercompression, h.VkFormat)
	}
	switch d.ColorModel {
	case ColorModelETC1S:
		if h.Supercompression == SupercompressionBasisLZ {
			return nil
		}
	case ColorModelUASTC:
		switch h.Supercompression {
		case SupercompressionNone, SupercompressionZstd, SupercompressionZLIB:
			return nil
		}
	}
	return fmt.Errorf("%w: colour model %s with scheme %s",
		ErrUnsupportedSupercompression, d.ColorModel, h.Supercompression)
}

// Close releases the container buffer and any mmap backing.
func (c *Container) Close() error {
	if c == nil || c.Data == nil {
		return nil
	}
	var err error
	if c.mmapped {
		err = unix.Munmap(c.Data)
	}
	c.Data = nil
	c.Levels = nil
	c.KeyValues = nil
	c.Global = nil
	c.mmapped = false
	return err
}

// Model returns the source model implied by the colour model.
func (c *Container) Model() SourceModel {
	if c.DFD.ColorModel == ColorModelETC1S {
		return ModelPalette
	}
	return ModelNonPalette
}

// HasAlpha reports whether the payload carries an alpha channel.
//
// For ETC1S this is an AAA sample or a level 0 alpha slice. For UASTC the
// first sample's channel decides (RGBA or RRRG).
func (c *Container) HasAlpha() bool {
	switch c.Model() {
	case ModelPalette:
		if c.DFD.HasChannel(ChannelETC1SAAA) {
			return true
		}
		return c.Global != nil && len(c.Global.ImageDescs) > 0 && c.Global.ImageDescs[0].HasAlpha()
	default:
		if len(c.DFD.Samples) == 0 {
			return false
		}
		ch := c.DFD.Samples[0].Channel()
		return ch == ChannelUASTCRGBA || ch == ChannelUASTCRRRG
	}
}

// LevelData returns a zero-copy slice covering level i as stored.
// The caller must not retain this slice after Close.
func (c *Container) LevelData(i int) []byte {
	if c == nil || c.Data == nil || i < 0 || i >= len(c.Levels) {
		return nil
	}
	l := c.Levels[i]
	return c.Data[l.ByteOffset : l.ByteOffset+l.ByteLength]
}

// LevelWidth and LevelHeight return the pixel extent of level i.
func (c *Container) LevelWidth(i int) int  { return int(LevelExtent(c.Header.PixelWidth, i)) }
func (c *Container) LevelHeight(i int) int { return int(LevelExtent(max(1, c.Header.PixelHeight), i)) }

// Value returns the value stored under key, or false.
func (c *Container) Value(key string) (KeyValue, bool) {
	for _, kv := range c.KeyValues {
		if kv.Key == key {
			return kv, true
		}
	}
	return KeyValue{}, false
}

// Orientation returns the KTXorientation value, e.g. "rd".
func (c *Container) Orientation() string {
	kv, ok := c.Value(KeyOrientation)
	if !ok {
		return ""
	}
	return kv.String()
}

// Writer returns the KTXwriter value.
func (c *Container) Writer() string {
	kv, ok := c.Value(KeyWriter)
	if !ok {
		return ""
	}
	return kv.String()
}
