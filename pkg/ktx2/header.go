package ktx2

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Header is the fixed-size record following the identifier.
type Header struct {
	VkFormat         uint32
	TypeSize         uint32
	PixelWidth       uint32
	PixelHeight      uint32
	PixelDepth       uint32
	LayerCount       uint32
	FaceCount        uint32
	LevelCount       uint32
	Supercompression SupercompressionScheme

	DFDByteOffset uint32
	DFDByteLength uint32
	KVDByteOffset uint32
	KVDByteLength uint32
	SGDByteOffset uint64
	SGDByteLength uint64
}

// NumLevels is the number of entries in the level index. A LevelCount of 0
// still stores one level.
func (h *Header) NumLevels() int {
	return int(max(1, h.LevelCount))
}

// MarshalBinary encodes the identifier and header.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the identifier and header to buf, which must be at least
// HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:12], Identifier[:])
	le := binary.LittleEndian
	le.PutUint32(buf[12:16], h.VkFormat)
	le.PutUint32(buf[16:20], h.TypeSize)
	le.PutUint32(buf[20:24], h.PixelWidth)
	le.PutUint32(buf[24:28], h.PixelHeight)
	le.PutUint32(buf[28:32], h.PixelDepth)
	le.PutUint32(buf[32:36], h.LayerCount)
	le.PutUint32(buf[36:40], h.FaceCount)
	le.PutUint32(buf[40:44], h.LevelCount)
	le.PutUint32(buf[44:48], uint32(h.Supercompression))
	le.PutUint32(buf[48:52], h.DFDByteOffset)
	le.PutUint32(buf[52:56], h.DFDByteLength)
	le.PutUint32(buf[56:60], h.KVDByteOffset)
	le.PutUint32(buf[60:64], h.KVDByteLength)
	le.PutUint64(buf[64:72], h.SGDByteOffset)
	le.PutUint64(buf[72:80], h.SGDByteLength)
}

// UnmarshalBinary checks the identifier and decodes the header fields. It
// does not check geometry.
func (h *Header) UnmarshalBinary(data []byte) error {
	if err := checkIdentifier(data); err != nil {
		return err
	}
	c, err := newCursor(data, identifierSize, HeaderSize-identifierSize)
	if err != nil {
		return err
	}
	return decodeHeader(c, h)
}

func checkIdentifier(data []byte) error {
	if len(data) < identifierSize {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidIdentifier, identifierSize, len(data))
	}
	if !bytes.Equal(data[:identifierSize], Identifier[:]) {
		return fmt.Errorf("%w: got % x", ErrInvalidIdentifier, data[:identifierSize])
	}
	return nil
}

func decodeHeader(c *cursor, h *Header) error {
	fields := []*uint32{
		&h.VkFormat, &h.TypeSize,
		&h.PixelWidth, &h.PixelHeight, &h.PixelDepth,
		&h.LayerCount, &h.FaceCount, &h.LevelCount,
	}
	for _, f := range fields {
		v, err := c.readU32()
		if err != nil {
			return err
		}
		*f = v
	}
	scheme, err := c.readU32()
	if err != nil {
		return err
	}
	h.Supercompression = SupercompressionScheme(scheme)

	for _, f := range []*uint32{&h.DFDByteOffset, &h.DFDByteLength, &h.KVDByteOffset, &h.KVDByteLength} {
		v, err := c.readU32()
		if err != nil {
			return err
		}
		*f = v
	}
	if h.SGDByteOffset, err = c.readU64(); err != nil {
		return err
	}
	h.SGDByteLength, err = c.readU64()
	return err
}

// validateGeometry rejects anything other than a single 2D image per level.
func (h *Header) validateGeometry() error {
	if h.PixelDepth > 0 {
		return fmt.Errorf("%w: pixelDepth %d (3D textures)", ErrUnsupportedDimensionality, h.PixelDepth)
	}
	if h.LayerCount > 1 {
		return fmt.Errorf("%w: layerCount %d (array textures)", ErrUnsupportedDimensionality, h.LayerCount)
	}
	if h.FaceCount > 1 {
		return fmt.Errorf("%w: faceCount %d (cube maps)", ErrUnsupportedDimensionality, h.FaceCount)
	}
	if h.PixelWidth == 0 {
		return fmt.Errorf("%w: pixelWidth is zero", ErrUnsupportedDimensionality)
	}
	return nil
}
