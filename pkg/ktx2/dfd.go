package ktx2

import (
	"encoding/binary"
	"fmt"
)

const (
	dfdBlockHeaderSize = 24
	dfdSampleSize      = 16
)

// FormatDescriptor is the first basic descriptor block of the DFD.
type FormatDescriptor struct {
	TotalSize uint32

	// VendorID is a 17-bit field.
	VendorID         uint32
	DescriptorType   uint16
	VersionNumber    uint16
	BlockSize        uint16
	ColorModel       ColorModel
	ColorPrimaries   uint8
	TransferFunction TransferFunction
	Flags            uint8

	// TexelBlockDimension holds each dimension minus one, as stored.
	TexelBlockDimension [4]uint8
	BytesPlane          [8]uint8

	Samples []Sample
}

type Sample struct {
	BitOffset      uint16
	BitLength      uint8
	ChannelType    uint8
	SamplePosition [4]uint8
	SampleLower    uint32
	SampleUpper    uint32
}

// Channel is the channel identifier in the low nibble.
func (s Sample) Channel() uint8 { return s.ChannelType & 0x0F }

// Qualifiers are the linear/exponent/signed/float bits in the high nibble.
func (s Sample) Qualifiers() uint8 { return s.ChannelType >> 4 }

// SampleCount derives the number of samples from a descriptor block size.
func SampleCount(blockSize uint16) int {
	return (int(blockSize)/4 - 6) / 4
}

func (d *FormatDescriptor) BlockWidth() int  { return int(d.TexelBlockDimension[0]) + 1 }
func (d *FormatDescriptor) BlockHeight() int { return int(d.TexelBlockDimension[1]) + 1 }
func (d *FormatDescriptor) BlockDepth() int  { return int(d.TexelBlockDimension[2]) + 1 }

func (d *FormatDescriptor) IsSRGB() bool {
	return d.TransferFunction == TransferSRGB
}

func (d *FormatDescriptor) PremultipliedAlpha() bool {
	return d.Flags&FlagAlphaPremultiplied != 0
}

// HasChannel reports whether any sample carries the given channel id.
func (d *FormatDescriptor) HasChannel(id uint8) bool {
	for _, s := range d.Samples {
		if s.Channel() == id {
			return true
		}
	}
	return false
}

func decodeFormatDescriptor(data []byte, offset, length uint32) (FormatDescriptor, error) {
	var d FormatDescriptor
	c, err := newCursor(data, uint64(offset), uint64(length))
	if err != nil {
		return d, fmt.Errorf("dfd: %w", err)
	}
	if d.TotalSize, err = c.readU32(); err != nil {
		return d, fmt.Errorf("dfd: %w", err)
	}
	if d.TotalSize > length {
		return d, fmt.Errorf("%w: dfd totalSize %d exceeds dfdByteLength %d", ErrStructuralOverrun, d.TotalSize, length)
	}

	// Words 0 and 1 pack vendorId:17|descriptorType:15 and
	// versionNumber:16|descriptorBlockSize:16.
	word0, err := c.readU32()
	if err != nil {
		return d, fmt.Errorf("dfd: %w", err)
	}
	d.VendorID = word0 & 0x1FFFF
	d.DescriptorType = uint16(word0 >> 17)
	if d.VersionNumber, err = c.readU16(); err != nil {
		return d, fmt.Errorf("dfd: %w", err)
	}
	if d.BlockSize, err = c.readU16(); err != nil {
		return d, fmt.Errorf("dfd: %w", err)
	}
	if d.BlockSize < dfdBlockHeaderSize || (d.BlockSize-dfdBlockHeaderSize)%dfdSampleSize != 0 {
		return d, fmt.Errorf("%w: dfd descriptorBlockSize %d is not 24 + 16*n", ErrStructuralOverrun, d.BlockSize)
	}
	blockEnd := uint64(4) + uint64(d.BlockSize)
	if blockEnd > uint64(d.TotalSize) {
		return d, fmt.Errorf("%w: dfd descriptor block ends at %d past totalSize %d", ErrStructuralOverrun, blockEnd, d.TotalSize)
	}

	var model, primaries, transfer uint8
	for _, f := range []*uint8{&model, &primaries, &transfer, &d.Flags} {
		if *f, err = c.readU8(); err != nil {
			return d, fmt.Errorf("dfd: %w", err)
		}
	}
	d.ColorModel = ColorModel(model)
	d.ColorPrimaries = primaries
	d.TransferFunction = TransferFunction(transfer)

	dims, err := c.bytes(4)
	if err != nil {
		return d, fmt.Errorf("dfd: %w", err)
	}
	copy(d.TexelBlockDimension[:], dims)
	planes, err := c.bytes(8)
	if err != nil {
		return d, fmt.Errorf("dfd: %w", err)
	}
	copy(d.BytesPlane[:], planes)

	n := SampleCount(d.BlockSize)
	d.Samples = make([]Sample, n)
	for i := range d.Samples {
		s, err := decodeSample(c)
		if err != nil {
			return d, fmt.Errorf("dfd sample %d: %w", i, err)
		}
		d.Samples[i] = s
	}
	if c.offset() != blockEnd {
		return d, fmt.Errorf("%w: dfd parse ended at %d, block ends at %d", ErrStructuralOverrun, c.offset(), blockEnd)
	}
	return d, nil
}

func decodeSample(c *cursor) (Sample, error) {
	var s Sample
	var err error
	if s.BitOffset, err = c.readU16(); err != nil {
		return s, err
	}
	if s.BitLength, err = c.readU8(); err != nil {
		return s, err
	}
	if s.ChannelType, err = c.readU8(); err != nil {
		return s, err
	}
	pos, err := c.bytes(4)
	if err != nil {
		return s, err
	}
	copy(s.SamplePosition[:], pos)
	if s.SampleLower, err = c.readU32(); err != nil {
		return s, err
	}
	if s.SampleUpper, err = c.readU32(); err != nil {
		return s, err
	}
	return s, nil
}

// MarshalBinary encodes the descriptor as a complete DFD (totalSize word
// followed by one basic block). BlockSize and TotalSize are derived from the
// sample count.
func (d *FormatDescriptor) MarshalBinary() ([]byte, error) {
	blockSize := dfdBlockHeaderSize + dfdSampleSize*len(d.Samples)
	if blockSize > 0xFFFF {
		return nil, fmt.Errorf("dfd: %d samples do not fit a descriptor block", len(d.Samples))
	}
	buf := make([]byte, 4+blockSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], uint32(len(buf)))
	le.PutUint32(buf[4:8], d.VendorID&0x1FFFF|uint32(d.DescriptorType)<<17)
	le.PutUint16(buf[8:10], d.VersionNumber)
	le.PutUint16(buf[10:12], uint16(blockSize))
	buf[12] = uint8(d.ColorModel)
	buf[13] = d.ColorPrimaries
	buf[14] = uint8(d.TransferFunction)
	buf[15] = d.Flags
	copy(buf[16:20], d.TexelBlockDimension[:])
	copy(buf[20:28], d.BytesPlane[:])
	off := 28
	for _, s := range d.Samples {
		le.PutUint16(buf[off:], s.BitOffset)
		buf[off+2] = s.BitLength
		buf[off+3] = s.ChannelType
		copy(buf[off+4:off+8], s.SamplePosition[:])
		le.PutUint32(buf[off+8:], s.SampleLower)
		le.PutUint32(buf[off+12:], s.SampleUpper)
		off += dfdSampleSize
	}
	return buf, nil
}
