package ktx2

import (
	"encoding/binary"
	"fmt"
)

// GlobalLayout identifies which BasisLZ global data header was found.
type GlobalLayout uint8

const (
	// LayoutStandard is the released KTX 2.0 layout: counts followed by the
	// four section lengths.
	LayoutStandard GlobalLayout = iota
	// LayoutLegacy is the pre-release layout with a leading globalFlags word.
	LayoutLegacy
)

func (l GlobalLayout) String() string {
	switch l {
	case LayoutStandard:
		return "standard"
	case LayoutLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

func (l GlobalLayout) headerSize() uint64 {
	if l == LayoutLegacy {
		return 24
	}
	return 20
}

const imageDescSize = 20

// GlobalData is the BasisLZ supercompression global data block.
type GlobalData struct {
	Layout      GlobalLayout
	GlobalFlags uint32

	EndpointCount       uint16
	SelectorCount       uint16
	EndpointsByteLength uint32
	SelectorsByteLength uint32
	TablesByteLength    uint32
	ExtendedByteLength  uint32

	ImageDescs []ImageDesc

	Endpoints []byte
	Selectors []byte
	Tables    []byte
	Extended  []byte
}

// ImageDesc locates the slices of one image relative to its level's bytes.
type ImageDesc struct {
	ImageFlags           uint32
	RGBSliceByteOffset   uint32
	RGBSliceByteLength   uint32
	AlphaSliceByteOffset uint32
	AlphaSliceByteLength uint32
}

// HasAlpha reports whether the image carries an alpha slice.
func (d ImageDesc) HasAlpha() bool {
	return d.AlphaSliceByteLength != 0
}

// Size returns the encoded size of the block for its layout.
func (g *GlobalData) Size() uint64 {
	return g.Layout.headerSize() + uint64(len(g.ImageDescs))*imageDescSize +
		uint64(g.EndpointsByteLength) + uint64(g.SelectorsByteLength) +
		uint64(g.TablesByteLength) + uint64(g.ExtendedByteLength)
}

func decodeGlobalData(data []byte, offset, length uint64, imageCount int) (*GlobalData, error) {
	if _, err := newCursor(data, offset, length); err != nil {
		return nil, fmt.Errorf("sgd: %w", err)
	}

	std, stdErr := decodeGlobalLayout(data, offset, length, imageCount, LayoutStandard)
	if stdErr == nil && std.Size() == length {
		return std, nil
	}
	legacy, legacyErr := decodeGlobalLayout(data, offset, length, imageCount, LayoutLegacy)
	if legacyErr == nil && legacy.Size() == length {
		return legacy, nil
	}
	if stdErr != nil {
		return nil, stdErr
	}
	return std, nil
}

func decodeGlobalLayout(data []byte, offset, length uint64, imageCount int, layout GlobalLayout) (*GlobalData, error) {
	c, err := newCursor(data, offset, length)
	if err != nil {
		return nil, fmt.Errorf("sgd: %w", err)
	}
	g := &GlobalData{Layout: layout}
	if layout == LayoutLegacy {
		if g.GlobalFlags, err = c.readU32(); err != nil {
			return nil, fmt.Errorf("sgd: %w", err)
		}
	}
	if g.EndpointCount, err = c.readU16(); err != nil {
		return nil, fmt.Errorf("sgd: %w", err)
	}
	if g.SelectorCount, err = c.readU16(); err != nil {
		return nil, fmt.Errorf("sgd: %w", err)
	}
	for _, f := range []*uint32{&g.EndpointsByteLength, &g.SelectorsByteLength, &g.TablesByteLength, &g.ExtendedByteLength} {
		if *f, err = c.readU32(); err != nil {
			return nil, fmt.Errorf("sgd: %w", err)
		}
	}

	g.ImageDescs = make([]ImageDesc, imageCount)
	for i := range g.ImageDescs {
		d := &g.ImageDescs[i]
		for _, f := range []*uint32{&d.ImageFlags, &d.RGBSliceByteOffset, &d.RGBSliceByteLength, &d.AlphaSliceByteOffset, &d.AlphaSliceByteLength} {
			if *f, err = c.readU32(); err != nil {
				return nil, fmt.Errorf("sgd image %d: %w", i, err)
			}
		}
	}

	sections := []struct {
		name string
		n    uint32
		dst  *[]byte
	}{
		{"endpoints", g.EndpointsByteLength, &g.Endpoints},
		{"selectors", g.SelectorsByteLength, &g.Selectors},
		{"tables", g.TablesByteLength, &g.Tables},
		{"extended", g.ExtendedByteLength, &g.Extended},
	}
	for _, s := range sections {
		b, err := c.bytes(uint64(s.n))
		if err != nil {
			return nil, fmt.Errorf("sgd %s: %w", s.name, err)
		}
		*s.dst = b
	}
	return g, nil
}

// MarshalBinary encodes the block in its layout. Section lengths are taken
// from the section slices.
func (g *GlobalData) MarshalBinary() ([]byte, error) {
	le := binary.LittleEndian
	var buf []byte
	if g.Layout == LayoutLegacy {
		buf = le.AppendUint32(buf, g.GlobalFlags)
	}
	buf = le.AppendUint16(buf, g.EndpointCount)
	buf = le.AppendUint16(buf, g.SelectorCount)
	buf = le.AppendUint32(buf, uint32(len(g.Endpoints)))
	buf = le.AppendUint32(buf, uint32(len(g.Selectors)))
	buf = le.AppendUint32(buf, uint32(len(g.Tables)))
	buf = le.AppendUint32(buf, uint32(len(g.Extended)))
	for _, d := range g.ImageDescs {
		buf = le.AppendUint32(buf, d.ImageFlags)
		buf = le.AppendUint32(buf, d.RGBSliceByteOffset)
		buf = le.AppendUint32(buf, d.RGBSliceByteLength)
		buf = le.AppendUint32(buf, d.AlphaSliceByteOffset)
		buf = le.AppendUint32(buf, d.AlphaSliceByteLength)
	}
	buf = append(buf, g.Endpoints...)
	buf = append(buf, g.Selectors...)
	buf = append(buf, g.Tables...)
	buf = append(buf, g.Extended...)
	return buf, nil
}
