// Package ktx2 implements a reader and encoder for KTX 2.0 texture containers
// carrying Basis Universal payloads.
//
// A container is a fixed header, a level index, a data format descriptor, an
// optional key/value block, an optional supercompression global data block and
// the level payloads. Parsed structures hold non-owning views into the
// container buffer and must not be used after Container.Close.
package ktx2

import "fmt"

// Identifier is the 12-byte file identifier «KTX 20»\r\n\x1A\n.
var Identifier = [12]byte{0xAB, 0x4B, 0x54, 0x58, 0x20, 0x32, 0x30, 0xBB, 0x0D, 0x0A, 0x1A, 0x0A}

const (
	identifierSize = 12

	// HeaderSize is the size of the identifier plus the fixed header fields.
	HeaderSize = identifierSize + 68

	// LevelEntrySize is the encoded size of one level index entry.
	LevelEntrySize = 24

	// VkFormatUndefined is the only vkFormat accepted for Basis payloads.
	VkFormatUndefined uint32 = 0
)

type SupercompressionScheme uint32

const (
	SupercompressionNone    SupercompressionScheme = 0
	SupercompressionBasisLZ SupercompressionScheme = 1
	SupercompressionZstd    SupercompressionScheme = 2
	SupercompressionZLIB    SupercompressionScheme = 3
)

func (s SupercompressionScheme) String() string {
	switch s {
	case SupercompressionNone:
		return "none"
	case SupercompressionBasisLZ:
		return "BasisLZ"
	case SupercompressionZstd:
		return "zstd"
	case SupercompressionZLIB:
		return "zlib"
	default:
		return fmt.Sprintf("scheme(%d)", uint32(s))
	}
}

// ColorModel is the DFD colour model code.
type ColorModel uint8

const (
	ColorModelUnspecified ColorModel = 0
	ColorModelRGBSDA      ColorModel = 1
	ColorModelETC1S       ColorModel = 163
	ColorModelUASTC       ColorModel = 166
)

func (m ColorModel) String() string {
	switch m {
	case ColorModelUnspecified:
		return "UNSPECIFIED"
	case ColorModelRGBSDA:
		return "RGBSDA"
	case ColorModelETC1S:
		return "ETC1S"
	case ColorModelUASTC:
		return "UASTC"
	default:
		return fmt.Sprintf("model(%d)", uint8(m))
	}
}

type TransferFunction uint8

const (
	TransferUnspecified TransferFunction = 0
	TransferLinear      TransferFunction = 1
	TransferSRGB        TransferFunction = 2
)

func (t TransferFunction) String() string {
	switch t {
	case TransferUnspecified:
		return "UNSPECIFIED"
	case TransferLinear:
		return "LINEAR"
	case TransferSRGB:
		return "SRGB"
	default:
		return fmt.Sprintf("transfer(%d)", uint8(t))
	}
}

// DFD flag bits.
const (
	FlagAlphaPremultiplied uint8 = 1 << 0
)

// Channel identifiers, stored in the low nibble of a sample's channel type.
const (
	ChannelETC1SRGB uint8 = 0
	ChannelETC1SRRR uint8 = 3
	ChannelETC1SGGG uint8 = 4
	ChannelETC1SAAA uint8 = 15

	ChannelUASTCRGB  uint8 = 0
	ChannelUASTCRGBA uint8 = 3
	ChannelUASTCRRR  uint8 = 4
	ChannelUASTCRRRG uint8 = 5
)

// SourceModel distinguishes the two payload encodings this package accepts.
type SourceModel uint8

const (
	// ModelPalette is ETC1S under BasisLZ: shared endpoint and selector
	// palettes plus tables live in the global data block.
	ModelPalette SourceModel = iota + 1
	// ModelNonPalette is UASTC: every level is self-contained.
	ModelNonPalette
)

func (m SourceModel) String() string {
	switch m {
	case ModelPalette:
		return "palette"
	case ModelNonPalette:
		return "non-palette"
	default:
		return fmt.Sprintf("source(%d)", uint8(m))
	}
}

// LevelExtent returns the size of a mip level along one axis.
func LevelExtent(base uint32, level int) uint32 {
	if level < 0 || level >= 32 {
		return 1
	}
	return max(1, base>>uint(level))
}
