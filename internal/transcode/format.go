// Package transcode chooses a GPU-native target format for a KTX2 container
// and drives a transcoding Service over its mip levels.
package transcode

import "fmt"

// TargetFormat is a GPU-native compressed encoding. Values match the libktx
// transcode target codes so they can be passed to engines unchanged.
type TargetFormat uint8

const (
	ETC1RGB      TargetFormat = 0
	BC1RGB       TargetFormat = 2
	BC3RGBA      TargetFormat = 3
	BC7RGB       TargetFormat = 6
	BC7RGBA      TargetFormat = 7
	PVRTC1_4RGB  TargetFormat = 8
	PVRTC1_4RGBA TargetFormat = 9
	ASTC4x4RGBA  TargetFormat = 10
)

// Formats lists every target format in negotiation priority order.
var Formats = []TargetFormat{ASTC4x4RGBA, BC7RGBA, BC7RGB, BC3RGBA, BC1RGB, PVRTC1_4RGBA, PVRTC1_4RGB, ETC1RGB}

// Family groups target formats by the hardware capability they need.
type Family uint8

const (
	FamilyASTC Family = iota
	FamilyBPTC
	FamilyDXT
	FamilyPVRTC
	FamilyETC1
)

var familyNames = [...]string{
	FamilyASTC:  "astc",
	FamilyBPTC:  "bptc",
	FamilyDXT:   "dxt",
	FamilyPVRTC: "pvrtc",
	FamilyETC1:  "etc1",
}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

func (f TargetFormat) String() string {
	switch f {
	case ETC1RGB:
		return "ETC1_RGB"
	case BC1RGB:
		return "BC1_RGB"
	case BC3RGBA:
		return "BC3_RGBA"
	case BC7RGB:
		return "BC7_M6_RGB"
	case BC7RGBA:
		return "BC7_M5_RGBA"
	case PVRTC1_4RGB:
		return "PVRTC1_4_RGB"
	case PVRTC1_4RGBA:
		return "PVRTC1_4_RGBA"
	case ASTC4x4RGBA:
		return "ASTC_4x4_RGBA"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ParseTargetFormat accepts the names returned by String.
func ParseTargetFormat(name string) (TargetFormat, error) {
	for _, f := range Formats {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown target format %q", name)
}

func (f TargetFormat) Valid() bool {
	switch f {
	case ETC1RGB, BC1RGB, BC3RGBA, BC7RGB, BC7RGBA, PVRTC1_4RGB, PVRTC1_4RGBA, ASTC4x4RGBA:
		return true
	}
	return false
}

func (f TargetFormat) Family() Family {
	switch f {
	case ASTC4x4RGBA:
		return FamilyASTC
	case BC7RGB, BC7RGBA:
		return FamilyBPTC
	case BC1RGB, BC3RGBA:
		return FamilyDXT
	case PVRTC1_4RGB, PVRTC1_4RGBA:
		return FamilyPVRTC
	default:
		return FamilyETC1
	}
}

// HasAlpha reports whether the format stores an alpha channel.
func (f TargetFormat) HasAlpha() bool {
	switch f {
	case BC3RGBA, BC7RGBA, PVRTC1_4RGBA, ASTC4x4RGBA:
		return true
	}
	return false
}

// BytesPerBlock is the size of one 4x4 block.
func (f TargetFormat) BytesPerBlock() int {
	switch f {
	case BC3RGBA, BC7RGB, BC7RGBA, ASTC4x4RGBA:
		return 16
	default:
		return 8
	}
}

// GLInternalFormat returns the WebGL/OpenGL compressed internal format
// enum a renderer uploads this format with.
func (f TargetFormat) GLInternalFormat() uint32 {
	switch f {
	case ETC1RGB:
		return 0x8D64 // COMPRESSED_RGB_ETC1_WEBGL
	case BC1RGB:
		return 0x83F0 // COMPRESSED_RGB_S3TC_DXT1_EXT
	case BC3RGBA:
		return 0x83F3 // COMPRESSED_RGBA_S3TC_DXT5_EXT
	case BC7RGB, BC7RGBA:
		return 0x8E8C // COMPRESSED_RGBA_BPTC_UNORM_EXT
	case PVRTC1_4RGB:
		return 0x8C00 // COMPRESSED_RGB_PVRTC_4BPPV1_IMG
	case PVRTC1_4RGBA:
		return 0x8C02 // COMPRESSED_RGBA_PVRTC_4BPPV1_IMG
	case ASTC4x4RGBA:
		return 0x93B0 // COMPRESSED_RGBA_ASTC_4x4_KHR
	default:
		return 0
	}
}

// LevelSize is the size of a transcoded level covering blocksX by blocksY
// 4x4 blocks. PVRTC1 levels are never smaller than 2x2 blocks.
func (f TargetFormat) LevelSize(blocksX, blocksY int) int {
	if f.Family() == FamilyPVRTC {
		blocksX, blocksY = max(2, blocksX), max(2, blocksY)
	}
	return blocksX * blocksY * f.BytesPerBlock()
}
