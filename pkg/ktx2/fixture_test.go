package ktx2

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// etc1sSpec builds a BasisLZ container with one image per level. Level i's
// RGB slice is filled with byte i+1; alpha slices, when requested, follow it.
func etc1sSpec(width, height uint32, levels int, alpha bool) EncodeSpec {
	samples := []Sample{{BitLength: 63, ChannelType: ChannelETC1SRGB, SampleUpper: ^uint32(0)}}
	if alpha {
		samples = append(samples, Sample{BitOffset: 64, BitLength: 63, ChannelType: ChannelETC1SAAA, SampleUpper: ^uint32(0)})
	}
	g := &GlobalData{
		EndpointCount: 2,
		SelectorCount: 3,
		Endpoints:     []byte{1, 2, 3, 4, 5, 6},
		Selectors:     []byte{7, 8, 9, 10},
		Tables:        []byte{11, 12},
	}
	payloads := make([][]byte, levels)
	for i := range payloads {
		rgb := bytes.Repeat([]byte{byte(i + 1)}, 8)
		d := ImageDesc{RGBSliceByteLength: uint32(len(rgb))}
		payloads[i] = rgb
		if alpha {
			d.AlphaSliceByteOffset = uint32(len(rgb))
			d.AlphaSliceByteLength = 4
			payloads[i] = append(bytes.Clone(rgb), 0xA0, 0xA1, 0xA2, 0xA3)
		}
		g.ImageDescs = append(g.ImageDescs, d)
	}
	return EncodeSpec{
		Header: Header{
			PixelWidth:       width,
			PixelHeight:      height,
			LevelCount:       uint32(levels),
			Supercompression: SupercompressionBasisLZ,
		},
		DFD: FormatDescriptor{
			VersionNumber:       2,
			ColorModel:          ColorModelETC1S,
			ColorPrimaries:      1,
			TransferFunction:    TransferSRGB,
			TexelBlockDimension: [4]uint8{3, 3, 0, 0},
			Samples:             samples,
		},
		KeyValues: []KeyValue{{Key: KeyWriter, Value: []byte("ktxload test\x00")}},
		Global:    g,
		Levels:    payloads,
	}
}

func uastcSpec(width, height uint32, levels int, scheme SupercompressionScheme, channel uint8) EncodeSpec {
	payloads := make([][]byte, levels)
	for i := range payloads {
		w := (LevelExtent(width, i) + 3) / 4
		h := (LevelExtent(height, i) + 3) / 4
		payloads[i] = bytes.Repeat([]byte{byte(0x10 + i)}, int(w*h*16))
	}
	return EncodeSpec{
		Header: Header{
			PixelWidth:       width,
			PixelHeight:      height,
			LevelCount:       uint32(levels),
			Supercompression: scheme,
		},
		DFD: FormatDescriptor{
			VersionNumber:       2,
			ColorModel:          ColorModelUASTC,
			ColorPrimaries:      1,
			TransferFunction:    TransferLinear,
			TexelBlockDimension: [4]uint8{3, 3, 0, 0},
			BytesPlane:          [8]uint8{16},
			Samples:             []Sample{{BitLength: 127, ChannelType: channel, SampleUpper: ^uint32(0)}},
		},
		KeyValues: []KeyValue{{Key: KeyOrientation, Value: []byte("rd\x00")}},
		Levels:    payloads,
	}
}

func mustEncode(t *testing.T, spec EncodeSpec) []byte {
	t.Helper()
	data, err := Encode(spec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func putU32(data []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(data[off:], v)
}

func putU64(data []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(data[off:], v)
}
