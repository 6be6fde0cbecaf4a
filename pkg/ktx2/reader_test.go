package ktx2

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []Header{
		{},
		{
			VkFormat: 0, TypeSize: 1, PixelWidth: 4, PixelHeight: 4, LevelCount: 1,
			Supercompression: SupercompressionBasisLZ,
			DFDByteOffset:    104, DFDByteLength: 60, KVDByteOffset: 164, KVDByteLength: 28,
			SGDByteOffset: 192, SGDByteLength: 52,
		},
		{
			VkFormat: 0xFFFFFFFF, TypeSize: 0x01020304, PixelWidth: 0x80000000, PixelHeight: 7,
			PixelDepth: 9, LayerCount: 3, FaceCount: 6, LevelCount: 12,
			Supercompression: SupercompressionZLIB,
			DFDByteOffset:    1, DFDByteLength: 2, KVDByteOffset: 3, KVDByteLength: 4,
			SGDByteOffset: 0x0102030405060708, SGDByteLength: 0xFFFFFFFFFFFFFFFF,
		},
	}
	for i, want := range cases {
		data, err := want.MarshalBinary()
		if err != nil {
			t.Fatalf("case %d: marshal: %v", i, err)
		}
		if len(data) != HeaderSize {
			t.Fatalf("case %d: encoded size got %d want %d", i, len(data), HeaderSize)
		}
		var got Header
		if err := got.UnmarshalBinary(data); err != nil {
			t.Fatalf("case %d: unmarshal: %v", i, err)
		}
		if got != want {
			t.Fatalf("case %d: round trip mismatch:\n got %+v\nwant %+v", i, got, want)
		}
	}
}

func TestHeaderFieldOffsets(t *testing.T) {
	t.Parallel()

	h := Header{PixelWidth: 0x11223344, LevelCount: 5, SGDByteLength: 0x0A0B0C0D0E0F1011}
	data, _ := h.MarshalBinary()
	if !bytes.Equal(data[20:24], []byte{0x44, 0x33, 0x22, 0x11}) {
		t.Fatalf("pixelWidth bytes: got % x", data[20:24])
	}
	if !bytes.Equal(data[40:44], []byte{5, 0, 0, 0}) {
		t.Fatalf("levelCount bytes: got % x", data[40:44])
	}
	if !bytes.Equal(data[72:80], []byte{0x11, 0x10, 0x0F, 0x0E, 0x0D, 0x0C, 0x0B, 0x0A}) {
		t.Fatalf("sgdByteLength bytes: got % x", data[72:80])
	}
}

func TestParseETC1S(t *testing.T) {
	t.Parallel()

	spec := etc1sSpec(16, 8, 3, false)
	c, err := Parse(mustEncode(t, spec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Model() != ModelPalette {
		t.Fatalf("model: got %s want palette", c.Model())
	}
	if c.HasAlpha() {
		t.Fatalf("unexpected alpha")
	}
	if len(c.Levels) != 3 {
		t.Fatalf("levels: got %d want 3", len(c.Levels))
	}
	for i := range c.Levels {
		if got := c.LevelData(i); !bytes.Equal(got, spec.Levels[i]) {
			t.Fatalf("level %d data: got % x want % x", i, got, spec.Levels[i])
		}
	}
	if c.Global == nil || c.Global.Layout != LayoutStandard {
		t.Fatalf("global data: got %+v", c.Global)
	}
	if !bytes.Equal(c.Global.Endpoints, spec.Global.Endpoints) ||
		!bytes.Equal(c.Global.Selectors, spec.Global.Selectors) ||
		!bytes.Equal(c.Global.Tables, spec.Global.Tables) {
		t.Fatalf("global sections mismatch: %+v", c.Global)
	}
	if c.Global.EndpointCount != 2 || c.Global.SelectorCount != 3 {
		t.Fatalf("global counts: got %d/%d", c.Global.EndpointCount, c.Global.SelectorCount)
	}
	if !c.DFD.IsSRGB() || c.DFD.BlockWidth() != 4 || c.DFD.BlockHeight() != 4 {
		t.Fatalf("dfd: %+v", c.DFD)
	}
	if got := c.Writer(); got != "ktxload test" {
		t.Fatalf("writer: got %q", got)
	}
	if len(c.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", c.Warnings)
	}
}

func TestParseLegacyGlobalLayout(t *testing.T) {
	t.Parallel()

	spec := etc1sSpec(8, 8, 2, true)
	spec.Global.Layout = LayoutLegacy
	spec.Global.GlobalFlags = 5
	c, err := Parse(mustEncode(t, spec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Global.Layout != LayoutLegacy {
		t.Fatalf("layout: got %s want legacy", c.Global.Layout)
	}
	if c.Global.GlobalFlags != 5 {
		t.Fatalf("global flags: got %d want 5", c.Global.GlobalFlags)
	}
	if !bytes.Equal(c.Global.Endpoints, spec.Global.Endpoints) {
		t.Fatalf("endpoints: got % x", c.Global.Endpoints)
	}
	if got := c.Global.ImageDescs[1]; got != spec.Global.ImageDescs[1] {
		t.Fatalf("image desc 1: got %+v want %+v", got, spec.Global.ImageDescs[1])
	}
	if !c.HasAlpha() {
		t.Fatalf("expected alpha")
	}
}

func TestHasAlpha(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec EncodeSpec
		want bool
	}{
		{"etc1s opaque", etc1sSpec(4, 4, 1, false), false},
		{"etc1s alpha", etc1sSpec(4, 4, 1, true), true},
		{"uastc rgb", uastcSpec(4, 4, 1, SupercompressionNone, ChannelUASTCRGB), false},
		{"uastc rgba", uastcSpec(4, 4, 1, SupercompressionNone, ChannelUASTCRGBA), true},
		{"uastc rrrg", uastcSpec(4, 4, 1, SupercompressionNone, ChannelUASTCRRRG), true},
		{"uastc rrr", uastcSpec(4, 4, 1, SupercompressionNone, ChannelUASTCRRR), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := Parse(mustEncode(t, tt.spec))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := c.HasAlpha(); got != tt.want {
				t.Fatalf("HasAlpha: got %v want %v", got, tt.want)
			}
		})
	}
}

func TestETC1SAlphaFromImageDescriptor(t *testing.T) {
	t.Parallel()

	// Alpha slice without an AAA sample still counts as alpha.
	spec := etc1sSpec(4, 4, 1, true)
	spec.DFD.Samples = spec.DFD.Samples[:1]
	c, err := Parse(mustEncode(t, spec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.HasAlpha() {
		t.Fatalf("expected alpha from image descriptor")
	}
}

func TestParseCorruptIdentifier(t *testing.T) {
	t.Parallel()

	valid := mustEncode(t, etc1sSpec(4, 4, 1, false))
	for i := range identifierSize {
		data := bytes.Clone(valid)
		data[i] ^= 0xFF
		c, err := Parse(data)
		if !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("byte %d: got err %v want ErrInvalidIdentifier", i, err)
		}
		if c != nil {
			t.Fatalf("byte %d: partial container returned", i)
		}
	}

	if _, err := Parse(valid[:5]); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("short input: got %v want ErrInvalidIdentifier", err)
	}
}

func TestParseRejectsDimensionality(t *testing.T) {
	t.Parallel()

	valid := mustEncode(t, etc1sSpec(4, 4, 1, false))
	tests := []struct {
		name string
		off  int
		val  uint32
	}{
		{"depth", 28, 1},
		{"array", 32, 2},
		{"cube", 36, 6},
		{"zero width", 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// Truncate after the header: the check must fire before the
			// level index is read, or this would be an overrun.
			data := bytes.Clone(valid[:HeaderSize])
			putU32(data, tt.off, tt.val)
			_, err := Parse(data)
			if !errors.Is(err, ErrUnsupportedDimensionality) {
				t.Fatalf("got err %v want ErrUnsupportedDimensionality", err)
			}
		})
	}
}

func TestParseSingleLayerAndFaceAccepted(t *testing.T) {
	t.Parallel()

	data := mustEncode(t, etc1sSpec(4, 4, 1, false))
	putU32(data, 32, 1)
	putU32(data, 36, 1)
	if _, err := Parse(data); err != nil {
		t.Fatalf("layerCount=1 faceCount=1: %v", err)
	}
}

func TestParseTruncatedDFD(t *testing.T) {
	t.Parallel()

	valid := mustEncode(t, etc1sSpec(4, 4, 1, true))
	var h Header
	if err := h.UnmarshalBinary(valid); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	dfdOff := int(h.DFDByteOffset)

	tests := []struct {
		name  string
		patch func([]byte)
	}{
		{"dfdByteLength short", func(d []byte) { putU32(d, 52, h.DFDByteLength-4) }},
		{"blockSize not 24+16n", func(d []byte) {
			d[dfdOff+10] = byte(h.DFDByteLength - 4 + 8)
		}},
		{"blockSize past totalSize", func(d []byte) {
			d[dfdOff+10] = byte(h.DFDByteLength - 4 + 16)
		}},
		{"blockSize below header", func(d []byte) { d[dfdOff+10] = 8 }},
		{"dfd past end of file", func(d []byte) { putU32(d, 48, uint32(len(d))) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data := bytes.Clone(valid)
			tt.patch(data)
			c, err := Parse(data)
			if !errors.Is(err, ErrStructuralOverrun) {
				t.Fatalf("got err %v want ErrStructuralOverrun", err)
			}
			if c != nil {
				t.Fatalf("partial container returned")
			}
		})
	}
}

func TestSampleCountMatchesConsumed(t *testing.T) {
	t.Parallel()

	for n := range 6 {
		d := FormatDescriptor{ColorModel: ColorModelUASTC, Samples: make([]Sample, n)}
		for i := range d.Samples {
			d.Samples[i] = Sample{BitOffset: uint16(i * 8), BitLength: 7, ChannelType: uint8(i)}
		}
		data, err := d.MarshalBinary()
		if err != nil {
			t.Fatalf("n=%d: marshal: %v", n, err)
		}
		got, err := decodeFormatDescriptor(data, 0, uint32(len(data)))
		if err != nil {
			t.Fatalf("n=%d: decode: %v", n, err)
		}
		if SampleCount(got.BlockSize) != n || len(got.Samples) != n {
			t.Fatalf("n=%d: sample count got %d (%d decoded)", n, SampleCount(got.BlockSize), len(got.Samples))
		}
		for i := range got.Samples {
			if got.Samples[i] != d.Samples[i] {
				t.Fatalf("n=%d sample %d: got %+v want %+v", n, i, got.Samples[i], d.Samples[i])
			}
		}
	}
}

func TestDFDVendorAndTypePacking(t *testing.T) {
	t.Parallel()

	for _, vendor := range []uint32{0, 0xFFFF, 0x10000, 0x1FFFF} {
		d := FormatDescriptor{VendorID: vendor, DescriptorType: 0x7FFF, VersionNumber: 2}
		data, _ := d.MarshalBinary()
		got, err := decodeFormatDescriptor(data, 0, uint32(len(data)))
		if err != nil {
			t.Fatalf("vendor %#x: decode: %v", vendor, err)
		}
		if got.VendorID != vendor || got.DescriptorType != d.DescriptorType || got.VersionNumber != 2 {
			t.Fatalf("got vendor %#x type %#x version %d, want vendor %#x",
				got.VendorID, got.DescriptorType, got.VersionNumber, vendor)
		}
	}
}

func TestParseUnsupportedSupercompression(t *testing.T) {
	t.Parallel()

	etc1sNone := etc1sSpec(4, 4, 1, false)
	etc1sNone.Header.Supercompression = SupercompressionNone
	etc1sNone.Global = nil

	uastcBasis := uastcSpec(4, 4, 1, SupercompressionNone, ChannelUASTCRGB)
	uastcBasis.Header.Supercompression = SupercompressionBasisLZ

	uastcWithGlobal := uastcSpec(4, 4, 1, SupercompressionZstd, ChannelUASTCRGB)
	uastcWithGlobal.Global = &GlobalData{ImageDescs: []ImageDesc{{}}}

	definedFormat := uastcSpec(4, 4, 1, SupercompressionNone, ChannelUASTCRGB)
	definedFormat.Header.VkFormat = 37

	rgbsda := uastcSpec(4, 4, 1, SupercompressionNone, ChannelUASTCRGB)
	rgbsda.DFD.ColorModel = ColorModelRGBSDA

	tests := []struct {
		name string
		spec EncodeSpec
	}{
		{"etc1s without BasisLZ", etc1sNone},
		{"uastc with BasisLZ", uastcBasis},
		{"uastc with global data", uastcWithGlobal},
		{"defined vkFormat", definedFormat},
		{"rgbsda model", rgbsda},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(mustEncode(t, tt.spec))
			if !errors.Is(err, ErrUnsupportedSupercompression) {
				t.Fatalf("got err %v want ErrUnsupportedSupercompression", err)
			}
		})
	}
}

func TestParseLevelOutOfRange(t *testing.T) {
	t.Parallel()

	data := mustEncode(t, etc1sSpec(4, 4, 1, false))
	// Level 0 byteLength.
	putU32(data, HeaderSize+8, uint32(len(data)))
	if _, err := Parse(data); !errors.Is(err, ErrStructuralOverrun) {
		t.Fatalf("got err %v want ErrStructuralOverrun", err)
	}

	data = mustEncode(t, etc1sSpec(4, 4, 3, false))
	if _, err := Parse(data[:HeaderSize+LevelEntrySize]); !errors.Is(err, ErrStructuralOverrun) {
		t.Fatalf("truncated level index: got %v want ErrStructuralOverrun", err)
	}
}

func TestParseGlobalDataOverrun(t *testing.T) {
	t.Parallel()

	spec := etc1sSpec(4, 4, 1, false)
	valid := mustEncode(t, spec)
	var h Header
	_ = h.UnmarshalBinary(valid)

	// Endpoints length past the block.
	data := bytes.Clone(valid)
	putU32(data, int(h.SGDByteOffset)+4, 1<<20)
	if _, err := Parse(data); !errors.Is(err, ErrStructuralOverrun) {
		t.Fatalf("endpoints overrun: got %v want ErrStructuralOverrun", err)
	}

	// BasisLZ without global data.
	data = bytes.Clone(valid)
	putU32(data, 72, 0)
	putU32(data, 76, 0)
	if _, err := Parse(data); !errors.Is(err, ErrStructuralOverrun) {
		t.Fatalf("missing global data: got %v want ErrStructuralOverrun", err)
	}
}

func TestParseLevelCountZeroStoresOneLevel(t *testing.T) {
	t.Parallel()

	spec := etc1sSpec(4, 4, 1, false)
	spec.Header.LevelCount = 0
	c, err := Parse(mustEncode(t, spec))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Levels) != 1 {
		t.Fatalf("levels: got %d want 1", len(c.Levels))
	}
}

func TestParseWarnsOnHugeOffsets(t *testing.T) {
	t.Parallel()

	data := mustEncode(t, etc1sSpec(4, 4, 1, false))
	// uncompressedByteLength is not range checked for BasisLZ.
	off := HeaderSize + 16
	putU32(data, off, 0xFFFFFFFF)
	putU32(data, off+4, 0xFFFFFFFF)
	c, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Warnings) != 1 {
		t.Fatalf("warnings: got %v want one", c.Warnings)
	}
}

func TestCursorU64PrecisionWarning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v    uint64
		warn bool
	}{
		{v: 0},
		{v: maxSafeInteger},
		{v: maxSafeInteger + 1, warn: true},
		{v: 1 << 62, warn: true},
	}
	for _, tt := range tests {
		buf := make([]byte, 8)
		putU64(buf, 0, tt.v)
		c, err := newCursor(buf, 0, 8)
		if err != nil {
			t.Fatalf("newCursor: %v", err)
		}
		got, err := c.readU64()
		if err != nil {
			t.Fatalf("readU64(%d): %v", tt.v, err)
		}
		if got != tt.v {
			t.Fatalf("readU64: got %d want %d", got, tt.v)
		}
		if (len(c.warnings) > 0) != tt.warn {
			t.Fatalf("value %d: warnings %v, want warning=%v", tt.v, c.warnings, tt.warn)
		}
	}
}

func TestLevelExtent(t *testing.T) {
	t.Parallel()

	for _, base := range []uint32{1, 3, 4, 7, 256, 1000, 1 << 31} {
		for i := range 40 {
			got := LevelExtent(base, i)
			want := uint32(1)
			if i < 32 && base>>uint(i) > 1 {
				want = base >> uint(i)
			}
			if got != want {
				t.Fatalf("LevelExtent(%d, %d): got %d want %d", base, i, got, want)
			}
		}
	}
}

func TestLevelDimensions(t *testing.T) {
	t.Parallel()

	c, err := Parse(mustEncode(t, uastcSpec(20, 6, 5, SupercompressionNone, ChannelUASTCRGB)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	wantW := []int{20, 10, 5, 2, 1}
	wantH := []int{6, 3, 1, 1, 1}
	for i := range c.Levels {
		if c.LevelWidth(i) != wantW[i] || c.LevelHeight(i) != wantH[i] {
			t.Fatalf("level %d: got %dx%d want %dx%d", i, c.LevelWidth(i), c.LevelHeight(i), wantW[i], wantH[i])
		}
	}
}

func TestKeyValueRoundTrip(t *testing.T) {
	t.Parallel()

	kvs := []KeyValue{
		{Key: KeyOrientation, Value: []byte("rd\x00")},
		{Key: "a", Value: nil},
		{Key: "custom", Value: []byte{1, 2, 3, 4, 5}},
	}
	data := encodeKeyValues(kvs)
	got, err := decodeKeyValues(data, 0, uint32(len(data)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(kvs) {
		t.Fatalf("entries: got %d want %d", len(got), len(kvs))
	}
	for i := range kvs {
		if got[i].Key != kvs[i].Key || !bytes.Equal(got[i].Value, kvs[i].Value) {
			t.Fatalf("entry %d: got %q=%q want %q=%q", i, got[i].Key, got[i].Value, kvs[i].Key, kvs[i].Value)
		}
	}

	// An entry without a NUL-terminated key is malformed.
	bad := []byte{3, 0, 0, 0, 'a', 'b', 'c', 0}
	if _, err := decodeKeyValues(bad, 0, uint32(len(bad))); !errors.Is(err, ErrStructuralOverrun) {
		t.Fatalf("bad entry: got %v want ErrStructuralOverrun", err)
	}
}

func TestParseKeyValues(t *testing.T) {
	t.Parallel()

	c, err := Parse(mustEncode(t, uastcSpec(4, 4, 1, SupercompressionNone, ChannelUASTCRGB)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := c.Orientation(); got != "rd" {
		t.Fatalf("orientation: got %q want rd", got)
	}
	if _, ok := c.Value("missing"); ok {
		t.Fatalf("unexpected value for missing key")
	}
}

func TestInflateLevel(t *testing.T) {
	t.Parallel()

	for _, scheme := range []SupercompressionScheme{SupercompressionNone, SupercompressionZstd, SupercompressionZLIB} {
		t.Run(scheme.String(), func(t *testing.T) {
			t.Parallel()
			spec := uastcSpec(16, 16, 3, scheme, ChannelUASTCRGB)
			c, err := Parse(mustEncode(t, spec))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			for i := range c.Levels {
				got, err := InflateLevel(c, i)
				if err != nil {
					t.Fatalf("level %d: %v", i, err)
				}
				if !bytes.Equal(got, spec.Levels[i]) {
					t.Fatalf("level %d: inflated bytes differ", i)
				}
			}
		})
	}
}

func TestInflateLevelSizeMismatch(t *testing.T) {
	t.Parallel()

	for _, scheme := range []SupercompressionScheme{SupercompressionZstd, SupercompressionZLIB} {
		t.Run(scheme.String(), func(t *testing.T) {
			t.Parallel()
			data := mustEncode(t, uastcSpec(8, 8, 1, scheme, ChannelUASTCRGB))
			putU32(data, HeaderSize+16, 3)
			c, err := Parse(data)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if _, err := InflateLevel(c, 0); !errors.Is(err, ErrStructuralOverrun) {
				t.Fatalf("got err %v want ErrStructuralOverrun", err)
			}
		})
	}
}

func TestInflateLevelRejectsHugeDeclaredLength(t *testing.T) {
	t.Parallel()

	for _, scheme := range []SupercompressionScheme{SupercompressionZstd, SupercompressionZLIB} {
		for _, declared := range []uint64{MaxLevelSize + 1, 1 << 40, 1 << 50, ^uint64(0)} {
			t.Run(fmt.Sprintf("%s/%d", scheme, declared), func(t *testing.T) {
				t.Parallel()
				data := mustEncode(t, uastcSpec(8, 8, 1, scheme, ChannelUASTCRGB))
				putU64(data, HeaderSize+16, declared)
				c, err := Parse(data)
				if err != nil {
					t.Fatalf("parse: %v", err)
				}
				if _, err := InflateLevel(c, 0); !errors.Is(err, ErrStructuralOverrun) {
					t.Fatalf("got err %v want ErrStructuralOverrun", err)
				}
			})
		}
	}
}

func TestInflateLevelCorruptPayload(t *testing.T) {
	t.Parallel()

	for _, scheme := range []SupercompressionScheme{SupercompressionZstd, SupercompressionZLIB} {
		t.Run(scheme.String(), func(t *testing.T) {
			t.Parallel()
			data := mustEncode(t, uastcSpec(8, 8, 1, scheme, ChannelUASTCRGB))
			c, err := Parse(data)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			// Breaks the zstd frame magic or the zlib header checksum.
			data[c.Levels[0].ByteOffset] ^= 0xFF
			if _, err := InflateLevel(c, 0); !errors.Is(err, ErrStructuralOverrun) {
				t.Fatalf("got err %v want ErrStructuralOverrun", err)
			}
		})
	}
}

func TestPreallocSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		compressed int
		want       uint64
		expect     int
	}{
		{compressed: 100, want: 256, expect: 256},
		{compressed: 100, want: 1 << 30, expect: 800 + 64<<10},
		{compressed: 0, want: MaxLevelSize, expect: 64 << 10},
	}
	for _, tt := range tests {
		if got := preallocSize(tt.compressed, tt.want); got != tt.expect {
			t.Fatalf("preallocSize(%d, %d): got %d want %d", tt.compressed, tt.want, got, tt.expect)
		}
	}
}

func TestOpenAndOpenReaderAt(t *testing.T) {
	t.Parallel()

	spec := etc1sSpec(8, 4, 2, true)
	path := filepath.Join(t.TempDir(), "tex.ktx2")
	if err := os.WriteFile(path, mustEncode(t, spec), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(c.LevelData(1), spec.Levels[1]) {
		t.Fatalf("level 1 data mismatch")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.LevelData(0) != nil {
		t.Fatalf("level data after close")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	rc, err := OpenReaderAt(f, st.Size())
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	if rc.mmapped {
		t.Fatalf("OpenReaderAt should not mmap")
	}
	if rc.Header.PixelWidth != 8 || rc.Header.PixelHeight != 4 {
		t.Fatalf("dimensions: got %dx%d", rc.Header.PixelWidth, rc.Header.PixelHeight)
	}
}
