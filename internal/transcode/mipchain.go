package transcode

import (
	"fmt"
	"sync"

	"github.com/samcharles93/ktxload/pkg/ktx2"
)

// Filter is a texture sampling filter hint.
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterLinearMipmapLinear
)

func (f Filter) String() string {
	switch f {
	case FilterLinear:
		return "linear"
	case FilterLinearMipmapLinear:
		return "linear_mipmap_linear"
	default:
		return fmt.Sprintf("filter(%d)", uint8(f))
	}
}

// Encoding is the colour encoding hint for the uploaded texture.
type Encoding uint8

const (
	EncodingLinear Encoding = iota
	EncodingSRGB
)

func (e Encoding) String() string {
	switch e {
	case EncodingLinear:
		return "linear"
	case EncodingSRGB:
		return "srgb"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// MipLevel is one transcoded level. Data is owned by the texture.
type MipLevel struct {
	Data   []byte
	Width  int
	Height int
}

// Texture is an upload-ready mip chain.
type Texture struct {
	Format             TargetFormat
	Width              int
	Height             int
	Levels             []MipLevel
	MinFilter          Filter
	MagFilter          Filter
	Encoding           Encoding
	PremultipliedAlpha bool
}

// ByteSize totals the level buffers.
func (t *Texture) ByteSize() int {
	n := 0
	for _, l := range t.Levels {
		n += len(l.Data)
	}
	return n
}

// assembler collects transcoded levels, possibly out of order and from
// several workers, into an ordered chain.
type assembler struct {
	mu     sync.Mutex
	levels []MipLevel
	filled []bool
}

func newAssembler(n int) *assembler {
	return &assembler{
		levels: make([]MipLevel, n),
		filled: make([]bool, n),
	}
}

func (a *assembler) add(i int, l MipLevel) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.levels) {
		return fmt.Errorf("mip chain: level %d out of range [0, %d)", i, len(a.levels))
	}
	if a.filled[i] {
		return fmt.Errorf("mip chain: level %d added twice", i)
	}
	a.levels[i] = l
	a.filled[i] = true
	return nil
}

// texture builds the final chain. Every level must have been added.
func (a *assembler) texture(format TargetFormat, dfd *ktx2.FormatDescriptor) (*Texture, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, ok := range a.filled {
		if !ok {
			return nil, fmt.Errorf("mip chain: level %d missing", i)
		}
	}
	if len(a.levels) == 0 {
		return nil, fmt.Errorf("mip chain: no levels")
	}

	t := &Texture{
		Format:             format,
		Width:              a.levels[0].Width,
		Height:             a.levels[0].Height,
		Levels:             a.levels,
		MinFilter:          FilterLinear,
		MagFilter:          FilterLinear,
		Encoding:           EncodingLinear,
		PremultipliedAlpha: dfd.PremultipliedAlpha(),
	}
	if len(a.levels) > 1 {
		t.MinFilter = FilterLinearMipmapLinear
	}
	if dfd.IsSRGB() {
		t.Encoding = EncodingSRGB
	}
	return t, nil
}
