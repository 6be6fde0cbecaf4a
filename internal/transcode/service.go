package transcode

import (
	"context"

	"github.com/samcharles93/ktxload/pkg/ktx2"
)

// Service is the external transcoder. Implementations must be safe for
// concurrent Transcode calls when a Decoder runs with more than one worker.
type Service interface {
	// Supports reports whether target can be produced from model.
	Supports(target TargetFormat, model ktx2.SourceModel) bool
	// DecodeCodebook loads the shared palettes and tables of a palette
	// model container. It is called once per decode, before any level.
	DecodeCodebook(ctx context.Context, src CodebookSource) (Codebook, error)
	// Transcode converts one image. The returned buffer may be reused by
	// the service after the next call.
	Transcode(ctx context.Context, req *Request) ([]byte, error)
}

// Codebook is decoded palette state owned by the service. It is read-only
// once decoded and shared by every level of one decode.
type Codebook interface {
	Release()
}

// CodebookSource holds the global data sections of a palette model
// container. Slices are views into the container buffer.
type CodebookSource struct {
	EndpointCount int
	SelectorCount int
	Endpoints     []byte
	Selectors     []byte
	Tables        []byte
	Extended      []byte
}

func codebookSource(g *ktx2.GlobalData) CodebookSource {
	return CodebookSource{
		EndpointCount: int(g.EndpointCount),
		SelectorCount: int(g.SelectorCount),
		Endpoints:     g.Endpoints,
		Selectors:     g.Selectors,
		Tables:        g.Tables,
		Extended:      g.Extended,
	}
}

// Request describes one image to transcode.
type Request struct {
	Level  int
	Model  ktx2.SourceModel
	Target TargetFormat

	Width   int
	Height  int
	BlocksX int
	BlocksY int

	// ImageFlags comes from the level's image descriptor (palette model).
	ImageFlags uint32
	// Primary is the RGB slice for the palette model or the whole inflated
	// level for the non-palette model.
	Primary []byte
	// Alpha is the alpha slice; nil when the image has none.
	Alpha []byte

	// Codebook is nil for the non-palette model.
	Codebook Codebook
	IsVideo  bool

	// OutputSize is the expected size of the transcoded level.
	OutputSize int
}
