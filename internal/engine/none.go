package engine

import (
	"context"
	"errors"

	"github.com/samcharles93/ktxload/internal/transcode"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

var errNoEngine = errors.New("no transcoding engine configured")

// noEngine supports nothing, so decodes stop at the format support check.
// Parsing and negotiation still work without an engine.
type noEngine struct{}

func (noEngine) Supports(transcode.TargetFormat, ktx2.SourceModel) bool { return false }

func (noEngine) DecodeCodebook(context.Context, transcode.CodebookSource) (transcode.Codebook, error) {
	return nil, errNoEngine
}

func (noEngine) Transcode(context.Context, *transcode.Request) ([]byte, error) {
	return nil, errNoEngine
}
