package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samcharles93/ktxload/internal/logger"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

// Decoder turns a parsed container into an upload-ready mip chain.
type Decoder struct {
	Service      Service
	Capabilities Capabilities
	// Workers bounds how many levels are transcoded at once. Values below 2
	// decode levels sequentially.
	Workers int
	// Logger defaults to the logger carried by the context.
	Logger logger.Logger
}

// decodeState is shared read-only by every level of one decode.
type decodeState struct {
	c        *ktx2.Container
	model    ktx2.SourceModel
	target   TargetFormat
	codebook Codebook
}

// Decode negotiates a target format and transcodes every level of c. It
// returns either a complete texture or an error; partial chains are never
// returned.
func (d *Decoder) Decode(ctx context.Context, c *ktx2.Container) (*Texture, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if c == nil {
		return nil, fmt.Errorf("container is required")
	}
	if d.Service == nil {
		return nil, fmt.Errorf("transcode service is required")
	}
	log := d.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}
	for _, w := range c.Warnings {
		log.Warn("container warning", "warning", w)
	}

	model := c.Model()
	target, err := Negotiate(d.Capabilities, c.HasAlpha())
	if err != nil {
		return nil, err
	}
	if !d.Service.Supports(target, model) {
		return nil, fmt.Errorf("%w: %s from %s source", ErrUnimplementedFormatCombination, target, model)
	}
	log.Debug("negotiated target format",
		"target", target.String(), "model", model.String(), "capabilities", d.Capabilities.String())

	st := &decodeState{c: c, model: model, target: target}
	if model == ktx2.ModelPalette {
		if c.Global == nil {
			return nil, fmt.Errorf("%w: palette source has no global data", ktx2.ErrStructuralOverrun)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cb, err := safeDecodeCodebook(ctx, d.Service, codebookSource(c.Global))
		if err != nil {
			return nil, fmt.Errorf("%w: decode codebook: %w", ErrTranscodeFailed, err)
		}
		if cb != nil {
			defer cb.Release()
		}
		st.codebook = cb
	}

	asm := newAssembler(len(c.Levels))
	if d.Workers > 1 && len(c.Levels) > 1 {
		err = d.decodeParallel(ctx, st, asm, log)
	} else {
		err = d.decodeSequential(ctx, st, asm, log)
	}
	if err != nil {
		return nil, err
	}
	return asm.texture(target, &c.DFD)
}

func (d *Decoder) decodeSequential(ctx context.Context, st *decodeState, asm *assembler, log logger.Logger) error {
	for i := range st.c.Levels {
		if err := ctx.Err(); err != nil {
			return err
		}
		lvl, err := d.transcodeLevel(ctx, st, i, log)
		if err != nil {
			return err
		}
		if err := asm.add(i, lvl); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeParallel(ctx context.Context, st *decodeState, asm *assembler, log logger.Logger) error {
	n := len(st.c.Levels)
	errs := make([]error, n)
	jobs := make(chan int)
	var failed atomic.Bool
	var wg sync.WaitGroup

	for range min(d.Workers, n) {
		wg.Go(func() {
			for i := range jobs {
				lvl, err := d.transcodeLevel(ctx, st, i, log)
				if err == nil {
					err = asm.add(i, lvl)
				}
				if err != nil {
					errs[i] = err
					failed.Store(true)
				}
			}
		})
	}

	var ctxErr error
	for i := range n {
		if ctxErr = ctx.Err(); ctxErr != nil || failed.Load() {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Report the lowest failing level so the result does not depend on
	// scheduling.
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return ctxErr
}

func (d *Decoder) transcodeLevel(ctx context.Context, st *decodeState, i int, log logger.Logger) (MipLevel, error) {
	c := st.c
	width, height := c.LevelWidth(i), c.LevelHeight(i)
	bw, bh := max(1, c.DFD.BlockWidth()), max(1, c.DFD.BlockHeight())
	req := &Request{
		Level:    i,
		Model:    st.model,
		Target:   st.target,
		Width:    width,
		Height:   height,
		BlocksX:  (width + bw - 1) / bw,
		BlocksY:  (height + bh - 1) / bh,
		Codebook: st.codebook,
	}
	req.OutputSize = st.target.LevelSize(req.BlocksX, req.BlocksY)

	switch st.model {
	case ktx2.ModelPalette:
		if i >= len(c.Global.ImageDescs) {
			return MipLevel{}, fmt.Errorf("%w: level %d has no image descriptor", ktx2.ErrStructuralOverrun, i)
		}
		desc := c.Global.ImageDescs[i]
		level := c.LevelData(i)
		primary, err := subslice(level, desc.RGBSliceByteOffset, desc.RGBSliceByteLength)
		if err != nil {
			return MipLevel{}, fmt.Errorf("level %d rgb slice: %w", i, err)
		}
		req.Primary = primary
		if desc.HasAlpha() {
			if req.Alpha, err = subslice(level, desc.AlphaSliceByteOffset, desc.AlphaSliceByteLength); err != nil {
				return MipLevel{}, fmt.Errorf("level %d alpha slice: %w", i, err)
			}
		}
		req.ImageFlags = desc.ImageFlags
	default:
		data, err := ktx2.InflateLevel(c, i)
		if err != nil {
			return MipLevel{}, fmt.Errorf("level %d: %w", i, err)
		}
		req.Primary = data
	}

	out, err := safeTranscode(ctx, d.Service, req)
	if err != nil {
		return MipLevel{}, &LevelError{Level: i, Err: err}
	}
	if len(out) == 0 {
		return MipLevel{}, &LevelError{Level: i, Err: errors.New("service returned no data")}
	}
	log.Debug("transcoded level",
		"level", i, "width", width, "height", height, "bytes", len(out))
	return MipLevel{Data: bytes.Clone(out), Width: width, Height: height}, nil
}

func subslice(level []byte, off, length uint32) ([]byte, error) {
	end := uint64(off) + uint64(length)
	if end > uint64(len(level)) {
		return nil, fmt.Errorf("%w: [%d, +%d) exceeds level of %d bytes",
			ktx2.ErrStructuralOverrun, off, length, len(level))
	}
	return level[off:end], nil
}

func safeDecodeCodebook(ctx context.Context, svc Service, src CodebookSource) (cb Codebook, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in DecodeCodebook: %v", rec)
		}
	}()
	return svc.DecodeCodebook(ctx, src)
}

func safeTranscode(ctx context.Context, svc Service, req *Request) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Transcode: %v", rec)
		}
	}()
	return svc.Transcode(ctx, req)
}
