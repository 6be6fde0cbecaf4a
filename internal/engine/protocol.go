package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/samcharles93/ktxload/internal/transcode"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

// Operations understood by a transcoder process. Each request and response is
// one CBOR data item on the process's stdin and stdout.
const (
	opSupports  = "supports"
	opCodebook  = "codebook"
	opTranscode = "transcode"
	opRelease   = "release"
)

type request struct {
	ID uint64 `cbor:"id"`
	Op string `cbor:"op"`

	Target uint8  `cbor:"target,omitempty"`
	Model  uint8  `cbor:"model,omitempty"`
	Handle uint64 `cbor:"handle,omitempty"`

	EndpointCount int    `cbor:"endpoint_count,omitempty"`
	SelectorCount int    `cbor:"selector_count,omitempty"`
	Endpoints     []byte `cbor:"endpoints,omitempty"`
	Selectors     []byte `cbor:"selectors,omitempty"`
	Tables        []byte `cbor:"tables,omitempty"`
	Extended      []byte `cbor:"extended,omitempty"`

	Level      int    `cbor:"level,omitempty"`
	Width      int    `cbor:"width,omitempty"`
	Height     int    `cbor:"height,omitempty"`
	BlocksX    int    `cbor:"blocks_x,omitempty"`
	BlocksY    int    `cbor:"blocks_y,omitempty"`
	ImageFlags uint32 `cbor:"image_flags,omitempty"`
	Primary    []byte `cbor:"primary,omitempty"`
	Alpha      []byte `cbor:"alpha,omitempty"`
	IsVideo    bool   `cbor:"is_video,omitempty"`
	OutputSize int    `cbor:"output_size,omitempty"`
}

type response struct {
	ID     uint64 `cbor:"id"`
	OK     bool   `cbor:"ok,omitempty"`
	Handle uint64 `cbor:"handle,omitempty"`
	Data   []byte `cbor:"data,omitempty"`
	Error  string `cbor:"error,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("engine: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("engine: CBOR decoder initialization failed: " + err.Error())
	}
}

func transcodeRequest(req *transcode.Request, handle uint64) *request {
	return &request{
		Op:         opTranscode,
		Target:     uint8(req.Target),
		Model:      uint8(req.Model),
		Handle:     handle,
		Level:      req.Level,
		Width:      req.Width,
		Height:     req.Height,
		BlocksX:    req.BlocksX,
		BlocksY:    req.BlocksY,
		ImageFlags: req.ImageFlags,
		Primary:    req.Primary,
		Alpha:      req.Alpha,
		IsVideo:    req.IsVideo,
		OutputSize: req.OutputSize,
	}
}

// Serve answers transcoder requests read from r by calling svc, writing one
// response per request to w. It returns nil when r reaches EOF. Serve is the
// process side of the protocol; a Go transcoder binary only needs to
// implement transcode.Service and call it with os.Stdin and os.Stdout.
func Serve(ctx context.Context, r io.Reader, w io.Writer, svc transcode.Service) error {
	dec := decMode.NewDecoder(r)
	enc := encMode.NewEncoder(w)
	codebooks := make(map[uint64]transcode.Codebook)
	var nextHandle uint64
	defer func() {
		for _, cb := range codebooks {
			cb.Release()
		}
	}()

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode request: %w", err)
		}
		resp := response{ID: req.ID}

		switch req.Op {
		case opSupports:
			resp.OK = svc.Supports(transcode.TargetFormat(req.Target), ktx2.SourceModel(req.Model))
		case opCodebook:
			cb, err := svc.DecodeCodebook(ctx, transcode.CodebookSource{
				EndpointCount: req.EndpointCount,
				SelectorCount: req.SelectorCount,
				Endpoints:     req.Endpoints,
				Selectors:     req.Selectors,
				Tables:        req.Tables,
				Extended:      req.Extended,
			})
			if err != nil {
				resp.Error = err.Error()
				break
			}
			nextHandle++
			codebooks[nextHandle] = cb
			resp.Handle = nextHandle
			resp.OK = true
		case opTranscode:
			tr := &transcode.Request{
				Level:      req.Level,
				Model:      ktx2.SourceModel(req.Model),
				Target:     transcode.TargetFormat(req.Target),
				Width:      req.Width,
				Height:     req.Height,
				BlocksX:    req.BlocksX,
				BlocksY:    req.BlocksY,
				ImageFlags: req.ImageFlags,
				Primary:    req.Primary,
				Alpha:      req.Alpha,
				IsVideo:    req.IsVideo,
				OutputSize: req.OutputSize,
			}
			if req.Handle != 0 {
				cb, ok := codebooks[req.Handle]
				if !ok {
					resp.Error = fmt.Sprintf("unknown codebook handle %d", req.Handle)
					break
				}
				tr.Codebook = cb
			}
			data, err := svc.Transcode(ctx, tr)
			if err != nil {
				resp.Error = err.Error()
				break
			}
			resp.Data = data
			resp.OK = true
		case opRelease:
			if cb, ok := codebooks[req.Handle]; ok {
				cb.Release()
				delete(codebooks, req.Handle)
			}
			resp.OK = true
		default:
			resp.Error = fmt.Sprintf("unknown op %q", req.Op)
		}

		if err := enc.Encode(&resp); err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
	}
}
