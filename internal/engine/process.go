package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/samcharles93/ktxload/internal/logger"
	"github.com/samcharles93/ktxload/internal/transcode"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

var errProcessClosed = errors.New("transcoder process closed")

// ProcessEngine drives an external transcoder binary over stdin and stdout.
// The child is started once and serves every call; calls are serialised.
type ProcessEngine struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	enc    *cbor.Encoder
	dec    *cbor.Decoder
	nextID uint64
	closed bool
	log    logger.Logger

	supportMu sync.Mutex
	supported map[supportKey]bool
}

type supportKey struct {
	target transcode.TargetFormat
	model  ktx2.SourceModel
}

// StartProcess launches cfg.Path with cfg.Args.
func StartProcess(ctx context.Context, cfg Config) (*ProcessEngine, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("process engine requires an engine path")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}

	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Env = append(os.Environ(), cfg.Env...)
	cmd.Stderr = &stderrLogger{log: log}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", cfg.Path, err)
	}
	log.Debug("transcoder process started", "path", cfg.Path, "pid", cmd.Process.Pid)

	return &ProcessEngine{
		cmd:       cmd,
		stdin:     stdin,
		enc:       encMode.NewEncoder(stdin),
		dec:       decMode.NewDecoder(stdout),
		log:       log,
		supported: make(map[supportKey]bool),
	}, nil
}

func (p *ProcessEngine) call(req *request) (*response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errProcessClosed
	}
	p.nextID++
	req.ID = p.nextID
	if err := p.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("engine %s request: %w", req.Op, err)
	}
	var resp response
	if err := p.dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("engine %s response: %w", req.Op, err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("engine %s response: id %d, want %d", req.Op, resp.ID, req.ID)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("engine %s: %s", req.Op, resp.Error)
	}
	return &resp, nil
}

// Supports asks the process once per combination and caches the answer.
// A failed query counts as unsupported.
func (p *ProcessEngine) Supports(target transcode.TargetFormat, model ktx2.SourceModel) bool {
	key := supportKey{target, model}
	p.supportMu.Lock()
	ok, cached := p.supported[key]
	p.supportMu.Unlock()
	if cached {
		return ok
	}

	resp, err := p.call(&request{Op: opSupports, Target: uint8(target), Model: uint8(model)})
	if err != nil {
		p.log.Warn("engine support query failed", "target", target.String(), "model", model.String(), "error", err)
		return false
	}
	p.supportMu.Lock()
	p.supported[key] = resp.OK
	p.supportMu.Unlock()
	return resp.OK
}

func (p *ProcessEngine) DecodeCodebook(ctx context.Context, src transcode.CodebookSource) (transcode.Codebook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := p.call(&request{
		Op:            opCodebook,
		EndpointCount: src.EndpointCount,
		SelectorCount: src.SelectorCount,
		Endpoints:     src.Endpoints,
		Selectors:     src.Selectors,
		Tables:        src.Tables,
		Extended:      src.Extended,
	})
	if err != nil {
		return nil, err
	}
	if resp.Handle == 0 {
		return nil, fmt.Errorf("engine codebook: no handle returned")
	}
	return &processCodebook{p: p, handle: resp.Handle}, nil
}

func (p *ProcessEngine) Transcode(ctx context.Context, req *transcode.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var handle uint64
	if req.Codebook != nil {
		cb, ok := req.Codebook.(*processCodebook)
		if !ok || cb.p != p {
			return nil, fmt.Errorf("engine transcode: codebook was not decoded by this engine")
		}
		handle = cb.handle
	}
	resp, err := p.call(transcodeRequest(req, handle))
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Close stops the process. Pending calls fail with errProcessClosed.
func (p *ProcessEngine) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	_ = p.stdin.Close()
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill engine: %w", err)
	}
	// Wait reports the kill signal as an error; only the reap matters here.
	_ = p.cmd.Wait()
	return nil
}

type processCodebook struct {
	p      *ProcessEngine
	handle uint64
	once   sync.Once
}

func (c *processCodebook) Release() {
	c.once.Do(func() {
		if _, err := c.p.call(&request{Op: opRelease, Handle: c.handle}); err != nil && !errors.Is(err, errProcessClosed) {
			c.p.log.Warn("engine codebook release failed", "handle", c.handle, "error", err)
		}
	})
}

// stderrLogger forwards the child's stderr to the logger line by line.
type stderrLogger struct {
	mu   sync.Mutex
	log  logger.Logger
	line []byte
}

func (w *stderrLogger) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.line = append(w.line, b...)
	for {
		i := bytes.IndexByte(w.line, '\n')
		if i < 0 {
			break
		}
		w.log.Debug("engine stderr", "line", string(w.line[:i]))
		w.line = w.line[i+1:]
	}
	return len(b), nil
}
