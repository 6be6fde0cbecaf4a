// Package engine selects and starts the transcoding service used to turn
// Basis payloads into GPU formats.
package engine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/samcharles93/ktxload/internal/logger"
	"github.com/samcharles93/ktxload/internal/transcode"
)

const (
	None    = "none"
	Process = "process"
)

// Config selects an engine. Path and Args are used by the process engine.
type Config struct {
	Name   string
	Path   string
	Args   []string
	Env    []string
	Logger logger.Logger
}

func Normalize(name string) (string, error) {
	engine := strings.ToLower(strings.TrimSpace(name))
	if engine == "" {
		return None, nil
	}
	switch engine {
	case None, Process:
		return engine, nil
	default:
		return "", fmt.Errorf("unknown engine %q (expected none or process)", engine)
	}
}

// Available returns a comma-separated list of engines.
func Available() string {
	return strings.Join([]string{None, Process}, ",")
}

// New starts the engine named by cfg. The returned closer stops it.
func New(ctx context.Context, cfg Config) (transcode.Service, io.Closer, error) {
	name, err := Normalize(cfg.Name)
	if err != nil {
		return nil, nil, err
	}
	switch name {
	case Process:
		p, err := StartProcess(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return noEngine{}, io.NopCloser(nil), nil
	}
}
