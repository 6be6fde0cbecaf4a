package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxload/internal/engine"
	"github.com/samcharles93/ktxload/internal/logger"
	"github.com/samcharles93/ktxload/internal/transcode"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

const manifestName = "texture.json"

func transcodeCmd() *cli.Command {
	var outDir string

	return &cli.Command{
		Name:      "transcode",
		Usage:     "Transcode a container into GPU-ready mip levels",
		ArgsUsage: "<file.ktx2>",
		Flags: append(engineFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory (default: <file>_levels next to the input)",
				Destination: &outDir,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyEngineConfig(cmd, LoadConfig())

			caps, err := transcode.ParseCapabilities(capabilities)
			if err != nil {
				return err
			}
			path, err := containerArg(cmd)
			if err != nil {
				return err
			}
			c, err := ktx2.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer func() { _ = c.Close() }()

			svc, closer, err := engine.New(ctx, engine.Config{
				Name:   engineName,
				Path:   enginePath,
				Args:   engineArgs,
				Logger: log,
			})
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			dec := &transcode.Decoder{
				Service:      svc,
				Capabilities: caps,
				Workers:      int(workers),
				Logger:       log,
			}
			tex, err := dec.Decode(ctx, c)
			if err != nil {
				return err
			}

			dir := resolveOutDir(path, outDir)
			if err := writeTexture(dir, tex); err != nil {
				return err
			}
			log.Info("texture written",
				"dir", dir,
				"format", tex.Format.String(),
				"levels", len(tex.Levels),
				"bytes", tex.ByteSize(),
			)
			return nil
		},
	}
}

func resolveOutDir(input, outFlag string) string {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		return filepath.Clean(outFlag)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+"_levels")
}

type textureManifest struct {
	Format             string          `json:"format"`
	TargetCode         uint8           `json:"target_code"`
	GLInternalFormat   uint32          `json:"gl_internal_format"`
	Width              int             `json:"width"`
	Height             int             `json:"height"`
	MinFilter          string          `json:"min_filter"`
	MagFilter          string          `json:"mag_filter"`
	Encoding           string          `json:"encoding"`
	PremultipliedAlpha bool            `json:"premultiplied_alpha"`
	Levels             []manifestLevel `json:"levels"`
}

type manifestLevel struct {
	File     string `json:"file"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	ByteSize int    `json:"byte_size"`
}

func levelFileName(i int) string {
	return fmt.Sprintf("level_%d.bin", i)
}

// writeTexture writes one file per level plus a manifest describing the
// upload parameters.
func writeTexture(dir string, tex *transcode.Texture) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	m := textureManifest{
		Format:             tex.Format.String(),
		TargetCode:         uint8(tex.Format),
		GLInternalFormat:   tex.Format.GLInternalFormat(),
		Width:              tex.Width,
		Height:             tex.Height,
		MinFilter:          tex.MinFilter.String(),
		MagFilter:          tex.MagFilter.String(),
		Encoding:           tex.Encoding.String(),
		PremultipliedAlpha: tex.PremultipliedAlpha,
	}
	for i, l := range tex.Levels {
		name := levelFileName(i)
		if err := os.WriteFile(filepath.Join(dir, name), l.Data, 0o644); err != nil {
			return fmt.Errorf("write level %d: %w", i, err)
		}
		m.Levels = append(m.Levels, manifestLevel{
			File:     name,
			Width:    l.Width,
			Height:   l.Height,
			ByteSize: len(l.Data),
		})
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestName), append(data, '\n'), 0o644)
}
