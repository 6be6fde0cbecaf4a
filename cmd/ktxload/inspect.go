package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxload/internal/api"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

func inspectCmd() *cli.Command {
	var (
		asJSON     bool
		showLevels bool
		showKV     bool
		showDFD    bool
		showGlobal bool
		showAll    bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect the contents of a .ktx2 container",
		ArgsUsage: "<file.ktx2>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the description as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "all", Usage: "show every section", Destination: &showAll},
			&cli.BoolFlag{Name: "levels", Usage: "list the level index", Destination: &showLevels},
			&cli.BoolFlag{Name: "kv", Usage: "list key/value entries", Destination: &showKV},
			&cli.BoolFlag{Name: "dfd", Usage: "show data format descriptor samples", Destination: &showDFD},
			&cli.BoolFlag{Name: "global", Usage: "show supercompression global data", Destination: &showGlobal},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := containerArg(cmd)
			if err != nil {
				return err
			}
			c, err := ktx2.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer func() { _ = c.Close() }()

			info := api.Describe(c)
			if asJSON {
				return writeJSON(os.Stdout, info)
			}
			if showAll {
				showLevels, showKV, showDFD, showGlobal = true, true, true, true
			}
			printContainer(os.Stdout, filepath.Base(path), info, inspectSections{
				levels: showLevels,
				kv:     showKV,
				dfd:    showDFD,
				global: showGlobal,
			})
			return nil
		},
	}
}

func containerArg(cmd *cli.Command) (string, error) {
	path := strings.TrimSpace(cmd.Args().First())
	if path == "" {
		return "", fmt.Errorf("%s: a container path is required", cmd.Name)
	}
	return filepath.Clean(path), nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

type inspectSections struct {
	levels bool
	kv     bool
	dfd    bool
	global bool
}

func printContainer(w io.Writer, name string, info api.ContainerInfo, show inspectSections) {
	_, _ = fmt.Fprintf(w, "KTX2 Inspect: %s (%s)\n", name, formatBytes(uint64(info.ByteSize)))

	section(w, "Header")
	row(w, "dimensions", fmt.Sprintf("%dx%d", info.Width, info.Height))
	row(w, "vk_format", fmt.Sprintf("%d", info.VkFormat))
	row(w, "level_count", fmt.Sprintf("%d", info.LevelCount))
	row(w, "supercompression", info.Supercompression)
	row(w, "model", info.Model)
	row(w, "color_model", info.DFD.ColorModel)
	row(w, "transfer", info.DFD.TransferFunction)
	row(w, "has_alpha", fmt.Sprintf("%t", info.HasAlpha))
	if info.DFD.PremultipliedAlpha {
		row(w, "premultiplied", "true")
	}
	for _, warn := range info.Warnings {
		row(w, "warning", warn)
	}

	if show.levels {
		section(w, "Levels")
		for _, l := range info.Levels {
			_, _ = fmt.Fprintf(w, "%3d  %5dx%-5d offset=%-10d length=%-10d uncompressed=%d\n",
				l.Level, l.Width, l.Height, l.ByteOffset, l.ByteLength, l.UncompressedByteLength)
		}
	}

	if show.dfd {
		section(w, "Data Format Descriptor")
		row(w, "block", fmt.Sprintf("%dx%d", info.DFD.BlockWidth, info.DFD.BlockHeight))
		row(w, "bytes_plane0", fmt.Sprintf("%d", info.DFD.BytesPlane0))
		for i, s := range info.DFD.Samples {
			_, _ = fmt.Fprintf(w, "sample %d  channel=%d qualifiers=%#x bits=%d+%d\n",
				i, s.Channel, s.Qualifiers, s.BitOffset, int(s.BitLength)+1)
		}
	}

	if show.global && info.Global != nil {
		g := info.Global
		section(w, "Global Data")
		row(w, "layout", g.Layout)
		row(w, "endpoints", fmt.Sprintf("%d (%s)", g.EndpointCount, formatBytes(uint64(g.EndpointsLength))))
		row(w, "selectors", fmt.Sprintf("%d (%s)", g.SelectorCount, formatBytes(uint64(g.SelectorsLength))))
		row(w, "tables", formatBytes(uint64(g.TablesLength)))
		if g.ExtendedLength > 0 {
			row(w, "extended", formatBytes(uint64(g.ExtendedLength)))
		}
		for i, d := range g.Images {
			_, _ = fmt.Fprintf(w, "image %d  flags=%#x rgb=%d+%d alpha=%d+%d\n",
				i, d.Flags, d.RGBOffset, d.RGBLength, d.AlphaOffset, d.AlphaLength)
		}
	}

	if show.kv && len(info.KeyValues) > 0 {
		section(w, "Key/Value Data")
		for _, kv := range info.KeyValues {
			row(w, kv.Key, kv.Value)
		}
	}
}

func section(w io.Writer, title string) {
	line := strings.Repeat("-", len(title)+8)
	_, _ = fmt.Fprintf(w, "\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	_, _ = fmt.Fprintf(w, "%-24s %s\n", label+":", value)
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
