package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxload/internal/transcode"
	"github.com/samcharles93/ktxload/pkg/ktx2"
)

func negotiateCmd() *cli.Command {
	return &cli.Command{
		Name:      "negotiate",
		Usage:     "Print the GPU format a container would be transcoded to",
		ArgsUsage: "<file.ktx2>",
		Flags:     []cli.Flag{capabilityFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyCapabilityConfig(cmd, LoadConfig())
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

			target, err := transcode.Negotiate(caps, c.HasAlpha())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s (code=%d gl=%#x alpha=%t caps=%s)\n",
				target, uint8(target), target.GLInternalFormat(), c.HasAlpha(), caps)
			return nil
		},
	}
}
