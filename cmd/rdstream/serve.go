package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/rdstream/internal/cliconfig"
	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/server"
	"github.com/bft-labs/rdstream/internal/stopfile"
	"github.com/bft-labs/rdstream/pkg/log"
	"github.com/bft-labs/rdstream/pkg/rdstream"
)

// newServeCmd streams a generated test pattern, standing in for a capture
// host during development.
func newServeCmd() *cobra.Command {
	cfg := server.Config{
		Addr:             fmt.Sprintf(":%d", rdstream.DefaultPort),
		Dimensions:       domain.Dimensions{Width: 1280, Height: 720},
		FrameRate:        10,
		FramesPerPayload: 1,
		Level:            server.DefaultLevel,
		MaxPayload:       server.DefaultMaxPayload,
	}
	var (
		stopFile string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a synthetic frame stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewZerologAdapterWithLogger(cliconfig.Logger(logLevel))

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			if stopFile != "" {
				w := stopfile.New(stopFile, logger)
				g.Go(func() error { return w.Run(gctx, cancel) })
			}
			g.Go(func() error {
				defer cancel()
				return srv.Start(gctx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "listen", cfg.Addr, "listen address")
	cmd.Flags().Uint32Var(&cfg.Dimensions.Width, "width", cfg.Dimensions.Width, "frame width in pixels")
	cmd.Flags().Uint32Var(&cfg.Dimensions.Height, "height", cfg.Dimensions.Height, "frame height in pixels")
	cmd.Flags().Float64Var(&cfg.FrameRate, "fps", cfg.FrameRate, "payloads per second (0 = unpaced)")
	cmd.Flags().IntVar(&cfg.FramesPerPayload, "frames-per-payload", cfg.FramesPerPayload, "raw frames packed into each payload")
	cmd.Flags().IntVar(&cfg.Frames, "frames", cfg.Frames, "payloads per connection (0 = unlimited)")
	cmd.Flags().IntVar(&cfg.Level, "level", cfg.Level, "gzip compression level (0 stores payloads uncompressed)")
	cmd.Flags().IntVar(&cfg.MaxPayload, "max-payload", cfg.MaxPayload, "skip compressed payloads larger than this")
	cmd.Flags().StringVar(&stopFile, "stop-file", "", "stop when this file appears (optional)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	return cmd
}
