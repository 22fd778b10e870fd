package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/bft-labs/rdstream/internal/adapters/http"
	"github.com/bft-labs/rdstream/internal/adapters/sink"
	"github.com/bft-labs/rdstream/internal/app"
	"github.com/bft-labs/rdstream/internal/cliconfig"
	"github.com/bft-labs/rdstream/internal/dispatch"
	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/ports"
	"github.com/bft-labs/rdstream/internal/stopfile"
	"github.com/bft-labs/rdstream/pkg/log"
	"github.com/bft-labs/rdstream/pkg/rdstream"
)

const helpDescription = `
Connect to a screen capture host and decode its frame stream.

The host announces its frame size once, then sends gzip-compressed raw RGB
frames. rdstream decodes them, logs the decode rate and can save periodic
PNG snapshots. Configure via file, env (RDSTREAM_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  rdstream --address 10.0.0.5
  rdstream --address capture.local:21578 --snapshot-dir ./snaps --metrics-addr :9100
  rdstream serve --listen :21578 --width 1280 --height 720 --fps 30
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "rdstream",
		Short:   "Decode a remote screen stream",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.rdstream/config.toml), then apply flag overrides
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides file config; flags override both
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			zl := cliconfig.Logger(cfg.LogLevel)
			zl.Info().Interface("config", cfg).Msg("configuration")

			return connect(cmd.Context(), cfg, log.NewZerologAdapterWithLogger(zl))
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.rdstream/config.toml)")
	root.Flags().StringVar(&cfg.Address, "address", cfg.Address, fmt.Sprintf("capture host as host[:port] (default port %d)", rdstream.DefaultPort))

	root.Flags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "connection timeout")
	root.Flags().IntVar(&cfg.ReadBufferSize, "read-buffer", cfg.ReadBufferSize, "bytes per socket read")
	root.Flags().IntVar(&cfg.MaxBufferedBytes, "max-buffered", cfg.MaxBufferedBytes, "bound on undecoded input in bytes (0 = unbounded)")
	root.Flags().IntVar(&cfg.EventQueueSize, "queue-size", cfg.EventQueueSize, "decoded events waiting for delivery")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "maximum time to wait for a clean stop")

	root.Flags().BoolVar(&cfg.Reconnect, "reconnect", cfg.Reconnect, "reconnect with backoff when the session ends")
	root.Flags().DurationVar(&cfg.ReconnectMin, "reconnect-min", cfg.ReconnectMin, "initial reconnect delay")
	root.Flags().DurationVar(&cfg.ReconnectMax, "reconnect-max", cfg.ReconnectMax, "maximum reconnect delay")

	root.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /metrics and /healthz on this address (optional)")
	root.Flags().StringVar(&cfg.StopFile, "stop-file", cfg.StopFile, "stop when this file appears (optional)")
	root.Flags().StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "write PNG snapshots into this directory (optional)")
	root.Flags().IntVar(&cfg.SnapshotEvery, "snapshot-every", cfg.SnapshotEvery, "snapshot every Nth payload")
	root.Flags().IntVar(&cfg.StatsEvery, "stats-every", cfg.StatsEvery, "log the decode rate every N payloads")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(newServeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		zl := cliconfig.Logger(cfg.LogLevel)
		zl.Error().Err(err).Msg("rdstream")
		stop()
		os.Exit(1)
	}
}

// connect runs the client, plus the optional metrics endpoint and stop file
// watcher, until the session ends or a signal arrives.
func connect(ctx context.Context, cfg cliconfig.Config, logger ports.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sinks := []ports.Consumer{sink.NewLogSink(logger, cfg.StatsEvery)}
	if cfg.SnapshotDir != "" {
		snap, err := sink.NewSnapshotSink(cfg.SnapshotDir, cfg.SnapshotEvery, logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, snap)
	}

	client, err := rdstream.New(cfg.ClientConfig(),
		rdstream.WithLogger(logger),
		rdstream.WithConsumer(dispatch.Multi(sinks...)),
		rdstream.WithMetrics(reg),
	)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		router := httpAdapter.NewRouter(reg, func() (string, domain.SessionStats, bool) {
			state := client.Status()
			return state.String(), client.Stats(), state == rdstream.StateRunning
		})
		srv := httpAdapter.NewServer(cfg.MetricsAddr, router, logger)
		g.Go(func() error { return srv.Run(gctx) })
	}

	if cfg.StopFile != "" {
		w := stopfile.New(cfg.StopFile, logger)
		g.Go(func() error { return w.Run(gctx, cancel) })
	}

	g.Go(func() error {
		// The other goroutines run until the client is done.
		defer cancel()
		return runClient(gctx, client, cfg, logger)
	})

	return g.Wait()
}

// runClient starts sessions until the stream ends, ctx ends or, without
// --reconnect, a session fails.
func runClient(ctx context.Context, client *rdstream.Client, cfg cliconfig.Config, logger ports.Logger) error {
	backoff := app.NewBackoff(cfg.ReconnectMin, cfg.ReconnectMax)

	for {
		err := client.Start(ctx)
		if err == nil {
			backoff.Reset()
			select {
			case <-client.Done():
				err = client.Wait()
			case <-ctx.Done():
				logger.Info("stopping")
				if stopErr := client.Stop(); stopErr != nil && !errors.Is(stopErr, rdstream.ErrNotRunning) {
					return fmt.Errorf("stop client: %w", stopErr)
				}
				return nil
			}
		}

		if ctx.Err() != nil {
			return nil
		}
		if !cfg.Reconnect {
			return err
		}

		if err != nil {
			logger.Warn("session failed, reconnecting", log.Err(err))
		} else {
			logger.Info("stream ended, reconnecting")
		}
		if backoff.Sleep(ctx) != nil {
			return nil
		}
	}
}
