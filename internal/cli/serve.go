package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/timewarplabs/timewarp/internal/config"
	"github.com/timewarplabs/timewarp/internal/media"
	"github.com/timewarplabs/timewarp/internal/server"
	"github.com/timewarplabs/timewarp/internal/timesource"
	"github.com/timewarplabs/timewarp/internal/warp"
)

func newServeCmd() *cobra.Command {
	var (
		addr       string
		configFile string
		multiplier float64
		demo       bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the warp engine with its control surface",
		Long: `Starts the warp engine, retargets the time surfaces onto it and serves the
control panel.

Endpoints:
  GET /                  Service info and current virtual time
  GET /health            Health check
  GET /api/multiplier    Current multiplier and bounds
  PUT /api/multiplier    Set the multiplier (clamped)
  GET /api/time          Real vs virtual time
  GET /dashboard/        Control panel
  GET /metrics           Prometheus metrics
  WS  /ws                Multiplier change events`,
		Example: `  timewarp serve
  timewarp serve --addr :9090 --multiplier 2
  timewarp serve --config timewarp.toml --demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg := config.Default()
			if configFile != "" {
				cfg, err = config.LoadFile(configFile)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			engine := warp.NewEngine(cfg.Limits(), nil, log)
			if cmd.Flags().Changed("multiplier") {
				engine.SetMultiplier(multiplier)
			}

			bindings := timesource.NewBindings()
			restore := timesource.InstallWarp(bindings, engine, log)
			defer restore()

			doc := media.NewDocument()
			media.NewEnforcer(engine, doc, log)

			hub := server.NewHub(log)
			srv := server.New(cfg.Server.Addr, engine, server.Options{
				Hub:     hub,
				Metrics: cfg.Server.Metrics,
				Log:     log,
			})

			if demo {
				tick := bindings.SetInterval(func() {
					log.Info("tick",
						zap.Time("virtual", bindings.Now()),
						zap.Duration("elapsed", bindings.Elapsed()),
						zap.Float64("multiplier", engine.Multiplier()))
				}, 2*time.Second)
				defer tick.Stop()
			}

			log.Info("dashboard ready", zap.String("url", "http://localhost"+cfg.Server.Addr+"/dashboard/"))

			// Graceful shutdown on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-ctx.Done()
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "control surface listen address")
	cmd.Flags().StringVar(&configFile, "config", "", "path to TOML config file")
	cmd.Flags().Float64Var(&multiplier, "multiplier", 1.0, "initial multiplier (clamped to configured bounds)")
	cmd.Flags().BoolVar(&demo, "demo", false, "log virtual time through the warped surfaces every 2s")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	c := zap.NewDevelopmentConfig()
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return c.Build()
}
