package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"exporthub/internal/httpapi"
	"exporthub/internal/registry"
)

// watchCacheTTL bounds how long a watched registry trusts its cache when no
// TTL was configured.
const watchCacheTTL = 5 * time.Minute

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr, artifactsDir, corsOrigins, requestLog string
		cacheTTL, topModels                         int
		watch                                       bool
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the model card catalog over HTTP",
		Example: "  exporthub serve --configs-dir ./configs --addr :10000 --watch",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("addr") {
				c.cfg.Addr = addr
			}
			if f.Changed("artifacts-dir") {
				c.cfg.ArtifactsDir = artifactsDir
			}
			if f.Changed("cors-origins") {
				c.cfg.CORSOrigins = splitCSV(corsOrigins)
			}
			if f.Changed("cache-ttl") {
				c.cfg.CacheTTLSeconds = cacheTTL
			}
			if f.Changed("top-models") {
				c.cfg.TopModels = topModels
			}
			if f.Changed("watch") {
				c.cfg.Watch = watch
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, c, requestLog)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (defaults EXPORTHUB_ADDR, :$PORT or :10000)")
	cmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "", "Directory /download serves artifact files from")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (empty disables CORS)")
	cmd.Flags().StringVar(&requestLog, "request-log", "off", "Access log level: off|error|info|debug (per request: ?log= or X-Log-Level)")
	cmd.Flags().IntVar(&cacheTTL, "cache-ttl", 0, "Seconds to reuse an unchanged scan (0 rescans on every request)")
	cmd.Flags().IntVar(&topModels, "top-models", 0, "Models per organization on the landing page")
	cmd.Flags().BoolVar(&watch, "watch", false, "Watch the configs root and drop cached scans on change")
	return cmd
}

// buildRegistry opens the configs root with the cache and watcher the
// configuration asks for. The returned stop func is never nil.
func buildRegistry(c *cli) (*registry.Registry, func(), error) {
	ttl := time.Duration(c.cfg.CacheTTLSeconds) * time.Second
	if c.cfg.Watch && ttl <= 0 {
		ttl = watchCacheTTL
	}
	reg, err := registry.New(c.cfg.ConfigsDir, registry.WithLogger(c.log), registry.WithCache(ttl))
	if err != nil {
		return nil, nil, err
	}
	if !c.cfg.Watch {
		return reg, func() {}, nil
	}
	w, err := registry.NewWatcher(reg, 0)
	if err != nil {
		return nil, nil, err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		c.log.Warn().Err(err).Msg("watch disabled")
		return reg, func() {}, nil
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-changes:
				c.log.Debug().Str("root", reg.Root()).Msg("configs changed; cache invalidated")
			case <-done:
				return
			}
		}
	}()
	return reg, func() {
		close(done)
		_ = w.Stop()
	}, nil
}

func runServe(ctx context.Context, c *cli, requestLog string) error {
	reg, stopWatch, err := buildRegistry(c)
	if err != nil {
		return err
	}
	defer stopWatch()

	httpapi.SetLogger(c.log)
	httpapi.SetRequestLogLevel(requestLog)
	httpapi.SetTopModels(c.cfg.TopModels)
	httpapi.SetArtifactsDir(c.cfg.ArtifactsDir)
	if len(c.cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, c.cfg.CORSOrigins, []string{"GET", "HEAD", "OPTIONS"}, []string{"Accept", "Content-Type", "X-Log-Level"})
	}

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           httpapi.NewMux(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		c.log.Info().Str("addr", c.cfg.Addr).Str("configs_dir", reg.Root()).Bool("watch", c.cfg.Watch).Msg("exporthub listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.log.Warn().Err(err).Msg("graceful shutdown error")
	}
	c.log.Info().Msg("exporthub stopped")
	return nil
}
