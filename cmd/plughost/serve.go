// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/plughost/internal/config"
	"github.com/holomush/plughost/internal/host"
	"github.com/holomush/plughost/internal/logging"
	"github.com/holomush/plughost/internal/observability"
	"github.com/holomush/plughost/internal/plugin"
	"github.com/holomush/plughost/internal/xdg"
	"github.com/holomush/plughost/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the plugin origin",
		Long: `Scan the plugins directory and serve it under the virtual origin.
Optionally connects to the host message bus and watches the plugins
directory for changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServe runs the plugin origin until ctx ends or a signal arrives.
func runServe(ctx context.Context, cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.SetDefault("plughost", version, cfg.LogFormat, logging.WithLevel(level))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := host.New(cfg, host.WithLogger(logger))
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("starting plughost",
		"plugins_dir", cfg.PluginsDir,
		"listen_addr", cfg.ListenAddr,
		"origin", cfg.Origin())

	if cfg.Watch {
		// The watcher needs the root to exist.
		if err := xdg.EnsureDir(cfg.PluginsDir); err != nil {
			return err
		}
	}

	if _, err := rt.Start(ctx); err != nil {
		return oops.With("operation", "start_runtime").Wrap(err)
	}
	for _, url := range rt.EntryURLs() {
		logger.Info("plugin entry", "url", url)
	}

	var obsErrCh <-chan error
	if cfg.MetricsAddr != "" {
		obs := observability.NewServer(cfg.MetricsAddr, rt.Ready,
			observability.WithCollectors(host.Collectors()...),
			observability.WithLogger(logger))
		obsErrCh, err = obs.Start()
		if err != nil {
			return oops.With("operation", "start_observability_server").Wrap(err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := obs.Stop(shutdownCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}()
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return oops.With("addr", cfg.ListenAddr).Wrap(err)
	}
	srv := &http.Server{
		Handler:           rt.Assets(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		defer close(serveErr)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	logger.Info("plugin origin listening", "addr", listener.Addr().String())

	subs, err := rt.LogEndpoints()
	if err != nil {
		_ = srv.Close() //nolint:errcheck // already failing
		return err
	}
	for _, sub := range subs {
		defer sub.Disconnect()
	}

	if src := rt.EventSource(); src != nil {
		go func() {
			if err := src.Run(ctx); err != nil {
				errutil.LogError(logger, "message bus source stopped", err)
			}
		}()
	}

	if cfg.Watch {
		w := rt.Watcher(func(plugins []*plugin.Plugin) {
			logger.Info("plugins changed", "count", len(plugins))
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				errutil.LogError(logger, "plugin watcher stopped", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = oops.With("operation", "serve_plugin_origin").Wrap(err)
	case err := <-obsErrCh:
		if err != nil {
			runErr = oops.With("operation", "observability_server").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping plugin origin", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
