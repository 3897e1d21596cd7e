// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package host ties the plugin origin, lifecycle hooks, event bridge and
// plugin discovery into one process-scoped Runtime.
package host

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/holomush/plughost/internal/assets"
	"github.com/holomush/plughost/internal/config"
	"github.com/holomush/plughost/internal/eventbus"
	"github.com/holomush/plughost/internal/hooks"
	"github.com/holomush/plughost/internal/plugin"
)

// Host components brought up through the hook registry by Start.
const (
	ComponentAssets  = "assets"
	ComponentPlugins = "plugins"
)

// Runtime owns the single instance of every registry. There is no
// package-level state; pass the Runtime to whatever needs it.
type Runtime struct {
	cfg     config.Config
	assets  *assets.Server
	hooks   *hooks.Registry
	events  *eventbus.Bridge
	plugins *plugin.Manager
	logger  *slog.Logger
}

type options struct {
	logger *slog.Logger
	fsys   assets.FileSystem
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger sets the logger passed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFileSystem replaces the OS filesystem the plugin origin reads from.
func WithFileSystem(fsys assets.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// New validates cfg and creates the runtime's components.
func New(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, oops.Code(config.CodeInvalidConfig).Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	assetOpts := []assets.Option{
		assets.WithOrigin(cfg.Scheme, cfg.Host),
		assets.WithLogger(o.logger),
	}
	if o.fsys != nil {
		assetOpts = append(assetOpts, assets.WithFileSystem(o.fsys))
	}

	mgr, err := plugin.NewManager(cfg.PluginsDir,
		plugin.WithDisabled(cfg.Disabled...),
		plugin.WithLogger(o.logger))
	if err != nil {
		return nil, oops.Code(config.CodeInvalidConfig).Wrap(err)
	}

	return &Runtime{
		cfg:     *cfg,
		assets:  assets.NewServer(cfg.PluginsDir, assetOpts...),
		hooks:   hooks.NewRegistry(hooks.WithLogger(o.logger)),
		events:  eventbus.NewBridge(eventbus.WithLogger(o.logger)),
		plugins: mgr,
		logger:  o.logger,
	}, nil
}

// Config returns the configuration the runtime was built from.
func (r *Runtime) Config() config.Config {
	return r.cfg
}

// Assets returns the plugin origin handler.
func (r *Runtime) Assets() *assets.Server {
	return r.assets
}

// Hooks returns the lifecycle hook registry.
func (r *Runtime) Hooks() *hooks.Registry {
	return r.hooks
}

// Events returns the event bridge.
func (r *Runtime) Events() *eventbus.Bridge {
	return r.events
}

// Plugins returns the plugin manager.
func (r *Runtime) Plugins() *plugin.Manager {
	return r.plugins
}

// Start brings up the assets component and then the plugins component,
// whose API is the scanned plugin set. Hooks registered for either name
// run around their bring-up.
func (r *Runtime) Start(ctx context.Context) ([]*plugin.Plugin, error) {
	if _, err := r.hooks.BringUp(ctx, ComponentAssets, func(context.Context) (hooks.API, error) {
		return r.assets, nil
	}); err != nil {
		return nil, err
	}

	api, err := r.hooks.BringUp(ctx, ComponentPlugins, func(ctx context.Context) (hooks.API, error) {
		return r.plugins.Rescan(ctx)
	})
	if err != nil {
		return nil, err
	}

	plugins, _ := api.([]*plugin.Plugin) //nolint:errcheck // BringUp returns what the InitFunc returned
	return plugins, nil
}

// Ready reports whether the plugin set has been scanned.
func (r *Runtime) Ready() bool {
	return r.plugins.Scanned()
}

// EntryURLs returns the entry URL of every current plugin, in scan order.
func (r *Runtime) EntryURLs() []string {
	plugins := r.plugins.Plugins()
	urls := make([]string, len(plugins))
	for i, p := range plugins {
		urls[i] = r.assets.URL(p.EntryPath())
	}
	return urls
}

// Watcher returns a watcher that rescans the plugins root. onChange may be
// nil.
func (r *Runtime) Watcher(onChange func([]*plugin.Plugin)) *plugin.Watcher {
	opts := []plugin.WatcherOption{plugin.WithWatcherLogger(r.logger)}
	if onChange != nil {
		opts = append(opts, plugin.WithOnChange(onChange))
	}
	return plugin.NewWatcher(r.plugins, opts...)
}

// EventSource returns a source feeding the bridge from the configured
// message bus, or nil when none is configured.
func (r *Runtime) EventSource(opts ...eventbus.SourceOption) *eventbus.Source {
	if r.cfg.EventsURL == "" {
		return nil
	}
	opts = append([]eventbus.SourceOption{eventbus.WithSourceLogger(r.logger)}, opts...)
	return eventbus.NewSource(r.cfg.EventsURL, r.events, opts...)
}

// LogEndpoints observes every configured log endpoint with a listener that
// logs each event. Disconnect the subscriptions to stop.
func (r *Runtime) LogEndpoints() ([]*eventbus.Subscription, error) {
	l := eventbus.ListenFunc(func(ctx context.Context, e eventbus.Event) error {
		r.logger.InfoContext(ctx, "message bus event",
			"endpoint", e.Endpoint,
			"change", e.Kind.String(),
			"event_id", e.ID,
			"data", string(e.Data))
		return nil
	})

	subs := make([]*eventbus.Subscription, 0, len(r.cfg.LogEndpoints))
	for _, ep := range r.cfg.LogEndpoints {
		sub, err := r.events.Observe(ep, l)
		if err != nil {
			for _, s := range subs {
				s.Disconnect()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Close releases the hook registry's watchers of unsettled non-blocking
// post-init callbacks.
func (r *Runtime) Close() {
	r.hooks.Close()
}

// Collectors returns the metrics of every component.
func Collectors() []prometheus.Collector {
	var cs []prometheus.Collector
	cs = append(cs, assets.Collectors()...)
	cs = append(cs, hooks.Collectors()...)
	cs = append(cs, eventbus.Collectors()...)
	return cs
}
