// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"

	"github.com/holomush/plughost/pkg/errutil"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher rescans a Manager whenever files under its root change.
type Watcher struct {
	manager  *Manager
	debounce time.Duration
	onChange func([]*Plugin)
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a rescan.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithOnChange sets a callback invoked with the new set after each rescan.
func WithOnChange(fn func([]*Plugin)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithWatcherLogger sets the logger. Defaults to slog.Default().
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher creates a watcher for m.
func NewWatcher(m *Manager, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		manager:  m,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the plugins root and each plugin directory until ctx ends.
// The root must exist.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return oops.Code(CodeWatch).Wrapf(err, "create watcher")
	}
	defer fsw.Close() //nolint:errcheck // nothing to do on shutdown

	root := w.manager.Root()
	if err := fsw.Add(root); err != nil {
		return oops.Code(CodeWatch).With("root", root).Wrapf(err, "watch plugins root")
	}
	w.watchPlugins(ctx, fsw)
	w.logger.InfoContext(ctx, "watching plugins", "root", root, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "plugin watcher error", "error", err)

		case <-timer.C:
			plugins, err := w.manager.Rescan(ctx)
			if err != nil {
				errutil.LogWarn(ctx, w.logger, "plugin rescan failed", err)
				continue
			}
			w.watchPlugins(ctx, fsw)
			if w.onChange != nil {
				w.onChange(plugins)
			}
		}
	}
}

// watchPlugins adds every visible directory under the root. fsnotify
// ignores directories already watched and drops removed ones itself.
func (w *Watcher) watchPlugins(ctx context.Context, fsw *fsnotify.Watcher) {
	root := w.manager.Root()
	entries, err := os.ReadDir(root)
	if err != nil {
		w.logger.WarnContext(ctx, "read plugins root", "root", root, "error", err)
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || hidden(entry.Name()) {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if err := fsw.Add(dir); err != nil {
			w.logger.WarnContext(ctx, "watch plugin directory", "dir", dir, "error", err)
		}
	}
}
