// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Plugin is one discovered plugin directory.
type Plugin struct {
	// Name is the manifest name, or the directory name without a manifest.
	Name string
	// Dir is the directory name under the plugins root.
	Dir string
	// Path is the absolute directory path.
	Path string
	// Entry is the entry script, relative to Dir, with forward slashes.
	Entry string
	// Manifest is nil when the plugin has no plugin.yaml.
	Manifest *Manifest
}

// EntryPath returns the entry script as a path under the virtual origin.
func (p *Plugin) EntryPath() string {
	return "/" + path.Join(p.Dir, p.Entry)
}

// EntryURL returns the URL the host imports to start the plugin.
func (p *Plugin) EntryURL(origin string) string {
	return strings.TrimSuffix(origin, "/") + p.EntryPath()
}

// Manager discovers plugins under a root directory.
type Manager struct {
	root     string
	disabled []glob.Glob
	patterns []string
	logger   *slog.Logger

	mu      sync.RWMutex
	plugins []*Plugin
	scanned bool
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithDisabled skips plugin directories whose name matches any of the glob
// patterns.
func WithDisabled(patterns ...string) ManagerOption {
	return func(m *Manager) {
		m.patterns = append(m.patterns, patterns...)
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a plugin manager for root. It fails when a disabled
// pattern does not compile.
func NewManager(root string, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, p := range m.patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, oops.Code(CodeInvalidPattern).With("pattern", p).Wrapf(err, "compile disabled pattern")
		}
		m.disabled = append(m.disabled, g)
	}
	return m, nil
}

// Root returns the plugins root directory.
func (m *Manager) Root() string {
	return m.root
}

// Disabled reports whether dir matches a disabled pattern.
func (m *Manager) Disabled(dir string) bool {
	for _, g := range m.disabled {
		if g.Match(dir) {
			return true
		}
	}
	return false
}

// Discover lists the plugins under the root in directory order without
// changing the manager's current set. A missing root yields no plugins.
// Invalid plugins are logged and skipped.
func (m *Manager) Discover(ctx context.Context) ([]*Plugin, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, oops.Code(CodeDiscover).With("root", m.root).Wrapf(err, "read plugins directory")
	}

	var plugins []*Plugin
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, oops.Code(CodeDiscover).Wrap(err)
		}

		name := entry.Name()
		if !entry.IsDir() || hidden(name) {
			continue
		}
		if m.Disabled(name) {
			m.logger.DebugContext(ctx, "skipping disabled plugin", "dir", name)
			continue
		}

		p, err := m.load(name)
		if err != nil {
			m.logger.WarnContext(ctx, "skipping plugin", "dir", name, "error", err)
			continue
		}
		plugins = append(plugins, p)
	}

	return plugins, nil
}

// Rescan discovers the plugins and makes them the current set.
func (m *Manager) Rescan(ctx context.Context) ([]*Plugin, error) {
	plugins, err := m.Discover(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.plugins = plugins
	m.scanned = true
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "plugins scanned", "root", m.root, "count", len(plugins))
	return plugins, nil
}

// Plugins returns the current set from the last Rescan.
func (m *Manager) Plugins() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Plugin, len(m.plugins))
	copy(out, m.plugins)
	return out
}

// Scanned reports whether Rescan has completed at least once.
func (m *Manager) Scanned() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scanned
}

func (m *Manager) load(dir string) (*Plugin, error) {
	pluginPath := filepath.Join(m.root, dir)
	p := &Plugin{Name: dir, Dir: dir, Path: pluginPath, Entry: DefaultEntry}

	data, err := os.ReadFile(filepath.Join(pluginPath, ManifestFile)) //nolint:gosec // path is built from ReadDir entries
	switch {
	case err == nil:
		manifest, err := ParseManifest(data)
		if err != nil {
			return nil, err
		}
		p.Name = manifest.Name
		p.Entry = manifest.EntryOrDefault()
		p.Manifest = manifest
	case !errors.Is(err, fs.ErrNotExist):
		return nil, oops.Code(CodeInvalidManifest).With("dir", dir).Wrapf(err, "read manifest")
	}

	info, err := os.Stat(filepath.Join(pluginPath, filepath.FromSlash(path.Clean(p.Entry))))
	if err != nil || !info.Mode().IsRegular() {
		return nil, oops.Code(CodeDiscover).With("dir", dir).With("entry", p.Entry).Errorf("entry script not found")
	}
	p.Entry = path.Clean(p.Entry)
	return p, nil
}

// hidden reports directory names the scan never treats as plugins.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
