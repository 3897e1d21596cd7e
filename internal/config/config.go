// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads plughost configuration from defaults, an optional
// YAML file and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/plughost/internal/assets"
	"github.com/holomush/plughost/internal/logging"
	"github.com/holomush/plughost/internal/xdg"
)

// CodeInvalidConfig marks configuration that failed to load or validate.
const CodeInvalidConfig = "INVALID_CONFIG"

// Default values for configuration keys.
const (
	DefaultListenAddr  = "127.0.0.1:9480"
	DefaultMetricsAddr = "127.0.0.1:9481"
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
)

// Config is the resolved plughost configuration.
type Config struct {
	PluginsDir   string   `koanf:"plugins-dir"`
	ListenAddr   string   `koanf:"listen-addr"`
	Scheme       string   `koanf:"scheme"`
	Host         string   `koanf:"host"`
	MetricsAddr  string   `koanf:"metrics-addr"`
	LogFormat    string   `koanf:"log-format"`
	LogLevel     string   `koanf:"log-level"`
	EventsURL    string   `koanf:"events-url"`
	LogEndpoints []string `koanf:"log-endpoints"`
	Disabled     []string `koanf:"disabled"`
	Watch        bool     `koanf:"watch"`
}

// Defaults returns the built-in configuration. PluginsDir is empty when
// no XDG data directory can be determined.
func Defaults() Config {
	pluginsDir, _ := xdg.PluginsDir() //nolint:errcheck // Validate reports the empty value
	return Config{
		PluginsDir:  pluginsDir,
		ListenAddr:  DefaultListenAddr,
		Scheme:      assets.DefaultScheme,
		Host:        assets.DefaultHost,
		MetricsAddr: DefaultMetricsAddr,
		LogFormat:   DefaultLogFormat,
		LogLevel:    DefaultLogLevel,
	}
}

// RegisterFlags adds a flag for every configuration key to fs, with the
// defaults as flag defaults.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Defaults()
	flags.String("plugins-dir", d.PluginsDir, "plugins root directory")
	flags.String("listen-addr", d.ListenAddr, "address serving the plugin origin")
	flags.String("scheme", d.Scheme, "scheme of the virtual plugin origin")
	flags.String("host", d.Host, "host of the virtual plugin origin")
	flags.String("metrics-addr", d.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", d.LogFormat, "log format (json or text)")
	flags.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	flags.String("events-url", d.EventsURL, "websocket URL of the host message bus (empty = disabled)")
	flags.StringSlice("log-endpoints", nil, "message-bus endpoints to log")
	flags.StringSlice("disabled", nil, "glob patterns of plugin directories to skip")
	flags.Bool("watch", d.Watch, "rescan plugins when the plugins directory changes")
}

// Load layers defaults, the YAML file at path and the flags that were set
// on the command line. An empty path loads the default config file when it
// exists; an explicit path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	d := Defaults()
	for key, val := range map[string]any{
		"plugins-dir":   d.PluginsDir,
		"listen-addr":   d.ListenAddr,
		"scheme":        d.Scheme,
		"host":          d.Host,
		"metrics-addr":  d.MetricsAddr,
		"log-format":    d.LogFormat,
		"log-level":     d.LogLevel,
		"events-url":    d.EventsURL,
		"log-endpoints": []string{},
		"disabled":      []string{},
		"watch":         d.Watch,
	} {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code(CodeInvalidConfig).With("key", key).Wrapf(err, "set default")
		}
	}

	if path == "" {
		path = defaultFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalidConfig).With("path", path).Wrapf(err, "load config file")
		}
	}

	if flags != nil {
		// With k passed in, posflag only applies defaults of unchanged
		// flags for keys that are not set yet, so file values win over
		// flag defaults.
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code(CodeInvalidConfig).Wrapf(err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeInvalidConfig).Wrapf(err, "decode config")
	}
	cfg.PluginsDir = os.ExpandEnv(cfg.PluginsDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// defaultFile returns the default config file, or "" when it does not
// exist.
func defaultFile() string {
	path, err := xdg.ConfigFile()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.PluginsDir == "" {
		return oops.Code(CodeInvalidConfig).Errorf("plugins-dir is required")
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return oops.Code(CodeInvalidConfig).With("listen-addr", c.ListenAddr).Wrapf(err, "listen-addr must be host:port")
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return oops.Code(CodeInvalidConfig).With("metrics-addr", c.MetricsAddr).Wrapf(err, "metrics-addr must be host:port")
		}
	}
	if c.Scheme == "" || strings.ContainsAny(c.Scheme, ":/") {
		return oops.Code(CodeInvalidConfig).Errorf("scheme %q must be a bare scheme name", c.Scheme)
	}
	if c.Host == "" || strings.ContainsAny(c.Host, "/") {
		return oops.Code(CodeInvalidConfig).Errorf("host %q must be a bare host name", c.Host)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code(CodeInvalidConfig).Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.Code(CodeInvalidConfig).Wrap(err)
	}
	if c.EventsURL != "" {
		u, err := url.Parse(c.EventsURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return oops.Code(CodeInvalidConfig).With("events-url", c.EventsURL).Errorf("events-url must be a ws:// or wss:// URL")
		}
	}
	return nil
}

// Origin returns "<scheme>://<host>".
func (c *Config) Origin() string {
	return c.Scheme + "://" + c.Host
}
