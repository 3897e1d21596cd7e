// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/holomush/plughost/internal/config"
	"github.com/holomush/plughost/internal/host"
)

// PluginInfo is one row of the plugins listing.
type PluginInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Dir      string `json:"dir"`
	Entry    string `json:"entry"`
	EntryURL string `json:"entry_url"`
}

// NewPluginsCmd creates the plugins subcommand.
func NewPluginsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List discovered plugins and their entry URLs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runPlugins(cmd, cfg, jsonOutput)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runPlugins(cmd *cobra.Command, cfg *config.Config, jsonOutput bool) error {
	// Skipped plugins are reported as warnings on stderr.
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

	rt, err := host.New(cfg, host.WithLogger(logger))
	if err != nil {
		return err
	}
	plugins, err := rt.Plugins().Rescan(cmd.Context())
	if err != nil {
		return err
	}

	infos := make([]PluginInfo, 0, len(plugins))
	for _, p := range plugins {
		info := PluginInfo{
			Name:     p.Name,
			Dir:      p.Dir,
			Entry:    p.Entry,
			EntryURL: rt.Assets().URL(p.EntryPath()),
		}
		if p.Manifest != nil {
			info.Version = p.Manifest.Version
		}
		infos = append(infos, info)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Print(formatPluginsTable(infos))
	return nil
}

func formatPluginsTable(infos []PluginInfo) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "NAME\tVERSION\tDIR\tENTRY URL") //nolint:errcheck // strings.Builder never fails
	for _, info := range infos {
		version := info.Version
		if version == "" {
			version = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, version, info.Dir, info.EntryURL) //nolint:errcheck // strings.Builder never fails
	}
	_ = w.Flush() //nolint:errcheck // strings.Builder never fails
	return sb.String()
}
