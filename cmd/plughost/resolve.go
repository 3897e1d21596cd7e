// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/plughost/internal/assets"
	"github.com/holomush/plughost/internal/config"
)

// resolveConfig holds flags for the resolve command.
type resolveConfig struct {
	script     bool
	jsonOutput bool
}

// ResolveResult describes how the origin answers one virtual path.
type ResolveResult struct {
	Request        string `json:"request"`
	Path           string `json:"path"`
	Query          string `json:"query,omitempty"`
	Exists         bool   `json:"exists"`
	InferredScript bool   `json:"inferred_script"`
	ImportKind     string `json:"import_kind"`
	Status         int    `json:"status"`
	ContentType    string `json:"content_type,omitempty"`
	CacheControl   string `json:"cache_control,omitempty"`
	ETag           string `json:"etag,omitempty"`
	Length         int64  `json:"length"`
}

// NewResolveCmd creates the resolve subcommand.
func NewResolveCmd() *cobra.Command {
	rc := &resolveConfig{}

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show how a virtual path is resolved and served",
		Long: `Resolve a path or URL under the virtual origin against the plugins
directory and print the file it maps to, its import kind and the response
headers the origin would send.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runResolve(cmd, cfg, rc, args[0])
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&rc.script, "script", false, "resolve as a script-typed (module import) request")
	cmd.Flags().BoolVar(&rc.jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runResolve(cmd *cobra.Command, cfg *config.Config, rc *resolveConfig, target string) error {
	srv := assets.NewServer(cfg.PluginsDir, assets.WithOrigin(cfg.Scheme, cfg.Host))

	p := target
	if rest, ok := srv.ParseVirtualURL(target); ok {
		p = rest
	} else if strings.Contains(target, "://") {
		return oops.With("url", target).Errorf("URL is not under %s", srv.Origin())
	}

	kind := assets.ResourceOther
	if rc.script {
		kind = assets.ResourceScript
	}

	res := srv.Resolver().Resolve(p)
	importKind := assets.ImportDefault
	if res.Exists {
		importKind = assets.Classify(res.Query, res.Path, kind)
	}

	meta, h := srv.Serve(cmd.Context(), assets.VirtualRequest{Path: p, Kind: kind})
	if h != nil {
		_ = h.Close() //nolint:errcheck // only the metadata is needed
	}

	result := ResolveResult{
		Request:        target,
		Path:           res.Path,
		Query:          res.Query,
		Exists:         res.Exists,
		InferredScript: res.InferredScript,
		ImportKind:     importKind.String(),
		Status:         meta.Status,
		ContentType:    meta.MIMEType,
		CacheControl:   meta.CacheControl,
		ETag:           meta.ETag,
		Length:         meta.Length,
	}

	if rc.jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Print(formatResolveTable(result))
	return nil
}

func formatResolveTable(r ResolveResult) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"REQUEST", r.Request},
		{"PATH", r.Path},
		{"QUERY", r.Query},
		{"EXISTS", fmt.Sprint(r.Exists)},
		{"INFERRED SCRIPT", fmt.Sprint(r.InferredScript)},
		{"IMPORT KIND", r.ImportKind},
		{"STATUS", fmt.Sprint(r.Status)},
		{"CONTENT TYPE", r.ContentType},
		{"CACHE CONTROL", r.CacheControl},
		{"ETAG", r.ETag},
		{"LENGTH", fmt.Sprint(r.Length)},
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1]) //nolint:errcheck // strings.Builder never fails
	}
	_ = w.Flush() //nolint:errcheck // strings.Builder never fails
	return sb.String()
}
