// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/plughost/internal/config"
)

func TestRunServe_StopsOnCancel(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	cfg := config.Defaults()
	cfg.PluginsDir = filepath.Join(t.TempDir(), "plugins")
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.LogEndpoints = []string{"/lol-gameflow/v1/session"}
	cfg.Watch = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, &cfg) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.DirExists(t, cfg.PluginsDir, "watch creates the plugins root")
}

func TestRunServe_ListenFailure(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	cfg := config.Defaults()
	cfg.PluginsDir = t.TempDir()
	cfg.ListenAddr = "256.0.0.1:0"
	cfg.MetricsAddr = ""

	err := runServe(context.Background(), &cfg)
	require.Error(t, err)
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	_, _, err := execute(t, "serve", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log-format")
}
