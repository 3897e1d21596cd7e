// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pluginsRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lobby", "index.js"), "")
	writeFile(t, filepath.Join(root, "tools", "plugin.yaml"), "name: tools\nversion: 2.1.0\nentry: dist/main.js\n")
	writeFile(t, filepath.Join(root, "tools", "dist", "main.js"), "")
	writeFile(t, filepath.Join(root, "broken", "plugin.yaml"), "name: Broken\nversion: 1.0.0\n")
	return root
}

func TestPluginsCommand_JSON(t *testing.T) {
	out, errOut, err := execute(t, "plugins", "--json", "--plugins-dir", pluginsRoot(t), "--host", "assets")
	require.NoError(t, err)

	var got []PluginInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []PluginInfo{
		{Name: "lobby", Dir: "lobby", Entry: "index.js", EntryURL: "https://assets/lobby/index.js"},
		{Name: "tools", Version: "2.1.0", Dir: "tools", Entry: "dist/main.js", EntryURL: "https://assets/tools/dist/main.js"},
	}, got)
	assert.Contains(t, errOut, "skipping plugin")
}

func TestPluginsCommand_Table(t *testing.T) {
	out, _, err := execute(t, "plugins", "--plugins-dir", pluginsRoot(t), "--disabled", "tools")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "https://plugins/lobby/index.js")
	assert.NotContains(t, out, "tools")
}

func TestPluginsCommand_ConfigFile(t *testing.T) {
	root := pluginsRoot(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, "plugins-dir: "+root+"\ndisabled:\n  - lobby\n")

	out, _, err := execute(t, "--config", cfgPath, "plugins", "--json")
	require.NoError(t, err)

	var got []PluginInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "tools", got[0].Name)
}
