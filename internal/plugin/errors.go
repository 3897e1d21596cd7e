// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

// Error codes for plugin discovery.
const (
	CodeInvalidManifest = "INVALID_MANIFEST"
	CodeInvalidPattern  = "INVALID_PATTERN"
	CodeDiscover        = "PLUGIN_DISCOVER"
	CodeWatch           = "PLUGIN_WATCH"
)
