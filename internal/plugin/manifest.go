// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plugin discovers plugin directories under the plugins root and
// keeps the discovered set current.
package plugin

import (
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional per-plugin manifest.
const ManifestFile = "plugin.yaml"

// DefaultEntry is the script the host imports when no manifest names one.
const DefaultEntry = "index.js"

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name        string `yaml:"name" json:"name" jsonschema:"pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$,maxLength=64"`
	Version     string `yaml:"version" json:"version" jsonschema:"minLength=1"`
	Entry       string `yaml:"entry,omitempty" json:"entry,omitempty" jsonschema:"pattern=\\.js$"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin names: must start with lowercase letter,
// followed by lowercase letters, digits, or hyphens.
// Cannot end with a hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates a plugin.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, oops.Code(CodeInvalidManifest).Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.Code(CodeInvalidManifest).Wrapf(err, "invalid YAML")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return oops.Code(CodeInvalidManifest).With("name", m.Name).
			Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return oops.Code(CodeInvalidManifest).
			Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return oops.Code(CodeInvalidManifest).With("name", m.Name).Errorf("version is required")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return oops.Code(CodeInvalidManifest).With("name", m.Name).Wrapf(err, "version %q is not semver", m.Version)
	}

	if m.Entry != "" {
		if err := validateEntry(m.Entry); err != nil {
			return oops.Code(CodeInvalidManifest).With("name", m.Name).Wrap(err)
		}
	}

	return nil
}

// EntryOrDefault returns the manifest entry, or DefaultEntry when unset.
func (m *Manifest) EntryOrDefault() string {
	if m == nil || m.Entry == "" {
		return DefaultEntry
	}
	return m.Entry
}

// SemVer returns the parsed version. Call only on validated manifests.
func (m *Manifest) SemVer() *semver.Version {
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil
	}
	return v
}

// validateEntry requires a relative slash path to a .js file inside the
// plugin directory.
func validateEntry(entry string) error {
	if strings.Contains(entry, `\`) {
		return oops.Errorf("entry %q must use forward slashes", entry)
	}
	if path.IsAbs(entry) {
		return oops.Errorf("entry %q must be relative to the plugin directory", entry)
	}
	clean := path.Clean(entry)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return oops.Errorf("entry %q escapes the plugin directory", entry)
	}
	if path.Ext(clean) != ".js" {
		return oops.Errorf("entry %q must be a .js file", entry)
	}
	return nil
}
