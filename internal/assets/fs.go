// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"io/fs"
	"os"
)

// FileSystem is the stat/open capability the resolver and handles use.
// Paths are absolute, already joined onto the plugin root.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	Open(name string) (fs.File, error)
}

// OSFileSystem reads plugin files from the local disk.
type OSFileSystem struct{}

// Stat implements FileSystem.
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	//nolint:wrapcheck // callers only distinguish exists/not-exists
	return os.Stat(name)
}

// Open implements FileSystem.
func (OSFileSystem) Open(name string) (fs.File, error) {
	//nolint:gosec,wrapcheck // name is confined to the plugin root by the resolver
	return os.Open(name)
}

func isFile(fsys FileSystem, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && info.Mode().IsRegular()
}

func isDir(fsys FileSystem, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && info.IsDir()
}
