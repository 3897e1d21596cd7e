// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ResourceKind is the host's classification of what requested a resource.
type ResourceKind uint8

// Resource kinds. Only script requests are subject to import classification.
const (
	ResourceOther ResourceKind = iota
	ResourceScript
)

// String returns the string representation of a ResourceKind.
func (k ResourceKind) String() string {
	if k == ResourceScript {
		return "script"
	}
	return "other"
}

// ImportKind determines how a script-typed resource is handed to the
// module loader.
type ImportKind uint8

// Import kinds.
const (
	ImportDefault ImportKind = iota
	ImportCSS
	ImportJSON
	ImportTOML
	ImportYAML
	ImportRaw
	ImportURL
)

// String returns the string representation of an ImportKind.
func (k ImportKind) String() string {
	switch k {
	case ImportDefault:
		return "default"
	case ImportCSS:
		return "css"
	case ImportJSON:
		return "json"
	case ImportTOML:
		return "toml"
	case ImportYAML:
		return "yaml"
	case ImportRaw:
		return "raw"
	case ImportURL:
		return "url"
	default:
		return "unknown"
	}
}

// Synthesized reports whether the kind is served as a wrapper module
// rather than the file's own bytes.
func (k ImportKind) Synthesized() bool {
	return k != ImportDefault
}

var (
	urlToken = regexp.MustCompile(`\burl\b`)
	rawToken = regexp.MustCompile(`\braw\b`)
)

// moduleExtensions maps data/style extensions to their wrapper kind.
var moduleExtensions = map[string]ImportKind{
	"css":  ImportCSS,
	"json": ImportJSON,
	"toml": ImportTOML,
	"yml":  ImportYAML,
	"yaml": ImportYAML,
}

// knownAssets are binary extensions that import as their public URL.
var knownAssets = map[string]struct{}{
	// images
	"bmp": {}, "png": {},
	"jpg": {}, "jpeg": {}, "jfif": {},
	"pjpeg": {}, "pjp": {}, "gif": {},
	"svg": {}, "ico": {}, "webp": {},
	"avif": {},

	// media
	"mp4": {}, "webm": {},
	"ogg": {}, "mp3": {}, "wav": {},
	"flac": {}, "aac": {},

	// fonts
	"woff": {}, "woff2": {},
	"eot": {}, "ttf": {}, "otf": {},
}

// IsKnownAsset reports whether ext (without the dot) is in the binary
// asset table.
func IsKnownAsset(ext string) bool {
	_, ok := knownAssets[strings.ToLower(ext)]
	return ok
}

// Classify picks the import kind for a request. Precedence: the url
// query token, the raw query token, a data/style extension, a known binary
// asset extension, then Default. Non-script requests are always Default.
// Unrecognized query tokens are ignored.
func Classify(query, filePath string, kind ResourceKind) ImportKind {
	if kind != ResourceScript {
		return ImportDefault
	}

	if urlToken.MatchString(query) {
		return ImportURL
	}
	if rawToken.MatchString(query) {
		return ImportRaw
	}

	ext := extension(filePath)
	if k, ok := moduleExtensions[ext]; ok {
		return k
	}
	if IsKnownAsset(ext) {
		return ImportURL
	}
	return ImportDefault
}

// extension returns the lower-cased extension of p without the dot.
func extension(p string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
}
