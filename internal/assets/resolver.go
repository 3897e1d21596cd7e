// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"path"
	"path/filepath"
	"strings"
)

// indexFile is served for directory requests.
const indexFile = "index.js"

// Resolution is a virtual request path mapped onto the plugin root.
type Resolution struct {
	// Path is the absolute file path the request resolved to.
	Path string
	// Query is the raw query string, without the leading '?'.
	Query string
	// InferredScript is set when the path was completed by the resolver
	// (index.js fallback or .js probe) and must be served as a script.
	InferredScript bool
	// Exists reports whether Path is a regular file inside the root.
	Exists bool
}

// Resolver maps virtual request paths to files under a plugin root.
type Resolver struct {
	root string
	fsys FileSystem
}

// NewResolver creates a resolver for root. A nil fsys reads the local disk.
func NewResolver(root string, fsys FileSystem) *Resolver {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	return &Resolver{root: filepath.Clean(root), fsys: fsys}
}

// Root returns the plugin root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve maps rawPath (path plus optional query) to a file. A missing file
// is not an error; it is reported through Resolution.Exists.
func (r *Resolver) Resolve(rawPath string) Resolution {
	var res Resolution

	p := rawPath
	if i := strings.IndexByte(p, '?'); i >= 0 {
		res.Query = p[i+1:]
		p = p[:i]
	}

	p = strings.ReplaceAll(decodePath(p), `\`, "/")

	if p == "" || strings.HasSuffix(p, "/") {
		res.InferredScript = true
		p = path.Join(p, indexFile)
	} else if !strings.Contains(path.Base(p), ".") {
		switch {
		case isFile(r.fsys, r.join(p+".js")):
			res.InferredScript = true
			p += ".js"
		case isDir(r.fsys, r.join(p)):
			res.InferredScript = true
			p = path.Join(p, indexFile)
		}
	}

	res.Path = r.join(p)
	res.Exists = isFile(r.fsys, res.Path)
	return res
}

// join roots p under the plugin directory. Cleaning p as an absolute path
// drops leading ".." segments, so the result never leaves the root.
func (r *Resolver) join(p string) string {
	return filepath.Join(r.root, filepath.FromSlash(path.Clean("/"+p)))
}

// decodePath percent-decodes s, except for escapes encoding a path
// separator ('/' or '\'), which stay encoded. Malformed escapes are kept
// verbatim.
func decodePath(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				c := hi<<4 | lo
				if c != '/' && c != '\\' {
					b.WriteByte(c)
					i += 2
					continue
				}
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
