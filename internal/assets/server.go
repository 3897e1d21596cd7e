// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/holomush/plughost/internal/ident"
	"github.com/holomush/plughost/pkg/errutil"
)

// Default virtual origin plugins are served from.
const (
	DefaultScheme = "https"
	DefaultHost   = "plugins"
)

// VirtualRequest is one request against the virtual origin.
type VirtualRequest struct {
	// Path is the request path relative to the origin, with its query.
	Path string
	Kind ResourceKind
}

// Server answers virtual requests from the plugin root.
type Server struct {
	resolver *Resolver
	fsys     FileSystem
	origin   string
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithFileSystem replaces the local disk.
func WithFileSystem(fsys FileSystem) Option {
	return func(s *Server) {
		s.fsys = fsys
	}
}

// WithOrigin sets the scheme and host of the virtual origin.
func WithOrigin(scheme, host string) Option {
	return func(s *Server) {
		s.origin = scheme + "://" + host
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server for the plugin root.
func NewServer(root string, opts ...Option) *Server {
	s := &Server{
		fsys:   OSFileSystem{},
		origin: DefaultScheme + "://" + DefaultHost,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = NewResolver(root, s.fsys)
	return s
}

// Resolver returns the server's path resolver.
func (s *Server) Resolver() *Resolver {
	return s.resolver
}

// Origin returns "<scheme>://<host>".
func (s *Server) Origin() string {
	return s.origin
}

// URL returns the public URL for a path relative to the plugin root.
func (s *Server) URL(p string) string {
	return s.origin + "/" + strings.TrimPrefix(p, "/")
}

// ParseVirtualURL strips the virtual origin from rawURL and returns the
// remaining path with its query. It returns false for other origins.
func (s *Server) ParseVirtualURL(rawURL string) (string, bool) {
	rest, ok := strings.CutPrefix(rawURL, s.origin)
	if !ok {
		return "", false
	}
	if rest != "" && rest[0] != '/' && rest[0] != '?' {
		return "", false
	}
	return rest, true
}

// Serve resolves req and opens its stream. The returned handle is nil for
// not-found responses; otherwise the caller owns it and must Close it.
func (s *Server) Serve(ctx context.Context, req VirtualRequest) (ResponseMeta, *Handle) {
	res := s.resolver.Resolve(req.Path)
	kind := ImportDefault

	var h *Handle
	if res.Exists {
		kind = Classify(res.Query, res.Path, req.Kind)
		if kind.Synthesized() {
			h = newModuleHandle(kind)
		} else {
			var err error
			h, err = openFileHandle(s.fsys, res.Path)
			if err != nil {
				errutil.LogWarn(ctx, s.logger, "plugin asset unreadable, serving not found", err)
				h = nil
			}
		}
	}

	meta := BuildResponse(res, kind, h)
	recordRequest(kind, meta.Status)
	return meta, h
}

// ServeHTTP serves the virtual origin over net/http. The request is
// script-typed when Sec-Fetch-Dest or X-Resource-Type is "script".
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	req := VirtualRequest{Path: s.requestPath(r), Kind: resourceKind(r)}
	meta, h := s.Serve(ctx, req)
	if h != nil {
		defer func() {
			if err := h.Close(); err != nil {
				errutil.LogWarn(ctx, s.logger, "failed to release plugin asset", err)
			}
		}()
	}

	for k, v := range meta.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(meta.Status)

	s.logger.DebugContext(ctx, "served plugin asset",
		"request_id", ident.NewString(),
		"path", req.Path,
		"resource_kind", req.Kind.String(),
		"status", meta.Status,
		"mime", meta.MIMEType)

	if h == nil || r.Method == http.MethodHead {
		return
	}

	if _, err := copyContext(ctx, w, h); err != nil && !errors.Is(err, context.Canceled) {
		errutil.LogWarn(ctx, s.logger, "plugin asset stream interrupted", err)
	}
}

func (s *Server) requestPath(r *http.Request) string {
	uri := r.RequestURI
	if uri == "" {
		uri = r.URL.RequestURI()
	}
	if p, ok := s.ParseVirtualURL(uri); ok {
		return p
	}
	return uri
}

func resourceKind(r *http.Request) ResourceKind {
	if strings.EqualFold(r.Header.Get("Sec-Fetch-Dest"), "script") ||
		strings.EqualFold(r.Header.Get("X-Resource-Type"), "script") {
		return ResourceScript
	}
	return ResourceOther
}

// copyContext copies src to dst until EOF or ctx is done.
func copyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err //nolint:wrapcheck // context errors are checked with errors.Is
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr //nolint:wrapcheck // surfaced to the request log only
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr //nolint:wrapcheck // surfaced to the request log only
		}
	}
}
