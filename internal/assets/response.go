// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"fmt"
	"hash/fnv"
	"mime"
	"net/http"
	"strconv"
)

// Response header values.
const (
	ScriptMIME     = "text/javascript"
	CacheNoStore   = "no-store"
	CacheImmutable = "max-age=31536000, immutable"
)

// mimeTypes pins the types plugins commonly ship so responses do not
// depend on the platform's mime database. Anything else falls back to
// mime.TypeByExtension.
var mimeTypes = map[string]string{
	"js":    ScriptMIME,
	"mjs":   ScriptMIME,
	"css":   "text/css",
	"json":  "application/json",
	"html":  "text/html",
	"txt":   "text/plain",
	"toml":  "application/toml",
	"yml":   "application/yaml",
	"yaml":  "application/yaml",
	"wasm":  "application/wasm",
	"bmp":   "image/bmp",
	"png":   "image/png",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"jfif":  "image/jpeg",
	"pjpeg": "image/jpeg",
	"pjp":   "image/jpeg",
	"gif":   "image/gif",
	"svg":   "image/svg+xml",
	"ico":   "image/x-icon",
	"webp":  "image/webp",
	"avif":  "image/avif",
	"mp4":   "video/mp4",
	"webm":  "video/webm",
	"ogg":   "audio/ogg",
	"mp3":   "audio/mpeg",
	"wav":   "audio/wav",
	"flac":  "audio/flac",
	"aac":   "audio/aac",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"eot":   "application/vnd.ms-fontobject",
	"ttf":   "font/ttf",
	"otf":   "font/otf",
}

// MIMEType returns the content type for ext (without the dot), or "" when
// unknown.
func MIMEType(ext string) string {
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension("." + ext)
}

// ResponseMeta describes the response to a virtual request.
type ResponseMeta struct {
	Status       int
	Err          error
	MIMEType     string
	CacheControl string
	ETag         string
	// Length is the body length, or -1 when there is no body.
	Length int64
}

// NotFound reports whether the response is the not-found response.
func (m ResponseMeta) NotFound() bool {
	return m.Status == http.StatusNotFound
}

// BuildResponse computes response metadata for a resolved request. A nil
// handle yields the not-found response.
func BuildResponse(res Resolution, kind ImportKind, h *Handle) ResponseMeta {
	if h == nil {
		return ResponseMeta{
			Status: http.StatusNotFound,
			Err:    ErrFileNotFound,
			Length: -1,
		}
	}

	meta := ResponseMeta{
		Status: http.StatusOK,
		Length: h.Len(),
	}

	scriptOnly := kind.Synthesized() || res.InferredScript
	if scriptOnly {
		meta.MIMEType = ScriptMIME
	} else {
		meta.MIMEType = MIMEType(extension(res.Path))
	}

	if scriptOnly || meta.MIMEType == ScriptMIME {
		meta.CacheControl = CacheNoStore
	} else {
		meta.CacheControl = CacheImmutable
		meta.ETag = ETag(res.Path)
	}

	return meta
}

// ETag returns the validator for a resolved path: the 64-bit FNV-1a hash
// of the path bytes as 16 quoted hex digits.
func ETag(resolvedPath string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(resolvedPath)) //nolint:errcheck // hash writes never fail
	return fmt.Sprintf("%q", fmt.Sprintf("%016x", h.Sum64()))
}

// Header renders the response headers.
func (m ResponseMeta) Header() http.Header {
	h := make(http.Header)
	h.Set("Access-Control-Allow-Origin", "*")

	if m.NotFound() {
		return h
	}

	if m.MIMEType != "" {
		h.Set("Content-Type", m.MIMEType)
	}
	if m.CacheControl != "" {
		h.Set("Cache-Control", m.CacheControl)
	}
	if m.ETag != "" {
		h.Set("Etag", m.ETag)
	}
	if m.Length >= 0 {
		h.Set("Content-Length", strconv.FormatInt(m.Length, 10))
	}
	return h
}
