// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import (
	"bytes"
	"io"
	"io/fs"
	"sync"

	"github.com/samber/oops"
)

// Handle owns the byte stream behind one response: either a synthesized
// module or an open plugin file. Reads are serialized; Close is idempotent.
type Handle struct {
	mu     sync.Mutex
	r      io.Reader
	closer io.Closer
	size   int64
	offset int64
	closed bool
}

func newModuleHandle(kind ImportKind) *Handle {
	data, ok := ModuleFor(kind)
	if !ok {
		return nil
	}
	return &Handle{r: bytes.NewReader(data), size: int64(len(data))}
}

func openFileHandle(fsys FileSystem, name string) (*Handle, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, oops.Code(CodeAssetIO).With("path", name).Wrap(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // stat failure takes precedence
		return nil, oops.Code(CodeAssetIO).With("path", name).Wrap(err)
	}

	return &Handle{r: f, closer: f, size: info.Size()}, nil
}

// Len returns the total stream length in bytes.
func (h *Handle) Len() int64 {
	return h.size
}

// Offset returns how many bytes have been read.
func (h *Handle) Offset() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.offset
}

// Read implements io.Reader. Reading a closed handle returns fs.ErrClosed.
func (h *Handle) Read(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, fs.ErrClosed
	}

	n, err := h.r.Read(p)
	h.offset += int64(n)
	//nolint:wrapcheck // io.Reader contract requires bare io.EOF
	return n, err
}

// Close releases the underlying file, if any.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.closer != nil {
		if err := h.closer.Close(); err != nil {
			return oops.Code(CodeAssetIO).Wrap(err)
		}
	}
	return nil
}
