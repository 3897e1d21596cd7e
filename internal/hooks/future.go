// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hooks

import (
	"context"
	"sync"

	"github.com/samber/oops"
)

// API is whatever value a component exposes once it has initialized.
type API any

// Pending settles once with a callback's outcome. A nil Pending is
// already settled with no error.
type Pending <-chan error

// Settled returns a Pending that has already settled with err.
func Settled(err error) Pending {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

// Async runs fn on its own goroutine and returns its Pending. A panic in
// fn settles the Pending with an error.
func Async(ctx context.Context, fn func(context.Context) error) Pending {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- callSafely(func() error { return fn(ctx) })
	}()
	return ch
}

// wait blocks until p settles or ctx is done. settled is false when ctx
// ended first.
func (p Pending) wait(ctx context.Context) (err error, settled bool) {
	if p == nil {
		return nil, true
	}
	select {
	case err = <-p:
		return err, true
	case <-ctx.Done():
		return nil, false
	}
}

// poll reports p's outcome without blocking.
func (p Pending) poll() (err error, settled bool) {
	if p == nil {
		return nil, true
	}
	select {
	case err = <-p:
		return err, true
	default:
		return nil, false
	}
}

func callSafely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code(CodeCallbackPanic).Errorf("callback panicked: %v", r)
		}
	}()
	return fn()
}

// Future resolves exactly once with a component's API.
type Future struct {
	done chan struct{}
	once sync.Once
	api  API
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture(api API) *Future {
	f := newFuture()
	f.resolve(api)
	return f
}

func (f *Future) resolve(api API) {
	f.once.Do(func() {
		f.api = api
		close(f.done)
	})
}

// Done is closed once the future has resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// API returns the resolved value, or nil before Done is closed.
func (f *Future) API() API {
	select {
	case <-f.done:
		return f.api
	default:
		return nil
	}
}

// Wait blocks until the future resolves or ctx is done.
func (f *Future) Wait(ctx context.Context) (API, error) {
	select {
	case <-f.done:
		return f.api, nil
	case <-ctx.Done():
		return nil, ctx.Err() //nolint:wrapcheck // callers check context errors with errors.Is
	}
}
