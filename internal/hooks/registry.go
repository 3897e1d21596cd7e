// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package hooks lets plugins run code before and after the host brings up
// one of its named components, or wait for a component's API.
//
// The host drives every transition through BringUp; this package never
// starts a component on its own.
package hooks

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/plughost/pkg/errutil"
)

// State is a component's position in its bring-up lifecycle.
type State uint8

// Lifecycle states, in order.
const (
	StateUnregistered State = iota
	StateRegistered
	StatePreInitFired
	StateLoaded
	StatePostInitFired
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistered:
		return "registered"
	case StatePreInitFired:
		return "pre_init_fired"
	case StateLoaded:
		return "loaded"
	case StatePostInitFired:
		return "post_init_fired"
	default:
		return "unknown"
	}
}

// Component identifies the component a pre-init callback runs for.
type Component struct {
	Name string
}

// PreInitFunc runs before a component initializes. Bring-up is held back
// until the returned Pending settles.
type PreInitFunc func(ctx context.Context, c Component) Pending

// PostInitFunc runs after a component initialized, with its API.
type PostInitFunc func(ctx context.Context, api API) Pending

// InitFunc is the host's own initialization of a component.
type InitFunc func(ctx context.Context) (API, error)

type postHook struct {
	fn       PostInitFunc
	blocking bool
}

// hookSet is the per-component state. Created lazily, never removed.
type hookSet struct {
	state   State
	pre     []PreInitFunc
	pending []awaiting
	post    []postHook
	waiters []*Future
	api     API
	busy    bool
}

// awaiting is a pre-init Pending that has not been seen to settle.
type awaiting struct {
	index int
	p     Pending
}

// Registry holds the hook sets of every component name.
type Registry struct {
	mu     sync.Mutex
	sets   map[string]*hookSet
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sets:   make(map[string]*hookSet),
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close stops watching non-blocking post-init callbacks that have not
// settled yet. Their outcomes are no longer reported. Close is idempotent.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

// lookup returns the hook set for name, creating it. Caller holds r.mu.
func (r *Registry) lookup(name string) *hookSet {
	s, ok := r.sets[name]
	if !ok {
		s = &hookSet{state: StateRegistered}
		r.sets[name] = s
	}
	return s
}

// PreInit appends fn to the pre-init callbacks of name. Registering once
// the component's bring-up has begun is a silent no-op.
func (r *Registry) PreInit(name string, fn PreInitFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(name)
	if s.state >= StatePreInitFired {
		r.logger.Debug("pre-init registered after bring-up began, ignoring", "component", name)
		return
	}
	s.pre = append(s.pre, fn)
}

// PostInit appends fn to the post-init callbacks of name. A blocking
// callback is waited for before the next one fires and before ready
// waiters resolve. Registering once post-init callbacks have all fired is
// a silent no-op.
func (r *Registry) PostInit(name string, fn PostInitFunc, blocking bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(name)
	if s.state >= StatePostInitFired {
		r.logger.Debug("post-init registered after it fired, ignoring", "component", name)
		return
	}
	s.post = append(s.post, postHook{fn: fn, blocking: blocking})
}

// WhenReady returns a future resolving with the API of name once it has
// loaded. It is already resolved when the API is known, including while
// post-init callbacks are still firing.
func (r *Registry) WhenReady(name string) *Future {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.lookup(name)
	if s.state >= StateLoaded {
		return resolvedFuture(s.api)
	}

	f := newFuture()
	s.waiters = append(s.waiters, f)
	return f
}

// State returns the lifecycle state of name.
func (r *Registry) State(name string) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sets[name]; ok {
		return s.state
	}
	return StateUnregistered
}

// Components returns the names the registry knows about, sorted.
func (r *Registry) Components() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wrap returns an InitFunc that routes init through BringUp, for hosts
// that construct components through factory functions.
func (r *Registry) Wrap(name string, initFn InitFunc) InitFunc {
	return func(ctx context.Context) (API, error) {
		return r.BringUp(ctx, name, initFn)
	}
}

// BringUp runs the lifecycle of name around the host's initFn: pre-init
// callbacks fire in registration order and initFn waits until all of them
// settle; then ready waiters resolve and post-init callbacks fire.
//
// A failed pre-init callback is reported and counts as settled. A pre-init
// callback that never settles holds bring-up until ctx ends; the next
// BringUp waits for it again. When initFn fails the component stays in
// StatePreInitFired and may be brought up again without re-running
// pre-init callbacks.
func (r *Registry) BringUp(ctx context.Context, name string, initFn InitFunc) (API, error) {
	r.mu.Lock()
	s := r.lookup(name)
	if s.state >= StateLoaded {
		r.mu.Unlock()
		return nil, ErrComponentLoaded(name)
	}
	if s.busy {
		r.mu.Unlock()
		return nil, ErrComponentBusy(name)
	}
	s.busy = true

	var (
		pre     []PreInitFunc
		pending []awaiting
	)
	if s.state < StatePreInitFired {
		pre, s.pre = s.pre, nil
		s.state = StatePreInitFired
	} else {
		pending, s.pending = s.pending, nil
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		s.busy = false
		r.mu.Unlock()
	}()

	r.logger.DebugContext(ctx, "component bring-up started",
		"component", name,
		"pre_init", len(pre))

	pending = append(pending, firePreInit(ctx, name, pre)...)
	if rest, err := r.awaitPreInit(ctx, name, pending); err != nil {
		r.mu.Lock()
		s.pending = rest
		r.mu.Unlock()
		return nil, err
	}

	api, err := initFn(ctx)
	if err != nil {
		return nil, ErrComponentInit(name, err)
	}

	r.mu.Lock()
	s.api = api
	s.state = StateLoaded
	waiters := s.waiters
	s.waiters = nil
	r.mu.Unlock()
	componentsLoaded.Inc()

	for _, f := range waiters {
		f.resolve(api)
	}
	r.runPostInit(ctx, name, s, api)

	r.logger.DebugContext(ctx, "component loaded", "component", name)
	return api, nil
}

// firePreInit calls every pre-init callback in order.
func firePreInit(ctx context.Context, name string, pre []PreInitFunc) []awaiting {
	c := Component{Name: name}

	pending := make([]awaiting, len(pre))
	for i, fn := range pre {
		pending[i] = awaiting{index: i, p: invoke(func() Pending { return fn(ctx, c) })}
	}
	return pending
}

// awaitPreInit waits for every pending callback. When ctx ends first it
// returns the callbacks that are still unsettled.
func (r *Registry) awaitPreInit(ctx context.Context, name string, pending []awaiting) ([]awaiting, error) {
	for i, a := range pending {
		err, settled := a.p.wait(ctx)
		if !settled {
			rest := r.unsettled(context.WithoutCancel(ctx), name, pending[i:])
			return rest, ErrBringUpCanceled(name, len(rest), ctx.Err())
		}
		r.settledPreInit(ctx, name, a.index, err)
	}
	return nil, nil
}

// unsettled reports the callbacks in pending that have settled by now
// and returns the others.
func (r *Registry) unsettled(ctx context.Context, name string, pending []awaiting) []awaiting {
	var rest []awaiting
	for _, a := range pending {
		err, settled := a.p.poll()
		if !settled {
			rest = append(rest, a)
			continue
		}
		r.settledPreInit(ctx, name, a.index, err)
	}
	return rest
}

func (r *Registry) settledPreInit(ctx context.Context, name string, index int, err error) {
	if err != nil {
		r.report(ctx, "pre_init", errHook(CodePreInitFailed, name, index, err))
	}
}

// runPostInit fires post-init callbacks until none are left, including
// ones registered by earlier callbacks, then marks the set fired.
func (r *Registry) runPostInit(ctx context.Context, name string, s *hookSet, api API) {
	for i := 0; ; i++ {
		r.mu.Lock()
		if len(s.post) == 0 {
			s.state = StatePostInitFired
			r.mu.Unlock()
			return
		}
		h := s.post[0]
		s.post = s.post[1:]
		r.mu.Unlock()

		p := invoke(func() Pending { return h.fn(ctx, api) })
		if p == nil {
			continue
		}

		if !h.blocking {
			go r.drain(ctx, name, i, p)
			continue
		}

		err, settled := p.wait(ctx)
		switch {
		case !settled:
			r.logger.WarnContext(ctx, "stopped waiting for blocking post-init callback",
				"component", name,
				"index", i,
				"error", ctx.Err())
		case err != nil:
			r.report(ctx, "post_init", errHook(CodePostInitFailed, name, i, err))
		}
	}
}

// drain reports the outcome of a non-blocking post-init callback, until
// the registry is closed.
func (r *Registry) drain(ctx context.Context, name string, index int, p Pending) {
	select {
	case err := <-p:
		if err != nil {
			r.report(context.WithoutCancel(ctx), "post_init", errHook(CodePostInitFailed, name, index, err))
		}
	case <-r.done:
	}
}

func (r *Registry) report(ctx context.Context, phase string, err error) {
	hookFailures.WithLabelValues(phase).Inc()
	errutil.LogWarn(ctx, r.logger, "lifecycle callback failed", err, "phase", phase)
}

// invoke calls fn, turning a panic into a settled failure.
func invoke(fn func() Pending) (p Pending) {
	defer func() {
		if rec := recover(); rec != nil {
			p = Settled(oops.Code(CodeCallbackPanic).Errorf("callback panicked: %v", rec))
		}
	}()
	return fn()
}
