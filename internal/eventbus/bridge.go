// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package eventbus delivers host message-bus events to plugin listeners
// subscribed by exact endpoint.
package eventbus

import (
	"context"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/plughost/pkg/errutil"
)

// Listener receives events for the endpoints it observes. Listeners are
// kept in a set keyed by value identity, so implementations must be
// comparable; pointer types are the usual choice. Observe rejects
// listeners that are not.
type Listener interface {
	OnEvent(ctx context.Context, event Event) error
}

type funcListener struct {
	fn func(context.Context, Event) error
}

func (l *funcListener) OnEvent(ctx context.Context, event Event) error {
	return l.fn(ctx, event)
}

// ListenFunc adapts fn into a Listener. Every call returns a distinct
// listener; keep the result to disconnect it later.
func ListenFunc(fn func(ctx context.Context, event Event) error) Listener {
	return &funcListener{fn: fn}
}

// Delivery is the outcome of one listener for one event.
type Delivery struct {
	Listener Listener
	Err      error
}

// Subscription is the capability returned by Observe.
type Subscription struct {
	bridge   *Bridge
	endpoint string
	listener Listener
	once     sync.Once
}

// Endpoint returns the observed endpoint.
func (s *Subscription) Endpoint() string {
	return s.endpoint
}

// Disconnect removes the listener. Calling it again does nothing.
func (s *Subscription) Disconnect() {
	s.once.Do(func() {
		s.bridge.Disconnect(s.endpoint, s.listener)
	})
}

// Bridge holds per-endpoint listener sets.
type Bridge struct {
	mu     sync.RWMutex
	subs   map[string][]Listener
	logger *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// NewBridge creates a bridge with no subscriptions.
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{
		subs:   make(map[string][]Listener),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Observe adds l to the listeners of endpoint. Observing with a listener
// already in the set keeps its original position. A nil or non-comparable
// listener is rejected with CodeInvalidListener.
func (b *Bridge) Observe(endpoint string, l Listener) (*Subscription, error) {
	if !reflect.ValueOf(l).Comparable() {
		return nil, oops.Code(CodeInvalidListener).
			With("endpoint", endpoint).
			Errorf("listener %T is not comparable", l)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if indexOf(b.subs[endpoint], l) < 0 {
		b.subs[endpoint] = append(b.subs[endpoint], l)
	}
	return &Subscription{bridge: b, endpoint: endpoint, listener: l}, nil
}

// Disconnect removes l from endpoint and reports whether it was present.
// The endpoint is dropped once its last listener is gone.
func (b *Bridge) Disconnect(endpoint string, l Listener) bool {
	if !reflect.ValueOf(l).Comparable() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[endpoint]
	i := indexOf(subs, l)
	if i < 0 {
		return false
	}

	if len(subs) == 1 {
		delete(b.subs, endpoint)
		return true
	}

	next := make([]Listener, 0, len(subs)-1)
	next = append(next, subs[:i]...)
	b.subs[endpoint] = append(next, subs[i+1:]...)
	return true
}

// Endpoints returns the endpoints with at least one listener, sorted.
func (b *Bridge) Endpoints() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eps := make([]string, 0, len(b.subs))
	for ep := range b.subs {
		eps = append(eps, ep)
	}
	sort.Strings(eps)
	return eps
}

// Listeners returns how many listeners observe endpoint.
func (b *Bridge) Listeners(endpoint string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[endpoint])
}

// Dispatch calls every listener of event.Endpoint in registration order
// and returns one Delivery per listener. A failing or panicking listener
// is reported and does not stop the others. Listeners added or removed
// during dispatch take effect from the next event.
func (b *Bridge) Dispatch(ctx context.Context, event Event) []Delivery {
	b.mu.RLock()
	listeners := b.subs[event.Endpoint]
	b.mu.RUnlock()

	if len(listeners) == 0 {
		return nil
	}
	eventsDispatched.WithLabelValues(event.Endpoint).Inc()

	results := make([]Delivery, len(listeners))
	for i, l := range listeners {
		results[i] = Delivery{Listener: l, Err: deliver(ctx, l, event)}
		if err := results[i].Err; err != nil {
			listenerFailures.WithLabelValues(event.Endpoint).Inc()
			errutil.LogWarn(ctx, b.logger, "event listener failed", err,
				"endpoint", event.Endpoint,
				"event_id", event.ID,
				"change", event.Kind.String(),
				"listener", i)
		}
	}
	return results
}

func deliver(ctx context.Context, l Listener, event Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = oops.Code(CodeListenerFailed).
				With("endpoint", event.Endpoint).
				Errorf("listener panicked: %v", rec)
		}
	}()

	if err := l.OnEvent(ctx, event); err != nil {
		return oops.Code(CodeListenerFailed).With("endpoint", event.Endpoint).Wrap(err)
	}
	return nil
}

func indexOf(subs []Listener, l Listener) int {
	for i, sub := range subs {
		if sub == l {
			return i
		}
	}
	return -1
}
