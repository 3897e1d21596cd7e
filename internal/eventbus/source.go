// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eventbus

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/holomush/plughost/internal/ident"
	"github.com/holomush/plughost/pkg/errutil"
)

// WAMP opcodes used by the host message bus.
const (
	opSubscribe = 5
	opEvent     = 8
)

// AllEventsTopic is the topic carrying every structured bus event.
const AllEventsTopic = "OnJsonApiEvent"

// Source reads events from the host message bus over a websocket and
// dispatches them into a Bridge.
type Source struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	bridge *Bridge
	logger *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithHeader sets handshake headers, e.g. Authorization.
func WithHeader(h http.Header) SourceOption {
	return func(s *Source) {
		s.header = h
	}
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) SourceOption {
	return func(s *Source) {
		s.dialer = d
	}
}

// WithSourceLogger sets the logger. Defaults to slog.Default().
func WithSourceLogger(l *slog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = l
	}
}

// NewSource creates a source for the websocket at url.
func NewSource(url string, bridge *Bridge, opts ...SourceOption) *Source {
	s := &Source{
		url:    url,
		dialer: websocket.DefaultDialer,
		bridge: bridge,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run connects, subscribes to AllEventsTopic and dispatches events until
// ctx ends or the connection drops. It returns nil when ctx ended.
func (s *Source) Run(ctx context.Context) error {
	//nolint:bodyclose // gorilla/websocket owns the handshake response body
	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		return oops.Code(CodeEventSource).With("url", s.url).Wrapf(err, "connect to message bus")
	}
	defer conn.Close() //nolint:errcheck // closing is best effort on shutdown

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close() //nolint:errcheck // unblocks ReadMessage
		case <-stop:
		}
	}()

	if err := conn.WriteJSON([]any{opSubscribe, AllEventsTopic}); err != nil {
		return oops.Code(CodeEventSource).With("url", s.url).Wrapf(err, "subscribe to %s", AllEventsTopic)
	}
	s.logger.InfoContext(ctx, "message bus connected", "url", s.url)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return oops.Code(CodeEventSource).With("url", s.url).Wrapf(err, "read from message bus")
		}

		event, ok, err := DecodeFrame(msg)
		if err != nil {
			framesDropped.Inc()
			errutil.LogWarn(ctx, s.logger, "skipping malformed message bus frame", err)
			continue
		}
		if !ok {
			continue
		}
		s.bridge.Dispatch(ctx, event)
	}
}

// framePayload is the third element of an event frame.
type framePayload struct {
	URI       string          `json:"uri"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// DecodeFrame decodes a message-bus frame of the form
// [8, "<topic>", {"uri": ..., "eventType": ..., "data": ...}].
// It returns ok=false for empty frames and frames that are not events.
func DecodeFrame(msg []byte) (Event, bool, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return Event{}, false, nil
	}

	var frame []json.RawMessage
	if err := json.Unmarshal(msg, &frame); err != nil {
		return Event{}, false, oops.Code(CodeEventDecode).Wrapf(err, "frame is not a JSON array")
	}

	var op int
	if len(frame) == 0 || json.Unmarshal(frame[0], &op) != nil || op != opEvent {
		return Event{}, false, nil
	}
	if len(frame) < 3 {
		return Event{}, false, oops.Code(CodeEventDecode).With("elements", len(frame)).Errorf("event frame too short")
	}

	var payload framePayload
	if err := json.Unmarshal(frame[2], &payload); err != nil {
		return Event{}, false, oops.Code(CodeEventDecode).Wrapf(err, "invalid event payload")
	}
	if payload.URI == "" {
		return Event{}, false, oops.Code(CodeEventDecode).Errorf("event payload has no uri")
	}

	kind, err := ParseChangeKind(payload.EventType)
	if err != nil {
		return Event{}, false, err
	}

	data := payload.Data
	if data == nil {
		data = json.RawMessage("null")
	}

	return Event{
		ID:       ident.NewString(),
		Endpoint: payload.URI,
		Kind:     kind,
		Data:     data,
	}, true, nil
}
