// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eventbus

import (
	"encoding/json"
	"strings"

	"github.com/samber/oops"
)

// ChangeKind is what happened to the resource behind an endpoint.
type ChangeKind uint8

// Change kinds reported by the host message bus.
const (
	Create ChangeKind = iota + 1
	Update
	Delete
)

// String returns the wire name of a ChangeKind.
func (k ChangeKind) String() string {
	switch k {
	case Create:
		return "Create"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// ParseChangeKind parses a wire name, ignoring case.
func ParseChangeKind(s string) (ChangeKind, error) {
	switch strings.ToLower(s) {
	case "create":
		return Create, nil
	case "update":
		return Update, nil
	case "delete":
		return Delete, nil
	default:
		return 0, oops.Code(CodeEventDecode).With("event_type", s).Errorf("unknown change kind %q", s)
	}
}

// Event is one structured message-bus event.
type Event struct {
	ID       string
	Endpoint string
	Kind     ChangeKind
	// Data is the JSON payload as sent by the host; it may be "null".
	Data json.RawMessage
}
