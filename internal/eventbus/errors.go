// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eventbus

// Error codes for event delivery failures.
const (
	CodeListenerFailed  = "LISTENER_FAILED"
	CodeEventDecode     = "EVENT_DECODE"
	CodeEventSource     = "EVENT_SOURCE"
	CodeInvalidListener = "INVALID_LISTENER"
)
