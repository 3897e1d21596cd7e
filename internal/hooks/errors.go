// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package hooks

import "github.com/samber/oops"

// Error codes for lifecycle failures.
const (
	CodeComponentLoaded = "COMPONENT_LOADED"
	CodeComponentBusy   = "COMPONENT_BUSY"
	CodeComponentInit   = "COMPONENT_INIT"
	CodeBringUpCanceled = "BRING_UP_CANCELED"
	CodePreInitFailed   = "PRE_INIT_FAILED"
	CodePostInitFailed  = "POST_INIT_FAILED"
	CodeCallbackPanic   = "CALLBACK_PANIC"
)

// ErrComponentLoaded is returned when a component is brought up twice.
func ErrComponentLoaded(name string) error {
	return oops.Code(CodeComponentLoaded).
		With("component", name).
		Errorf("component %s already loaded", name)
}

// ErrComponentBusy is returned when a bring-up is already in progress.
func ErrComponentBusy(name string) error {
	return oops.Code(CodeComponentBusy).
		With("component", name).
		Errorf("component %s is already being brought up", name)
}

// ErrComponentInit wraps a failure of the host's own initialization.
func ErrComponentInit(name string, cause error) error {
	return oops.Code(CodeComponentInit).
		With("component", name).
		Wrapf(cause, "initialize component %s", name)
}

// ErrBringUpCanceled is returned when ctx ends while pre-init callbacks
// are still pending. unsettled counts the callbacks that had not settled.
func ErrBringUpCanceled(name string, unsettled int, cause error) error {
	return oops.Code(CodeBringUpCanceled).
		With("component", name).
		With("unsettled", unsettled).
		Wrapf(cause, "bring-up of %s canceled", name)
}

func errHook(code, name string, index int, cause error) error {
	return oops.Code(code).
		With("component", name).
		With("index", index).
		Wrap(cause)
}
