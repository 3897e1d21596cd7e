// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package assets

import "github.com/samber/oops"

// Error codes for asset serving failures.
const (
	CodeAssetNotFound = "ASSET_NOT_FOUND"
	CodeAssetIO       = "ASSET_IO"
)

// ErrFileNotFound is the error carried by not-found responses.
var ErrFileNotFound = oops.Code(CodeAssetNotFound).Errorf("file not found")
