// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package appveyor

import (
	"errors"
)

// Validation errors.  Validate wraps these in a *ValidationError that says where in the file the
// problem is; use errors.Is to test for them.
var (
	// ErrNoWork means the configuration declares neither lifecycle scripts nor a build
	// matrix; there is nothing for a build leg to do.
	ErrNoWork = errors.New("configuration declares no scripts and no matrix")

	// ErrEmptyCommand means a lifecycle hook contains a command with no text.
	ErrEmptyCommand = errors.New("empty command")

	// ErrEmptyArtifactPath means an artifacts entry has no path glob.
	ErrEmptyArtifactPath = errors.New("artifact has no path")

	// ErrSecureEnv means an environment variable uses the hosted service's `secure:`
	// encrypted form, which cannot be decrypted outside of that service.
	ErrSecureEnv = errors.New("secure environment variables cannot be decrypted locally")

	// ErrEmptyMatrixRow means the environment matrix contains a row with no variables.
	ErrEmptyMatrixRow = errors.New("matrix row has no variables")

	// ErrBadJobFilter means a matrix exclude/allow_failures entry refers to a variable or
	// axis value that no job in the matrix can ever have.
	ErrBadJobFilter = errors.New("filter matches no possible job")

	// ErrBadBranchFilter means the branches section is unusable (e.g. an empty whitelist).
	ErrBadBranchFilter = errors.New("bad branch filter")
)

// ValidationError says what is wrong with a configuration, and where.
type ValidationError struct {
	Section string // e.g. "test_script[2]" or "environment.matrix[0]"
	Message string
	Err     error // one of the Err... sentinels above
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Section != "" {
		return e.Section + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the sentinel error that categorizes this ValidationError.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
