// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package buildapi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrSuperseded means a newer build has been queued for the same pull request, so the current
// build is wasted work and should abort immediately.
var ErrSuperseded = errors.New("there are newer queued builds for this pull request")

// GuardEnv is the slice of the hosted service's environment contract that the stale-PR guard
// consumes.
type GuardEnv struct {
	AccountName string
	ProjectSlug string
	BuildNumber int

	// PullRequestNumber is empty when the current build isn't a pull-request build; the
	// guard is then a no-op.
	PullRequestNumber string
}

// GuardEnvFromOS reads the guard's inputs from the APPVEYOR_* environment variables.
func GuardEnvFromOS() (*GuardEnv, error) {
	ret := &GuardEnv{
		AccountName:       os.Getenv("APPVEYOR_ACCOUNT_NAME"),
		ProjectSlug:       os.Getenv("APPVEYOR_PROJECT_SLUG"),
		PullRequestNumber: os.Getenv("APPVEYOR_PULL_REQUEST_NUMBER"),
	}
	if ret.PullRequestNumber == "" {
		return ret, nil
	}
	if ret.AccountName == "" || ret.ProjectSlug == "" {
		return nil, fmt.Errorf("APPVEYOR_ACCOUNT_NAME and APPVEYOR_PROJECT_SLUG must be set to guard pull-request builds")
	}
	buildNumber, err := strconv.Atoi(os.Getenv("APPVEYOR_BUILD_NUMBER"))
	if err != nil {
		return nil, fmt.Errorf("APPVEYOR_BUILD_NUMBER: %w", err)
	}
	ret.BuildNumber = buildNumber
	return ret, nil
}

// CheckStale implements the stale-PR guard: if the build history shows a newer build for the same
// pull request, it returns an error wrapping ErrSuperseded.  It is a single linear check, not a
// retried or recoverable operation; the caller is expected to hard-abort on error.
func (c Client) CheckStale(ctx context.Context, env *GuardEnv) error {
	if env.PullRequestNumber == "" {
		return nil
	}

	builds, err := c.ProjectHistory(ctx, env.AccountName, env.ProjectSlug, 50)
	if err != nil {
		return err
	}

	// History is newest-first; the first build for our PR is the newest one.
	for _, b := range builds {
		if b.PullRequestID != env.PullRequestNumber {
			continue
		}
		if b.BuildNumber != env.BuildNumber {
			return fmt.Errorf("build %d is not the newest build for PR #%s (build %d is): %w",
				env.BuildNumber, env.PullRequestNumber, b.BuildNumber, ErrSuperseded)
		}
		return nil
	}

	// Our own build isn't in the visible history window; nothing to conclude.
	return nil
}
