// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package build executes the legs of an expanded build matrix on the local host: each leg's
// lifecycle hooks run in order, a non-zero exit from any command fails the leg, and the leg's
// declared artifacts are resolved afterward.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"github.com/datawire/avbuild/pkg/appveyor"
	"github.com/datawire/avbuild/pkg/artifact"
	"github.com/datawire/avbuild/pkg/matrix"
	"github.com/datawire/avbuild/pkg/python"
)

// Runner executes build legs for one configuration.
type Runner struct {
	Config *appveyor.Config

	// Dir is the build root that commands run in (what the hosted service calls the clone
	// folder).
	Dir string

	// ArtifactsDir, if non-empty, is where each leg's resolved artifacts get collected,
	// under a per-leg subdirectory.
	ArtifactsDir string

	// BuildNumber is used for the {build} placeholder in the version format.
	BuildNumber int

	// GOOS overrides the host OS for shell selection; empty means runtime.GOOS.
	GOOS string
}

// Status is the outcome of one leg.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	// StatusAllowedFailure is a failed leg that matrix.allow_failures excuses.
	StatusAllowedFailure Status = "allowed_failure"
)

// LegResult is what running one leg produced.
type LegResult struct {
	Leg    matrix.Leg
	Status Status

	// FailedHook is which lifecycle hook failed, when Status isn't success.
	FailedHook string
	Err        error

	Artifacts []artifact.Entry
}

func (r *Runner) goos() string {
	if r.GOOS != "" {
		return r.GOOS
	}
	return runtime.GOOS
}

// legEnviron builds the process environment for a leg: the host environment, the leg's merged
// variables, and the informational variables the hosted service would export.
func (r *Runner) legEnviron(leg *matrix.Leg) []string {
	env := append(os.Environ(), leg.SortedEnv()...)
	env = append(env, "APPVEYOR_BUILD_NUMBER="+strconv.Itoa(r.BuildNumber))
	if r.Config.Version != "" {
		env = append(env, "APPVEYOR_BUILD_VERSION="+matrix.BuildVersion(r.Config.Version, r.BuildNumber))
	}
	env = append(env, "APPVEYOR_JOB_NAME="+leg.Name)
	if leg.Platform != "" {
		env = append(env, "PLATFORM="+leg.Platform)
	}
	if leg.Configuration != "" {
		env = append(env, "CONFIGURATION="+leg.Configuration)
	}
	return env
}

// RunLeg runs one leg's full lifecycle.  The returned LegResult always says what happened; the
// leg failing is reported in the result, not as a Go error.
func (r *Runner) RunLeg(ctx context.Context, leg *matrix.Leg) *LegResult {
	ctx = dlog.WithField(ctx, "leg", leg.Ordinal)
	dlog.Infof(ctx, "starting %q", leg.Name)

	result := &LegResult{
		Leg:    *leg,
		Status: StatusSuccess,
	}
	env := r.legEnviron(leg)

	for _, hook := range r.Config.Lifecycle() {
		if err := r.runHook(ctx, env, hook); err != nil {
			result.Status = StatusFailed
			result.FailedHook = hook.Name
			result.Err = err
			break
		}
	}

	// The epilogue hooks run regardless, and their own failures don't change the leg's
	// status; they can't un-fail a build, and a broken notification script shouldn't fail a
	// green one.
	if result.Status == StatusSuccess {
		if err := r.runHook(ctx, env, appveyor.Hook{Name: "on_success", Commands: r.Config.OnSuccess}); err != nil {
			dlog.Errorf(ctx, "on_success: %v", err)
		}
	} else {
		if err := r.runHook(ctx, env, appveyor.Hook{Name: "on_failure", Commands: r.Config.OnFailure}); err != nil {
			dlog.Errorf(ctx, "on_failure: %v", err)
		}
	}
	if err := r.runHook(ctx, env, appveyor.Hook{Name: "on_finish", Commands: r.Config.OnFinish}); err != nil {
		dlog.Errorf(ctx, "on_finish: %v", err)
	}

	if entries, err := r.resolveArtifacts(ctx, leg); err != nil {
		dlog.Errorf(ctx, "artifacts: %v", err)
		if result.Err == nil {
			result.Status = StatusFailed
			result.FailedHook = "artifacts"
			result.Err = err
		}
	} else {
		result.Artifacts = entries
	}

	if result.Status == StatusFailed && leg.AllowFailure {
		result.Status = StatusAllowedFailure
	}
	dlog.Infof(ctx, "finished %q: %s", leg.Name, result.Status)
	return result
}

func (r *Runner) runHook(ctx context.Context, env []string, hook appveyor.Hook) error {
	for i, command := range hook.Commands {
		argv, err := Argv(r.goos(), command.Shell, command.Text)
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", hook.Name, i, err)
		}
		cmd := dexec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = r.Dir
		cmd.Env = env
		cmd.Stdout = dlog.StdLogger(ctx, dlog.LogLevelInfo).Writer()
		cmd.Stderr = dlog.StdLogger(ctx, dlog.LogLevelWarn).Writer()
		if err := cmd.Run(); err != nil {
			// The exit-code contract: the first non-zero exit fails the hook.
			return fmt.Errorf("%s[%d]: %q: %w", hook.Name, i, command.Text, err)
		}
	}
	return nil
}

// resolveArtifacts evaluates the artifacts globs for a finished leg, warns about wheels whose
// PEP 425 tag the leg's Python couldn't have produced, and collects the files if the Runner has
// an ArtifactsDir.
func (r *Runner) resolveArtifacts(ctx context.Context, leg *matrix.Leg) ([]artifact.Entry, error) {
	if len(r.Config.Artifacts) == 0 {
		return nil, nil
	}
	entries, err := artifact.Resolve(r.Dir, r.Config.Artifacts)
	if err != nil {
		return nil, err
	}

	if pyenv, err := python.FromLegEnv(leg.Env); err == nil {
		for i := range entries {
			name := filepath.Base(entries[i].Path)
			if filepath.Ext(name) != ".whl" {
				continue
			}
			ok, err := pyenv.SupportsWheel(name)
			if err != nil {
				dlog.Warnf(ctx, "artifact %s: %v", entries[i].Path, err)
			} else if !ok {
				dlog.Warnf(ctx, "artifact %s: wheel tag does not match the leg's Python (%s, %s)",
					entries[i].Path, pyenv.Version, pyenv.Arch)
			}
		}
	}

	if r.ArtifactsDir != "" {
		legDir := filepath.Join(r.ArtifactsDir, fmt.Sprintf("job-%d", leg.Ordinal))
		if err := artifact.Collect(entries, legDir); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// RunMatrix runs all the legs, up to `parallel` of them at a time.  Legs are isolated from each
// other by construction; the only coordination is the fast_finish cancellation.  The error return
// summarizes the run; per-leg outcomes are in the results.
func (r *Runner) RunMatrix(ctx context.Context, legs []matrix.Leg, parallel int) ([]LegResult, error) {
	if parallel < 1 {
		parallel = 1
	}
	fastFinish := r.Config.Matrix != nil && r.Config.Matrix.FastFinish

	results := make([]*LegResult, len(legs))
	queue := make(chan int)

	group := dgroup.NewGroup(ctx, dgroup.GroupConfig{})
	group.Go("feed", func(ctx context.Context) error {
		defer close(queue)
		for i := range legs {
			select {
			case queue <- i:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})
	for w := 0; w < parallel; w++ {
		group.Go(fmt.Sprintf("worker-%d", w), func(ctx context.Context) error {
			for i := range queue {
				result := r.RunLeg(ctx, &legs[i])
				results[i] = result
				if result.Status == StatusFailed && fastFinish {
					return fmt.Errorf("leg %d failed with fast_finish set: %w", i, result.Err)
				}
			}
			return nil
		})
	}
	groupErr := group.Wait()

	var ret []LegResult
	var errs derror.MultiError
	for _, result := range results {
		if result == nil {
			// fast_finish canceled this leg before it started.
			continue
		}
		if result.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("leg %d (%s): %s: %w",
				result.Leg.Ordinal, result.Leg.Name, result.FailedHook, result.Err))
		}
		ret = append(ret, *result)
	}
	if len(errs) > 0 {
		return ret, fmt.Errorf("%d of %d legs failed: %w", len(errs), len(legs), errs)
	}
	if groupErr != nil {
		return ret, groupErr
	}
	return ret, nil
}
