// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package appveyor

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration describes something a build leg can actually run.  It
// returns the first problem found, as a *ValidationError wrapping one of this package's Err...
// sentinels.
func Validate(cfg *Config) error {
	if err := validateWork(cfg); err != nil {
		return err
	}
	if err := validateHooks(cfg); err != nil {
		return err
	}
	if err := validateEnvironment(cfg); err != nil {
		return err
	}
	if err := validateFilters(cfg); err != nil {
		return err
	}
	if err := validateArtifacts(cfg); err != nil {
		return err
	}
	if err := validateBranches(cfg); err != nil {
		return err
	}
	return nil
}

func validateWork(cfg *Config) error {
	hooks := cfg.Lifecycle()
	for _, hook := range hooks {
		if len(hook.Commands) > 0 {
			return nil
		}
	}
	if cfg.Environment != nil && len(cfg.Environment.Matrix) > 0 {
		return nil
	}
	return &ValidationError{
		Message: ErrNoWork.Error(),
		Err:     ErrNoWork,
	}
}

func validateHooks(cfg *Config) error {
	hooks := append(cfg.Lifecycle(),
		Hook{"on_success", cfg.OnSuccess},
		Hook{"on_failure", cfg.OnFailure},
		Hook{"on_finish", cfg.OnFinish},
	)
	for _, hook := range hooks {
		for i, command := range hook.Commands {
			if strings.TrimSpace(command.Text) == "" {
				return &ValidationError{
					Section: fmt.Sprintf("%s[%d]", hook.Name, i),
					Message: "command has no text",
					Err:     ErrEmptyCommand,
				}
			}
		}
	}
	return nil
}

func validateEnvironment(cfg *Config) error {
	if cfg.Environment == nil {
		return nil
	}
	for name, val := range cfg.Environment.Global {
		if val.Secure != "" {
			return &ValidationError{
				Section: "environment.global." + name,
				Message: ErrSecureEnv.Error(),
				Err:     ErrSecureEnv,
			}
		}
	}
	for i, row := range cfg.Environment.Matrix {
		if len(row) == 0 {
			return &ValidationError{
				Section: fmt.Sprintf("environment.matrix[%d]", i),
				Message: "row declares no variables",
				Err:     ErrEmptyMatrixRow,
			}
		}
		for name, val := range row {
			if val.Secure != "" {
				return &ValidationError{
					Section: fmt.Sprintf("environment.matrix[%d].%s", i, name),
					Message: ErrSecureEnv.Error(),
					Err:     ErrSecureEnv,
				}
			}
		}
	}
	return nil
}

// validateFilters checks that matrix.exclude and matrix.allow_failures entries could match at
// least one job.  A filter naming a variable that appears in no matrix row (or an axis value that
// isn't declared) is almost certainly a typo, and on the hosted service it would silently never
// match.
func validateFilters(cfg *Config) error {
	if cfg.Matrix == nil {
		return nil
	}

	knownVar := func(name string) bool {
		if cfg.Environment == nil {
			return false
		}
		if _, ok := cfg.Environment.Global[name]; ok {
			return true
		}
		for _, row := range cfg.Environment.Matrix {
			if _, ok := row[name]; ok {
				return true
			}
		}
		return false
	}
	knownAxisValue := func(axis StringList, val string) bool {
		for _, known := range axis {
			if known == val {
				return true
			}
		}
		return false
	}

	check := func(section string, filters []JobFilter) error {
		for i, filter := range filters {
			where := fmt.Sprintf("matrix.%s[%d]", section, i)
			if len(filter.Env) == 0 && filter.Platform == "" && filter.Configuration == "" && filter.Image == "" {
				return &ValidationError{
					Section: where,
					Message: "filter is empty",
					Err:     ErrBadJobFilter,
				}
			}
			for _, name := range filter.Env.Keys() {
				if !knownVar(name) {
					return &ValidationError{
						Section: where,
						Message: fmt.Sprintf("no matrix row declares variable %q", name),
						Err:     ErrBadJobFilter,
					}
				}
			}
			if filter.Platform != "" && len(cfg.Platform) > 0 && !knownAxisValue(cfg.Platform, filter.Platform) {
				return &ValidationError{
					Section: where,
					Message: fmt.Sprintf("platform %q is not declared", filter.Platform),
					Err:     ErrBadJobFilter,
				}
			}
			if filter.Configuration != "" && len(cfg.Configuration) > 0 && !knownAxisValue(cfg.Configuration, filter.Configuration) {
				return &ValidationError{
					Section: where,
					Message: fmt.Sprintf("configuration %q is not declared", filter.Configuration),
					Err:     ErrBadJobFilter,
				}
			}
		}
		return nil
	}

	if err := check("exclude", cfg.Matrix.Exclude); err != nil {
		return err
	}
	if err := check("allow_failures", cfg.Matrix.AllowFailures); err != nil {
		return err
	}
	return nil
}

func validateArtifacts(cfg *Config) error {
	for i, artifact := range cfg.Artifacts {
		if strings.TrimSpace(artifact.Path) == "" {
			return &ValidationError{
				Section: fmt.Sprintf("artifacts[%d]", i),
				Message: "artifact has no path",
				Err:     ErrEmptyArtifactPath,
			}
		}
	}
	return nil
}

func validateBranches(cfg *Config) error {
	if cfg.Branches == nil {
		return nil
	}
	if len(cfg.Branches.Only) > 0 && len(cfg.Branches.Except) > 0 {
		return &ValidationError{
			Section: "branches",
			Message: "only and except cannot both be set",
			Err:     ErrBadBranchFilter,
		}
	}
	if len(cfg.Branches.Only) == 0 && len(cfg.Branches.Except) == 0 {
		return &ValidationError{
			Section: "branches",
			Message: "section is present but empty",
			Err:     ErrBadBranchFilter,
		}
	}
	return nil
}
