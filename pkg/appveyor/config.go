// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package appveyor deals with parsing and validating AppVeyor-style `appveyor.yml` configuration
// files.
//
// https://www.appveyor.com/docs/appveyor-yml/
package appveyor

import (
	"encoding/json"
	"fmt"
)

// Config is the parsed form of an appveyor.yml file.  It covers the declarative surface that a
// build leg consumes: the version format, the environment matrix, the lifecycle hook scripts, and
// the artifact globs.  Deployment and notification sections are intentionally not modeled.
type Config struct {
	// Version is the build version format, e.g. "1.0.{build}".
	Version string `json:"version,omitempty"`

	// Image names the build worker image(s), e.g. "Visual Studio 2015".
	Image StringList `json:"image,omitempty"`

	// CloneFolder is where the hosted service clones the repository.
	CloneFolder string `json:"clone_folder,omitempty"`

	Branches *Branches `json:"branches,omitempty"`

	Environment   *Environment   `json:"environment,omitempty"`
	Platform      StringList     `json:"platform,omitempty"`
	Configuration StringList     `json:"configuration,omitempty"`
	Matrix        *MatrixOptions `json:"matrix,omitempty"`

	Build *Build `json:"build,omitempty"`

	Init        CommandList `json:"init,omitempty"`
	Install     CommandList `json:"install,omitempty"`
	BeforeBuild CommandList `json:"before_build,omitempty"`
	BuildScript CommandList `json:"build_script,omitempty"`
	AfterBuild  CommandList `json:"after_build,omitempty"`
	BeforeTest  CommandList `json:"before_test,omitempty"`
	TestScript  CommandList `json:"test_script,omitempty"`
	AfterTest   CommandList `json:"after_test,omitempty"`
	OnSuccess   CommandList `json:"on_success,omitempty"`
	OnFailure   CommandList `json:"on_failure,omitempty"`
	OnFinish    CommandList `json:"on_finish,omitempty"`

	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// StringList is a YAML field that may be written as either a single string or a list of strings
// ("platform: x86" vs "platform: [x86, x64]").
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*l = StringList{str}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("must be a string or a list of strings: %w", err)
	}
	*l = StringList(list)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l StringList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]string(l))
}

// Branches is the `branches:` section; a whitelist or blacklist of branch names to build.
type Branches struct {
	Only   []string `json:"only,omitempty"`
	Except []string `json:"except,omitempty"`
}

// Match reports whether a branch should be built under this filter.
func (b *Branches) Match(branch string) bool {
	if b == nil {
		return true
	}
	if len(b.Only) > 0 {
		for _, only := range b.Only {
			if branch == only {
				return true
			}
		}
		return false
	}
	for _, except := range b.Except {
		if branch == except {
			return false
		}
	}
	return true
}

// MatrixOptions is the `matrix:` section (not to be confused with `environment.matrix`, the list
// of environment rows).
type MatrixOptions struct {
	// FastFinish stops the whole matrix as soon as one leg fails.
	FastFinish bool `json:"fast_finish,omitempty"`

	// AllowFailures marks legs whose failure does not fail the matrix.
	AllowFailures []JobFilter `json:"allow_failures,omitempty"`

	// Exclude removes legs from the expanded matrix.
	Exclude []JobFilter `json:"exclude,omitempty"`
}

// JobFilter selects legs out of the expanded matrix for exclusion or allowed failure.  In the
// YAML, the keys `image`, `platform`, and `configuration` select on those axes; an `environment`
// key nests variable matches; and any other key is shorthand for an environment variable match:
//
//	matrix:
//	  exclude:
//	    - platform: x86
//	      PYTHON: C:\\Python33
type JobFilter struct {
	Image         string
	Platform      string
	Configuration string
	Env           EnvMap
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *JobFilter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("job filter must be a mapping: %w", err)
	}

	*f = JobFilter{}
	for key, val := range raw {
		switch key {
		case "image", "platform", "configuration":
			var str string
			if err := json.Unmarshal(val, &str); err != nil {
				return fmt.Errorf("job filter %s: %w", key, err)
			}
			switch key {
			case "image":
				f.Image = str
			case "platform":
				f.Platform = str
			case "configuration":
				f.Configuration = str
			}
		case "environment":
			var env EnvMap
			if err := json.Unmarshal(val, &env); err != nil {
				return fmt.Errorf("job filter environment: %w", err)
			}
			if f.Env == nil {
				f.Env = make(EnvMap, len(env))
			}
			for name, envval := range env {
				f.Env[name] = envval
			}
		default:
			var envval EnvValue
			if err := json.Unmarshal(val, &envval); err != nil {
				return fmt.Errorf("job filter %s: %w", key, err)
			}
			if f.Env == nil {
				f.Env = make(EnvMap)
			}
			f.Env[key] = envval
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f JobFilter) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{})
	if f.Image != "" {
		obj["image"] = f.Image
	}
	if f.Platform != "" {
		obj["platform"] = f.Platform
	}
	if f.Configuration != "" {
		obj["configuration"] = f.Configuration
	}
	for name, val := range f.Env {
		obj[name] = val
	}
	return json.Marshal(obj)
}

// Build is the `build:` section.  `build: off` disables the build phase entirely; otherwise the
// section configures MSBuild, of which we model only the bits that affect which commands run.
type Build struct {
	Off       bool   `json:"-"`
	Project   string `json:"project,omitempty"`
	Verbosity string `json:"verbosity,omitempty"`
	Parallel  bool   `json:"parallel,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Build) UnmarshalJSON(data []byte) error {
	var enabled bool
	if err := json.Unmarshal(data, &enabled); err == nil {
		*b = Build{Off: !enabled}
		return nil
	}
	type buildNoRecursion Build
	var inner buildNoRecursion
	if err := json.Unmarshal(data, &inner); err != nil {
		return fmt.Errorf("build must be `off` or a mapping: %w", err)
	}
	*b = Build(inner)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b Build) MarshalJSON() ([]byte, error) {
	if b.Off {
		return json.Marshal(false)
	}
	type buildNoRecursion Build
	return json.Marshal(buildNoRecursion(b))
}

// Artifact is one entry in the `artifacts:` section: a file glob to retain after the build,
// relative to the build directory, plus an optional deployment name.
type Artifact struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}
