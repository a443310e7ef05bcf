// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package matrix expands an appveyor.Config's build matrix in to the concrete list of build legs
// that a hosted CI runner would provision.
package matrix

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/datawire/avbuild/pkg/appveyor"
)

// Leg is one cell of the expanded build matrix: a concrete combination of environment row, image,
// platform, and configuration.  Legs are independent of one another; nothing in a Leg is shared.
type Leg struct {
	// Ordinal is the leg's position in the expanded matrix, starting at 0.  It is stable for
	// a given configuration.
	Ordinal int `yaml:"ordinal" json:"ordinal"`

	// Name is the human-oriented job name, in the hosted service's style:
	// "Environment: PYTHON=C:\Python27, PYTHON_ARCH=32; Platform: x86".
	Name string `yaml:"name" json:"name"`

	Image         string `yaml:"image,omitempty" json:"image,omitempty"`
	Platform      string `yaml:"platform,omitempty" json:"platform,omitempty"`
	Configuration string `yaml:"configuration,omitempty" json:"configuration,omitempty"`

	// Env is the merged environment for the leg: global variables overlaid with the leg's
	// matrix row, with %VAR% and $env:VAR references resolved.
	Env map[string]string `yaml:"environment" json:"environment"`

	// RowKeys is the sorted set of variable names that came from the matrix row itself (as
	// opposed to the global section); these are what distinguish this leg from its siblings.
	RowKeys []string `yaml:"-" json:"-"`

	// AllowFailure marks legs matched by matrix.allow_failures.
	AllowFailure bool `yaml:"allow_failure,omitempty" json:"allow_failure,omitempty"`
}

// Expand computes the build legs for a configuration: the cross product of environment matrix
// rows × images × platforms × configurations, minus matrix.exclude matches, with
// matrix.allow_failures legs marked.  Axes that the configuration doesn't declare contribute a
// single implicit entry, so a configuration with only an 8-row environment matrix yields exactly
// 8 legs.
//
// The result order is deterministic: row-major, with the environment row as the outermost axis.
func Expand(cfg *appveyor.Config) []Leg {
	var rows []appveyor.EnvMap
	var global appveyor.EnvMap
	if cfg.Environment != nil {
		rows = cfg.Environment.Matrix
		global = cfg.Environment.Global
	}
	if len(rows) == 0 {
		rows = []appveyor.EnvMap{nil}
	}
	images := axis(cfg.Image)
	platforms := axis(cfg.Platform)
	configurations := axis(cfg.Configuration)

	var legs []Leg
	for _, row := range rows {
		for _, image := range images {
			for _, platform := range platforms {
				for _, configuration := range configurations {
					leg := Leg{
						Ordinal:       len(legs),
						Image:         image,
						Platform:      platform,
						Configuration: configuration,
						Env:           mergeEnv(global, row),
						RowKeys:       row.Keys(),
					}
					if cfg.Matrix != nil && matchesAny(cfg.Matrix.Exclude, &leg) {
						continue
					}
					if cfg.Matrix != nil && matchesAny(cfg.Matrix.AllowFailures, &leg) {
						leg.AllowFailure = true
					}
					leg.Name = legName(&leg)
					legs = append(legs, leg)
				}
			}
		}
	}
	return legs
}

// axis turns a declared axis in to the list to iterate over, using a single implicit entry when
// the axis isn't declared.
func axis(declared appveyor.StringList) []string {
	if len(declared) == 0 {
		return []string{""}
	}
	return []string(declared)
}

// mergeEnv overlays a matrix row on the global environment and resolves variable references in
// the values.  The row wins on conflicts.
//
// References are resolved to a fixed point in sorted-name order, so that a chain like A=%B%,
// B=%C% gives the same Leg.Env on every expansion.  A self reference (or a reference cycle)
// stops resolving instead of looping.
func mergeEnv(global, row appveyor.EnvMap) map[string]string {
	merged := make(map[string]string, len(global)+len(row))
	for name, val := range global {
		merged[name] = val.String()
	}
	for name, val := range row {
		merged[name] = val.String()
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	// A chain can be at most len(merged) long, so that many passes always reaches the fixed
	// point.
	for pass := 0; pass < len(merged); pass++ {
		changed := false
		for _, name := range names {
			name := name
			expanded := ExpandRefs(merged[name], func(ref string) (string, bool) {
				if resolved, ok := merged[ref]; ok && ref != name {
					return resolved, true
				}
				return os.LookupEnv(ref)
			})
			if expanded != merged[name] {
				merged[name] = expanded
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return merged
}

// matchesAny reports whether any of the filters selects the leg.
func matchesAny(filters []appveyor.JobFilter, leg *Leg) bool {
	for i := range filters {
		if matches(&filters[i], leg) {
			return true
		}
	}
	return false
}

// matches reports whether every field the filter specifies agrees with the leg.
func matches(filter *appveyor.JobFilter, leg *Leg) bool {
	if filter.Image != "" && filter.Image != leg.Image {
		return false
	}
	if filter.Platform != "" && filter.Platform != leg.Platform {
		return false
	}
	if filter.Configuration != "" && filter.Configuration != leg.Configuration {
		return false
	}
	for name, want := range filter.Env {
		if got, ok := leg.Env[name]; !ok || got != want.String() {
			return false
		}
	}
	return true
}

// legName renders the job name the way the hosted service displays it.
func legName(leg *Leg) string {
	var segments []string
	if leg.Image != "" {
		segments = append(segments, "Image: "+leg.Image)
	}
	if len(leg.RowKeys) > 0 {
		pairs := make([]string, 0, len(leg.RowKeys))
		for _, key := range leg.RowKeys {
			pairs = append(pairs, key+"="+leg.Env[key])
		}
		segments = append(segments, "Environment: "+strings.Join(pairs, ", "))
	}
	if leg.Platform != "" {
		segments = append(segments, "Platform: "+leg.Platform)
	}
	if leg.Configuration != "" {
		segments = append(segments, "Configuration: "+leg.Configuration)
	}
	if len(segments) == 0 {
		return fmt.Sprintf("Job #%d", leg.Ordinal+1)
	}
	return strings.Join(segments, "; ")
}

// SortedEnv returns the leg's environment as sorted NAME=value pairs, fit for handing to a
// process.
func (leg *Leg) SortedEnv() []string {
	pairs := make([]string, 0, len(leg.Env))
	for name, val := range leg.Env {
		pairs = append(pairs, name+"="+val)
	}
	sort.Strings(pairs)
	return pairs
}
