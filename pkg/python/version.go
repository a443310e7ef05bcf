// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package python

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a Python interpreter version the way appveyor.yml files write them: dotted release
// segments with an optional trailing ".x" wildcard ("2.7.x", "3.5", "2.7.11").
type Version struct {
	Release []int

	// Wildcard is whether the version ended in ".x", meaning "the newest micro release of
	// this series".
	Wildcard bool
}

// ParseVersion parses a version string, performing normalization.
func ParseVersion(str string) (*Version, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, fmt.Errorf("python.ParseVersion: empty version")
	}
	parts := strings.Split(str, ".")
	var ret Version
	for i, part := range parts {
		if (part == "x" || part == "X" || part == "*") && i == len(parts)-1 && i > 0 {
			ret.Wildcard = true
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("python.ParseVersion: invalid release segment %q in %q", part, str)
		}
		ret.Release = append(ret.Release, n)
	}
	return &ret, nil
}

// String implements fmt.Stringer; it renders the normalized form (wildcard as ".x").
func (v Version) String() string {
	var ret strings.Builder
	for i, segment := range v.Release {
		if i > 0 {
			ret.WriteByte('.')
		}
		fmt.Fprintf(&ret, "%d", segment)
	}
	if v.Wildcard {
		ret.WriteString(".x")
	}
	return ret.String()
}

// Major returns the major version number, or -1 if unknown.
func (v Version) Major() int {
	if len(v.Release) < 1 {
		return -1
	}
	return v.Release[0]
}

// Minor returns the minor version number, or -1 if unknown.
func (v Version) Minor() int {
	if len(v.Release) < 2 {
		return -1
	}
	return v.Release[1]
}

// XY returns the major+minor digits as used in CPython tags and install paths ("27", "35"), and
// whether they are known.
func (v Version) XY() (string, bool) {
	if len(v.Release) < 2 {
		return "", false
	}
	return fmt.Sprintf("%d%d", v.Release[0], v.Release[1]), true
}

// Matches reports whether a concrete interpreter version satisfies this (possibly wildcard)
// version: "2.7.x" matches "2.7.11", "2.7" matches only "2.7".
func (v Version) Matches(concrete Version) bool {
	if v.Wildcard {
		if len(concrete.Release) < len(v.Release) {
			return false
		}
	} else if len(concrete.Release) != len(v.Release) {
		return false
	}
	for i, segment := range v.Release {
		if concrete.Release[i] != segment {
			return false
		}
	}
	return true
}

// Cmp compares two versions segment-wise; a missing segment sorts before zero.
func (v Version) Cmp(other Version) int {
	for i := 0; i < len(v.Release) || i < len(other.Release); i++ {
		a, b := -1, -1
		if i < len(v.Release) {
			a = v.Release[i]
		}
		if i < len(other.Release) {
			b = other.Release[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}
