// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	batchRef = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)
	psRef    = regexp.MustCompile(`\$env:([A-Za-z_][A-Za-z0-9_]*)`)
)

// ExpandRefs resolves %VAR% (batch) and $env:VAR (PowerShell) references in a string.
// References that the lookup can't resolve are left as-is, matching the hosted service's
// behavior.  Expansion is a single pass; a reference in the replacement text is not re-expanded.
func ExpandRefs(s string, lookup func(string) (string, bool)) string {
	expand := func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllStringFunc(s, func(ref string) string {
			name := re.FindStringSubmatch(ref)[1]
			if val, ok := lookup(name); ok {
				return val
			}
			return ref
		})
	}
	return expand(psRef, expand(batchRef, s))
}

// BuildVersion renders a `version:` format string for a given build number, substituting the
// {build} placeholder ("1.0.{build}" → "1.0.37").
func BuildVersion(format string, build int) string {
	return strings.ReplaceAll(format, "{build}", strconv.Itoa(build))
}
