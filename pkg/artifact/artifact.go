// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package artifact resolves an appveyor.yml `artifacts:` section against a build directory, and
// deals with collecting and packaging the files it selects.
package artifact

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/datawire/avbuild/pkg/appveyor"
)

// Entry is one file selected by an artifacts rule.
type Entry struct {
	// Path is the file's path relative to the build root, in forward-slash form.
	Path string `yaml:"path" json:"path"`

	// RuleName is the `name:` of the artifacts rule that selected the file, if the rule had
	// one.
	RuleName string `yaml:"name,omitempty" json:"name,omitempty"`

	// Size in bytes.
	Size int64 `yaml:"size" json:"size"`

	abspath string
	info    fs.FileInfo
}

// Open opens the artifact's content.
func (e *Entry) Open() (io.ReadCloser, error) {
	file, err := os.Open(e.abspath)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Info returns the artifact file's FileInfo as of when it was resolved.
func (e *Entry) Info() fs.FileInfo { return e.info }

// Resolve evaluates the artifact rules against a build directory and returns the files they
// select, in rule order (and glob order within a rule).  Globs use the configuration's Windows
// conventions (`dist\*.whl`); they are normalized for the host.  A rule that matches nothing is
// not an error: the hosted service behaves the same way, and a leg that builds no MSI simply
// publishes none.
func Resolve(root string, rules []appveyor.Artifact) ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry
	for _, rule := range rules {
		pattern := filepath.FromSlash(normalizePath(rule.Path))
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("artifact path %q: %w", rule.Path, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, err
			}
			if !info.Mode().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(root, match)
			if err != nil {
				return nil, err
			}
			rel = filepath.ToSlash(rel)
			if seen[rel] {
				continue
			}
			seen[rel] = true
			entries = append(entries, Entry{
				Path:     rel,
				RuleName: rule.Name,
				Size:     info.Size(),
				abspath:  match,
				info:     info,
			})
		}
	}
	return entries, nil
}

// normalizePath converts a config-side path (backslash-separated, possibly with a drive-relative
// flavor) to forward slashes.
func normalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
