// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package python derives facts about the Python installation that a build leg targets from the
// leg's environment variables, following the conventional AppVeyor Python layout
// (C:\Python27, C:\Python35-x64, ...).
package python

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datawire/avbuild/pkg/python/pep425"
)

// Arch is the pointer width of a target interpreter.
type Arch int

const (
	Arch32 Arch = 32
	Arch64 Arch = 64
)

// ParseArch parses the spellings that show up in configs: "32"/"64", "x86"/"x64".
func ParseArch(str string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "32", "x86", "win32":
		return Arch32, nil
	case "64", "x64", "amd64", "x86_64":
		return Arch64, nil
	default:
		return 0, fmt.Errorf("python.ParseArch: unrecognized architecture %q", str)
	}
}

// PlatformTag returns the PEP 425 platform tag for Windows builds of this architecture.
func (a Arch) PlatformTag() string {
	if a == Arch64 {
		return "win_amd64"
	}
	return "win32"
}

func (a Arch) String() string {
	return fmt.Sprintf("%d-bit", int(a))
}

// Env describes the Python installation a build leg targets.
type Env struct {
	// Root is the installation prefix, e.g. `C:\Python27-x64`.
	Root string

	Version Version
	Arch    Arch
}

// rootPattern matches the conventional install-path layout, for deriving version/arch when the
// leg doesn't spell them out.
var rootPattern = regexp.MustCompile(`(?i)python(\d)(\d+)(-x64)?\\?$`)

// FromLegEnv derives the Python environment from a build leg's variables.  PYTHON (the install
// prefix) is required; PYTHON_VERSION and PYTHON_ARCH are used when present and otherwise derived
// from the prefix's conventional naming.
func FromLegEnv(env map[string]string) (*Env, error) {
	root := env["PYTHON"]
	if root == "" {
		return nil, fmt.Errorf("python.FromLegEnv: leg environment does not set PYTHON")
	}
	ret := &Env{Root: strings.TrimRight(root, `\`)}

	m := rootPattern.FindStringSubmatch(root)

	if str := env["PYTHON_VERSION"]; str != "" {
		ver, err := ParseVersion(str)
		if err != nil {
			return nil, fmt.Errorf("python.FromLegEnv: PYTHON_VERSION: %w", err)
		}
		ret.Version = *ver
	} else if m != nil {
		ver, err := ParseVersion(m[1] + "." + m[2])
		if err != nil {
			return nil, err
		}
		ret.Version = *ver
	} else {
		return nil, fmt.Errorf("python.FromLegEnv: cannot determine Python version from PYTHON=%q", root)
	}

	if str := env["PYTHON_ARCH"]; str != "" {
		arch, err := ParseArch(str)
		if err != nil {
			return nil, fmt.Errorf("python.FromLegEnv: PYTHON_ARCH: %w", err)
		}
		ret.Arch = arch
	} else if m != nil && m[3] != "" {
		ret.Arch = Arch64
	} else {
		ret.Arch = Arch32
	}

	return ret, nil
}

// Interpreter returns the path of the interpreter executable.
func (e *Env) Interpreter() string {
	return e.Root + `\python.exe`
}

// ScriptsDir returns the directory that pip installs console scripts in to.
func (e *Env) ScriptsDir() string {
	return e.Root + `\Scripts`
}

// Tags returns the PEP 425 tags this environment's pip would accept, from most-preferred to
// least-preferred.
func (e *Env) Tags() (pep425.Installer, error) {
	xy, ok := e.Version.XY()
	if !ok {
		return nil, fmt.Errorf("python.Env.Tags: version %q has no major.minor", e.Version)
	}
	plat := e.Arch.PlatformTag()
	major := fmt.Sprintf("py%d", e.Version.Major())
	return pep425.Installer{
		{Python: "cp" + xy, ABI: "cp" + xy + "m", Platform: plat},
		{Python: "cp" + xy, ABI: "none", Platform: plat},
		{Python: major, ABI: "none", Platform: plat},
		{Python: "cp" + xy, ABI: "none", Platform: "any"},
		{Python: major, ABI: "none", Platform: "any"},
		{Python: "py2.py3", ABI: "none", Platform: "any"},
	}, nil
}

// SupportsWheel reports whether a wheel with the given filename could have been produced for (or
// installed in) this environment, judged by its PEP 425 tag.
func (e *Env) SupportsWheel(filename string) (bool, error) {
	_, _, tag, err := pep425.ParseWheelFilename(filename)
	if err != nil {
		return false, err
	}
	tags, err := e.Tags()
	if err != nil {
		return false, err
	}
	return tags.Supports(tag), nil
}
