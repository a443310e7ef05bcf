// Package pep425 implements PEP 425 -- Compatibility Tags for Built Distributions.
//
// https://www.python.org/dev/peps/pep-0425/
package pep425

import (
	"fmt"
	"strings"
)

// Tag is a (python, abi, platform) compatibility tag.  Each component may be a compressed
// '.'-separated set, e.g. "cp27.cp35-none-win32.win_amd64".
type Tag struct {
	Python   string
	ABI      string
	Platform string
}

// Decompress expands a compressed tag set in to the simple tags it denotes.
func (t Tag) Decompress() []Tag {
	var ret []Tag
	for _, x := range strings.Split(t.Python, ".") {
		for _, y := range strings.Split(t.ABI, ".") {
			for _, z := range strings.Split(t.Platform, ".") {
				ret = append(ret, Tag{x, y, z})
			}
		}
	}
	return ret
}

func (t Tag) String() string {
	return t.Python + "-" + t.ABI + "-" + t.Platform
}

// Intersect returns whether any tag in tag-list 'a' matches any tag in tag-list 'b'; considering
// compressed tag sets.
func Intersect(a, b []Tag) bool {
	for _, a1 := range a {
		for _, a2 := range a1.Decompress() {
			for _, b1 := range b {
				for _, b2 := range b1.Decompress() {
					if a2 == b2 {
						return true
					}
				}
			}
		}
	}
	return false
}

// Installer is a list of tags that an installer supports, ordered from most-preferred to
// least-preferred.
type Installer []Tag

func (inst Installer) Supports(t Tag) bool {
	return Intersect([]Tag(inst), []Tag{t})
}

// ParseWheelFilename parses a wheel filename per the PEP 427 naming convention
//
//	{distribution}-{version}(-{build tag})?-{python tag}-{abi tag}-{platform tag}.whl
//
// and returns the distribution name, the version string, and the (possibly compressed) tag.
func ParseWheelFilename(filename string) (distribution, version string, tag Tag, err error) {
	base := strings.TrimSuffix(filename, ".whl")
	if base == filename {
		return "", "", Tag{}, fmt.Errorf("pep425.ParseWheelFilename: not a .whl filename: %q", filename)
	}
	parts := strings.Split(base, "-")
	switch len(parts) {
	case 5:
		// no build tag
	case 6:
		parts = append(parts[:2], parts[3:]...)
	default:
		return "", "", Tag{}, fmt.Errorf("pep425.ParseWheelFilename: expected 5 or 6 '-'-separated fields, got %d: %q",
			len(parts), filename)
	}
	return parts[0], parts[1], Tag{Python: parts[2], ABI: parts[3], Platform: parts[4]}, nil
}
