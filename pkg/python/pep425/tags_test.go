// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pep425_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/avbuild/pkg/python/pep425"
)

func TestDecompress(t *testing.T) {
	t.Parallel()
	compressed := pep425.Tag{Python: "cp27.cp35", ABI: "none", Platform: "win32.win_amd64"}
	assert.Equal(t, []pep425.Tag{
		{Python: "cp27", ABI: "none", Platform: "win32"},
		{Python: "cp27", ABI: "none", Platform: "win_amd64"},
		{Python: "cp35", ABI: "none", Platform: "win32"},
		{Python: "cp35", ABI: "none", Platform: "win_amd64"},
	}, compressed.Decompress())

	simple := pep425.Tag{Python: "cp27", ABI: "cp27m", Platform: "win32"}
	assert.Equal(t, []pep425.Tag{simple}, simple.Decompress())
}

func TestIntersect(t *testing.T) {
	t.Parallel()
	installer := []pep425.Tag{
		{Python: "cp27", ABI: "cp27m", Platform: "win_amd64"},
		{Python: "py2", ABI: "none", Platform: "any"},
	}
	assert.True(t, pep425.Intersect(installer, []pep425.Tag{
		{Python: "py2.py3", ABI: "none", Platform: "any"},
	}))
	assert.False(t, pep425.Intersect(installer, []pep425.Tag{
		{Python: "cp35", ABI: "cp35m", Platform: "win_amd64"},
	}))
}

func TestParseWheelFilename(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Filename     string
		Distribution string
		Version      string
		Tag          pep425.Tag
		Error        bool
	}
	testcases := map[string]testcase{
		"plain": {
			Filename:     "pywincffi-0.5.0-cp27-cp27m-win32.whl",
			Distribution: "pywincffi",
			Version:      "0.5.0",
			Tag:          pep425.Tag{Python: "cp27", ABI: "cp27m", Platform: "win32"},
		},
		"build-tag": {
			Filename:     "pywincffi-0.5.0-1-cp27-cp27m-win_amd64.whl",
			Distribution: "pywincffi",
			Version:      "0.5.0",
			Tag:          pep425.Tag{Python: "cp27", ABI: "cp27m", Platform: "win_amd64"},
		},
		"compressed": {
			Filename:     "six-1.10.0-py2.py3-none-any.whl",
			Distribution: "six",
			Version:      "1.10.0",
			Tag:          pep425.Tag{Python: "py2.py3", ABI: "none", Platform: "any"},
		},
		"not-a-wheel": {Filename: "pywincffi-0.5.0.tar.gz", Error: true},
		"too-few":    {Filename: "pywincffi-0.5.0.whl", Error: true},
		"too-many":   {Filename: "a-b-c-d-e-f-g.whl", Error: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			dist, ver, tag, err := pep425.ParseWheelFilename(tc.Filename)
			if tc.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Distribution, dist)
			assert.Equal(t, tc.Version, ver)
			assert.Equal(t, tc.Tag, tag)
		})
	}
}

func TestTagString(t *testing.T) {
	t.Parallel()
	tag := pep425.Tag{Python: "cp27", ABI: "none", Platform: "win32"}
	assert.Equal(t, "cp27-none-win32", tag.String())
}
