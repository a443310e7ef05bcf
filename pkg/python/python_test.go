// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package python_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/avbuild/pkg/python"
)

func TestParseArch(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Input    string
		Expected python.Arch
		Error    bool
	}
	testcases := map[string]testcase{
		"32":      {Input: "32", Expected: python.Arch32},
		"64":      {Input: "64", Expected: python.Arch64},
		"x86":     {Input: "x86", Expected: python.Arch32},
		"x64":     {Input: "x64", Expected: python.Arch64},
		"amd64":   {Input: "AMD64", Expected: python.Arch64},
		"padded":  {Input: " 64 ", Expected: python.Arch64},
		"unknown": {Input: "ia64", Error: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			arch, err := python.ParseArch(tc.Input)
			if tc.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, arch)
		})
	}
}

func TestFromLegEnv(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Env      map[string]string
		Expected *python.Env
		Error    bool
	}
	testcases := map[string]testcase{
		"explicit": {
			Env: map[string]string{
				"PYTHON":         `C:\Python27`,
				"PYTHON_VERSION": "2.7.x",
				"PYTHON_ARCH":    "32",
			},
			Expected: &python.Env{
				Root:    `C:\Python27`,
				Version: python.Version{Release: []int{2, 7}, Wildcard: true},
				Arch:    python.Arch32,
			},
		},
		"explicit-x64": {
			Env: map[string]string{
				"PYTHON":         `C:\Python35-x64`,
				"PYTHON_VERSION": "3.5.x",
				"PYTHON_ARCH":    "64",
			},
			Expected: &python.Env{
				Root:    `C:\Python35-x64`,
				Version: python.Version{Release: []int{3, 5}, Wildcard: true},
				Arch:    python.Arch64,
			},
		},
		"derived-from-path": {
			Env: map[string]string{
				"PYTHON": `C:\Python34-x64`,
			},
			Expected: &python.Env{
				Root:    `C:\Python34-x64`,
				Version: python.Version{Release: []int{3, 4}},
				Arch:    python.Arch64,
			},
		},
		"derived-32bit": {
			Env: map[string]string{
				"PYTHON": `C:\Python26\`,
			},
			Expected: &python.Env{
				Root:    `C:\Python26`,
				Version: python.Version{Release: []int{2, 6}},
				Arch:    python.Arch32,
			},
		},
		"no-python": {
			Env:   map[string]string{"PYTHON_VERSION": "2.7.x"},
			Error: true,
		},
		"unconventional-path-no-version": {
			Env:   map[string]string{"PYTHON": `C:\Miniconda`},
			Error: true,
		},
		"unconventional-path-with-version": {
			Env: map[string]string{
				"PYTHON":         `C:\Miniconda`,
				"PYTHON_VERSION": "3.5",
			},
			Expected: &python.Env{
				Root:    `C:\Miniconda`,
				Version: python.Version{Release: []int{3, 5}},
				Arch:    python.Arch32,
			},
		},
		"bad-arch": {
			Env: map[string]string{
				"PYTHON":      `C:\Python27`,
				"PYTHON_ARCH": "sparc",
			},
			Error: true,
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			env, err := python.FromLegEnv(tc.Env)
			if tc.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, env)
		})
	}
}

func TestEnvPaths(t *testing.T) {
	t.Parallel()
	env := &python.Env{Root: `C:\Python27-x64`}
	assert.Equal(t, `C:\Python27-x64\python.exe`, env.Interpreter())
	assert.Equal(t, `C:\Python27-x64\Scripts`, env.ScriptsDir())
}

func TestSupportsWheel(t *testing.T) {
	t.Parallel()
	env, err := python.FromLegEnv(map[string]string{
		"PYTHON":         `C:\Python27-x64`,
		"PYTHON_VERSION": "2.7.x",
		"PYTHON_ARCH":    "64",
	})
	require.NoError(t, err)

	type testcase struct {
		Filename string
		Expected bool
		Error    bool
	}
	testcases := map[string]testcase{
		"native":       {Filename: "pywincffi-0.5.0-cp27-cp27m-win_amd64.whl", Expected: true},
		"pure":         {Filename: "six-1.10.0-py2.py3-none-any.whl", Expected: true},
		"wrong-arch":   {Filename: "pywincffi-0.5.0-cp27-cp27m-win32.whl", Expected: false},
		"wrong-python": {Filename: "pywincffi-0.5.0-cp35-cp35m-win_amd64.whl", Expected: false},
		"build-tag":    {Filename: "pywincffi-0.5.0-1-cp27-cp27m-win_amd64.whl", Expected: true},
		"not-a-wheel":  {Filename: "pywincffi-0.5.0.tar.gz", Error: true},
		"short":        {Filename: "pywincffi-0.5.0.whl", Error: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			ok, err := env.SupportsWheel(tc.Filename)
			if tc.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, ok)
		})
	}
}
