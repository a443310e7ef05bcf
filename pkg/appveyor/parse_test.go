// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package appveyor_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/avbuild/pkg/appveyor"
)

func TestLoadPywincffiV1(t *testing.T) {
	t.Parallel()
	cfg, err := appveyor.Load(filepath.Join("testdata", "pywincffi-v1.yml"))
	require.NoError(t, err)
	require.NoError(t, appveyor.Validate(cfg))

	require.NotNil(t, cfg.Environment)
	assert.Len(t, cfg.Environment.Matrix, 8)
	assert.Empty(t, cfg.Environment.Global)

	require.NotNil(t, cfg.Build)
	assert.True(t, cfg.Build.Off)

	assert.Len(t, cfg.Install, 1)
	assert.Equal(t, appveyor.ShellDefault, cfg.Install[0].Shell)
	assert.Len(t, cfg.TestScript, 1)
	assert.Len(t, cfg.AfterTest, 1)

	require.Len(t, cfg.Artifacts, 1)
	assert.Equal(t, `dist\*`, cfg.Artifacts[0].Path)
}

func TestLoadPywincffiV2(t *testing.T) {
	t.Parallel()
	cfg, err := appveyor.Load(filepath.Join("testdata", "pywincffi-v2.yml"))
	require.NoError(t, err)
	require.NoError(t, appveyor.Validate(cfg))

	assert.Equal(t, "1.0.{build}", cfg.Version)

	require.NotNil(t, cfg.Environment)
	assert.Len(t, cfg.Environment.Matrix, 10)
	require.Contains(t, cfg.Environment.Global, "WITH_COMPILER")

	require.Len(t, cfg.Install, 4)
	assert.Equal(t, appveyor.ShellPS, cfg.Install[0].Shell)
	assert.Contains(t, cfg.Install[0].Text, "APPVEYOR_PULL_REQUEST_NUMBER")
	assert.Equal(t, appveyor.ShellDefault, cfg.Install[1].Shell)

	require.Len(t, cfg.Artifacts, 4)
	assert.Equal(t, `dist\*.whl`, cfg.Artifacts[0].Path)
	assert.Equal(t, "wheels", cfg.Artifacts[0].Name)
	assert.Equal(t, `.coverage`, cfg.Artifacts[3].Path)
	assert.Equal(t, "", cfg.Artifacts[3].Name)
}

func TestParseCommands(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Input    string
		Expected appveyor.CommandList
		Error    bool
	}
	testcases := map[string]testcase{
		"bare-string": {
			Input: "install:\n  - echo hello\n",
			Expected: appveyor.CommandList{
				{Shell: appveyor.ShellDefault, Text: "echo hello"},
			},
		},
		"tagged": {
			Input: "install:\n  - cmd: echo batch\n  - ps: Write-Host ps\n  - sh: echo posix\n",
			Expected: appveyor.CommandList{
				{Shell: appveyor.ShellCmd, Text: "echo batch"},
				{Shell: appveyor.ShellPS, Text: "Write-Host ps"},
				{Shell: appveyor.ShellSh, Text: "echo posix"},
			},
		},
		"unknown-tag": {
			Input: "install:\n  - bash: echo nope\n",
			Error: true,
		},
		"multi-key": {
			Input: "install:\n  - cmd: echo a\n    ps: echo b\n",
			Error: true,
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			cfg, err := appveyor.Parse([]byte(tc.Input))
			if tc.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, cfg.Install)
		})
	}
}

func TestParseStrict(t *testing.T) {
	t.Parallel()
	_, err := appveyor.Parse([]byte("tst_script:\n  - echo typo\n"))
	assert.Error(t, err)
}

func TestParseEnvValues(t *testing.T) {
	t.Parallel()
	cfg, err := appveyor.Parse([]byte(`
environment:
  TOPLEVEL: shorthand
  global:
    NUMERIC: 64
    QUOTED: "64"
  matrix:
    - PYTHON_ARCH: 32
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Environment)

	global := cfg.Environment.Global
	assert.Equal(t, "shorthand", global["TOPLEVEL"].String())
	assert.Equal(t, "64", global["NUMERIC"].String())
	assert.Equal(t, "64", global["QUOTED"].String())

	require.Len(t, cfg.Environment.Matrix, 1)
	assert.Equal(t, "32", cfg.Environment.Matrix[0]["PYTHON_ARCH"].String())
}

func TestParseSecureEnv(t *testing.T) {
	t.Parallel()
	cfg, err := appveyor.Parse([]byte(`
environment:
  CODECOV_TOKEN:
    secure: c2VjcmV0Cg==
test_script:
  - echo test
`))
	require.NoError(t, err)
	assert.Equal(t, "c2VjcmV0Cg==", cfg.Environment.Global["CODECOV_TOKEN"].Secure)

	// ...but validation refuses it, since there is no way to decrypt it locally.
	assert.ErrorIs(t, appveyor.Validate(cfg), appveyor.ErrSecureEnv)
}

func TestParseStringList(t *testing.T) {
	t.Parallel()
	single, err := appveyor.Parse([]byte("platform: x86\ntest_script:\n  - echo test\n"))
	require.NoError(t, err)
	assert.Equal(t, appveyor.StringList{"x86"}, single.Platform)

	list, err := appveyor.Parse([]byte("platform:\n  - x86\n  - x64\ntest_script:\n  - echo test\n"))
	require.NoError(t, err)
	assert.Equal(t, appveyor.StringList{"x86", "x64"}, list.Platform)
}

func TestDumpRoundTrip(t *testing.T) {
	t.Parallel()
	cfg, err := appveyor.Load(filepath.Join("testdata", "pywincffi-v2.yml"))
	require.NoError(t, err)

	out, err := appveyor.Dump(cfg)
	require.NoError(t, err)

	reparsed, err := appveyor.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, cfg, reparsed)
}

func TestLifecycleBuildOff(t *testing.T) {
	t.Parallel()
	cfg, err := appveyor.Parse([]byte(`
build: off
build_script:
  - echo should not run
test_script:
  - echo test
`))
	require.NoError(t, err)
	for _, hook := range cfg.Lifecycle() {
		if hook.Name == "build_script" {
			assert.Empty(t, hook.Commands)
		}
		if hook.Name == "test_script" {
			assert.Len(t, hook.Commands, 1)
		}
	}
}

func TestBranchesMatch(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Branches *appveyor.Branches
		Branch   string
		Expected bool
	}
	testcases := map[string]testcase{
		"nil-filter":    {nil, "main", true},
		"only-hit":      {&appveyor.Branches{Only: []string{"main", "release"}}, "release", true},
		"only-miss":     {&appveyor.Branches{Only: []string{"main"}}, "feature", false},
		"except-hit":    {&appveyor.Branches{Except: []string{"gh-pages"}}, "gh-pages", false},
		"except-miss":   {&appveyor.Branches{Except: []string{"gh-pages"}}, "main", true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.Expected, tc.Branches.Match(tc.Branch))
		})
	}
}
