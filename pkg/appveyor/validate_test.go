// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package appveyor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/avbuild/pkg/appveyor"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Input   string
		Err     error  // sentinel expected via errors.Is; nil means valid
		Section string // expected ValidationError.Section
	}
	testcases := map[string]testcase{
		"minimal": {
			Input: "test_script:\n  - echo test\n",
		},
		"matrix-only": {
			Input: "environment:\n  matrix:\n    - PYTHON: C:\\Python27\n",
		},
		"no-work": {
			Input: "version: 1.0.{build}\n",
			Err:   appveyor.ErrNoWork,
		},
		"empty-command": {
			Input:   "install:\n  - echo ok\n  - \"  \"\n",
			Err:     appveyor.ErrEmptyCommand,
			Section: "install[1]",
		},
		"empty-epilogue-command": {
			Input:   "test_script:\n  - echo test\non_finish:\n  - \"\"\n",
			Err:     appveyor.ErrEmptyCommand,
			Section: "on_finish[0]",
		},
		"secure-global": {
			Input: `
test_script:
  - echo test
environment:
  CODECOV_TOKEN:
    secure: c2VjcmV0Cg==
`,
			Err:     appveyor.ErrSecureEnv,
			Section: "environment.global.CODECOV_TOKEN",
		},
		"secure-matrix": {
			Input: `
environment:
  matrix:
    - TOKEN:
        secure: c2VjcmV0Cg==
`,
			Err:     appveyor.ErrSecureEnv,
			Section: "environment.matrix[0].TOKEN",
		},
		"empty-matrix-row": {
			Input:   "environment:\n  matrix:\n    - PYTHON: C:\\Python27\n    - {}\n",
			Err:     appveyor.ErrEmptyMatrixRow,
			Section: "environment.matrix[1]",
		},
		"filter-unknown-var": {
			Input: `
environment:
  matrix:
    - PYTHON: C:\Python27
matrix:
  exclude:
    - PYTHON_VRESION: 2.7.x
`,
			Err:     appveyor.ErrBadJobFilter,
			Section: "matrix.exclude[0]",
		},
		"filter-unknown-platform": {
			Input: `
platform:
  - x86
  - x64
environment:
  matrix:
    - PYTHON: C:\Python27
matrix:
  allow_failures:
    - platform: amd64
`,
			Err:     appveyor.ErrBadJobFilter,
			Section: "matrix.allow_failures[0]",
		},
		"filter-empty": {
			Input: `
environment:
  matrix:
    - PYTHON: C:\Python27
matrix:
  exclude:
    - {}
`,
			Err:     appveyor.ErrBadJobFilter,
			Section: "matrix.exclude[0]",
		},
		"filter-ok": {
			Input: `
platform:
  - x86
  - x64
environment:
  matrix:
    - PYTHON: C:\Python26
      PYTHON_VERSION: 2.6.x
matrix:
  exclude:
    - platform: x86
      PYTHON_VERSION: 2.6.x
`,
		},
		"empty-artifact-path": {
			Input:   "test_script:\n  - echo test\nartifacts:\n  - path: \"\"\n    name: wheels\n",
			Err:     appveyor.ErrEmptyArtifactPath,
			Section: "artifacts[0]",
		},
		"branches-both": {
			Input: `
test_script:
  - echo test
branches:
  only:
    - main
  except:
    - gh-pages
`,
			Err:     appveyor.ErrBadBranchFilter,
			Section: "branches",
		},
		"branches-empty": {
			Input:   "test_script:\n  - echo test\nbranches: {}\n",
			Err:     appveyor.ErrBadBranchFilter,
			Section: "branches",
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			cfg, err := appveyor.Parse([]byte(tc.Input))
			require.NoError(t, err)

			err = appveyor.Validate(cfg)
			if tc.Err == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.Err)
			var verr *appveyor.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.Section, verr.Section)
		})
	}
}
