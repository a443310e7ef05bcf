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

func TestParseVersion(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Input    string
		Expected *python.Version
		Error    bool
	}
	testcases := map[string]testcase{
		"wildcard":      {Input: "2.7.x", Expected: &python.Version{Release: []int{2, 7}, Wildcard: true}},
		"wildcard-star": {Input: "3.5.*", Expected: &python.Version{Release: []int{3, 5}, Wildcard: true}},
		"exact":         {Input: "2.7.11", Expected: &python.Version{Release: []int{2, 7, 11}}},
		"major-minor":   {Input: "3.5", Expected: &python.Version{Release: []int{3, 5}}},
		"whitespace":    {Input: " 3.4.x ", Expected: &python.Version{Release: []int{3, 4}, Wildcard: true}},
		"empty":         {Input: "", Error: true},
		"bare-x":        {Input: "x", Error: true},
		"garbage":       {Input: "2.7.beta", Error: true},
		"negative":      {Input: "2.-7", Error: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			ver, err := python.ParseVersion(tc.Input)
			if tc.Error {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, ver)
		})
	}
}

func TestVersionString(t *testing.T) {
	t.Parallel()
	for _, str := range []string{"2.7.x", "2.7.11", "3.5"} {
		ver, err := python.ParseVersion(str)
		require.NoError(t, err)
		assert.Equal(t, str, ver.String())
	}
}

func TestVersionXY(t *testing.T) {
	t.Parallel()
	ver, err := python.ParseVersion("2.7.x")
	require.NoError(t, err)
	xy, ok := ver.XY()
	assert.True(t, ok)
	assert.Equal(t, "27", xy)

	majorOnly := python.Version{Release: []int{3}}
	_, ok = majorOnly.XY()
	assert.False(t, ok)
}

func TestVersionMatches(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Pattern  string
		Concrete string
		Expected bool
	}
	testcases := map[string]testcase{
		"wildcard-hit":      {"2.7.x", "2.7.11", true},
		"wildcard-self":     {"2.7.x", "2.7", true},
		"wildcard-miss":     {"2.7.x", "2.6.6", false},
		"exact-hit":         {"3.5", "3.5", true},
		"exact-longer":      {"3.5", "3.5.1", false},
		"exact-miss":        {"3.5", "3.4", false},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			pattern, err := python.ParseVersion(tc.Pattern)
			require.NoError(t, err)
			concrete, err := python.ParseVersion(tc.Concrete)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, pattern.Matches(*concrete))
		})
	}
}

func TestVersionCmp(t *testing.T) {
	t.Parallel()
	parse := func(str string) python.Version {
		ver, err := python.ParseVersion(str)
		require.NoError(t, err)
		return *ver
	}
	assert.Equal(t, -1, parse("2.7").Cmp(parse("3.3")))
	assert.Equal(t, 1, parse("3.5.1").Cmp(parse("3.5")))
	assert.Equal(t, 0, parse("3.4").Cmp(parse("3.4")))
}
