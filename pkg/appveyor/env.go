// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package appveyor

import (
	"encoding/json"
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// EnvValue is the value of an environment variable in the configuration.  YAML authors write both
// `PYTHON_ARCH: 64` and `PYTHON_ARCH: "64"`; intstr covers that.  The hosted service additionally
// supports an encrypted `secure: CIPHERTEXT` form, which we can parse but never decrypt.
type EnvValue struct {
	intstr.IntOrString

	// Secure is the base64 ciphertext if the value used the `secure:` form.
	Secure string
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *EnvValue) UnmarshalJSON(data []byte) error {
	var secure struct {
		Secure *string `json:"secure"`
	}
	if err := json.Unmarshal(data, &secure); err == nil && secure.Secure != nil {
		*v = EnvValue{Secure: *secure.Secure}
		return nil
	}
	var inner intstr.IntOrString
	if err := inner.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("environment value must be a string, a number, or {secure: string}: %w", err)
	}
	*v = EnvValue{IntOrString: inner}
	return nil
}

// String returns the value as the string a build leg would see.  Note that intstr's String has a
// pointer receiver, which would make map lookups like env["PYTHON"].String() awkward.
func (v EnvValue) String() string {
	return v.IntOrString.String()
}

// MarshalJSON implements json.Marshaler.
func (v EnvValue) MarshalJSON() ([]byte, error) {
	if v.Secure != "" {
		return json.Marshal(map[string]string{"secure": v.Secure})
	}
	return v.IntOrString.MarshalJSON()
}

// EnvMap is a set of environment variables.
type EnvMap map[string]EnvValue

// Keys returns the variable names in sorted order, since Go map iteration would make output and
// job names nondeterministic.
func (m EnvMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Strings returns the variables as a name→string map.
func (m EnvMap) Strings() map[string]string {
	ret := make(map[string]string, len(m))
	for key, val := range m {
		ret[key] = val.String()
	}
	return ret
}

// Environment is the `environment:` section.  In the YAML, `global` and `matrix` are special
// keys; any other key at the top level of the section is shorthand for a global variable:
//
//	environment:
//	  CODECOV_TOKEN: abc123
//	  global:
//	    WITH_COMPILER: cmd /E:ON /V:ON /C .\\ci\\run_with_compiler.cmd
//	  matrix:
//	    - PYTHON: C:\\Python27
//	      PYTHON_VERSION: 2.7.x
//	      PYTHON_ARCH: "32"
type Environment struct {
	Global EnvMap
	Matrix []EnvMap
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Environment) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("environment must be a mapping: %w", err)
	}

	*e = Environment{}
	for key, val := range raw {
		switch key {
		case "global":
			var global EnvMap
			if err := json.Unmarshal(val, &global); err != nil {
				return fmt.Errorf("environment.global: %w", err)
			}
			if e.Global == nil {
				e.Global = make(EnvMap, len(global))
			}
			for name, envval := range global {
				e.Global[name] = envval
			}
		case "matrix":
			if err := json.Unmarshal(val, &e.Matrix); err != nil {
				return fmt.Errorf("environment.matrix: %w", err)
			}
		default:
			var envval EnvValue
			if err := json.Unmarshal(val, &envval); err != nil {
				return fmt.Errorf("environment.%s: %w", key, err)
			}
			if e.Global == nil {
				e.Global = make(EnvMap)
			}
			e.Global[key] = envval
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e Environment) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, 2)
	if len(e.Global) > 0 {
		obj["global"] = e.Global
	}
	if len(e.Matrix) > 0 {
		obj["matrix"] = e.Matrix
	}
	return json.Marshal(obj)
}
