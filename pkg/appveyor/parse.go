// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package appveyor

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Parse parses an appveyor.yml document.  Unknown top-level keys are an error, so that a typoed
// hook name fails loudly instead of silently never running.
//
// Parse does not call Validate; syntactically well-formed nonsense parses fine.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg, yaml.DisallowUnknownFields); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses an appveyor.yml file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Dump renders the parsed configuration back as normalized YAML.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
