// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package appveyor

import (
	"encoding/json"
	"fmt"
)

// Shell says which interpreter a lifecycle command is written for.
type Shell string

const (
	// ShellDefault means the command did not carry a shell tag; it runs in whatever the
	// host's default shell is.
	ShellDefault Shell = ""
	// ShellCmd is the Windows command interpreter (`cmd /c`).
	ShellCmd Shell = "cmd"
	// ShellPS is PowerShell.
	ShellPS Shell = "ps"
	// ShellSh is a POSIX shell.
	ShellSh Shell = "sh"
)

// Command is one entry in a lifecycle hook's command list.  In the YAML it is either a bare
// string, or a single-key mapping tagging the command with a shell:
//
//	install:
//	  - echo plain string
//	  - cmd: echo batch
//	  - ps: Write-Host powershell
//	  - sh: echo posix
type Command struct {
	Shell Shell
	Text  string
}

// UnmarshalJSON implements json.Unmarshaler (sigs.k8s.io/yaml routes YAML through JSON).
func (c *Command) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*c = Command{Shell: ShellDefault, Text: str}
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("command must be a string or a {cmd|ps|sh: string} mapping: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("command mapping must have exactly one key, has %d", len(obj))
	}
	for key, val := range obj {
		switch Shell(key) {
		case ShellCmd, ShellPS, ShellSh:
			*c = Command{Shell: Shell(key), Text: val}
		default:
			return fmt.Errorf("unknown shell tag %q (valid tags are cmd, ps, sh)", key)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Command) MarshalJSON() ([]byte, error) {
	if c.Shell == ShellDefault {
		return json.Marshal(c.Text)
	}
	return json.Marshal(map[string]string{string(c.Shell): c.Text})
}

// CommandList is the body of one lifecycle hook.
type CommandList []Command

// Hook is a named lifecycle phase together with its commands.
type Hook struct {
	Name     string
	Commands CommandList
}

// Lifecycle returns the main build phases in the order the hosted service runs them.  It does not
// include the on_success/on_failure/on_finish epilogue hooks; those are conditional on how the
// main phases went.
func (cfg *Config) Lifecycle() []Hook {
	hooks := []Hook{
		{"init", cfg.Init},
		{"install", cfg.Install},
		{"before_build", cfg.BeforeBuild},
		{"build_script", cfg.BuildScript},
		{"after_build", cfg.AfterBuild},
		{"before_test", cfg.BeforeTest},
		{"test_script", cfg.TestScript},
		{"after_test", cfg.AfterTest},
	}
	if cfg.Build != nil && cfg.Build.Off {
		// `build: off` disables the build phase but not the scripts around it.
		for i := range hooks {
			if hooks[i].Name == "build_script" {
				hooks[i].Commands = nil
			}
		}
	}
	return hooks
}
