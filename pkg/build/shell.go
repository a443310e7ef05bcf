// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"fmt"

	"github.com/datawire/avbuild/pkg/appveyor"
)

// Argv translates a lifecycle command in to the argument vector to execute, given the host OS
// (a GOOS string) and the shell tag on the command.  Untagged commands run in the host's
// conventional shell: `cmd` on Windows, `sh` elsewhere.
func Argv(goos string, shell appveyor.Shell, text string) ([]string, error) {
	if shell == appveyor.ShellDefault {
		if goos == "windows" {
			shell = appveyor.ShellCmd
		} else {
			shell = appveyor.ShellSh
		}
	}
	switch shell {
	case appveyor.ShellCmd:
		if goos != "windows" {
			return nil, fmt.Errorf("cmd-tagged commands require a Windows host (host is %s)", goos)
		}
		return []string{"cmd", "/c", text}, nil
	case appveyor.ShellPS:
		exe := "pwsh"
		if goos == "windows" {
			exe = "powershell"
		}
		return []string{exe, "-NoProfile", "-NonInteractive", "-Command", text}, nil
	case appveyor.ShellSh:
		if goos == "windows" {
			return nil, fmt.Errorf("sh-tagged commands require a POSIX host (host is %s)", goos)
		}
		return []string{"sh", "-c", text}, nil
	default:
		return nil, fmt.Errorf("unknown shell %q", shell)
	}
}
