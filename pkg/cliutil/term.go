// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package cliutil

import (
	"golang.org/x/term"
)

// StdoutIsTerminal reports whether stdout is attached to a terminal; commands that emit binary
// output use it to refuse to spew in to an interactive session.
func StdoutIsTerminal() bool {
	return term.IsTerminal(1)
}
