// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package cliutil

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Choice is a pflag.Value that restricts a string flag to a fixed set of choices.
type Choice struct {
	Choices []string
	Value   string
}

var _ pflag.Value = (*Choice)(nil)

func (c *Choice) String() string { return c.Value }

func (c *Choice) Set(val string) error {
	for _, choice := range c.Choices {
		if val == choice {
			c.Value = val
			return nil
		}
	}
	return fmt.Errorf("must be one of {%s}: %q", strings.Join(c.Choices, ", "), val)
}

func (c *Choice) Type() string {
	return "{" + strings.Join(c.Choices, "|") + "}"
}
