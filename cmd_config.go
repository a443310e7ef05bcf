// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datawire/avbuild/pkg/appveyor"
	"github.com/datawire/avbuild/pkg/cliutil"
	"github.com/datawire/avbuild/pkg/matrix"
)

var argparserConfig = &cobra.Command{
	Use:   "config {[flags]|SUBCOMMAND...}",
	Short: "Parse and validate configuration files",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserConfig)

	argparserConfig.AddCommand(&cobra.Command{
		Use:   "validate APPVEYOR_YML",
		Short: "Check that a configuration file parses and makes sense",
		Long: "Check that a configuration file parses under the strict schema, that its " +
			"lifecycle hooks and artifact globs are well-formed, and that its matrix " +
			"filters can match real jobs.  On success, reports how many build legs the " +
			"matrix expands to.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			cfg, err := appveyor.Load(args[0])
			if err != nil {
				return err
			}
			if err := appveyor.Validate(cfg); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			legs := matrix.Expand(cfg)
			fmt.Printf("%s: OK (%d build legs)\n", args[0], len(legs))
			return nil
		},
	})

	argparserConfig.AddCommand(&cobra.Command{
		Use:   "dump APPVEYOR_YML >OUT_YML",
		Short: "Print a configuration file back as normalized YAML",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			cfg, err := appveyor.Load(args[0])
			if err != nil {
				return err
			}
			out, err := appveyor.Dump(cfg)
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(out); err != nil {
				return err
			}
			return nil
		},
	})
}
