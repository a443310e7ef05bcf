// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/datawire/avbuild/pkg/appveyor"
	"github.com/datawire/avbuild/pkg/cliutil"
	"github.com/datawire/avbuild/pkg/matrix"
)

var argparserMatrix = &cobra.Command{
	Use:   "matrix {[flags]|SUBCOMMAND...}",
	Short: "Expand and inspect build matrices",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserMatrix)

	format := cliutil.Choice{Choices: []string{"table", "yaml"}, Value: "table"}
	cmd := &cobra.Command{
		Use:   "list [flags] APPVEYOR_YML",
		Short: "List the build legs a configuration's matrix expands to",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			cfg, err := appveyor.Load(args[0])
			if err != nil {
				return err
			}
			legs := matrix.Expand(cfg)

			switch format.Value {
			case "yaml":
				out, err := yaml.Marshal(legs)
				if err != nil {
					return err
				}
				if _, err := os.Stdout.Write(out); err != nil {
					return err
				}
			default:
				table := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
				fmt.Fprintln(table, "LEG\tALLOW FAILURE\tNAME")
				for i := range legs {
					leg := &legs[i]
					allow := ""
					if leg.AllowFailure {
						allow = "yes"
					}
					fmt.Fprintf(table, "%d\t%s\t%s\n", leg.Ordinal, allow, leg.Name)
				}
				if err := table.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Var(&format, "format", "Output format")
	argparserMatrix.AddCommand(cmd)
}
