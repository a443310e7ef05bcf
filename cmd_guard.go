// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/avbuild/pkg/appveyor/buildapi"
	"github.com/datawire/avbuild/pkg/cliutil"
)

var argparserGuard = &cobra.Command{
	Use:   "guard {[flags]|SUBCOMMAND...}",
	Short: "Early-abort checks for hosted CI builds",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserGuard)

	var flags struct {
		APIURL string
	}
	cmd := &cobra.Command{
		Use:   "stale-pr [flags]",
		Short: "Abort the build if a newer build exists for the same pull request",
		Long: "Intended to run as the first install step of a pull-request build.  Reads " +
			"the APPVEYOR_* environment variables, asks the build API for the project's " +
			"recent history, and exits non-zero if a newer build has been queued for " +
			"the same pull request, so the hosted service doesn't waste a worker " +
			"finishing a build nobody is waiting for.  Does nothing (successfully) for " +
			"non-PR builds.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			guardEnv, err := buildapi.GuardEnvFromOS()
			if err != nil {
				return err
			}
			if guardEnv.PullRequestNumber == "" {
				dlog.Infof(ctx, "not a pull-request build; nothing to guard")
				return nil
			}
			client := buildapi.Client{
				BaseURL: flags.APIURL,
				Token:   os.Getenv("APPVEYOR_API_TOKEN"),
			}
			return client.CheckStale(ctx, guardEnv)
		},
	}
	cmd.Flags().StringVar(&flags.APIURL, "api-url", "", "Base `URL` of the build API")
	argparserGuard.AddCommand(cmd)
}
