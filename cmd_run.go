// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/avbuild/pkg/appveyor"
	"github.com/datawire/avbuild/pkg/appveyor/buildapi"
	"github.com/datawire/avbuild/pkg/build"
	"github.com/datawire/avbuild/pkg/cliutil"
	"github.com/datawire/avbuild/pkg/matrix"
)

func init() {
	var flags struct {
		OnlyLeg      int
		Jobs         int
		Dir          string
		ArtifactsDir string
		BuildNumber  int
		Branch       string
		NoGuard      bool
		APIURL       string
	}
	cmd := &cobra.Command{
		Use:   "run [flags] APPVEYOR_YML",
		Short: "Run a configuration's build legs on the local host",
		Long: "Expand the configuration's matrix and run each leg's lifecycle hooks (init, " +
			"install, build, test, after_test, and the on_* epilogue) in the build " +
			"directory, with the leg's environment variables set.  The first non-zero " +
			"exit fails the leg.  Legs run independently of each other, up to --jobs at " +
			"a time." +
			"\n\n" +
			"When the APPVEYOR_PULL_REQUEST_NUMBER environment variable is set, the " +
			"stale-PR guard runs first and hard-aborts the whole run if a newer build " +
			"has been queued for the same pull request (see `avbuild guard stale-pr`).",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := appveyor.Load(args[0])
			if err != nil {
				return err
			}
			if err := appveyor.Validate(cfg); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if flags.Branch != "" && !cfg.Branches.Match(flags.Branch) {
				dlog.Infof(ctx, "branch %q is filtered out by the branches section; nothing to do", flags.Branch)
				return nil
			}

			if !flags.NoGuard {
				guardEnv, err := buildapi.GuardEnvFromOS()
				if err != nil {
					return err
				}
				client := buildapi.Client{
					BaseURL: flags.APIURL,
					Token:   os.Getenv("APPVEYOR_API_TOKEN"),
				}
				if err := client.CheckStale(ctx, guardEnv); err != nil {
					return err
				}
			}

			legs := matrix.Expand(cfg)
			runner := &build.Runner{
				Config:       cfg,
				Dir:          flags.Dir,
				ArtifactsDir: flags.ArtifactsDir,
				BuildNumber:  flags.BuildNumber,
			}

			if flags.OnlyLeg >= 0 {
				if flags.OnlyLeg >= len(legs) {
					return fmt.Errorf("--only-leg=%d: matrix has only %d legs", flags.OnlyLeg, len(legs))
				}
				result := runner.RunLeg(ctx, &legs[flags.OnlyLeg])
				if result.Status == build.StatusFailed {
					return fmt.Errorf("leg %d (%s): %s failed: %w",
						result.Leg.Ordinal, result.Leg.Name, result.FailedHook, result.Err)
				}
				return nil
			}

			results, runErr := runner.RunMatrix(ctx, legs, flags.Jobs)

			table := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(table, "LEG\tSTATUS\tARTIFACTS\tNAME")
			for i := range results {
				result := &results[i]
				fmt.Fprintf(table, "%d\t%s\t%d\t%s\n",
					result.Leg.Ordinal, result.Status, len(result.Artifacts), result.Leg.Name)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().IntVar(&flags.OnlyLeg, "only-leg", -1,
		"Run only the leg with this ordinal (as shown by `avbuild matrix list`)")
	cmd.Flags().IntVar(&flags.Jobs, "jobs", 1, "How many legs to run at a time")
	cmd.Flags().StringVar(&flags.Dir, "dir", ".", "Build directory that commands run in")
	cmd.Flags().StringVar(&flags.ArtifactsDir, "artifacts-dir", "",
		"Collect each leg's artifacts under `DIR` (per-leg subdirectories)")
	cmd.Flags().IntVar(&flags.BuildNumber, "build-number", 1,
		"Build number for the {build} placeholder in the version format")
	cmd.Flags().StringVar(&flags.Branch, "branch", "",
		"Skip the run entirely if the branches section filters out `BRANCH`")
	cmd.Flags().BoolVar(&flags.NoGuard, "no-guard", false, "Skip the stale-PR guard")
	cmd.Flags().StringVar(&flags.APIURL, "api-url", "",
		"Base `URL` of the build API used by the stale-PR guard")

	argparser.AddCommand(cmd)
}
