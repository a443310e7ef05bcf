// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datawire/avbuild/pkg/appveyor"
	"github.com/datawire/avbuild/pkg/artifact"
	"github.com/datawire/avbuild/pkg/cliutil"
	"github.com/datawire/avbuild/pkg/reproducible"
)

var argparserArtifacts = &cobra.Command{
	Use:   "artifacts {[flags]|SUBCOMMAND...}",
	Short: "Resolve, collect, and package build artifacts",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserArtifacts)

	var collectFlags struct {
		Config string
		Out    string
	}
	collect := &cobra.Command{
		Use:   "collect [flags] [SRCDIR]",
		Short: "Resolve the configuration's artifact globs and copy the matches out",
		Args:  cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			src := "."
			if len(args) == 1 {
				src = args[0]
			}
			cfg, err := appveyor.Load(collectFlags.Config)
			if err != nil {
				return err
			}
			entries, err := artifact.Resolve(src, cfg.Artifacts)
			if err != nil {
				return err
			}
			if collectFlags.Out != "" {
				if err := artifact.Collect(entries, collectFlags.Out); err != nil {
					return err
				}
			}

			table := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(table, "SIZE\tNAME\tPATH")
			for i := range entries {
				entry := &entries[i]
				fmt.Fprintf(table, "%d\t%s\t%s\n", entry.Size, entry.RuleName, entry.Path)
			}
			return table.Flush()
		},
	}
	collect.Flags().StringVar(&collectFlags.Config, "config", "appveyor.yml",
		"Read artifact globs from `APPVEYOR_YML`")
	collect.Flags().StringVar(&collectFlags.Out, "out", "", "Copy matched files in to `DIR`")
	argparserArtifacts.AddCommand(collect)

	var layerFlags struct {
		Config string
		Prefix string
	}
	layer := &cobra.Command{
		Use:   "layer [flags] [SRCDIR] >OUT_LAYERFILE",
		Short: "Package the configuration's artifacts as an OCI layer",
		Long: "Resolve the configuration's artifact globs and write the matches to stdout " +
			"as an uncompressed OCI layer tarball, for consumption by a downstream " +
			"image build.  File timestamps are clamped to the commit timestamp (or " +
			"SOURCE_DATE_EPOCH) so that identical artifacts give byte-identical layers.",
		Args: cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		RunE: func(flags *cobra.Command, args []string) error {
			if cliutil.StdoutIsTerminal() {
				return fmt.Errorf("refusing to write a binary layer to a terminal; redirect stdout")
			}
			src := "."
			if len(args) == 1 {
				src = args[0]
			}
			cfg, err := appveyor.Load(layerFlags.Config)
			if err != nil {
				return err
			}
			entries, err := artifact.Resolve(src, cfg.Artifacts)
			if err != nil {
				return err
			}
			layer, err := artifact.Layer(entries, layerFlags.Prefix, reproducible.Now())
			if err != nil {
				return err
			}
			return artifact.WriteLayer(layer, os.Stdout)
		},
	}
	layer.Flags().StringVar(&layerFlags.Config, "config", "appveyor.yml",
		"Read artifact globs from `APPVEYOR_YML`")
	layer.Flags().StringVar(&layerFlags.Prefix, "prefix", "opt/artifacts",
		"Directory `PREFIX` for filenames inside the layer; forward-slash separated, absolute but without the leading slash")
	argparserArtifacts.AddCommand(layer)

	argparserArtifacts.AddCommand(&cobra.Command{
		Use:   "list IN_LAYERFILE",
		Short: "List the contents of an artifact layer file",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(flags *cobra.Command, args []string) (err error) {
			maybeSetErr := func(_err error) {
				if _err != nil && err == nil {
					err = _err
				}
			}

			layer, err := artifact.OpenLayer(args[0])
			if err != nil {
				return err
			}
			layerReader, err := layer.Uncompressed()
			if err != nil {
				return err
			}
			defer func() {
				maybeSetErr(layerReader.Close())
			}()

			table := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			tarReader := tar.NewReader(layerReader)
			for {
				header, err := tarReader.Next()
				if err != nil {
					if err == io.EOF {
						break
					}
					return err
				}
				fmt.Fprintln(table, strings.Join([]string{
					header.FileInfo().Mode().String(),
					fmt.Sprintf("%d", header.Size),
					header.Name,
				}, "\t"))
			}
			return table.Flush()
		},
	})
}
