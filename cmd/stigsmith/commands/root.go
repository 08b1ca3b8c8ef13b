// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Stigsmith - Stigsmith turns DISA STIG benchmarks into Fleet-ready policy artifacts.
It extracts the Fleet GitOps policy schema from Fleet source, converts XCCDF benchmarks into canonical JSON, and validates exported policy YAML against the extracted schema.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd constructs the Stigsmith root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("STIGSMITH_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "stigsmith",
		Short:         "Stigsmith - STIG to Fleet policy tooling",
		Long:          "Stigsmith extracts the Fleet policy schema from Fleet source, converts DISA XCCDF benchmarks to JSON, and validates policy YAML exports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of Stigsmith",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stigsmith version %s\n", version)
		},
	})

	cmd.AddCommand(NewExtractSchemaCommand())
	cmd.AddCommand(NewConvertCommand())
	cmd.AddCommand(NewValidateCommand())

	return cmd
}
