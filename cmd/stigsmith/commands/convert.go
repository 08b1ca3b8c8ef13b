// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/stigsmith/internal/xccdf"
)

func NewConvertCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert <xccdf-file>",
		Short: "Convert a DISA XCCDF benchmark into canonical STIG JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Parsing XCCDF: %s\n", args[0])

			benchmark, err := xccdf.ParseFile(args[0])
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(benchmark, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding benchmark JSON: %w", err)
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			fmt.Fprintf(out, "Found %d rules\n", len(benchmark.Rules))
			fmt.Fprintf(out, "✓ Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "stig.json", "Output JSON file")

	return cmd
}
