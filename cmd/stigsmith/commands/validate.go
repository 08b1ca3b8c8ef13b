// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/stigsmith/cmd/stigsmith/internal/clierr"
	"github.com/bartekus/stigsmith/internal/fleetschema"
	"github.com/bartekus/stigsmith/internal/policycheck"
)

func NewValidateCommand() *cobra.Command {
	var (
		schemaPath string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "validate <policies.yml>",
		Short: "Validate exported policy YAML against the extracted Fleet schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, err := fleetschema.LoadArtifact(schemaPath)
			if err != nil {
				if errors.Is(err, fleetschema.ErrArtifactNotFound) {
					return clierr.Wrap(2, "schema artifact missing; run stigsmith extract-schema first", err)
				}
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("file not found: %s", args[0])
			}
			defer f.Close()

			rules := policycheck.RulesFromArtifact(artifact)
			count, violations := policycheck.ValidateReader(f, rules)

			out := cmd.OutOrStdout()
			if !quiet {
				fmt.Fprintf(out, "Validated %d policies in %s\n", count, args[0])
			}

			if len(violations) > 0 {
				fmt.Fprintf(out, "\nFound %d validation errors:\n\n", len(violations))
				for _, v := range violations {
					fmt.Fprintf(out, "  • %s\n", formatViolation(v))
				}
				return clierr.Newf(1, "%d validation errors", len(violations))
			}

			if !quiet {
				fmt.Fprintln(out, "✓ All policies are valid Fleet schema")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", filepath.FromSlash(ArtifactRelPath), "Path to the extracted schema artifact")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only show errors")

	return cmd
}

func formatViolation(v policycheck.Violation) string {
	if v.Kind == policycheck.KindParseError {
		return v.Message
	}
	return fmt.Sprintf("Policy %d '%s': %s", v.Index, v.Policy, v.Message)
}
