// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/stigsmith/internal/config"
	"github.com/bartekus/stigsmith/internal/fleetschema"
	"github.com/bartekus/stigsmith/internal/gitrev"
	"github.com/bartekus/stigsmith/internal/structparse"
)

// ArtifactRelPath is where the JSON schema artifact lands below the output
// directory; the web frontend reads it from the same location.
const ArtifactRelPath = "web/src/schema/fleet-policy-schema.json"

// ReferenceRelPath is where the markdown reference lands below the output
// directory.
const ReferenceRelPath = "docs/FLEET_SCHEMA_REFERENCE.md"

func NewExtractSchemaCommand() *cobra.Command {
	var (
		fleetRepo string
		outputDir string
		configDir string
	)

	cmd := &cobra.Command{
		Use:   "extract-schema",
		Short: "Extract the Fleet GitOps policy schema from Fleet source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			if fleetRepo == "" {
				fleetRepo = cfg.FleetRepo
			}
			if fleetRepo == "" {
				return fmt.Errorf("fleet repository path not set; use --fleet-repo or stigsmith.yml")
			}
			if _, err := os.Stat(fleetRepo); err != nil {
				return fmt.Errorf("fleet repository not found at %s", fleetRepo)
			}
			if outputDir == "" {
				outputDir = cfg.OutputDir
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Extracting schema from %s...\n", fleetRepo)

			builder := &fleetschema.Builder{
				Targets:      cfg.Targets,
				FieldSources: cfg.FieldSources,
				Parser:       structparse.NewParser(cfg.ScopeMarkers),
			}
			commit := gitrev.Commit(cmd.Context(), fleetRepo)
			sch, warnings := builder.Extract(fleetRepo, commit)
			for _, w := range warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}

			artifactPath := filepath.Join(outputDir, filepath.FromSlash(ArtifactRelPath))
			if err := fleetschema.WriteArtifact(artifactPath, fleetschema.BuildArtifact(sch)); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Generated %s\n", artifactPath)

			referencePath := filepath.Join(outputDir, filepath.FromSlash(ReferenceRelPath))
			if err := fleetschema.WriteReference(referencePath, sch); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Generated %s\n", referencePath)

			fmt.Fprintf(out, "\nSchema summary:\n")
			fmt.Fprintf(out, "  Git commit: %s\n", sch.GitCommit)
			fmt.Fprintf(out, "  Valid fields: %d\n", len(sch.ValidPolicyFields))
			fmt.Fprintf(out, "  Team-only fields: %d\n", len(sch.TeamOnlyFields))
			return nil
		},
	}

	cmd.Flags().StringVar(&fleetRepo, "fleet-repo", "", "Path to a Fleet repository checkout")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory to write generated files into")
	cmd.Flags().StringVar(&configDir, "config-dir", "", "Directory containing stigsmith.yml")

	return cmd
}
