// SPDX-License-Identifier: AGPL-3.0-or-later

package fleetschema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bartekus/stigsmith/internal/structparse"
)

// Builder aggregates scraped struct declarations into a Schema. Zero-value
// fields fall back to the package defaults.
type Builder struct {
	Targets      []Target
	FieldSources []string
	Parser       *structparse.Parser
}

// Extract scrapes all configured targets under repoRoot and computes the
// aggregate schema. Missing files and missing declarations shrink the output
// and surface as warnings; extraction itself never fails.
func (b *Builder) Extract(repoRoot, commit string) (*Schema, []string) {
	var warnings []string

	sch := &Schema{
		ExtractedAt: time.Now().Format(time.RFC3339),
		RepoPath:    repoRoot,
		GitCommit:   commit,
		Structs:     make(map[string]*structparse.Struct),
	}

	parser := b.Parser
	if parser == nil {
		parser = structparse.NewParser(nil)
	}
	targets := b.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	for _, t := range targets {
		data, err := os.ReadFile(filepath.Join(repoRoot, t.File))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s not found, skipping", t.File))
			continue
		}
		content := string(data)

		for _, name := range t.Structs {
			parsed := parser.ParseStruct(content, name, t.File)
			if parsed == nil {
				warnings = append(warnings, fmt.Sprintf("struct %s not found in %s", name, t.File))
				continue
			}
			sch.Structs[name] = parsed
		}
	}

	b.computeFields(sch)
	return sch, warnings
}

// computeFields derives the valid and team-only wire-name lists. Sources are
// visited in priority order so the base declaration wins naming conflicts.
// Embedded pseudo-fields carry no wire name and never contribute. The base
// declaration marks team-only fields with an explicit flag; extension
// declarations additionally infer it from a "team" mention in the field
// description, which is how the GitOps structs document scoping.
func (b *Builder) computeFields(sch *Schema) {
	sources := b.FieldSources
	if len(sources) == 0 {
		sources = DefaultFieldSources
	}

	sch.ValidPolicyFields = []string{}
	sch.TeamOnlyFields = []string{}
	sch.fieldIndex = make(map[string]structparse.Field)

	for i, name := range sources {
		st, ok := sch.Structs[name]
		if !ok {
			continue
		}
		base := i == 0

		for _, f := range st.Fields {
			if f.JSONName == "" {
				continue
			}
			if _, seen := sch.fieldIndex[f.JSONName]; seen {
				continue
			}
			sch.fieldIndex[f.JSONName] = f
			sch.ValidPolicyFields = append(sch.ValidPolicyFields, f.JSONName)

			teamOnly := f.TeamOnly
			if !base && strings.Contains(strings.ToLower(f.Description), "team") {
				teamOnly = true
			}
			if teamOnly {
				sch.TeamOnlyFields = append(sch.TeamOnlyFields, f.JSONName)
			}
		}
	}
}
