// SPDX-License-Identifier: AGPL-3.0-or-later

package fleetschema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// knownBadFields are field names that keep showing up in hand-written policy
// files but are not part of the Fleet schema. The reference calls them out
// explicitly with the closest valid alternative.
var knownBadFields = []struct {
	Name string
	Note string
}{
	{"fix_script", "Use `run_script.path` instead"},
	{"fix", "Not a valid field"},
	{"remediation", "Use `resolution` instead"},
	{"severity", "Use `critical: true` for high severity"},
	{"tags", "Not supported in GitOps format"},
}

const examplePolicyYAML = "```yaml\n" +
	"# Basic policy (works globally or in team)\n" +
	"- name: Windows - Disk encryption enabled\n" +
	"  query: |\n" +
	"    SELECT 1 FROM bitlocker_info\n" +
	"    WHERE drive_letter = 'C:'\n" +
	"    AND protection_status = 1;\n" +
	"  critical: false\n" +
	"  description: Checks if BitLocker is enabled on C: drive\n" +
	"  resolution: Enable BitLocker via Windows Settings > Privacy & Security\n" +
	"  platform: windows\n" +
	"\n" +
	"# Team policy with script remediation\n" +
	"- name: macOS - Nudge installed\n" +
	"  query: SELECT 1 FROM apps WHERE bundle_identifier = 'com.github.macadmins.Nudge';\n" +
	"  critical: true\n" +
	"  description: Ensures Nudge is installed for OS update enforcement\n" +
	"  resolution: Nudge will be automatically installed\n" +
	"  platform: darwin\n" +
	"  run_script:\n" +
	"    path: ../scripts/install-nudge.sh\n" +
	"```"

// RenderReference renders the human-readable markdown reference for the
// extracted schema.
func RenderReference(sch *Schema) string {
	required := make(map[string]bool, len(RequiredPolicyFields))
	for _, name := range RequiredPolicyFields {
		required[name] = true
	}
	teamOnly := make(map[string]bool, len(sch.TeamOnlyFields))
	for _, name := range sch.TeamOnlyFields {
		teamOnly[name] = true
	}

	lines := []string{
		"# Fleet GitOps Policy Schema Reference",
		"",
		fmt.Sprintf("> **Auto-generated** from Fleet source at commit [`%s`](https://github.com/fleetdm/fleet/tree/%s)", sch.GitCommit, sch.GitCommit),
		">",
		fmt.Sprintf("> Extracted: %s", sch.ExtractedAt),
		"",
		"## Valid Policy Fields",
		"",
		"These are the **only** fields that should be used in Fleet policy YAML files.",
		"Using any other field names will result in invalid configuration.",
		"",
		"### Core Fields (Global & Team Policies)",
		"",
		"| Field | Type | Required | Description |",
		"|-------|------|----------|-------------|",
	}

	for _, name := range sch.ValidPolicyFields {
		if teamOnly[name] {
			continue
		}
		f, _ := sch.FieldByWireName(name)
		req := ""
		if required[name] {
			req = "✅"
		}
		lines = append(lines, fmt.Sprintf("| `%s` | %s | %s | %s |", name, f.GoType, req, f.Description))
	}

	lines = append(lines,
		"",
		"### Team-Only Fields",
		"",
		"These fields can **only** be used in team policy files, not global policies.",
		"",
		"| Field | Type | Description |",
		"|-------|------|-------------|",
	)
	for _, name := range sch.ValidPolicyFields {
		if !teamOnly[name] {
			continue
		}
		f, _ := sch.FieldByWireName(name)
		lines = append(lines, fmt.Sprintf("| `%s` | %s | %s |", name, f.GoType, f.Description))
	}

	lines = append(lines,
		"",
		"## Example Policy YAML",
		"",
		examplePolicyYAML,
		"",
		"## Source Files",
		"",
	)

	names := make([]string, 0, len(sch.Structs))
	for name := range sch.Structs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := sch.Structs[name]
		url := fmt.Sprintf("https://github.com/fleetdm/fleet/blob/%s/%s#L%d", sch.GitCommit, st.SourceFile, st.SourceLine)
		lines = append(lines, fmt.Sprintf("- [`%s`](%s) - %s:%d", name, url, st.SourceFile, st.SourceLine))
	}

	lines = append(lines,
		"",
		"## Invalid Fields (DO NOT USE)",
		"",
		"The following field names are **NOT** part of the Fleet schema and should never be used:",
		"",
		"| Invalid Field | Notes |",
		"|---------------|-------|",
	)
	for _, bad := range knownBadFields {
		lines = append(lines, fmt.Sprintf("| `%s` | ❌ %s |", bad.Name, bad.Note))
	}

	lines = append(lines,
		"",
		"---",
		"",
		"*This file is auto-generated. Do not edit manually.*",
		"*Run `stigsmith extract-schema` to update.*",
	)

	return strings.Join(lines, "\n")
}

// WriteReference renders the markdown reference to path, creating parent
// directories as needed.
func WriteReference(path string, sch *Schema) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating reference directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(RenderReference(sch)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing schema reference: %w", err)
	}
	return nil
}
