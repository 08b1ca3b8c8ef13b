// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gitrev resolves a repository's current commit for provenance
// stamping. Lookup is best effort: any failure degrades to Unknown and never
// aborts the caller.
package gitrev

import (
	"context"
	"os/exec"
	"strings"
)

// Unknown is the sentinel revision used when the commit cannot be resolved.
const Unknown = "unknown"

// shortLen matches the abbreviated hash length used in generated artifacts.
const shortLen = 12

// Commit returns the short HEAD commit hash of the repository at repoRoot,
// or Unknown when git is unavailable or the path is not a repository.
func Commit(ctx context.Context, repoRoot string) string {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = repoRoot

	out, err := cmd.Output()
	if err != nil {
		return Unknown
	}

	hash := strings.TrimSpace(string(out))
	if hash == "" {
		return Unknown
	}
	if len(hash) > shortLen {
		hash = hash[:shortLen]
	}
	return hash
}
