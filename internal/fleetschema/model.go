// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Stigsmith - Stigsmith turns DISA STIG benchmarks into Fleet-ready policy artifacts.
It extracts the Fleet GitOps policy schema from Fleet source, converts XCCDF benchmarks into canonical JSON, and validates exported policy YAML against the extracted schema.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package fleetschema builds, persists and renders the Fleet GitOps policy
// schema scraped from a Fleet repository checkout.
package fleetschema

import (
	"github.com/bartekus/stigsmith/internal/structparse"
)

// Target names the structs to scrape from one Fleet source file.
type Target struct {
	File    string   `mapstructure:"file" yaml:"file"`
	Structs []string `mapstructure:"structs" yaml:"structs"`
}

// DefaultTargets lists the Fleet source files the policy schema is scraped
// from. Paths are relative to the Fleet repository root.
var DefaultTargets = []Target{
	{File: "server/fleet/policies.go", Structs: []string{"PolicySpec", "PolicyData", "Policy"}},
	{File: "pkg/spec/gitops.go", Structs: []string{"GitOpsPolicySpec", "PolicyRunScript", "PolicyInstallSoftware"}},
}

// DefaultFieldSources orders the structs that contribute wire names to the
// valid-field list. The first entry is the base policy declaration; later
// entries extend it and lose naming conflicts to it.
var DefaultFieldSources = []string{"PolicySpec", "GitOpsPolicySpec"}

// RequiredPolicyFields are the fields every Fleet policy must carry.
var RequiredPolicyFields = []string{"name", "query"}

// Schema is the complete policy schema extracted from one Fleet checkout.
// It is built once per extraction run and treated as immutable afterwards.
type Schema struct {
	ExtractedAt       string                         `json:"extracted_at"`
	RepoPath          string                         `json:"fleet_repo_path"`
	GitCommit         string                         `json:"git_commit"`
	Structs           map[string]*structparse.Struct `json:"structs"`
	ValidPolicyFields []string                       `json:"valid_policy_fields"`
	TeamOnlyFields    []string                       `json:"team_only_fields"`

	fieldIndex map[string]structparse.Field
}

// FieldByWireName returns the scraped metadata behind a wire name. When the
// same wire name appears in several declarations, the winning (first
// priority) declaration's field is returned.
func (s *Schema) FieldByWireName(name string) (structparse.Field, bool) {
	f, ok := s.fieldIndex[name]
	return f, ok
}
