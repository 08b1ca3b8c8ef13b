// SPDX-License-Identifier: AGPL-3.0-or-later

// Package policycheck validates exported Fleet policy YAML against the
// extracted policy schema. Findings are structured violations, accumulated
// exhaustively across every policy; validation never stops at the first
// problem.
package policycheck

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/bartekus/stigsmith/internal/fleetschema"
)

// Kind classifies one validation violation.
type Kind string

const (
	KindParseError         Kind = "parse_error"
	KindUnknownField       Kind = "unknown_field"
	KindMissingRequired    Kind = "missing_required"
	KindMalformedNested    Kind = "malformed_nested"
	KindUnknownNestedField Kind = "unknown_nested_field"
)

// Violation is one finding from a validation run.
type Violation struct {
	Index   int    `json:"index"`
	Policy  string `json:"policy,omitempty"`
	Field   string `json:"field,omitempty"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Rules is the slice of the schema artifact the validator consumes.
type Rules struct {
	ValidFields    []string
	RequiredFields []string
}

// RulesFromArtifact builds validator rules from a loaded schema artifact.
func RulesFromArtifact(a *fleetschema.Artifact) Rules {
	return Rules{
		ValidFields:    a.Meta.ValidFields,
		RequiredFields: a.Required,
	}
}

// installSoftwareFields is the fixed allow-list for install_software
// sub-keys.
var installSoftwareFields = map[string]bool{
	"package_path": true,
	"app_store_id": true,
	"hash_sha256":  true,
}

// ValidateReader decodes a YAML stream, which may hold several documents,
// and validates every policy in it. A stream that cannot be parsed at all
// yields a single parse_error violation rather than an error.
func ValidateReader(r io.Reader, rules Rules) (int, []Violation) {
	dec := yaml.NewDecoder(r)

	var docs []any
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, []Violation{{
				Kind:    KindParseError,
				Message: fmt.Sprintf("YAML parse error: %v", err),
			}}
		}
		docs = append(docs, doc)
	}
	return ValidateAll(docs, rules)
}

// ValidateAll flattens the decoded documents into one ordered policy
// sequence and validates each. A document is either a policy list or a
// single policy; non-mapping entries are ignored, not errors. The returned
// count is the number of policies examined.
func ValidateAll(docs []any, rules Rules) (int, []Violation) {
	count := 0
	var violations []Violation

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		entries, ok := doc.([]any)
		if !ok {
			entries = []any{doc}
		}
		for _, entry := range entries {
			policy, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			count++
			violations = append(violations, ValidatePolicy(policy, rules, count)...)
		}
	}
	return count, violations
}

// ValidatePolicy checks one policy mapping and returns every violation
// found. index is the 1-based position of the policy across all documents.
func ValidatePolicy(policy map[string]any, rules Rules, index int) []Violation {
	name, _ := policy["name"].(string)
	if name == "" {
		name = "unknown"
	}

	valid := make(map[string]bool, len(rules.ValidFields))
	for _, f := range rules.ValidFields {
		valid[f] = true
	}

	var violations []Violation

	keys := make([]string, 0, len(policy))
	for k := range policy {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !valid[k] {
			violations = append(violations, Violation{
				Index:   index,
				Policy:  name,
				Field:   k,
				Kind:    KindUnknownField,
				Message: fmt.Sprintf("invalid field %q - not in Fleet schema", k),
			})
		}
	}

	for _, req := range rules.RequiredFields {
		if _, ok := policy[req]; !ok {
			violations = append(violations, Violation{
				Index:   index,
				Policy:  name,
				Field:   req,
				Kind:    KindMissingRequired,
				Message: fmt.Sprintf("missing required field %q", req),
			})
		}
	}

	violations = append(violations, checkRunScript(policy, name, index)...)
	violations = append(violations, checkInstallSoftware(policy, name, index)...)
	return violations
}

// checkRunScript validates the run_script sub-object: it must be a mapping
// carrying a path sub-key.
func checkRunScript(policy map[string]any, name string, index int) []Violation {
	raw, ok := policy["run_script"]
	if !ok {
		return nil
	}

	rs, ok := raw.(map[string]any)
	if !ok {
		return []Violation{{
			Index:   index,
			Policy:  name,
			Field:   "run_script",
			Kind:    KindMalformedNested,
			Message: "run_script must be an object with a path field",
		}}
	}
	if _, ok := rs["path"]; !ok {
		return []Violation{{
			Index:   index,
			Policy:  name,
			Field:   "run_script.path",
			Kind:    KindMissingRequired,
			Message: "run_script missing required path field",
		}}
	}
	return nil
}

// checkInstallSoftware validates the install_software sub-object: it must be
// a mapping, and every sub-key must come from the fixed allow-list.
func checkInstallSoftware(policy map[string]any, name string, index int) []Violation {
	raw, ok := policy["install_software"]
	if !ok {
		return nil
	}

	isw, ok := raw.(map[string]any)
	if !ok {
		return []Violation{{
			Index:   index,
			Policy:  name,
			Field:   "install_software",
			Kind:    KindMalformedNested,
			Message: "install_software must be an object",
		}}
	}

	var violations []Violation
	keys := make([]string, 0, len(isw))
	for k := range isw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !installSoftwareFields[k] {
			violations = append(violations, Violation{
				Index:   index,
				Policy:  name,
				Field:   "install_software." + k,
				Kind:    KindUnknownNestedField,
				Message: fmt.Sprintf("install_software has invalid field %q", k),
			})
		}
	}
	return violations
}
