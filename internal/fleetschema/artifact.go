// SPDX-License-Identifier: AGPL-3.0-or-later

package fleetschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bartekus/stigsmith/internal/structparse"
)

// ErrArtifactNotFound reports a missing schema artifact. Validation cannot
// proceed without one; the caller must run schema extraction first.
var ErrArtifactNotFound = errors.New("schema artifact not found")

// Artifact is the persisted JSON schema document consumed by the validator
// and the web frontend. The shape is draft-07 JSON Schema plus a _meta block
// carrying extraction provenance and the flat field lists.
type Artifact struct {
	SchemaURI   string              `json:"$schema"`
	Comment     string              `json:"$comment"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        string              `json:"type"`
	Properties  map[string]Property `json:"properties"`
	Required    []string            `json:"required"`
	Meta        Meta                `json:"_meta"`
}

// Property describes one policy field in JSON Schema terms.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// Meta carries the extraction provenance and the field lists the validator
// consumes.
type Meta struct {
	ExtractedAt    string   `json:"extracted_at"`
	GitCommit      string   `json:"git_commit"`
	ValidFields    []string `json:"valid_fields"`
	TeamOnlyFields []string `json:"team_only_fields"`
}

// BuildArtifact renders the extracted schema as the persisted artifact
// document.
func BuildArtifact(sch *Schema) *Artifact {
	a := &Artifact{
		SchemaURI:   "http://json-schema.org/draft-07/schema#",
		Comment:     fmt.Sprintf("Extracted from Fleet repository at commit %s", sch.GitCommit),
		Title:       "Fleet GitOps Policy",
		Description: "Schema for Fleet policy YAML files",
		Type:        "object",
		Properties:  make(map[string]Property),
		Required:    RequiredPolicyFields,
		Meta: Meta{
			ExtractedAt:    sch.ExtractedAt,
			GitCommit:      sch.GitCommit,
			ValidFields:    sch.ValidPolicyFields,
			TeamOnlyFields: sch.TeamOnlyFields,
		},
	}

	for _, name := range sch.ValidPolicyFields {
		f, ok := sch.FieldByWireName(name)
		if !ok {
			continue
		}
		a.Properties[name] = propertyFor(sch, f)
	}
	return a
}

// propertyFor maps a scraped field to a JSON Schema property. Fields typed
// as one of the scraped structs (e.g. run_script) become nested objects with
// their own properties and required list.
func propertyFor(sch *Schema, f structparse.Field) Property {
	p := Property{Description: f.Description}

	t := strings.TrimPrefix(f.GoType, "*")
	if strings.HasPrefix(t, "[]") {
		p.Type = "array"
		p.Items = &Property{Type: jsonScalarType(strings.TrimPrefix(t, "[]"))}
		return p
	}

	bare := t
	if i := strings.LastIndex(bare, "."); i >= 0 {
		bare = bare[i+1:]
	}
	if st, ok := sch.Structs[bare]; ok {
		p.Type = "object"
		p.Properties = make(map[string]Property)
		for _, sub := range st.Fields {
			if sub.JSONName == "" {
				continue
			}
			p.Properties[sub.JSONName] = Property{
				Type:        jsonScalarType(sub.GoType),
				Description: sub.Description,
			}
			if !sub.Optional {
				p.Required = append(p.Required, sub.JSONName)
			}
		}
		return p
	}

	p.Type = jsonScalarType(t)
	return p
}

// jsonScalarType maps a Go type token to its JSON Schema scalar name.
func jsonScalarType(goType string) string {
	t := strings.TrimPrefix(goType, "*")
	switch {
	case t == "string":
		return "string"
	case t == "bool":
		return "boolean"
	case strings.HasPrefix(t, "int"), strings.HasPrefix(t, "uint"):
		return "integer"
	case strings.HasPrefix(t, "float"):
		return "number"
	default:
		return "object"
	}
}

// WriteArtifact writes the artifact as indented JSON, creating parent
// directories as needed.
func WriteArtifact(path string, a *Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing schema artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads a previously extracted schema artifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("reading schema artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing schema artifact: %w", err)
	}
	return &a, nil
}
