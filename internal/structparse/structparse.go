// SPDX-License-Identifier: AGPL-3.0-or-later

// Package structparse scrapes field metadata out of Go struct declarations.
// It is a tolerant, line-oriented matcher over the narrow declaration subset
// Fleet uses for its policy types, not a Go parser: any line that does not
// match a known shape is skipped, and a missing declaration is reported as
// absence, never as an error.
package structparse

import (
	"fmt"
	"regexp"
	"strings"
)

// Field is one field scraped from a struct declaration body.
type Field struct {
	Name        string `json:"name"`
	JSONName    string `json:"json_name"`
	GoType      string `json:"go_type"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	TeamOnly    bool   `json:"team_only"`
}

// Embedded reports whether the field is an embedded-struct marker rather
// than a real declared field. Embedded references are recorded but never
// resolved, and they carry no wire name.
func (f Field) Embedded() bool {
	return f.JSONName == ""
}

// Struct is one parsed struct declaration.
type Struct struct {
	Name        string  `json:"name"`
	SourceFile  string  `json:"source_file"`
	SourceLine  int     `json:"source_line"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

// DefaultScopeMarkers flags fields whose trailing comment mentions team
// policies; Fleet documents team-only fields only in prose.
var DefaultScopeMarkers = []string{"team polic"}

// fieldPattern matches: FieldName Type `json:"name,omitempty"` // comment
var fieldPattern = regexp.MustCompile("^(\\w+)\\s+(\\S+)\\s+`json:\"([^\"]+)\"`(?:\\s*//\\s*(.*))?")

// Parser scrapes struct declarations from Go source text.
type Parser struct {
	scopeMarkers []string
}

// NewParser creates a parser using the given scope marker phrases. Markers
// are matched case-insensitively against field comments; an empty list
// falls back to DefaultScopeMarkers.
func NewParser(scopeMarkers []string) *Parser {
	if len(scopeMarkers) == 0 {
		scopeMarkers = DefaultScopeMarkers
	}
	lowered := make([]string, len(scopeMarkers))
	for i, m := range scopeMarkers {
		lowered[i] = strings.ToLower(m)
	}
	return &Parser{scopeMarkers: lowered}
}

// ParseStruct locates the named struct declaration in content and scrapes
// its fields in declaration order. A standalone comment line directly above
// the declaration becomes the struct description. Returns nil when no
// declaration matches; absence is the caller's decision to log or skip.
func (p *Parser) ParseStruct(content, structName, filePath string) *Struct {
	var description, body string
	var start int

	withComment := regexp.MustCompile(`//\s*(.*?)\ntype\s+` + structName + `\s+struct\s*\{\s*([\s\S]*?)\n\}`)
	if m := withComment.FindStringSubmatchIndex(content); m != nil {
		start = m[0]
		description = strings.TrimSpace(content[m[2]:m[3]])
		body = content[m[4]:m[5]]
	} else {
		bare := regexp.MustCompile(`type\s+` + structName + `\s+struct\s*\{\s*([\s\S]*?)\n\}`)
		m := bare.FindStringSubmatchIndex(content)
		if m == nil {
			return nil
		}
		start = m[0]
		body = content[m[2]:m[3]]
	}

	s := &Struct{
		Name:        structName,
		SourceFile:  filePath,
		SourceLine:  strings.Count(content[:start], "\n") + 1,
		Description: description,
	}

	for _, line := range strings.Split(body, "\n") {
		if f, ok := p.parseFieldLine(line); ok {
			s.Fields = append(s.Fields, f)
		}
	}
	return s
}

// parseFieldLine scrapes one declaration-body line. It reports ok=false for
// blank lines, comments, internal-only fields (json:"-") and any line
// outside the known field shape.
func (p *Parser) parseFieldLine(line string) (Field, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "//") {
		return Field{}, false
	}

	// An embedded struct reference (e.g. fleet.PolicySpec) has a dotted
	// name and no tag. Record it as a marker; resolution is out of scope.
	if strings.Contains(line, ".") && !strings.Contains(line, "`") {
		return Field{
			Name:        fmt.Sprintf("[embedded: %s]", line),
			GoType:      line,
			Description: "Embedded struct fields",
		}, true
	}

	m := fieldPattern.FindStringSubmatch(line)
	if m == nil {
		return Field{}, false
	}
	name, goType, tag, comment := m[1], m[2], m[3], m[4]

	parts := strings.Split(tag, ",")
	jsonName := parts[0]
	if jsonName == "-" {
		return Field{}, false
	}

	optional := false
	for _, part := range parts {
		if part == "omitempty" {
			optional = true
			break
		}
	}

	teamOnly := false
	if comment != "" {
		lc := strings.ToLower(comment)
		for _, marker := range p.scopeMarkers {
			if strings.Contains(lc, marker) {
				teamOnly = true
				break
			}
		}
	}

	return Field{
		Name:        name,
		JSONName:    jsonName,
		GoType:      goType,
		Description: comment,
		Optional:    optional,
		TeamOnly:    teamOnly,
	}, true
}
