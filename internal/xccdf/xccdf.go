// SPDX-License-Identifier: AGPL-3.0-or-later

// Package xccdf converts DISA XCCDF benchmark documents into the canonical
// benchmark shape shared by the rest of the pipeline. XML well-formedness is
// the only fatal condition: every missing element degrades to an empty
// string or a stated default, and a group without a rule is skipped.
package xccdf

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	benchmarkPrefix = "xccdf_mil.disa.stig_benchmark_"
	groupPrefix     = "xccdf_mil.disa.stig_group_"

	defaultSeverity = "medium"
	defaultWeight   = "10.0"
)

// Benchmark is the canonical benchmark record. JSON key spelling matches the
// artifact contract consumed downstream, where rules are still called
// "groups" after their XCCDF containers.
type Benchmark struct {
	ID          string `json:"id"`
	BenchmarkID string `json:"benchmarkId"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Version     string `json:"version"`
	Rules       []Rule `json:"groups"`
}

// Rule is one benchmark rule, flattened together with its XCCDF group.
type Rule struct {
	GroupID        string `json:"groupId"`
	GroupTitle     string `json:"title"`
	RuleID         string `json:"ruleId"`
	Severity       string `json:"ruleSeverity"`
	Weight         string `json:"ruleWeight"`
	Title          string `json:"ruleTitle"`
	Version        string `json:"ruleVersion"`
	VulnDiscussion string `json:"ruleVulnDiscussion"`
	CheckContent   string `json:"ruleCheckContent"`
	FixText        string `json:"ruleFixText"`
	Ident          string `json:"ruleIdent"`
}

type xmlBenchmark struct {
	ID      string     `xml:"id,attr"`
	Title   string     `xml:"title"`
	Version string     `xml:"version"`
	Groups  []xmlGroup `xml:"Group"`
}

type xmlGroup struct {
	ID     string     `xml:"id,attr"`
	Title  string     `xml:"title"`
	Rule   *xmlRule   `xml:"Rule"`
	Groups []xmlGroup `xml:"Group"`
}

type xmlRule struct {
	ID          string     `xml:"id,attr"`
	Severity    string     `xml:"severity,attr"`
	Weight      string     `xml:"weight,attr"`
	Title       string     `xml:"title"`
	Version     string     `xml:"version"`
	Description string     `xml:"description"`
	Checks      []xmlCheck `xml:"check"`
	Fixtext     string     `xml:"fixtext"`
	Idents      []string   `xml:"ident"`
}

type xmlCheck struct {
	Content string `xml:"check-content"`
}

// Parse decodes an XCCDF benchmark document into the canonical record.
func Parse(r io.Reader) (*Benchmark, error) {
	var doc xmlBenchmark
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed XCCDF document: %w", err)
	}

	b := &Benchmark{
		ID:          doc.ID,
		BenchmarkID: strings.TrimPrefix(doc.ID, benchmarkPrefix),
		Slug:        slugify(doc.Title),
		Title:       doc.Title,
		Version:     doc.Version,
		Rules:       []Rule{},
	}

	walkGroups(doc.Groups, func(g xmlGroup) {
		if g.Rule == nil {
			return
		}
		b.Rules = append(b.Rules, newRule(g))
	})
	return b, nil
}

// ParseFile parses the XCCDF document at path.
func ParseFile(path string) (*Benchmark, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening XCCDF file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// walkGroups visits groups in document order, parents before their nested
// groups.
func walkGroups(groups []xmlGroup, fn func(xmlGroup)) {
	for _, g := range groups {
		fn(g)
		walkGroups(g.Groups, fn)
	}
}

func newRule(g xmlGroup) Rule {
	r := g.Rule
	rule := Rule{
		GroupID:        strings.TrimPrefix(g.ID, groupPrefix),
		GroupTitle:     g.Title,
		RuleID:         r.ID,
		Severity:       r.Severity,
		Weight:         r.Weight,
		Title:          r.Title,
		Version:        r.Version,
		VulnDiscussion: vulnDiscussion(r.Description),
		FixText:        r.Fixtext,
	}
	if rule.Severity == "" {
		rule.Severity = defaultSeverity
	}
	if rule.Weight == "" {
		rule.Weight = defaultWeight
	}
	for _, c := range r.Checks {
		if c.Content != "" {
			rule.CheckContent = c.Content
			break
		}
	}
	if len(r.Idents) > 0 {
		rule.Ident = r.Idents[0]
	}
	return rule
}

// vulnDiscussion extracts the VulnDiscussion element embedded in a rule
// description. DISA ships the description as escaped XML; when the fragment
// does not parse, the raw text is kept verbatim.
func vulnDiscussion(desc string) string {
	if desc == "" {
		return ""
	}
	var frag struct {
		VulnDiscussion string `xml:"VulnDiscussion"`
	}
	if err := xml.Unmarshal([]byte("<root>"+desc+"</root>"), &frag); err != nil {
		return desc
	}
	return frag.VulnDiscussion
}

// slugify derives a URL slug from a benchmark title.
func slugify(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ReplaceAll(s, "_", "-")
}
