package xccdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBenchmark = `<?xml version="1.0" encoding="utf-8"?>
<Benchmark xmlns="http://checklists.nist.gov/xccdf/1.1" id="xccdf_mil.disa.stig_benchmark_MS_Windows_11_STIG">
  <title>Microsoft Windows 11 Security_Technical Implementation Guide</title>
  <version>3</version>
  <Group id="xccdf_mil.disa.stig_group_V-253254">
    <title>SRG-OS-000001</title>
    <Rule id="SV-253254r958478_rule" severity="high" weight="10.0">
      <version>WN11-00-000005</version>
      <title>Domain-joined systems must use Windows 11 Enterprise Edition.</title>
      <description>&lt;VulnDiscussion&gt;Features such as Credential Guard depend on virtualization.&lt;/VulnDiscussion&gt;&lt;FalsePositives&gt;&lt;/FalsePositives&gt;</description>
      <ident system="http://cyber.mil/cci">CCI-000366</ident>
      <fixtext fixref="F-1">Use Windows 11 Enterprise Edition.</fixtext>
      <check system="C-1">
        <check-content-ref href="unused"/>
        <check-content>Verify the Windows edition in system settings.</check-content>
      </check>
    </Rule>
  </Group>
  <Group id="xccdf_mil.disa.stig_group_V-999999">
    <title>Structural group without a rule</title>
  </Group>
  <Group id="xccdf_mil.disa.stig_group_V-253255">
    <Rule id="SV-253255r958478_rule">
      <title>Second rule with everything defaulted</title>
      <description>Plain text where 1 &lt; 2 is not valid markup</description>
    </Rule>
  </Group>
</Benchmark>
`

func TestParse(t *testing.T) {
	b, err := Parse(strings.NewReader(sampleBenchmark))
	require.NoError(t, err)

	assert.Equal(t, "xccdf_mil.disa.stig_benchmark_MS_Windows_11_STIG", b.ID)
	assert.Equal(t, "MS_Windows_11_STIG", b.BenchmarkID)
	assert.Equal(t, "microsoft-windows-11-security-technical-implementation-guide", b.Slug)
	assert.Equal(t, "3", b.Version)

	require.Len(t, b.Rules, 2, "the structural group has no rule and is skipped")

	first := b.Rules[0]
	assert.Equal(t, "V-253254", first.GroupID)
	assert.Equal(t, "SRG-OS-000001", first.GroupTitle)
	assert.Equal(t, "SV-253254r958478_rule", first.RuleID)
	assert.Equal(t, "high", first.Severity)
	assert.Equal(t, "10.0", first.Weight)
	assert.Equal(t, "WN11-00-000005", first.Version)
	assert.Equal(t, "Features such as Credential Guard depend on virtualization.", first.VulnDiscussion)
	assert.Equal(t, "Verify the Windows edition in system settings.", first.CheckContent)
	assert.Equal(t, "Use Windows 11 Enterprise Edition.", first.FixText)
	assert.Equal(t, "CCI-000366", first.Ident)
}

func TestParseDefaults(t *testing.T) {
	b, err := Parse(strings.NewReader(sampleBenchmark))
	require.NoError(t, err)
	require.Len(t, b.Rules, 2)

	second := b.Rules[1]
	assert.Equal(t, "medium", second.Severity)
	assert.Equal(t, "10.0", second.Weight)
	assert.Empty(t, second.Version)
	assert.Empty(t, second.CheckContent)
	assert.Empty(t, second.FixText)
	assert.Empty(t, second.Ident)
}

func TestParseVulnDiscussionFallback(t *testing.T) {
	b, err := Parse(strings.NewReader(sampleBenchmark))
	require.NoError(t, err)

	// The second description is not a parseable fragment; the raw text is
	// kept verbatim.
	assert.Equal(t, "Plain text where 1 < 2 is not valid markup", b.Rules[1].VulnDiscussion)
}

func TestParseZeroGroups(t *testing.T) {
	doc := `<Benchmark id="xccdf_mil.disa.stig_benchmark_Empty"><title>Empty</title></Benchmark>`

	b, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.NotNil(t, b.Rules)
	assert.Len(t, b.Rules, 0)
	assert.Equal(t, "empty", b.Slug)
}

func TestParseMissingTitle(t *testing.T) {
	doc := `<Benchmark id="xccdf_mil.disa.stig_benchmark_X"></Benchmark>`

	b, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Empty(t, b.Title)
	assert.Empty(t, b.Slug)
	assert.Empty(t, b.Version)
}

func TestParseNestedGroups(t *testing.T) {
	doc := `<Benchmark id="b">
  <Group id="xccdf_mil.disa.stig_group_outer">
    <Rule id="rule-outer"><title>Outer</title></Rule>
    <Group id="xccdf_mil.disa.stig_group_inner">
      <Rule id="rule-inner"><title>Inner</title></Rule>
    </Group>
  </Group>
</Benchmark>`

	b, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, b.Rules, 2)
	assert.Equal(t, "outer", b.Rules[0].GroupID)
	assert.Equal(t, "inner", b.Rules[1].GroupID)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<Benchmark id="b"><Group>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed XCCDF document")
}
