package fleetschema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const policiesSrc = `package fleet

// PolicySpec is the policy YAML shape applied via fleet gitops.
type PolicySpec struct {
	Name        string ` + "`json:\"name\"`" + `
	Query       string ` + "`json:\"query\"`" + `
	Description string ` + "`json:\"description,omitempty\"`" + `
	Critical    bool   ` + "`json:\"critical\"`" + ` // Mark as high impact for team and global policies
	TeamID      *uint  ` + "`json:\"-\"`" + `
	CalendarEventsEnabled bool ` + "`json:\"calendar_events_enabled\"`" + ` // Only effective for team policies
}

// PolicyData is the stored policy row.
type PolicyData struct {
	ID   uint   ` + "`json:\"id\"`" + `
	Name string ` + "`json:\"name\"`" + `
}

// Policy is a policy together with its live host counts.
type Policy struct {
	PolicyData
	PassingHostCount uint ` + "`json:\"passing_host_count\"`" + `
}
`

const gitopsSrc = `package spec

// GitOpsPolicySpec is the policy shape accepted in gitops YAML.
type GitOpsPolicySpec struct {
	fleet.PolicySpec
	Name             string                 ` + "`json:\"name\"`" + ` // Duplicate of the base name field
	RunScript        *PolicyRunScript       ` + "`json:\"run_script,omitempty\"`" + ` // Runs when a team policy fails
	InstallSoftware  *PolicyInstallSoftware ` + "`json:\"install_software,omitempty\"`" + ` // Installs software when a team policy fails
	LabelsIncludeAny []string               ` + "`json:\"labels_include_any,omitempty\"`" + `
}

// PolicyRunScript points at the script to run on failure.
type PolicyRunScript struct {
	Path string ` + "`json:\"path\"`" + `
}

// PolicyInstallSoftware points at the software to install on failure.
type PolicyInstallSoftware struct {
	PackagePath string ` + "`json:\"package_path,omitempty\"`" + `
	AppStoreID  string ` + "`json:\"app_store_id,omitempty\"`" + `
	HashSHA256  string ` + "`json:\"hash_sha256,omitempty\"`" + `
}
`

// writeFleetFixture lays out a minimal Fleet checkout in a temp dir.
func writeFleetFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range map[string]string{
		"server/fleet/policies.go": policiesSrc,
		"pkg/spec/gitops.go":       gitopsSrc,
	} {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestExtract(t *testing.T) {
	root := writeFleetFixture(t)

	b := &Builder{}
	sch, warnings := b.Extract(root, "abc123def456")

	assert.Empty(t, warnings)
	assert.Equal(t, "abc123def456", sch.GitCommit)
	assert.Len(t, sch.Structs, 6)

	assert.Equal(t, []string{
		"name", "query", "description", "critical", "calendar_events_enabled",
		"run_script", "install_software", "labels_include_any",
	}, sch.ValidPolicyFields)

	assert.Equal(t, []string{
		"calendar_events_enabled", "run_script", "install_software",
	}, sch.TeamOnlyFields)
}

func TestExtractTeamOnlySubset(t *testing.T) {
	root := writeFleetFixture(t)

	b := &Builder{}
	sch, _ := b.Extract(root, "abc")

	valid := make(map[string]bool)
	for _, f := range sch.ValidPolicyFields {
		valid[f] = true
	}
	for _, f := range sch.TeamOnlyFields {
		assert.True(t, valid[f], "team-only field %q must also be a valid field", f)
	}
}

func TestExtractBaseFlagIsAuthoritative(t *testing.T) {
	// "critical" mentions "team" in its comment, but description inference
	// applies only to extension declarations; the base declaration relies on
	// the explicit marker phrase.
	root := writeFleetFixture(t)

	b := &Builder{}
	sch, _ := b.Extract(root, "abc")

	assert.NotContains(t, sch.TeamOnlyFields, "critical")
	assert.Contains(t, sch.TeamOnlyFields, "run_script")
}

func TestExtractDuplicateWireNames(t *testing.T) {
	root := writeFleetFixture(t)

	b := &Builder{}
	sch, _ := b.Extract(root, "abc")

	count := 0
	for _, f := range sch.ValidPolicyFields {
		if f == "name" {
			count++
		}
	}
	assert.Equal(t, 1, count, "duplicate wire names keep their first occurrence only")

	f, ok := sch.FieldByWireName("name")
	require.True(t, ok)
	assert.Empty(t, f.Description, "base declaration wins the conflict")
}

func TestExtractMissingBaseStruct(t *testing.T) {
	root := t.TempDir()
	full := filepath.Join(root, "pkg/spec/gitops.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(gitopsSrc), 0o644))

	b := &Builder{}
	sch, warnings := b.Extract(root, "abc")

	assert.NotEmpty(t, warnings, "missing policies.go should warn")
	assert.Equal(t, []string{
		"name", "run_script", "install_software", "labels_include_any",
	}, sch.ValidPolicyFields, "valid fields come from the extension alone")
}

func TestExtractEmptyRepo(t *testing.T) {
	b := &Builder{}
	sch, warnings := b.Extract(t.TempDir(), "abc")

	assert.Len(t, warnings, 2)
	assert.Empty(t, sch.ValidPolicyFields)
	assert.Empty(t, sch.TeamOnlyFields)
	assert.NotNil(t, sch.ValidPolicyFields, "field lists serialize as [], not null")
}

func TestExtractEmbeddedFieldsExcluded(t *testing.T) {
	root := writeFleetFixture(t)

	b := &Builder{}
	sch, _ := b.Extract(root, "abc")

	for _, f := range sch.ValidPolicyFields {
		assert.NotContains(t, f, "embedded")
	}
}
