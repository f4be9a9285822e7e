package intake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/profile-cli/internal/model"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			cell := row.AddCell()
			cell.SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "orgs.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestSources_NormalizesBareDomains(t *testing.T) {
	sources, err := Sources([]string{"acme.example.com", "https://beta.example.com"}, nil, "")
	require.NoError(t, err)

	require.Len(t, sources, 2)
	assert.Equal(t, "https://acme.example.com", sources[0].ID)
	assert.Equal(t, model.SourceKindURL, sources[0].Kind)
	assert.Equal(t, "https://beta.example.com", sources[1].ID)
}

func TestSources_RejectsNonHTTPSchemes(t *testing.T) {
	_, err := Sources([]string{"ftp://files.example.com"}, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid url")
}

func TestSources_OrderAcrossKinds(t *testing.T) {
	sources, err := Sources(
		[]string{"https://acme.example.com"},
		[]string{"brochure.txt"},
		"Notes from the sales call.",
	)
	require.NoError(t, err)

	require.Len(t, sources, 3)
	assert.Equal(t, model.SourceKindURL, sources[0].Kind)
	assert.Equal(t, model.SourceKindDocument, sources[1].Kind)
	assert.Equal(t, "brochure.txt", sources[1].ID)
	assert.Empty(t, sources[1].Content, "document content is loaded by the fetch layer")
	assert.Equal(t, model.SourceKindText, sources[2].Kind)
	assert.Equal(t, "Notes from the sales call.", sources[2].Content)
	for i, src := range sources {
		assert.Equal(t, i, src.Order)
	}
}

func TestSources_AllEmpty(t *testing.T) {
	sources, err := Sources([]string{"", "  "}, []string{""}, "   ")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestLoadOrgs_CSV(t *testing.T) {
	path := writeTempFile(t, "orgs.csv", `Name,Website,URLs,Notes
Acme Corp,acme.example.com,https://acme.example.com/about;https://news.example.com/acme,Precision fastener maker
Acme Corp,acme.example.com,,
,orphan.example.com,,
Empty Co,,,
Beta LLC,https://beta.example.com,,
`)

	orgs, err := LoadOrgs(path)
	require.NoError(t, err)

	require.Len(t, orgs, 2)

	acme := orgs[0]
	assert.Equal(t, "Acme Corp", acme.Name)
	require.Len(t, acme.Sources, 4)
	assert.Equal(t, "https://acme.example.com", acme.Sources[0].ID)
	assert.Equal(t, "https://acme.example.com/about", acme.Sources[1].ID)
	assert.Equal(t, "https://news.example.com/acme", acme.Sources[2].ID)
	assert.Equal(t, model.SourceKindText, acme.Sources[3].Kind)
	assert.Equal(t, "Precision fastener maker", acme.Sources[3].Content)

	beta := orgs[1]
	assert.Equal(t, "Beta LLC", beta.Name)
	require.Len(t, beta.Sources, 1)
	assert.Equal(t, "https://beta.example.com", beta.Sources[0].ID)
}

func TestLoadOrgs_CSV_MissingNameColumn(t *testing.T) {
	path := writeTempFile(t, "orgs.csv", "Website,Notes\nacme.example.com,hi\n")

	_, err := LoadOrgs(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "name"`)
}

func TestLoadOrgs_CSV_NoDataRows(t *testing.T) {
	path := writeTempFile(t, "orgs.csv", "Name,Website\n")

	_, err := LoadOrgs(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestLoadOrgs_CSV_InvalidURL(t *testing.T) {
	path := writeTempFile(t, "orgs.csv", "Name,Website\nAcme Corp,ftp://files.example.com\n")

	_, err := LoadOrgs(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "org Acme Corp")
}

func TestLoadOrgs_XLSX(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"Name", "Website", "Notes"},
		{"Acme Corp", "acme.example.com", ""},
		{"Beta LLC", "beta.example.com", "Boutique consultancy"},
	})

	orgs, err := LoadOrgs(path)
	require.NoError(t, err)

	require.Len(t, orgs, 2)
	assert.Equal(t, "Acme Corp", orgs[0].Name)
	require.Len(t, orgs[0].Sources, 1)
	assert.Equal(t, "https://acme.example.com", orgs[0].Sources[0].ID)
	require.Len(t, orgs[1].Sources, 2)
}

func TestLoadOrgs_YAML(t *testing.T) {
	path := writeTempFile(t, "orgs.yaml", `orgs:
  - name: Acme Corp
    urls:
      - acme.example.com
    text: "Family-owned manufacturer."
  - name: Beta LLC
    documents:
      - beta-brochure.txt
  - name: ""
    urls: [https://nameless.example.com]
  - name: Acme Corp
    urls: [https://duplicate.example.com]
`)

	orgs, err := LoadOrgs(path)
	require.NoError(t, err)

	require.Len(t, orgs, 2)
	assert.Equal(t, "Acme Corp", orgs[0].Name)
	require.Len(t, orgs[0].Sources, 2)
	assert.Equal(t, "Beta LLC", orgs[1].Name)
	require.Len(t, orgs[1].Sources, 1)
	assert.Equal(t, model.SourceKindDocument, orgs[1].Sources[0].Kind)
	assert.Equal(t, "beta-brochure.txt", orgs[1].Sources[0].ID)
}

func TestLoadOrgs_UnsupportedExtension(t *testing.T) {
	_, err := LoadOrgs("orgs.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported list format")
}

func TestLoadJob(t *testing.T) {
	path := writeTempFile(t, "job.yaml", `name: Acme Corp
urls:
  - https://acme.example.com
documents:
  - brochure.txt
text: "Notes from the call."
options:
  use_ai: false
  focus_hints:
    - funding
`)

	job, err := LoadJob(path)
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", job.Name)
	require.NotNil(t, job.Options.UseAI)
	assert.False(t, *job.Options.UseAI)
	assert.Equal(t, []string{"funding"}, job.Options.FocusHints)

	sources, err := job.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, model.SourceKindURL, sources[0].Kind)
	assert.Equal(t, model.SourceKindDocument, sources[1].Kind)
	assert.Equal(t, model.SourceKindText, sources[2].Kind)
}

func TestLoadJob_MissingName(t *testing.T) {
	path := writeTempFile(t, "job.yaml", "urls:\n  - https://acme.example.com\n")

	_, err := LoadJob(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no org name")
}

func TestLoadJob_DefaultsLeaveUseAIUnset(t *testing.T) {
	path := writeTempFile(t, "job.yaml", "name: Acme Corp\nurls:\n  - https://acme.example.com\n")

	job, err := LoadJob(path)
	require.NoError(t, err)
	assert.Nil(t, job.Options.UseAI)
}
