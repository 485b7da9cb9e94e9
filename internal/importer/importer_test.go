package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, v := range rowData {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadFile_CSV(t *testing.T) {
	t.Parallel()

	path := writeTestCSV(t, `Company,Address,Phone,Website,Email,Contact Name
Acme Plumbing,123 Main St,(217) 555-0134,https://www.acme.com,info@acme.com,Jane Doe
Springfield Drains,456 Oak Ave,,https://www.sfdrains.com,,
`)

	businesses, err := ReadFile(path, "import: leads.csv")
	require.NoError(t, err)
	require.Len(t, businesses, 2)

	acme := businesses[0]
	assert.Equal(t, "Acme Plumbing", acme.Name)
	assert.Equal(t, "123 Main St", acme.Address)
	assert.Equal(t, "(217) 555-0134", acme.Phone)
	assert.Equal(t, "https://www.acme.com", acme.Website)
	assert.Equal(t, "info@acme.com", acme.Email)
	assert.Equal(t, "Jane Doe", acme.ContactName)
	assert.Equal(t, "import: leads.csv", acme.SourceSearch)

	assert.Empty(t, businesses[1].Email)
}

func TestReadFile_XLSX(t *testing.T) {
	t.Parallel()

	path := writeTestXLSX(t, [][]string{
		{"Business", "URL", "email"},
		{"Acme Plumbing", "https://www.acme.com", "info@acme.com"},
	})

	businesses, err := ReadFile(path, "import")
	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Acme Plumbing", businesses[0].Name)
	assert.Equal(t, "https://www.acme.com", businesses[0].Website)
	assert.Equal(t, "info@acme.com", businesses[0].Email)
}

func TestReadFile_HeaderAliasesAndCase(t *testing.T) {
	t.Parallel()

	path := writeTestCSV(t, `NAME,contact_name,Web Site
Acme Plumbing,Jane Doe,https://www.acme.com
`)

	businesses, err := ReadFile(path, "import")
	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Jane Doe", businesses[0].ContactName)
	// "Web Site" normalizes to the website column.
	assert.Equal(t, "https://www.acme.com", businesses[0].Website)
}

func TestReadFile_SkipsRowsWithoutName(t *testing.T) {
	t.Parallel()

	path := writeTestCSV(t, `Name,Email
Acme Plumbing,info@acme.com
,orphan@nowhere.com
`)

	businesses, err := ReadFile(path, "import")
	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Acme Plumbing", businesses[0].Name)
}

func TestReadFile_RaggedRows(t *testing.T) {
	t.Parallel()

	path := writeTestCSV(t, `Name,Email,Phone
Acme Plumbing,info@acme.com
Springfield Drains,service@sfdrains.com,(217) 555-0199,extra
`)

	businesses, err := ReadFile(path, "import")
	require.NoError(t, err)
	require.Len(t, businesses, 2)
	assert.Empty(t, businesses[0].Phone)
	assert.Equal(t, "(217) 555-0199", businesses[1].Phone)
}

func TestReadFile_NoRecognizedColumns(t *testing.T) {
	t.Parallel()

	path := writeTestCSV(t, `Foo,Bar
1,2
`)

	_, err := ReadFile(path, "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognized columns")
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := ReadFile("leads.pdf", "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestReadFile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), "import")
	require.Error(t, err)
}
