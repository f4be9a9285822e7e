package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/profile-cli/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func TestDirectFetcher_TextPassthrough(t *testing.T) {
	f := NewDirectFetcher()
	src := model.Source{ID: "note-1", Kind: model.SourceKindText, Content: "Acme was founded in 1998."}

	raw, err := f.Fetch(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, "note-1", raw.SourceID)
	assert.Equal(t, src.Content, raw.Body)
	assert.False(t, raw.IsHTML)
	assert.Equal(t, model.FetchMethodDirect, raw.Meta.Method)
	assert.Equal(t, len(src.Content), raw.Meta.ContentLength)
}

func TestDirectFetcher_InlineDocumentHonorsMediaType(t *testing.T) {
	f := NewDirectFetcher()
	src := model.Source{
		ID:        "brochure.html",
		Kind:      model.SourceKindDocument,
		Content:   "<p>About Acme</p>",
		MediaType: "text/html",
	}

	raw, err := f.Fetch(context.Background(), src)

	require.NoError(t, err)
	assert.True(t, raw.IsHTML)
}

func TestDirectFetcher_ReadsDocumentFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "about.txt")
	require.NoError(t, os.WriteFile(path, []byte("Acme builds robots."), 0o644))

	f := NewDirectFetcher()
	raw, err := f.Fetch(context.Background(), model.Source{ID: path, Kind: model.SourceKindDocument})

	require.NoError(t, err)
	assert.Equal(t, "Acme builds robots.", raw.Body)
	assert.Equal(t, model.FetchMethodDirect, raw.Meta.Method)
}

func TestDirectFetcher_FileURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "about.txt")
	require.NoError(t, os.WriteFile(path, []byte("Acme ships worldwide."), 0o644))

	f := NewDirectFetcher()
	raw, err := f.Fetch(context.Background(), model.Source{ID: "file://" + path, Kind: model.SourceKindDocument})

	require.NoError(t, err)
	assert.Equal(t, "Acme ships worldwide.", raw.Body)
}

func TestDirectFetcher_MissingFile(t *testing.T) {
	f := NewDirectFetcher()
	_, err := f.Fetch(context.Background(), model.Source{
		ID:   filepath.Join(t.TempDir(), "nope.txt"),
		Kind: model.SourceKindDocument,
	})

	require.Error(t, err)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ReasonInvalidURL, fe.Reason)
}

func TestDirectFetcher_FlattensSpreadsheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Contacts": {
			{"Name", "Title", "Email"},
			{"Jane Doe", "CEO", "jane@acme.io"},
		},
	})

	f := NewDirectFetcher()
	raw, err := f.Fetch(context.Background(), model.Source{ID: path, Kind: model.SourceKindDocument})

	require.NoError(t, err)
	assert.Contains(t, raw.Body, "Name\tTitle\tEmail")
	assert.Contains(t, raw.Body, "Jane Doe\tCEO\tjane@acme.io")
	assert.False(t, raw.IsHTML)
}

func TestDirectFetcher_BinaryDocumentRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x01, 0x80}, 0o644))

	f := NewDirectFetcher()
	_, err := f.Fetch(context.Background(), model.Source{ID: path, Kind: model.SourceKindDocument})

	require.Error(t, err)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ReasonUnsupportedType, fe.Reason)
}

func TestDirectFetcher_SniffsHTMLDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.html")
	require.NoError(t, os.WriteFile(path, []byte("<!DOCTYPE html><html><body>Hi</body></html>"), 0o644))

	f := NewDirectFetcher()
	raw, err := f.Fetch(context.Background(), model.Source{ID: path, Kind: model.SourceKindDocument})

	require.NoError(t, err)
	assert.True(t, raw.IsHTML)
}

func TestDirectFetcher_Supports(t *testing.T) {
	f := NewDirectFetcher()
	assert.True(t, f.Supports(model.Source{Kind: model.SourceKindText}))
	assert.True(t, f.Supports(model.Source{ID: "doc.txt", Kind: model.SourceKindDocument}))
	assert.False(t, f.Supports(model.Source{ID: "ftp://host/doc.txt", Kind: model.SourceKindDocument}))
	assert.False(t, f.Supports(model.Source{Kind: model.SourceKindURL}))
}
