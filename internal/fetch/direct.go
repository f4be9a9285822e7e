package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/model"
)

// DirectFetcher serves document and text sources without touching the
// network. Documents with no inline content are read from disk; the ID may
// be a plain path or a file:// URL. Spreadsheets are flattened to
// tab-separated rows.
type DirectFetcher struct{}

// NewDirectFetcher creates a DirectFetcher.
func NewDirectFetcher() *DirectFetcher {
	return &DirectFetcher{}
}

func (d *DirectFetcher) Name() string { return "direct" }

func (d *DirectFetcher) Supports(src model.Source) bool {
	switch src.Kind {
	case model.SourceKindText:
		return true
	case model.SourceKindDocument:
		return !strings.HasPrefix(strings.ToLower(src.ID), "ftp://")
	default:
		return false
	}
}

func (d *DirectFetcher) Fetch(_ context.Context, src model.Source) (*model.RawContent, error) {
	start := time.Now()

	body := src.Content
	if body == "" && src.Kind == model.SourceKindDocument && src.ID != "" {
		loaded, err := d.loadFile(src)
		if err != nil {
			return nil, err
		}
		body = loaded
	}

	return &model.RawContent{
		SourceID: src.ID,
		Body:     body,
		IsHTML:   mediaTypeIsHTML(src.MediaType) || looksLikeHTML("", []byte(body)),
		Meta: model.FetchMetadata{
			Method:        model.FetchMethodDirect,
			ContentLength: len(body),
			Latency:       time.Since(start),
			FetchedAt:     time.Now(),
		},
	}, nil
}

// loadFile reads a document from disk, flattening spreadsheets.
func (d *DirectFetcher) loadFile(src model.Source) (string, error) {
	path := strings.TrimPrefix(src.ID, "file://")

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &FetchError{SourceID: src.ID, Reason: ReasonInvalidURL,
			Err: eris.Wrap(err, "direct: read document")}
	}

	if isSpreadsheet(path, src.MediaType) {
		flat, err := flattenXLSX(data)
		if err != nil {
			return "", &FetchError{SourceID: src.ID, Reason: ReasonUnsupportedType,
				Err: eris.Wrap(err, "direct: flatten spreadsheet")}
		}
		return flat, nil
	}

	if !utf8.Valid(data) {
		return "", &FetchError{SourceID: src.ID, Reason: ReasonUnsupportedType,
			Err: eris.Errorf("direct: document %s is not text", src.ID)}
	}

	return string(data), nil
}

func mediaTypeIsHTML(mediaType string) bool {
	return strings.Contains(strings.ToLower(mediaType), "html")
}

func isSpreadsheet(path, mediaType string) bool {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return true
	}
	return strings.Contains(strings.ToLower(mediaType), "spreadsheet")
}
