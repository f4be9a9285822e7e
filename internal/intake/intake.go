// Package intake loads batch inputs: organization lists from CSV, XLSX or
// YAML files, and single-run job files from YAML. Loaders are pure; they
// never touch the network, and document sources keep their paths so the
// fetch layer reads them lazily.
package intake

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/model"
)

// Org is one organization to profile from a batch list.
type Org struct {
	Name    string
	Sources []model.Source
}

// LoadOrgs reads an organization list, dispatching on the file extension.
// Rows without a name, duplicate names (case-insensitive) and orgs with no
// usable sources are skipped.
func LoadOrgs(path string) ([]Org, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSVOrgs(path)
	case ".xlsx":
		return loadXLSXOrgs(path)
	case ".yaml", ".yml":
		return loadYAMLOrgs(path)
	default:
		return nil, eris.Errorf("intake: unsupported list format %q", filepath.Ext(path))
	}
}

// Sources assembles pipeline input from raw URL strings, document paths
// and free text, in that order. Bare domains get an https scheme; anything
// that still is not an absolute http(s) URL is an error.
func Sources(urls, documents []string, text string) ([]model.Source, error) {
	var out []model.Source
	order := 0

	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		normalized, err := normalizeURL(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Source{ID: normalized, Kind: model.SourceKindURL, Content: normalized, Order: order})
		order++
	}

	for _, path := range documents {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		out = append(out, model.Source{ID: path, Kind: model.SourceKindDocument, Order: order})
		order++
	}

	if text = strings.TrimSpace(text); text != "" {
		out = append(out, model.Source{ID: "text", Kind: model.SourceKindText, Content: text, Order: order})
	}
	return out, nil
}

func normalizeURL(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", eris.Errorf("intake: invalid url %q", raw)
	}
	return raw, nil
}
