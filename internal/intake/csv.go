package intake

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Recognized columns. "name" is required; "website" holds the primary URL,
// "urls" extra ones separated by semicolons, "notes" free text.
const (
	colName    = "name"
	colWebsite = "website"
	colURLs    = "urls"
	colNotes   = "notes"
)

func loadCSVOrgs(path string) ([]Org, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "intake: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "intake: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("intake: csv has no data rows")
	}
	return orgsFromRows(records[0], records[1:])
}

// orgsFromRows converts header-mapped tabular rows into orgs. Shared by
// the CSV and XLSX loaders.
func orgsFromRows(header []string, rows [][]string) ([]Org, error) {
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colIdx[colName]; !ok {
		return nil, eris.Errorf("intake: missing required column %q", colName)
	}

	seen := make(map[string]bool)
	var orgs []Org
	for _, row := range rows {
		name := getCol(row, colIdx, colName)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		var urls []string
		if w := getCol(row, colIdx, colWebsite); w != "" {
			urls = append(urls, w)
		}
		for _, u := range strings.Split(getCol(row, colIdx, colURLs), ";") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}

		sources, err := Sources(urls, nil, getCol(row, colIdx, colNotes))
		if err != nil {
			return nil, eris.Wrapf(err, "intake: org %s", name)
		}
		if len(sources) == 0 {
			continue
		}
		orgs = append(orgs, Org{Name: name, Sources: sources})
	}
	return orgs, nil
}

func getCol(row []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
