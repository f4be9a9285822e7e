package fetch

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// flattenXLSX renders workbook data as tab-separated text rows so the
// extraction layers can treat spreadsheets like any other document. Sheets
// are separated by a blank line; all-empty rows are dropped.
func flattenXLSX(data []byte) (string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return "", eris.Wrap(err, "xlsx: open workbook")
	}

	var sb strings.Builder
	for i, sheet := range f.Sheets {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, row := range sheet.Rows {
			cells := rowToStrings(row)
			line := strings.Join(cells, "\t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
