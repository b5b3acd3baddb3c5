package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/brain-insights/microclass-cli/internal/model"
)

// Input column aliases, matched case-insensitively after trimming. Upstream
// exports are inconsistent about accents and separators.
var (
	nameAliases        = []string{"nome", "name"}
	categoryAliases    = []string{"categoria", "category"}
	subcategoryAliases = []string{"sub-categoria", "subcategoria", "sub_categoria", "subcategory"}
	addressAliases     = []string{"endereço", "endereco", "address"}
	idAliases          = []string{"id"}
)

// ParseRecords turns a raw table (header row first) into records. Only the
// name column is required; category, subcategory, address, and id default to
// empty strings when their columns are absent. Rows with an empty name cell
// and no other content are skipped.
func ParseRecords(table [][]string) ([]model.Record, error) {
	if len(table) == 0 {
		return nil, eris.New("fetcher: input table is empty")
	}
	header := table[0]

	nameCol := findColumn(header, nameAliases)
	if nameCol < 0 {
		return nil, eris.Errorf("fetcher: input table missing required column %q", "Nome")
	}
	categoryCol := findColumn(header, categoryAliases)
	subcategoryCol := findColumn(header, subcategoryAliases)
	addressCol := findColumn(header, addressAliases)
	idCol := findColumn(header, idAliases)

	records := make([]model.Record, 0, len(table)-1)
	for _, row := range table[1:] {
		if blankRow(row) {
			continue
		}
		r := model.Record{
			ID:                 cellAt(row, idCol),
			Name:               cellAt(row, nameCol),
			Address:            cellAt(row, addressCol),
			CurrentCategory:    cellAt(row, categoryCol),
			CurrentSubcategory: cellAt(row, subcategoryCol),
		}
		records = append(records, r)
	}
	return records, nil
}

func findColumn(header []string, aliases []string) int {
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		for _, alias := range aliases {
			if key == alias {
				return i
			}
		}
	}
	return -1
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
