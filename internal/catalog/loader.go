package catalog

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// TabFetcher fetches one spreadsheet tab as raw rows, header first.
type TabFetcher interface {
	FetchTab(ctx context.Context, tab string) ([][]string, error)
}

// DefaultSheetTabs are the curated category tabs of the mapping spreadsheet.
// The tab name doubles as the owning category of every mapping it holds.
func DefaultSheetTabs() []string {
	return []string{
		"Alimentação", "Automotivo", "Serviços", "Decoração", "Moda",
		"Educação", "Inst. Financeira", "Saúde e Bem Estar", "Outros",
	}
}

// LoadFromTabs fetches every tab and assembles the combined catalog rows,
// using each tab name as the owning category. A tab whose header lacks the
// required columns fails the whole load; the pipeline must not run against a
// partial catalog.
func LoadFromTabs(ctx context.Context, f TabFetcher, tabs []string, aliases HeaderAliases) ([]Row, error) {
	var rows []Row
	for _, tab := range tabs {
		table, err := f.FetchTab(ctx, tab)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: load tab %q", tab)
		}
		if len(table) == 0 {
			return nil, eris.Errorf("catalog: tab %q is empty", tab)
		}
		tabRows, err := ParseTable(table[0], table[1:], aliases, tab)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: parse tab %q", tab)
		}
		zap.L().Debug("catalog: tab loaded",
			zap.String("tab", tab),
			zap.Int("rows", len(tabRows)),
		)
		rows = append(rows, tabRows...)
	}
	return rows, nil
}
