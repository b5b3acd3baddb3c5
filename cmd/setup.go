package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brain-insights/microclass-cli/internal/catalog"
	"github.com/brain-insights/microclass-cli/internal/config"
	"github.com/brain-insights/microclass-cli/internal/fetcher"
	"github.com/brain-insights/microclass-cli/internal/pipeline"
	"github.com/brain-insights/microclass-cli/internal/store"
	"github.com/brain-insights/microclass-cli/pkg/gsheets"
)

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// loadCatalog builds the catalog index from the configured source: a local
// CSV file when set, otherwise the mapping spreadsheet.
func loadCatalog(ctx context.Context) (*catalog.Index, error) {
	aliases := catalog.DefaultHeaderAliases()

	if cfg.Catalog.File != "" {
		table, err := fetcher.ReadCSVFile(cfg.Catalog.File, fetcher.CSVOptions{TrimSpace: true})
		if err != nil {
			return nil, eris.Wrap(err, "load catalog file")
		}
		rows, err := catalog.ParseCSV(table, aliases)
		if err != nil {
			return nil, err
		}
		zap.L().Info("catalog loaded from file",
			zap.String("file", cfg.Catalog.File),
			zap.Int("rows", len(rows)),
		)
		return catalog.Build(rows), nil
	}

	var opts []gsheets.Option
	if cfg.Catalog.RateLimit > 0 {
		opts = append(opts, gsheets.WithRateLimit(cfg.Catalog.RateLimit))
	}
	client := gsheets.NewClient(cfg.Catalog.SheetID, opts...)

	tabs := cfg.Catalog.Tabs
	if len(tabs) == 0 {
		tabs = catalog.DefaultSheetTabs()
	}

	rows, err := catalog.LoadFromTabs(ctx, client, tabs, aliases)
	if err != nil {
		return nil, err
	}
	zap.L().Info("catalog loaded from sheets",
		zap.Int("tabs", len(tabs)),
		zap.Int("rows", len(rows)),
	)
	return catalog.Build(rows), nil
}

func pipelineOptions(c *config.Config) pipeline.Options {
	return pipeline.Options{
		HiThreshold:              c.Pipeline.HiThreshold,
		LoThreshold:              c.Pipeline.LoThreshold,
		ContainsConfidence:       c.Pipeline.ContainsConfidence,
		ProblematicLabels:        c.Pipeline.ProblematicLabels,
		AddressKeywords:          c.Pipeline.AddressKeywords,
		IncludeAddressInHaystack: c.Pipeline.IncludeAddressInHaystack,
	}
}
