package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brain-insights/microclass-cli/internal/catalog"
	"github.com/brain-insights/microclass-cli/internal/fetcher"
	"github.com/brain-insights/microclass-cli/internal/model"
	"github.com/brain-insights/microclass-cli/internal/pipeline"
	"github.com/brain-insights/microclass-cli/internal/store"
)

var (
	runOutputDir    string
	runCatalogExtra string
	runNoStore      bool
)

var runCmd = &cobra.Command{
	Use:   "run <input-file>...",
	Short: "Reclassify one or more input workbooks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		idx, err := loadCatalog(ctx)
		if err != nil {
			return err
		}

		if runCatalogExtra != "" {
			table, err := fetcher.ReadCSVFile(runCatalogExtra, fetcher.CSVOptions{TrimSpace: true})
			if err != nil {
				return eris.Wrap(err, "load extra catalog mappings")
			}
			rows, err := catalog.ParseCSV(table, catalog.DefaultHeaderAliases())
			if err != nil {
				return err
			}
			idx = idx.Extend(rows)
			zap.L().Info("catalog extended", zap.Int("extra_rows", len(rows)))
		}

		var st store.Store
		if !runNoStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		opts := pipelineOptions(cfg)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentFiles)

		for _, path := range args {
			path := path
			g.Go(func() error {
				return processFile(gctx, st, idx, opts, path)
			})
		}
		return g.Wait()
	},
}

func processFile(ctx context.Context, st store.Store, idx *catalog.Index, opts pipeline.Options, path string) error {
	var runID string
	if st != nil {
		run, err := st.CreateRun(ctx, path)
		if err != nil {
			return err
		}
		runID = run.ID
	}
	return executeRun(ctx, st, runID, idx, opts, path)
}

// executeRun performs one reclassification run end to end and records its
// outcome under runID when a store is present.
func executeRun(ctx context.Context, st store.Store, runID string, idx *catalog.Index, opts pipeline.Options, path string) error {
	log := zap.L().With(zap.String("file", path))

	if st != nil {
		if err := st.UpdateRunStatus(ctx, runID, model.RunStatusProcessing); err != nil {
			return err
		}
	}

	start := time.Now()
	result, outPath, err := reclassifyFile(ctx, idx, opts, path, log)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		log.Error("run failed", zap.Error(err))
		if st != nil {
			if fErr := st.FailRun(ctx, runID, err.Error()); fErr != nil {
				log.Warn("failed to record run failure", zap.Error(fErr))
			}
		}
		return err
	}

	if st != nil {
		if err := st.CompleteRun(ctx, runID, outPath, &result.Metrics, elapsed); err != nil {
			log.Warn("failed to record run completion", zap.Error(err))
		}
	}

	log.Info("run complete",
		zap.String("output", outPath),
		zap.Float64("elapsed_secs", elapsed),
		zap.Int("total", result.Metrics.Total),
		zap.Int("catalog_exact", result.Metrics.CatalogExact),
		zap.Int("catalog_contains", result.Metrics.CatalogContains),
		zap.Int("semantic_inferred", result.Metrics.SemanticInferred),
		zap.Int("kept", result.Metrics.Kept),
		zap.Int("excluded", result.Metrics.Excluded),
		zap.Int("low_confidence", result.Metrics.LowConfidence),
	)
	fmt.Fprintf(os.Stdout, "%s -> %s (%d records, %d excluded, %d low confidence)\n",
		path, outPath, result.Metrics.Total, result.Metrics.Excluded, result.Metrics.LowConfidence)
	return nil
}

func reclassifyFile(ctx context.Context, idx *catalog.Index, opts pipeline.Options, path string, log *zap.Logger) (*model.Result, string, error) {
	table, err := fetcher.ReadTable(path)
	if err != nil {
		return nil, "", err
	}
	records, err := fetcher.ParseRecords(table)
	if err != nil {
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", eris.Wrap(err, "run cancelled")
	}

	opts.Progress = func(fraction float64, message string) {
		log.Debug("progress",
			zap.Int("percent", int(fraction*100)),
			zap.String("stage", message),
		)
	}

	result, err := pipeline.New(idx, opts).Run(records)
	if err != nil {
		return nil, "", err
	}

	outDir := runOutputDir
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	outPath := filepath.Join(outDir, fetcher.ProcessedFilename(path, time.Now()))
	if err := fetcher.WriteResultXLSX(outPath, result); err != nil {
		return nil, "", err
	}
	return result, outPath, nil
}

func init() {
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for result workbooks (default: alongside each input)")
	runCmd.Flags().StringVar(&runCatalogExtra, "catalog-extra", "", "CSV with additional catalog mappings merged before the run")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "skip recording the run in the history database")
	rootCmd.AddCommand(runCmd)
}
