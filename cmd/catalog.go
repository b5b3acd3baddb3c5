package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brain-insights/microclass-cli/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the mapping catalog",
}

var catalogStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the catalog per category",
	RunE: func(cmd *cobra.Command, _ []string) error {
		idx, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}

		formatCatalogStatus(os.Stdout, idx)
		return nil
	},
}

func formatCatalogStatus(w io.Writer, idx *catalog.Index) {
	type summary struct {
		mappings   int
		canonicals map[string]struct{}
	}
	byCategory := make(map[string]*summary)
	for _, e := range idx.Entries() {
		s, ok := byCategory[e.OwningCategory]
		if !ok {
			s = &summary{canonicals: make(map[string]struct{})}
			byCategory[e.OwningCategory] = s
		}
		s.mappings++
		s.canonicals[e.KCanonical] = struct{}{}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tMAPPINGS\tCANONICAL LABELS")
	for _, cat := range idx.Categories() {
		s := byCategory[cat]
		if s == nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\n", cat, s.mappings, len(s.canonicals))
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\n", idx.Len(), len(idx.CanonicalLabels()))
	tw.Flush()
}

func init() {
	catalogCmd.AddCommand(catalogStatusCmd)
	rootCmd.AddCommand(catalogCmd)
}
