// Package fetcher reads input tables (XLSX, CSV) into rows, parses them into
// business records, and writes the processed result workbook.
package fetcher

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadTable reads a tabular file into raw string rows, dispatching on the
// file extension. The first row is expected to be the header.
func ReadTable(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, XLSXOptions{})
	case ".csv":
		return ReadCSVFile(path, CSVOptions{TrimSpace: true})
	default:
		return nil, eris.Errorf("fetcher: unsupported input format %q", filepath.Ext(path))
	}
}
