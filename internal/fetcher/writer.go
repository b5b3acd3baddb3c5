package fetcher

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/brain-insights/microclass-cli/internal/model"
)

// resultColumns is the export layout consumers of the processed workbook
// expect; column names are kept in Portuguese to match it.
var resultColumns = []string{
	"Nome",
	"Cat Original",
	"SubCat Original",
	"Sub-Categoria",
	"Categoria",
	"fonte",
	"acao",
	"Endereço",
	"confianca",
	"SubCat_Intermediaria",
	"ID",
}

// WriteResultXLSX writes the processed workbook: a "final" sheet with the
// deliverable set and a "baixa_confianca" sheet with the low-confidence
// subset.
func WriteResultXLSX(path string, result *model.Result) error {
	f := xlsx.NewFile()

	if err := addRecordSheet(f, "final", result.Deliverable); err != nil {
		return err
	}
	if err := addRecordSheet(f, "baixa_confianca", result.LowConfidence); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save result workbook")
	}
	return nil
}

// ProcessedFilename derives the output filename from the input one:
// "<stem>_Processado_<ddmm_HHMM><ext>".
func ProcessedFilename(inputPath string, now time.Time) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "resultado"
	}
	if ext == "" {
		ext = ".xlsx"
	}
	return fmt.Sprintf("%s_Processado_%s%s", stem, now.Format("0201_1504"), ext)
}

func addRecordSheet(f *xlsx.File, name string, records []model.Record) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %q", name)
	}

	header := sheet.AddRow()
	for _, col := range resultColumns {
		header.AddCell().SetString(col)
	}

	for _, r := range records {
		row := sheet.AddRow()
		for _, value := range recordCells(r) {
			row.AddCell().SetString(value)
		}
	}
	return nil
}

func recordCells(r model.Record) []string {
	return []string{
		r.Name,
		r.OriginalCategory,
		r.OriginalSubcategory,
		r.CurrentSubcategory,
		r.CurrentCategory,
		string(r.Source),
		string(r.Action),
		r.Address,
		strconv.FormatFloat(r.Confidence, 'f', 4, 64),
		r.IntermediateSubcategory,
		r.ID,
	}
}
