package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/scil-audit/scil-go/internal/errors"
)

const sheetName = "Incompatibilidades"

// Column headers of the published workbook, in order.
var headers = []string{
	"RFC",
	"Nombre",
	"Puesto",
	"Fecha Alta",
	"Fecha Baja",
	"Total Percepciones",
	"Ente Origen",
	"Entes Incompatibilidad",
	"Quincenas",
	"Estatus",
	"Solventación",
}

// Workbook renders rows as an xlsx workbook. N/A rows are skipped; they
// exist for on-screen review only.
func Workbook(rows []Row) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName("Sheet1", sheetName)
	if err := writeHeader(f); err != nil {
		return nil, err
	}

	rowNum := 2
	for _, r := range ApplicableRows(rows) {
		values := []any{
			r.TaxID,
			r.PersonName,
			r.Position,
			r.StartDate,
			r.EndDate,
			payCell(r.PayAmount),
			r.OriginEntity,
			strings.Join(r.IncompatibleEntities, ", "),
			r.PeriodLabel,
			r.Status,
			r.Comment,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return nil, wrapExcel(err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, wrapExcel(err)
			}
		}
		rowNum++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, wrapExcel(err)
	}
	return buf, nil
}

// Template builds the blank ingest workbook handed to entities: one sheet
// per active catalog entity, each with the expected record header row and
// the QNA period columns.
func Template(entityLabels []string, periodTokens []string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := append([]string{"RFC", "NOMBRE", "PUESTO", "FECHA_ALTA", "FECHA_BAJA", "PERCEPCIONES"}, periodTokens...)
	for i, label := range entityLabels {
		sheet := sheetTitle(label)
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, wrapExcel(err)
		}
		for col, h := range header {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return nil, wrapExcel(err)
			}
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return nil, wrapExcel(err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, wrapExcel(err)
	}
	return buf, nil
}

func writeHeader(f *excelize.File) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return wrapExcel(err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return wrapExcel(err)
		}
	}
	return nil
}

func payCell(amount *float64) any {
	if amount == nil {
		return ""
	}
	return *amount
}

// sheetTitle trims a label to Excel's 31-character sheet name limit and
// strips characters Excel forbids in sheet names.
func sheetTitle(label string) string {
	replacer := strings.NewReplacer("/", " ", "\\", " ", "?", "", "*", "", "[", "(", "]", ")", ":", " ")
	title := strings.TrimSpace(replacer.Replace(label))
	if runes := []rune(title); len(runes) > 31 {
		title = string(runes[:31])
	}
	if title == "" {
		title = "Hoja"
	}
	return title
}

func wrapExcel(err error) error {
	return errors.New(fmt.Errorf("building workbook: %w", err)).
		Component("export").
		Category(errors.CategoryFileParsing).
		Build()
}
