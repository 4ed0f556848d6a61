// Package ingest reads payroll workbooks into employment records. A
// workbook carries one sheet per government entity; each sheet is a header
// row followed by one employee per row, with one column per biweekly
// period marking activity.
package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/errors"
	"github.com/scil-audit/scil-go/internal/logging"
	"github.com/scil-audit/scil-go/internal/period"
)

// Required header columns, after normalization.
const (
	colTaxID     = "RFC"
	colName      = "NOMBRE"
	colPosition  = "PUESTO"
	colStartDate = "FECHA_ALTA"
	colEndDate   = "FECHA_BAJA"
	colPay       = "PERCEPCIONES"
)

var requiredColumns = []string{colTaxID, colName, colPosition, colStartDate, colEndDate}

// Summary reports the outcome of one workbook. Alerts carry per-sheet and
// per-row problems that did not abort the run.
type Summary struct {
	Processed int      `json:"processed"`
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Rejected  int      `json:"rejected"`
	Alerts    []string `json:"alerts,omitempty"`
}

// Parser turns workbooks into upserted employment records.
type Parser struct {
	store   datastore.Interface
	catalog *entity.Catalog
	log     *slog.Logger
}

// NewParser wires a parser over the store and catalog.
func NewParser(store datastore.Interface, catalog *entity.Catalog) *Parser {
	return &Parser{store: store, catalog: catalog, log: logging.ForService("ingest")}
}

// ParseWorkbook reads an xlsx workbook from r and upserts every valid row.
// A sheet whose label does not resolve in the catalog is skipped whole,
// with an alert; unparsable rows are rejected individually. Partial
// results are committed: a bad sheet never rolls back a good one.
func (p *Parser) ParseWorkbook(r io.Reader, filename string) (*Summary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.New(fmt.Errorf("opening workbook %s: %w", filename, err)).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Context("file", filename).
			Build()
	}
	defer func() { _ = f.Close() }()

	summary := &Summary{}
	for _, sheet := range f.GetSheetList() {
		entityKey, ok := p.catalog.ResolveKey(sheet)
		if !ok {
			summary.Alerts = append(summary.Alerts,
				fmt.Sprintf("hoja %q: no corresponde a ningún ente del catálogo, omitida", sheet))
			p.log.Warn("sheet label did not resolve, skipping", "file", filename, "sheet", sheet)
			continue
		}
		p.parseSheet(f, sheet, entityKey, summary)
	}

	p.log.Info("workbook ingested",
		"file", filename,
		"processed", summary.Processed,
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"rejected", summary.Rejected,
		"alerts", len(summary.Alerts))
	return summary, nil
}

func (p *Parser) parseSheet(f *excelize.File, sheet, entityKey string, summary *Summary) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		summary.Alerts = append(summary.Alerts, fmt.Sprintf("hoja %q: no se pudo leer: %v", sheet, err))
		return
	}
	if len(rows) < 2 {
		summary.Alerts = append(summary.Alerts, fmt.Sprintf("hoja %q: sin renglones de datos", sheet))
		return
	}

	columns, periodCols, missing := mapHeader(rows[0])
	if len(missing) > 0 {
		summary.Alerts = append(summary.Alerts,
			fmt.Sprintf("hoja %q: faltan columnas %s, omitida", sheet, strings.Join(missing, ", ")))
		return
	}

	var batch []datastore.EmploymentRecord
	for i, row := range rows[1:] {
		summary.Processed++
		rec, reason := buildRecord(row, columns, periodCols, entityKey)
		if reason != "" {
			summary.Rejected++
			summary.Alerts = append(summary.Alerts,
				fmt.Sprintf("hoja %q renglón %d: %s", sheet, i+2, reason))
			continue
		}
		batch = append(batch, rec)
	}

	result, err := p.store.UpsertRecords(batch)
	if err != nil {
		summary.Alerts = append(summary.Alerts, fmt.Sprintf("hoja %q: error al guardar: %v", sheet, err))
		return
	}
	summary.Inserted += result.Inserted
	summary.Updated += result.Updated
	summary.Rejected += result.Rejected + result.Failed
}

// mapHeader normalizes header cells and locates the required and period
// columns. Missing required columns are reported by name.
func mapHeader(header []string) (columns map[string]int, periodCols map[int]string, missing []string) {
	columns = make(map[string]int, len(header))
	periodCols = make(map[int]string)
	for i, cell := range header {
		name := normalizeHeader(cell)
		if name == "" {
			continue
		}
		if period.IsToken(name) {
			periodCols[i] = name
			continue
		}
		if _, taken := columns[name]; !taken {
			columns[name] = i
		}
	}
	for _, req := range requiredColumns {
		if _, ok := columns[req]; !ok {
			missing = append(missing, req)
		}
	}
	return columns, periodCols, missing
}

func buildRecord(row []string, columns map[string]int, periodCols map[int]string, entityKey string) (datastore.EmploymentRecord, string) {
	taxID, ok := CleanTaxID(cell(row, columns[colTaxID]))
	if !ok {
		return datastore.EmploymentRecord{}, fmt.Sprintf("RFC inválido %q", cell(row, columns[colTaxID]))
	}

	rec := datastore.EmploymentRecord{
		TaxID:         taxID,
		EntityKey:     entityKey,
		PersonName:    strings.TrimSpace(cell(row, columns[colName])),
		Position:      strings.TrimSpace(cell(row, columns[colPosition])),
		StartDate:     CleanDate(cell(row, columns[colStartDate])),
		EndDate:       CleanDate(cell(row, columns[colEndDate])),
		ActivePeriods: period.NewSet(),
	}

	if idx, ok := columns[colPay]; ok {
		if amount, err := parseAmount(cell(row, idx)); err == nil {
			rec.PayAmount = &amount
		}
	}

	for idx, token := range periodCols {
		if IsActiveMarker(cell(row, idx)) {
			rec.ActivePeriods.Add(token)
		}
	}
	return rec, ""
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]`)

// CleanTaxID strips everything but letters and digits from a raw RFC and
// uppercases it. Results outside the 10 to 13 character range of valid
// RFCs are rejected.
func CleanTaxID(raw string) (string, bool) {
	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
	if len(cleaned) < 10 || len(cleaned) > 13 {
		return "", false
	}
	return cleaned, true
}

var dateLayouts = []string{"02/01/2006", "2/1/2006", "2006-01-02", "02-01-2006"}

// CleanDate normalizes a raw date cell to ISO yyyy-mm-dd. Day-first
// layouts are tried before ISO; anything unparsable comes back empty.
func CleanDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

var inactiveMarkers = map[string]struct{}{
	"": {}, "0": {}, "0.0": {}, "NO": {}, "N/A": {}, "NA": {}, "NONE": {},
}

// IsActiveMarker reports whether a period cell marks the employee active.
// Anything except the known inactive markers counts as active, matching
// how entities fill the template (amounts, "X", "SI").
func IsActiveMarker(raw string) bool {
	_, inactive := inactiveMarkers[strings.ToUpper(strings.TrimSpace(raw))]
	return !inactive
}

func parseAmount(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	raw = strings.TrimPrefix(raw, "$")
	return strconv.ParseFloat(raw, 64)
}

func normalizeHeader(cell string) string {
	n := entity.Normalize(cell)
	n = strings.ReplaceAll(n, " ", "_")
	return n
}
