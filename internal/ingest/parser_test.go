package ingest

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/scil-audit/scil-go/internal/conf"
	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/entity"
)

func newParser(t *testing.T) (*Parser, datastore.Interface) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	for _, rec := range []datastore.EntityRecord{
		{Key: "SEFIN", Name: "Secretaría de Finanzas", Acronym: "SEFIN", Kind: string(entity.KindOrganization), Active: true},
		{Key: "SEGOB", Name: "Secretaría de Gobierno", Acronym: "SEGOB", Kind: string(entity.KindOrganization), Active: true},
	} {
		r := rec
		require.NoError(t, store.SaveEntity(&r))
	}

	catalog, err := entity.NewCatalog(store)
	require.NoError(t, err)
	return NewParser(store, catalog), store
}

// workbook builds an in-memory xlsx with one sheet per name, each sheet
// filled from its row matrix.
func workbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			f.SetSheetName("Sheet1", name)
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range rows {
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, cell, v))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseWorkbookHappyPath(t *testing.T) {
	parser, store := newParser(t)

	buf := workbook(t, map[string][][]any{
		"SEFIN": {
			{"RFC", "NOMBRE", "PUESTO", "FECHA_ALTA", "FECHA_BAJA", "PERCEPCIONES", "QNA1", "QNA2", "QNA3"},
			{"AAAA800101XX1", "Ana López", "ANALISTA", "15/01/2024", "", "12,500.50", "X", "X", "0"},
			{"BBBB800101XX2", "Benito Ruiz", "JEFE DE DEPTO", "2024-02-01", "30/06/2024", "", "", "SI", "1250"},
		},
	})

	summary, err := parser.ParseWorkbook(buf, "nomina.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Inserted)
	assert.Zero(t, summary.Rejected)
	assert.Empty(t, summary.Alerts)

	recs, err := store.RecordsByTaxID("AAAA800101XX1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "SEFIN", recs[0].EntityKey)
	assert.Equal(t, "2024-01-15", recs[0].StartDate)
	assert.Equal(t, []string{"QNA1", "QNA2"}, recs[0].ActivePeriods.Sorted())
	require.NotNil(t, recs[0].PayAmount)
	assert.InDelta(t, 12500.50, *recs[0].PayAmount, 0.001)

	recs, err = store.RecordsByTaxID("BBBB800101XX2")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2024-06-30", recs[0].EndDate)
	assert.Equal(t, []string{"QNA2", "QNA3"}, recs[0].ActivePeriods.Sorted())
	assert.Nil(t, recs[0].PayAmount)
}

func TestParseWorkbookSheetLabelResolution(t *testing.T) {
	parser, store := newParser(t)

	// Full entity name on the sheet tab resolves through the catalog.
	buf := workbook(t, map[string][][]any{
		"Secretaría de Gobierno": {
			{"RFC", "NOMBRE", "PUESTO", "FECHA_ALTA", "FECHA_BAJA", "QNA1"},
			{"CCCC800101XX3", "Carla Díaz", "AUXILIAR", "", "", "X"},
		},
	})

	summary, err := parser.ParseWorkbook(buf, "nomina.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)

	recs, err := store.RecordsByTaxID("CCCC800101XX3")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "SEGOB", recs[0].EntityKey)
}

func TestParseWorkbookUnknownSheetSkipped(t *testing.T) {
	parser, _ := newParser(t)

	buf := workbook(t, map[string][][]any{
		"ENTE_FANTASMA": {
			{"RFC", "NOMBRE", "PUESTO", "FECHA_ALTA", "FECHA_BAJA", "QNA1"},
			{"DDDD800101XX4", "Diego Mora", "ANALISTA", "", "", "X"},
		},
	})

	summary, err := parser.ParseWorkbook(buf, "nomina.xlsx")
	require.NoError(t, err)
	assert.Zero(t, summary.Processed, "whole sheet skipped")
	require.Len(t, summary.Alerts, 1)
	assert.Contains(t, summary.Alerts[0], "ENTE_FANTASMA")
}

func TestParseWorkbookRejectsBadTaxIDs(t *testing.T) {
	parser, _ := newParser(t)

	buf := workbook(t, map[string][][]any{
		"SEFIN": {
			{"RFC", "NOMBRE", "PUESTO", "FECHA_ALTA", "FECHA_BAJA", "QNA1"},
			{"CORTO12", "Elena Paz", "ANALISTA", "", "", "X"},
			{"EEEE-800101-XX5", "Elena Paz", "ANALISTA", "", "", "X"},
		},
	})

	summary, err := parser.ParseWorkbook(buf, "nomina.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Inserted, "dashes are stripped, short RFCs are rejected")
	assert.Equal(t, 1, summary.Rejected)
}

func TestParseWorkbookMissingColumns(t *testing.T) {
	parser, _ := newParser(t)

	buf := workbook(t, map[string][][]any{
		"SEFIN": {
			{"RFC", "NOMBRE", "QNA1"},
			{"FFFF800101XX6", "Fidel Vega", "X"},
		},
	})

	summary, err := parser.ParseWorkbook(buf, "nomina.xlsx")
	require.NoError(t, err)
	assert.Zero(t, summary.Inserted)
	require.Len(t, summary.Alerts, 1)
	assert.Contains(t, summary.Alerts[0], "PUESTO")
}

func TestParseWorkbookReingestUpdates(t *testing.T) {
	parser, _ := newParser(t)

	sheet := map[string][][]any{
		"SEFIN": {
			{"RFC", "NOMBRE", "PUESTO", "FECHA_ALTA", "FECHA_BAJA", "QNA1"},
			{"GGGG800101XX7", "Gina Sol", "ANALISTA", "", "", "X"},
		},
	}

	first, err := parser.ParseWorkbook(workbook(t, sheet), "nomina.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	second, err := parser.ParseWorkbook(workbook(t, sheet), "nomina.xlsx")
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 1, second.Updated, "same identity updates in place")
}

func TestCleanTaxID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"AAAA800101XX1", "AAAA800101XX1", true},
		{" aaaa-800101.xx1 ", "AAAA800101XX1", true},
		{"AAAA800101", "AAAA800101", true},
		{"AAAA80010", "", false},
		{"AAAA800101XX12Z", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := CleanTaxID(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}

func TestCleanDate(t *testing.T) {
	assert.Equal(t, "2024-01-15", CleanDate("15/01/2024"))
	assert.Equal(t, "2024-01-05", CleanDate("5/1/2024"))
	assert.Equal(t, "2024-01-15", CleanDate("2024-01-15"))
	assert.Equal(t, "2024-01-15", CleanDate("15-01-2024"))
	assert.Empty(t, CleanDate("no es fecha"))
	assert.Empty(t, CleanDate(""))
}

func TestIsActiveMarker(t *testing.T) {
	for _, inactive := range []string{"", "  ", "0", "0.0", "no", "N/A", "na", "NONE"} {
		assert.False(t, IsActiveMarker(inactive), "marker=%q", inactive)
	}
	for _, active := range []string{"X", "SI", "1", "1250.00", "activo"} {
		assert.True(t, IsActiveMarker(active), "marker=%q", active)
	}
}
