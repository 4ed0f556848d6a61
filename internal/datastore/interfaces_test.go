package datastore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scil-audit/scil-go/internal/conf"
	"github.com/scil-audit/scil-go/internal/period"
)

// createDatabase initializes a temporary database for testing purposes.
func createDatabase(t *testing.T) Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	store := New(settings)
	require.NoError(t, store.Open(), "Failed to open database")

	t.Cleanup(func() {
		assert.NoError(t, store.Close(), "Failed to close datastore")
	})
	return store
}

func record(taxID, entityKey string, periods ...string) EmploymentRecord {
	return EmploymentRecord{
		TaxID:         taxID,
		EntityKey:     entityKey,
		PersonName:    "PERSONA DE PRUEBA",
		Position:      "ANALISTA",
		StartDate:     "2025-01-01",
		ActivePeriods: period.NewSet(periods...),
	}
}

func TestUpsertInsertsAndUpdates(t *testing.T) {
	store := createDatabase(t)

	res, err := store.UpsertRecords([]EmploymentRecord{
		record("AAAA800101AAA", "ENTE_1_2", "QNA1", "QNA2"),
		record("BBBB800101BBB", "ENTE_1_4", "QNA1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Updated)

	// Same pair again: must overwrite, not duplicate.
	changed := record("AAAA800101AAA", "ENTE_1_2", "QNA3")
	changed.Position = "DIRECTOR"
	res, err = store.UpsertRecords([]EmploymentRecord{changed})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Updated)

	all, err := store.AllRecords()
	require.NoError(t, err)
	require.Len(t, all, 2)

	recs, err := store.RecordsByTaxID("aaaa800101aaa")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "DIRECTOR", recs[0].Position)
	assert.Equal(t, []string{"QNA3"}, recs[0].ActivePeriods.Sorted())
}

func TestUpsertRejectsRecordsWithoutIdentity(t *testing.T) {
	store := createDatabase(t)

	res, err := store.UpsertRecords([]EmploymentRecord{
		record("", "ENTE_1_2", "QNA1"),
		record("AAAA800101AAA", "", "QNA1"),
		record("AAAA800101AAA", "ENTE_1_2", "QNA1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rejected)
	assert.Equal(t, 1, res.Inserted)
}

func TestUpsertPreservesCreatedAt(t *testing.T) {
	store := createDatabase(t)

	_, err := store.UpsertRecords([]EmploymentRecord{record("AAAA800101AAA", "ENTE_1_2", "QNA1")})
	require.NoError(t, err)

	first, err := store.RecordsByTaxID("AAAA800101AAA")
	require.NoError(t, err)
	require.Len(t, first, 1)

	time.Sleep(10 * time.Millisecond)
	_, err = store.UpsertRecords([]EmploymentRecord{record("AAAA800101AAA", "ENTE_1_2", "QNA1", "QNA2")})
	require.NoError(t, err)

	second, err := store.RecordsByTaxID("AAAA800101AAA")
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].CreatedAt.Unix(), second[0].CreatedAt.Unix(),
		"re-ingesting must not reset CreatedAt")
	assert.True(t, second[0].UpdatedAt.After(first[0].UpdatedAt),
		"re-ingesting must advance UpdatedAt")
}

func TestCountDistinctTaxIDsByEntity(t *testing.T) {
	store := createDatabase(t)

	_, err := store.UpsertRecords([]EmploymentRecord{
		record("AAAA800101AAA", "ENTE_1_2", "QNA1"),
		record("BBBB800101BBB", "ENTE_1_2", "QNA1"),
		record("AAAA800101AAA", "ENTE_1_4", "QNA1"),
	})
	require.NoError(t, err)

	counts, err := store.CountDistinctTaxIDsByEntity()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ENTE_1_2": 2, "ENTE_1_4": 1}, counts)
}

func TestDispositionRoundTrip(t *testing.T) {
	store := createDatabase(t)

	rows, err := store.SaveDisposition(&Disposition{
		TaxID:     "AAAA800101AAA",
		EntityKey: "ENTE_1_2",
		State:     "Solventado",
		Comment:   "justificado",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Overwrite in place: only the latest value survives.
	rows, err = store.SaveDisposition(&Disposition{
		TaxID:       "AAAA800101AAA",
		EntityKey:   "ENTE_1_2",
		State:       "No Solventado",
		Comment:     "sin sustento documental",
		CatalogCode: "C03",
		FreeText:    "observación adicional",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	got, err := store.GetDisposition("AAAA800101AAA", "ENTE_1_2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "No Solventado", got.State)
	assert.Equal(t, "sin sustento documental", got.Comment)
	assert.Equal(t, "C03", got.CatalogCode)
	assert.Equal(t, "observación adicional", got.FreeText)

	all, err := store.DispositionsByTaxID("AAAA800101AAA")
	require.NoError(t, err)
	assert.Len(t, all, 1, "upsert must never duplicate a (taxId, entity) pair")
}

func TestDispositionDefaultsToGeneralEntity(t *testing.T) {
	store := createDatabase(t)

	d := &Disposition{TaxID: "AAAA800101AAA", State: "Solventado"}
	_, err := store.SaveDisposition(d)
	require.NoError(t, err)
	assert.Equal(t, GeneralEntity, d.EntityKey)
}

func TestEntityRegistry(t *testing.T) {
	store := createDatabase(t)

	require.NoError(t, store.SaveEntity(&EntityRecord{
		Num: "1.4", Key: "ENTE_1_4", Name: "Secretaría de Finanzas", Acronym: "SEFIN",
		Kind: "ORGANIZATION", Active: true,
	}))
	require.NoError(t, store.SaveEntity(&EntityRecord{
		Num: "1", Key: "MUN_1", Name: "Municipio de Acuamanala", Acronym: "ACUAMANALA",
		Kind: "MUNICIPALITY", Active: true,
	}))

	entities, err := store.ListEntities()
	require.NoError(t, err)
	assert.Len(t, entities, 2)

	// Update by key, then deactivate.
	require.NoError(t, store.SaveEntity(&EntityRecord{
		Num: "1.4", Key: "ENTE_1_4", Name: "Secretaría de Finanzas y Administración", Acronym: "SEFIN",
		Kind: "ORGANIZATION", Active: true,
	}))
	require.NoError(t, store.DeactivateEntity("ENTE_1_4"))

	entities, err = store.ListEntities()
	require.NoError(t, err)
	require.Len(t, entities, 2)
	for _, e := range entities {
		if e.Key == "ENTE_1_4" {
			assert.False(t, e.Active)
			assert.Equal(t, "Secretaría de Finanzas y Administración", e.FullName)
		}
	}

	assert.Error(t, store.DeactivateEntity("ENTE_NADIE"))
}

func TestUserRoundTrip(t *testing.T) {
	store := createDatabase(t)

	u := &User{FullName: "Revisora", Username: "odilia", PasswordHash: "x", Entitlements: "TODOS LOS ENTES, sefin"}
	require.NoError(t, store.SaveUser(u))

	got, err := store.GetUser("ODILIA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"TODOS LOS ENTES", "SEFIN"}, got.EntitlementTokens())

	missing, err := store.GetUser("nadie")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
