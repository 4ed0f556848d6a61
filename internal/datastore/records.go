package datastore

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/scil-audit/scil-go/internal/logging"
)

var recordsLogger *slog.Logger

func getRecordsLogger() *slog.Logger {
	if recordsLogger == nil {
		recordsLogger = logging.ForService("datastore")
	}
	return recordsLogger
}

// UpsertRecords inserts or overwrites employment records keyed by
// (taxId, entityKey). Records missing either identity field are rejected
// and counted; an individual write failure is logged and skipped. Neither
// condition aborts the batch. After any sequence of upserts no duplicate
// (taxId, entityKey) pair exists.
func (ds *DataStore) UpsertRecords(records []EmploymentRecord) (UpsertResult, error) {
	var result UpsertResult
	if ds.DB == nil {
		return result, fmt.Errorf("database connection is not initialized")
	}

	for i := range records {
		rec := &records[i]
		rec.TaxID = strings.ToUpper(strings.TrimSpace(rec.TaxID))
		rec.EntityKey = strings.TrimSpace(rec.EntityKey)
		if rec.TaxID == "" || rec.EntityKey == "" {
			result.Rejected++
			continue
		}

		var existing EmploymentRecord
		err := ds.DB.Where("tax_id = ? AND entity_key = ?", rec.TaxID, rec.EntityKey).
			First(&existing).Error
		switch {
		case err == nil:
			existing.PersonName = rec.PersonName
			existing.Position = rec.Position
			existing.StartDate = rec.StartDate
			existing.EndDate = rec.EndDate
			existing.PayAmount = rec.PayAmount
			existing.ActivePeriods = rec.ActivePeriods
			if err := ds.DB.Save(&existing).Error; err != nil {
				getRecordsLogger().Error("failed to update employment record",
					"tax_id", rec.TaxID, "entity_key", rec.EntityKey, "error", err)
				result.Failed++
				continue
			}
			result.Updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := ds.DB.Create(rec).Error; err != nil {
				getRecordsLogger().Error("failed to insert employment record",
					"tax_id", rec.TaxID, "entity_key", rec.EntityKey, "error", err)
				result.Failed++
				continue
			}
			result.Inserted++
		default:
			getRecordsLogger().Error("failed to look up employment record",
				"tax_id", rec.TaxID, "entity_key", rec.EntityKey, "error", err)
			result.Failed++
		}
	}
	return result, nil
}

// AllRecords retrieves every employment record.
func (ds *DataStore) AllRecords() ([]EmploymentRecord, error) {
	var records []EmploymentRecord
	if err := ds.DB.Order("tax_id, entity_key").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("error getting all records: %w", err)
	}
	return records, nil
}

// RecordsByTaxID retrieves every employment record of one individual,
// matched case-insensitively.
func (ds *DataStore) RecordsByTaxID(taxID string) ([]EmploymentRecord, error) {
	var records []EmploymentRecord
	err := ds.DB.Where("UPPER(tax_id) = ?", strings.ToUpper(strings.TrimSpace(taxID))).
		Order("entity_key").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error getting records for tax id %s: %w", taxID, err)
	}
	return records, nil
}

// CountDistinctTaxIDsByEntity returns the number of distinct individuals
// per entity key.
func (ds *DataStore) CountDistinctTaxIDsByEntity() (map[string]int, error) {
	var rows []struct {
		EntityKey string
		Total     int
	}
	err := ds.DB.Model(&EmploymentRecord{}).
		Select("entity_key, COUNT(DISTINCT tax_id) as total").
		Group("entity_key").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error counting individuals by entity: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.EntityKey] = r.Total
	}
	return counts, nil
}
