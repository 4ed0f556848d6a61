package datastore

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// SaveDisposition upserts the disposition for (taxId, entityKey),
// overwriting any prior state, comment and classification. Returns the
// number of rows affected (always 1 on success).
func (ds *DataStore) SaveDisposition(d *Disposition) (int64, error) {
	if ds.DB == nil {
		return 0, fmt.Errorf("database connection is not initialized")
	}
	d.TaxID = strings.ToUpper(strings.TrimSpace(d.TaxID))
	if d.TaxID == "" {
		return 0, fmt.Errorf("disposition is missing a tax id")
	}
	if d.EntityKey = strings.TrimSpace(d.EntityKey); d.EntityKey == "" {
		d.EntityKey = GeneralEntity
	}

	var existing Disposition
	err := ds.DB.Where("tax_id = ? AND entity_key = ?", d.TaxID, d.EntityKey).
		First(&existing).Error
	switch {
	case err == nil:
		existing.State = d.State
		existing.Comment = d.Comment
		existing.CatalogCode = d.CatalogCode
		existing.FreeText = d.FreeText
		if err := ds.DB.Save(&existing).Error; err != nil {
			return 0, fmt.Errorf("updating disposition: %w", err)
		}
		*d = existing
		return 1, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := ds.DB.Create(d).Error; err != nil {
			return 0, fmt.Errorf("inserting disposition: %w", err)
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("looking up disposition: %w", err)
	}
}

// GetDisposition returns the stored disposition for (taxId, entityKey),
// nil when none has been recorded.
func (ds *DataStore) GetDisposition(taxID, entityKey string) (*Disposition, error) {
	var d Disposition
	err := ds.DB.Where("tax_id = ? AND entity_key = ?",
		strings.ToUpper(strings.TrimSpace(taxID)), strings.TrimSpace(entityKey)).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting disposition: %w", err)
	}
	return &d, nil
}

// DispositionsByTaxID returns every recorded disposition for one
// individual, across entities and the GENERAL sentinel.
func (ds *DataStore) DispositionsByTaxID(taxID string) ([]Disposition, error) {
	var out []Disposition
	err := ds.DB.Where("tax_id = ?", strings.ToUpper(strings.TrimSpace(taxID))).
		Order("entity_key").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("getting dispositions for tax id %s: %w", taxID, err)
	}
	return out, nil
}

// AllDispositions returns every recorded disposition.
func (ds *DataStore) AllDispositions() ([]Disposition, error) {
	var out []Disposition
	if err := ds.DB.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("getting all dispositions: %w", err)
	}
	return out, nil
}
