package datastore

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/scil-audit/scil-go/internal/entity"
)

// ListEntities returns every registry row, inactive ones included, in the
// catalog's canonical form. This satisfies entity.Source; the catalog
// itself filters out inactive entities.
func (ds *DataStore) ListEntities() ([]entity.Entity, error) {
	var rows []EntityRecord
	if err := ds.DB.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing entity registry: %w", err)
	}
	out := make([]entity.Entity, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToEntity())
	}
	return out, nil
}

// SaveEntity inserts or updates a registry row by its canonical key.
// Callers must rebuild the entity catalog after a successful save.
func (ds *DataStore) SaveEntity(rec *EntityRecord) error {
	if rec.Key = strings.TrimSpace(rec.Key); rec.Key == "" {
		return fmt.Errorf("entity registry row is missing a key")
	}
	if rec.Name == "" {
		return fmt.Errorf("entity registry row is missing a name")
	}

	var existing EntityRecord
	err := ds.DB.Where("entity_key = ?", rec.Key).First(&existing).Error
	switch {
	case err == nil:
		existing.Num = rec.Num
		existing.Name = rec.Name
		existing.Acronym = rec.Acronym
		existing.Kind = rec.Kind
		existing.Active = rec.Active
		if err := ds.DB.Save(&existing).Error; err != nil {
			return fmt.Errorf("updating entity %s: %w", rec.Key, err)
		}
		*rec = existing
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := ds.DB.Create(rec).Error; err != nil {
			return fmt.Errorf("inserting entity %s: %w", rec.Key, err)
		}
		return nil
	default:
		return fmt.Errorf("looking up entity %s: %w", rec.Key, err)
	}
}

// DeactivateEntity marks a registry row inactive. Employment records
// referencing the key are kept; the entity simply stops resolving.
func (ds *DataStore) DeactivateEntity(key string) error {
	result := ds.DB.Model(&EntityRecord{}).
		Where("entity_key = ?", strings.TrimSpace(key)).
		Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivating entity %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("entity %s not found", key)
	}
	return nil
}

// GetUser looks up a reviewer account by username, case-insensitively.
func (ds *DataStore) GetUser(username string) (*User, error) {
	var u User
	err := ds.DB.Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", username, err)
	}
	return &u, nil
}

// SaveUser inserts or updates a reviewer account by username.
func (ds *DataStore) SaveUser(u *User) error {
	if u.Username = strings.TrimSpace(u.Username); u.Username == "" {
		return fmt.Errorf("user is missing a username")
	}

	existing, err := ds.GetUser(u.Username)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := ds.DB.Create(u).Error; err != nil {
			return fmt.Errorf("inserting user %s: %w", u.Username, err)
		}
		return nil
	}
	existing.FullName = u.FullName
	existing.PasswordHash = u.PasswordHash
	existing.Entitlements = u.Entitlements
	if err := ds.DB.Save(existing).Error; err != nil {
		return fmt.Errorf("updating user %s: %w", u.Username, err)
	}
	*u = *existing
	return nil
}
