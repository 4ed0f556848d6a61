// model.go this code defines the data model for the application
package datastore

import (
	"strings"
	"time"

	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/period"
)

// EmploymentRecord is one individual's employment row at one entity for the
// audited payroll cycle. The (TaxID, EntityKey) pair is unique; re-ingesting
// the same pair overwrites mutable fields in place.
type EmploymentRecord struct {
	ID            uint       `gorm:"primaryKey" json:"-"`
	TaxID         string     `gorm:"uniqueIndex:idx_records_taxid_entity;size:13;not null" json:"taxId"`
	EntityKey     string     `gorm:"uniqueIndex:idx_records_taxid_entity;size:64;not null" json:"entityKey"`
	PersonName    string     `json:"personName"`
	Position      string     `json:"position"`
	StartDate     string     `json:"startDate,omitempty"` // ISO date, empty when unknown
	EndDate       string     `json:"endDate,omitempty"`   // ISO date, empty while still employed
	PayAmount     *float64   `json:"payAmount,omitempty"`
	ActivePeriods period.Set `gorm:"type:text" json:"activePeriods"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// GeneralEntity is the sentinel entity key for a taxId-wide disposition not
// tied to one entity.
const GeneralEntity = "GENERAL"

// Disposition is the reviewer's latest assessment of a (taxId, entity)
// pair. Upserted in place; no history is retained.
type Disposition struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	TaxID       string    `gorm:"uniqueIndex:idx_dispositions_taxid_entity;size:13;not null" json:"taxId"`
	EntityKey   string    `gorm:"uniqueIndex:idx_dispositions_taxid_entity;size:64;not null" json:"entityKey"`
	State       string    `gorm:"type:varchar(32)" json:"state"`
	Comment     string    `gorm:"type:text" json:"comment"`
	CatalogCode string    `json:"catalogCode,omitempty"`
	FreeText    string    `gorm:"type:text" json:"freeText,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EntityRecord is a registry row for a government organization or
// municipality. The catalog index is rebuilt from these rows.
type EntityRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Num       string    `json:"num"` // dotted hierarchy order, display only
	Key       string    `gorm:"column:entity_key;uniqueIndex;size:64;not null" json:"key"`
	Name      string    `gorm:"not null" json:"name"`
	Acronym   string    `json:"acronym,omitempty"`
	Kind      string    `gorm:"type:varchar(16);index" json:"kind"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToEntity converts a registry row to the catalog's canonical form.
func (r EntityRecord) ToEntity() entity.Entity {
	return entity.Entity{
		Key:            r.Key,
		Acronym:        r.Acronym,
		FullName:       r.Name,
		Kind:           entity.Kind(r.Kind),
		Active:         r.Active,
		HierarchyOrder: r.Num,
	}
}

// User is a reviewer account. Entitlements holds the comma-separated alias
// tokens granting catalog access, including the TODOS wildcards.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	FullName     string    `json:"fullName"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `json:"-"`
	Entitlements string    `json:"entitlements"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EntitlementTokens splits the stored entitlement string into cleaned,
// uppercased tokens.
func (u *User) EntitlementTokens() []string {
	var tokens []string
	for _, t := range strings.Split(u.Entitlements, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
