// Package disposition tracks reviewer assessments of detected
// cross-reference cases. The latest assessment per (taxId, entity) wins;
// there is no review history.
package disposition

import (
	"strings"

	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/errors"
)

// Review states. Stored and displayed in Spanish, matching the audit
// office's terminology.
const (
	StateUnassessed = "Sin valoración"
	StateResolved   = "Solventado"
	StateUnresolved = "No Solventado"
	StateMixed      = "Mixto"
)

// NormalizeState maps free-form state text onto the canonical three review
// states. Matching is by substring so historic variants like "no
// solventada" still classify.
func NormalizeState(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StateUnassessed
	case strings.Contains(s, "no"):
		return StateUnresolved
	case strings.Contains(s, "solvent"):
		return StateResolved
	}
	return StateUnassessed
}

// Aggregate folds per-entity states into the individual's overall status:
// all resolved is resolved, all unresolved is unresolved, a mix of the two
// is mixed, and anything unassessed dominates nothing, so an empty or
// all-unassessed slice is unassessed.
func Aggregate(states []string) string {
	var resolved, unresolved bool
	for _, st := range states {
		switch NormalizeState(st) {
		case StateResolved:
			resolved = true
		case StateUnresolved:
			unresolved = true
		}
	}
	switch {
	case resolved && unresolved:
		return StateMixed
	case resolved:
		return StateResolved
	case unresolved:
		return StateUnresolved
	}
	return StateUnassessed
}

// Tracker records and reads dispositions, resolving entity labels through
// the catalog so a reviewer can write "Secretaría de Finanzas" or "SEFIN"
// interchangeably.
type Tracker struct {
	store   datastore.Interface
	catalog *entity.Catalog
}

// NewTracker wires a tracker over the store and catalog.
func NewTracker(store datastore.Interface, catalog *entity.Catalog) *Tracker {
	return &Tracker{store: store, catalog: catalog}
}

// Review upserts one assessment, returning the store's rows-affected
// count alongside the written row. An empty entity label records a GENERAL
// disposition covering the whole taxId; a label that does not resolve in
// the catalog is kept verbatim so the review is not lost when the registry
// lags behind an ingest.
func (t *Tracker) Review(taxID, entityLabel, state, comment, catalogCode, freeText string) (int64, *datastore.Disposition, error) {
	taxID = strings.ToUpper(strings.TrimSpace(taxID))
	if taxID == "" {
		return 0, nil, errors.Newf("taxId is required").
			Component("disposition").
			Category(errors.CategoryValidation).
			Build()
	}

	entityKey := strings.TrimSpace(entityLabel)
	switch {
	case entityKey == "":
		entityKey = datastore.GeneralEntity
	default:
		if key, ok := t.catalog.ResolveKey(entityKey); ok {
			entityKey = key
		}
	}

	d := &datastore.Disposition{
		TaxID:       taxID,
		EntityKey:   entityKey,
		State:       NormalizeState(state),
		Comment:     strings.TrimSpace(comment),
		CatalogCode: strings.TrimSpace(catalogCode),
		FreeText:    strings.TrimSpace(freeText),
	}
	rows, err := t.store.SaveDisposition(d)
	if err != nil {
		return 0, nil, errors.New(err).
			Component("disposition").
			Category(errors.CategoryDatabase).
			Context("tax_id", taxID).
			Context("entity_key", entityKey).
			Build()
	}
	return rows, d, nil
}

// Merged is the per-individual review summary: one state per reviewed
// entity plus the aggregate, with the newest comment carried for display.
type Merged struct {
	TaxID         string            `json:"taxId"`
	StateByEntity map[string]string `json:"stateByEntity"`
	Overall       string            `json:"overall"`
	LatestComment string            `json:"latestComment,omitempty"`
}

// ForTaxID merges all stored dispositions for one individual. A GENERAL
// disposition participates in the aggregate like any entity-scoped one.
func (t *Tracker) ForTaxID(taxID string) (*Merged, error) {
	dispositions, err := t.store.DispositionsByTaxID(taxID)
	if err != nil {
		return nil, errors.New(err).
			Component("disposition").
			Category(errors.CategoryDatabase).
			Context("tax_id", taxID).
			Build()
	}
	return merge(strings.ToUpper(strings.TrimSpace(taxID)), dispositions), nil
}

// All merges every stored disposition, keyed by taxId. Used by list views
// and the exporter to annotate cases in one pass.
func (t *Tracker) All() (map[string]*Merged, error) {
	dispositions, err := t.store.AllDispositions()
	if err != nil {
		return nil, errors.New(err).
			Component("disposition").
			Category(errors.CategoryDatabase).
			Build()
	}
	byTaxID := make(map[string][]datastore.Disposition)
	for _, d := range dispositions {
		byTaxID[d.TaxID] = append(byTaxID[d.TaxID], d)
	}
	out := make(map[string]*Merged, len(byTaxID))
	for taxID, group := range byTaxID {
		out[taxID] = merge(taxID, group)
	}
	return out, nil
}

func merge(taxID string, dispositions []datastore.Disposition) *Merged {
	m := &Merged{TaxID: taxID, StateByEntity: make(map[string]string, len(dispositions))}
	states := make([]string, 0, len(dispositions))
	var latest *datastore.Disposition
	for i := range dispositions {
		d := &dispositions[i]
		m.StateByEntity[d.EntityKey] = NormalizeState(d.State)
		states = append(states, d.State)
		if d.Comment != "" && (latest == nil || d.UpdatedAt.After(latest.UpdatedAt)) {
			latest = d
		}
	}
	m.Overall = Aggregate(states)
	if latest != nil {
		m.LatestComment = latest.Comment
	}
	return m
}
