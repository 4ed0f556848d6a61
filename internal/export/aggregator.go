// Package export flattens detected cross-reference cases into the
// denormalized rows the audit office publishes, and writes them as xlsx
// workbooks.
package export

import (
	"sort"
	"strings"

	"github.com/scil-audit/scil-go/internal/crossref"
	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/disposition"
	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/errors"
	"github.com/scil-audit/scil-go/internal/period"
)

// FullCycleLabel replaces the period list when an individual overlaps in
// every biweekly period of the exercise.
const FullCycleLabel = "Activo en Todo el Ejercicio"

// NotApplicable marks a row whose own periods never intersect another
// entity's. Such rows carry context during review but are dropped from
// final workbooks.
const NotApplicable = "N/A"

// Row is one exported line: one employment record of a cross-referenced
// individual, annotated with the entities and periods it conflicts with
// and the current review status.
type Row struct {
	TaxID                string   `json:"taxId"`
	PersonName           string   `json:"personName"`
	Position             string   `json:"position"`
	StartDate            string   `json:"startDate"`
	EndDate              string   `json:"endDate"`
	PayAmount            *float64 `json:"payAmount,omitempty"`
	OriginEntity         string   `json:"originEntity"`
	IncompatibleEntities []string `json:"incompatibleEntities"`
	Periods              []string `json:"periods"`
	PeriodLabel          string   `json:"periodLabel"`
	Status               string   `json:"status"`
	Comment              string   `json:"comment,omitempty"`
}

// Applicable reports whether the row belongs in a final workbook.
func (r Row) Applicable() bool { return r.PeriodLabel != NotApplicable }

// BuildRows expands cross-reference cases into export rows. For each
// underlying record the row keeps only the subset of the record's own
// periods that intersect some other involved entity's periods; records
// with no such subset come back labeled N/A. Stored dispositions override
// the batch status and comment per (taxId, entity). The same snapshot
// always yields the same rows.
func BuildRows(refs []crossref.CrossReference, store datastore.Interface, catalog *entity.Catalog, fullCycle int) ([]Row, error) {
	if fullCycle <= 0 {
		fullCycle = period.FullCycle
	}

	var rows []Row
	for _, ref := range refs {
		periodsByEntity := make(map[string]period.Set, len(ref.Records))
		for _, rec := range ref.Records {
			set := rec.ActivePeriods
			if existing, ok := periodsByEntity[rec.EntityKey]; ok {
				set = existing.Union(set)
			}
			periodsByEntity[rec.EntityKey] = set
		}

		dispositions, err := store.DispositionsByTaxID(ref.TaxID)
		if err != nil {
			return nil, errors.New(err).
				Component("export").
				Category(errors.CategoryDatabase).
				Context("tax_id", ref.TaxID).
				Build()
		}
		byEntity := make(map[string]*datastore.Disposition, len(dispositions))
		for i := range dispositions {
			byEntity[dispositions[i].EntityKey] = &dispositions[i]
		}

		for _, rec := range ref.Records {
			overlap := period.NewSet()
			incompatible := make(map[string]struct{})
			for other, otherPeriods := range periodsByEntity {
				if other == rec.EntityKey {
					continue
				}
				shared := rec.ActivePeriods.Intersect(otherPeriods)
				if shared.Len() == 0 {
					continue
				}
				overlap = overlap.Union(shared)
				incompatible[other] = struct{}{}
			}

			labels := make([]string, 0, len(incompatible))
			for key := range incompatible {
				labels = append(labels, catalog.DisplayLabel(key))
			}
			sort.Strings(labels)

			row := Row{
				TaxID:                ref.TaxID,
				PersonName:           rec.PersonName,
				Position:             rec.Position,
				StartDate:            rec.StartDate,
				EndDate:              rec.EndDate,
				PayAmount:            rec.PayAmount,
				OriginEntity:         catalog.DisplayLabel(rec.EntityKey),
				IncompatibleEntities: labels,
				Periods:              overlap.Sorted(),
				PeriodLabel:          periodLabel(overlap, fullCycle),
			}

			row.Status = disposition.NormalizeState(ref.Status)
			if d := lookupDisposition(byEntity, rec.EntityKey); d != nil {
				row.Status = disposition.NormalizeState(d.State)
				row.Comment = d.Comment
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// ApplicableRows drops N/A rows, the final-workbook view of BuildRows.
func ApplicableRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Applicable() {
			out = append(out, r)
		}
	}
	return out
}

// FilterByEntity keeps rows originating from one entity, resolving the
// label through the catalog so acronyms and full names both work.
func FilterByEntity(rows []Row, label string, catalog *entity.Catalog) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if catalog.AliasesMatch(r.OriginEntity, label) {
			out = append(out, r)
		}
	}
	return out
}

// lookupDisposition prefers an entity-scoped disposition and falls back to
// the taxId-wide GENERAL one.
func lookupDisposition(byEntity map[string]*datastore.Disposition, entityKey string) *datastore.Disposition {
	if d, ok := byEntity[entityKey]; ok {
		return d
	}
	return byEntity[datastore.GeneralEntity]
}

func periodLabel(overlap period.Set, fullCycle int) string {
	switch {
	case overlap.Len() == 0:
		return NotApplicable
	case overlap.Len() >= fullCycle:
		return FullCycleLabel
	}
	return strings.Join(overlap.Sorted(), ", ")
}
