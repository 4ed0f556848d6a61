// Package crossref detects individuals simultaneously active at more than
// one government entity during the same biweekly pay period. A cross
// reference is a pure read-time projection: it is rebuilt from the full
// record set on every query and never persisted.
package crossref

import (
	"sort"
	"strings"

	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/period"
)

// UnassessedStatus is the batch-level status carried by a fresh cross
// reference before any reviewer disposition exists.
const UnassessedStatus = "Sin valoración"

// CrossReference is one individual's detected dual-employment case.
// InvolvedEntities and OverlappingPeriods hold only entities and periods
// that participated in at least one pairwise intersection; an entity with
// records for the taxId but no temporal overlap with any other entity is
// excluded.
type CrossReference struct {
	TaxID              string                       `json:"taxId"`
	PersonName         string                       `json:"personName"`
	InvolvedEntities   []string                     `json:"involvedEntities"`
	OverlappingPeriods period.Set                   `json:"overlappingPeriods"`
	Records            []datastore.EmploymentRecord `json:"records"`
	Status             string                       `json:"status"`
}

// Detect groups the full record set by taxId and reports every individual
// whose active periods intersect across at least two entities. The result
// is independent of record iteration order: membership is decided by set
// intersection and the output is sorted by taxId.
func Detect(records []datastore.EmploymentRecord) []CrossReference {
	groups := make(map[string][]datastore.EmploymentRecord)
	for _, rec := range records {
		taxID := strings.ToUpper(strings.TrimSpace(rec.TaxID))
		if taxID == "" {
			continue
		}
		groups[taxID] = append(groups[taxID], rec)
	}

	var out []CrossReference
	for taxID, recs := range groups {
		if len(recs) < 2 {
			continue
		}

		periodsByEntity := make(map[string]period.Set, len(recs))
		for _, rec := range recs {
			set := rec.ActivePeriods
			if existing, ok := periodsByEntity[rec.EntityKey]; ok {
				set = existing.Union(set)
			}
			periodsByEntity[rec.EntityKey] = set
		}

		entities := make([]string, 0, len(periodsByEntity))
		for key := range periodsByEntity {
			entities = append(entities, key)
		}
		sort.Strings(entities)

		overlapping := period.NewSet()
		involved := make(map[string]struct{})
		for i := 0; i < len(entities); i++ {
			for j := i + 1; j < len(entities); j++ {
				shared := periodsByEntity[entities[i]].Intersect(periodsByEntity[entities[j]])
				if shared.Len() == 0 {
					continue
				}
				overlapping = overlapping.Union(shared)
				involved[entities[i]] = struct{}{}
				involved[entities[j]] = struct{}{}
			}
		}
		if overlapping.Len() == 0 {
			continue
		}

		involvedKeys := make([]string, 0, len(involved))
		for key := range involved {
			involvedKeys = append(involvedKeys, key)
		}
		sort.Strings(involvedKeys)

		out = append(out, CrossReference{
			TaxID:              taxID,
			PersonName:         personName(recs),
			InvolvedEntities:   involvedKeys,
			OverlappingPeriods: overlapping,
			Records:            recs,
			Status:             UnassessedStatus,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TaxID < out[j].TaxID })
	return out
}

// personName picks the first non-empty name in entity-key order so the
// choice does not depend on record iteration order.
func personName(recs []datastore.EmploymentRecord) string {
	sorted := make([]datastore.EmploymentRecord, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EntityKey < sorted[j].EntityKey })
	for _, rec := range sorted {
		if rec.PersonName != "" {
			return rec.PersonName
		}
	}
	return ""
}
