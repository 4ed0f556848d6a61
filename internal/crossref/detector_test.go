package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/period"
)

func rec(taxID, entityKey, name string, periods ...string) datastore.EmploymentRecord {
	return datastore.EmploymentRecord{
		TaxID:         taxID,
		EntityKey:     entityKey,
		PersonName:    name,
		ActivePeriods: period.NewSet(periods...),
	}
}

func TestDetectPairwiseOverlap(t *testing.T) {
	records := []datastore.EmploymentRecord{
		rec("AAAA800101XX1", "SEFIN", "Ana López", "QNA1", "QNA2"),
		rec("AAAA800101XX1", "SEGOB", "Ana López", "QNA2", "QNA3"),
		rec("AAAA800101XX1", "OFMAYOR", "Ana López", "QNA5"),
	}

	refs := Detect(records)
	require.Len(t, refs, 1)

	ref := refs[0]
	assert.Equal(t, "AAAA800101XX1", ref.TaxID)
	assert.Equal(t, []string{"SEFIN", "SEGOB"}, ref.InvolvedEntities, "entity with no overlap must be excluded")
	assert.Equal(t, []string{"QNA2"}, ref.OverlappingPeriods.Sorted())
	assert.Equal(t, UnassessedStatus, ref.Status)
	assert.Len(t, ref.Records, 3, "all of the individual's records travel with the case")
}

func TestDetectSingleEntityIgnored(t *testing.T) {
	records := []datastore.EmploymentRecord{
		rec("BBBB800101XX2", "SEFIN", "Benito Ruiz", "QNA1", "QNA2"),
		rec("CCCC800101XX3", "SEGOB", "Carla Díaz", "QNA1"),
		rec("CCCC800101XX3", "SEFIN", "Carla Díaz", "QNA3"),
	}

	refs := Detect(records)
	assert.Empty(t, refs, "disjoint periods and single-entity individuals produce no cases")
}

func TestDetectUnionAcrossPairs(t *testing.T) {
	records := []datastore.EmploymentRecord{
		rec("DDDD800101XX4", "SEFIN", "Diego Mora", "QNA1", "QNA2"),
		rec("DDDD800101XX4", "SEGOB", "Diego Mora", "QNA2"),
		rec("DDDD800101XX4", "OFMAYOR", "Diego Mora", "QNA1", "QNA7"),
	}

	refs := Detect(records)
	require.Len(t, refs, 1)
	assert.Equal(t, []string{"OFMAYOR", "SEFIN", "SEGOB"}, refs[0].InvolvedEntities)
	assert.Equal(t, []string{"QNA1", "QNA2"}, refs[0].OverlappingPeriods.Sorted())
}

func TestDetectOrderIndependent(t *testing.T) {
	forward := []datastore.EmploymentRecord{
		rec("EEEE800101XX5", "SEFIN", "Elena Paz", "QNA3", "QNA4"),
		rec("EEEE800101XX5", "SEGOB", "Elena Paz", "QNA4", "QNA5"),
	}
	reversed := []datastore.EmploymentRecord{forward[1], forward[0]}

	a := Detect(forward)
	b := Detect(reversed)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].InvolvedEntities, b[0].InvolvedEntities)
	assert.True(t, a[0].OverlappingPeriods.Equal(b[0].OverlappingPeriods))
	assert.Equal(t, a[0].PersonName, b[0].PersonName)
}

func TestDetectMergesDuplicateEntityRecords(t *testing.T) {
	// Two rows for the same entity act as one combined period set.
	records := []datastore.EmploymentRecord{
		rec("FFFF800101XX6", "SEFIN", "Fidel Vega", "QNA1"),
		rec("FFFF800101XX6", "SEFIN", "Fidel Vega", "QNA8"),
		rec("FFFF800101XX6", "SEGOB", "Fidel Vega", "QNA8"),
	}

	refs := Detect(records)
	require.Len(t, refs, 1)
	assert.Equal(t, []string{"SEFIN", "SEGOB"}, refs[0].InvolvedEntities)
	assert.Equal(t, []string{"QNA8"}, refs[0].OverlappingPeriods.Sorted())
}

func TestDetectSortedByTaxID(t *testing.T) {
	records := []datastore.EmploymentRecord{
		rec("ZZZZ800101XX9", "SEFIN", "Zoe Luna", "QNA1"),
		rec("ZZZZ800101XX9", "SEGOB", "Zoe Luna", "QNA1"),
		rec("AAAA800101XX1", "SEFIN", "Ana López", "QNA2"),
		rec("AAAA800101XX1", "SEGOB", "Ana López", "QNA2"),
	}

	refs := Detect(records)
	require.Len(t, refs, 2)
	assert.Equal(t, "AAAA800101XX1", refs[0].TaxID)
	assert.Equal(t, "ZZZZ800101XX9", refs[1].TaxID)
}
