package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scil-audit/scil-go/internal/entity"
)

type staticSource struct{ entities []entity.Entity }

func (s *staticSource) ListEntities() ([]entity.Entity, error) { return s.entities, nil }

func testCatalog(t *testing.T) *entity.Catalog {
	t.Helper()
	src := &staticSource{entities: []entity.Entity{
		{Key: "SEFIN", Acronym: "SEFIN", FullName: "Secretaría de Finanzas", Kind: entity.KindOrganization, Active: true},
		{Key: "SEGOB", Acronym: "SEGOB", FullName: "Secretaría de Gobierno", Kind: entity.KindOrganization, Active: true},
		{Key: "ACUAMANALA", FullName: "Municipio de Acuamanala", Kind: entity.KindMunicipality, Active: true},
		{Key: "CHIAUTEMPAN", FullName: "Municipio de Chiautempan", Kind: entity.KindMunicipality, Active: true},
	}}
	cat, err := entity.NewCatalog(src)
	require.NoError(t, err)
	return cat
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   Mode
	}{
		{"global wildcard alone", []string{"TODOS"}, ModeAll},
		{"global wildcard beats explicit extras", []string{"TODOS", "SEFIN"}, ModeAll},
		{"organizations wildcard", []string{"TODOS LOS ENTES"}, ModeOrganizationsOnly},
		{"municipalities wildcard", []string{"TODOS LOS MUNICIPIOS"}, ModeMunicipalitiesOnly},
		{"both kind wildcards collapse to all", []string{"TODOS LOS ENTES", "TODOS LOS MUNICIPIOS"}, ModeAll},
		{"kind wildcard among explicit tokens still wins", []string{"SEFIN", "TODOS LOS MUNICIPIOS"}, ModeMunicipalitiesOnly},
		{"explicit list", []string{"SEFIN", "SEGOB"}, ModeExplicit},
		{"empty list", nil, ModeExplicit},
		{"lowercase and padding tolerated", []string{" todos "}, ModeAll},
		{"kind marker without the wildcard stays explicit", []string{"ENTE DESCONOCIDO"}, ModeExplicit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.tokens))
		})
	}
}

func TestFilterAllMode(t *testing.T) {
	f := NewFilter([]string{"TODOS"}, testCatalog(t))
	assert.True(t, f.IsPermitted("SEFIN"))
	assert.True(t, f.IsPermitted("ACUAMANALA"))
	assert.False(t, f.IsPermitted("NO_SUCH_ENTITY"), "unknown keys are never visible")
}

func TestFilterGlobalWildcardWithExtras(t *testing.T) {
	f := NewFilter([]string{"TODOS", "SEFIN"}, testCatalog(t))
	assert.Equal(t, ModeAll, f.Mode())
	assert.True(t, f.IsPermitted("SEGOB"), "extra tokens never narrow the global wildcard")
	assert.True(t, f.IsPermitted("CHIAUTEMPAN"))
}

func TestFilterOrganizationsWildcard(t *testing.T) {
	f := NewFilter([]string{"TODOS LOS ENTES"}, testCatalog(t))
	assert.True(t, f.IsPermitted("SEFIN"))
	assert.True(t, f.IsPermitted("SEGOB"))
	assert.False(t, f.IsPermitted("ACUAMANALA"))
	assert.False(t, f.IsPermitted("CHIAUTEMPAN"))
}

func TestFilterMunicipalitiesWildcard(t *testing.T) {
	f := NewFilter([]string{"TODOS LOS MUNICIPIOS"}, testCatalog(t))
	assert.False(t, f.IsPermitted("SEGOB"))
	assert.True(t, f.IsPermitted("CHIAUTEMPAN"))
}

func TestFilterExplicitMode(t *testing.T) {
	f := NewFilter([]string{"SEFIN", "Municipio de Acuamanala"}, testCatalog(t))
	assert.True(t, f.IsPermitted("SEFIN"), "acronym token matches")
	assert.True(t, f.IsPermitted("ACUAMANALA"), "full-name token resolves through the catalog")
	assert.False(t, f.IsPermitted("SEGOB"))
	assert.False(t, f.IsPermitted("CHIAUTEMPAN"))
}

func TestFilterEmptyTokensSeeNothing(t *testing.T) {
	f := NewFilter(nil, testCatalog(t))
	assert.Equal(t, ModeExplicit, f.Mode())
	assert.False(t, f.IsPermitted("SEFIN"))
}

func TestPermittedKeys(t *testing.T) {
	f := NewFilter([]string{"TODOS LOS ENTES"}, testCatalog(t))
	got := f.PermittedKeys([]string{"SEFIN", "ACUAMANALA", "SEGOB", "UNKNOWN"})
	assert.Equal(t, []string{"SEFIN", "SEGOB"}, got)
}
