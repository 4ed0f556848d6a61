// Package access resolves a user's entitlement tokens into an entity
// visibility filter. Tokens come from the user record as an ordered list
// of uppercase strings; resolution happens at session start and the
// resulting filter is applied to every entity-scoped query.
package access

import (
	"strings"

	"github.com/scil-audit/scil-go/internal/entity"
)

// Mode is the visibility class a token set resolves to.
type Mode int

const (
	// ModeAll grants every entity regardless of kind.
	ModeAll Mode = iota
	// ModeOrganizationsOnly grants entities of the organization kind.
	ModeOrganizationsOnly
	// ModeMunicipalitiesOnly grants entities of the municipality kind.
	ModeMunicipalitiesOnly
	// ModeExplicit grants only entities matched by the token list.
	ModeExplicit
)

const (
	wildcardAll          = "TODOS"
	markerOrganizations  = "ENTE"
	markerMunicipalities = "MUNICIP"
)

// Classify maps entitlement tokens to a visibility mode. A token equal to
// the global wildcard grants everything, whatever else the list holds.
// Kind wildcards match by substring, so stored variants like "TODOS LOS
// ENTES" still classify; holding both kinds is equivalent to the global
// wildcard.
func Classify(tokens []string) Mode {
	var orgs, munis bool
	for _, tok := range tokens {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if tok == wildcardAll {
			return ModeAll
		}
		if !strings.Contains(tok, wildcardAll) {
			continue
		}
		if strings.Contains(tok, markerOrganizations) {
			orgs = true
		}
		if strings.Contains(tok, markerMunicipalities) {
			munis = true
		}
	}
	switch {
	case orgs && munis:
		return ModeAll
	case orgs:
		return ModeOrganizationsOnly
	case munis:
		return ModeMunicipalitiesOnly
	}
	return ModeExplicit
}

// Filter answers whether a given entity is visible to a user. Build one
// per session with NewFilter and reuse it across queries.
type Filter struct {
	mode    Mode
	tokens  []string
	catalog *entity.Catalog
}

// NewFilter resolves tokens against the catalog. The catalog is consulted
// lazily on each check so a Rebuild is picked up without recreating the
// filter.
func NewFilter(tokens []string, catalog *entity.Catalog) *Filter {
	cleaned := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if tok != "" {
			cleaned = append(cleaned, tok)
		}
	}
	return &Filter{mode: Classify(cleaned), tokens: cleaned, catalog: catalog}
}

// Mode reports the resolved visibility class.
func (f *Filter) Mode() Mode { return f.mode }

// IsPermitted reports whether the entity identified by key is visible.
// Unknown keys are never visible, whatever the mode.
func (f *Filter) IsPermitted(entityKey string) bool {
	ent, ok := f.catalog.Get(entityKey)
	if !ok {
		return false
	}
	switch f.mode {
	case ModeAll:
		return true
	case ModeOrganizationsOnly:
		return ent.Kind == entity.KindOrganization
	case ModeMunicipalitiesOnly:
		return ent.Kind == entity.KindMunicipality
	}
	for _, tok := range f.tokens {
		if f.catalog.AliasesMatch(tok, entityKey) {
			return true
		}
	}
	return false
}

// PermittedKeys filters a key list down to the visible subset, preserving
// input order.
func (f *Filter) PermittedKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if f.IsPermitted(key) {
			out = append(out, key)
		}
	}
	return out
}
