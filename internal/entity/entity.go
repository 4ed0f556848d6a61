// Package entity provides the canonical identity of audited government
// entities and the alias catalog used to resolve free-text entity labels.
package entity

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Kind distinguishes the two halves of the entity registry.
type Kind string

const (
	KindOrganization Kind = "ORGANIZATION"
	KindMunicipality Kind = "MUNICIPALITY"
)

// Entity is the immutable canonical identity of a government organization
// or municipality. Key is unique across both kinds combined.
type Entity struct {
	Key            string
	Acronym        string
	FullName       string
	Kind           Kind
	Active         bool
	HierarchyOrder string // dotted numeric string, display ordering only
}

// Aliases returns the normalized identity set of the entity: its key,
// acronym and full name, empty fields omitted. Two entities that happen to
// share an acronym or name produce overlapping alias sets; that ambiguity
// is deliberate and surfaced by Catalog.AliasesMatch.
func (e Entity) Aliases() []string {
	out := make([]string, 0, 3)
	for _, field := range []string{e.Key, e.Acronym, e.FullName} {
		if n := Normalize(field); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// DisplayLabel returns the acronym if present, else the full name, else the key.
func (e Entity) DisplayLabel() string {
	if e.Acronym != "" {
		return e.Acronym
	}
	if e.FullName != "" {
		return e.FullName
	}
	return e.Key
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a free-text entity label for alias comparison:
// trim, uppercase, strip diacritical marks.
func Normalize(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	stripped, _, err := transform.String(stripDiacritics, label)
	if err != nil {
		return label
	}
	return stripped
}

// hierarchySentinel sorts non-numeric order components after every real one.
const hierarchySentinel = 999

// hierarchyParts splits a dotted numeric order string ("1.4.2") into integer
// components, padded to a fixed width so "1.2.3" sorts before "1.10".
func hierarchyParts(order string) [5]int {
	var parts [5]int
	order = strings.TrimSuffix(strings.TrimSpace(order), ".")
	if order == "" {
		parts[0] = hierarchySentinel
		return parts
	}
	for i, p := range strings.Split(order, ".") {
		if i >= len(parts) {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			n = hierarchySentinel
		}
		parts[i] = n
	}
	return parts
}

// CompareHierarchy orders two dotted numeric strings component-wise.
// It returns a negative value when a sorts before b, zero when equal.
func CompareHierarchy(a, b string) int {
	pa, pb := hierarchyParts(a), hierarchyParts(b)
	for i := range pa {
		if pa[i] != pb[i] {
			return pa[i] - pb[i]
		}
	}
	return 0
}
