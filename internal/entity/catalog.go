package entity

import (
	"sort"
	"sync"
)

// Source provides the registry rows the catalog is built from. The
// datastore implements this.
type Source interface {
	ListEntities() ([]Entity, error)
}

// Catalog is the normalized alias index over the entity registry. It is
// constructed once and passed by reference to every component that resolves
// or compares entity labels; Rebuild must be called by whatever mutates the
// registry, in the same logical operation as the mutation.
type Catalog struct {
	mu      sync.RWMutex
	source  Source
	byKey   map[string]Entity   // normalized key -> entity
	byAlias map[string][]string // normalized alias -> canonical keys carrying it
	ordered []Entity            // active entities in hierarchy order
}

// NewCatalog builds a catalog over src. It fails if the registry cannot be read.
func NewCatalog(src Source) (*Catalog, error) {
	c := &Catalog{source: src}
	if err := c.Rebuild(); err != nil {
		return nil, err
	}
	return c, nil
}

// Rebuild re-reads the registry and replaces the alias index. Only active
// entities participate in resolution.
func (c *Catalog) Rebuild() error {
	entities, err := c.source.ListEntities()
	if err != nil {
		return err
	}

	byKey := make(map[string]Entity, len(entities))
	byAlias := make(map[string][]string)
	ordered := make([]Entity, 0, len(entities))

	for _, e := range entities {
		if !e.Active {
			continue
		}
		key := Normalize(e.Key)
		if key == "" {
			continue
		}
		byKey[key] = e
		ordered = append(ordered, e)
		for _, alias := range e.Aliases() {
			byAlias[alias] = append(byAlias[alias], key)
		}
	}

	// Deterministic resolution when two entities share an alias: the
	// collision stays visible in the slice, lookups take the first key.
	for alias := range byAlias {
		sort.Strings(byAlias[alias])
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return CompareHierarchy(ordered[i].HierarchyOrder, ordered[j].HierarchyOrder) < 0
	})

	c.mu.Lock()
	c.byKey = byKey
	c.byAlias = byAlias
	c.ordered = ordered
	c.mu.Unlock()
	return nil
}

// ResolveKey maps a free-text label (key, acronym or full name, any casing
// or accents) to the canonical entity key. The boolean is false when no
// entity carries the label.
func (c *Catalog) ResolveKey(label string) (string, bool) {
	n := Normalize(label)
	if n == "" {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys, ok := c.byAlias[n]
	if !ok || len(keys) == 0 {
		return "", false
	}
	return c.byKey[keys[0]].Key, true
}

// Get returns the entity for a canonical key.
func (c *Catalog) Get(key string) (Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byKey[Normalize(key)]
	return e, ok
}

// AliasesMatch reports whether two labels resolve to a common entity
// identity, i.e. some registry entity carries both labels among its
// key/acronym/name. This is exact matching on the tri-field alias set; two
// distinct entities sharing an acronym or name are indistinguishable here.
func (c *Catalog) AliasesMatch(labelA, labelB string) bool {
	na, nb := Normalize(labelA), Normalize(labelB)
	if na == "" || nb == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keysB := c.byAlias[nb]
	for _, ka := range c.byAlias[na] {
		for _, kb := range keysB {
			if ka == kb {
				return true
			}
		}
	}
	return false
}

// DisplayLabel returns the preferred display form for a label: the resolved
// entity's acronym, else its full name, else the raw input unchanged.
func (c *Catalog) DisplayLabel(label string) string {
	n := Normalize(label)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if keys, ok := c.byAlias[n]; ok && len(keys) > 0 {
		return c.byKey[keys[0]].DisplayLabel()
	}
	return label
}

// Entities lists the active entities in hierarchy order. An empty kind
// lists both organizations and municipalities.
func (c *Catalog) Entities(kind Kind) []Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entity, 0, len(c.ordered))
	for _, e := range c.ordered {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
