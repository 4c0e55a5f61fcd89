package recon

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a named, ordered set of rules for one statistical domain
// (e.g. LBS residency internal consistency). Catalogs are configuration
// data consumed by the engine; they register themselves from init() the
// same way lint-style rule packs do.
type Catalog struct {
	// ID is the catalog identifier used in configuration, e.g. "lbsr".
	ID string
	// Name is the human-readable catalog name.
	Name string
	// Description says what the catalog checks.
	Description string
	// Kind distinguishes internal-consistency catalogs (one report against
	// itself) from cross-report catalogs (two differently-structured reports).
	Kind CatalogKind
	// Rules builds the catalog's rule list. Must be pure.
	Rules func() []Rule
}

// CatalogKind classifies how a catalog's two sides are fed.
type CatalogKind int

const (
	// KindInternal catalogs run one report as both sides.
	KindInternal CatalogKind = iota
	// KindCross catalogs compare two different report types.
	KindCross
)

func (k CatalogKind) String() string {
	if k == KindCross {
		return "cross-report"
	}
	return "internal"
}

var catalogRegistry = struct {
	mu    sync.RWMutex
	byID  map[string]Catalog
	order []string
}{byID: make(map[string]Catalog)}

// RegisterCatalog adds a catalog to the registry. Call from init() in
// catalog packages. Duplicate or malformed registrations panic: they are
// programming errors that must surface at startup, not at evaluation time.
func RegisterCatalog(c Catalog) {
	if c.ID == "" || c.Rules == nil {
		panic(fmt.Sprintf("recon: invalid catalog registration %q", c.ID))
	}
	catalogRegistry.mu.Lock()
	defer catalogRegistry.mu.Unlock()
	if _, dup := catalogRegistry.byID[c.ID]; dup {
		panic(fmt.Sprintf("recon: catalog %q registered twice", c.ID))
	}
	catalogRegistry.byID[c.ID] = c
	catalogRegistry.order = append(catalogRegistry.order, c.ID)
}

// LookupCatalog returns the catalog with the given ID.
func LookupCatalog(id string) (Catalog, bool) {
	catalogRegistry.mu.RLock()
	defer catalogRegistry.mu.RUnlock()
	c, ok := catalogRegistry.byID[id]
	return c, ok
}

// Catalogs returns all registered catalogs in registration order.
func Catalogs() []Catalog {
	catalogRegistry.mu.RLock()
	defer catalogRegistry.mu.RUnlock()
	out := make([]Catalog, 0, len(catalogRegistry.order))
	for _, id := range catalogRegistry.order {
		out = append(out, catalogRegistry.byID[id])
	}
	return out
}

// CatalogIDs returns the registered catalog IDs, sorted.
func CatalogIDs() []string {
	catalogRegistry.mu.RLock()
	defer catalogRegistry.mu.RUnlock()
	ids := make([]string, len(catalogRegistry.order))
	copy(ids, catalogRegistry.order)
	sort.Strings(ids)
	return ids
}

// SelectRules resolves catalog IDs into a flat rule list, applying the
// disable list and scaling every tolerance by scale (scale <= 0 means 1).
// Unknown catalog IDs are an error; unknown disabled rule IDs are ignored.
func SelectRules(catalogIDs, disabled []string, scale float64) ([]Rule, error) {
	if scale <= 0 {
		scale = 1
	}
	off := make(map[string]struct{}, len(disabled))
	for _, id := range disabled {
		off[id] = struct{}{}
	}
	var rules []Rule
	for _, id := range catalogIDs {
		cat, ok := LookupCatalog(id)
		if !ok {
			return nil, fmt.Errorf("%w: unknown catalog %q", ErrRuleConfig, id)
		}
		for _, r := range cat.Rules() {
			if _, skip := off[r.ID]; skip {
				continue
			}
			r.Tolerance *= scale
			rules = append(rules, r)
		}
	}
	return rules, nil
}
