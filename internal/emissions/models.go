// Package emissions implements the Factor Catalog and the Emissions
// Calculator: it resolves a subtype and an emission factor for each mapped
// activity record and produces the resulting EmissionLine.
//
// Refrigerant lines are the one exception to the direct amount × factor
// formula: their factor is a global warming potential (GWP), and the
// resulting figure is carried in the same Emissions field on a tonnes scale
// (amount_kg × gwp / 1000), not converted to the kg scale used by every
// other kind.
package emissions

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/emitcore/ghgcore/internal/ingestion"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

// ErrFactorMissing is returned by Validate when a kind's default subtype has
// no registered factor. This is a configuration error, checked once at
// startup rather than surfaced mid-ingestion.
var ErrFactorMissing = errors.New("emissions: default subtype has no registered factor")

// Factor is one emission factor entry in the catalog: a (kind, subtype)
// pair mapped to either a direct kg-CO2e-per-unit value, or, for
// refrigerants, a global warming potential.
type Factor struct {
	Kind    rowmap.Kind
	Subtype string

	// Keywords are the context substrings that select this factor. A nil
	// Keywords defaults to the subtype name itself (lowercased), but a
	// subtype whose display label contains punctuation a free-text category
	// won't reproduce verbatim (e.g. "Flight (Long-haul)") should set its
	// own plain-text keywords ("long-haul") instead.
	Keywords []string

	// Value is the factor's magnitude: kg CO2e per unit of Amount for every
	// kind except refrigerant, where it is the substance's GWP.
	Value float64

	// IsGWP marks a refrigerant-style factor, selecting the
	// amount_kg × gwp / 1000 formula instead of amount × Value.
	IsGWP bool
}

// String renders the factor for trace messages.
func (f Factor) String() string {
	if f.IsGWP {
		return fmt.Sprintf("%s/%s GWP=%.0f", f.Kind, f.Subtype, f.Value)
	}
	return fmt.Sprintf("%s/%s factor=%.4f", f.Kind, f.Subtype, f.Value)
}

// EmissionLine is one computed activity-to-emissions result, traceable back
// to the subtype and factor that produced it.
type EmissionLine struct {
	ID string

	Scope   ingestion.Scope
	Kind    rowmap.Kind
	Subtype string

	Amount float64
	Unit   string

	FactorValue float64
	IsGWPFactor bool

	// Emissions is the computed figure. For every kind except refrigerant
	// this is kg CO2e (amount × FactorValue). For refrigerant it is the
	// tonnes-scale figure amount_kg × gwp / 1000, stored unconverted.
	Emissions float64

	// Trace is a short human-readable description of how Emissions was
	// derived, e.g. "120.0000 litres fuel/diesel @ 2.6800 = 321.6000".
	Trace string
}

// Catalog resolves an emission factor for a kind given free-text context
// (category text plus any non-ignored column values for the row), picking
// the most specific matching subtype.
type Catalog interface {
	Resolve(kind rowmap.Kind, context string) (Factor, bool)
}

// InMemoryCatalog is a two-level kind → subtype → Factor lookup table
// guarded by a RWMutex, in the style of a small in-process registry rather
// than a networked factor service.
type InMemoryCatalog struct {
	mu             sync.RWMutex
	factors        map[rowmap.Kind]map[string]Factor
	keywords       map[rowmap.Kind]map[string][]string
	defaultSubtype map[rowmap.Kind]string
}

// NewCatalog builds an empty catalog. Use NewDefaultCatalog for the
// specification's seeded factor set.
func NewCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{
		factors:        make(map[rowmap.Kind]map[string]Factor),
		keywords:       make(map[rowmap.Kind]map[string][]string),
		defaultSubtype: make(map[rowmap.Kind]string),
	}
}

// Put registers a factor, overwriting any existing entry for the same
// (kind, subtype) pair. The first subtype registered for a kind becomes
// that kind's default until SetDefault overrides it.
func (c *InMemoryCatalog) Put(f Factor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.factors[f.Kind] == nil {
		c.factors[f.Kind] = make(map[string]Factor)
		c.keywords[f.Kind] = make(map[string][]string)
	}
	key := strings.ToLower(f.Subtype)
	c.factors[f.Kind][key] = f

	kws := f.Keywords
	if len(kws) == 0 {
		kws = []string{key}
	}
	folded := make([]string, len(kws))
	for i, kw := range kws {
		folded[i] = strings.ToLower(kw)
	}
	c.keywords[f.Kind][key] = folded

	if _, ok := c.defaultSubtype[f.Kind]; !ok {
		c.defaultSubtype[f.Kind] = key
	}
}

// SetDefault fixes the subtype used for a kind when no context keyword
// matches any registered subtype.
func (c *InMemoryCatalog) SetDefault(kind rowmap.Kind, subtype string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultSubtype[kind] = strings.ToLower(subtype)
}

// Resolve implements Catalog: it scans context for any registered keyword
// of kind (the longest matching keyword wins; which subtype wins among
// equal-length matches is not defined), falling back to the kind's default
// subtype. Resolve only returns false when kind has no factors registered
// at all.
func (c *InMemoryCatalog) Resolve(kind rowmap.Kind, context string) (Factor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subtypes := c.factors[kind]
	if len(subtypes) == 0 {
		return Factor{}, false
	}

	folded := strings.ToLower(context)

	var best Factor
	bestLen := -1
	for subtype, f := range subtypes {
		if folded == "" {
			continue
		}
		for _, kw := range c.keywords[kind][subtype] {
			if strings.Contains(folded, kw) && len(kw) > bestLen {
				best = f
				bestLen = len(kw)
			}
		}
	}
	if bestLen >= 0 {
		return best, true
	}

	if def, ok := c.defaultSubtype[kind]; ok {
		if f, ok := subtypes[def]; ok {
			return f, true
		}
	}

	return Factor{}, false
}

// Validate checks that every kind with a registered default subtype actually
// has a factor for it, returning every violation joined with errors.Join (nil
// if the catalog is internally consistent). Call this once at startup, after
// seeding a catalog and before using it for ingestion.
func (c *InMemoryCatalog) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for kind, def := range c.defaultSubtype {
		if _, ok := c.factors[kind][def]; !ok {
			errs = append(errs, fmt.Errorf("%w: kind=%s subtype=%s", ErrFactorMissing, kind, def))
		}
	}
	return errors.Join(errs...)
}

// Summary describes the catalog's loaded state for diagnostics/logging.
type Summary struct {
	KindCount    int
	FactorCount  int
	KindSubtypes map[rowmap.Kind][]string
}

// Summarize reports the catalog's current contents.
func (c *InMemoryCatalog) Summarize() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Summary{KindSubtypes: make(map[rowmap.Kind][]string, len(c.factors))}
	for kind, subtypes := range c.factors {
		s.KindCount++
		names := make([]string, 0, len(subtypes))
		for name := range subtypes {
			names = append(names, name)
			s.FactorCount++
		}
		s.KindSubtypes[kind] = names
	}
	return s
}
