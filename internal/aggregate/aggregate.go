// Package aggregate implements the Aggregator: it folds a list of
// EmissionLines into per-scope and per-(scope, kind) totals plus a grand
// total, preserving line order and without mutating its input.
package aggregate

import (
	"fmt"

	"github.com/emitcore/ghgcore/internal/emissions"
	"github.com/emitcore/ghgcore/internal/ingestion"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

// ScopeKindKey identifies one (scope, kind) bucket in Report.TotalsByScopeKind.
type ScopeKindKey struct {
	Scope ingestion.Scope
	Kind  rowmap.Kind
}

// String renders the key as "Scope 1/fuel" for display and log output.
func (k ScopeKindKey) String() string {
	return fmt.Sprintf("%s/%s", k.Scope, k.Kind)
}

// Diagnostics carries the row-level counts the pipeline accumulated before
// the Aggregator ran, so a caller can report end-to-end ingestion health
// from the single EmissionReport value.
type Diagnostics struct {
	RowsRead    int
	RowsDropped int
}

// Report is the Aggregator's output: the full ordered line list plus every
// derived total a caller needs to render a GHG inventory summary.
type Report struct {
	Lines []emissions.EmissionLine

	TotalsByScope     map[ingestion.Scope]float64
	TotalsByKind      map[rowmap.Kind]float64
	TotalsByScopeKind map[ScopeKindKey]float64
	GrandTotal        float64

	Diagnostics Diagnostics
}

// Aggregate computes a Report from lines. It is pure: the same lines always
// produce the same totals, and lines is never modified.
func Aggregate(lines []emissions.EmissionLine, diag Diagnostics) Report {
	if lines == nil {
		lines = []emissions.EmissionLine{}
	}

	report := Report{
		Lines:             lines,
		TotalsByScope:     make(map[ingestion.Scope]float64),
		TotalsByKind:      make(map[rowmap.Kind]float64),
		TotalsByScopeKind: make(map[ScopeKindKey]float64),
		Diagnostics:       diag,
	}

	for _, line := range lines {
		report.TotalsByScope[line.Scope] += line.Emissions
		report.TotalsByKind[line.Kind] += line.Emissions
		report.TotalsByScopeKind[ScopeKindKey{Scope: line.Scope, Kind: line.Kind}] += line.Emissions
		report.GrandTotal += line.Emissions
	}

	return report
}
