package aggregate_test

import (
	"testing"

	"github.com/emitcore/ghgcore/internal/aggregate"
	"github.com/emitcore/ghgcore/internal/emissions"
	"github.com/emitcore/ghgcore/internal/ingestion"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

func TestAggregateComputesTotals(t *testing.T) {
	lines := []emissions.EmissionLine{
		{Scope: ingestion.Scope1, Kind: rowmap.KindFuel, Emissions: 100},
		{Scope: ingestion.Scope1, Kind: rowmap.KindFuel, Emissions: 50},
		{Scope: ingestion.Scope2, Kind: rowmap.KindElectricity, Emissions: 25},
	}

	report := aggregate.Aggregate(lines, aggregate.Diagnostics{RowsRead: 3})

	if report.GrandTotal != 175 {
		t.Errorf("expected grand total 175, got %v", report.GrandTotal)
	}
	if report.TotalsByScope[ingestion.Scope1] != 150 {
		t.Errorf("expected scope1 total 150, got %v", report.TotalsByScope[ingestion.Scope1])
	}
	if report.TotalsByScope[ingestion.Scope2] != 25 {
		t.Errorf("expected scope2 total 25, got %v", report.TotalsByScope[ingestion.Scope2])
	}
	key := aggregate.ScopeKindKey{Scope: ingestion.Scope1, Kind: rowmap.KindFuel}
	if report.TotalsByScopeKind[key] != 150 {
		t.Errorf("expected scope1/fuel total 150, got %v", report.TotalsByScopeKind[key])
	}
	if report.TotalsByKind[rowmap.KindFuel] != 150 {
		t.Errorf("expected fuel total 150, got %v", report.TotalsByKind[rowmap.KindFuel])
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	lines := []emissions.EmissionLine{
		{Scope: ingestion.Scope3, Kind: rowmap.KindWaste, Emissions: 10},
	}
	original := lines[0]

	_ = aggregate.Aggregate(lines, aggregate.Diagnostics{})

	if lines[0] != original {
		t.Error("expected Aggregate to leave its input slice untouched")
	}
}

func TestAggregateEmptyLinesProducesZeroReport(t *testing.T) {
	report := aggregate.Aggregate(nil, aggregate.Diagnostics{RowsRead: 2, RowsDropped: 2})

	if report.Lines == nil {
		t.Error("expected a non-nil, empty line slice")
	}
	if len(report.Lines) != 0 {
		t.Errorf("expected 0 lines, got %d", len(report.Lines))
	}
	if report.GrandTotal != 0 {
		t.Errorf("expected grand total 0, got %v", report.GrandTotal)
	}
	if report.Diagnostics.RowsDropped != 2 {
		t.Errorf("expected diagnostics to pass through, got %+v", report.Diagnostics)
	}
}

func TestScopeKindKeyString(t *testing.T) {
	key := aggregate.ScopeKindKey{Scope: ingestion.Scope1, Kind: rowmap.KindFuel}
	if got := key.String(); got == "" {
		t.Error("expected a non-empty rendering")
	}
}
