package emissions_test

import (
	"math"
	"testing"

	"github.com/emitcore/ghgcore/internal/emissions"
	"github.com/emitcore/ghgcore/internal/emissions/factors"
	"github.com/emitcore/ghgcore/internal/ingestion"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCalculatorNonRefrigerant(t *testing.T) {
	catalog := factors.NewDefaultCatalog(nil)
	calc := emissions.NewCalculator(catalog, nil)

	records := []rowmap.ActivityRecord{
		{
			Kind:     rowmap.KindFuel,
			Scope:    ingestion.Scope1,
			Amount:   100,
			Unit:     "litres",
			Category: "diesel fuel purchase",
		},
	}

	lines, skipped := calc.Calculate(records)
	if skipped != 0 {
		t.Fatalf("expected 0 skipped, got %d", skipped)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	line := lines[0]
	if line.Subtype != "diesel" {
		t.Errorf("expected subtype diesel, got %q", line.Subtype)
	}
	want := 100 * 2.68
	if !almostEqual(line.Emissions, want) {
		t.Errorf("expected emissions %.4f, got %.4f", want, line.Emissions)
	}
	if line.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestCalculatorRefrigerantUsesTonnesScale(t *testing.T) {
	catalog := factors.NewDefaultCatalog(nil)
	calc := emissions.NewCalculator(catalog, nil)

	records := []rowmap.ActivityRecord{
		{
			Kind:     rowmap.KindRefrigerant,
			Scope:    ingestion.Scope1,
			Amount:   5,
			Unit:     "kg",
			Category: "r-410a top-up",
		},
	}

	lines, _ := calc.Calculate(records)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	line := lines[0]
	if !line.IsGWPFactor {
		t.Error("expected a GWP factor")
	}
	want := 5 * 2088.0 / 1000
	if !almostEqual(line.Emissions, want) {
		t.Errorf("expected emissions %.6f, got %.6f", want, line.Emissions)
	}
}

func TestCalculatorFallsBackToDefaultSubtype(t *testing.T) {
	catalog := factors.NewDefaultCatalog(nil)
	calc := emissions.NewCalculator(catalog, nil)

	records := []rowmap.ActivityRecord{
		{Kind: rowmap.KindElectricity, Scope: ingestion.Scope2, Amount: 10, Unit: "kWh"},
	}

	lines, skipped := calc.Calculate(records)
	if skipped != 0 {
		t.Fatalf("expected 0 skipped, got %d", skipped)
	}
	if lines[0].Subtype != "global average" {
		t.Errorf("expected default subtype global average, got %q", lines[0].Subtype)
	}
}

func TestCatalogResolveUnknownKindFails(t *testing.T) {
	catalog := emissions.NewCatalog()
	if _, ok := catalog.Resolve(rowmap.KindFuel, "diesel"); ok {
		t.Error("expected resolve to fail on an empty catalog")
	}
}
