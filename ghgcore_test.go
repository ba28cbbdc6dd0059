package ghgcore_test

import (
	"context"
	"testing"

	"github.com/emitcore/ghgcore"
	"github.com/emitcore/ghgcore/internal/ingestion"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

func almostEqual(a, b float64) bool {
	const eps = 1e-6
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func ingest(t *testing.T, csv string) ghgcore.Report {
	t.Helper()
	report, err := ghgcore.Ingest(context.Background(), []byte(csv), ghgcore.Options{})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return report
}

// S1: single electricity row with no region hint resolves to the global
// average factor.
func TestIngestSingleElectricityRow(t *testing.T) {
	csv := "Category,Amount,Unit,Scope,Location\n" +
		"Electricity,10500,kWh,Scope 2,Main Office\n"

	report := ingest(t, csv)

	if len(report.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(report.Lines))
	}
	line := report.Lines[0]
	if line.Kind != rowmap.KindElectricity {
		t.Errorf("expected kind electricity, got %s", line.Kind)
	}
	if line.Scope != ingestion.Scope2 {
		t.Errorf("expected scope 2, got %s", line.Scope)
	}
	if line.Subtype != "global average" {
		t.Errorf("expected subtype global average, got %q", line.Subtype)
	}
	if !almostEqual(line.FactorValue, 0.48) {
		t.Errorf("expected factor 0.48, got %v", line.FactorValue)
	}
	if !almostEqual(line.Emissions, 5040.0) {
		t.Errorf("expected emissions 5040.0, got %v", line.Emissions)
	}
	if !almostEqual(report.TotalsByScope[ingestion.Scope2], 5040.0) {
		t.Errorf("expected by_scope[2]=5040.0, got %v", report.TotalsByScope[ingestion.Scope2])
	}
	if !almostEqual(report.GrandTotal, 5040.0) {
		t.Errorf("expected grand total 5040.0, got %v", report.GrandTotal)
	}
}

// S2: diesel fleet fuel.
func TestIngestDieselFleet(t *testing.T) {
	csv := "Category,Amount,Unit,Scope\n" +
		"Diesel Fuel,450,liters,Scope 1\n"

	report := ingest(t, csv)

	if len(report.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(report.Lines))
	}
	line := report.Lines[0]
	if line.Kind != rowmap.KindFuel {
		t.Errorf("expected kind fuel, got %s", line.Kind)
	}
	if line.Subtype != "diesel" {
		t.Errorf("expected subtype diesel, got %q", line.Subtype)
	}
	if !almostEqual(line.FactorValue, 2.68) {
		t.Errorf("expected factor 2.68, got %v", line.FactorValue)
	}
	if !almostEqual(line.Emissions, 1206.0) {
		t.Errorf("expected emissions 1206.0, got %v", line.Emissions)
	}
	if line.Scope != ingestion.Scope1 {
		t.Errorf("expected scope 1, got %s", line.Scope)
	}
}

// S3: a flight whose category text names a haul length in parentheses.
func TestIngestFlightLongHaul(t *testing.T) {
	csv := "Category,Amount,Unit,Scope\n" +
		"Business Flight (Long-haul International),3500,km,Scope 3\n"

	report := ingest(t, csv)

	if len(report.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(report.Lines))
	}
	line := report.Lines[0]
	if line.Kind != rowmap.KindTransport {
		t.Errorf("expected kind transport, got %s", line.Kind)
	}
	if line.Subtype != "flight long-haul" {
		t.Errorf("expected subtype flight long-haul, got %q", line.Subtype)
	}
	if !almostEqual(line.FactorValue, 0.15) {
		t.Errorf("expected factor 0.15, got %v", line.FactorValue)
	}
	if !almostEqual(line.Emissions, 525.0) {
		t.Errorf("expected emissions 525.0, got %v", line.Emissions)
	}
	if line.Scope != ingestion.Scope3 {
		t.Errorf("expected scope 3, got %s", line.Scope)
	}
}

// S4: a refrigerant leak uses the GWP/1000 tonnes-scale formula.
func TestIngestRefrigerantLeak(t *testing.T) {
	csv := "Category,Amount,Unit,Scope\n" +
		"Refrigerant R-410A,2.5,kg,Scope 1\n"

	report := ingest(t, csv)

	if len(report.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(report.Lines))
	}
	line := report.Lines[0]
	if line.Kind != rowmap.KindRefrigerant {
		t.Errorf("expected kind refrigerant, got %s", line.Kind)
	}
	if line.Subtype != "r-410a" {
		t.Errorf("expected subtype r-410a, got %q", line.Subtype)
	}
	if !line.IsGWPFactor {
		t.Error("expected a GWP-style factor")
	}
	if !almostEqual(line.FactorValue, 2088) {
		t.Errorf("expected gwp 2088, got %v", line.FactorValue)
	}
	if !almostEqual(line.Emissions, 5.22) {
		t.Errorf("expected emissions 5.22, got %v", line.Emissions)
	}
	if line.Scope != ingestion.Scope1 {
		t.Errorf("expected scope 1, got %s", line.Scope)
	}
}

// Boundary case: 1 kg of R-134a produces approximately 1.43 tonnes CO2e.
func TestIngestRefrigerantBoundaryCase(t *testing.T) {
	csv := "Category,Amount,Unit,Scope\n" +
		"Refrigerant R-134a,1,kg,Scope 1\n"

	report := ingest(t, csv)

	if len(report.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(report.Lines))
	}
	if !almostEqual(report.Lines[0].Emissions, 1.43) {
		t.Errorf("expected emissions ~1.43, got %v", report.Lines[0].Emissions)
	}
}

// S5: a mixed workbook spanning all six kinds and all three scopes.
func TestIngestMixedWorkbook(t *testing.T) {
	csv := "Category,Amount,Unit,Scope\n" +
		"Electricity,1000,kWh,Scope 2\n" +
		"Diesel Fuel,200,liters,Scope 1\n" +
		"Natural Gas,300,m3,Scope 1\n" +
		"Company Car Travel,50,km,Scope 3\n" +
		"Refrigerant R-404A,0.8,kg,Scope 1\n" +
		"Business Flight (Medium-haul),900,km,Scope 3\n" +
		"Landfill Mixed Waste,120,kg,Scope 3\n" +
		"Recycled Paper,60,kg,Scope 3\n" +
		"Water Supply,500,m3,Scope 1\n"

	report := ingest(t, csv)

	if len(report.Lines) != 9 {
		t.Fatalf("expected 9 lines, got %d", len(report.Lines))
	}

	for _, scope := range []ingestion.Scope{ingestion.Scope1, ingestion.Scope2, ingestion.Scope3} {
		if report.TotalsByScope[scope] <= 0 {
			t.Errorf("expected a positive total for %s, got %v", scope, report.TotalsByScope[scope])
		}
	}

	var sum float64
	for _, line := range report.Lines {
		sum += line.Emissions
	}
	if !almostEqual(sum, report.GrandTotal) {
		t.Errorf("expected grand total %v to equal sum of lines %v", report.GrandTotal, sum)
	}
}

// S6: a header-only sheet produces a valid, empty report rather than an
// error.
func TestIngestHeaderOnlySheetIsEmptyReport(t *testing.T) {
	csv := "Category,Amount,Unit,Scope\n"

	report := ingest(t, csv)

	if len(report.Lines) != 0 {
		t.Fatalf("expected 0 lines, got %d", len(report.Lines))
	}
	if report.Lines == nil {
		t.Error("expected an empty (non-nil) line slice")
	}
	if report.GrandTotal != 0 {
		t.Errorf("expected grand total 0, got %v", report.GrandTotal)
	}
	for _, scope := range []ingestion.Scope{ingestion.Scope1, ingestion.Scope2, ingestion.Scope3} {
		if report.TotalsByScope[scope] != 0 {
			t.Errorf("expected zero total for %s, got %v", scope, report.TotalsByScope[scope])
		}
	}
}

func TestIngestEmptyBufferFails(t *testing.T) {
	if _, err := ghgcore.Ingest(context.Background(), nil, ghgcore.Options{}); err == nil {
		t.Fatal("expected an error for a completely empty buffer")
	}
}
