package rowmap_test

import (
	"testing"

	"github.com/emitcore/ghgcore/internal/ingestion"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

func numCell(v float64) ingestion.Cell { return ingestion.Cell{IsNum: true, Number: v} }
func strCell(v string) ingestion.Cell  { return ingestion.Cell{String: v} }

func TestMapSelectsKindFromColumnRole(t *testing.T) {
	table := ingestion.InputTable{
		Columns: []string{"Diesel Litres", "Notes"},
		Rows: []ingestion.Row{
			{"Diesel Litres": numCell(120), "Notes": strCell("site A")},
		},
	}
	mappings := ingestion.ColumnMappingSet{
		"Diesel Litres": {Column: "Diesel Litres", Role: ingestion.RoleFuel},
		"Notes":         {Column: "Notes", Role: ingestion.RoleNotes},
	}

	records, dropped := rowmap.Map(table, mappings)
	if dropped != 0 {
		t.Fatalf("expected 0 dropped, got %d", dropped)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Kind != rowmap.KindFuel {
		t.Errorf("expected kind fuel, got %s", rec.Kind)
	}
	if rec.Amount != 120 {
		t.Errorf("expected amount 120, got %v", rec.Amount)
	}
	if rec.Scope != ingestion.Scope1 {
		t.Errorf("expected default scope1 for fuel, got %s", rec.Scope)
	}
}

func TestMapDropsRowWithNoAmount(t *testing.T) {
	table := ingestion.InputTable{
		Columns: []string{"Fuel Type"},
		Rows: []ingestion.Row{
			{"Fuel Type": strCell("diesel")},
		},
	}
	mappings := ingestion.ColumnMappingSet{
		"Fuel Type": {Column: "Fuel Type", Role: ingestion.RoleFuel},
	}

	records, dropped := rowmap.Map(table, mappings)
	if dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", dropped)
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}
}

func TestMapCategoryKeywordFallback(t *testing.T) {
	table := ingestion.InputTable{
		Columns: []string{"Amount", "Category"},
		Rows: []ingestion.Row{
			{"Amount": numCell(50), "Category": strCell("Electricity purchase")},
		},
	}
	mappings := ingestion.ColumnMappingSet{
		"Amount":   {Column: "Amount", Role: ingestion.RoleAmount},
		"Category": {Column: "Category", Role: ingestion.RoleCategory},
	}

	records, dropped := rowmap.Map(table, mappings)
	if dropped != 0 {
		t.Fatalf("expected 0 dropped, got %d", dropped)
	}
	if records[0].Kind != rowmap.KindElectricity {
		t.Errorf("expected kind electricity from category keyword, got %s", records[0].Kind)
	}
}

func TestResolveScopeCategoryTextOverridesColumnHint(t *testing.T) {
	table := ingestion.InputTable{
		Columns: []string{"Amount", "Category"},
		Rows: []ingestion.Row{
			{"Amount": numCell(10), "Category": strCell("waste disposal, scope 2")},
		},
	}
	mappings := ingestion.ColumnMappingSet{
		"Amount":   {Column: "Amount", Role: ingestion.RoleAmount},
		"Category": {Column: "Category", Role: ingestion.RoleCategory, ScopeHint: ingestion.Scope1},
	}

	records, _ := rowmap.Map(table, mappings)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Scope != ingestion.Scope2 {
		t.Errorf("expected category text 'scope 2' to win, got %s", records[0].Scope)
	}
}

func TestMapBuildsContextBagExcludingIgnoredColumns(t *testing.T) {
	table := ingestion.InputTable{
		Columns: []string{"Amount", "Internal ID", "Fuel"},
		Rows: []ingestion.Row{
			{"Amount": numCell(10), "Internal ID": strCell("XYZ-1"), "Fuel": strCell("diesel")},
		},
	}
	mappings := ingestion.ColumnMappingSet{
		"Amount":      {Column: "Amount", Role: ingestion.RoleAmount},
		"Internal ID": {Column: "Internal ID", Role: ingestion.RoleIgnore},
		"Fuel":        {Column: "Fuel", Role: ingestion.RoleFuel},
	}

	records, _ := rowmap.Map(table, mappings)
	if _, ok := records[0].Context["Internal ID"]; ok {
		t.Error("expected ignored column excluded from context bag")
	}
	if _, ok := records[0].Context["Fuel"]; !ok {
		t.Error("expected fuel column included in context bag")
	}
}
