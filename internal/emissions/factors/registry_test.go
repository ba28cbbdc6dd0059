package factors_test

import (
	"testing"

	"github.com/emitcore/ghgcore/internal/emissions/factors"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

func TestDefaultCatalogResolvesByPlainTextKeyword(t *testing.T) {
	catalog := factors.NewDefaultCatalog(nil)

	f, ok := catalog.Resolve(rowmap.KindTransport, "business flight (long-haul international) scope 3")
	if !ok {
		t.Fatal("expected a resolved factor")
	}
	if f.Subtype != "flight long-haul" {
		t.Errorf("expected subtype flight long-haul, got %q", f.Subtype)
	}
	if f.Value != 0.15 {
		t.Errorf("expected factor 0.15, got %v", f.Value)
	}
}

func TestDefaultCatalogFallsBackToKindDefault(t *testing.T) {
	catalog := factors.NewDefaultCatalog(nil)

	f, ok := catalog.Resolve(rowmap.KindElectricity, "office power usage")
	if !ok {
		t.Fatal("expected a resolved factor")
	}
	if f.Subtype != "global average" {
		t.Errorf("expected default subtype global average, got %q", f.Subtype)
	}
}

func TestDefaultCatalogRefrigerantFactorsAreGWP(t *testing.T) {
	catalog := factors.NewDefaultCatalog(nil)

	f, ok := catalog.Resolve(rowmap.KindRefrigerant, "refrigerant r-410a leak")
	if !ok {
		t.Fatal("expected a resolved factor")
	}
	if !f.IsGWP {
		t.Error("expected refrigerant factors to be GWP-marked")
	}
	if f.Value != 2088 {
		t.Errorf("expected gwp 2088, got %v", f.Value)
	}
}
