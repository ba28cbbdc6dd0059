package emissions_test

import (
	"errors"
	"testing"

	"github.com/emitcore/ghgcore/internal/emissions"
	"github.com/emitcore/ghgcore/internal/emissions/factors"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

func TestDefaultCatalogValidates(t *testing.T) {
	catalog := factors.NewDefaultCatalog(nil)
	if err := catalog.Validate(); err != nil {
		t.Fatalf("expected the default catalog to validate cleanly, got %v", err)
	}
}

func TestValidateReportsMissingDefaultSubtype(t *testing.T) {
	catalog := emissions.NewCatalog()
	catalog.Put(emissions.Factor{Kind: rowmap.KindFuel, Subtype: "diesel", Value: 2.68})
	catalog.SetDefault(rowmap.KindFuel, "petrol")

	err := catalog.Validate()
	if err == nil {
		t.Fatal("expected an error for a default subtype with no registered factor")
	}
	if !errors.Is(err, emissions.ErrFactorMissing) {
		t.Errorf("expected errors.Is to match ErrFactorMissing, got %v", err)
	}
}
