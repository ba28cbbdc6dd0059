package emissions

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/emitcore/ghgcore/internal/rowmap"
)

// Calculator turns mapped activity records into EmissionLines using a
// Catalog for factor resolution.
type Calculator struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewCalculator builds a Calculator over catalog. A nil logger defaults to
// slog.Default().
func NewCalculator(catalog Catalog, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{catalog: catalog, logger: logger}
}

// Calculate computes one EmissionLine per record, in input order. The
// calculator never fails a record outright: a record whose kind has no
// catalog entry at all is skipped (and counted in skipped), matching the
// specification's "calculation never aborts the run" rule; every other
// record produces a line even when no subtype keyword is found, by falling
// back to the kind's default subtype.
func (calc *Calculator) Calculate(records []rowmap.ActivityRecord) (lines []EmissionLine, skipped int) {
	for _, rec := range records {
		line, ok := calc.calculateOne(rec)
		if !ok {
			skipped++
			continue
		}
		lines = append(lines, line)
	}
	return lines, skipped
}

func (calc *Calculator) calculateOne(rec rowmap.ActivityRecord) (EmissionLine, bool) {
	factor, ok := calc.catalog.Resolve(rec.Kind, contextText(rec))
	if !ok {
		calc.logger.Warn("no emission factor registered for kind, dropping record",
			"kind", rec.Kind)
		return EmissionLine{}, false
	}

	var result float64
	if factor.IsGWP {
		// Refrigerant lines: amount is kg of substance; result is the
		// tonnes-scale CO2e figure, stored unconverted.
		result = rec.Amount * factor.Value / 1000
	} else {
		result = rec.Amount * factor.Value
	}

	return EmissionLine{
		ID:          uuid.NewString(),
		Scope:       rec.Scope,
		Kind:        rec.Kind,
		Subtype:     factor.Subtype,
		Amount:      rec.Amount,
		Unit:        rec.Unit,
		FactorValue: factor.Value,
		IsGWPFactor: factor.IsGWP,
		Emissions:   result,
		Trace:       trace(rec, factor, result),
	}, true
}

// contextText assembles the free text the Catalog scans for a subtype
// keyword: the row's category text plus every context column value, so a
// subtype name can appear anywhere a human labeled the activity.
func contextText(rec rowmap.ActivityRecord) string {
	var b strings.Builder
	b.WriteString(rec.Category)
	for _, v := range rec.Context {
		b.WriteByte(' ')
		b.WriteString(v)
	}
	return b.String()
}

func trace(rec rowmap.ActivityRecord, f Factor, result float64) string {
	if f.IsGWP {
		return fmt.Sprintf("%.4f kg %s/%s @ GWP=%.0f / 1000 = %.6f",
			rec.Amount, rec.Kind, f.Subtype, f.Value, result)
	}
	return fmt.Sprintf("%.4f %s %s/%s @ %.4f = %.4f",
		rec.Amount, rec.Unit, rec.Kind, f.Subtype, f.Value, result)
}
