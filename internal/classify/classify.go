// Package classify implements the Column Classifier: it assigns every
// column of an InputTable a role drawn from the closed vocabulary in
// ingestion.Role, using name-pattern matching, content inference, and an
// optional LLM fallback, in that strict priority order.
package classify

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/emitcore/ghgcore/internal/ingestion"
)

// foldCaser performs locale-aware case folding for name-pattern matching.
// strings.ToLower is ASCII-correct but mishandles some non-ASCII header
// text (e.g. Turkish dotted/dotless I); cases.Fold is built for exactly
// this comparison use case.
var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(s)
}

// LLMFallback is the pluggable strategy behind classification step 3. It
// MUST return (nil, nil) — never an error — on any failure; callers treat a
// nil mapping as "fall through to the default unknown role" and never
// propagate the error to the rest of the pipeline (§4.2 failure model).
type LLMFallback interface {
	ClassifyColumn(ctx context.Context, name string, samples []string) (*ingestion.ColumnMapping, error)
}

// Options configures a single classification run.
type Options struct {
	// LLM is consulted for still-unclassified columns after steps 1-2, if
	// non-nil. A nil LLM simply skips step 3.
	LLM LLMFallback

	// Logger receives diagnostic messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Classify produces a ColumnMappingSet for every column in table. It never
// fails: a column that matches nothing becomes role=unknown, confidence=0.1.
func Classify(ctx context.Context, table ingestion.InputTable, opts Options) ingestion.ColumnMappingSet {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := make(ingestion.ColumnMappingSet, len(table.Columns))

	var needsLLM []string

	for _, col := range table.Columns {
		if m, ok := classifyByName(col); ok {
			result[col] = finalize(col, m)
			continue
		}

		samples := sampleValues(table, col, 3)
		if m, ok := classifyByContent(col, table, samples); ok {
			result[col] = finalize(col, m)
			continue
		}

		needsLLM = append(needsLLM, col)
	}

	for _, col := range needsLLM {
		if opts.LLM != nil {
			samples := sampleValues(table, col, 3)
			if m := tryLLM(ctx, opts.LLM, col, samples, logger); m != nil {
				result[col] = finalize(col, *m)
				continue
			}
		}

		result[col] = ingestion.ColumnMapping{
			Column:     col,
			Role:       ingestion.RoleUnknown,
			Confidence: 0.1,
		}
	}

	return result
}

// classifyByName implements step 1: case-insensitive keyword match against
// the column's own name. The first role in namePatterns table order with
// any hit wins.
func classifyByName(col string) (ingestion.ColumnMapping, bool) {
	folded := fold(col)

	for _, entry := range namePatterns {
		for _, kw := range entry.keywords {
			if strings.Contains(folded, fold(kw)) {
				m := ingestion.ColumnMapping{
					Column:     col,
					Role:       entry.role,
					Confidence: 0.8,
				}
				if entry.role == ingestion.RoleUnit {
					m.UnitHint = detectUnitInText(col)
				}
				return m, true
			}
		}
	}

	return ingestion.ColumnMapping{}, false
}

// classifyByContent implements step 2: content inference from the column's
// data, only reached when step 1 found no name match.
func classifyByContent(col string, table ingestion.InputTable, samples []string) (ingestion.ColumnMapping, bool) {
	allNumeric, anyNumeric, allInPercentRange := columnNumericProfile(table, col)

	if isDateColumn(samples) {
		return ingestion.ColumnMapping{Column: col, Role: ingestion.RoleDate, Confidence: 0.9}, true
	}

	if anyNumeric && allNumeric && allInPercentRange {
		return ingestion.ColumnMapping{Column: col, Role: ingestion.RoleAmount, UnitHint: "%", Confidence: 0.6}, true
	}

	if anyNumeric && allNumeric {
		return ingestion.ColumnMapping{
			Column:     col,
			Role:       ingestion.RoleAmount,
			UnitHint:   detectUnitInText(col + " " + strings.Join(samples, " ")),
			Confidence: 0.7,
		}, true
	}

	if scope, ok := scopeInSamples(samples); ok {
		return ingestion.ColumnMapping{Column: col, Role: ingestion.RoleCategory, ScopeHint: scope, Confidence: 0.8}, true
	}

	if unit := detectUnitInSamples(samples); unit != "" {
		return ingestion.ColumnMapping{Column: col, Role: ingestion.RoleUnit, UnitHint: unit, Confidence: 0.7}, true
	}

	if containsAny(samples, fuelTypeTokens) {
		return ingestion.ColumnMapping{Column: col, Role: ingestion.RoleFuel, ScopeHint: ingestion.Scope1, Confidence: 0.8}, true
	}

	return ingestion.ColumnMapping{}, false
}

// finalize applies the scope-assignment rule shared by every classification
// path: kind roles get their kind's default scope unless a more specific
// rule already set one.
func finalize(col string, m ingestion.ColumnMapping) ingestion.ColumnMapping {
	m.Column = col
	if m.Role.IsKindRole() && !m.ScopeHint.IsValid() {
		m.ScopeHint = ingestion.DefaultScopeForRole(m.Role)
	}
	return m
}

func tryLLM(ctx context.Context, llm LLMFallback, col string, samples []string, logger *slog.Logger) *ingestion.ColumnMapping {
	m, err := llm.ClassifyColumn(ctx, col, samples)
	if err != nil {
		logger.Debug("llm column classification failed, falling back to unknown",
			"column", col, "error", err)
		return nil
	}
	if m == nil || !m.Role.IsValid() {
		return nil
	}
	if m.Confidence <= 0 {
		m.Confidence = 0.5
	}
	return m
}

// =============================================================================
// Content Helpers
// =============================================================================

func sampleValues(table ingestion.InputTable, col string, limit int) []string {
	var out []string
	for _, row := range table.Rows {
		c := row.Get(col)
		if c.Null {
			continue
		}
		out = append(out, c.StringValue())
		if len(out) >= limit {
			break
		}
	}
	return out
}

// columnNumericProfile reports whether every non-null cell in col is
// numeric, whether any cell is non-null at all, and whether all numeric
// values fall in [0, 100] (the percent-range heuristic).
func columnNumericProfile(table ingestion.InputTable, col string) (allNumeric, anyNonNull, allInPercentRange bool) {
	allNumeric = true
	allInPercentRange = true

	for _, row := range table.Rows {
		c := row.Get(col)
		if c.Null {
			continue
		}
		anyNonNull = true

		if c.IsNum {
			if c.Number < 0 || c.Number > 100 {
				allInPercentRange = false
			}
			continue
		}

		if f, err := strconv.ParseFloat(strings.TrimSpace(c.String), 64); err == nil {
			if f < 0 || f > 100 {
				allInPercentRange = false
			}
			continue
		}

		allNumeric = false
		allInPercentRange = false
	}

	return allNumeric, anyNonNull, allInPercentRange
}

func isDateColumn(samples []string) bool {
	if len(samples) == 0 {
		return false
	}
	for _, s := range samples {
		if !looksLikeDate(s) {
			return false
		}
	}
	return true
}

func scopeInSamples(samples []string) (ingestion.Scope, bool) {
	for _, s := range samples {
		folded := fold(s)
		switch {
		case strings.Contains(folded, "scope 1"):
			return ingestion.Scope1, true
		case strings.Contains(folded, "scope 2"):
			return ingestion.Scope2, true
		case strings.Contains(folded, "scope 3"):
			return ingestion.Scope3, true
		}
	}
	return ingestion.ScopeUnset, false
}

func detectUnitInSamples(samples []string) string {
	for _, s := range samples {
		if u := detectUnitInText(s); u != "" {
			return u
		}
	}
	return ""
}

// detectUnitInText implements §4.2.1: match substrings against the
// canonical unit-token set, applied uniformly to column names and cell text.
func detectUnitInText(text string) string {
	folded := fold(text)
	for _, token := range unitTokens {
		if strings.Contains(folded, token) {
			return canonicalUnit[token]
		}
	}
	return ""
}

func containsAny(samples []string, tokens []string) bool {
	for _, s := range samples {
		folded := fold(s)
		for _, t := range tokens {
			if strings.Contains(folded, fold(t)) {
				return true
			}
		}
	}
	return false
}
