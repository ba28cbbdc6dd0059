package classify_test

import (
	"context"
	"testing"

	"github.com/emitcore/ghgcore/internal/classify"
	"github.com/emitcore/ghgcore/internal/ingestion"
)

func tableWith(columns []string, rows ...ingestion.Row) ingestion.InputTable {
	return ingestion.InputTable{Columns: columns, Rows: rows}
}

func cell(s string) ingestion.Cell  { return ingestion.Cell{String: s} }
func numCell(n float64) ingestion.Cell { return ingestion.Cell{IsNum: true, Number: n} }

func TestClassifyByNamePattern(t *testing.T) {
	table := tableWith([]string{"Diesel Litres"},
		ingestion.Row{"Diesel Litres": numCell(100)},
	)

	result := classify.Classify(context.Background(), table, classify.Options{})
	m := result["Diesel Litres"]
	if m.Role != ingestion.RoleFuel {
		t.Errorf("expected role fuel, got %s", m.Role)
	}
	if m.ScopeHint != ingestion.Scope1 {
		t.Errorf("expected default scope1 for fuel, got %s", m.ScopeHint)
	}
}

func TestClassifyDateColumnByContent(t *testing.T) {
	table := tableWith([]string{"When"},
		ingestion.Row{"When": cell("2024-01-15")},
		ingestion.Row{"When": cell("2024-02-10")},
	)

	result := classify.Classify(context.Background(), table, classify.Options{})
	if result["When"].Role != ingestion.RoleDate {
		t.Errorf("expected role date, got %s", result["When"].Role)
	}
}

func TestClassifyNumericColumnAsAmount(t *testing.T) {
	table := tableWith([]string{"Qty Used"},
		ingestion.Row{"Qty Used": numCell(42)},
		ingestion.Row{"Qty Used": numCell(17)},
	)

	result := classify.Classify(context.Background(), table, classify.Options{})
	if result["Qty Used"].Role != ingestion.RoleAmount {
		t.Errorf("expected role amount, got %s", result["Qty Used"].Role)
	}
}

func TestClassifyUnknownColumnWithoutLLM(t *testing.T) {
	table := tableWith([]string{"Xyzzy"},
		ingestion.Row{"Xyzzy": cell("plugh")},
	)

	result := classify.Classify(context.Background(), table, classify.Options{})
	m := result["Xyzzy"]
	if m.Role != ingestion.RoleUnknown {
		t.Errorf("expected role unknown, got %s", m.Role)
	}
	if m.Confidence != 0.1 {
		t.Errorf("expected low confidence default, got %v", m.Confidence)
	}
}

type stubLLM struct {
	mapping *ingestion.ColumnMapping
	called  bool
}

func (s *stubLLM) ClassifyColumn(ctx context.Context, name string, samples []string) (*ingestion.ColumnMapping, error) {
	s.called = true
	return s.mapping, nil
}

func TestClassifyFallsThroughToLLM(t *testing.T) {
	table := tableWith([]string{"Xyzzy"},
		ingestion.Row{"Xyzzy": cell("plugh")},
	)
	llm := &stubLLM{mapping: &ingestion.ColumnMapping{Role: ingestion.RoleNotes, Confidence: 0.9}}

	result := classify.Classify(context.Background(), table, classify.Options{LLM: llm})
	if !llm.called {
		t.Fatal("expected LLM fallback to be consulted")
	}
	if result["Xyzzy"].Role != ingestion.RoleNotes {
		t.Errorf("expected role notes from LLM, got %s", result["Xyzzy"].Role)
	}
}

func TestClassifyLLMNilResultFallsBackToUnknown(t *testing.T) {
	table := tableWith([]string{"Xyzzy"},
		ingestion.Row{"Xyzzy": cell("plugh")},
	)
	llm := &stubLLM{mapping: nil}

	result := classify.Classify(context.Background(), table, classify.Options{LLM: llm})
	if result["Xyzzy"].Role != ingestion.RoleUnknown {
		t.Errorf("expected role unknown when LLM returns nil, got %s", result["Xyzzy"].Role)
	}
}
