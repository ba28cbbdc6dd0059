package ingestion_test

import (
	"strings"
	"testing"

	"github.com/emitcore/ghgcore/internal/ingestion"
)

func TestReadCSVBasic(t *testing.T) {
	csv := "Date,Fuel Type,Litres,Notes\n" +
		"2024-01-15,Diesel,120.5,site A\n" +
		",,,\n" +
		"2024-02-10,Petrol,80,site B\n"

	table, err := ingestion.Read([]byte(csv), ingestion.ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if table.ColumnCount() != 4 {
		t.Fatalf("expected 4 columns, got %d", table.ColumnCount())
	}
	if table.RowCount() != 2 {
		t.Fatalf("expected blank row dropped, 2 data rows, got %d", table.RowCount())
	}

	first := table.Rows[0]
	if first.Get("Fuel Type").String != "Diesel" {
		t.Errorf("expected Diesel, got %q", first.Get("Fuel Type").String)
	}
	litres := first.Get("Litres")
	if !litres.IsNum || litres.Number != 120.5 {
		t.Errorf("expected numeric 120.5, got %+v", litres)
	}
}

func TestReadSemicolonDelimited(t *testing.T) {
	csv := "Date;Amount;Unit\n2024-01-01;10;kWh\n"

	table, err := ingestion.Read([]byte(csv), ingestion.ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if table.ColumnCount() != 3 {
		t.Fatalf("expected semicolon-delimited columns to split, got %d", table.ColumnCount())
	}
}

func TestReadEmptyBufferFails(t *testing.T) {
	_, err := ingestion.Read(nil, ingestion.ReadOptions{})
	if err == nil {
		t.Fatal("expected an error for an empty buffer")
	}
}

func TestReadNullMarkersNormalized(t *testing.T) {
	csv := "A,B\nN/A,5\n-,6\n"
	table, err := ingestion.Read([]byte(csv), ingestion.ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !table.Rows[0].Get("A").Null {
		t.Error("expected N/A to normalize to a null cell")
	}
	if !table.Rows[1].Get("A").Null {
		t.Error("expected '-' to normalize to a null cell")
	}
}

func TestDetectFormatCSVFallback(t *testing.T) {
	if got := ingestion.DetectFormat([]byte("a,b,c\n1,2,3")); got != ingestion.FormatCSV {
		t.Errorf("expected csv format, got %s", got)
	}
}

func TestReadHeaderOnlyTableIsEmpty(t *testing.T) {
	table, err := ingestion.Read([]byte("A,B,C\n"), ingestion.ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !table.IsEmpty() {
		t.Error("expected a header-only table to report empty")
	}
}

func TestReadTrimsWhitespaceInHeaders(t *testing.T) {
	table, err := ingestion.Read([]byte(" Date , Amount \n2024-01-01,5\n"), ingestion.ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for _, c := range table.Columns {
		if strings.TrimSpace(c) != c {
			t.Errorf("expected trimmed header, got %q", c)
		}
	}
}
