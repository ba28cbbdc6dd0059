package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx"
)

// =============================================================================
// Format Detection
// =============================================================================

// Format identifies a spreadsheet container format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// xlsxSignature is the ZIP local-file-header magic that every .xlsx file
// begins with (it is a ZIP container).
var xlsxSignature = []byte{0x50, 0x4B, 0x03, 0x04}

// DetectFormat sniffs the container format from the buffer's byte signature.
// Anything that is not a recognized ZIP/XLSX container is treated as CSV;
// §4.1 of the ingestion contract only distinguishes these two shapes.
func DetectFormat(buf []byte) Format {
	if bytes.HasPrefix(buf, xlsxSignature) {
		return FormatXLSX
	}
	return FormatCSV
}

// =============================================================================
// Reader Options
// =============================================================================

// ReadOptions configures a single Read call.
type ReadOptions struct {
	// SheetHint names a preferred sheet for XLSX input. Ignored for CSV.
	// If empty, or if the named sheet is missing/empty, the reader falls
	// back per the cascade documented on Read.
	SheetHint string
}

// =============================================================================
// Reader
// =============================================================================

// Read converts a spreadsheet byte buffer into an InputTable.
//
// Sheet fallback cascade for XLSX input: the sheet named by SheetHint (if
// any) → the workbook's first sheet → the first sheet with at least one data
// row. If no candidate has a data row, the first sheet with a header row is
// returned as an empty table. CSV input has no sheet concept and is read
// directly. If no candidate sheet has a header row, Read returns
// ErrInputUnreadable.
func Read(buf []byte, opts ReadOptions) (InputTable, error) {
	if len(buf) == 0 {
		return InputTable{}, ErrEmptyBuffer
	}

	switch DetectFormat(buf) {
	case FormatXLSX:
		return readXLSX(buf, opts)
	default:
		return readCSV(buf)
	}
}

// =============================================================================
// CSV
// =============================================================================

func readCSV(buf []byte) (InputTable, error) {
	delim := sniffDelimiter(buf)

	r := csv.NewReader(bytes.NewReader(buf))
	r.Comma = delim
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return InputTable{}, fmt.Errorf("ingestion: csv has no header row: %w", ErrInputUnreadable)
		}
		return InputTable{}, fmt.Errorf("ingestion: reading csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = normalizeHeader(h)
	}

	table := InputTable{Columns: columns}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if isBlankRecord(record) {
			continue
		}
		table.Rows = append(table.Rows, rowFromRecord(columns, record))
	}

	if table.ColumnCount() == 0 {
		return InputTable{}, ErrInputUnreadable
	}

	return table, nil
}

// sniffDelimiter counts comma, semicolon, and tab occurrences in the first
// line and picks whichever is most frequent, defaulting to comma.
func sniffDelimiter(buf []byte) rune {
	firstLine := buf
	if idx := bytes.IndexByte(buf, '\n'); idx >= 0 {
		firstLine = buf[:idx]
	}

	counts := map[rune]int{
		',':  bytes.Count(firstLine, []byte{','}),
		';':  bytes.Count(firstLine, []byte{';'}),
		'\t': bytes.Count(firstLine, []byte{'\t'}),
	}

	best, bestCount := ',', counts[',']
	for d, c := range counts {
		if c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func rowFromRecord(columns []string, record []string) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		var raw string
		if i < len(record) {
			raw = record[i]
		}
		row[col] = normalizeCell(raw)
	}
	return row
}

// =============================================================================
// XLSX
// =============================================================================

func readXLSX(buf []byte, opts ReadOptions) (InputTable, error) {
	file, err := xlsx.OpenBinary(buf)
	if err != nil {
		return InputTable{}, fmt.Errorf("ingestion: opening xlsx: %w: %v", ErrInputUnreadable, err)
	}

	if len(file.Sheets) == 0 {
		return InputTable{}, ErrInputUnreadable
	}

	var headerOnly *InputTable
	for _, sheet := range candidateSheets(file, opts.SheetHint) {
		table, ok := tableFromSheet(sheet)
		if !ok {
			continue
		}
		if len(table.Rows) > 0 {
			return table, nil
		}
		if headerOnly == nil {
			headerOnly = &table
		}
	}

	if headerOnly != nil {
		return *headerOnly, nil
	}
	return InputTable{}, ErrInputUnreadable
}

// candidateSheets orders sheets per the fallback cascade: hinted sheet
// first (if present), then every remaining sheet in workbook order so the
// caller can fall through to "first non-empty sheet".
func candidateSheets(file *xlsx.File, hint string) []*xlsx.Sheet {
	var ordered []*xlsx.Sheet

	if hint != "" {
		for _, s := range file.Sheets {
			if strings.EqualFold(s.Name, hint) {
				ordered = append(ordered, s)
				break
			}
		}
	}

	for _, s := range file.Sheets {
		if hint != "" && strings.EqualFold(s.Name, hint) {
			continue
		}
		ordered = append(ordered, s)
	}

	return ordered
}

// tableFromSheet materializes one xlsx.Sheet into an InputTable. It reports
// ok=false for a sheet with no header row, so the caller can fall through to
// the next candidate; a header-only sheet yields ok=true with no rows.
func tableFromSheet(sheet *xlsx.Sheet) (InputTable, bool) {
	if len(sheet.Rows) == 0 {
		return InputTable{}, false
	}

	headerRow := sheet.Rows[0]
	columns := make([]string, len(headerRow.Cells))
	for i, c := range headerRow.Cells {
		columns[i] = normalizeHeader(c.Value)
	}
	if len(columns) == 0 {
		return InputTable{}, false
	}

	table := InputTable{Columns: columns, SheetName: sheet.Name}

	for _, xr := range sheet.Rows[1:] {
		if isBlankXLSXRow(xr) {
			continue
		}
		table.Rows = append(table.Rows, rowFromXLSX(columns, xr))
	}

	return table, true
}

func isBlankXLSXRow(r *xlsx.Row) bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c.Value) != "" {
			return false
		}
	}
	return true
}

func rowFromXLSX(columns []string, xr *xlsx.Row) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		if i >= len(xr.Cells) {
			row[col] = Cell{Null: true}
			continue
		}
		row[col] = cellFromXLSX(xr.Cells[i])
	}
	return row
}

func cellFromXLSX(c *xlsx.Cell) Cell {
	raw := strings.TrimSpace(c.Value)
	if raw == "" {
		return Cell{Null: true}
	}

	if f, err := c.Float(); err == nil {
		return Cell{Number: f, IsNum: true}
	}

	if t, err := c.GetTime(false); err == nil && !t.IsZero() {
		return Cell{String: t.Format(time.RFC3339)}
	}

	return normalizeCell(raw)
}

// =============================================================================
// Cell Normalization
// =============================================================================

// nullMarkers are string values treated as an empty cell regardless of
// surrounding whitespace.
var nullMarkers = map[string]bool{
	"":    true,
	"n/a": true,
	"na":  true,
	"nan": true,
	"nil": true,
	"null": true,
	"-":   true,
}

// normalizeCell coerces a raw CSV field into a Cell, preserving numeric
// typing where the text is unambiguously numeric.
func normalizeCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if nullMarkers[strings.ToLower(trimmed)] {
		return Cell{Null: true}
	}

	if f, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err == nil {
		return Cell{Number: f, IsNum: true}
	}

	return Cell{String: trimmed}
}
