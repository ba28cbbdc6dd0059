// Package ingestion materializes a user-supplied spreadsheet into an
// InputTable: an ordered column list plus null-normalized rows. It also
// carries the ColumnMapping produced by the classifier, since both live on
// the same table for the lifetime of one ingestion.
package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrInputUnreadable is returned when no sheet in the source buffer
	// yields a non-empty table, after the reader's sheet-fallback cascade.
	ErrInputUnreadable = errors.New("ingestion: input unreadable")

	// ErrEmptyBuffer is returned when the caller supplies a zero-length buffer.
	ErrEmptyBuffer = errors.New("ingestion: empty input buffer")

	// ErrUnknownFormat names an unrecognized container format. Read does not
	// return it: DetectFormat treats any buffer without the XLSX signature as
	// CSV.
	ErrUnknownFormat = errors.New("ingestion: unrecognized spreadsheet format")
)

// =============================================================================
// Role Vocabulary
// =============================================================================

// Role is a column's inferred semantic purpose. The vocabulary is closed:
// classification never invents a role outside this set.
type Role string

const (
	RoleFuel        Role = "fuel"
	RoleElectricity Role = "electricity"
	RoleTransport   Role = "transport"
	RoleWaste       Role = "waste"
	RoleWater       Role = "water"
	RoleRefrigerant Role = "refrigerant"
	RoleAmount      Role = "amount"
	RoleUnit        Role = "unit"
	RoleDate        Role = "date"
	RoleCategory    Role = "category"
	RoleLocation    Role = "location"
	RoleNotes       Role = "notes"
	RoleIgnore      Role = "ignore"
	RoleUnknown     Role = "unknown"
)

// IsValid reports whether r is a member of the closed role vocabulary.
func (r Role) IsValid() bool {
	switch r {
	case RoleFuel, RoleElectricity, RoleTransport, RoleWaste, RoleWater, RoleRefrigerant,
		RoleAmount, RoleUnit, RoleDate, RoleCategory, RoleLocation, RoleNotes, RoleIgnore, RoleUnknown:
		return true
	default:
		return false
	}
}

// IsKindRole reports whether r is one of the six activity-kind roles that
// can directly select a row's canonical kind during row mapping.
func (r Role) IsKindRole() bool {
	switch r {
	case RoleFuel, RoleElectricity, RoleTransport, RoleWaste, RoleWater, RoleRefrigerant:
		return true
	default:
		return false
	}
}

// String returns the role's wire representation.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// Scope
// =============================================================================

// Scope is a GHG Protocol scope classification: 1 (direct), 2 (purchased
// energy), or 3 (value-chain). Zero is the unset/absent scope hint (⊥).
type Scope int

const (
	ScopeUnset Scope = 0
	Scope1     Scope = 1
	Scope2     Scope = 2
	Scope3     Scope = 3
)

// IsValid reports whether s is one of the three GHG Protocol scopes.
func (s Scope) IsValid() bool {
	return s == Scope1 || s == Scope2 || s == Scope3
}

// String renders the scope the way report consumers expect ("Scope 1", …).
func (s Scope) String() string {
	switch s {
	case Scope1:
		return "Scope 1"
	case Scope2:
		return "Scope 2"
	case Scope3:
		return "Scope 3"
	default:
		return "Scope ?"
	}
}

// DefaultScopeForRole returns the default GHG Protocol scope for one of the
// six activity-kind roles, or ScopeUnset if r is not a kind role.
func DefaultScopeForRole(r Role) Scope {
	switch r {
	case RoleFuel, RoleRefrigerant:
		return Scope1
	case RoleElectricity:
		return Scope2
	case RoleTransport, RoleWaste, RoleWater:
		return Scope3
	default:
		return ScopeUnset
	}
}

// =============================================================================
// InputTable
// =============================================================================

// Cell is a normalized spreadsheet value. Exactly one of the typed fields is
// meaningful; Null is true when the original cell was empty, whitespace-only,
// or a recognized NaN/blank marker.
type Cell struct {
	Null   bool
	String string
	Number float64
	IsNum  bool
}

// StringValue returns the cell's textual form regardless of underlying type,
// or "" for a null cell.
func (c Cell) StringValue() string {
	if c.Null {
		return ""
	}
	if c.IsNum {
		return fmt.Sprintf("%v", c.Number)
	}
	return c.String
}

// Row is one InputTable row: column name → normalized cell.
type Row map[string]Cell

// Get returns the cell for column name, or a null Cell if the column is
// absent from this row.
func (r Row) Get(name string) Cell {
	if c, ok := r[name]; ok {
		return c
	}
	return Cell{Null: true}
}

// InputTable is the Tabular Reader's output: an ordered column list and
// null-normalized rows. It is immutable once constructed.
type InputTable struct {
	// Columns preserves the original header order; all row mapping and
	// classification scans iterate in this order.
	Columns []string

	// Rows holds one entry per data row, in source order.
	Rows []Row

	// SheetName records which sheet the table was read from, for
	// diagnostics; empty for CSV input.
	SheetName string
}

// ColumnCount returns the number of columns in the table.
func (t InputTable) ColumnCount() int {
	return len(t.Columns)
}

// RowCount returns the number of data rows in the table.
func (t InputTable) RowCount() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has no data rows (header-only).
func (t InputTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// =============================================================================
// ColumnMapping
// =============================================================================

// ColumnMapping is the Column Classifier's verdict for a single column.
type ColumnMapping struct {
	Column     string
	Role       Role
	ScopeHint  Scope
	UnitHint   string
	Confidence float64
}

// HasScopeHint reports whether a non-⊥ scope hint is set.
func (m ColumnMapping) HasScopeHint() bool {
	return m.ScopeHint.IsValid()
}

// HasUnitHint reports whether a non-⊥ unit hint is set.
func (m ColumnMapping) HasUnitHint() bool {
	return m.UnitHint != ""
}

// String renders the mapping for logs and diagnostics.
func (m ColumnMapping) String() string {
	return fmt.Sprintf("ColumnMapping{column=%q, role=%s, scope=%s, unit=%q, confidence=%.2f}",
		m.Column, m.Role, m.ScopeHint, m.UnitHint, m.Confidence)
}

// ColumnMappingSet is the full {column → ColumnMapping} produced by the
// classifier for one InputTable.
type ColumnMappingSet map[string]ColumnMapping

// UnrecognizedColumns returns the columns classified as unknown or ignore,
// in table order, for use in ingestion diagnostics.
func (s ColumnMappingSet) UnrecognizedColumns(columns []string) []string {
	var out []string
	for _, col := range columns {
		m, ok := s[col]
		if !ok {
			continue
		}
		if m.Role == RoleUnknown || m.Role == RoleIgnore {
			out = append(out, col)
		}
	}
	return out
}

// HasAmountColumn reports whether any column was classified as role=amount.
func (s ColumnMappingSet) HasAmountColumn() bool {
	for _, m := range s {
		if m.Role == RoleAmount {
			return true
		}
	}
	return false
}

// normalizeHeader strips surrounding whitespace from a raw header string.
// Unlike role classification (which needs locale-aware case folding), this
// is a structural normalization applied once at read time and is case
// preserving.
func normalizeHeader(raw string) string {
	return strings.TrimSpace(raw)
}
