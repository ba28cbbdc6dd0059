// Package rowmap implements the Row Mapper: it projects each InputTable row
// onto zero or one ActivityRecord, resolving amount, unit, category text,
// kind, and scope per the precedence rules in the specification.
package rowmap

import (
	"strconv"
	"strings"

	"github.com/emitcore/ghgcore/internal/ingestion"
)

// Kind is a canonical GHG activity kind.
type Kind string

const (
	KindFuel        Kind = "fuel"
	KindElectricity Kind = "electricity"
	KindTransport   Kind = "transport"
	KindWaste       Kind = "waste"
	KindWater       Kind = "water"
	KindRefrigerant Kind = "refrigerant"
)

// IsValid reports whether k is one of the six canonical activity kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindFuel, KindElectricity, KindTransport, KindWaste, KindWater, KindRefrigerant:
		return true
	default:
		return false
	}
}

func kindFromRole(r ingestion.Role) (Kind, bool) {
	switch r {
	case ingestion.RoleFuel:
		return KindFuel, true
	case ingestion.RoleElectricity:
		return KindElectricity, true
	case ingestion.RoleTransport:
		return KindTransport, true
	case ingestion.RoleWaste:
		return KindWaste, true
	case ingestion.RoleWater:
		return KindWater, true
	case ingestion.RoleRefrigerant:
		return KindRefrigerant, true
	default:
		return "", false
	}
}

// categoryKeywords implements §4.3 step 4(b): the category-text keyword
// fallback used only when no column directly carries a kind role for the
// row. Entries are tried in order; the first keyword hit wins.
var categoryKeywords = []struct {
	kind     Kind
	keywords []string
}{
	{KindFuel, []string{"fuel", "diesel", "gasoline", "petrol", "gas", "lpg", "propane", "biodiesel"}},
	{KindRefrigerant, []string{"refrigerant", "coolant", "r-"}},
	{KindElectricity, []string{"electric", "power", "energy"}},
	{KindTransport, []string{"transport", "travel", "vehicle", "flight"}},
	{KindWaste, []string{"waste", "landfill", "recycl"}},
	{KindWater, []string{"water"}},
}

// ActivityRecord is the canonical, kind-tagged view of one input row after
// mapping, ready for the Emissions Calculator.
type ActivityRecord struct {
	Kind     Kind
	Scope    ingestion.Scope
	Amount   float64
	Unit     string
	Category string

	// Row is the original row, retained for traceability.
	Row ingestion.Row

	// Context is every non-ignore/unknown column's non-null value for this
	// row, keyed by column name; the Emissions Calculator scans it for
	// subtype keywords.
	Context map[string]string
}

// Map projects every row of table onto zero or one ActivityRecord, in input
// row order. Row drops (header artifacts, blank rows, unmappable amount or
// kind) are silent and are reported only via droppedCount.
func Map(table ingestion.InputTable, mappings ingestion.ColumnMappingSet) (records []ActivityRecord, droppedCount int) {
	amountCols := columnsWithRole(table.Columns, mappings, ingestion.RoleAmount)
	unitCols := columnsWithRole(table.Columns, mappings, ingestion.RoleUnit)
	categoryCols := columnsWithRole(table.Columns, mappings, ingestion.RoleCategory)

	for _, row := range table.Rows {
		rec, ok := mapRow(row, table.Columns, mappings, amountCols, unitCols, categoryCols)
		if !ok {
			droppedCount++
			continue
		}
		records = append(records, rec)
	}

	return records, droppedCount
}

func mapRow(
	row ingestion.Row,
	columns []string,
	mappings ingestion.ColumnMappingSet,
	amountCols, unitCols, categoryCols []string,
) (ActivityRecord, bool) {
	amount, ok := selectAmount(row, amountCols)
	if !ok {
		return ActivityRecord{}, false
	}

	unit := selectFirstString(row, unitCols)
	categoryText := strings.ToLower(joinNonNull(row, categoryCols))

	kind, scope, ok := selectKind(row, columns, mappings, categoryText)
	if !ok {
		return ActivityRecord{}, false
	}

	scope = resolveScope(row, columns, mappings, categoryText, scope)

	return ActivityRecord{
		Kind:     kind,
		Scope:    scope,
		Amount:   amount,
		Unit:     unit,
		Category: categoryText,
		Row:      row,
		Context:  buildContext(row, columns, mappings),
	}, true
}

// selectAmount implements §4.3 step 1.
func selectAmount(row ingestion.Row, amountCols []string) (float64, bool) {
	for _, col := range amountCols {
		c := row.Get(col)
		if c.Null {
			continue
		}
		if c.IsNum {
			return c.Number, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(c.String), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// selectFirstString implements §4.3 step 2: first non-null string cell
// among the given columns, in column order.
func selectFirstString(row ingestion.Row, cols []string) string {
	for _, col := range cols {
		c := row.Get(col)
		if c.Null {
			continue
		}
		if v := strings.TrimSpace(c.StringValue()); v != "" {
			return v
		}
	}
	return ""
}

// joinNonNull implements §4.3 step 3: the row's category text is every
// category-role column's non-null value, space-joined in column order, so
// that a separate "Scope" or "Type" column contributes its own keyword and
// scope-override signal alongside the primary category cell.
func joinNonNull(row ingestion.Row, cols []string) string {
	var parts []string
	for _, col := range cols {
		c := row.Get(col)
		if c.Null {
			continue
		}
		if v := strings.TrimSpace(c.StringValue()); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// selectKind implements §4.3 step 4: (a) first kind-role column with a
// non-null value in this row wins, using its column scope hint (or the
// kind's default scope when that hint is unset); otherwise (b) category-text
// keyword fallback with the kind's default scope; otherwise (c) the row is
// dropped.
func selectKind(
	row ingestion.Row,
	columns []string,
	mappings ingestion.ColumnMappingSet,
	categoryText string,
) (Kind, ingestion.Scope, bool) {
	for _, col := range columns {
		m, ok := mappings[col]
		if !ok || !m.Role.IsKindRole() {
			continue
		}
		if row.Get(col).Null {
			continue
		}
		kind, ok := kindFromRole(m.Role)
		if !ok {
			continue
		}
		scope := m.ScopeHint
		if !scope.IsValid() {
			scope = ingestion.DefaultScopeForRole(m.Role)
		}
		return kind, scope, true
	}

	if categoryText != "" {
		for _, entry := range categoryKeywords {
			for _, kw := range entry.keywords {
				if strings.Contains(categoryText, kw) {
					return entry.kind, ingestion.DefaultScopeForRole(roleForKind(entry.kind)), true
				}
			}
		}
	}

	return "", ingestion.ScopeUnset, false
}

func roleForKind(k Kind) ingestion.Role {
	switch k {
	case KindFuel:
		return ingestion.RoleFuel
	case KindElectricity:
		return ingestion.RoleElectricity
	case KindTransport:
		return ingestion.RoleTransport
	case KindWaste:
		return ingestion.RoleWaste
	case KindWater:
		return ingestion.RoleWater
	case KindRefrigerant:
		return ingestion.RoleRefrigerant
	default:
		return ingestion.RoleUnknown
	}
}

// resolveScope implements §4.3 step 5: category-text "scope N" overrides a
// non-⊥ column scope hint (for a column that is non-null in this row),
// which in turn overrides the kind-default scope computed by selectKind.
func resolveScope(
	row ingestion.Row,
	columns []string,
	mappings ingestion.ColumnMappingSet,
	categoryText string,
	kindScope ingestion.Scope,
) ingestion.Scope {
	scope := kindScope

	for _, col := range columns {
		m, ok := mappings[col]
		if !ok || !m.HasScopeHint() {
			continue
		}
		if row.Get(col).Null {
			continue
		}
		scope = m.ScopeHint
		break
	}

	if s, ok := scopeFromCategoryText(categoryText); ok {
		scope = s
	}

	return scope
}

func scopeFromCategoryText(categoryText string) (ingestion.Scope, bool) {
	switch {
	case strings.Contains(categoryText, "scope 1"):
		return ingestion.Scope1, true
	case strings.Contains(categoryText, "scope 2"):
		return ingestion.Scope2, true
	case strings.Contains(categoryText, "scope 3"):
		return ingestion.Scope3, true
	default:
		return ingestion.ScopeUnset, false
	}
}

// buildContext implements §4.3 step 6's context-bag assembly: every column
// whose role is not ignore/unknown and whose cell is non-null in this row.
func buildContext(row ingestion.Row, columns []string, mappings ingestion.ColumnMappingSet) map[string]string {
	ctx := make(map[string]string)
	for _, col := range columns {
		m, ok := mappings[col]
		if !ok || m.Role == ingestion.RoleIgnore || m.Role == ingestion.RoleUnknown {
			continue
		}
		c := row.Get(col)
		if c.Null {
			continue
		}
		ctx[col] = c.StringValue()
	}
	return ctx
}

func columnsWithRole(columns []string, mappings ingestion.ColumnMappingSet, role ingestion.Role) []string {
	var out []string
	for _, col := range columns {
		if m, ok := mappings[col]; ok && m.Role == role {
			out = append(out, col)
		}
	}
	return out
}
