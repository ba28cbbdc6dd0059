package classify

import "github.com/emitcore/ghgcore/internal/ingestion"

// namePatterns is the case-insensitive keyword table used for step 1
// (name-pattern match) classification. Roles are tried in table order; the
// first role with any keyword hit against the column name wins. The table
// is an immutable, loaded-once data structure rather than scattered
// conditionals, so its coverage can be property-tested directly.
var namePatterns = []struct {
	role     ingestion.Role
	keywords []string
}{
	{ingestion.RoleFuel, []string{
		"fuel", "diesel", "gasoline", "petrol", "gas", "oil", "litre", "liter",
		"gallon", "combustion", "fleet", "natural gas", "lpg", "propane", "biodiesel",
	}},
	{ingestion.RoleElectricity, []string{
		"electric", "energy", "kwh", "mwh", "power", "grid", "renewable", "solar", "wind",
	}},
	{ingestion.RoleTransport, []string{
		"travel", "transport", "vehicle", "flight", "distance", "km", "mile",
		"commute", "train", "bus", "taxi", "ship", "ferry", "logistics",
	}},
	{ingestion.RoleWaste, []string{
		"waste", "landfill", "recycl", "compost", "garbage", "trash",
		"disposal", "incineration", "hazardous", "sewage",
	}},
	{ingestion.RoleWater, []string{
		"water", "cubic", "m3", "wastewater", "effluent", "irrigation", "potable",
	}},
	{ingestion.RoleRefrigerant, []string{
		"refrigerant", "coolant", "air condition", "hfc", "r-", "leak",
		"fugitive", "hvac", "chiller",
	}},
	{ingestion.RoleAmount, []string{
		"amount", "quantity", "volume", "weight", "total", "consumption",
		"usage", "value", "count", "sum",
	}},
	{ingestion.RoleUnit, []string{
		"unit", "uom", "measure", "metric",
		"kwh", "kg", "ton", "liter", "gallon", "km", "mile", "m3",
	}},
	{ingestion.RoleDate, []string{
		"date", "time", "period", "month", "year", "quarter", "week",
		"day", "fiscal", "calendar", "reporting",
	}},
	{ingestion.RoleCategory, []string{
		"category", "type", "class", "scope", "classification", "group", "source", "activity",
	}},
	{ingestion.RoleLocation, []string{
		"location", "site", "facility", "building", "office", "plant",
		"region", "country", "city", "address", "geography",
	}},
	{ingestion.RoleNotes, []string{
		"note", "comment", "description", "detail", "additional", "info", "remark",
	}},
}

// unitTokens is the canonical set of unit substrings recognized in both
// column names and cell content (§4.2.1 unit-hint detection and §4.2 step 2
// content inference).
var unitTokens = []string{
	"kwh", "mwh", "kg", "tonnes", "ton", "liter", "litre", "gallon", "km", "mile", "m3",
}

// canonicalUnit maps a recognized token to its canonical rendering.
var canonicalUnit = map[string]string{
	"kwh":    "kWh",
	"mwh":    "MWh",
	"kg":     "kg",
	"tonnes": "tonnes",
	"ton":    "tonnes",
	"liter":  "litres",
	"litre":  "litres",
	"gallon": "gallons",
	"km":     "km",
	"mile":   "miles",
	"m3":     "m³",
}

// fuelTypeTokens triggers the step 2.f content-inference rule (string
// column containing a fuel-type token anywhere in a sample value).
var fuelTypeTokens = []string{"diesel", "gasoline", "petrol", "natural gas", "lpg", "propane"}
