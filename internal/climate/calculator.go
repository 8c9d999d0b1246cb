package climate

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// KgPerTon converts kg CO2e to ton CO2e.
const KgPerTon = 1000.0

// Calculator computes emissions breakdowns against one set of reference tables.
// A Calculator holds no mutable state and is safe for concurrent use.
type Calculator struct {
	tables *ReferenceTables
}

// NewCalculator returns a calculator bound to tables. Tables must not be nil.
func NewCalculator(tables *ReferenceTables) *Calculator {
	if tables == nil {
		panic("climate: NewCalculator called with nil tables")
	}
	return &Calculator{tables: tables}
}

// Tables returns the reference tables the calculator was built with.
func (c *Calculator) Tables() *ReferenceTables {
	return c.tables
}

// ComputeEmissions estimates the A1-A5 emissions of a building per m² BTA.
//
// For each category of the selected boundary's share table:
//  1. Start from the category's part of the boundary median.
//  2. Envelope categories scale with FormFactor / reference form factor and
//     with the window/wall blend (w·r + 1 − w) / (w0·r + 1 − w0), and with
//     the floor-height factor when height and floors are given.
//  3. Low-rise sensitive categories take 1 + k·(threshold − floors) below
//     the threshold.
//  4. Method-sensitive categories take the method multiplier, the structural
//     multiplier of the boundary and the heavy concrete multiplier.
//  5. Material improvements discount categories per the tables' improvement mode.
//
// A garage entry of add-on × parking coverage is appended when a basement or
// garage is present, rescaled by the building's Atemp/BTA when one is given.
// A basement entry is appended for a basement without garage. Parameters are validated first; no partial result is
// returned on error.
func (c *Calculator) ComputeEmissions(p BuildingParameters) (EmissionsBreakdown, error) {
	if err := validateParameters(p); err != nil {
		return EmissionsBreakdown{}, err
	}

	t := c.tables
	shares, err := t.Shares(p.SystemBoundary)
	if err != nil {
		return EmissionsBreakdown{}, err
	}
	methodMult, err := t.MethodMultiplier(p.ConstructionMethod)
	if err != nil {
		return EmissionsBreakdown{}, err
	}
	structMult, err := t.StructuralMultiplier(p.SystemBoundary, p.StructuralSystem)
	if err != nil {
		return EmissionsBreakdown{}, err
	}
	improvements, err := c.effectiveImprovements(p.MaterialImprovement)
	if err != nil {
		return EmissionsBreakdown{}, err
	}

	frameMult := methodMult * structMult
	if p.HeavyConcreteDesign {
		frameMult *= t.cal.HeavyConcreteMultiplier
	}
	envelopeMult := (p.FormFactor / t.ReferenceFormFactor()) *
		c.WindowMixFactor(p.WindowShare) *
		c.floorHeightFactor(p.Floors, p.BuildingHeightM)
	lowRiseMult := c.lowRiseFactor(p.Floors)

	breakdown := EmissionsBreakdown{
		Boundary:   p.SystemBoundary,
		Categories: make([]CategoryEmission, 0, len(shares)+1),
	}
	for _, entry := range shares {
		profile, err := t.Profile(entry.Category)
		if err != nil {
			return EmissionsBreakdown{}, err
		}

		v := entry.MedianKgPerM2
		if profile.Envelope {
			v *= envelopeMult
		}
		if profile.LowRiseSensitive {
			v *= lowRiseMult
		}
		if profile.MethodSensitive {
			v *= frameMult
		}
		v *= improvementMultiplier(t.ImprovementMode(), profile, improvements)

		breakdown.Categories = append(breakdown.Categories, CategoryEmission{
			Category: entry.Category,
			KgPerM2:  v,
		})
	}

	if p.HasBasementOrGarage {
		breakdown.Categories = append(breakdown.Categories, CategoryEmission{
			Category: CategoryGarage,
			KgPerM2:  c.GarageAddOn(p.ParkingCoverage) * c.atempScale(p.AtempToBTA),
		})
	}
	if p.BasementWithoutGarage && t.BasementAddOn() > 0 {
		breakdown.Categories = append(breakdown.Categories, CategoryEmission{
			Category: CategoryBasement,
			KgPerM2:  t.BasementAddOn(),
		})
	}

	for _, entry := range breakdown.Categories {
		breakdown.TotalKgPerM2 += entry.KgPerM2
	}
	breakdown.TotalTonPerM2 = breakdown.TotalKgPerM2 / KgPerTon

	return breakdown, nil
}

// WindowMixFactor returns the envelope intensity at window share w relative
// to the reference window share. The envelope is an area-weighted blend of
// glazing and opaque wall where glazing is r times as intensive per m².
func (c *Calculator) WindowMixFactor(w float64) float64 {
	r := c.tables.WindowToWallRatio()
	w0 := c.tables.ReferenceWindowShare()
	return (w*r + (1 - w)) / (w0*r + (1 - w0))
}

// GarageAddOn returns the garage add-on in kg CO2e/m² BTA for a parking
// coverage. Nil coverage uses the calibrated default.
func (c *Calculator) GarageAddOn(coverage *float64) float64 {
	f := c.tables.DefaultParkingCoverage()
	if coverage != nil {
		f = *coverage
	}
	return c.tables.GarageAddOnAtFullCoverage() * f
}

// atempScale converts the garage schedule from the calibrated Atemp/BTA to
// the building's own ratio.
func (c *Calculator) atempScale(atempToBTA *float64) float64 {
	ref := c.tables.AtempToBTA()
	if atempToBTA == nil || ref <= 0 {
		return 1
	}
	return *atempToBTA / ref
}

func (c *Calculator) floorHeightFactor(floors int, heightM float64) float64 {
	if floors <= 0 || heightM <= 0 {
		return 1
	}
	fh := c.tables.cal.FloorHeight
	factor := heightM / float64(floors) / fh.ReferenceM
	return math.Max(fh.MinFactor, math.Min(fh.MaxFactor, factor))
}

func (c *Calculator) lowRiseFactor(floors int) float64 {
	lr := c.tables.cal.LowRise
	if floors <= 0 || floors >= lr.ThresholdFloors {
		return 1
	}
	return 1 + lr.FactorPerFloor*float64(lr.ThresholdFloors-floors)
}

// effectiveImprovements maps each improved material to 1 − level·(1 − factor).
func (c *Calculator) effectiveImprovements(levels map[Material]float64) (map[Material]float64, error) {
	if len(levels) == 0 {
		return nil, nil
	}
	out := make(map[Material]float64, len(levels))
	for _, m := range Materials {
		level, ok := levels[m]
		if !ok {
			continue
		}
		factor, err := c.tables.ImprovementFactor(m)
		if err != nil {
			return nil, err
		}
		out[m] = 1 - level*(1-factor)
	}
	return out, nil
}

// improvementMultiplier returns the discount for one category. Materials are
// visited in a fixed order so that results are bit-identical between calls.
func improvementMultiplier(mode ImprovementMode, profile CategoryProfile, effective map[Material]float64) float64 {
	if len(effective) == 0 {
		return 1
	}

	switch mode {
	case ImprovementMaterialDecomposition:
		var reduction float64
		for _, m := range Materials {
			eff, ok := effective[m]
			if !ok {
				continue
			}
			reduction += profile.Materials[m] * (1 - eff)
		}
		return 1 - reduction
	default:
		mult := 1.0
		for _, m := range Materials {
			eff, ok := effective[m]
			if !ok || profile.Materials[m] <= 0 {
				continue
			}
			mult = math.Min(mult, eff)
		}
		return mult
	}
}

func validateParameters(p BuildingParameters) error {
	if !p.SystemBoundary.Valid() {
		return &EnumError{Kind: "system boundary", Value: p.SystemBoundary, sentinel: ErrUnknownBoundary}
	}

	if math.IsNaN(p.FormFactor) || math.IsInf(p.FormFactor, 0) || p.FormFactor <= 0 {
		return invalidParam("form_factor", p.FormFactor, "must be a positive number")
	}
	if math.IsNaN(p.WindowShare) || !unitInterval(p.WindowShare) {
		return invalidParam("window_share", p.WindowShare, "must be within [0,1]")
	}
	if p.ParkingCoverage != nil && (math.IsNaN(*p.ParkingCoverage) || !unitInterval(*p.ParkingCoverage)) {
		return invalidParam("parking_coverage", *p.ParkingCoverage, "must be within [0,1]")
	}
	if err := validateImprovement(p.MaterialImprovement); err != nil {
		return err
	}
	if a := p.AtempToBTA; a != nil && (math.IsNaN(*a) || *a <= 0 || *a > 1) {
		return invalidParam("atemp_to_bta", *a, "must be within (0,1]")
	}
	if p.Floors < 0 {
		return invalidParam("floors", p.Floors, "must not be negative")
	}
	if math.IsNaN(p.BuildingHeightM) || math.IsInf(p.BuildingHeightM, 0) || p.BuildingHeightM < 0 {
		return invalidParam("building_height_m", p.BuildingHeightM, "must be a non-negative number")
	}
	if o := p.TimberOverrideTonPerM2; o != nil && (math.IsNaN(*o) || math.IsInf(*o, 0) || *o < 0) {
		return invalidParam("timber_override_ton_per_m2", *o, "must be a non-negative number")
	}

	if !p.StructuralSystem.Valid() {
		return newEnumError("structural system", p.StructuralSystem)
	}
	if !p.ConstructionMethod.Valid() {
		return newEnumError("construction method", p.ConstructionMethod)
	}
	return nil
}

// validateImprovement checks levels in Materials order, then reports the
// first unknown material in sorted order, so the error does not depend on map
// iteration.
func validateImprovement(levels map[Material]float64) error {
	for _, m := range Materials {
		level, ok := levels[m]
		if !ok {
			continue
		}
		if math.IsNaN(level) || !unitInterval(level) {
			return invalidParam(fmt.Sprintf("material_improvement[%s]", m), level, "must be within [0,1]")
		}
	}
	for _, m := range slices.Sorted(maps.Keys(levels)) {
		if !m.Valid() {
			return newEnumError("material", m)
		}
	}
	return nil
}
