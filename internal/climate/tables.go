package climate

import (
	"maps"
	"math"
	"slices"
)

// shareSumTolerance is the allowed deviation of a boundary's share sum from 1.0.
const shareSumTolerance = 1e-6

// Calibration is the raw, serializable form of the reference tables.
// It is the document stored in reference_tables.yaml.
type Calibration struct {
	// Version identifies the calibration data set.
	Version string `yaml:"version" json:"version"`

	// ReferenceFormFactor is the Aom/BTA the median intensities were observed at.
	ReferenceFormFactor float64 `yaml:"reference_form_factor" json:"reference_form_factor"`

	// ReferenceWindowShare is the window share the median intensities assume.
	ReferenceWindowShare float64 `yaml:"reference_window_share" json:"reference_window_share"`

	// WindowToWallIntensityRatio is the per-m² intensity of glazing relative to opaque wall.
	WindowToWallIntensityRatio float64 `yaml:"window_to_wall_intensity_ratio" json:"window_to_wall_intensity_ratio"`

	// ReferenceLimitKgPerM2 is the proposed limit value results are compared against.
	ReferenceLimitKgPerM2 float64 `yaml:"reference_limit_kg_per_m2" json:"reference_limit_kg_per_m2"`

	Boundaries            []BoundaryCalibration                           `yaml:"boundaries" json:"boundaries"`
	Categories            map[Category]CategoryProfile                    `yaml:"categories" json:"categories"`
	MethodMultipliers     map[ConstructionMethod]float64                  `yaml:"method_multipliers" json:"method_multipliers"`
	StructuralMultipliers map[SystemBoundary]map[StructuralSystem]float64 `yaml:"structural_multipliers" json:"structural_multipliers"`
	TimberTonPerM2        map[StructuralSystem]float64                    `yaml:"timber_ton_per_m2" json:"timber_ton_per_m2"`
	Garage                GarageCalibration                               `yaml:"garage" json:"garage"`
	MaterialImprovement   ImprovementCalibration                          `yaml:"material_improvement" json:"material_improvement"`
	LowRise               LowRiseCalibration                              `yaml:"low_rise" json:"low_rise"`
	FloorHeight           FloorHeightCalibration                          `yaml:"floor_height" json:"floor_height"`
	Advisory              AdvisoryRanges                                  `yaml:"advisory" json:"advisory"`

	// HeavyConcreteMultiplier applies to method-sensitive categories for heavy concrete design.
	HeavyConcreteMultiplier float64 `yaml:"heavy_concrete_multiplier" json:"heavy_concrete_multiplier"`
}

// BoundaryCalibration is the share table of one system boundary.
type BoundaryCalibration struct {
	Boundary SystemBoundary `yaml:"boundary" json:"boundary"`

	// MedianKgPerM2 is the published median total for the boundary.
	MedianKgPerM2 float64 `yaml:"median_kg_per_m2" json:"median_kg_per_m2"`

	// MedianImprovedKgPerM2 is the median total with climate-improved products.
	// The default improvement factors reproduce it at reference geometry. It is
	// not used in calculations.
	MedianImprovedKgPerM2 float64 `yaml:"median_improved_kg_per_m2,omitempty" json:"median_improved_kg_per_m2,omitempty"`

	Shares []CategoryShare `yaml:"shares" json:"shares"`
}

// CategoryShare is the fraction of a boundary's median total attributed to a category.
type CategoryShare struct {
	Category Category `yaml:"category" json:"category"`
	Share    float64  `yaml:"share" json:"share"`
}

// CategoryProfile describes how a category responds to the design parameters.
type CategoryProfile struct {
	// Envelope categories scale with form factor and window share.
	Envelope bool `yaml:"envelope" json:"envelope"`

	// MethodSensitive categories take the method and structural multipliers.
	MethodSensitive bool `yaml:"method_sensitive" json:"method_sensitive"`

	// LowRiseSensitive categories take the low-rise factor.
	LowRiseSensitive bool `yaml:"low_rise_sensitive" json:"low_rise_sensitive"`

	// Materials is the fraction of the category intensity attributed to each material.
	Materials map[Material]float64 `yaml:"materials,omitempty" json:"materials,omitempty"`
}

// GarageCalibration is the below-grade parking add-on schedule.
type GarageCalibration struct {
	// AddOnKgPerM2AtFullCoverage is the add-on per m² BTA at parking coverage 1.0.
	AddOnKgPerM2AtFullCoverage float64 `yaml:"add_on_kg_per_m2_at_full_coverage" json:"add_on_kg_per_m2_at_full_coverage"`

	// DefaultParkingCoverage is used when the parameters leave coverage unset.
	DefaultParkingCoverage float64 `yaml:"default_parking_coverage" json:"default_parking_coverage"`

	// AtempToBTA is the Atemp/BTA ratio the add-on was converted at. When set,
	// parameters may supply their own ratio. Zero fixes the conversion.
	AtempToBTA float64 `yaml:"atemp_to_bta,omitempty" json:"atemp_to_bta,omitempty"`

	// BasementAddOnKgPerM2 is the add-on per m² BTA for a basement without
	// garage. Zero disables it.
	BasementAddOnKgPerM2 float64 `yaml:"basement_add_on_kg_per_m2,omitempty" json:"basement_add_on_kg_per_m2,omitempty"`
}

// ImprovementCalibration holds the climate-improved material discounts.
type ImprovementCalibration struct {
	Mode    ImprovementMode      `yaml:"mode" json:"mode"`
	Factors map[Material]float64 `yaml:"factors" json:"factors"`
}

// LowRiseCalibration penalizes buildings with few floors.
type LowRiseCalibration struct {
	ThresholdFloors int     `yaml:"threshold_floors" json:"threshold_floors"`
	FactorPerFloor  float64 `yaml:"factor_per_floor" json:"factor_per_floor"`
}

// FloorHeightCalibration scales the envelope by the average floor height.
type FloorHeightCalibration struct {
	ReferenceM float64 `yaml:"reference_m" json:"reference_m"`
	MinFactor  float64 `yaml:"min_factor" json:"min_factor"`
	MaxFactor  float64 `yaml:"max_factor" json:"max_factor"`
}

// AdvisoryRanges bound typical inputs. Values outside produce notes, not errors.
type AdvisoryRanges struct {
	FormFactorMin  float64 `yaml:"form_factor_min" json:"form_factor_min"`
	FormFactorMax  float64 `yaml:"form_factor_max" json:"form_factor_max"`
	WindowShareMax float64 `yaml:"window_share_max" json:"window_share_max"`
}

// ShareEntry is one row of a boundary's share table.
type ShareEntry struct {
	Category Category `json:"category"`

	// MedianKgPerM2 is the category's part of the boundary median.
	MedianKgPerM2 float64 `json:"median_kg_per_m2"`

	Share float64 `json:"share"`
}

// ReferenceTables is the validated, read-only calibration used by a Calculator.
// It is safe for concurrent use.
type ReferenceTables struct {
	cal    Calibration
	shares map[SystemBoundary][]ShareEntry
	median map[SystemBoundary]float64
}

// NewReferenceTables validates c and returns tables built from a private copy of it.
func NewReferenceTables(c Calibration) (*ReferenceTables, error) {
	c = cloneCalibration(c)
	if c.MaterialImprovement.Mode == "" {
		c.MaterialImprovement.Mode = ImprovementWholeCategory
	}

	if err := validateCalibration(c); err != nil {
		return nil, err
	}

	t := &ReferenceTables{
		cal:    c,
		shares: make(map[SystemBoundary][]ShareEntry, len(c.Boundaries)),
		median: make(map[SystemBoundary]float64, len(c.Boundaries)),
	}
	for _, b := range c.Boundaries {
		entries := make([]ShareEntry, 0, len(b.Shares))
		for _, s := range b.Shares {
			entries = append(entries, ShareEntry{
				Category:      s.Category,
				MedianKgPerM2: b.MedianKgPerM2 * s.Share,
				Share:         s.Share,
			})
		}
		t.shares[b.Boundary] = entries
		t.median[b.Boundary] = b.MedianKgPerM2
	}
	return t, nil
}

func validateCalibration(c Calibration) error {
	if !positive(c.ReferenceFormFactor) {
		return invalidTables("reference_form_factor must be positive, got %v", c.ReferenceFormFactor)
	}
	if !unitInterval(c.ReferenceWindowShare) {
		return invalidTables("reference_window_share must be within [0,1], got %v", c.ReferenceWindowShare)
	}
	if !positive(c.WindowToWallIntensityRatio) {
		return invalidTables("window_to_wall_intensity_ratio must be positive, got %v", c.WindowToWallIntensityRatio)
	}
	if !positive(c.ReferenceLimitKgPerM2) {
		return invalidTables("reference_limit_kg_per_m2 must be positive, got %v", c.ReferenceLimitKgPerM2)
	}
	if !positive(c.HeavyConcreteMultiplier) {
		return invalidTables("heavy_concrete_multiplier must be positive, got %v", c.HeavyConcreteMultiplier)
	}

	if err := validateCategories(c.Categories); err != nil {
		return err
	}
	if err := validateBoundaries(c.Boundaries, c.Categories); err != nil {
		return err
	}

	for m, v := range c.MethodMultipliers {
		if !m.Valid() {
			return invalidTables("method multiplier for unknown construction method %q", m)
		}
		if !positive(v) {
			return invalidTables("method multiplier for %s must be positive, got %v", m, v)
		}
	}
	for b, bySystem := range c.StructuralMultipliers {
		if !b.Valid() {
			return invalidTables("structural multipliers for unknown boundary %q", b)
		}
		for s, v := range bySystem {
			if !s.Valid() {
				return invalidTables("structural multiplier for unknown structural system %q", s)
			}
			if !positive(v) {
				return invalidTables("structural multiplier for %s/%s must be positive, got %v", b, s, v)
			}
		}
	}
	for s, v := range c.TimberTonPerM2 {
		if !s.Valid() {
			return invalidTables("timber intensity for unknown structural system %q", s)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return invalidTables("timber intensity for %s must be non-negative, got %v", s, v)
		}
	}

	if !positive(c.Garage.AddOnKgPerM2AtFullCoverage) {
		return invalidTables("garage add-on must be positive, got %v", c.Garage.AddOnKgPerM2AtFullCoverage)
	}
	if !unitInterval(c.Garage.DefaultParkingCoverage) {
		return invalidTables("default parking coverage must be within [0,1], got %v", c.Garage.DefaultParkingCoverage)
	}
	if a := c.Garage.AtempToBTA; math.IsNaN(a) || a < 0 || a > 1 {
		return invalidTables("atemp_to_bta must be within [0,1], got %v", a)
	}
	if b := c.Garage.BasementAddOnKgPerM2; math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
		return invalidTables("basement add-on must be non-negative, got %v", b)
	}

	if !c.MaterialImprovement.Mode.Valid() {
		return invalidTables("unknown material improvement mode %q", c.MaterialImprovement.Mode)
	}
	for m, f := range c.MaterialImprovement.Factors {
		if !m.Valid() {
			return invalidTables("improvement factor for unknown material %q", m)
		}
		if !(f > 0 && f <= 1) {
			return invalidTables("improvement factor for %s must be within (0,1], got %v", m, f)
		}
	}

	if c.LowRise.ThresholdFloors < 0 || c.LowRise.FactorPerFloor < 0 {
		return invalidTables("low_rise values must be non-negative")
	}
	fh := c.FloorHeight
	if !positive(fh.ReferenceM) || !positive(fh.MinFactor) || fh.MaxFactor < fh.MinFactor {
		return invalidTables("floor_height requires reference_m > 0 and 0 < min_factor <= max_factor")
	}
	return nil
}

func validateCategories(categories map[Category]CategoryProfile) error {
	for category, profile := range categories {
		if category == "" || category == CategoryGarage || category == CategoryBasement {
			return invalidTables("category %q cannot be profiled", category)
		}
		var sum float64
		for m, f := range profile.Materials {
			if !m.Valid() {
				return invalidTables("category %s: unknown material %q", category, m)
			}
			if !unitInterval(f) {
				return invalidTables("category %s: material fraction for %s must be within [0,1], got %v", category, m, f)
			}
			sum += f
		}
		if sum > 1+shareSumTolerance {
			return invalidTables("category %s: material fractions sum to %v, above 1", category, sum)
		}
	}
	return nil
}

func validateBoundaries(boundaries []BoundaryCalibration, categories map[Category]CategoryProfile) error {
	seen := make(map[SystemBoundary]bool, len(boundaries))
	for _, b := range boundaries {
		if !b.Boundary.Valid() {
			return invalidTables("share table for unknown boundary %q", b.Boundary)
		}
		if seen[b.Boundary] {
			return invalidTables("duplicate share table for boundary %s", b.Boundary)
		}
		seen[b.Boundary] = true

		if !positive(b.MedianKgPerM2) {
			return invalidTables("boundary %s: median must be positive, got %v", b.Boundary, b.MedianKgPerM2)
		}
		if len(b.Shares) == 0 {
			return invalidTables("boundary %s: empty share table", b.Boundary)
		}

		var sum float64
		inTable := make(map[Category]bool, len(b.Shares))
		for _, s := range b.Shares {
			if inTable[s.Category] {
				return invalidTables("boundary %s: duplicate category %s", b.Boundary, s.Category)
			}
			inTable[s.Category] = true
			if _, ok := categories[s.Category]; !ok {
				return invalidTables("boundary %s: category %s has no profile", b.Boundary, s.Category)
			}
			if !(s.Share > 0 && s.Share <= 1) {
				return invalidTables("boundary %s: share of %s must be within (0,1], got %v", b.Boundary, s.Category, s.Share)
			}
			sum += s.Share
		}
		if math.Abs(sum-1) > shareSumTolerance {
			return invalidTables("boundary %s: shares sum to %v, want 1", b.Boundary, sum)
		}
	}
	return nil
}

// Version returns the calibration version identifier.
func (t *ReferenceTables) Version() string {
	return t.cal.Version
}

// Shares returns the ordered share table of boundary b.
func (t *ReferenceTables) Shares(b SystemBoundary) ([]ShareEntry, error) {
	entries, ok := t.shares[b]
	if !ok {
		return nil, &EnumError{Kind: "system boundary", Value: b, sentinel: ErrUnknownBoundary}
	}
	return slices.Clone(entries), nil
}

// MedianKgPerM2 returns the published median total of boundary b.
func (t *ReferenceTables) MedianKgPerM2(b SystemBoundary) (float64, error) {
	v, ok := t.median[b]
	if !ok {
		return 0, &EnumError{Kind: "system boundary", Value: b, sentinel: ErrUnknownBoundary}
	}
	return v, nil
}

// Profile returns the response profile of a category.
func (t *ReferenceTables) Profile(c Category) (CategoryProfile, error) {
	p, ok := t.cal.Categories[c]
	if !ok {
		return CategoryProfile{}, newEnumError("category", c)
	}
	p.Materials = maps.Clone(p.Materials)
	return p, nil
}

// MethodMultiplier returns the multiplier of a construction method.
func (t *ReferenceTables) MethodMultiplier(m ConstructionMethod) (float64, error) {
	v, ok := t.cal.MethodMultipliers[m]
	if !ok {
		return 0, newEnumError("construction method", m)
	}
	return v, nil
}

// StructuralMultiplier returns the multiplier of a structural system within boundary b.
func (t *ReferenceTables) StructuralMultiplier(b SystemBoundary, s StructuralSystem) (float64, error) {
	bySystem, ok := t.cal.StructuralMultipliers[b]
	if !ok {
		return 0, &EnumError{Kind: "system boundary", Value: b, sentinel: ErrUnknownBoundary}
	}
	v, ok := bySystem[s]
	if !ok {
		return 0, newEnumError("structural system", s)
	}
	return v, nil
}

// ImprovementFactor returns the full-level discount factor of a material.
func (t *ReferenceTables) ImprovementFactor(m Material) (float64, error) {
	v, ok := t.cal.MaterialImprovement.Factors[m]
	if !ok {
		return 0, newEnumError("material", m)
	}
	return v, nil
}

// ImprovementMode returns how material discounts are applied.
func (t *ReferenceTables) ImprovementMode() ImprovementMode {
	return t.cal.MaterialImprovement.Mode
}

// TimberIntensity returns the baseline timber mass in ton per m² BTA.
func (t *ReferenceTables) TimberIntensity(s StructuralSystem) (float64, error) {
	v, ok := t.cal.TimberTonPerM2[s]
	if !ok {
		return 0, newEnumError("structural system", s)
	}
	return v, nil
}

// WindowToWallRatio returns the glazing to opaque wall intensity ratio.
func (t *ReferenceTables) WindowToWallRatio() float64 { return t.cal.WindowToWallIntensityRatio }

// ReferenceFormFactor returns the form factor the medians were observed at.
func (t *ReferenceTables) ReferenceFormFactor() float64 { return t.cal.ReferenceFormFactor }

// ReferenceWindowShare returns the window share the medians assume.
func (t *ReferenceTables) ReferenceWindowShare() float64 { return t.cal.ReferenceWindowShare }

// GarageAddOnAtFullCoverage returns the garage add-on in kg CO2e/m² BTA at coverage 1.0.
func (t *ReferenceTables) GarageAddOnAtFullCoverage() float64 {
	return t.cal.Garage.AddOnKgPerM2AtFullCoverage
}

// DefaultParkingCoverage returns the coverage used when parameters leave it unset.
func (t *ReferenceTables) DefaultParkingCoverage() float64 { return t.cal.Garage.DefaultParkingCoverage }

// AtempToBTA returns the Atemp/BTA ratio of the garage schedule, or zero when
// the conversion is fixed.
func (t *ReferenceTables) AtempToBTA() float64 { return t.cal.Garage.AtempToBTA }

// BasementAddOn returns the basement-without-garage add-on in kg CO2e/m² BTA.
func (t *ReferenceTables) BasementAddOn() float64 { return t.cal.Garage.BasementAddOnKgPerM2 }

// ReferenceLimitKgPerM2 returns the limit value totals are compared against.
func (t *ReferenceTables) ReferenceLimitKgPerM2() float64 { return t.cal.ReferenceLimitKgPerM2 }

// Calibration returns a copy of the underlying calibration document.
func (t *ReferenceTables) Calibration() Calibration {
	return cloneCalibration(t.cal)
}

// WithWindowToWallRatio returns new tables with a different glazing to wall ratio.
// The receiver is not modified.
func (t *ReferenceTables) WithWindowToWallRatio(r float64) (*ReferenceTables, error) {
	c := t.Calibration()
	c.WindowToWallIntensityRatio = r
	return NewReferenceTables(c)
}

// WithImprovementMode returns new tables applying material discounts in mode m.
// The receiver is not modified.
func (t *ReferenceTables) WithImprovementMode(m ImprovementMode) (*ReferenceTables, error) {
	c := t.Calibration()
	c.MaterialImprovement.Mode = m
	return NewReferenceTables(c)
}

func cloneCalibration(c Calibration) Calibration {
	out := c

	out.Boundaries = make([]BoundaryCalibration, len(c.Boundaries))
	for i, b := range c.Boundaries {
		b.Shares = slices.Clone(b.Shares)
		out.Boundaries[i] = b
	}

	out.Categories = make(map[Category]CategoryProfile, len(c.Categories))
	for k, p := range c.Categories {
		p.Materials = maps.Clone(p.Materials)
		out.Categories[k] = p
	}

	out.MethodMultipliers = maps.Clone(c.MethodMultipliers)
	out.TimberTonPerM2 = maps.Clone(c.TimberTonPerM2)
	out.MaterialImprovement.Factors = maps.Clone(c.MaterialImprovement.Factors)

	out.StructuralMultipliers = make(map[SystemBoundary]map[StructuralSystem]float64, len(c.StructuralMultipliers))
	for b, bySystem := range c.StructuralMultipliers {
		out.StructuralMultipliers[b] = maps.Clone(bySystem)
	}
	return out
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
