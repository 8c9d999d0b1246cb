// Package climate estimates construction-stage (A1-A5) embodied carbon for
// multifamily residential buildings from a handful of early design parameters.
//
// All intensities are expressed per m² BTA (gross floor area).
package climate

import "strings"

// SystemBoundary selects which building-part categories are included.
type SystemBoundary string

const (
	// Boundary2022 covers envelope, load-bearing structure, foundation and interior walls.
	Boundary2022 SystemBoundary = "2022"

	// Boundary2027 additionally covers interior finishes and installations.
	Boundary2027 SystemBoundary = "2027"
)

// SystemBoundaries lists every supported boundary in presentation order.
var SystemBoundaries = []SystemBoundary{Boundary2022, Boundary2027}

// Valid reports whether b is a supported boundary.
func (b SystemBoundary) Valid() bool {
	switch b {
	case Boundary2022, Boundary2027:
		return true
	}
	return false
}

// StructuralSystem is the load-bearing system of the building.
type StructuralSystem string

const (
	StructuralConcrete StructuralSystem = "concrete"
	StructuralTimber   StructuralSystem = "timber"
	StructuralSteel    StructuralSystem = "steel"
)

// StructuralSystems lists every supported structural system.
var StructuralSystems = []StructuralSystem{StructuralConcrete, StructuralTimber, StructuralSteel}

// Valid reports whether s is a supported structural system.
func (s StructuralSystem) Valid() bool {
	switch s {
	case StructuralConcrete, StructuralTimber, StructuralSteel:
		return true
	}
	return false
}

// ConstructionMethod is how the frame is produced on site.
type ConstructionMethod string

const (
	// MethodPrefabConcrete is precast concrete elements (reference method).
	MethodPrefabConcrete ConstructionMethod = "prefab-concrete"

	// MethodCastInPlaceInfill is cast-in-place concrete with lightweight infill walls.
	MethodCastInPlaceInfill ConstructionMethod = "cast-in-place-infill"

	// MethodCastInPlaceStayInPlaceForm is cast-in-place concrete in stay-in-place formwork.
	MethodCastInPlaceStayInPlaceForm ConstructionMethod = "cast-in-place-stay-in-place-formwork"

	// MethodVolumetricTimber is factory-built timber volume modules.
	MethodVolumetricTimber ConstructionMethod = "volumetric-timber"

	// MethodCLT is a solid cross-laminated timber frame.
	MethodCLT ConstructionMethod = "clt"
)

// ConstructionMethods lists every supported construction method.
var ConstructionMethods = []ConstructionMethod{
	MethodPrefabConcrete,
	MethodCastInPlaceInfill,
	MethodCastInPlaceStayInPlaceForm,
	MethodVolumetricTimber,
	MethodCLT,
}

// Valid reports whether m is a supported construction method.
func (m ConstructionMethod) Valid() bool {
	switch m {
	case MethodPrefabConcrete, MethodCastInPlaceInfill, MethodCastInPlaceStayInPlaceForm,
		MethodVolumetricTimber, MethodCLT:
		return true
	}
	return false
}

// typicalMethods lists the construction methods normally paired with each
// structural system. Other pairings are allowed but produce an advisory note.
var typicalMethods = map[StructuralSystem][]ConstructionMethod{
	StructuralConcrete: {MethodPrefabConcrete, MethodCastInPlaceInfill, MethodCastInPlaceStayInPlaceForm},
	StructuralTimber:   {MethodVolumetricTimber, MethodCLT},
	StructuralSteel:    {MethodPrefabConcrete, MethodCastInPlaceInfill},
}

// IsTypicalMethod reports whether m is a usual construction method for s.
func IsTypicalMethod(s StructuralSystem, m ConstructionMethod) bool {
	for _, candidate := range typicalMethods[s] {
		if candidate == m {
			return true
		}
	}
	return false
}

// Material is a material family that can be specified in a climate-improved variant.
type Material string

const (
	MaterialConcrete Material = "concrete"
	MaterialSteel    Material = "steel"
	MaterialAluminum Material = "aluminum"
)

// Materials lists every material with a calibrated improvement factor.
var Materials = []Material{MaterialConcrete, MaterialSteel, MaterialAluminum}

// Valid reports whether m is a supported material.
func (m Material) Valid() bool {
	switch m {
	case MaterialConcrete, MaterialSteel, MaterialAluminum:
		return true
	}
	return false
}

// Category is a coarse building-part category of the emissions breakdown.
type Category string

const (
	CategoryFrame                    Category = "frame"
	CategoryFoundation               Category = "foundation"
	CategoryEnvelope                 Category = "envelope"
	CategoryInteriorWalls            Category = "interior-walls"
	CategoryFinishesAndInstallations Category = "finishes-and-installations"

	// CategoryGarage holds the below-grade parking add-on. It is never part of a
	// share table and only appears when a basement or garage is present.
	CategoryGarage Category = "garage"

	// CategoryBasement holds the add-on for a basement without garage.
	CategoryBasement Category = "basement"
)

// ImprovementMode controls how material-improvement discounts are applied to
// categories whose calibration lumps several materials together.
type ImprovementMode string

const (
	// ImprovementWholeCategory discounts an entire category by the strongest
	// effective factor among the improved materials it contains.
	ImprovementWholeCategory ImprovementMode = "whole_category"

	// ImprovementMaterialDecomposition discounts only the fraction of each
	// category attributed to the improved material.
	ImprovementMaterialDecomposition ImprovementMode = "material_decomposition"
)

// Valid reports whether m is a supported improvement mode.
func (m ImprovementMode) Valid() bool {
	switch m {
	case ImprovementWholeCategory, ImprovementMaterialDecomposition:
		return true
	}
	return false
}

// BuildingParameters is the input of one calculation.
type BuildingParameters struct {
	// FormFactor is the thermal envelope area divided by BTA (Aom/BTA).
	FormFactor float64

	// WindowShare is the glazed fraction of the envelope area (0.0 to 1.0).
	WindowShare float64

	// StructuralSystem selects the structural multiplier and timber intensity.
	StructuralSystem StructuralSystem

	// ConstructionMethod selects the method multiplier.
	ConstructionMethod ConstructionMethod

	// HasBasementOrGarage adds the below-grade parking add-on.
	HasBasementOrGarage bool

	// ParkingCoverage is the parking coverage fraction (0.0 to 1.0) used for the
	// garage add-on. Nil uses the calibrated default.
	ParkingCoverage *float64

	// AtempToBTA is the building's Atemp/BTA ratio used to convert the garage
	// schedule. Nil uses the calibrated ratio.
	AtempToBTA *float64

	// BasementWithoutGarage adds the basement add-on. It is independent of
	// HasBasementOrGarage.
	BasementWithoutGarage bool

	// MaterialImprovement maps a material to its improvement level (0.0 to 1.0).
	// A level of 1.0 applies the full calibrated discount.
	MaterialImprovement map[Material]float64

	// SystemBoundary selects the share table.
	SystemBoundary SystemBoundary

	// Floors is the number of floors above ground. Zero means not given.
	Floors int

	// BuildingHeightM is the building height in meters. Zero means not given.
	BuildingHeightM float64

	// HeavyConcreteDesign marks massive concrete design, e.g. solid shell walls.
	HeavyConcreteDesign bool

	// TimberOverrideTonPerM2 replaces the tabulated timber intensity when set.
	TimberOverrideTonPerM2 *float64
}

// CategoryEmission is one entry of an emissions breakdown.
type CategoryEmission struct {
	Category Category `json:"category" yaml:"category"`
	KgPerM2  float64  `json:"kg_per_m2" yaml:"kg_per_m2"`
}

// EmissionsBreakdown is the result of one emissions calculation.
type EmissionsBreakdown struct {
	Boundary      SystemBoundary     `json:"system_boundary" yaml:"system_boundary"`
	Categories    []CategoryEmission `json:"categories" yaml:"categories"`
	TotalKgPerM2  float64            `json:"total_kg_per_m2" yaml:"total_kg_per_m2"`
	TotalTonPerM2 float64            `json:"total_ton_per_m2" yaml:"total_ton_per_m2"`
}

// KgPerM2 returns the intensity of a category and whether it is present.
func (b EmissionsBreakdown) KgPerM2(category Category) (float64, bool) {
	for _, entry := range b.Categories {
		if entry.Category == category {
			return entry.KgPerM2, true
		}
	}
	return 0, false
}

// Assessment is the complete screening result rendered by presentation layers.
type Assessment struct {
	Emissions EmissionsBreakdown `json:"emissions" yaml:"emissions"`

	// TimberTonPerM2 is the timber screening figure. It is not part of the
	// emissions total.
	TimberTonPerM2 float64 `json:"timber_ton_per_m2" yaml:"timber_ton_per_m2"`

	// ReferenceKgPerM2 is the limit value the total is compared against.
	ReferenceKgPerM2 float64 `json:"reference_kg_per_m2" yaml:"reference_kg_per_m2"`

	DeltaKgPerM2 float64 `json:"delta_kg_per_m2" yaml:"delta_kg_per_m2"`
	DeltaPercent float64 `json:"delta_percent" yaml:"delta_percent"`

	// Notes are advisory messages about untypical but accepted inputs.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// normalizeKey lowercases and trims a presentation-layer string.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseSystemBoundary parses a boundary such as "2022" or "boundary2027".
func ParseSystemBoundary(s string) (SystemBoundary, error) {
	key := strings.TrimPrefix(normalizeKey(s), "boundary")
	b := SystemBoundary(key)
	if !b.Valid() {
		return "", &EnumError{Kind: "system boundary", Value: s, sentinel: ErrUnknownBoundary}
	}
	return b, nil
}

// ParseStructuralSystem parses a structural system name.
func ParseStructuralSystem(s string) (StructuralSystem, error) {
	v := StructuralSystem(normalizeKey(s))
	if !v.Valid() {
		return "", newEnumError("structural system", s)
	}
	return v, nil
}

// methodAliases maps short method names to their canonical values.
var methodAliases = map[string]ConstructionMethod{
	"cast-in-place": MethodCastInPlaceInfill,
	"prefabricated": MethodPrefabConcrete,
}

// ParseConstructionMethod parses a construction method name. "cast-in-place"
// and "prefabricated" are accepted for the concrete methods.
func ParseConstructionMethod(s string) (ConstructionMethod, error) {
	key := normalizeKey(s)
	v := ConstructionMethod(key)
	if alias, ok := methodAliases[key]; ok {
		v = alias
	}
	if !v.Valid() {
		return "", newEnumError("construction method", s)
	}
	return v, nil
}

// ParseMaterial parses a material name. "aluminium" is accepted.
func ParseMaterial(s string) (Material, error) {
	key := normalizeKey(s)
	if key == "aluminium" {
		key = string(MaterialAluminum)
	}
	v := Material(key)
	if !v.Valid() {
		return "", newEnumError("material", s)
	}
	return v, nil
}
