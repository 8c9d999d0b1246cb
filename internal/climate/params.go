package climate

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParameterDocument is the serialized form of BuildingParameters used by
// parameter files and HTTP requests. Enumerations are plain strings and are
// parsed by BuildingParameters.
type ParameterDocument struct {
	FormFactor          float64  `json:"form_factor" yaml:"form_factor"`
	WindowShare         float64  `json:"window_share" yaml:"window_share"`
	StructuralSystem    string   `json:"structural_system" yaml:"structural_system"`
	ConstructionMethod  string   `json:"construction_method" yaml:"construction_method"`
	HasBasementOrGarage bool     `json:"has_basement_or_garage,omitempty" yaml:"has_basement_or_garage"`
	ParkingCoverage     *float64 `json:"parking_coverage,omitempty" yaml:"parking_coverage"`
	SystemBoundary      string   `json:"system_boundary" yaml:"system_boundary"`

	AtempToBTA            *float64 `json:"atemp_to_bta,omitempty" yaml:"atemp_to_bta"`
	BasementWithoutGarage bool     `json:"basement_without_garage,omitempty" yaml:"basement_without_garage"`

	// ClimateImproved applies level 1.0 to every material not listed in
	// MaterialImprovement.
	ClimateImproved     bool               `json:"climate_improved,omitempty" yaml:"climate_improved"`
	MaterialImprovement map[string]float64 `json:"material_improvement,omitempty" yaml:"material_improvement"`

	Floors                 int      `json:"floors,omitempty" yaml:"floors"`
	BuildingHeightM        float64  `json:"building_height_m,omitempty" yaml:"building_height_m"`
	HeavyConcreteDesign    bool     `json:"heavy_concrete_design,omitempty" yaml:"heavy_concrete_design"`
	TimberOverrideTonPerM2 *float64 `json:"timber_override_ton_per_m2,omitempty" yaml:"timber_override_ton_per_m2"`
}

// BuildingParameters parses the document's enumerations. Numeric ranges are
// left to the calculator.
func (d ParameterDocument) BuildingParameters() (BuildingParameters, error) {
	boundary, err := ParseSystemBoundary(d.SystemBoundary)
	if err != nil {
		return BuildingParameters{}, err
	}
	system, err := ParseStructuralSystem(d.StructuralSystem)
	if err != nil {
		return BuildingParameters{}, err
	}
	method, err := ParseConstructionMethod(d.ConstructionMethod)
	if err != nil {
		return BuildingParameters{}, err
	}

	var improvement map[Material]float64
	if d.ClimateImproved || len(d.MaterialImprovement) > 0 {
		improvement = make(map[Material]float64, len(Materials))
		if d.ClimateImproved {
			for _, m := range Materials {
				improvement[m] = 1
			}
		}
		for name, level := range d.MaterialImprovement {
			m, err := ParseMaterial(name)
			if err != nil {
				return BuildingParameters{}, err
			}
			improvement[m] = level
		}
	}

	return BuildingParameters{
		FormFactor:             d.FormFactor,
		WindowShare:            d.WindowShare,
		StructuralSystem:       system,
		ConstructionMethod:     method,
		HasBasementOrGarage:    d.HasBasementOrGarage,
		ParkingCoverage:        d.ParkingCoverage,
		AtempToBTA:             d.AtempToBTA,
		BasementWithoutGarage:  d.BasementWithoutGarage,
		MaterialImprovement:    improvement,
		SystemBoundary:         boundary,
		Floors:                 d.Floors,
		BuildingHeightM:        d.BuildingHeightM,
		HeavyConcreteDesign:    d.HeavyConcreteDesign,
		TimberOverrideTonPerM2: d.TimberOverrideTonPerM2,
	}, nil
}

// ParseParameterDocument decodes a YAML parameter document. Unknown keys are rejected.
func ParseParameterDocument(data []byte) (ParameterDocument, error) {
	var d ParameterDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return ParameterDocument{}, fmt.Errorf("parsing parameter document: %w", err)
	}
	return d, nil
}

// LoadParameterDocument reads a YAML parameter document from path.
func LoadParameterDocument(path string) (ParameterDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParameterDocument{}, fmt.Errorf("reading parameter document: %w", err)
	}
	return ParseParameterDocument(data)
}
