package climate

import "fmt"

// Assess computes the emissions breakdown and the timber screening figure and
// compares the total against the reference limit.
func (c *Calculator) Assess(p BuildingParameters) (Assessment, error) {
	breakdown, err := c.ComputeEmissions(p)
	if err != nil {
		return Assessment{}, err
	}

	timber, err := c.timberFor(p)
	if err != nil {
		return Assessment{}, err
	}

	ref := c.tables.ReferenceLimitKgPerM2()
	delta := breakdown.TotalKgPerM2 - ref

	return Assessment{
		Emissions:        breakdown,
		TimberTonPerM2:   timber,
		ReferenceKgPerM2: ref,
		DeltaKgPerM2:     delta,
		DeltaPercent:     delta / ref * 100,
		Notes:            c.advisoryNotes(p),
	}, nil
}

// advisoryNotes lists accepted inputs that fall outside typical ranges.
func (c *Calculator) advisoryNotes(p BuildingParameters) []string {
	adv := c.tables.cal.Advisory

	var notes []string
	if adv.FormFactorMax > 0 && (p.FormFactor < adv.FormFactorMin || p.FormFactor > adv.FormFactorMax) {
		notes = append(notes, fmt.Sprintf(
			"form factor %s is outside the typical range %s-%s",
			formatFloat(p.FormFactor), formatFloat(adv.FormFactorMin), formatFloat(adv.FormFactorMax)))
	}
	if adv.WindowShareMax > 0 && p.WindowShare > adv.WindowShareMax {
		notes = append(notes, fmt.Sprintf(
			"window share %s is above the typical maximum %s",
			formatFloat(p.WindowShare), formatFloat(adv.WindowShareMax)))
	}
	if !IsTypicalMethod(p.StructuralSystem, p.ConstructionMethod) {
		notes = append(notes, fmt.Sprintf(
			"construction method %s is untypical for a %s frame", p.ConstructionMethod, p.StructuralSystem))
	}
	if p.BuildingHeightM > 0 && p.Floors == 0 {
		notes = append(notes, "building height is ignored when the number of floors is not given")
	}
	return notes
}
