package climate

import "fmt"

// formatFloat formats a float for display.
// If the float is an integer, it is formatted as an integer.
// Otherwise, it is formatted with 2 decimal places.
func formatFloat(f float64) string {
	if f == float64(int(f)) {
		return fmt.Sprintf("%d", int(f))
	}
	return fmt.Sprintf("%.2f", f)
}

// Describe returns a one-line human-readable summary of the parameters.
func Describe(p BuildingParameters) string {
	s := "boundary " + string(p.SystemBoundary) + ", " +
		string(p.StructuralSystem) + " frame (" + string(p.ConstructionMethod) + "), " +
		"form factor " + formatFloat(p.FormFactor) + ", " +
		formatFloat(p.WindowShare*100) + "% glazing"
	if p.HasBasementOrGarage {
		s += ", basement/garage"
	}
	if p.BasementWithoutGarage {
		s += ", basement"
	}
	if len(p.MaterialImprovement) > 0 {
		s += ", climate-improved materials"
	}
	return s
}
