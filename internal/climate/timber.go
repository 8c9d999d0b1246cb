package climate

// EstimateTimber returns the screening timber mass in ton per m² BTA for a
// structural system. The figure is a material-flow indicator and is never
// added to an emissions total.
func (c *Calculator) EstimateTimber(s StructuralSystem) (float64, error) {
	if !s.Valid() {
		return 0, newEnumError("structural system", s)
	}
	return c.tables.TimberIntensity(s)
}

// timberFor applies a user override before falling back to the table.
func (c *Calculator) timberFor(p BuildingParameters) (float64, error) {
	if p.TimberOverrideTonPerM2 != nil {
		return *p.TimberOverrideTonPerM2, nil
	}
	return c.EstimateTimber(p.StructuralSystem)
}
