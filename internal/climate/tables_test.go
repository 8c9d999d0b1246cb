package climate

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCalibration returns synthetic calibration data with round numbers.
func testCalibration() Calibration {
	return Calibration{
		Version:                    "test",
		ReferenceFormFactor:        0.5,
		ReferenceWindowShare:       0.25,
		WindowToWallIntensityRatio: 3,
		ReferenceLimitKgPerM2:      300,
		HeavyConcreteMultiplier:    1.2,
		Boundaries: []BoundaryCalibration{
			{
				Boundary:      Boundary2022,
				MedianKgPerM2: 200,
				Shares: []CategoryShare{
					{Category: CategoryFrame, Share: 0.5},
					{Category: CategoryEnvelope, Share: 0.5},
				},
			},
			{
				Boundary:      Boundary2027,
				MedianKgPerM2: 400,
				Shares: []CategoryShare{
					{Category: CategoryFrame, Share: 0.25},
					{Category: CategoryEnvelope, Share: 0.25},
					{Category: CategoryFinishesAndInstallations, Share: 0.5},
				},
			},
		},
		Categories: map[Category]CategoryProfile{
			CategoryFrame: {
				MethodSensitive: true,
				Materials:       map[Material]float64{MaterialConcrete: 0.5, MaterialSteel: 0.5},
			},
			CategoryEnvelope: {
				Envelope:         true,
				LowRiseSensitive: true,
				Materials:        map[Material]float64{MaterialAluminum: 0.5},
			},
			CategoryFinishesAndInstallations: {},
		},
		MethodMultipliers: map[ConstructionMethod]float64{
			MethodPrefabConcrete:    1,
			MethodCastInPlaceInfill: 1.5,
		},
		StructuralMultipliers: map[SystemBoundary]map[StructuralSystem]float64{
			Boundary2022: {StructuralConcrete: 1, StructuralTimber: 0.5},
			Boundary2027: {StructuralConcrete: 1, StructuralTimber: 0.5},
		},
		TimberTonPerM2: map[StructuralSystem]float64{
			StructuralConcrete: 0.01,
			StructuralTimber:   0.1,
		},
		Garage: GarageCalibration{
			AddOnKgPerM2AtFullCoverage: 100,
			DefaultParkingCoverage:     0.5,
		},
		MaterialImprovement: ImprovementCalibration{
			Mode: ImprovementWholeCategory,
			Factors: map[Material]float64{
				MaterialConcrete: 0.5,
				MaterialSteel:    0.8,
				MaterialAluminum: 0.9,
			},
		},
		LowRise:     LowRiseCalibration{ThresholdFloors: 4, FactorPerFloor: 0.1},
		FloorHeight: FloorHeightCalibration{ReferenceM: 3, MinFactor: 0.5, MaxFactor: 2},
		Advisory:    AdvisoryRanges{FormFactorMin: 0.2, FormFactorMax: 1.5, WindowShareMax: 0.9},
	}
}

func testTables(t *testing.T) *ReferenceTables {
	t.Helper()
	tables, err := NewReferenceTables(testCalibration())
	require.NoError(t, err)
	return tables
}

func mustDefaultTables(t testing.TB) *ReferenceTables {
	t.Helper()
	tables, err := DefaultTables()
	require.NoError(t, err)
	return tables
}

func TestDefaultTables_SharesSumToOne(t *testing.T) {
	tables := mustDefaultTables(t)

	for _, b := range SystemBoundaries {
		t.Run(string(b), func(t *testing.T) {
			entries, err := tables.Shares(b)
			require.NoError(t, err)
			require.NotEmpty(t, entries)

			var shareSum, intensitySum float64
			for _, e := range entries {
				shareSum += e.Share
				intensitySum += e.MedianKgPerM2
			}

			median, err := tables.MedianKgPerM2(b)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, shareSum, 1e-6)
			assert.InDelta(t, median, intensitySum, 1e-6)
		})
	}
}

func TestDefaultTables_PublishedValues(t *testing.T) {
	tables := mustDefaultTables(t)

	median2022, err := tables.MedianKgPerM2(Boundary2022)
	require.NoError(t, err)
	assert.Equal(t, 318.0, median2022)

	median2027, err := tables.MedianKgPerM2(Boundary2027)
	require.NoError(t, err)
	assert.Equal(t, 373.0, median2027)

	cip, err := tables.MethodMultiplier(MethodCastInPlaceStayInPlaceForm)
	require.NoError(t, err)
	assert.InDelta(t, 331.0/272.0, cip, 1e-12)

	assert.Equal(t, 4.0, tables.WindowToWallRatio())
	assert.Equal(t, 0.45, tables.ReferenceFormFactor())
	assert.Equal(t, 0.20, tables.ReferenceWindowShare())
	assert.InDelta(t, 48.0*0.9/0.5, tables.GarageAddOnAtFullCoverage(), 1e-9)
	assert.Equal(t, 375.0, tables.ReferenceLimitKgPerM2())
	assert.Equal(t, ImprovementWholeCategory, tables.ImprovementMode())
}

func TestDefaultTables_EveryEnumIsCalibrated(t *testing.T) {
	tables := mustDefaultTables(t)

	for _, m := range ConstructionMethods {
		v, err := tables.MethodMultiplier(m)
		require.NoError(t, err, "method %s", m)
		assert.Greater(t, v, 0.0)
	}
	for _, s := range StructuralSystems {
		_, err := tables.TimberIntensity(s)
		require.NoError(t, err, "timber %s", s)
		for _, b := range SystemBoundaries {
			_, err := tables.StructuralMultiplier(b, s)
			require.NoError(t, err, "structural %s/%s", b, s)
		}
	}
	for _, m := range Materials {
		f, err := tables.ImprovementFactor(m)
		require.NoError(t, err, "material %s", m)
		assert.Greater(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
	}
}

func TestReferenceTables_Shares_UnknownBoundary(t *testing.T) {
	tables := testTables(t)

	_, err := tables.Shares(SystemBoundary("2030"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBoundary)

	_, err = tables.MedianKgPerM2(SystemBoundary(""))
	assert.ErrorIs(t, err, ErrUnknownBoundary)
}

func TestReferenceTables_MissingKeysFailLoudly(t *testing.T) {
	tables := testTables(t)

	_, err := tables.MethodMultiplier(MethodCLT)
	assert.ErrorIs(t, err, ErrUnknownEnumValue)

	_, err = tables.StructuralMultiplier(Boundary2022, StructuralSteel)
	assert.ErrorIs(t, err, ErrUnknownEnumValue)

	_, err = tables.StructuralMultiplier(SystemBoundary("1999"), StructuralSteel)
	assert.ErrorIs(t, err, ErrUnknownBoundary)

	_, err = tables.TimberIntensity(StructuralSteel)
	assert.ErrorIs(t, err, ErrUnknownEnumValue)

	_, err = tables.Profile(CategoryInteriorWalls)
	assert.ErrorIs(t, err, ErrUnknownEnumValue)

	_, err = tables.ImprovementFactor(Material("wood"))
	assert.ErrorIs(t, err, ErrUnknownEnumValue)
}

func TestReferenceTables_SharesReturnsCopy(t *testing.T) {
	tables := testTables(t)

	entries, err := tables.Shares(Boundary2022)
	require.NoError(t, err)
	entries[0].MedianKgPerM2 = 1e9

	again, err := tables.Shares(Boundary2022)
	require.NoError(t, err)
	assert.Equal(t, 100.0, again[0].MedianKgPerM2)
}

func TestNewReferenceTables_CopiesInput(t *testing.T) {
	c := testCalibration()
	tables, err := NewReferenceTables(c)
	require.NoError(t, err)

	c.MethodMultipliers[MethodPrefabConcrete] = 99
	c.Boundaries[0].Shares[0].Share = 0.9

	v, err := tables.MethodMultiplier(MethodPrefabConcrete)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	entries, err := tables.Shares(Boundary2022)
	require.NoError(t, err)
	assert.Equal(t, 0.5, entries[0].Share)
}

func TestNewReferenceTables_DefaultsImprovementMode(t *testing.T) {
	c := testCalibration()
	c.MaterialImprovement.Mode = ""

	tables, err := NewReferenceTables(c)
	require.NoError(t, err)
	assert.Equal(t, ImprovementWholeCategory, tables.ImprovementMode())
}

func TestNewReferenceTables_RejectsInvalidCalibration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Calibration)
	}{
		{"shares do not sum to one", func(c *Calibration) { c.Boundaries[0].Shares[0].Share = 0.4 }},
		{"zero share", func(c *Calibration) {
			c.Boundaries[0].Shares = append(c.Boundaries[0].Shares, CategoryShare{Category: CategoryFinishesAndInstallations})
		}},
		{"duplicate category", func(c *Calibration) {
			c.Boundaries[0].Shares = []CategoryShare{
				{Category: CategoryFrame, Share: 0.5},
				{Category: CategoryFrame, Share: 0.5},
			}
		}},
		{"category without profile", func(c *Calibration) {
			c.Boundaries[0].Shares[0].Category = CategoryInteriorWalls
		}},
		{"unknown boundary", func(c *Calibration) { c.Boundaries[0].Boundary = "2030" }},
		{"duplicate boundary", func(c *Calibration) { c.Boundaries[1].Boundary = Boundary2022 }},
		{"empty share table", func(c *Calibration) { c.Boundaries[0].Shares = nil }},
		{"zero median", func(c *Calibration) { c.Boundaries[0].MedianKgPerM2 = 0 }},
		{"zero reference form factor", func(c *Calibration) { c.ReferenceFormFactor = 0 }},
		{"reference window share above one", func(c *Calibration) { c.ReferenceWindowShare = 1.2 }},
		{"negative window ratio", func(c *Calibration) { c.WindowToWallIntensityRatio = -1 }},
		{"NaN window ratio", func(c *Calibration) { c.WindowToWallIntensityRatio = math.NaN() }},
		{"zero reference limit", func(c *Calibration) { c.ReferenceLimitKgPerM2 = 0 }},
		{"zero heavy concrete multiplier", func(c *Calibration) { c.HeavyConcreteMultiplier = 0 }},
		{"zero method multiplier", func(c *Calibration) { c.MethodMultipliers[MethodCLT] = 0 }},
		{"unknown method", func(c *Calibration) { c.MethodMultipliers["hybrid"] = 1 }},
		{"unknown structural system", func(c *Calibration) { c.StructuralMultipliers[Boundary2022]["mixed"] = 1 }},
		{"structural multipliers for unknown boundary", func(c *Calibration) {
			c.StructuralMultipliers["2030"] = map[StructuralSystem]float64{StructuralConcrete: 1}
		}},
		{"negative timber", func(c *Calibration) { c.TimberTonPerM2[StructuralSteel] = -0.1 }},
		{"zero garage add-on", func(c *Calibration) { c.Garage.AddOnKgPerM2AtFullCoverage = 0 }},
		{"coverage above one", func(c *Calibration) { c.Garage.DefaultParkingCoverage = 1.5 }},
		{"unknown improvement mode", func(c *Calibration) { c.MaterialImprovement.Mode = "per_product" }},
		{"improvement factor zero", func(c *Calibration) { c.MaterialImprovement.Factors[MaterialSteel] = 0 }},
		{"improvement factor above one", func(c *Calibration) { c.MaterialImprovement.Factors[MaterialSteel] = 1.1 }},
		{"material fractions above one", func(c *Calibration) {
			c.Categories[CategoryFrame].Materials[MaterialAluminum] = 0.5
		}},
		{"garage profiled", func(c *Calibration) { c.Categories[CategoryGarage] = CategoryProfile{} }},
		{"basement profiled", func(c *Calibration) { c.Categories[CategoryBasement] = CategoryProfile{} }},
		{"atemp_to_bta above one", func(c *Calibration) { c.Garage.AtempToBTA = 1.1 }},
		{"negative basement add-on", func(c *Calibration) { c.Garage.BasementAddOnKgPerM2 = -5 }},
		{"negative low-rise factor", func(c *Calibration) { c.LowRise.FactorPerFloor = -0.1 }},
		{"inverted floor height clamp", func(c *Calibration) { c.FloorHeight.MinFactor = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCalibration()
			tt.mutate(&c)

			tables, err := NewReferenceTables(c)
			require.Error(t, err)
			assert.Nil(t, tables)
			assert.ErrorIs(t, err, ErrInvalidTables)
		})
	}
}

func TestReferenceTables_WithWindowToWallRatio(t *testing.T) {
	tables := testTables(t)

	tuned, err := tables.WithWindowToWallRatio(6)
	require.NoError(t, err)
	assert.Equal(t, 6.0, tuned.WindowToWallRatio())
	assert.Equal(t, 3.0, tables.WindowToWallRatio(), "receiver must not change")

	_, err = tables.WithWindowToWallRatio(0)
	assert.ErrorIs(t, err, ErrInvalidTables)
}

func TestReferenceTables_WithImprovementMode(t *testing.T) {
	tables := testTables(t)

	tuned, err := tables.WithImprovementMode(ImprovementMaterialDecomposition)
	require.NoError(t, err)
	assert.Equal(t, ImprovementMaterialDecomposition, tuned.ImprovementMode())
	assert.Equal(t, ImprovementWholeCategory, tables.ImprovementMode())
}

func TestParseTables(t *testing.T) {
	t.Run("embedded document round trips", func(t *testing.T) {
		tables, err := ParseTables(DefaultTablesYAML())
		require.NoError(t, err)
		assert.Equal(t, mustDefaultTables(t).Calibration(), tables.Calibration())
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := ParseTables([]byte("version: x\nwindow_to_wal_ratio: 4\n"))
		assert.ErrorIs(t, err, ErrInvalidTables)
	})

	t.Run("malformed YAML is rejected", func(t *testing.T) {
		_, err := ParseTables([]byte("boundaries: [\n"))
		assert.ErrorIs(t, err, ErrInvalidTables)
	})
}

func TestLoadTables(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTables(t.TempDir() + "/missing.yaml")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidTables)
	})

	t.Run("valid file", func(t *testing.T) {
		path := t.TempDir() + "/tables.yaml"
		require.NoError(t, os.WriteFile(path, DefaultTablesYAML(), 0o600))

		tables, err := LoadTables(path)
		require.NoError(t, err)
		assert.Equal(t, "2024.1", tables.Version())
	})
}
