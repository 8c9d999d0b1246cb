package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rshade/klimatmodell/internal/climate"
	"github.com/rshade/klimatmodell/internal/metrics"
	"github.com/rshade/klimatmodell/internal/report"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type estimateOptions struct {
	paramsPath      string
	output          string
	doc             climate.ParameterDocument
	parkingCoverage float64
	atempToBTA      float64
	timberOverride  float64
	improve         []string
}

func estimateCmd(a *app) *cobra.Command {
	o := &estimateOptions{}

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate A1-A5 emissions per m² BTA for one building",
		Long: `Estimate A1-A5 emissions per m² BTA for one building.

Parameters are read from flags, or from a YAML document given with --params.
Flags set explicitly on the command line override values in the document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := o.document(cmd)
			if err != nil {
				return err
			}
			return a.runEstimate(cmd.OutOrStdout(), doc, o.output)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.paramsPath, "params", "", "YAML parameter document")
	f.StringVarP(&o.output, "output", "o", outputText, "output format (text, json or yaml)")
	f.Float64Var(&o.doc.FormFactor, "form-factor", 0.45, "thermal envelope area divided by BTA (Aom/BTA)")
	f.Float64Var(&o.doc.WindowShare, "window-share", 0.20, "glazed fraction of the envelope area")
	f.StringVar(&o.doc.StructuralSystem, "structural-system", string(climate.StructuralConcrete), "concrete, timber or steel")
	f.StringVar(&o.doc.ConstructionMethod, "method", string(climate.MethodPrefabConcrete), "construction method")
	f.StringVar(&o.doc.SystemBoundary, "boundary", string(climate.Boundary2022), "system boundary (2022 or 2027)")
	f.BoolVar(&o.doc.HasBasementOrGarage, "garage", false, "building has a basement or garage")
	f.Float64Var(&o.parkingCoverage, "parking-coverage", 0, "parking coverage fraction for the garage add-on (default from tables)")
	f.Float64Var(&o.atempToBTA, "atemp-to-bta", 0, "Atemp/BTA ratio for the garage add-on (default from tables)")
	f.BoolVar(&o.doc.BasementWithoutGarage, "basement", false, "building has a basement without garage")
	f.BoolVar(&o.doc.ClimateImproved, "climate-improved", false, "use climate-improved concrete, steel and aluminum")
	f.StringSliceVar(&o.improve, "improve", nil, "material improvement levels, e.g. concrete=1,steel=0.5")
	f.IntVar(&o.doc.Floors, "floors", 0, "number of floors above ground")
	f.Float64Var(&o.doc.BuildingHeightM, "height", 0, "building height in meters")
	f.BoolVar(&o.doc.HeavyConcreteDesign, "heavy-concrete", false, "massive concrete design")
	f.Float64Var(&o.timberOverride, "timber-override", 0, "timber intensity in ton/m² BTA replacing the table value")

	return cmd
}

// document builds the parameter document from --params and the flags.
func (o *estimateOptions) document(cmd *cobra.Command) (climate.ParameterDocument, error) {
	improvement, err := parseImprovements(o.improve)
	if err != nil {
		return climate.ParameterDocument{}, err
	}

	flags := o.doc
	flags.MaterialImprovement = improvement
	if cmd.Flags().Changed("parking-coverage") {
		flags.ParkingCoverage = &o.parkingCoverage
	}
	if cmd.Flags().Changed("atemp-to-bta") {
		flags.AtempToBTA = &o.atempToBTA
	}
	if cmd.Flags().Changed("timber-override") {
		flags.TimberOverrideTonPerM2 = &o.timberOverride
	}

	if o.paramsPath == "" {
		return flags, nil
	}

	doc, err := climate.LoadParameterDocument(o.paramsPath)
	if err != nil {
		return climate.ParameterDocument{}, err
	}

	overrides := map[string]func(){
		"form-factor":       func() { doc.FormFactor = flags.FormFactor },
		"window-share":      func() { doc.WindowShare = flags.WindowShare },
		"structural-system": func() { doc.StructuralSystem = flags.StructuralSystem },
		"method":            func() { doc.ConstructionMethod = flags.ConstructionMethod },
		"boundary":          func() { doc.SystemBoundary = flags.SystemBoundary },
		"garage":            func() { doc.HasBasementOrGarage = flags.HasBasementOrGarage },
		"parking-coverage":  func() { doc.ParkingCoverage = flags.ParkingCoverage },
		"atemp-to-bta":      func() { doc.AtempToBTA = flags.AtempToBTA },
		"basement":          func() { doc.BasementWithoutGarage = flags.BasementWithoutGarage },
		"climate-improved":  func() { doc.ClimateImproved = flags.ClimateImproved },
		"improve":           func() { doc.MaterialImprovement = flags.MaterialImprovement },
		"floors":            func() { doc.Floors = flags.Floors },
		"height":            func() { doc.BuildingHeightM = flags.BuildingHeightM },
		"heavy-concrete":    func() { doc.HeavyConcreteDesign = flags.HeavyConcreteDesign },
		"timber-override":   func() { doc.TimberOverrideTonPerM2 = flags.TimberOverrideTonPerM2 },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return doc, nil
}

// parseImprovements parses "material" or "material=level" entries.
// A bare material name means level 1.
func parseImprovements(entries []string) (map[string]float64, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(entries))
	for _, entry := range entries {
		name, value, found := strings.Cut(entry, "=")
		level := 1.0
		if found {
			v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid improvement level %q for %s: %w", value, name, err)
			}
			level = v
		}
		out[strings.TrimSpace(name)] = level
	}
	return out, nil
}

func (a *app) runEstimate(w io.Writer, doc climate.ParameterDocument, output string) error {
	params, err := doc.BuildingParameters()
	if err != nil {
		return err
	}

	assessment, err := a.calc.Assess(params)
	metrics.RecordCalculation(params.SystemBoundary, assessment.Emissions.TotalKgPerM2, err)
	if err != nil {
		return err
	}

	a.logger.Debug().
		Str("boundary", string(params.SystemBoundary)).
		Float64("total_kg_per_m2", assessment.Emissions.TotalKgPerM2).
		Msg("assessment computed")

	switch output {
	case outputJSON:
		return writeJSON(w, assessment)
	case outputYAML:
		return writeYAML(w, assessment)
	case outputText:
		return report.NewRenderer(a.tag).Assessment(w, params, assessment)
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
}

func timberCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "timber [structural-system]",
		Short: "Show the timber screening figure for a structural system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := climate.ParseStructuralSystem(args[0])
			if err != nil {
				return err
			}
			ton, err := a.calc.EstimateTimber(system)
			if err != nil {
				return err
			}

			switch output {
			case outputJSON:
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"structural_system": system,
					"timber_ton_per_m2": ton,
				})
			case outputText:
				return report.NewRenderer(a.tag).Timber(cmd.OutOrStdout(), system, ton)
			default:
				return fmt.Errorf("unsupported output format %q", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text or json)")
	return cmd
}

func tablesCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tables [boundary]",
		Short: "Show a boundary's reference share table, or dump the full calibration with --output yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := a.calc.Tables()
			if output == outputYAML {
				return writeYAML(cmd.OutOrStdout(), tables.Calibration())
			}

			boundaries := climate.SystemBoundaries
			if len(args) == 1 {
				b, err := climate.ParseSystemBoundary(args[0])
				if err != nil {
					return err
				}
				boundaries = []climate.SystemBoundary{b}
			}

			renderer := report.NewRenderer(a.tag)
			for _, b := range boundaries {
				if err := renderer.Shares(cmd.OutOrStdout(), tables, b); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text or yaml)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}
