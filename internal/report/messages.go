package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	register(language.English, map[string]string{
		"report.title":            "Embodied carbon screening (A1-A5), system boundary %s",
		"report.building":         "Building: %s",
		"report.total":            "Total",
		"report.total_ton":        "Total (ton CO2e/m² BTA)",
		"report.reference":        "Reference limit",
		"report.delta":            "Difference",
		"report.timber":           "Timber, not in total (ton/m² BTA)",
		"report.notes":            "Notes:",
		"report.shares_title":     "Reference shares, system boundary %s (median %.0f kg CO2e/m² BTA)",
		"report.timber_line":      "Timber for %s frame: %.3f ton/m² BTA",
		"category.frame":          "Frame",
		"category.foundation":     "Foundation",
		"category.envelope":       "Envelope",
		"category.interior-walls": "Interior walls",
		"category.garage":         "Garage",
		"category.basement":       "Basement",

		"category.finishes-and-installations": "Finishes and installations",
	})

	register(language.Swedish, map[string]string{
		"report.title":            "Klimatscreening (A1-A5), systemgräns %s",
		"report.building":         "Byggnad: %s",
		"report.total":            "Totalt",
		"report.total_ton":        "Totalt (ton CO2e/m² BTA)",
		"report.reference":        "Referensvärde",
		"report.delta":            "Skillnad",
		"report.timber":           "Virke, ingår ej i totalen (ton/m² BTA)",
		"report.notes":            "Anmärkningar:",
		"report.shares_title":     "Referensandelar, systemgräns %s (median %.0f kg CO2e/m² BTA)",
		"report.timber_line":      "Virke för stomme av %s: %.3f ton/m² BTA",
		"category.frame":          "Stomme",
		"category.foundation":     "Grundläggning",
		"category.envelope":       "Klimatskal",
		"category.interior-walls": "Innerväggar",
		"category.garage":         "Garage",
		"category.basement":       "Källare",

		"category.finishes-and-installations": "Ytskikt och installationer",
	})
}

func register(tag language.Tag, messages map[string]string) {
	for key, msg := range messages {
		if err := message.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}
}
