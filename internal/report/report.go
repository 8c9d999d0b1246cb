// Package report renders screening results as localized plain text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rshade/klimatmodell/internal/climate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const unitKg = "kg CO2e/m² BTA"

var (
	supported = []language.Tag{language.Swedish, language.English}
	matcher   = language.NewMatcher(supported)
)

// Supported returns the list of supported language tags.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Default returns the default language tag.
func Default() language.Tag {
	return language.Swedish
}

// ResolveTag maps a locale string such as "sv_SE.UTF-8" or "en-US" to a
// supported tag. Unknown or empty values resolve to Default.
func ResolveTag(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" {
		return Default()
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return Default()
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default()
	}
	return supported[idx]
}

// Renderer writes reports for one language.
type Renderer struct {
	p *message.Printer
}

// NewRenderer returns a renderer printing numbers and labels for tag.
func NewRenderer(tag language.Tag) *Renderer {
	return &Renderer{p: message.NewPrinter(tag)}
}

func (r *Renderer) category(c climate.Category) string {
	return r.p.Sprintf("category." + string(c))
}

// Assessment writes the breakdown, the reference comparison, the timber
// figure and any advisory notes.
func (r *Renderer) Assessment(w io.Writer, params climate.BuildingParameters, a climate.Assessment) error {
	var b strings.Builder
	p := r.p

	b.WriteString(p.Sprintf("report.title", string(a.Emissions.Boundary)))
	b.WriteString("\n")
	b.WriteString(p.Sprintf("report.building", climate.Describe(params)))
	b.WriteString("\n\n")

	for _, entry := range a.Emissions.Categories {
		b.WriteString(p.Sprintf("  %-36s %8.1f %s\n", r.category(entry.Category), entry.KgPerM2, unitKg))
	}
	b.WriteString(p.Sprintf("  %-36s %8.1f %s\n", p.Sprintf("report.total"), a.Emissions.TotalKgPerM2, unitKg))
	b.WriteString(p.Sprintf("  %-36s %8.3f\n", p.Sprintf("report.total_ton"), a.Emissions.TotalTonPerM2))
	b.WriteString("\n")
	b.WriteString(p.Sprintf("  %-36s %8.1f %s\n", p.Sprintf("report.reference"), a.ReferenceKgPerM2, unitKg))
	b.WriteString(p.Sprintf("  %-36s %8.1f %s (%.1f %%)\n", p.Sprintf("report.delta"), a.DeltaKgPerM2, unitKg, a.DeltaPercent))
	b.WriteString(p.Sprintf("  %-36s %8.3f\n", p.Sprintf("report.timber"), a.TimberTonPerM2))

	if len(a.Notes) > 0 {
		b.WriteString("\n")
		b.WriteString(p.Sprintf("report.notes"))
		b.WriteString("\n")
		for _, note := range a.Notes {
			b.WriteString("  - " + note + "\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Shares writes a boundary's share table.
func (r *Renderer) Shares(w io.Writer, tables *climate.ReferenceTables, boundary climate.SystemBoundary) error {
	entries, err := tables.Shares(boundary)
	if err != nil {
		return err
	}
	median, err := tables.MedianKgPerM2(boundary)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(r.p.Sprintf("report.shares_title", string(boundary), median))
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString(r.p.Sprintf("  %-36s %5.0f %% %8.1f %s\n", r.category(e.Category), e.Share*100, e.MedianKgPerM2, unitKg))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing share table: %w", err)
	}
	return nil
}

// Timber writes the timber screening figure for a structural system.
func (r *Renderer) Timber(w io.Writer, system climate.StructuralSystem, tonPerM2 float64) error {
	if _, err := io.WriteString(w, r.p.Sprintf("report.timber_line", string(system), tonPerM2)+"\n"); err != nil {
		return fmt.Errorf("writing timber figure: %w", err)
	}
	return nil
}
