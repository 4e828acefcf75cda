// Package report assembles the immutable compliance report payload and
// renders it as a markdown document carrying a YAML frontmatter snapshot.
//
// Assembly is pure and total: no network, no mutable state, no clock. A
// payload is created once per successful validation pass and superseded, not
// mutated, by any later edit.
package report

import (
	"strings"
	"time"

	"greenlight/internal/compliance"
	"greenlight/internal/country"
	"greenlight/internal/form"
	"greenlight/internal/grant"
)

// Guidance texts, selected solely by the decision's boolean outcome. Trigger
// reasons are recorded for audit but never shown to the end user.
const (
	guidanceProceed = "Please download and save this report and upload it " +
		"with your research application."
	guidanceReview = "Please download and save this report and email it to " +
		"your research office, together with a copy of your project " +
		"proposal. They will be able to advise whether you need to take " +
		"any further action before submitting your research application."
)

// Payload is the immutable report snapshot consumed by the renderer.
type Payload struct {
	GeneratedAt  string           `yaml:"generated_at"`
	GreenFlagged bool             `yaml:"green_flagged"`
	Triggers     []string         `yaml:"triggers,omitempty"`
	Guidance     string           `yaml:"guidance"`
	Email        string           `yaml:"email"`
	Title        string           `yaml:"project_title"`
	Abstract     string           `yaml:"project_abstract"`
	Institution  string           `yaml:"institution"`
	Grant        *GrantSection    `yaml:"grant,omitempty"`
	Advanced     *AdvancedSection `yaml:"advanced,omitempty"`
}

// GrantSection is present whenever a non-blank grant code was entered,
// validated or not.
type GrantSection struct {
	Code         string `yaml:"code"`
	Validated    bool   `yaml:"validated"`
	CanonicalURL string `yaml:"canonical_url,omitempty"`
	MetadataURL  string `yaml:"metadata_url,omitempty"`
}

// AdvancedSection is present iff the advanced path was taken. Country lists
// hold names in canonical reference order, not input order.
type AdvancedSection struct {
	InstitutionCountries []string `yaml:"countries_institution"`
	ProjectCountries     []string `yaml:"countries_project"`
	DataOrigin           string   `yaml:"data_from_usa"`
	TRL                  int      `yaml:"trl"`
	Sectors              []string `yaml:"sectors,omitempty"`
}

// Assemble builds the report payload from a validated answer set, the trusted
// grant record (nil when not validated), the session's path, and the
// compliance decision. All free-text fields are trimmed.
func Assemble(a form.Answers, rec *grant.Record, path form.Path, d compliance.Decision, at time.Time) Payload {
	p := Payload{
		GeneratedAt:  at.UTC().Format(time.RFC3339),
		GreenFlagged: d.GreenFlagged,
		Guidance:     guidanceProceed,
		Email:        strings.TrimSpace(a.Email),
		Title:        strings.TrimSpace(a.Title),
		Abstract:     strings.TrimSpace(a.Abstract),
		Institution:  strings.TrimSpace(a.Institution),
	}
	if !d.GreenFlagged {
		p.Guidance = guidanceReview
	}
	for _, t := range d.Triggers {
		p.Triggers = append(p.Triggers, t.Description())
	}

	if code := strings.TrimSpace(a.GrantCode); code != "" {
		gs := &GrantSection{Code: code}
		if rec != nil {
			gs.Validated = true
			gs.CanonicalURL = rec.CanonicalURL
			gs.MetadataURL = rec.MetadataURL
		}
		p.Grant = gs
	}

	if path == form.AdvancedPath {
		p.Advanced = &AdvancedSection{
			InstitutionCountries: country.Names(a.InstitutionCountries),
			ProjectCountries:     country.Names(a.ProjectCountries),
			DataOrigin:           a.DataOrigin.String(),
			TRL:                  a.TRL,
			Sectors:              orderedSectors(a.Sectors),
		}
	}

	return p
}

// orderedSectors lists selected sectors in presentation order, the "None"
// sentinel last. Nil when nothing is selected so the section is omitted
// entirely.
func orderedSectors(sectors map[string]bool) []string {
	var out []string
	for _, name := range form.SectorOptions {
		if sectors[name] {
			out = append(out, name)
		}
	}
	if sectors[form.SectorNone] {
		out = append(out, form.SectorNone)
	}
	return out
}
