// Package compliance maps validated answers and country classifications to
// the binary review decision plus the exact evidence used to reach it.
//
// The rules are additive and independent: any one trigger flips the outcome
// to review, and every rule is evaluated even after the first trigger so the
// report carries the full audit trail.
package compliance

import (
	"greenlight/internal/country"
	"greenlight/internal/form"
)

// Trigger identifies one compliance rule that fired.
type Trigger string

const (
	// TriggerInstitutionCountry: an institution country classified as
	// "other" (not UK/EU/US/Canada).
	TriggerInstitutionCountry Trigger = "institution_country"
	// TriggerProjectCountry: a project-access country classified as
	// "other", US, or Canada. US and Canada are benign for the institution
	// check but export-controlled for access.
	TriggerProjectCountry Trigger = "project_country"
	// TriggerUSData: loaded data originates from the USA.
	TriggerUSData Trigger = "us_data"
	// TriggerSensitiveSector: a real sector at TRL 3 or above with any
	// outside-UK presence.
	TriggerSensitiveSector Trigger = "sensitive_sector"
)

// Description returns the audit text for a trigger.
func (t Trigger) Description() string {
	switch t {
	case TriggerInstitutionCountry:
		return "institution has a presence outside the UK, EU, USA and Canada"
	case TriggerProjectCountry:
		return "project access from the USA, Canada or outside the UK and EU"
	case TriggerUSData:
		return "data loaded into the service originates from the USA"
	case TriggerSensitiveSector:
		return "sensitive sector at TRL 3 or above with presence outside the UK"
	default:
		return string(t)
	}
}

// Decision is the derived compliance outcome: the green-flag boolean plus the
// ordered list of triggers that fired. Recomputed at report-generation time,
// never stored independently of the generated report.
type Decision struct {
	GreenFlagged bool
	Triggers     []Trigger
}

// Approved is the default decision when the grant validated independently:
// green-flagged, no triggering conditions.
func Approved() Decision {
	return Decision{GreenFlagged: true}
}

// Decide evaluates the review rules for an advanced-path answer set against
// the classifications of its institution and project-access country sets.
func Decide(a form.Answers, institution, project country.Flags) Decision {
	var triggers []Trigger

	if institution.Other {
		triggers = append(triggers, TriggerInstitutionCountry)
	}
	if project.Other || project.US || project.Canada {
		triggers = append(triggers, TriggerProjectCountry)
	}
	if a.DataOrigin == form.OriginYes {
		triggers = append(triggers, TriggerUSData)
	}
	if hasRealSector(a.Sectors) && a.TRL >= 3 &&
		(institution.OutsideUK || project.OutsideUK) {
		triggers = append(triggers, TriggerSensitiveSector)
	}

	return Decision{
		GreenFlagged: len(triggers) == 0,
		Triggers:     triggers,
	}
}

// hasRealSector reports whether any selected sector is not the "None"
// sentinel.
func hasRealSector(sectors map[string]bool) bool {
	for name, selected := range sectors {
		if selected && name != form.SectorNone {
			return true
		}
	}
	return false
}
