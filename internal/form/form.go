// Package form owns the single-session answer set and the progressive
// validation state machine that decides which questions are mandatory given
// prior answers and the grant validator's last result.
//
// All mutation flows through one Session method per logical field; every
// mutation drops the Ready state. The presentation layer supplies primitive
// values and reacts to the resulting state — it never reaches into the
// session's internals.
package form

import (
	"net/mail"
	"strings"

	"greenlight/internal/grant"
)

// DataOrigin answers "does any loaded data originate from the USA?".
type DataOrigin int

const (
	OriginUnset DataOrigin = iota
	OriginNo
	OriginYes
)

// String renders the report text for a DataOrigin. Unset renders as "No";
// validation guarantees the advanced section is never assembled while unset.
func (d DataOrigin) String() string {
	if d == OriginYes {
		return "Yes"
	}
	return "No"
}

// SectorNone is the mutually-exclusive "None of the above" sentinel.
const SectorNone = "None"

// SectorOptions lists the real sector tags, in presentation order. SectorNone
// is not included; it is always offered last.
var SectorOptions = []string{
	"Advanced Materials",
	"Advanced Robotics",
	"Artificial Intelligence",
	"Civil Nuclear",
	"Communications",
	"Computing Hardware",
	"Critical Suppliers to Government",
	"Cryptographic Authentication",
	"Data Infrastructure",
	"Defence",
	"Energy",
	"Military and Dual-Use",
	"Quantum Technologies",
	"Satellite and Space Technologies",
	"Suppliers to the Emergency Services",
	"Synthetic Biology",
	"Transport",
}

// Answers is the mutable record of user input for one session.
type Answers struct {
	Email                string
	Title                string
	Abstract             string
	Institution          string
	GrantCode            string
	InstitutionCountries map[string]bool
	ProjectCountries     map[string]bool
	DataOrigin           DataOrigin
	TRL                  int // 0 = unset, 1–9 valid
	Sectors              map[string]bool
}

// Path is the question-set branch the session is on.
type Path int

const (
	// SimplePath: the grant validated (or no pass has failed the grant gate
	// yet); only the four always-required fields apply.
	SimplePath Path = iota
	// AdvancedPath: the grant could not be validated; the extended question
	// set applies. Entered as a one-way latch by a failed grant gate and
	// left only by the grant becoming valid.
	AdvancedPath
)

// Session is the single-user validation state machine. Not safe for
// concurrent mutation — all edits are serialized user actions; the only
// asynchronous input is a grant lookup result, applied through
// ApplyGrantResult's staleness guard.
type Session struct {
	answers  Answers
	grant    *grant.Record
	warnings map[string]string
	path     Path
	ready    bool
}

// NewSession returns an empty session in the Editing state on the simple path.
func NewSession() *Session {
	return &Session{
		answers: Answers{
			InstitutionCountries: make(map[string]bool),
			ProjectCountries:     make(map[string]bool),
			Sectors:              make(map[string]bool),
		},
		warnings: make(map[string]string),
	}
}

// invalidate drops any previously computed readiness. Fires on every field
// mutation: Ready → Editing.
func (s *Session) invalidate() {
	s.ready = false
}

// ---------------------------------------------------------------------------
// Field update entry points (one per logical field)
// ---------------------------------------------------------------------------

func (s *Session) SetEmail(v string)       { s.invalidate(); s.answers.Email = v }
func (s *Session) SetTitle(v string)       { s.invalidate(); s.answers.Title = v }
func (s *Session) SetAbstract(v string)    { s.invalidate(); s.answers.Abstract = v }
func (s *Session) SetInstitution(v string) { s.invalidate(); s.answers.Institution = v }

// SetGrantCode records a new grant code. Any cached grant record stops being
// trusted the moment the code differs from its identifier; trust is derived
// by comparison, never by flag.
func (s *Session) SetGrantCode(v string) {
	s.invalidate()
	s.answers.GrantCode = v
}

// SetInstitutionCountry selects or deselects one institution country code.
func (s *Session) SetInstitutionCountry(code string, selected bool) {
	s.invalidate()
	setMember(s.answers.InstitutionCountries, code, selected)
}

// SetProjectCountry selects or deselects one project-access country code.
func (s *Session) SetProjectCountry(code string, selected bool) {
	s.invalidate()
	setMember(s.answers.ProjectCountries, code, selected)
}

func (s *Session) SetDataOrigin(v DataOrigin) {
	s.invalidate()
	s.answers.DataOrigin = v
}

// SetTRL records the technology-readiness level. Values outside 0–9 reset to
// unset rather than erroring — updates are total over their input type.
func (s *Session) SetTRL(level int) {
	s.invalidate()
	if level < 0 || level > 9 {
		level = 0
	}
	s.answers.TRL = level
}

// SetSector selects or deselects one sector tag, maintaining mutual exclusion
// between the SectorNone sentinel and all real tags: selecting SectorNone
// clears every other selection; selecting a real tag clears SectorNone.
func (s *Session) SetSector(name string, selected bool) {
	s.invalidate()
	if !selected {
		delete(s.answers.Sectors, name)
		return
	}
	if name == SectorNone {
		s.answers.Sectors = map[string]bool{SectorNone: true}
		return
	}
	delete(s.answers.Sectors, SectorNone)
	s.answers.Sectors[name] = true
}

// ApplyGrantResult applies an asynchronous lookup outcome to the session.
// The result is discarded when code no longer equals the session's current
// grant code — only the freshest lookup may update state. Reports whether the
// result was applied.
func (s *Session) ApplyGrantResult(code string, rec *grant.Record) bool {
	if code != s.answers.GrantCode {
		return false
	}
	s.grant = rec
	return true
}

// ---------------------------------------------------------------------------
// Derived state
// ---------------------------------------------------------------------------

// Answers returns a deep copy of the current answer set.
func (s *Session) Answers() Answers {
	a := s.answers
	a.InstitutionCountries = copySet(s.answers.InstitutionCountries)
	a.ProjectCountries = copySet(s.answers.ProjectCountries)
	a.Sectors = copySet(s.answers.Sectors)
	return a
}

// Warnings returns a copy of the warning set from the last validation pass.
func (s *Session) Warnings() map[string]string {
	out := make(map[string]string, len(s.warnings))
	for k, v := range s.warnings {
		out[k] = v
	}
	return out
}

// Warning returns the message for one field, or "".
func (s *Session) Warning(field string) string { return s.warnings[field] }

// Ready reports whether the last validation pass completed with zero
// warnings and no field has been mutated since.
func (s *Session) Ready() bool { return s.ready }

// Path returns the current question-set branch.
func (s *Session) Path() Path { return s.path }

// Grant returns the validated grant record, or nil. A record is only trusted
// while its identifier exactly equals the current grant code.
func (s *Session) Grant() *grant.Record {
	if s.grant != nil && s.grant.Reference == s.answers.GrantCode {
		return s.grant
	}
	return nil
}

// grantValid is the grant-gate input to a validation pass.
func (s *Session) grantValid() bool { return s.Grant() != nil }

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Warning set field keys.
const (
	FieldEmail                = "email"
	FieldTitle                = "project_title"
	FieldAbstract             = "project_abstract"
	FieldInstitution          = "institution"
	FieldGrant                = "grant"
	FieldInstitutionCountries = "countries_institution"
	FieldProjectCountries     = "countries_project"
	FieldData                 = "data"
	FieldTRL                  = "trl"
	FieldSectors              = "sectors"
)

// Validate runs one validation pass: the warning set is regenerated
// wholesale, the advanced-path latch advances, and readiness is recomputed.
// Returns true when the pass completed with zero warnings.
func (s *Session) Validate() bool {
	warnings := make(map[string]string)

	if !validEmail(s.answers.Email) {
		warnings[FieldEmail] = "You must enter a valid email address"
	}
	if strings.TrimSpace(s.answers.Title) == "" {
		warnings[FieldTitle] = "You must enter a project title"
	}
	if strings.TrimSpace(s.answers.Abstract) == "" {
		warnings[FieldAbstract] = "You must enter a project abstract"
	}
	if strings.TrimSpace(s.answers.Institution) == "" {
		warnings[FieldInstitution] = "You must enter an institution"
	}

	// Grant gate. A valid grant leaves the advanced path; an invalid grant
	// latches it on — but the extended checks only apply from the next pass,
	// exactly one pass after first detection.
	advanced := s.path == AdvancedPath
	if s.grantValid() {
		s.path = SimplePath
		advanced = false
	} else if !advanced {
		warnings[FieldGrant] = "Invalid grant code"
		s.path = AdvancedPath
	}

	if advanced {
		if countSelected(s.answers.InstitutionCountries) == 0 {
			warnings[FieldInstitutionCountries] = "You must select at least one country for the institution"
		}
		if countSelected(s.answers.ProjectCountries) == 0 {
			warnings[FieldProjectCountries] = "You must select at least one country for the project"
		}
		if s.answers.DataOrigin == OriginUnset {
			warnings[FieldData] = "You must say whether data originates from the USA"
		}
		if s.answers.TRL == 0 {
			warnings[FieldTRL] = "You must select the TRL level"
		}
		if s.answers.TRL >= 3 && countSelected(s.answers.Sectors) == 0 {
			warnings[FieldSectors] = "You must select at least one sector"
		}
	}

	s.warnings = warnings
	s.ready = len(warnings) == 0
	return s.ready
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// validEmail applies a standard syntax check: a single parseable address with
// no display name and a dotted domain.
func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Name != "" || addr.Address != v {
		return false
	}
	at := strings.LastIndex(v, "@")
	return strings.Contains(v[at+1:], ".")
}

func setMember(set map[string]bool, key string, selected bool) {
	if selected {
		set[key] = true
	} else {
		delete(set, key)
	}
}

func countSelected(set map[string]bool) int {
	n := 0
	for _, selected := range set {
		if selected {
			n++
		}
	}
	return n
}

func copySet(set map[string]bool) map[string]bool {
	out := make(map[string]bool, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}
