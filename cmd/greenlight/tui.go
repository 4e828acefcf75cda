package main

// tui.go — the interactive compliance form.
//
// One bubbletea model renders the whole progressive form. Text fields feed
// the session on every keystroke; selection fields toggle set members. The
// grant lookup runs as a background command and its result is applied through
// the session's staleness guard, so edits made while a lookup is in flight
// can never be overwritten by a stale result.
//
// Keys: tab/shift+tab move between fields, up/down move within a selection
// field, space toggles, ctrl+v validates, ctrl+g generates once ready.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"greenlight/internal/country"
	"greenlight/internal/form"
	"greenlight/internal/grant"
	"greenlight/internal/settings"
)

// fieldID identifies one logical form field.
type fieldID int

const (
	fEmail fieldID = iota
	fTitle
	fAbstract
	fInstitution
	fGrant
	fInstCountries
	fProjCountries
	fData
	fTRL
	fSectors
)

// questions holds the prompt text per field, in the original form's wording.
var questions = map[fieldID]string{
	fEmail:       "Please enter your email address",
	fTitle:       "Please enter the title of your project",
	fAbstract:    "Please enter a description (or abstract) of your project",
	fInstitution: "Please enter the legal name of the institution (e.g. University) that is responsible for this project",
	fGrant:       "If your project has a grant code associated with it, please enter it here. Otherwise, leave this field blank.",
	fInstCountries: "Which country/ies does the institution(s) involved in the project have a presence in? " +
		"Please select ALL that apply",
	fProjCountries: "Which country/ies are you intending to conduct access from? Please select ALL that apply",
	fData:          "Does any of the data loaded into the service originate from the USA?",
	fTRL:           "What is the highest expected Technology Readiness Level (TRL) of the outputs of this project?",
	fSectors: "Does the project relate to any of these sectors? Please select ALL that apply. " +
		"If none apply, select \"None of the above\"",
}

// warningKeys maps fields to their warning-set keys.
var warningKeys = map[fieldID]string{
	fEmail:         form.FieldEmail,
	fTitle:         form.FieldTitle,
	fAbstract:      form.FieldAbstract,
	fInstitution:   form.FieldInstitution,
	fGrant:         form.FieldGrant,
	fInstCountries: form.FieldInstitutionCountries,
	fProjCountries: form.FieldProjectCountries,
	fData:          form.FieldData,
	fTRL:           form.FieldTRL,
	fSectors:       form.FieldSectors,
}

// trlLabels describes levels 1–9, index 0 = TRL 1.
var trlLabels = []string{
	"TRL 1: Basic principle observed and reported",
	"TRL 2: Technology concept and/or application formed",
	"TRL 3: Analytical and experimental critical function and/or characteristic proof of concept",
	"TRL 4: Technology / component validation in a lab environment",
	"TRL 5: Technology / component validated in relevant environment",
	"TRL 6: System and subsystems model of prototype demonstration in relevant environment",
	"TRL 7: System prototype demonstration in an operational environment",
	"TRL 8: Actual system completed and qualified through testing",
	"TRL 9: Actual system field proven through successful operation",
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	readyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	focusedStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// grantResultMsg carries a finished lookup: the code it was resolved for and
// the record (nil when not validated).
type grantResultMsg struct {
	code string
	rec  *grant.Record
}

// formModel drives the interactive form.
type formModel struct {
	sess     *form.Session
	resolver *grant.Resolver
	timeout  time.Duration
	outPath  string

	inputs    map[fieldID]textinput.Model
	countries []country.Country
	sectors   []string // option labels; last entry is the None sentinel

	focusIdx int             // index into visible()
	cursor   map[fieldID]int // option cursor per selection field

	validating bool
	reportPath string
	err        error
}

func newFormModel(resolver *grant.Resolver, timeout time.Duration, outPath string) formModel {
	inputs := make(map[fieldID]textinput.Model)
	for _, id := range []fieldID{fEmail, fTitle, fAbstract, fInstitution, fGrant} {
		ti := textinput.New()
		ti.CharLimit = 512
		inputs[id] = ti
	}
	ti := inputs[fEmail]
	ti.Focus()
	inputs[fEmail] = ti

	sectors := append([]string{}, form.SectorOptions...)
	sectors = append(sectors, form.SectorNone)

	return formModel{
		sess:      form.NewSession(),
		resolver:  resolver,
		timeout:   timeout,
		outPath:   outPath,
		inputs:    inputs,
		countries: country.List(),
		sectors:   sectors,
		cursor:    make(map[fieldID]int),
	}
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

// visible returns the fields currently on the form, in order. The extended
// fields appear only once the session has latched the advanced path; sectors
// only from TRL 3.
func (m formModel) visible() []fieldID {
	fields := []fieldID{fEmail, fTitle, fAbstract, fInstitution, fGrant}
	if m.sess.Path() == form.AdvancedPath {
		fields = append(fields, fInstCountries, fProjCountries, fData, fTRL)
		if m.sess.Answers().TRL >= 3 {
			fields = append(fields, fSectors)
		}
	}
	return fields
}

func (m formModel) focused() fieldID {
	fields := m.visible()
	if m.focusIdx >= len(fields) {
		return fields[len(fields)-1]
	}
	return fields[m.focusIdx]
}

func isText(id fieldID) bool { return id <= fGrant }

// lookupCmd resolves the current grant code in the background.
func (m formModel) lookupCmd() tea.Cmd {
	code := m.sess.Answers().GrantCode
	resolver := m.resolver
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return grantResultMsg{code: code, rec: resolver.Resolve(ctx, code)}
	}
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case grantResultMsg:
		m.validating = false
		// Stale results (the code changed while the lookup was in flight)
		// are discarded; the user re-validates against the current code.
		if m.sess.ApplyGrantResult(msg.code, msg.rec) {
			m.sess.Validate()
			m.clampFocus()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			return m.moveFocus(1), nil
		case tea.KeyShiftTab:
			return m.moveFocus(-1), nil
		case tea.KeyCtrlV:
			m.validating = true
			return m, m.lookupCmd()
		case tea.KeyCtrlG:
			if !m.sess.Ready() {
				return m, nil
			}
			if _, err := generateReport(m.sess, m.outPath); err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.reportPath = m.outPath
			return m, tea.Quit
		}
		return m.updateField(msg)
	}

	return m.updateFocusedInput(msg)
}

// moveFocus shifts field focus by delta, wrapping, and re-focuses the text
// input under the cursor.
func (m formModel) moveFocus(delta int) formModel {
	fields := m.visible()
	m.focusIdx = (m.focusIdx + delta + len(fields)) % len(fields)
	for id, ti := range m.inputs {
		if id == fields[m.focusIdx] {
			ti.Focus()
		} else {
			ti.Blur()
		}
		m.inputs[id] = ti
	}
	return m
}

// clampFocus keeps the focus index valid when validation shrinks or grows the
// visible field set.
func (m *formModel) clampFocus() {
	if fields := m.visible(); m.focusIdx >= len(fields) {
		m.focusIdx = len(fields) - 1
	}
}

// updateField routes a key to the focused field's widget.
func (m formModel) updateField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.focused()
	if isText(id) {
		return m.updateFocusedInput(msg)
	}

	options := m.optionCount(id)
	switch msg.String() {
	case "up", "k":
		if m.cursor[id] > 0 {
			m.cursor[id]--
		}
	case "down", "j":
		if m.cursor[id] < options-1 {
			m.cursor[id]++
		}
	case " ", "enter":
		m.toggle(id, m.cursor[id])
	}
	return m, nil
}

// updateFocusedInput feeds a message to the focused text input and mirrors
// the new value into the session.
func (m formModel) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	id := m.focused()
	if !isText(id) {
		return m, nil
	}
	ti, cmd := m.inputs[id].Update(msg)
	m.inputs[id] = ti

	switch id {
	case fEmail:
		m.sess.SetEmail(ti.Value())
	case fTitle:
		m.sess.SetTitle(ti.Value())
	case fAbstract:
		m.sess.SetAbstract(ti.Value())
	case fInstitution:
		m.sess.SetInstitution(ti.Value())
	case fGrant:
		m.sess.SetGrantCode(ti.Value())
	}
	return m, cmd
}

func (m formModel) optionCount(id fieldID) int {
	switch id {
	case fInstCountries, fProjCountries:
		return len(m.countries)
	case fData:
		return 2
	case fTRL:
		return len(trlLabels)
	case fSectors:
		return len(m.sectors)
	default:
		return 0
	}
}

// toggle applies a selection at cursor position i for field id.
func (m formModel) toggle(id fieldID, i int) {
	switch id {
	case fInstCountries:
		code := m.countries[i].Code
		m.sess.SetInstitutionCountry(code, !m.sess.Answers().InstitutionCountries[code])
	case fProjCountries:
		code := m.countries[i].Code
		m.sess.SetProjectCountry(code, !m.sess.Answers().ProjectCountries[code])
	case fData:
		if i == 0 {
			m.sess.SetDataOrigin(form.OriginYes)
		} else {
			m.sess.SetDataOrigin(form.OriginNo)
		}
	case fTRL:
		m.sess.SetTRL(i + 1)
	case fSectors:
		name := m.sectors[i]
		m.sess.SetSector(name, !m.sess.Answers().Sectors[name])
	}
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

const optionWindow = 7

func (m formModel) View() string {
	if m.reportPath != "" || m.err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Research Compliance Access Form") + "\n\n")

	for i, id := range m.visible() {
		focused := i == m.focusIdx
		m.renderField(&b, id, focused)
	}

	switch {
	case m.validating:
		b.WriteString(dimStyle.Render("validating grant code…") + "\n")
	case m.sess.Ready():
		b.WriteString(readyStyle.Render("All answers complete — press ctrl+g to generate the report") + "\n")
	}
	b.WriteString(dimStyle.Render("tab/shift+tab fields · ↑/↓ options · space toggle · ctrl+v validate · esc quit") + "\n")
	return b.String()
}

func (m formModel) renderField(b *strings.Builder, id fieldID, focused bool) {
	q := questions[id]
	if focused {
		q = focusedStyle.Render("› " + q)
	} else {
		q = "  " + q
	}
	b.WriteString(q + "\n")

	if w := m.sess.Warning(warningKeys[id]); w != "" {
		b.WriteString("  " + warnStyle.Render(w) + "\n")
	}

	if isText(id) {
		b.WriteString("  " + m.inputs[id].View() + "\n\n")
		return
	}

	if !focused {
		b.WriteString("  " + selectedStyle.Render(m.summary(id)) + "\n\n")
		return
	}
	m.renderOptions(b, id)
	b.WriteString("\n")
}

// summary renders the current selection of an unfocused selection field.
func (m formModel) summary(id fieldID) string {
	a := m.sess.Answers()
	switch id {
	case fInstCountries:
		return orNone(strings.Join(country.Names(a.InstitutionCountries), ", "))
	case fProjCountries:
		return orNone(strings.Join(country.Names(a.ProjectCountries), ", "))
	case fData:
		if a.DataOrigin == form.OriginUnset {
			return "(unanswered)"
		}
		return a.DataOrigin.String()
	case fTRL:
		if a.TRL == 0 {
			return "(unanswered)"
		}
		return trlLabels[a.TRL-1]
	case fSectors:
		var names []string
		for _, s := range m.sectors {
			if a.Sectors[s] {
				names = append(names, s)
			}
		}
		return orNone(strings.Join(names, ", "))
	}
	return ""
}

func orNone(s string) string {
	if s == "" {
		return "(none selected)"
	}
	return s
}

// renderOptions shows a window of options around the cursor.
func (m formModel) renderOptions(b *strings.Builder, id fieldID) {
	count := m.optionCount(id)
	cur := m.cursor[id]

	start := cur - optionWindow/2
	if start > count-optionWindow {
		start = count - optionWindow
	}
	if start < 0 {
		start = 0
	}
	end := start + optionWindow
	if end > count {
		end = count
	}

	if start > 0 {
		b.WriteString(dimStyle.Render("  …") + "\n")
	}
	for i := start; i < end; i++ {
		label, checked := m.option(id, i)
		mark := "[ ]"
		if checked {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, label)
		if i == cur {
			line = focusedStyle.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString("  " + line + "\n")
	}
	if end < count {
		b.WriteString(dimStyle.Render("  …") + "\n")
	}
}

// option returns the label and checked state of option i for field id.
func (m formModel) option(id fieldID, i int) (string, bool) {
	a := m.sess.Answers()
	switch id {
	case fInstCountries:
		c := m.countries[i]
		return c.Name, a.InstitutionCountries[c.Code]
	case fProjCountries:
		c := m.countries[i]
		return c.Name, a.ProjectCountries[c.Code]
	case fData:
		if i == 0 {
			return "Yes", a.DataOrigin == form.OriginYes
		}
		return "No", a.DataOrigin == form.OriginNo
	case fTRL:
		return trlLabels[i], a.TRL == i+1
	case fSectors:
		name := m.sectors[i]
		label := name
		if name == form.SectorNone {
			label = "None of the above"
		}
		return label, a.Sectors[name]
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Entry point
// ---------------------------------------------------------------------------

func runForm(args []string) error {
	cfg, err := settings.Load(".")
	if err != nil {
		return err
	}
	outPath := cfg.Output()
	if len(args) >= 1 {
		outPath = args[0]
	}

	resolver := grant.NewResolver(grant.NewClient(cfg.RegistryURL(), cfg.LookupTimeout()))
	p := tea.NewProgram(newFormModel(resolver, cfg.LookupTimeout(), outPath))
	result, err := p.Run()
	if err != nil {
		return err
	}

	final, ok := result.(formModel)
	if !ok {
		return fmt.Errorf("form aborted")
	}
	if final.err != nil {
		return final.err
	}
	if final.reportPath == "" {
		fmt.Println("no report generated")
		return nil
	}
	fmt.Printf("report written to %s\n", final.reportPath)
	return nil
}
