package main

// check.go — non-interactive assessment of a YAML answers file.

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"greenlight/internal/form"
	"greenlight/internal/grant"
	"greenlight/internal/settings"
)

// answersFile is the YAML schema accepted by "greenlight check". Country and
// sector entries are lists in the file; the session keeps them as sets.
type answersFile struct {
	Email                string   `yaml:"email"`
	ProjectTitle         string   `yaml:"project_title"`
	ProjectAbstract      string   `yaml:"project_abstract"`
	Institution          string   `yaml:"institution"`
	Grant                string   `yaml:"grant"`
	CountriesInstitution []string `yaml:"countries_institution"`
	CountriesProject     []string `yaml:"countries_project"`
	DataFromUSA          *bool    `yaml:"data_from_usa"` // absent → unanswered
	TRL                  int      `yaml:"trl"`
	Sectors              []string `yaml:"sectors"`
}

// apply feeds the file's answers through the session's update entry points,
// exactly as the interactive form would.
func (f *answersFile) apply(sess *form.Session) {
	sess.SetEmail(f.Email)
	sess.SetTitle(f.ProjectTitle)
	sess.SetAbstract(f.ProjectAbstract)
	sess.SetInstitution(f.Institution)
	sess.SetGrantCode(f.Grant)
	for _, code := range f.CountriesInstitution {
		sess.SetInstitutionCountry(code, true)
	}
	for _, code := range f.CountriesProject {
		sess.SetProjectCountry(code, true)
	}
	if f.DataFromUSA != nil {
		if *f.DataFromUSA {
			sess.SetDataOrigin(form.OriginYes)
		} else {
			sess.SetDataOrigin(form.OriginNo)
		}
	}
	sess.SetTRL(f.TRL)
	for _, name := range f.Sectors {
		sess.SetSector(name, true)
	}
}

func runCheck(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: greenlight check <answers.yaml> [output.md]")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	var answers answersFile
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return fmt.Errorf("parse answers %s: %w", args[0], err)
	}

	cfg, err := settings.Load(".")
	if err != nil {
		return err
	}
	outPath := cfg.Output()
	if len(args) >= 2 {
		outPath = args[1]
	}

	sess := form.NewSession()
	answers.apply(sess)

	// Resolve the grant before validating, as the interactive flow does.
	resolver := grant.NewResolver(grant.NewClient(cfg.RegistryURL(), cfg.LookupTimeout()))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LookupTimeout())
	defer cancel()
	sess.ApplyGrantResult(answers.Grant, resolver.Resolve(ctx, answers.Grant))

	// An unvalidated grant fails the first pass while latching the extended
	// question set; a second pass checks the file's extended answers.
	if !sess.Validate() {
		sess.Validate()
	}

	if !sess.Ready() {
		warnings := sess.Warnings()
		fields := make([]string, 0, len(warnings))
		for field := range warnings {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, warnings[field])
		}
		return fmt.Errorf("%d answer(s) missing or invalid", len(warnings))
	}

	payload, err := generateReport(sess, outPath)
	if err != nil {
		return err
	}
	if payload.GreenFlagged {
		fmt.Printf("green-flagged — report written to %s\n", outPath)
	} else {
		fmt.Printf("needs review — report written to %s\n", outPath)
	}
	return nil
}
