package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"greenlight/internal/compliance"
	"greenlight/internal/country"
	"greenlight/internal/form"
	"greenlight/internal/report"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "form",
		short: "Fill in the compliance form interactively",
		usage: "greenlight form [output.md]",
		long: `Run the interactive compliance form.

Answers are validated progressively: a grant code that the registry
confirms keeps the question set short; otherwise the extended questions
(countries, data origin, TRL, sectors) become mandatory. Once every
required answer is present the report can be generated.

The report is written to output.md (default from
.greenlight/settings.yaml, falling back to compliance-report.md).
`,
		run: runForm,
	},
	{
		name:  "check",
		short: "Assess a YAML answers file and write the report",
		usage: "greenlight check <answers.yaml> [output.md]",
		long: `Assess a pre-filled answers file without the interactive form.

The grant code is resolved against the registry, the same validation
passes run as in the interactive form, and either the per-field
warnings are printed (non-zero exit) or the report is written.

Answers file schema:

  email: researcher@example.ac.uk
  project_title: ...
  project_abstract: ...
  institution: ...
  grant: EP/X012345/1          # optional
  countries_institution: [GB, DE]
  countries_project: [GB]
  data_from_usa: false
  trl: 4
  sectors: [Energy]            # or [None]
`,
		run: runCheck,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "greenlight — research compliance fast-path assessment\n\n")
	fmt.Fprintf(w, "Usage:\n  greenlight <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'greenlight help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "greenlight: unknown command %q\n\nRun 'greenlight help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'greenlight help' for usage.", args[0])
}

// decisionFor computes the compliance decision for a Ready session. The
// simple path means the grant validated independently: green by default with
// no triggering conditions.
func decisionFor(sess *form.Session) compliance.Decision {
	if sess.Path() != form.AdvancedPath {
		return compliance.Approved()
	}
	a := sess.Answers()
	return compliance.Decide(a,
		country.Classify(a.InstitutionCountries),
		country.Classify(a.ProjectCountries))
}

// generateReport assembles and renders the report for a Ready session and
// writes it to path.
func generateReport(sess *form.Session, path string) (report.Payload, error) {
	payload := report.Assemble(sess.Answers(), sess.Grant(), sess.Path(), decisionFor(sess), time.Now())
	doc, err := report.Render(payload)
	if err != nil {
		return report.Payload{}, err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return report.Payload{}, fmt.Errorf("write %s: %w", path, err)
	}
	return payload, nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
