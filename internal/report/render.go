package report

// render.go — markdown rendering of a report payload.
//
// The document carries the full payload as YAML frontmatter between ---
// delimiters, followed by a human-readable body. The frontmatter is the
// machine-consumable snapshot; the body is what a reviewer reads.

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Render produces the complete report document for a payload.
func Render(p Payload) ([]byte, error) {
	fm, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("report: marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	buf.WriteString(renderBody(p))
	return buf.Bytes(), nil
}

// Parse splits a rendered report back into its payload and body. Used by
// consumers that post-process generated reports.
func Parse(data []byte) (Payload, string, error) {
	const delim = "---\n"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return Payload{}, "", fmt.Errorf("report: missing opening --- delimiter")
	}
	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return Payload{}, "", fmt.Errorf("report: missing closing --- delimiter")
	}
	var p Payload
	if err := yaml.Unmarshal(rest[:idx], &p); err != nil {
		return Payload{}, "", fmt.Errorf("report: unmarshal frontmatter: %w", err)
	}
	body := rest[idx+4:]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	return p, string(body), nil
}

func renderBody(p Payload) string {
	var b strings.Builder

	b.WriteString("# Research Compliance Assessment\n\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", p.GeneratedAt))
	b.WriteString("> " + p.Guidance + "\n\n")

	b.WriteString("## Applicant\n\n")
	b.WriteString(fmt.Sprintf("- **Email**: %s\n", p.Email))
	b.WriteString(fmt.Sprintf("- **Institution**: %s\n", p.Institution))
	if p.Grant != nil {
		if p.Grant.Validated {
			ref := p.Grant.Code
			if p.Grant.CanonicalURL != "" {
				ref = fmt.Sprintf("[%s](%s)", p.Grant.Code, p.Grant.CanonicalURL)
			}
			b.WriteString(fmt.Sprintf("- **Grant**: %s\n", ref))
			if p.Grant.MetadataURL != "" {
				b.WriteString(fmt.Sprintf("- **Grant metadata**: %s\n", p.Grant.MetadataURL))
			}
		} else {
			b.WriteString(fmt.Sprintf("- **Grant**: %s — NOT VALIDATED\n", p.Grant.Code))
		}
	}

	b.WriteString("\n## Project\n\n")
	b.WriteString(fmt.Sprintf("**%s**\n\n", p.Title))
	b.WriteString(p.Abstract + "\n")

	if a := p.Advanced; a != nil {
		b.WriteString("\n## Details\n\n")
		b.WriteString(fmt.Sprintf("- **Country/ies of institution**: %s\n",
			strings.Join(a.InstitutionCountries, ", ")))
		b.WriteString(fmt.Sprintf("- **Country/ies that will access the project**: %s\n",
			strings.Join(a.ProjectCountries, ", ")))
		b.WriteString(fmt.Sprintf("- **Contains data from USA**: %s\n", a.DataOrigin))
		b.WriteString(fmt.Sprintf("- **Technology Readiness Level**: %d\n", a.TRL))
		if len(a.Sectors) > 0 {
			b.WriteString(fmt.Sprintf("- **Sectors**: %s\n", strings.Join(a.Sectors, ", ")))
		}
	}

	return b.String()
}
