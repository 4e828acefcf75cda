package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupWorkspace chdirs into a temp dir with a settings file pointing the
// registry at url, and returns the dir.
func setupWorkspace(t *testing.T, url string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".greenlight"), 0o755); err != nil {
		t.Fatal(err)
	}
	settings := fmt.Sprintf("registry:\n  url: %s\n  timeout_seconds: 2\n", url)
	if err := os.WriteFile(filepath.Join(dir, ".greenlight", "settings.yaml"), []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	return dir
}

func writeAnswers(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "answers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeRegistry serves a single known grant reference.
func fakeRegistry(t *testing.T, ref string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != ref {
			fmt.Fprint(w, `{"project":[]}`)
			return
		}
		fmt.Fprintf(w, `{"project":[{"grantReference":%q,"href":"https://registry.example/p/1"}]}`, ref)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestCheckValidGrantWritesReport: a registry-confirmed grant keeps the
// assessment on the short question set and writes a green-flagged report.
func TestCheckValidGrantWritesReport(t *testing.T) {
	srv := fakeRegistry(t, "EP/X012345/1")
	dir := setupWorkspace(t, srv.URL)
	answers := writeAnswers(t, dir, `
email: researcher@example.ac.uk
project_title: Coastal erosion modelling
project_abstract: A study of coastal erosion
institution: Example University
grant: EP/X012345/1
`)

	out := filepath.Join(dir, "report.md")
	if err := runCheck([]string{answers, out}); err != nil {
		t.Fatalf("runCheck: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	doc := string(data)
	if !strings.Contains(doc, "green_flagged: true") {
		t.Error("report should be green-flagged")
	}
	if !strings.Contains(doc, "EP/X012345/1") {
		t.Error("report missing grant reference")
	}
}

// TestCheckUnknownGrantNeedsExtendedAnswers: an unvalidated grant with no
// extended answers fails with per-field warnings and writes nothing.
func TestCheckUnknownGrantNeedsExtendedAnswers(t *testing.T) {
	srv := fakeRegistry(t, "EP/X012345/1")
	dir := setupWorkspace(t, srv.URL)
	answers := writeAnswers(t, dir, `
email: researcher@example.ac.uk
project_title: Coastal erosion modelling
project_abstract: A study of coastal erosion
institution: Example University
grant: NOT/A/GRANT
`)

	out := filepath.Join(dir, "report.md")
	err := runCheck([]string{answers, out})
	if err == nil {
		t.Fatal("expected error for incomplete extended answers")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("report must not be written on failed validation")
	}
}

// TestCheckAdvancedAnswersComplete: with the extended answers supplied the
// assessment completes even though the grant never validates.
func TestCheckAdvancedAnswersComplete(t *testing.T) {
	srv := fakeRegistry(t, "EP/X012345/1")
	dir := setupWorkspace(t, srv.URL)
	answers := writeAnswers(t, dir, `
email: researcher@example.ac.uk
project_title: Coastal erosion modelling
project_abstract: A study of coastal erosion
institution: Example University
countries_institution: [US]
countries_project: [GB]
data_from_usa: true
trl: 5
sectors: [Energy]
`)

	out := filepath.Join(dir, "report.md")
	if err := runCheck([]string{answers, out}); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	doc, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(doc), "green_flagged: false") {
		t.Error("US institution with US data should need review")
	}
}

func TestCheckMissingAnswersFile(t *testing.T) {
	setupWorkspace(t, "http://127.0.0.1:0")
	if err := runCheck([]string{"no-such-file.yaml"}); err == nil {
		t.Error("expected error for missing answers file")
	}
}

func TestCheckNoArgsUsageError(t *testing.T) {
	if err := runCheck(nil); err == nil {
		t.Error("expected usage error")
	}
}
