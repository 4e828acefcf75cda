// Package settings loads greenlight configuration from
// .greenlight/settings.yaml relative to the working directory.
//
// A missing file is not an error: every accessor is safe on a nil *Settings
// receiver and falls back to the built-in defaults.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultRegistryURL    = "https://gtr.ukri.org/gtr/api"
	defaultTimeoutSeconds = 10
	defaultOutput         = "compliance-report.md"
)

// Settings holds greenlight configuration.
type Settings struct {
	Registry Registry `yaml:"registry"`
	Report   Report   `yaml:"report"`
}

// Registry configures the grant registry lookup.
type Registry struct {
	// URL is the registry API base, e.g. "https://gtr.ukri.org/gtr/api".
	URL string `yaml:"url"`
	// TimeoutSeconds bounds a single lookup. Lookups degrade to
	// "not validated" on expiry; they never hang the pipeline.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Report configures report output.
type Report struct {
	// Output is the default path the rendered report is written to.
	Output string `yaml:"output"`
}

// Load reads .greenlight/settings.yaml relative to root.
// Returns nil (not an error) if the file does not exist.
func Load(root string) (*Settings, error) {
	path := filepath.Join(root, ".greenlight", "settings.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return &s, nil
}

// RegistryURL returns the configured registry base URL or the default.
func (s *Settings) RegistryURL() string {
	if s == nil || s.Registry.URL == "" {
		return defaultRegistryURL
	}
	return s.Registry.URL
}

// LookupTimeout returns the configured lookup timeout or the default.
func (s *Settings) LookupTimeout() time.Duration {
	if s == nil || s.Registry.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(s.Registry.TimeoutSeconds) * time.Second
}

// Output returns the configured report output path or the default.
func (s *Settings) Output() string {
	if s == nil || s.Report.Output == "" {
		return defaultOutput
	}
	return s.Report.Output
}
