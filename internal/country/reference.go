package country

// reference.go — the embedded {code, name} reference list.
//
// The list is read-only lookup data: it renders selectable options and orders
// names in report text. Classification never consults it — Classify is total
// over arbitrary codes, listed or not.

import (
	_ "embed"
	"sort"

	"gopkg.in/yaml.v3"
)

// Country is one entry of the reference list.
type Country struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

//go:embed countries.yaml
var countriesYAML []byte

var (
	reference []Country
	byCode    map[string]int // code → position in reference
)

func init() {
	if err := yaml.Unmarshal(countriesYAML, &reference); err != nil {
		panic("country: bad embedded reference list: " + err.Error())
	}
	byCode = make(map[string]int, len(reference))
	for i, c := range reference {
		byCode[c.Code] = i
	}
}

// List returns a copy of the ordered reference list.
func List() []Country {
	out := make([]Country, len(reference))
	copy(out, reference)
	return out
}

// Name returns the reference name for code, or the code itself when unlisted.
func Name(code string) string {
	if i, ok := byCode[code]; ok {
		return reference[i].Name
	}
	return code
}

// Names renders a selected-code set as names in reference-list order. Codes
// absent from the reference list sort after listed ones, by code, rendered
// as the bare code.
func Names(codes map[string]bool) []string {
	var listed []int
	var unlisted []string
	for code, selected := range codes {
		if !selected {
			continue
		}
		if i, ok := byCode[code]; ok {
			listed = append(listed, i)
		} else {
			unlisted = append(unlisted, code)
		}
	}
	sort.Ints(listed)
	sort.Strings(unlisted)

	names := make([]string, 0, len(listed)+len(unlisted))
	for _, i := range listed {
		names = append(names, reference[i].Name)
	}
	names = append(names, unlisted...)
	return names
}
