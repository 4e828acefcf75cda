// Package country classifies sets of ISO 3166-1 alpha-2 country codes into
// the category flags the compliance rules consume, and carries the ordered
// reference list used to render country names in reports and selection lists.
package country

// Flags is the union of categories matched by a country-code set. A zero
// Flags value means the input set was empty.
type Flags struct {
	US        bool
	Canada    bool
	EU        bool
	GB        bool
	Other     bool
	OutsideUK bool
}

// euMembers is the fixed EU membership set used for classification.
var euMembers = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true,
	"CZ": true, "DK": true, "EE": true, "FI": true, "FR": true,
	"DE": true, "GR": true, "HU": true, "IE": true, "IT": true,
	"LV": true, "LT": true, "LU": true, "MT": true, "NL": true,
	"PL": true, "PT": true, "RO": true, "SK": true, "SI": true,
	"ES": true, "SE": true,
}

// Classify maps a country-code set to its category flags. Each code is
// classified independently and the results unioned. Unrecognized codes fall
// into Other; GB is the only code that does not set OutsideUK. Total over any
// string input, side-effect free.
func Classify(codes map[string]bool) Flags {
	var f Flags
	for code, selected := range codes {
		if !selected {
			continue
		}
		switch {
		case code == "US":
			f.US = true
			f.OutsideUK = true
		case code == "CA":
			f.Canada = true
			f.OutsideUK = true
		case euMembers[code]:
			f.EU = true
			f.OutsideUK = true
		case code == "GB":
			f.GB = true
		default:
			f.Other = true
			f.OutsideUK = true
		}
	}
	return f
}
