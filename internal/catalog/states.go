package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Canonical state names as they appear in the master catalog.
var canonicalStates = map[string]bool{
	"ANDAMAN AND NICOBAR ISLANDS": true,
	"ANDHRA PRADESH":              true,
	"ARUNACHAL PRADESH":           true,
	"ASSAM":                       true,
	"BIHAR":                       true,
	"CHANDIGARH":                  true,
	"CHHATTISGARH":                true,
	"DADRA AND NAGAR HAVELI":      true,
	"DAMAN AND DIU":               true,
	"GOA":                         true,
	"GUJARAT":                     true,
	"HARYANA":                     true,
	"HIMACHAL PRADESH":            true,
	"JAMMU AND KASHMIR":           true,
	"JHARKHAND":                   true,
	"KARNATAKA":                   true,
	"KERALA":                      true,
	"LADAKH":                      true,
	"MADHYA PRADESH":              true,
	"MAHARASHTRA":                 true,
	"MANIPUR":                     true,
	"MEGHALAYA":                   true,
	"MIZORAM":                     true,
	"NAGALAND":                    true,
	"NEW DELHI":                   true,
	"ODISHA":                      true,
	"PUDUCHERRY":                  true,
	"PUNJAB":                      true,
	"RAJASTHAN":                   true,
	"SIKKIM":                      true,
	"TAMIL NADU":                  true,
	"TELANGANA":                   true,
	"TRIPURA":                     true,
	"UTTAR PRADESH":               true,
	"UTTARAKHAND":                 true,
	"WEST BENGAL":                 true,
}

// stateAliases maps the variants that show up in counselling exports to the
// canonical catalog spelling. Counselling bodies disagree on Delhi more than
// anything else.
var stateAliases = map[string]string{
	"DELHI":                   "NEW DELHI",
	"DELHI (NCT)":             "NEW DELHI",
	"DEL HI":                  "NEW DELHI",
	"NCT OF DELHI":            "NEW DELHI",
	"ORISSA":                  "ODISHA",
	"PONDICHERRY":             "PUDUCHERRY",
	"CHATTISGARH":             "CHHATTISGARH",
	"UTTRAKHAND":              "UTTARAKHAND",
	"UTTARANCHAL":             "UTTARAKHAND",
	"TAMILNADU":               "TAMIL NADU",
	"J&K":                     "JAMMU AND KASHMIR",
	"JAMMU & KASHMIR":         "JAMMU AND KASHMIR",
	"ANDAMAN & NICOBAR":       "ANDAMAN AND NICOBAR ISLANDS",
	"ANDAMAN NICOBAR ISLANDS": "ANDAMAN AND NICOBAR ISLANDS",
	"DAMAN & DIU":             "DAMAN AND DIU",
	"DADRA & NAGAR HAVELI":    "DADRA AND NAGAR HAVELI",
}

var rePincodeInState = regexp.MustCompile(`-?\s*\d{6}`)

// UnknownStateError indicates a lookup state that normalizes to nothing
// present in the catalog. Non-fatal: the caller routes the unit to UNMATCHED.
type UnknownStateError struct {
	Raw        string
	Normalized string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %q (normalized %q)", e.Raw, e.Normalized)
}

// NormalizeState maps a raw state string to its canonical catalog form.
// Handles embedded pincodes ("GUJARAT- 363641"), hyphen noise, alias spellings
// and old names. Returns "" when nothing recognizable is left.
func NormalizeState(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = rePincodeInState.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "-", " ")), " ")

	if canonical, ok := stateAliases[s]; ok {
		return canonical
	}
	if canonicalStates[s] {
		return s
	}

	// Addresses sometimes leak into the state column; accept if a canonical
	// name or known alias is embedded anywhere in the string. Sorted scan so
	// two runs over the same input always pick the same winner.
	for _, canonical := range sortedStateNames() {
		if strings.Contains(s, canonical) {
			return canonical
		}
	}
	for _, alias := range sortedAliasNames() {
		if strings.Contains(s, alias) {
			return stateAliases[alias]
		}
	}

	return ""
}

func sortedStateNames() []string {
	names := make([]string, 0, len(canonicalStates))
	for name := range canonicalStates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedAliasNames() []string {
	names := make([]string, 0, len(stateAliases))
	for name := range stateAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
