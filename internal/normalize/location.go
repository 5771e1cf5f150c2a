package normalize

import "strings"

// Generic address words that never identify a place on their own.
var locationNoise = map[string]bool{
	"ROAD": true, "MARG": true, "STREET": true, "NAGAR": true, "CAMPUS": true,
	"NEAR": true, "OPP": true, "OPPOSITE": true, "POST": true, "PO": true,
	"DISTRICT": true, "DIST": true, "TALUK": true, "TALUKA": true, "VIA": true,
	"COLLEGE": true, "HOSPITAL": true, "MEDICAL": true, "DENTAL": true,
	"INSTITUTE": true, "GOVERNMENT": true, "GENERAL": true, "SCIENCES": true,
	"RESEARCH": true, "CENTRE": true, "CENTER": true, "UNIVERSITY": true,
	"PIN": true, "INDIA": true,
}

// ExtractLocationEntities pulls candidate place-name tokens from an address:
// alphabetic tokens of 3+ characters that are not generic address noise.
// Heuristic stand-in for a gazetteer; the postal preprocessor can replace it
// with parsed city components when libpostal is available.
func ExtractLocationEntities(address string) []string {
	seen := make(map[string]bool)
	var entities []string
	for _, tok := range strings.Fields(Canonical(address)) {
		if len(tok) < 3 || locationNoise[tok] || seen[tok] {
			continue
		}
		if !isAlpha(tok) {
			continue
		}
		seen[tok] = true
		entities = append(entities, tok)
	}
	return entities
}

// LocationOverlap computes Jaccard overlap between two location-entity sets.
// Returns 0 when either side is empty.
func LocationOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	inter := 0
	union := len(setA)
	for t := range setB {
		if setA[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// AddressTail returns everything after the first comma of a raw record's
// college field: the address portion once the name is stripped off.
func AddressTail(raw string) string {
	if i := strings.IndexByte(raw, ','); i >= 0 {
		return strings.TrimSpace(raw[i+1:])
	}
	return ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
