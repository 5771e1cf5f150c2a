package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stop tokens dropped during tokenization. Connective words carry no
// discriminating power between college names.
var stopTokens = map[string]bool{
	"OF":  true,
	"AND": true,
	"&":   true,
	"THE": true,
}

// corrections is the fixed substitution table for known OCR/typo variants in
// counselling exports. Applied with word boundaries; multiple corrections may
// apply to the same string.
var corrections = map[string]string{
	`\bJAWAHAR LAL\b`:    "JAWAHARLAL",
	`\bGOVT\b`:           "GOVERNMENT",
	`\bINST\b`:           "INSTITUTE",
	`\bHOSP\b`:           "HOSPITAL",
	`\bUNIV\b`:           "UNIVERSITY",
	`\bCOLL\b`:           "COLLEGE",
	`\bDIST\b`:           "DISTRICT",
	`\bPVT\b`:            "PRIVATE",
	`\bMAHATHMA\b`:       "MAHATMA",
	`\bVARDHAMAN\b`:      "VARDHMAN",
	`\bMEDICALCOLLEGE\b`: "MEDICAL COLLEGE",
	`\bAIIMS\b`:          "ALL INDIA INSTITUTE OF MEDICAL SCIENCES",
	`\bJIPMER\b`:         "JAWAHARLAL INSTITUTE OF POSTGRADUATE MEDICAL EDUCATION AND RESEARCH",
}

type correctionRule struct {
	re          *regexp.Regexp
	replacement string
}

var correctionRules = buildCorrectionRules()

func buildCorrectionRules() []correctionRule {
	patterns := make([]string, 0, len(corrections))
	for p := range corrections {
		patterns = append(patterns, p)
	}
	// Stable order so repeated runs apply substitutions identically.
	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			if patterns[j] < patterns[i] {
				patterns[i], patterns[j] = patterns[j], patterns[i]
			}
		}
	}
	rules := make([]correctionRule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, correctionRule{re: regexp.MustCompile(p), replacement: corrections[p]})
	}
	return rules
}

// foldTransformer strips diacritics left behind by mixed-encoding exports.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ExtractPrimaryName returns the substring before the first comma, trimmed
// and uppercased. Addresses routinely follow the college name after a comma
// in counselling exports.
func ExtractPrimaryName(raw string) string {
	s := raw
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return Canonical(s)
}

// Canonical uppercases, strips diacritics, replaces punctuation with spaces
// and collapses whitespace. The same input always yields the same output.
func Canonical(raw string) string {
	s, _, err := transform.String(foldTransformer, raw)
	if err != nil {
		s = raw
	}
	s = strings.ToUpper(strings.TrimSpace(s))

	b := strings.Builder{}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '&':
			b.WriteString(" & ")
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Correct applies the fixed substitution table for known typo/abbreviation
// variants. Input is canonicalized first so the word-boundary patterns see a
// consistent token stream.
func Correct(name string) string {
	s := Canonical(name)
	for _, rule := range correctionRules {
		s = rule.re.ReplaceAllString(s, rule.replacement)
	}
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize splits a name on whitespace and drops stop tokens and tokens
// shorter than 2 characters, except single-letter initials are kept when the
// caller asks for them via TokenizeKeepInitials.
func Tokenize(name string) []string {
	var tokens []string
	for _, tok := range strings.Fields(Canonical(name)) {
		if stopTokens[tok] || len(tok) < 2 {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TokenizeKeepInitials is Tokenize but retains single-letter tokens, which
// the abbreviation matcher needs ("B M PATIL", "GS").
func TokenizeKeepInitials(name string) []string {
	var tokens []string
	for _, tok := range strings.Fields(Canonical(name)) {
		if stopTokens[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
