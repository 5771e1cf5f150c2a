package matcher

import (
	"strings"

	"github.com/counselmatch/internal/catalog"
)

// courseKeywords maps course-name keywords to the institution type that
// teaches them. Checked in order; first hit wins.
var courseKeywords = []struct {
	keyword  string
	instType catalog.InstitutionType
}{
	{"MDS", catalog.TypeDental},
	{"BDS", catalog.TypeDental},
	{"DENTAL", catalog.TypeDental},
	{"DNB", catalog.TypeMedical},
	{"MBBS", catalog.TypeMedical},
	{"MD", catalog.TypeMedical},
	{"MS", catalog.TypeMedical},
	{"DIPLOMA", catalog.TypeMedical},
}

// CourseInstitutionType derives the institution type a course hint implies.
// Unknown courses default to MEDICAL, the dominant stream.
func CourseInstitutionType(courseHint string) catalog.InstitutionType {
	upper := strings.ToUpper(courseHint)
	tokens := strings.FieldsFunc(upper, func(r rune) bool {
		return r == ' ' || r == '.' || r == '(' || r == ')' || r == '-' || r == ','
	})
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}
	for _, ck := range courseKeywords {
		if tokenSet[ck.keyword] {
			return ck.instType
		}
		// Multi-letter keywords like DENTAL or DIPLOMA can sit inside a
		// longer compound ("POSTDIPLOMA"); substring check only for those.
		if len(ck.keyword) > 3 && strings.Contains(upper, ck.keyword) {
			return ck.instType
		}
	}
	return catalog.TypeMedical
}

// candidateTypes returns the catalog type pool searched for a course stream.
// Medical courses also run at hospitals and general institutes (DNB seats in
// particular), so those pools are included after the primary type.
func candidateTypes(t catalog.InstitutionType) []catalog.InstitutionType {
	if t == catalog.TypeDental {
		return []catalog.InstitutionType{catalog.TypeDental, catalog.TypeInstitute, catalog.TypeOther}
	}
	return []catalog.InstitutionType{catalog.TypeMedical, catalog.TypeHospital, catalog.TypeInstitute, catalog.TypeOther}
}
