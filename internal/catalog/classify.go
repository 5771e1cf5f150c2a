package catalog

import "strings"

// InstitutionType buckets catalog entries so the matcher only compares a raw
// name against institutions that could plausibly offer the course.
type InstitutionType string

const (
	TypeMedical   InstitutionType = "MEDICAL"
	TypeDental    InstitutionType = "DENTAL"
	TypeHospital  InstitutionType = "HOSPITAL"
	TypeInstitute InstitutionType = "INSTITUTE"
	TypeOther     InstitutionType = "OTHER"
)

// classifyRule is a name-substring rule. Rules are ordered most specific
// first and the first hit wins.
type classifyRule struct {
	substring string
	instType  InstitutionType
}

var classifyRules = []classifyRule{
	{"DENTAL COLLEGE", TypeDental},
	{"MEDICAL COLLEGE", TypeMedical},
	{"INSTITUTE OF MEDICAL SCIENCES", TypeMedical},
	{"INSTITUTE OF DENTAL", TypeDental},
	{"HOSPITAL", TypeHospital},
	{"INSTITUTE", TypeInstitute},
}

// Classify derives the institution type from a catalog entry name.
func Classify(name string) InstitutionType {
	upper := strings.ToUpper(name)
	for _, rule := range classifyRules {
		if strings.Contains(upper, rule.substring) {
			return rule.instType
		}
	}
	return TypeOther
}
