package catalog

import (
	"testing"
)

func testEntities() []MasterEntity {
	return []MasterEntity{
		{ID: 1, CanonicalName: "SETH GS MEDICAL COLLEGE", State: "MAHARASHTRA", Address: "ACHARYA DONDE MARG, PAREL, MUMBAI, MAHARASHTRA, 400012"},
		{ID: 2, CanonicalName: "GOVERNMENT DENTAL COLLEGE AND HOSPITAL", State: "MAHARASHTRA", Address: "ST GEORGES HOSPITAL CAMPUS, FORT, MUMBAI, 400001"},
		{ID: 3, CanonicalName: "DISTRICT HOSPITAL", State: "KARNATAKA", Address: "KILLA ROAD, DHARWAD, 580008"},
		{ID: 4, CanonicalName: "DISTRICT HOSPITAL", State: "KARNATAKA", Address: "BH ROAD, TUMKUR, 572101"},
		{ID: 5, CanonicalName: "MAULANA AZAD MEDICAL COLLEGE", State: "DELHI (NCT)", Address: "BAHADUR SHAH ZAFAR MARG, NEW DELHI, 110002"},
		{ID: 6, CanonicalName: "SCB MEDICAL COLLEGE", PreviousName: "SRIRAM CHANDRA BHANJA MEDICAL COLLEGE", State: "ORISSA", Address: "MANGALABAG, CUTTACK, 753007"},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want InstitutionType
	}{
		{"GOVERNMENT DENTAL COLLEGE AND HOSPITAL", TypeDental},
		{"SETH GS MEDICAL COLLEGE", TypeMedical},
		{"NIZAM INSTITUTE OF MEDICAL SCIENCES", TypeMedical},
		{"GOVERNMENT INSTITUTE OF DENTAL SCIENCES", TypeDental},
		{"DISTRICT HOSPITAL", TypeHospital},
		{"POSTGRADUATE INSTITUTE", TypeInstitute},
		{"ARMED FORCES ACADEMY", TypeOther},
	}

	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClassifyRuleOrder(t *testing.T) {
	// "DENTAL COLLEGE" must win over "HOSPITAL" appearing in the same name.
	got := Classify("GOVERNMENT DENTAL COLLEGE AND HOSPITAL")
	if got != TypeDental {
		t.Errorf("expected dental classification to take precedence, got %v", got)
	}
}

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"MAHARASHTRA", "MAHARASHTRA"},
		{"maharashtra", "MAHARASHTRA"},
		{"ORISSA", "ODISHA"},
		{"ODISHA", "ODISHA"},
		{"DELHI (NCT)", "NEW DELHI"},
		{"DELHI", "NEW DELHI"},
		{"NEW DELHI", "NEW DELHI"},
		{"PONDICHERRY", "PUDUCHERRY"},
		{"TAMILNADU", "TAMIL NADU"},
		{"GUJARAT- 363641", "GUJARAT"},
		{"BAGALKOT - 587103 KARNATAKA", "KARNATAKA"},
		{"UTTARANCHAL", "UTTARAKHAND"},
		{"", ""},
		{"NOT A STATE", ""},
	}

	for _, tt := range tests {
		if got := NormalizeState(tt.raw); got != tt.want {
			t.Errorf("NormalizeState(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestIndexCandidates(t *testing.T) {
	idx := NewIndex(testEntities())

	medical, err := idx.Candidates("MAHARASHTRA", TypeMedical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(medical) != 1 || medical[0].ID != 1 {
		t.Errorf("expected only the medical college, got %d candidates", len(medical))
	}

	hospitals, err := idx.Candidates("KARNATAKA", TypeHospital)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hospitals) != 2 {
		t.Errorf("expected both district hospitals, got %d", len(hospitals))
	}
}

func TestIndexAliasRoundTrip(t *testing.T) {
	// Looking up an alias state must yield the same candidate set as the
	// canonical form.
	idx := NewIndex(testEntities())

	viaAlias, err := idx.Candidates("ORISSA", TypeMedical)
	if err != nil {
		t.Fatalf("alias lookup failed: %v", err)
	}
	viaCanonical, err := idx.Candidates("ODISHA", TypeMedical)
	if err != nil {
		t.Fatalf("canonical lookup failed: %v", err)
	}

	if len(viaAlias) != len(viaCanonical) || len(viaAlias) != 1 {
		t.Fatalf("alias and canonical candidate sets differ: %d vs %d", len(viaAlias), len(viaCanonical))
	}
	if viaAlias[0].ID != viaCanonical[0].ID {
		t.Errorf("alias and canonical lookups returned different entities")
	}
}

func TestIndexEntryStateNormalizedAtBuild(t *testing.T) {
	// Catalog entries filed under "DELHI (NCT)" must be retrievable through
	// any Delhi variant.
	idx := NewIndex(testEntities())

	got, err := idx.Candidates("DELHI", TypeMedical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Errorf("expected the Delhi entry, got %d candidates", len(got))
	}
}

func TestIndexUnknownState(t *testing.T) {
	idx := NewIndex(testEntities())

	_, err := idx.Candidates("ATLANTIS", TypeMedical)
	if err == nil {
		t.Fatal("expected UnknownStateError")
	}
	if _, ok := err.(*UnknownStateError); !ok {
		t.Errorf("expected *UnknownStateError, got %T", err)
	}
}

func TestIndexEmptyTypeIsNormal(t *testing.T) {
	// A known state with no entries of the requested type returns an empty
	// set, not an error.
	idx := NewIndex(testEntities())

	got, err := idx.Candidates("KARNATAKA", TypeDental)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty candidate set, got %d", len(got))
	}
}
