package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/counselmatch/internal/catalog"
)

func testIndex() *catalog.Index {
	return catalog.NewIndex([]catalog.MasterEntity{
		{
			ID:            101,
			CanonicalName: "SETH GORDHANDAS SUNDERDAS MEDICAL COLLEGE",
			State:         "MAHARASHTRA",
			Address:       "ACHARYA DONDE MARG, PAREL, MUMBAI, MAHARASHTRA, 400012",
		},
		{
			ID:            102,
			CanonicalName: "GRANT MEDICAL COLLEGE",
			State:         "MAHARASHTRA",
			Address:       "J J HOSPITAL COMPOUND, BYCULLA, MUMBAI, 400008",
		},
		{
			ID:            103,
			CanonicalName: "GOVERNMENT DENTAL COLLEGE",
			State:         "MAHARASHTRA",
			Address:       "ST GEORGES HOSPITAL CAMPUS, FORT, MUMBAI, 400001",
		},
		{
			ID:            201,
			CanonicalName: "DISTRICT HOSPITAL",
			State:         "KARNATAKA",
			Address:       "B H ROAD, TUMKUR, KARNATAKA, 572101",
		},
		{
			ID:            202,
			CanonicalName: "DISTRICT HOSPITAL",
			State:         "KARNATAKA",
			Address:       "KILLA ROAD, DHARWAD, KARNATAKA, 580008",
		},
		{
			ID:            203,
			CanonicalName: "GOVERNMENT MEDICAL COLLEGE",
			State:         "KARNATAKA",
			Address:       "IRWIN ROAD, MYSORE, 570001",
		},
		{
			ID:            204,
			CanonicalName: "GOVERNMENT MEDICAL COLLEGE",
			State:         "KARNATAKA",
			Address:       "VIDYANAGAR, HUBLI, 580021",
		},
		{
			ID:            301,
			CanonicalName: "KING GEORGES MEDICAL UNIVERSITY",
			PreviousName:  "KING GEORGES MEDICAL COLLEGE",
			State:         "UTTAR PRADESH",
			Address:       "CHOWK, LUCKNOW, 226003",
		},
		{
			ID:            401,
			CanonicalName: "MAHATMA GANDHI INSTITUTE OF MEDICAL SCIENCES",
			State:         "MAHARASHTRA",
			Address:       "SEVAGRAM, WARDHA, 442102",
		},
	})
}

func testEngine() *Engine {
	return NewEngine(testIndex(), DefaultConfig())
}

func mustMatch(t *testing.T, e *Engine, rawName, rawState, course string) *Candidate {
	t.Helper()
	cand, err := e.Match(context.Background(), false, rawName, rawState, course)
	if err != nil {
		t.Fatalf("Match(%q) error: %v", rawName, err)
	}
	if cand == nil {
		t.Fatalf("Match(%q) returned no candidate", rawName)
	}
	return cand
}

func TestMatchExact(t *testing.T) {
	cand := mustMatch(t, testEngine(), "GRANT MEDICAL COLLEGE, BYCULLA, MUMBAI", "Maharashtra", "MD IN GENERAL MEDICINE")
	if cand.Ref.ID != 102 || cand.Tier != TierExact || cand.BaseConfidence != 1.0 {
		t.Errorf("got id=%d tier=%v conf=%v, want 102/EXACT/1.0", cand.Ref.ID, cand.Tier, cand.BaseConfidence)
	}
}

func TestMatchExactPreviousName(t *testing.T) {
	cand := mustMatch(t, testEngine(), "KING GEORGES MEDICAL COLLEGE, LUCKNOW", "UTTAR PRADESH", "MS (GENERAL SURGERY)")
	if cand.Ref.ID != 301 || cand.Tier != TierExact {
		t.Errorf("got id=%d tier=%v, want 301/EXACT", cand.Ref.ID, cand.Tier)
	}
}

func TestMatchCorrectedExact(t *testing.T) {
	cand := mustMatch(t, testEngine(), "GOVT DENTAL COLLEGE, MUMBAI", "MAHARASHTRA", "BDS")
	if cand.Ref.ID != 103 || cand.Tier != TierCorrected || cand.BaseConfidence != 0.95 {
		t.Errorf("got id=%d tier=%v conf=%v, want 103/CORRECTED/0.95", cand.Ref.ID, cand.Tier, cand.BaseConfidence)
	}
}

func TestMatchUniqueSubstring(t *testing.T) {
	cand := mustMatch(t, testEngine(), "MAHATMA GANDHI INSTITUTE, WARDHA", "MAHARASHTRA", "MD IN PAEDIATRICS")
	if cand.Ref.ID != 401 || cand.Tier != TierPartial || cand.BaseConfidence != 0.9 {
		t.Errorf("got id=%d tier=%v conf=%v, want 401/PARTIAL/0.9", cand.Ref.ID, cand.Tier, cand.BaseConfidence)
	}
}

func TestMatchFuzzyAcronym(t *testing.T) {
	cand := mustMatch(t, testEngine(), "SETH GS MEDICAL COLLEGE, PAREL, MUMBAI", "MAHARASHTRA", "MD IN GENERAL MEDICINE")
	if cand.Ref.ID != 101 {
		t.Fatalf("got id=%d, want 101", cand.Ref.ID)
	}
	if cand.Tier != TierPartialFuzzy {
		t.Errorf("got tier %v, want PARTIAL_FUZZY", cand.Tier)
	}
	if cand.BaseConfidence < 0.6 {
		t.Errorf("confidence %v below acceptance threshold", cand.BaseConfidence)
	}
}

func TestMatchExactSameNameCampuses(t *testing.T) {
	// Two DISTRICT HOSPITAL campuses share one name in state. The exact rung
	// must not link the first catalog entry; each raw row resolves to its own
	// campus by city token, at full exact confidence.
	e := testEngine()

	tumkur := mustMatch(t, e, "DISTRICT HOSPITAL, TUMKUR", "KARNATAKA", "DNB GENERAL MEDICINE")
	if tumkur.Ref.ID != 201 || tumkur.Tier != TierExact || tumkur.BaseConfidence != 1.0 {
		t.Errorf("got id=%d tier=%v conf=%v, want 201/EXACT/1.0", tumkur.Ref.ID, tumkur.Tier, tumkur.BaseConfidence)
	}
	if tumkur.LocationDisambiguationSkipped {
		t.Error("disambiguation marked skipped despite city token present")
	}

	dharwad := mustMatch(t, e, "DISTRICT HOSPITAL, KILLA ROAD, DHARWAD", "KARNATAKA", "DNB GENERAL MEDICINE")
	if dharwad.Ref.ID != 202 || dharwad.Tier != TierExact {
		t.Errorf("got id=%d tier=%v, want 202/EXACT (Dharwad campus)", dharwad.Ref.ID, dharwad.Tier)
	}
}

func TestMatchCorrectedSameNameCampuses(t *testing.T) {
	// The corrected rung hits both GOVERNMENT MEDICAL COLLEGE campuses after
	// GOVT expansion; the address tail picks the Mysore one.
	cand := mustMatch(t, testEngine(), "GOVT MEDICAL COLLEGE, MYSORE", "KARNATAKA", "MD IN GENERAL MEDICINE")
	if cand.Ref.ID != 203 || cand.Tier != TierCorrected || cand.BaseConfidence != 0.95 {
		t.Errorf("got id=%d tier=%v conf=%v, want 203/CORRECTED/0.95", cand.Ref.ID, cand.Tier, cand.BaseConfidence)
	}
	if cand.LocationDisambiguationSkipped {
		t.Error("disambiguation marked skipped despite city token present")
	}
}

func TestMatchAmbiguousSubstringFallsThrough(t *testing.T) {
	// GOVERNMENT DISTRICT HOSPITAL is a substring hit on both campuses; the
	// substring rung must not pick one, and the fuzzy rung resolves by city
	// token instead.
	cand := mustMatch(t, testEngine(), "GOVERNMENT DISTRICT HOSPITAL, TUMKUR", "KARNATAKA", "DNB GENERAL MEDICINE")
	if cand.Ref.ID != 201 {
		t.Errorf("got id=%d, want 201 (Tumkur campus)", cand.Ref.ID)
	}
	if cand.Tier != TierPartialFuzzy {
		t.Errorf("got tier %v, want PARTIAL_FUZZY", cand.Tier)
	}
	if cand.LocationDisambiguationSkipped {
		t.Error("disambiguation marked skipped despite city token present")
	}
}

func TestMatchLocationDisambiguationSkipped(t *testing.T) {
	// No address tail, so the same-name campuses cannot be told apart. The
	// deterministic lowest-ID candidate is kept and the skip is flagged for
	// review.
	cand := mustMatch(t, testEngine(), "DISTRICT HOSPITAL", "KARNATAKA", "DNB GENERAL MEDICINE")
	if !cand.LocationDisambiguationSkipped {
		t.Error("expected LocationDisambiguationSkipped to be set")
	}
	if cand.Ref.ID != 201 || cand.Tier != TierExact {
		t.Errorf("got id=%d tier=%v, want deterministic pick 201/EXACT", cand.Ref.ID, cand.Tier)
	}
}

func TestMatchNoMatch(t *testing.T) {
	cand, err := testEngine().Match(context.Background(), false, "COMPLETELY UNRELATED ACADEMY, PUNE", "MAHARASHTRA", "MD IN GENERAL MEDICINE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand != nil {
		t.Errorf("expected no match, got id=%d tier=%v", cand.Ref.ID, cand.Tier)
	}
}

func TestMatchUnknownState(t *testing.T) {
	_, err := testEngine().Match(context.Background(), false, "GRANT MEDICAL COLLEGE", "NOWHERE LAND", "MD")
	var use *catalog.UnknownStateError
	if !errors.As(err, &use) {
		t.Fatalf("expected UnknownStateError, got %v", err)
	}
}

func TestMatchCandidateBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCandidates = 1
	e := NewEngine(testIndex(), cfg)
	_, err := e.Match(context.Background(), false, "GRANT MEDICAL COLLEGE", "MAHARASHTRA", "MD")
	var mte *MatchTimeoutError
	if !errors.As(err, &mte) {
		t.Fatalf("expected MatchTimeoutError, got %v", err)
	}
	if mte.Bound != 1 || mte.Candidates <= mte.Bound {
		t.Errorf("bound diagnostics wrong: %+v", mte)
	}
}

func TestMatchSearchSpaceDiagnostics(t *testing.T) {
	cand := mustMatch(t, testEngine(), "GRANT MEDICAL COLLEGE, MUMBAI", "MAHARASHTRA", "MD IN GENERAL MEDICINE")
	if cand.SearchSpaceBefore != 4 {
		t.Errorf("SearchSpaceBefore = %d, want 4 (all Maharashtra entries)", cand.SearchSpaceBefore)
	}
	if cand.SearchSpaceAfter != 3 {
		t.Errorf("SearchSpaceAfter = %d, want 3 (dental campus filtered out)", cand.SearchSpaceAfter)
	}
}

func TestMatchDentalPoolExcludesMedical(t *testing.T) {
	// A dental course never resolves against pure medical colleges.
	cand, err := testEngine().Match(context.Background(), false, "GRANT MEDICAL COLLEGE, MUMBAI", "MAHARASHTRA", "MDS ORTHODONTICS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand != nil {
		t.Errorf("dental course matched medical college id=%d", cand.Ref.ID)
	}
}

func TestMatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A name that reaches the fuzzy rung observes cancellation.
	_, err := testEngine().Match(ctx, false, "SETH GS MEDICAL COLLEGE, PAREL", "MAHARASHTRA", "MD")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
