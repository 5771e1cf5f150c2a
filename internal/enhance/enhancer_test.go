package enhance

import (
	"testing"

	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/matcher"
)

func parelCandidate(tier matcher.Tier, base float64) *matcher.Candidate {
	entity := &catalog.MasterEntity{
		ID:            101,
		CanonicalName: "SETH GORDHANDAS SUNDERDAS MEDICAL COLLEGE",
		State:         "MAHARASHTRA",
		Address:       "ACHARYA DONDE MARG, PAREL, MUMBAI, MAHARASHTRA, 400012",
	}
	return &matcher.Candidate{
		Entity:         entity,
		Ref:            catalog.EntityRef{ID: entity.ID, State: entity.State},
		Tier:           tier,
		BaseConfidence: base,
	}
}

func TestEnhanceFullAgreement(t *testing.T) {
	cand := parelCandidate(matcher.TierExact, 1.0)
	em := Enhance(cand, "ACHARYA DONDE MARG, PAREL, MUMBAI, MAHARASHTRA, 400012")

	if !em.PincodeSignal.Present || em.PincodeSignal.Value != 1.0 {
		t.Errorf("pincode signal = %+v, want present 1.0", em.PincodeSignal)
	}
	if !em.LocationEntitySignal.Present || em.LocationEntitySignal.Value != 1.0 {
		t.Errorf("entity signal = %+v, want present 1.0", em.LocationEntitySignal)
	}
	if em.FinalConfidence != 1.0 {
		t.Errorf("final confidence = %v, want 1.0", em.FinalConfidence)
	}
	if em.Level != LevelVeryHigh || em.Recommendation != RecommendAccept {
		t.Errorf("got %v/%v, want VERY_HIGH/ACCEPT", em.Level, em.Recommendation)
	}
}

func TestEnhancePincodeConflictPenalizes(t *testing.T) {
	cand := parelCandidate(matcher.TierFuzzy, 0.8)

	agree := Enhance(cand, "PAREL, MUMBAI, 400012")
	conflict := Enhance(cand, "RT NAGAR, BANGALORE, KARNATAKA, 560032")

	if !conflict.PincodeSignal.Present || conflict.PincodeSignal.Value != 0.0 {
		t.Errorf("conflict pincode signal = %+v, want present 0.0", conflict.PincodeSignal)
	}
	if conflict.FinalConfidence >= agree.FinalConfidence {
		t.Errorf("conflicting pincode did not penalize: %v >= %v",
			conflict.FinalConfidence, agree.FinalConfidence)
	}
}

func TestEnhanceAbsentPincodeIsNeutral(t *testing.T) {
	cand := parelCandidate(matcher.TierFuzzy, 0.8)

	absent := Enhance(cand, "PAREL, MUMBAI")
	conflict := Enhance(cand, "PAREL, MUMBAI, 560032")
	match := Enhance(cand, "PAREL, MUMBAI, 400012")

	if absent.PincodeSignal.Present {
		t.Errorf("pincode signal = %+v, want absent", absent.PincodeSignal)
	}
	if absent.FinalConfidence <= conflict.FinalConfidence {
		t.Errorf("absent pincode scored below conflict: %v <= %v",
			absent.FinalConfidence, conflict.FinalConfidence)
	}
	if absent.FinalConfidence >= match.FinalConfidence {
		t.Errorf("absent pincode scored above match: %v >= %v",
			absent.FinalConfidence, match.FinalConfidence)
	}
}

func TestEnhanceSameStatePincodeMismatchIsSoft(t *testing.T) {
	cand := parelCandidate(matcher.TierFuzzy, 0.8)
	// 400012 vs 411001: both Maharashtra codes, different cities.
	em := Enhance(cand, "SHIVAJINAGAR, PUNE, 411001")
	if !em.PincodeSignal.Present || em.PincodeSignal.Value != 0.5 {
		t.Errorf("same-state mismatch signal = %+v, want present 0.5", em.PincodeSignal)
	}
}

func TestEnhanceThinEntityExtractionStaysAbsent(t *testing.T) {
	cand := parelCandidate(matcher.TierPartial, 0.9)
	// Single non-overlapping entity on the raw side: no penalty fires.
	em := Enhance(cand, "NASHIK")
	if em.LocationEntitySignal.Present {
		t.Errorf("entity signal = %+v, want absent for thin extraction", em.LocationEntitySignal)
	}
}

func TestEnhanceDoesNotMutateCandidate(t *testing.T) {
	cand := parelCandidate(matcher.TierExact, 1.0)
	before := *cand
	Enhance(cand, "PAREL, MUMBAI, 400012")
	if *cand != before {
		t.Error("Enhance mutated the candidate")
	}
}

func TestLevelThresholds(t *testing.T) {
	tests := []struct {
		confidence float64
		level      Level
		rec        Recommendation
	}{
		{0.95, LevelVeryHigh, RecommendAccept},
		{0.90, LevelVeryHigh, RecommendAccept},
		{0.80, LevelHigh, RecommendAccept},
		{0.60, LevelMedium, RecommendWithCaution},
		{0.40, LevelLow, RecommendReview},
		{0.20, LevelInvalid, RecommendReject},
	}
	for _, tt := range tests {
		if got := levelFor(tt.confidence); got != tt.level {
			t.Errorf("levelFor(%v) = %v, want %v", tt.confidence, got, tt.level)
		}
		if got := recommendationFor(tt.level); got != tt.rec {
			t.Errorf("recommendationFor(%v) = %v, want %v", tt.level, got, tt.rec)
		}
	}
}
