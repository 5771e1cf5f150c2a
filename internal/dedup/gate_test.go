package dedup

import (
	"errors"
	"testing"

	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/enhance"
	"github.com/counselmatch/internal/matcher"
)

func link(unitKey string, entityID int64, state string, tier matcher.Tier, confidence float64) Link {
	entity := &catalog.MasterEntity{ID: entityID, State: state}
	return Link{
		UnitKey: unitKey,
		Enhanced: enhance.EnhancedMatch{
			Candidate: &matcher.Candidate{
				Entity: entity,
				Ref:    catalog.EntityRef{ID: entityID, State: state},
				Tier:   tier,
			},
			FinalConfidence: confidence,
		},
	}
}

func TestGateKeepsHighestConfidence(t *testing.T) {
	// Two addresses both claiming the same college in one state; only the
	// stronger link survives.
	links := []Link{
		link("unit-a", 1, "MAHARASHTRA", matcher.TierCorrected, 0.95),
		link("unit-b", 1, "MAHARASHTRA", matcher.TierFuzzy, 0.80),
	}

	accepted, dropped := Gate(links)

	if len(accepted) != 1 || accepted[0].UnitKey != "unit-a" {
		t.Fatalf("accepted = %+v, want only unit-a", accepted)
	}
	if len(dropped) != 1 || dropped[0].UnitKey != "unit-b" {
		t.Fatalf("dropped = %+v, want only unit-b", dropped)
	}
	if dropped[0].Reason != ReasonDuplicateAddress {
		t.Errorf("drop reason = %q, want %q", dropped[0].Reason, ReasonDuplicateAddress)
	}
}

func TestGateTieBreaksByTier(t *testing.T) {
	links := []Link{
		{UnitKey: "fuzzy-unit", Enhanced: link("fuzzy-unit", 1, "KARNATAKA", matcher.TierFuzzy, 0.9).Enhanced},
		{UnitKey: "exact-unit", Enhanced: link("exact-unit", 1, "KARNATAKA", matcher.TierExact, 0.9).Enhanced},
	}

	accepted, _ := Gate(links)
	if len(accepted) != 1 || accepted[0].UnitKey != "exact-unit" {
		t.Fatalf("accepted = %+v, want exact-unit on tier tie-break", accepted)
	}
}

func TestGateDistinctGroupsUntouched(t *testing.T) {
	// Same entity ID in different states, and different entities in one
	// state, are separate groups.
	links := []Link{
		link("u1", 1, "MAHARASHTRA", matcher.TierExact, 1.0),
		link("u2", 1, "KARNATAKA", matcher.TierExact, 1.0),
		link("u3", 2, "MAHARASHTRA", matcher.TierExact, 1.0),
	}

	accepted, dropped := Gate(links)
	if len(accepted) != 3 || len(dropped) != 0 {
		t.Fatalf("accepted=%d dropped=%d, want 3/0", len(accepted), len(dropped))
	}
}

func TestGateDeterministicOrder(t *testing.T) {
	links := []Link{
		link("u3", 2, "MAHARASHTRA", matcher.TierExact, 1.0),
		link("u2", 1, "KARNATAKA", matcher.TierExact, 1.0),
		link("u1", 1, "MAHARASHTRA", matcher.TierExact, 1.0),
	}

	first, _ := Gate(links)
	for i := 0; i < 10; i++ {
		again, _ := Gate(links)
		for j := range first {
			if first[j].UnitKey != again[j].UnitKey {
				t.Fatalf("run %d: order changed at %d: %q vs %q", i, j, first[j].UnitKey, again[j].UnitKey)
			}
		}
	}
	if first[0].Ref().State != "KARNATAKA" {
		t.Errorf("expected state-ordered output, got %+v first", first[0].Ref())
	}
}

func TestGateInvariantHolds(t *testing.T) {
	links := []Link{
		link("u1", 1, "MAHARASHTRA", matcher.TierExact, 1.0),
		link("u2", 1, "MAHARASHTRA", matcher.TierFuzzy, 0.7),
		link("u3", 1, "MAHARASHTRA", matcher.TierPartial, 0.9),
		link("u4", 2, "MAHARASHTRA", matcher.TierExact, 1.0),
	}

	accepted, _ := Gate(links)
	if err := VerifyInvariant(accepted); err != nil {
		t.Fatalf("invariant violated after gate: %v", err)
	}
}

func TestVerifyInvariantDetectsDuplicates(t *testing.T) {
	bad := []Link{
		link("u1", 1, "MAHARASHTRA", matcher.TierExact, 1.0),
		link("u2", 1, "MAHARASHTRA", matcher.TierFuzzy, 0.7),
	}

	err := VerifyInvariant(bad)
	var dv *DuplicateLinkInvariantViolation
	if !errors.As(err, &dv) {
		t.Fatalf("expected DuplicateLinkInvariantViolation, got %v", err)
	}
	if dv.Ref.ID != 1 || dv.Ref.State != "MAHARASHTRA" {
		t.Errorf("violation ref = %+v", dv.Ref)
	}
}
