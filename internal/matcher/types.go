package matcher

import (
	"fmt"

	"github.com/counselmatch/internal/catalog"
)

// Tier identifies which rung of the matching funnel produced a candidate.
// Lower values are stronger evidence; used as the tie-break signal downstream.
type Tier int

const (
	TierExact Tier = iota
	TierCorrected
	TierPartial
	TierFuzzy
	TierPartialFuzzy
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "EXACT"
	case TierCorrected:
		return "CORRECTED"
	case TierPartial:
		return "PARTIAL"
	case TierFuzzy:
		return "FUZZY"
	case TierPartialFuzzy:
		return "PARTIAL_FUZZY"
	}
	return "UNKNOWN"
}

// Weight returns the method-tier contribution used by the confidence
// enhancer's weighted blend.
func (t Tier) Weight() float64 {
	switch t {
	case TierExact:
		return 1.0
	case TierCorrected:
		return 0.9
	case TierPartial:
		return 0.75
	case TierFuzzy:
		return 0.6
	case TierPartialFuzzy:
		return 0.5
	}
	return 0
}

// Candidate is the matcher's selected candidate for one unique entity unit.
// Immutable once returned; the enhancer builds a new value on top of it.
type Candidate struct {
	Entity         *catalog.MasterEntity
	Ref            catalog.EntityRef
	Tier           Tier
	BaseConfidence float64

	// Search-space diagnostics: candidate count in the state before and
	// after institution-type filtering.
	SearchSpaceBefore int
	SearchSpaceAfter  int

	// Set when several same-name campuses existed but no city token could be
	// extracted from the raw address tail to tell them apart.
	LocationDisambiguationSkipped bool
}

// Config bounds and tunes the matching funnel. Zero value is not usable;
// call DefaultConfig.
type Config struct {
	// FuzzyAcceptThreshold is the minimum token-blend score for a fuzzy
	// candidate to be accepted at all.
	FuzzyAcceptThreshold float64
	// FuzzyTierThreshold splits FUZZY from PARTIAL_FUZZY.
	FuzzyTierThreshold float64
	// MaxCandidates bounds the per-unit fuzzy search; a larger candidate set
	// indicates catalog corruption and yields MatchTimeoutError.
	MaxCandidates int
}

// DefaultConfig returns the recommended funnel thresholds.
func DefaultConfig() Config {
	return Config{
		FuzzyAcceptThreshold: 0.6,
		FuzzyTierThreshold:   0.9,
		MaxCandidates:        5000,
	}
}

// MatchTimeoutError reports a unit whose candidate set exceeded the
// configured bound. The unit is marked unmatched; the run continues.
type MatchTimeoutError struct {
	UnitKey    string
	Candidates int
	Bound      int
}

func (e *MatchTimeoutError) Error() string {
	return fmt.Sprintf("match timeout for %q: %d candidates exceeds bound %d",
		e.UnitKey, e.Candidates, e.Bound)
}
