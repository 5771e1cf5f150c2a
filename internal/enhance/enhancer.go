package enhance

import (
	"github.com/counselmatch/internal/matcher"
	"github.com/counselmatch/internal/normalize"
)

// Confidence blend weights. Weights of absent signals are redistributed
// proportionally across the present components so a record without a pincode
// is not punished for the omission.
const (
	weightName    = 0.30
	weightAddress = 0.25
	weightPincode = 0.20
	weightEntity  = 0.15
	weightTier    = 0.10
)

// Level is the discrete confidence band of an enhanced match.
type Level string

const (
	LevelVeryHigh Level = "VERY_HIGH"
	LevelHigh     Level = "HIGH"
	LevelMedium   Level = "MEDIUM"
	LevelLow      Level = "LOW"
	LevelInvalid  Level = "INVALID"
)

// Recommendation is the action a confidence level implies.
type Recommendation string

const (
	RecommendAccept      Recommendation = "ACCEPT"
	RecommendWithCaution Recommendation = "ACCEPT_WITH_CAUTION"
	RecommendReview      Recommendation = "REVIEW"
	RecommendReject      Recommendation = "REJECT"
)

// EnhancedMatch is a matcher candidate plus the auxiliary signals and the
// blended final confidence. Immutable once computed; the dedup gate and the
// persistence layer read it but never patch it.
type EnhancedMatch struct {
	Candidate *matcher.Candidate

	PincodeSignal        Signal
	LocationEntitySignal Signal
	AddressSignal        Signal

	FinalConfidence float64
	Level           Level
	Recommendation  Recommendation
}

// Enhance folds auxiliary address evidence into a candidate's base
// confidence. Pure: no catalog access, no mutation of the candidate.
func Enhance(cand *matcher.Candidate, rawAddress string) EnhancedMatch {
	masterAddress := cand.Entity.Address
	state := cand.Ref.State

	pincode := pincodeSignal(rawAddress, masterAddress, state)
	entity := locationEntitySignal(rawAddress, masterAddress)
	address := addressSignal(rawAddress, masterAddress)

	final := blend(cand, pincode, entity, address)
	level := levelFor(final)

	return EnhancedMatch{
		Candidate:            cand,
		PincodeSignal:        pincode,
		LocationEntitySignal: entity,
		AddressSignal:        address,
		FinalConfidence:      final,
		Level:                level,
		Recommendation:       recommendationFor(level),
	}
}

// pincodeSignal cross-validates the 6-digit postal codes of both addresses.
// Equal codes are strong evidence for the link; codes whose prefixes belong
// to different states are strong evidence against it. A missing code on
// either side yields an absent signal.
func pincodeSignal(rawAddress, masterAddress, state string) Signal {
	rawPin := normalize.ExtractPincode(rawAddress)
	masterPin := normalize.ExtractPincode(masterAddress)
	if rawPin == "" || masterPin == "" {
		return SignalAbsent()
	}
	if rawPin == masterPin {
		return SignalPresent(1.0)
	}
	if normalize.PincodeInState(rawPin, state) != normalize.PincodeInState(masterPin, state) {
		return SignalPresent(0.0)
	}
	// Different codes within the same state range: neighbouring localities,
	// neither confirmation nor conflict.
	return SignalPresent(0.5)
}

// locationEntitySignal scores place-name overlap between the two addresses.
// Zero overlap counts as negative evidence only when both sides yielded at
// least two entities; thin extractions stay absent.
func locationEntitySignal(rawAddress, masterAddress string) Signal {
	rawEntities := normalize.ExtractLocationEntities(rawAddress)
	masterEntities := normalize.ExtractLocationEntities(masterAddress)
	if len(rawEntities) == 0 || len(masterEntities) == 0 {
		return SignalAbsent()
	}
	overlap := normalize.LocationOverlap(rawEntities, masterEntities)
	if overlap == 0 && (len(rawEntities) < 2 || len(masterEntities) < 2) {
		return SignalAbsent()
	}
	return SignalPresent(overlap)
}

// addressSignal reuses the token-blend scorer on whole addresses. Absent when
// either side has no usable tokens.
func addressSignal(rawAddress, masterAddress string) Signal {
	rawTokens := normalize.TokenizeKeepInitials(rawAddress)
	masterTokens := normalize.TokenizeKeepInitials(masterAddress)
	if len(rawTokens) == 0 || len(masterTokens) == 0 {
		return SignalAbsent()
	}
	return SignalPresent(matcher.TokenBlendScore(rawTokens, masterTokens))
}

// blend computes the weighted confidence over the present components. Name
// match and method tier are always present; address, pincode and entity
// signals join when their inputs existed.
func blend(cand *matcher.Candidate, pincode, entity, address Signal) float64 {
	sum := weightName*cand.BaseConfidence + weightTier*cand.Tier.Weight()
	total := weightName + weightTier

	if address.Present {
		sum += weightAddress * address.Value
		total += weightAddress
	}
	if pincode.Present {
		sum += weightPincode * pincode.Value
		total += weightPincode
	}
	if entity.Present {
		sum += weightEntity * entity.Value
		total += weightEntity
	}

	final := sum / total
	if final < 0 {
		return 0
	}
	if final > 1 {
		return 1
	}
	return final
}

func levelFor(confidence float64) Level {
	switch {
	case confidence >= 0.90:
		return LevelVeryHigh
	case confidence >= 0.75:
		return LevelHigh
	case confidence >= 0.55:
		return LevelMedium
	case confidence >= 0.35:
		return LevelLow
	}
	return LevelInvalid
}

func recommendationFor(level Level) Recommendation {
	switch level {
	case LevelVeryHigh, LevelHigh:
		return RecommendAccept
	case LevelMedium:
		return RecommendWithCaution
	case LevelLow:
		return RecommendReview
	}
	return RecommendReject
}
