package matcher

import (
	"context"
	"strings"

	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/debug"
	"github.com/counselmatch/internal/normalize"
)

// Engine runs the hierarchical matching funnel against a catalog index.
// Construct one per run; it holds no mutable state after construction and is
// safe for concurrent use by worker goroutines.
type Engine struct {
	index *catalog.Index
	cfg   Config
}

// NewEngine creates a matching engine over a built catalog index.
func NewEngine(index *catalog.Index, cfg Config) *Engine {
	return &Engine{index: index, cfg: cfg}
}

// Match resolves a raw college string within a state to a catalog candidate.
// The funnel narrows by state and course-derived institution type, then tries
// exact, corrected-exact, unique-substring and token-blend fuzzy matching in
// order, short-circuiting on the first success.
//
// A nil candidate with nil error is the normal no-match outcome. Typed errors
// (catalog.UnknownStateError, MatchTimeoutError) mark the unit unmatched with
// a reason; the caller keeps the run going.
func (e *Engine) Match(ctx context.Context, localDebug bool, rawName, rawState, courseHint string) (*Candidate, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	instType := CourseInstitutionType(courseHint)
	candidates, err := e.index.Candidates(rawState, candidateTypes(instType)...)
	if err != nil {
		return nil, err
	}

	state := catalog.NormalizeState(rawState)
	before := e.index.StateSize(state)
	after := len(candidates)
	debug.DebugOutput(localDebug, "search space %s/%s: %d -> %d", state, instType, before, after)

	if e.cfg.MaxCandidates > 0 && after > e.cfg.MaxCandidates {
		return nil, &MatchTimeoutError{
			UnitKey:    state + "|" + rawName,
			Candidates: after,
			Bound:      e.cfg.MaxCandidates,
		}
	}
	if after == 0 {
		return nil, nil
	}

	primary := normalize.ExtractPrimaryName(rawName)
	if primary == "" {
		return nil, nil
	}

	// Exact against canonical or previous name. Several campuses can share
	// one name within a state, so an exact hit is still a group: picking the
	// first slice entry here would mislink one campus's records to another.
	if hits := findExact(candidates, primary); len(hits) > 0 {
		debug.DebugOutput(localDebug, "exact match: %s (%d campuses)", hits[0].CanonicalName, len(hits))
		return e.resolveGroup(localDebug, rawName, asScored(hits, 1.0), TierExact, before, after), nil
	}

	// Corrected-exact: same comparison after the substitution table.
	corrected := normalize.Correct(primary)
	if corrected != primary {
		if hits := findExact(candidates, corrected); len(hits) > 0 {
			debug.DebugOutput(localDebug, "corrected-exact match: %s (%d campuses)", hits[0].CanonicalName, len(hits))
			return e.resolveGroup(localDebug, rawName, asScored(hits, 0.95), TierCorrected, before, after), nil
		}
	}

	// Unique substring. More than one hit is ambiguous; fall through to the
	// fuzzy rung rather than guess between partial matches.
	if c, n := findSubstring(candidates, corrected); n == 1 {
		debug.DebugOutput(localDebug, "unique substring match: %s", c.CanonicalName)
		return e.candidate(c, TierPartial, 0.9, before, after), nil
	} else if n > 1 {
		debug.DebugOutput(localDebug, "substring ambiguous across %d candidates, falling through", n)
	}

	return e.fuzzyMatch(ctx, localDebug, rawName, corrected, candidates, before, after)
}

type scoredEntity struct {
	entity *catalog.MasterEntity
	score  float64
}

// fuzzyMatch scores every candidate with the token-blend scorer and applies
// location disambiguation when the winning name recurs at several campuses.
func (e *Engine) fuzzyMatch(ctx context.Context, localDebug bool, rawName, corrected string, candidates []*catalog.MasterEntity, before, after int) (*Candidate, error) {
	defer debug.DebugTiming(localDebug, "fuzzy scan")()

	rawTokens := normalize.TokenizeKeepInitials(corrected)
	if len(rawTokens) == 0 {
		return nil, nil
	}

	var accepted []scoredEntity
	for i, c := range candidates {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		score := TokenBlendScore(rawTokens, normalize.TokenizeKeepInitials(c.CanonicalName))
		if c.PreviousName != "" {
			if prev := TokenBlendScore(rawTokens, normalize.TokenizeKeepInitials(c.PreviousName)); prev > score {
				score = prev
			}
		}
		if score >= e.cfg.FuzzyAcceptThreshold {
			accepted = append(accepted, scoredEntity{entity: c, score: score})
		}
	}

	if len(accepted) == 0 {
		return nil, nil
	}

	best := accepted[0]
	for _, s := range accepted[1:] {
		if s.score > best.score || (s.score == best.score && s.entity.ID < best.entity.ID) {
			best = s
		}
	}
	debug.DebugOutput(localDebug, "fuzzy best %.3f: %s", best.score, best.entity.CanonicalName)

	tier := TierPartialFuzzy
	if best.score >= e.cfg.FuzzyTierThreshold {
		tier = TierFuzzy
	}

	bestName := normalize.Canonical(best.entity.CanonicalName)
	var sameName []scoredEntity
	for _, s := range accepted {
		if normalize.Canonical(s.entity.CanonicalName) == bestName {
			sameName = append(sameName, s)
		}
	}
	return e.resolveGroup(localDebug, rawName, sameName, tier, before, after), nil
}

// resolveGroup settles equally named candidates, like the DISTRICT HOSPITAL
// entries across Karnataka, by city token from the raw address tail. When no
// token can be extracted or none matches, the highest-scored (lowest-ID on
// ties) entry is kept and the skip is flagged for review.
func (e *Engine) resolveGroup(localDebug bool, rawName string, group []scoredEntity, tier Tier, before, after int) *Candidate {
	best := group[0]
	for _, s := range group[1:] {
		if s.score > best.score || (s.score == best.score && s.entity.ID < best.entity.ID) {
			best = s
		}
	}
	cand := e.candidate(best.entity, tier, best.score, before, after)
	if len(group) == 1 {
		return cand
	}

	locTokens := normalize.ExtractLocationEntities(normalize.AddressTail(rawName))
	if len(locTokens) == 0 {
		cand.LocationDisambiguationSkipped = true
		debug.DebugOutput(localDebug, "location disambiguation skipped for %q", rawName)
		return cand
	}
	if picked := pickByLocation(group, locTokens); picked != nil {
		debug.DebugOutput(localDebug, "location disambiguated to %s", picked.Address)
		return e.candidate(picked, tier, best.score, before, after)
	}
	cand.LocationDisambiguationSkipped = true
	return cand
}

// asScored wraps an equal-confidence hit group for resolveGroup.
func asScored(entities []*catalog.MasterEntity, score float64) []scoredEntity {
	group := make([]scoredEntity, len(entities))
	for i, c := range entities {
		group[i] = scoredEntity{entity: c, score: score}
	}
	return group
}

// pickByLocation returns the highest-scored same-name candidate whose address
// contains one of the extracted city tokens. Ties go to the lower entity ID
// so repeated runs pick the same campus.
func pickByLocation(sameName []scoredEntity, locTokens []string) *catalog.MasterEntity {
	var best *catalog.MasterEntity
	bestScore := -1.0
	for _, s := range sameName {
		addr := normalize.Canonical(s.entity.Address)
		for _, tok := range locTokens {
			if !strings.Contains(addr, tok) {
				continue
			}
			if s.score > bestScore || (s.score == bestScore && s.entity.ID < best.ID) {
				best = s.entity
				bestScore = s.score
			}
			break
		}
	}
	return best
}

func (e *Engine) candidate(c *catalog.MasterEntity, tier Tier, confidence float64, before, after int) *Candidate {
	return &Candidate{
		Entity:            c,
		Ref:               catalog.EntityRef{ID: c.ID, State: c.State},
		Tier:              tier,
		BaseConfidence:    confidence,
		SearchSpaceBefore: before,
		SearchSpaceAfter:  after,
	}
}

// findExact returns every candidate whose canonical or previous name equals
// the extracted name after canonicalization. All hits must come back so the
// caller can tell apart same-name campuses instead of linking the first one.
func findExact(candidates []*catalog.MasterEntity, name string) []*catalog.MasterEntity {
	var hits []*catalog.MasterEntity
	for _, c := range candidates {
		if normalize.Canonical(c.CanonicalName) == name {
			hits = append(hits, c)
			continue
		}
		if c.PreviousName != "" && normalize.Canonical(c.PreviousName) == name {
			hits = append(hits, c)
		}
	}
	return hits
}

// findSubstring counts candidates where either normalized name contains the
// other. Returns the last hit and the hit count; only a unique hit is usable.
// Short fragments substring-match half the catalog, so they are rejected up
// front.
func findSubstring(candidates []*catalog.MasterEntity, name string) (*catalog.MasterEntity, int) {
	if len(name) < 8 {
		return nil, 0
	}
	var hit *catalog.MasterEntity
	count := 0
	for _, c := range candidates {
		canonical := normalize.Canonical(c.CanonicalName)
		if strings.Contains(canonical, name) || strings.Contains(name, canonical) {
			hit = c
			count++
		}
	}
	return hit, count
}
