package dedup

import (
	"fmt"
	"sort"

	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/enhance"
)

// ReasonDuplicateAddress tags matches dropped because another raw address
// already claimed the same canonical college within the state.
const ReasonDuplicateAddress = "duplicate_address_for_college_in_state"

// Link is one enhanced match still carrying its raw-unit identity. The gate
// consumes links and emits the survivors as accepted links.
type Link struct {
	UnitKey    string
	RawName    string
	RawAddress string
	Enhanced   enhance.EnhancedMatch
}

// Ref returns the canonical entity the link points at.
func (l Link) Ref() catalog.EntityRef {
	return l.Enhanced.Candidate.Ref
}

// Dropped is a link the gate rejected, with the reason recorded for audit.
type Dropped struct {
	Link
	Reason string
}

// DuplicateLinkInvariantViolation fires when two accepted links share one
// (entity, state) pair at persistence time. It marks a defect in the gate
// itself, never bad input, and must abort the run.
type DuplicateLinkInvariantViolation struct {
	Ref catalog.EntityRef
}

func (e *DuplicateLinkInvariantViolation) Error() string {
	return fmt.Sprintf("duplicate accepted link for entity %d in %s", e.Ref.ID, e.Ref.State)
}

// Gate groups links by (entity, state) and keeps exactly one per group: the
// highest final confidence, ties broken by the stronger matching tier, then
// by unit key so reruns produce identical output. Everything else lands in
// dropped with a duplicate reason. Must run before any persistence write.
func Gate(links []Link) (accepted []Link, dropped []Dropped) {
	groups := make(map[catalog.EntityRef][]Link)
	for _, l := range links {
		ref := l.Ref()
		groups[ref] = append(groups[ref], l)
	}

	for _, group := range groups {
		best := group[0]
		for _, l := range group[1:] {
			if beats(l, best) {
				best = l
			}
		}
		accepted = append(accepted, best)
		for _, l := range group {
			if l.UnitKey != best.UnitKey {
				dropped = append(dropped, Dropped{Link: l, Reason: ReasonDuplicateAddress})
			}
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return refLess(accepted[i].Ref(), accepted[j].Ref()) })
	sort.Slice(dropped, func(i, j int) bool {
		ri, rj := dropped[i].Ref(), dropped[j].Ref()
		if ri != rj {
			return refLess(ri, rj)
		}
		return dropped[i].UnitKey < dropped[j].UnitKey
	})
	return accepted, dropped
}

func beats(a, b Link) bool {
	ea, eb := a.Enhanced, b.Enhanced
	if ea.FinalConfidence != eb.FinalConfidence {
		return ea.FinalConfidence > eb.FinalConfidence
	}
	if ea.Candidate.Tier != eb.Candidate.Tier {
		return ea.Candidate.Tier < eb.Candidate.Tier
	}
	return a.UnitKey < b.UnitKey
}

func refLess(a, b catalog.EntityRef) bool {
	if a.State != b.State {
		return a.State < b.State
	}
	return a.ID < b.ID
}

// VerifyInvariant rechecks the gate's guarantee over a set of accepted links.
// The storage layer calls this immediately before writing; a non-nil return
// is fatal to the run.
func VerifyInvariant(accepted []Link) error {
	seen := make(map[catalog.EntityRef]bool, len(accepted))
	for _, l := range accepted {
		ref := l.Ref()
		if seen[ref] {
			return &DuplicateLinkInvariantViolation{Ref: ref}
		}
		seen[ref] = true
	}
	return nil
}
