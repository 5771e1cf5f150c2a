package audit

import (
	"go.uber.org/zap"

	"github.com/counselmatch/internal/aggregate"
	"github.com/counselmatch/internal/dedup"
)

// Tracker emits the structured diagnostics stream for a run: every unmatched
// unit, every dropped duplicate and every suspicious aggregate, keyed by run
// ID so review tooling can replay a single run. Records go to the structured
// log; persisting the run summary is the storage layer's job.
type Tracker struct {
	log   *zap.Logger
	runID string
}

// NewTracker binds a tracker to a run.
func NewTracker(log *zap.Logger, runID string) *Tracker {
	return &Tracker{log: log, runID: runID}
}

// NewNopTracker returns a tracker that discards everything. For tests.
func NewNopTracker() *Tracker {
	return &Tracker{log: zap.NewNop(), runID: "test"}
}

// UnmatchedUnit records a unit that terminated without a catalog link.
func (t *Tracker) UnmatchedUnit(unitKey, reason string, searchSpace int) {
	t.log.Info("unmatched unit",
		zap.String("run_id", t.runID),
		zap.String("unit_key", unitKey),
		zap.String("reason", reason),
		zap.Int("candidates", searchSpace),
	)
}

// DroppedDuplicate records a match rejected by the deduplication gate.
func (t *Tracker) DroppedDuplicate(d dedup.Dropped) {
	t.log.Warn("dropped duplicate",
		zap.String("run_id", t.runID),
		zap.String("unit_key", d.UnitKey),
		zap.String("reason", d.Reason),
		zap.Int64("entity_id", d.Ref().ID),
		zap.String("state", d.Ref().State),
		zap.Float64("confidence", d.Enhanced.FinalConfidence),
		zap.String("tier", d.Enhanced.Candidate.Tier.String()),
	)
}

// SuspiciousAggregate records a round band that fell outside its year band.
func (t *Tracker) SuspiciousAggregate(a aggregate.RankAggregate) {
	t.log.Warn("suspicious rank band",
		zap.String("run_id", t.runID),
		zap.Int64("entity_id", a.EntityID),
		zap.Int64("course_id", a.CourseID),
		zap.String("category", a.Category),
		zap.String("quota", a.Quota),
		zap.Int("year", a.Year),
		zap.Int("round", a.Round),
		zap.Int("opening", a.OpeningRank),
		zap.Int("closing", a.ClosingRank),
	)
}

// RunSummary records the terminal-state counts. Emitted even when the run
// fails partway so an operator always sees where records ended up.
func (t *Tracker) RunSummary(matched, unmatched, dropped, suspicious int) {
	t.log.Info("run summary",
		zap.String("run_id", t.runID),
		zap.Int("matched", matched),
		zap.Int("unmatched", unmatched),
		zap.Int("dropped_duplicates", dropped),
		zap.Int("suspicious_aggregates", suspicious),
	)
}
