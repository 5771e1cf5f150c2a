package pipeline

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/counselmatch/internal/aggregate"
	"github.com/counselmatch/internal/audit"
	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/dedup"
	"github.com/counselmatch/internal/enhance"
	"github.com/counselmatch/internal/matcher"
	"github.com/counselmatch/internal/normalize"
	"github.com/counselmatch/internal/store"
)

// Unmatched reasons carried into diagnostics.
const (
	reasonNoMatch      = "no_match"
	reasonUnknownState = "unknown_state"
	reasonTimeout      = "match_timeout"
)

// Config tunes a pipeline run.
type Config struct {
	// Workers bounds the matching/enhancement worker pool. Values below 1
	// fall back to 1.
	Workers int
	// Debug enables per-unit matcher tracing.
	Debug bool
}

// Pipeline wires one run end to end: extraction, parallel matching and
// enhancement, the dedup barrier, fan-out and aggregation, persistence. The
// engine and store are shared read-only across workers.
type Pipeline struct {
	engine  *matcher.Engine
	store   store.Store
	tracker *audit.Tracker
	cfg     Config
	runID   string
}

// New assembles a pipeline for a single run.
func New(engine *matcher.Engine, st store.Store, tracker *audit.Tracker, cfg Config, runID string) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pipeline{engine: engine, store: st, tracker: tracker, cfg: cfg, runID: runID}
}

// unitOutcome is one worker's result: either a link or an unmatched reason.
type unitOutcome struct {
	unit   Unit
	link   *dedup.Link
	reason string
}

// Run executes the pipeline over a record snapshot. The returned report is
// non-nil even on failure; the error reports what stopped the run. Nothing
// is persisted when the context is cancelled mid-run.
func (p *Pipeline) Run(ctx context.Context, records []RawRecord) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:            p.runID,
		TotalRecords:     len(records),
		UnmatchedReasons: make(map[string]int),
	}

	units := ExtractUnits(records)
	report.Units = len(units)

	outcomes := make([]unitOutcome, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range units {
		i := i
		g.Go(func() error {
			// Cancellation is checked at task start; a unit already running
			// finishes its match.
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := p.matchUnit(gctx, units[i])
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		report.Failed = true
		report.FailureReason = err.Error()
		p.summarize(ctx, report, started)
		return report, err
	}

	// Barrier reached: every unit has an outcome, grouping can run.
	var links []dedup.Link
	var diags []store.Diagnostic
	for _, o := range outcomes {
		if o.link != nil {
			report.MatchedUnits++
			links = append(links, *o.link)
			continue
		}
		report.UnmatchedUnits++
		report.UnmatchedReasons[o.reason]++
		report.RecordsUnmatched += len(o.unit.Records)
		p.tracker.UnmatchedUnit(o.unit.Key, o.reason, len(o.unit.Records))
		diags = append(diags, store.Diagnostic{
			UnitKey:    o.unit.Key,
			Reason:     o.reason,
			Candidates: len(o.unit.Records),
		})
	}

	accepted, dropped := dedup.Gate(links)
	report.AcceptedLinks = len(accepted)
	report.DroppedDuplicates = len(dropped)
	for _, d := range dropped {
		p.tracker.DroppedDuplicate(d)
		confidence := d.Enhanced.FinalConfidence
		diags = append(diags, store.Diagnostic{
			UnitKey:    d.UnitKey,
			Reason:     d.Reason,
			Confidence: &confidence,
		})
	}

	if err := p.store.SaveAcceptedLinks(ctx, p.runID, accepted); err != nil {
		report.Failed = true
		report.FailureReason = err.Error()
		p.summarize(ctx, report, started)
		var dv *dedup.DuplicateLinkInvariantViolation
		if errors.As(err, &dv) {
			// Gate defect, not bad input. Surface loudly.
			return report, err
		}
		return report, err
	}

	aggRecords := p.fanOut(units, outcomes, accepted, dropped, report)
	rows := aggregate.Aggregate(aggRecords)
	report.Aggregates = len(rows)
	for _, a := range rows {
		if a.Suspicious {
			report.SuspiciousAggregates++
			p.tracker.SuspiciousAggregate(a)
		}
	}

	if err := p.store.SaveAggregates(ctx, p.runID, rows); err != nil {
		report.Failed = true
		report.FailureReason = err.Error()
		p.summarize(ctx, report, started)
		return report, err
	}

	if err := p.store.SaveDiagnostics(ctx, p.runID, diags); err != nil {
		report.Failed = true
		report.FailureReason = err.Error()
		p.summarize(ctx, report, started)
		return report, err
	}

	p.summarize(ctx, report, started)
	return report, nil
}

// matchUnit runs the matcher and enhancer for one unit. Per-unit errors are
// recovered into unmatched outcomes; cancellation propagates and stops the
// run.
func (p *Pipeline) matchUnit(ctx context.Context, u Unit) (unitOutcome, error) {
	cand, err := p.engine.Match(ctx, p.cfg.Debug, u.RawCollege, u.State, u.CourseHint)
	if err != nil {
		var use *catalog.UnknownStateError
		var mte *matcher.MatchTimeoutError
		switch {
		case errors.As(err, &use):
			return unitOutcome{unit: u, reason: reasonUnknownState}, nil
		case errors.As(err, &mte):
			return unitOutcome{unit: u, reason: reasonTimeout}, nil
		default:
			return unitOutcome{}, err
		}
	}
	if cand == nil {
		return unitOutcome{unit: u, reason: reasonNoMatch}, nil
	}

	rawAddress := normalize.AddressTail(u.RawCollege)
	enhanced := enhance.Enhance(cand, rawAddress)
	return unitOutcome{
		unit: u,
		link: &dedup.Link{
			UnitKey:    u.Key,
			RawName:    u.RawCollege,
			RawAddress: rawAddress,
			Enhanced:   enhanced,
		},
	}, nil
}

// fanOut expands accepted links back to their member records and builds the
// aggregation input. Records of dropped-duplicate units terminate as
// DROPPED_DUPLICATE and never reach the aggregator.
func (p *Pipeline) fanOut(units []Unit, outcomes []unitOutcome, accepted []dedup.Link, dropped []dedup.Dropped, report *Report) []aggregate.Record {
	acceptedByKey := make(map[string]dedup.Link, len(accepted))
	for _, l := range accepted {
		acceptedByKey[l.UnitKey] = l
	}
	droppedKeys := make(map[string]bool, len(dropped))
	for _, d := range dropped {
		droppedKeys[d.UnitKey] = true
	}

	var out []aggregate.Record
	for i, u := range units {
		if outcomes[i].link == nil {
			continue
		}
		if droppedKeys[u.Key] {
			report.RecordsDropped += len(u.Records)
			continue
		}
		link, ok := acceptedByKey[u.Key]
		if !ok {
			continue
		}
		entityID := link.Ref().ID
		for _, r := range u.Records {
			out = append(out, aggregate.Record{
				EntityID:   entityID,
				CourseID:   CourseID(r.Course),
				Category:   r.Category,
				Quota:      r.Quota,
				SourceBody: r.SourceBody,
				Level:      r.Level,
				Year:       r.Year,
				Round:      r.Round,
				Rank:       r.Rank,
			})
		}
		report.RecordsAggregated += len(u.Records)
	}
	return out
}

// summarize emits and persists the run summary. Persistence of partial link
// or aggregate output never happens on failure, but the accounting row always
// does; a failed run must stay visible.
func (p *Pipeline) summarize(ctx context.Context, report *Report, started time.Time) {
	p.tracker.RunSummary(report.MatchedUnits, report.UnmatchedUnits,
		report.DroppedDuplicates, report.SuspiciousAggregates)

	summary := store.RunSummary{
		RunID:                report.RunID,
		StartedAt:            started,
		FinishedAt:           time.Now(),
		Matched:              report.MatchedUnits,
		Unmatched:            report.UnmatchedUnits,
		DroppedDuplicates:    report.DroppedDuplicates,
		SuspiciousAggregates: report.SuspiciousAggregates,
		AcceptedLinks:        report.AcceptedLinks,
		Aggregates:           report.Aggregates,
		Failed:               report.Failed,
		FailureReason:        report.FailureReason,
	}
	// Best effort on a context that may already be cancelled.
	_ = p.store.SaveRunSummary(context.WithoutCancel(ctx), summary)
}
