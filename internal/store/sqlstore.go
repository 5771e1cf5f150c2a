package store

import (
	"context"
	"fmt"

	"github.com/counselmatch/internal/aggregate"
	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/db"
	"github.com/counselmatch/internal/dedup"
)

// SQLStore persists run output through a database connection. Postgres and
// SQLite accept the same ON CONFLICT upsert dialect, so one implementation
// serves both backends; sqlx rebinds the placeholders per driver.
type SQLStore struct {
	conn *db.Connection
}

// NewSQLStore wraps an open connection.
func NewSQLStore(conn *db.Connection) *SQLStore {
	return &SQLStore{conn: conn}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS master_entity (
		id BIGINT PRIMARY KEY,
		canonical_name TEXT NOT NULL,
		previous_name TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		institution_type TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS accepted_link (
		entity_id BIGINT NOT NULL,
		state TEXT NOT NULL,
		unit_key TEXT NOT NULL,
		raw_name TEXT NOT NULL,
		raw_address TEXT NOT NULL,
		tier TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		level TEXT NOT NULL,
		run_id TEXT NOT NULL,
		PRIMARY KEY (entity_id, state)
	)`,
	`CREATE TABLE IF NOT EXISTS rank_aggregate (
		entity_id BIGINT NOT NULL,
		course_id BIGINT NOT NULL,
		category TEXT NOT NULL,
		quota TEXT NOT NULL,
		source_body TEXT NOT NULL,
		level TEXT NOT NULL,
		year INTEGER NOT NULL,
		round INTEGER NOT NULL,
		opening_rank INTEGER NOT NULL,
		closing_rank INTEGER NOT NULL,
		record_count INTEGER NOT NULL,
		suspicious BOOLEAN NOT NULL,
		run_id TEXT NOT NULL,
		PRIMARY KEY (entity_id, course_id, category, quota, source_body, level, year, round)
	)`,
	`CREATE TABLE IF NOT EXISTS diagnostic (
		run_id TEXT NOT NULL,
		unit_key TEXT NOT NULL,
		reason TEXT NOT NULL,
		confidence DOUBLE PRECISION,
		candidates INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, unit_key, reason)
	)`,
	`CREATE TABLE IF NOT EXISTS run_summary (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		matched INTEGER NOT NULL,
		unmatched INTEGER NOT NULL,
		dropped_duplicates INTEGER NOT NULL,
		suspicious_aggregates INTEGER NOT NULL,
		accepted_links INTEGER NOT NULL,
		aggregates INTEGER NOT NULL,
		failed BOOLEAN NOT NULL,
		failure_reason TEXT NOT NULL DEFAULT ''
	)`,
}

// Init creates the output tables when missing.
func (s *SQLStore) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.conn.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// LoadCatalog reads every master entity row.
func (s *SQLStore) LoadCatalog(ctx context.Context) ([]catalog.MasterEntity, error) {
	rows, err := s.conn.DB.QueryContext(ctx, `
		SELECT id, canonical_name, previous_name, state, address, institution_type
		FROM master_entity
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	defer rows.Close()

	var entities []catalog.MasterEntity
	for rows.Next() {
		var e catalog.MasterEntity
		var instType string
		if err := rows.Scan(&e.ID, &e.CanonicalName, &e.PreviousName, &e.State, &e.Address, &instType); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		e.InstitutionType = catalog.InstitutionType(instType)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// SaveCatalog upserts master entities. Used by the import command.
func (s *SQLStore) SaveCatalog(ctx context.Context, entities []catalog.MasterEntity) error {
	tx, err := s.conn.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.Rebind(`
		INSERT INTO master_entity (id, canonical_name, previous_name, state, address, institution_type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			canonical_name = EXCLUDED.canonical_name,
			previous_name = EXCLUDED.previous_name,
			state = EXCLUDED.state,
			address = EXCLUDED.address,
			institution_type = EXCLUDED.institution_type
	`)
	for _, e := range entities {
		if _, err := tx.ExecContext(ctx, stmt,
			e.ID, e.CanonicalName, e.PreviousName, e.State, e.Address, string(e.InstitutionType)); err != nil {
			return fmt.Errorf("failed to upsert entity %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// SaveAcceptedLinks re-verifies the dedup invariant and upserts the links,
// idempotent on (entity_id, state).
func (s *SQLStore) SaveAcceptedLinks(ctx context.Context, runID string, links []dedup.Link) error {
	if err := dedup.VerifyInvariant(links); err != nil {
		return err
	}

	tx, err := s.conn.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.Rebind(`
		INSERT INTO accepted_link (entity_id, state, unit_key, raw_name, raw_address, tier, confidence, level, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id, state) DO UPDATE SET
			unit_key = EXCLUDED.unit_key,
			raw_name = EXCLUDED.raw_name,
			raw_address = EXCLUDED.raw_address,
			tier = EXCLUDED.tier,
			confidence = EXCLUDED.confidence,
			level = EXCLUDED.level,
			run_id = EXCLUDED.run_id
	`)
	for _, l := range links {
		ref := l.Ref()
		if _, err := tx.ExecContext(ctx, stmt,
			ref.ID, ref.State, l.UnitKey, l.RawName, l.RawAddress,
			l.Enhanced.Candidate.Tier.String(), l.Enhanced.FinalConfidence,
			string(l.Enhanced.Level), runID); err != nil {
			return fmt.Errorf("failed to upsert link for entity %d: %w", ref.ID, err)
		}
	}
	return tx.Commit()
}

// SaveAggregates upserts rank aggregate rows, idempotent on the full group
// key.
func (s *SQLStore) SaveAggregates(ctx context.Context, runID string, rows []aggregate.RankAggregate) error {
	tx, err := s.conn.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.Rebind(`
		INSERT INTO rank_aggregate (entity_id, course_id, category, quota, source_body, level,
			year, round, opening_rank, closing_rank, record_count, suspicious, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id, course_id, category, quota, source_body, level, year, round) DO UPDATE SET
			opening_rank = EXCLUDED.opening_rank,
			closing_rank = EXCLUDED.closing_rank,
			record_count = EXCLUDED.record_count,
			suspicious = EXCLUDED.suspicious,
			run_id = EXCLUDED.run_id
	`)
	for _, a := range rows {
		if _, err := tx.ExecContext(ctx, stmt,
			a.EntityID, a.CourseID, a.Category, a.Quota, a.SourceBody, a.Level,
			a.Year, a.Round, a.OpeningRank, a.ClosingRank, a.RecordCount,
			a.Suspicious, runID); err != nil {
			return fmt.Errorf("failed to upsert aggregate for entity %d course %d: %w", a.EntityID, a.CourseID, err)
		}
	}
	return tx.Commit()
}

// SaveDiagnostics upserts the reviewable anomalies of a run.
func (s *SQLStore) SaveDiagnostics(ctx context.Context, runID string, diags []Diagnostic) error {
	tx, err := s.conn.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.Rebind(`
		INSERT INTO diagnostic (run_id, unit_key, reason, confidence, candidates)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (run_id, unit_key, reason) DO UPDATE SET
			confidence = EXCLUDED.confidence,
			candidates = EXCLUDED.candidates
	`)
	for _, d := range diags {
		if _, err := tx.ExecContext(ctx, stmt,
			runID, d.UnitKey, d.Reason, d.Confidence, d.Candidates); err != nil {
			return fmt.Errorf("failed to upsert diagnostic for %q: %w", d.UnitKey, err)
		}
	}
	return tx.Commit()
}

// SaveRunSummary records the run's terminal accounting.
func (s *SQLStore) SaveRunSummary(ctx context.Context, summary RunSummary) error {
	stmt := s.conn.DB.Rebind(`
		INSERT INTO run_summary (run_id, started_at, finished_at, matched, unmatched,
			dropped_duplicates, suspicious_aggregates, accepted_links, aggregates, failed, failure_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			matched = EXCLUDED.matched,
			unmatched = EXCLUDED.unmatched,
			dropped_duplicates = EXCLUDED.dropped_duplicates,
			suspicious_aggregates = EXCLUDED.suspicious_aggregates,
			accepted_links = EXCLUDED.accepted_links,
			aggregates = EXCLUDED.aggregates,
			failed = EXCLUDED.failed,
			failure_reason = EXCLUDED.failure_reason
	`)
	_, err := s.conn.DB.ExecContext(ctx, stmt,
		summary.RunID, summary.StartedAt, summary.FinishedAt, summary.Matched,
		summary.Unmatched, summary.DroppedDuplicates, summary.SuspiciousAggregates,
		summary.AcceptedLinks, summary.Aggregates, summary.Failed, summary.FailureReason)
	if err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}
	return nil
}
