package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"
)

// ReviewHandler serves the manual-review API over a run's persisted output:
// run summaries, accepted links, diagnostics and suspicious rank bands.
type ReviewHandler struct {
	DB *sqlx.DB
}

type runRow struct {
	RunID                string `db:"run_id" json:"runId"`
	Matched              int    `db:"matched" json:"matched"`
	Unmatched            int    `db:"unmatched" json:"unmatched"`
	DroppedDuplicates    int    `db:"dropped_duplicates" json:"droppedDuplicates"`
	SuspiciousAggregates int    `db:"suspicious_aggregates" json:"suspiciousAggregates"`
	AcceptedLinks        int    `db:"accepted_links" json:"acceptedLinks"`
	Aggregates           int    `db:"aggregates" json:"aggregates"`
	Failed               bool   `db:"failed" json:"failed"`
	FailureReason        string `db:"failure_reason" json:"failureReason,omitempty"`
	StartedAt            string `db:"started_at" json:"startedAt"`
	FinishedAt           string `db:"finished_at" json:"finishedAt"`
}

// ListRuns returns run summaries, newest first.
func (h *ReviewHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	var rows []runRow
	err := h.DB.SelectContext(r.Context(), &rows, `
		SELECT run_id, matched, unmatched, dropped_duplicates, suspicious_aggregates,
			accepted_links, aggregates, failed, failure_reason,
			CAST(started_at AS TEXT) AS started_at, CAST(finished_at AS TEXT) AS finished_at
		FROM run_summary
		ORDER BY started_at DESC
	`)
	respond(w, rows, err)
}

type linkRow struct {
	EntityID   int64   `db:"entity_id" json:"entityId"`
	State      string  `db:"state" json:"state"`
	UnitKey    string  `db:"unit_key" json:"unitKey"`
	RawName    string  `db:"raw_name" json:"rawName"`
	RawAddress string  `db:"raw_address" json:"rawAddress"`
	Tier       string  `db:"tier" json:"tier"`
	Confidence float64 `db:"confidence" json:"confidence"`
	Level      string  `db:"level" json:"level"`
	RunID      string  `db:"run_id" json:"runId"`
}

// ListLinks returns accepted links, optionally filtered by state.
func (h *ReviewHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	query := `
		SELECT entity_id, state, unit_key, raw_name, raw_address, tier, confidence, level, run_id
		FROM accepted_link
	`
	args := []interface{}{}
	if state := r.URL.Query().Get("state"); state != "" {
		query += " WHERE state = ?"
		args = append(args, state)
	}
	query += " ORDER BY state, entity_id"

	var rows []linkRow
	err := h.DB.SelectContext(r.Context(), &rows, h.DB.Rebind(query), args...)
	respond(w, rows, err)
}

type diagnosticRow struct {
	RunID      string   `db:"run_id" json:"runId"`
	UnitKey    string   `db:"unit_key" json:"unitKey"`
	Reason     string   `db:"reason" json:"reason"`
	Confidence *float64 `db:"confidence" json:"confidence,omitempty"`
	Candidates int      `db:"candidates" json:"candidates"`
}

// ListDiagnostics returns unmatched and dropped-duplicate records,
// optionally filtered by run or reason.
func (h *ReviewHandler) ListDiagnostics(w http.ResponseWriter, r *http.Request) {
	query := `
		SELECT run_id, unit_key, reason, confidence, candidates
		FROM diagnostic
		WHERE 1 = 1
	`
	args := []interface{}{}
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}
	if reason := r.URL.Query().Get("reason"); reason != "" {
		query += " AND reason = ?"
		args = append(args, reason)
	}
	query += " ORDER BY unit_key"

	var rows []diagnosticRow
	err := h.DB.SelectContext(r.Context(), &rows, h.DB.Rebind(query), args...)
	respond(w, rows, err)
}

type aggregateRow struct {
	EntityID    int64  `db:"entity_id" json:"entityId"`
	CourseID    int64  `db:"course_id" json:"courseId"`
	Category    string `db:"category" json:"category"`
	Quota       string `db:"quota" json:"quota"`
	SourceBody  string `db:"source_body" json:"sourceBody"`
	Level       string `db:"level" json:"level"`
	Year        int    `db:"year" json:"year"`
	Round       int    `db:"round" json:"round"`
	OpeningRank int    `db:"opening_rank" json:"openingRank"`
	ClosingRank int    `db:"closing_rank" json:"closingRank"`
	RecordCount int    `db:"record_count" json:"recordCount"`
}

// ListSuspiciousAggregates returns rank bands flagged for review.
func (h *ReviewHandler) ListSuspiciousAggregates(w http.ResponseWriter, r *http.Request) {
	var rows []aggregateRow
	err := h.DB.SelectContext(r.Context(), &rows, `
		SELECT entity_id, course_id, category, quota, source_body, level,
			year, round, opening_rank, closing_rank, record_count
		FROM rank_aggregate
		WHERE suspicious
		ORDER BY entity_id, course_id, year, round
	`)
	respond(w, rows, err)
}

// Health reports database reachability.
func (h *ReviewHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	respond(w, map[string]string{"status": "ok"}, nil)
}

func respond(w http.ResponseWriter, data interface{}, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
