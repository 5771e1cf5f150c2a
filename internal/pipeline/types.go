package pipeline

import (
	"hash/fnv"

	"github.com/counselmatch/internal/normalize"
)

// RecordState tracks where a raw record ended up. Terminal states are
// UNMATCHED, DROPPED_DUPLICATE and AGGREGATED.
type RecordState string

const (
	StateIngested         RecordState = "INGESTED"
	StateUnitExtracted    RecordState = "UNIT_EXTRACTED"
	StateMatched          RecordState = "MATCHED"
	StateUnmatched        RecordState = "UNMATCHED"
	StateEnhanced         RecordState = "ENHANCED"
	StateAccepted         RecordState = "ACCEPTED"
	StateDroppedDuplicate RecordState = "DROPPED_DUPLICATE"
	StateAggregated       RecordState = "AGGREGATED"
)

// RawRecord is one parsed counselling row as handed over by the ingestion
// boundary. CollegeRaw is free text: the college name, usually followed by
// its address after a comma.
type RawRecord struct {
	ID         int64
	CollegeRaw string
	State      string
	Course     string
	Category   string
	Quota      string
	SourceBody string
	Level      string
	Year       int
	Round      int
	Rank       int
}

// CourseID derives a stable identifier from the normalized course name.
// Counselling bodies publish no shared course taxonomy, so the identifier is
// a hash of the cleaned name: identical courses collide to the same ID across
// runs and source bodies, which is exactly what the aggregate group key needs.
func CourseID(course string) int64 {
	h := fnv.New64a()
	h.Write([]byte(normalize.Canonical(course)))
	// Clear the sign bit so the ID survives storage in signed columns.
	return int64(h.Sum64() &^ (1 << 63))
}

// Unit is one unique-entity unit: all raw records naming the same college in
// the same state. The matcher runs once per unit, not once per record.
type Unit struct {
	Key        string
	State      string
	RawCollege string
	CourseHint string
	Records    []RawRecord
}

// Report is the terminal-state accounting for a run. Produced even when the
// run fails partway.
type Report struct {
	RunID        string
	TotalRecords int
	Units        int

	MatchedUnits   int
	UnmatchedUnits int

	AcceptedLinks     int
	DroppedDuplicates int

	RecordsAggregated int
	RecordsUnmatched  int
	RecordsDropped    int

	Aggregates           int
	SuspiciousAggregates int

	UnmatchedReasons map[string]int

	Failed        bool
	FailureReason string
}
