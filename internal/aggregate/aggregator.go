package aggregate

import "sort"

// Record is one resolved counselling record ready for aggregation: identity
// fields already canonical, rank already parsed.
type Record struct {
	EntityID   int64
	CourseID   int64
	Category   string
	Quota      string
	SourceBody string
	Level      string
	Year       int
	Round      int
	Rank       int
}

// RankAggregate is one opening/closing band. Round 0 marks a year-level row
// spanning all rounds; round-level rows carry the 1-based round number.
type RankAggregate struct {
	EntityID    int64
	CourseID    int64
	Category    string
	Quota       string
	SourceBody  string
	Level       string
	Year        int
	Round       int
	OpeningRank int
	ClosingRank int
	RecordCount int
	Suspicious  bool
}

// YearLevel reports whether the row spans the whole year.
func (a RankAggregate) YearLevel() bool {
	return a.Round == 0
}

type groupKey struct {
	entityID   int64
	courseID   int64
	category   string
	quota      string
	sourceBody string
	level      string
	year       int
	round      int
}

type band struct {
	opening int
	closing int
	count   int
}

func (b *band) add(rank int) {
	if b.count == 0 || rank < b.opening {
		b.opening = rank
	}
	if b.count == 0 || rank > b.closing {
		b.closing = rank
	}
	b.count++
}

func addTo(m map[groupKey]*band, k groupKey, rank int) {
	b, ok := m[k]
	if !ok {
		b = &band{}
		m[k] = b
	}
	b.add(rank)
}

// Aggregate computes round-level and year-level opening/closing rank bands.
// Opening is the best (minimum) rank admitted, closing the worst (maximum).
//
// Records with Round 0 are year-level rows published directly by the source
// body. When a group has them, they define the year band; otherwise the year
// band is derived from the round records. A round row whose band falls
// outside an explicit year band is flagged suspicious, which points at a
// category/quota misassignment upstream. Suspicious rows are kept, not
// discarded.
func Aggregate(records []Record) []RankAggregate {
	rounds := make(map[groupKey]*band)
	explicit := make(map[groupKey]*band)
	derived := make(map[groupKey]*band)

	for _, r := range records {
		k := groupKey{r.EntityID, r.CourseID, r.Category, r.Quota, r.SourceBody, r.Level, r.Year, r.Round}
		yk := k
		yk.round = 0

		if r.Round == 0 {
			addTo(explicit, yk, r.Rank)
			continue
		}
		addTo(rounds, k, r.Rank)
		addTo(derived, yk, r.Rank)
	}

	years := derived
	for k, b := range explicit {
		years[k] = b
	}

	out := make([]RankAggregate, 0, len(rounds)+len(years))
	for k, b := range years {
		out = append(out, row(k, b, false))
	}
	for k, b := range rounds {
		yk := k
		yk.round = 0
		yb := years[yk]
		suspicious := b.opening < yb.opening || b.closing > yb.closing
		out = append(out, row(k, b, suspicious))
	}

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func row(k groupKey, b *band, suspicious bool) RankAggregate {
	return RankAggregate{
		EntityID:    k.entityID,
		CourseID:    k.courseID,
		Category:    k.category,
		Quota:       k.quota,
		SourceBody:  k.sourceBody,
		Level:       k.level,
		Year:        k.year,
		Round:       k.round,
		OpeningRank: b.opening,
		ClosingRank: b.closing,
		RecordCount: b.count,
		Suspicious:  suspicious,
	}
}

func less(a, b RankAggregate) bool {
	switch {
	case a.EntityID != b.EntityID:
		return a.EntityID < b.EntityID
	case a.CourseID != b.CourseID:
		return a.CourseID < b.CourseID
	case a.Category != b.Category:
		return a.Category < b.Category
	case a.Quota != b.Quota:
		return a.Quota < b.Quota
	case a.SourceBody != b.SourceBody:
		return a.SourceBody < b.SourceBody
	case a.Level != b.Level:
		return a.Level < b.Level
	case a.Year != b.Year:
		return a.Year < b.Year
	}
	return a.Round < b.Round
}
