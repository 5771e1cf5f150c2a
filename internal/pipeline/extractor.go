package pipeline

import (
	"sort"

	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/normalize"
)

// ExtractUnits groups raw records into unique-entity units keyed by
// (normalized state, normalized primary name). Runs single-threaded; the
// grouping is cheap and the unit list must be stable before workers fan out.
//
// Records whose state fails normalization still form units under the raw
// state so the matcher can report them as UNMATCHED with an unknown-state
// reason instead of them silently vanishing here.
func ExtractUnits(records []RawRecord) []Unit {
	sorted := make([]RawRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	groups := make(map[string]*Unit)
	var keys []string
	for _, r := range sorted {
		state := catalog.NormalizeState(r.State)
		if state == "" {
			state = normalize.Canonical(r.State)
		}
		name := normalize.ExtractPrimaryName(r.CollegeRaw)
		key := state + "|" + name

		u, ok := groups[key]
		if !ok {
			u = &Unit{
				Key:        key,
				State:      state,
				RawCollege: r.CollegeRaw,
				CourseHint: r.Course,
			}
			groups[key] = u
			keys = append(keys, key)
		}
		u.Records = append(u.Records, r)
	}

	sort.Strings(keys)
	units := make([]Unit, 0, len(keys))
	for _, k := range keys {
		units = append(units, *groups[k])
	}
	return units
}
