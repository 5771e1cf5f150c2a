package catalog

// MasterEntity is one authoritative college/institution record from the
// curated reference catalog. Immutable for the lifetime of an Index.
type MasterEntity struct {
	ID              int64
	CanonicalName   string
	PreviousName    string // older official name, "" when none recorded
	State           string
	Address         string
	InstitutionType InstitutionType
}

// EntityRef identifies a canonical entity within a state. Carried through
// every pipeline stage instead of being re-parsed out of a composite string.
type EntityRef struct {
	ID    int64
	State string
}

// Index holds the reference catalog keyed by (state, institution type) for
// O(1) candidate-set retrieval. Built once per run and shared read-only
// across workers.
type Index struct {
	byState map[string]map[InstitutionType][]*MasterEntity
	byID    map[int64]*MasterEntity
	total   int
}

// NewIndex builds the two-level index from catalog entries. Entry states are
// normalized and institution types are classified during the build; entries
// whose state cannot be normalized are skipped.
func NewIndex(entities []MasterEntity) *Index {
	idx := &Index{
		byState: make(map[string]map[InstitutionType][]*MasterEntity),
		byID:    make(map[int64]*MasterEntity),
	}

	for i := range entities {
		e := &entities[i]
		state := NormalizeState(e.State)
		if state == "" {
			continue
		}
		e.State = state
		if e.InstitutionType == "" {
			e.InstitutionType = Classify(e.CanonicalName)
		}

		byType, ok := idx.byState[state]
		if !ok {
			byType = make(map[InstitutionType][]*MasterEntity)
			idx.byState[state] = byType
		}
		byType[e.InstitutionType] = append(byType[e.InstitutionType], e)
		idx.byID[e.ID] = e
		idx.total++
	}

	return idx
}

// Size returns the number of indexed entities.
func (idx *Index) Size() int {
	return idx.total
}

// Entity returns the catalog entry for an ID, or nil when unknown.
func (idx *Index) Entity(id int64) *MasterEntity {
	return idx.byID[id]
}

// StateSize returns how many entities are indexed for a state before any
// institution-type filtering. Used for search-space diagnostics.
func (idx *Index) StateSize(state string) int {
	n := 0
	for _, entities := range idx.byState[state] {
		n += len(entities)
	}
	return n
}

// Candidates returns the catalog entries for a raw state, restricted to the
// given institution types in order. The raw state is normalized through the
// alias table first. Returns UnknownStateError when the normalized state has
// no catalog entries at all; an empty slice for a known state is a normal
// result.
func (idx *Index) Candidates(rawState string, types ...InstitutionType) ([]*MasterEntity, error) {
	state := NormalizeState(rawState)
	byType, ok := idx.byState[state]
	if state == "" || !ok {
		return nil, &UnknownStateError{Raw: rawState, Normalized: state}
	}

	var out []*MasterEntity
	for _, t := range types {
		out = append(out, byType[t]...)
	}
	return out, nil
}
