package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/counselmatch/internal/aggregate"
	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/dedup"
)

// RunSummary is the persisted terminal-state accounting for one run. Written
// even for failed runs so partial outcomes stay visible.
type RunSummary struct {
	RunID                string
	StartedAt            time.Time
	FinishedAt           time.Time
	Matched              int
	Unmatched            int
	DroppedDuplicates    int
	SuspiciousAggregates int
	AcceptedLinks        int
	Aggregates           int
	Failed               bool
	FailureReason        string
}

// Diagnostic is one reviewable anomaly from a run: an unmatched unit or a
// dropped duplicate. Confidence is nil for unmatched units, which never got
// far enough to have one.
type Diagnostic struct {
	UnitKey    string
	Reason     string
	Confidence *float64
	Candidates int
}

// Store is the output boundary of a pipeline run. Implementations must
// re-verify the dedup invariant before writing links: a violation there is a
// defect in the gate and fatal to the run.
type Store interface {
	LoadCatalog(ctx context.Context) ([]catalog.MasterEntity, error)
	SaveAcceptedLinks(ctx context.Context, runID string, links []dedup.Link) error
	SaveAggregates(ctx context.Context, runID string, rows []aggregate.RankAggregate) error
	SaveDiagnostics(ctx context.Context, runID string, diags []Diagnostic) error
	SaveRunSummary(ctx context.Context, summary RunSummary) error
}

// MemoryStore keeps everything in maps. Backs tests and dry runs.
type MemoryStore struct {
	mu          sync.Mutex
	Catalog     []catalog.MasterEntity
	Links       map[catalog.EntityRef]dedup.Link
	Aggregates  []aggregate.RankAggregate
	Diagnostics []Diagnostic
	Summaries   []RunSummary
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Links: make(map[catalog.EntityRef]dedup.Link)}
}

func (m *MemoryStore) LoadCatalog(ctx context.Context) ([]catalog.MasterEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]catalog.MasterEntity, len(m.Catalog))
	copy(out, m.Catalog)
	return out, nil
}

func (m *MemoryStore) SaveAcceptedLinks(ctx context.Context, runID string, links []dedup.Link) error {
	if err := dedup.VerifyInvariant(links); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range links {
		m.Links[l.Ref()] = l
	}
	return nil
}

func (m *MemoryStore) SaveAggregates(ctx context.Context, runID string, rows []aggregate.RankAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Aggregates = append(m.Aggregates, rows...)
	return nil
}

func (m *MemoryStore) SaveDiagnostics(ctx context.Context, runID string, diags []Diagnostic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Diagnostics = append(m.Diagnostics, diags...)
	return nil
}

func (m *MemoryStore) SaveRunSummary(ctx context.Context, summary RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summaries = append(m.Summaries, summary)
	return nil
}

// SortedLinks returns the stored links in deterministic order. Test helper.
func (m *MemoryStore) SortedLinks() []dedup.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dedup.Link, 0, len(m.Links))
	for _, l := range m.Links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Ref(), out[j].Ref()
		if ri.State != rj.State {
			return ri.State < rj.State
		}
		return ri.ID < rj.ID
	})
	return out
}
