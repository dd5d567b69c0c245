package directory

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one immutable generation of the user cache.
type Snapshot struct {
	Generation uuid.UUID // uuid.Nil for the empty startup snapshot
	LoadedAt   time.Time
	Source     string // File the generation was read from

	order []string
	byID  map[string]*UserRecord
}

func emptySnapshot() *Snapshot {
	return &Snapshot{byID: map[string]*UserRecord{}}
}

// Len returns the number of users in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Get returns the user with the given id.
func (s *Snapshot) Get(id string) (*UserRecord, bool) {
	u, ok := s.byID[id]
	return u, ok
}

// All returns every user in insertion order.
func (s *Snapshot) All() []*UserRecord {
	out := make([]*UserRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// each calls fn with each user and its 1-based position until fn
// returns false.
func (s *Snapshot) each(fn func(pos int, u *UserRecord) bool) {
	for i, id := range s.order {
		if !fn(i+1, s.byID[id]) {
			return
		}
	}
}

// snapshotBuilder accumulates the records of a generation being built.
// A repeated id replaces the earlier record but keeps its position.
type snapshotBuilder struct {
	order []string
	byID  map[string]*UserRecord
}

func newSnapshotBuilder() *snapshotBuilder {
	return &snapshotBuilder{byID: make(map[string]*UserRecord)}
}

// put adds u and reports whether it replaced a record with the same id.
func (b *snapshotBuilder) put(u *UserRecord) bool {
	if _, exists := b.byID[u.ID]; exists {
		b.byID[u.ID] = u
		return true
	}
	b.order = append(b.order, u.ID)
	b.byID[u.ID] = u
	return false
}

func (b *snapshotBuilder) build(source string, loadedAt time.Time) *Snapshot {
	return &Snapshot{
		Generation: uuid.New(),
		LoadedAt:   loadedAt,
		Source:     source,
		order:      b.order,
		byID:       b.byID,
	}
}

// Store holds the current snapshot. Replace swaps generations atomically;
// readers holding an older snapshot keep using it undisturbed.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store serving an empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(emptySnapshot())
	return s
}

// Current returns the snapshot being served.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace publishes snap and returns the generation it replaced.
func (s *Store) Replace(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}
