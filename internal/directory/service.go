package directory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/scimfile/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ResourceType names a provisioned resource kind.
type ResourceType string

const (
	ResourceUser  ResourceType = "user"
	ResourceGroup ResourceType = "group"
)

// Operation names a provisioning operation.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Capability declares one implemented operation on a resource type.
type Capability struct {
	Resource  ResourceType `json:"resource"`
	Operation Operation    `json:"operation"`
}

// capabilities lists what the connector implements: reading users.
var capabilities = []Capability{
	{Resource: ResourceUser, Operation: OpRead},
}

// Group is a provisioned group. Groups are not ingested, so no Group is
// ever returned; the type exists for the list shape.
type Group struct {
	ID          string
	DisplayName string
}

// GroupPage is one page of groups.
type GroupPage struct {
	TotalResults int
	StartIndex   int
	Resources    []Group
}

// Status describes the generation being served and the last refresh.
type Status struct {
	Generation      uuid.UUID     `json:"generation"`
	Users           int           `json:"users"`
	LoadedAt        time.Time     `json:"loadedAt"`
	Source          string        `json:"source"`
	LastRefresh     RefreshResult `json:"lastRefresh"`
	LastError       string        `json:"lastError,omitempty"`
	LastErrorAt     time.Time     `json:"lastErrorAt,omitempty"`
	RefreshInFlight bool          `json:"refreshInFlight"`
}

// Service answers directory queries from the cache and triggers refreshes.
type Service struct {
	coord        *Coordinator
	store        *Store
	customSchema string

	refreshGroup singleflight.Group

	mu          sync.RWMutex
	inFlight    bool
	lastResult  RefreshResult
	lastErr     error
	lastErrorAt time.Time
}

// NewService creates a service backed by coord.
func NewService(coord *Coordinator) *Service {
	return &Service{
		coord:        coord,
		store:        coord.Store(),
		customSchema: coord.Settings().CustomSchema,
	}
}

// Refresh rebuilds the cache. Callers arriving while a refresh is running
// wait for it and share its result instead of starting another.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	v, err, shared := s.refreshGroup.Do("refresh", func() (any, error) {
		s.setInFlight(true)
		defer s.setInFlight(false)

		res, err := s.coord.Refresh(ctx)
		s.recordRefresh(res, err)
		return res, err
	})
	if shared {
		slog.Debug("joined in-flight refresh")
	}
	res, _ := v.(RefreshResult)
	return res, err
}

func (s *Service) setInFlight(v bool) {
	s.mu.Lock()
	s.inFlight = v
	s.mu.Unlock()
}

func (s *Service) recordRefresh(res RefreshResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.lastErrorAt = time.Now()
		return
	}
	s.lastResult = res
	s.lastErr = nil
}

// ListUsers answers a user query.
//
// Without a filter the cache is refreshed first and the page is cut from
// the new generation. A refresh failure is returned and the previous
// generation is left untouched. With a filter the current generation is
// searched as-is; every match is returned and TotalResults is the match
// count.
func (s *Service) ListUsers(ctx context.Context, f Filter, page *PageRequest) (UserPage, error) {
	if f != nil {
		metrics.RecordQuery(queryKind(f))
		users := Evaluate(f, s.store.Current(), s.customSchema)
		result := UserPage{
			TotalResults: len(users),
			StartIndex:   1,
			Resources:    users,
		}
		if page != nil {
			result.StartIndex = page.StartIndex
		}
		return result, nil
	}

	metrics.RecordQuery("list")
	if _, err := s.Refresh(ctx); err != nil {
		return UserPage{}, err
	}
	return Paginate(s.store.Current(), page), nil
}

func queryKind(f Filter) string {
	switch f.(type) {
	case Equality:
		return "equality"
	case Or:
		return "or"
	default:
		return "unsupported"
	}
}

// GetUser returns the cached user with the given id.
func (s *Service) GetUser(_ context.Context, id string) (*UserRecord, error) {
	metrics.RecordQuery("get")
	u, ok := s.store.Current().Get(id)
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ListGroups returns the (always empty) group list.
func (s *Service) ListGroups(_ context.Context, page *PageRequest) (GroupPage, error) {
	result := GroupPage{StartIndex: 1, Resources: []Group{}}
	if page != nil {
		result.StartIndex = page.StartIndex
	}
	return result, nil
}

// Capabilities returns the implemented operations.
func (s *Service) Capabilities() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	return out
}

// Supports reports whether op is implemented for res.
func (s *Service) Supports(res ResourceType, op Operation) bool {
	for _, c := range capabilities {
		if c.Resource == res && c.Operation == op {
			return true
		}
	}
	return false
}

// Status reports the current generation and the outcome of the last refresh.
func (s *Service) Status() Status {
	snap := s.store.Current()

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Generation:      snap.Generation,
		Users:           snap.Len(),
		LoadedAt:        snap.LoadedAt,
		Source:          snap.Source,
		LastRefresh:     s.lastResult,
		RefreshInFlight: s.inFlight,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
		st.LastErrorAt = s.lastErrorAt
	}
	return st
}
