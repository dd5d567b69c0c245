package directory

// refresh.go rebuilds the user cache from the source file.
//
// A refresh runs under the coordinator's mutex so at most one executes at a
// time. The new generation is built off to the side and published with a
// single atomic swap; any failure before the swap leaves the previous
// generation in place. Archiving the consumed file happens after the swap
// and never fails the refresh.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/scimfile/internal/mapping"
	"github.com/JonMunkholm/scimfile/internal/metrics"
	"github.com/google/uuid"
)

// Settings holds the application configuration a refresh depends on.
type Settings struct {
	UsersFilePath   string // File, or directory whose newest file is used
	ProcessedFolder string // Archive destination; empty disables archiving
	MappingFile     string
	InactiveValue   string
	CustomSchema    string
}

// MappingLoader loads the column mapping for one refresh.
type MappingLoader func() (*mapping.Set, error)

// RefreshResult summarizes a successful refresh.
type RefreshResult struct {
	Generation  uuid.UUID     `json:"generation"`
	SourceFile  string        `json:"sourceFile"`
	ArchivePath string        `json:"archivePath,omitempty"`
	Rows        int           `json:"rows"`
	Loaded      int           `json:"loaded"`
	Replaced    int           `json:"replaced"`
	Inactive    int           `json:"inactive"`
	Rejected    int           `json:"rejected"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completedAt"`
}

// Coordinator owns the cache store and is its only writer.
type Coordinator struct {
	settings    Settings
	store       *Store
	loadMapping MappingLoader
	now         func() time.Time

	mu sync.Mutex
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMappingLoader replaces the default file-based mapping loader.
func WithMappingLoader(l MappingLoader) CoordinatorOption {
	return func(c *Coordinator) { c.loadMapping = l }
}

// WithClock replaces time.Now, which names archive copies.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a coordinator writing into store.
func NewCoordinator(settings Settings, store *Store, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		settings: settings,
		store:    store,
		now:      time.Now,
	}
	c.loadMapping = func() (*mapping.Set, error) {
		return mapping.LoadFile(c.settings.MappingFile)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the coordinator publishes to.
func (c *Coordinator) Store() *Store {
	return c.store
}

// Settings returns the coordinator's settings.
func (c *Coordinator) Settings() Settings {
	return c.settings
}

// Refresh re-reads the source file and replaces the cache.
// On error the previous generation stays current and a *RefreshError is
// returned.
func (c *Coordinator) Refresh(ctx context.Context) (RefreshResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	logger := slog.Default().With("component", "refresh")

	if err := ctx.Err(); err != nil {
		return RefreshResult{}, &RefreshError{Source: c.settings.UsersFilePath, Err: err}
	}

	result, snap, err := c.build()
	if err != nil {
		metrics.RecordRefresh("failed", time.Since(start))
		logger.Error("refresh failed, keeping previous users",
			"source", result.SourceFile,
			"error", err,
			"generation", c.store.Current().Generation,
		)
		src := result.SourceFile
		if src == "" {
			src = c.settings.UsersFilePath
		}
		return RefreshResult{}, &RefreshError{Source: src, Err: err}
	}

	c.store.Replace(snap)
	result.Generation = snap.Generation

	// A file with no data rows is left where it is.
	if result.Rows > 0 {
		result.ArchivePath = c.archive(result.SourceFile, logger)
	}

	result.Duration = time.Since(start)
	result.CompletedAt = c.now()

	metrics.RecordRefresh("success", result.Duration)
	metrics.SetCachedUsers(snap.Len())
	metrics.RecordSkipped("inactive", result.Inactive)
	metrics.RecordSkipped("rejected", result.Rejected)

	logger.Info("refresh completed",
		"source", result.SourceFile,
		"generation", result.Generation,
		"rows", result.Rows,
		"loaded", result.Loaded,
		"inactive", result.Inactive,
		"rejected", result.Rejected,
		"duplicates", result.Replaced,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// build reads the source into a new, unpublished snapshot.
func (c *Coordinator) build() (RefreshResult, *Snapshot, error) {
	var result RefreshResult

	set, err := c.loadMapping()
	if err != nil {
		return result, nil, &ConfigError{Op: "load column mapping", Err: err}
	}

	path, err := resolveSourceFile(c.settings.UsersFilePath)
	if err != nil {
		return result, nil, &IngestionError{Err: err}
	}
	result.SourceFile = path

	src, err := openRowSource(path)
	if err != nil {
		return result, nil, &IngestionError{Err: err}
	}
	defer src.Close()

	builder := newSnapshotBuilder()

	if src.header == nil {
		slog.Warn("users file is empty", "source", path)
		return result, builder.build(path, c.now()), nil
	}

	mapper, err := NewMapper(set, src.header, MapperOptions{
		InactiveValue: c.settings.InactiveValue,
		CustomSchema:  c.settings.CustomSchema,
	})
	if err != nil {
		return result, nil, err
	}

	for {
		row, line, err := src.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, nil, &IngestionError{Err: fmt.Errorf("reading csv: %w", err)}
		}
		result.Rows++

		u, err := mapper.Map(row)
		switch {
		case err == nil:
			if builder.put(u) {
				result.Replaced++
				slog.Debug("duplicate user id, later row wins", "id", u.ID, "line", line)
			}
		case errors.Is(err, ErrNotActive):
			result.Inactive++
		case errors.Is(err, ErrRowRejected):
			result.Rejected++
			slog.Debug("row skipped", "line", line, "reason", err)
		default:
			var ie *IngestionError
			if errors.As(err, &ie) {
				ie.Line = line
				return result, nil, ie
			}
			return result, nil, &IngestionError{Line: line, Err: err}
		}
	}

	snap := builder.build(path, c.now())
	result.Loaded = snap.Len()
	return result, snap, nil
}

// archive copies the consumed file to the processed folder. Failures are
// logged and reported as an empty path.
func (c *Coordinator) archive(src string, logger *slog.Logger) string {
	if c.settings.ProcessedFolder == "" {
		return ""
	}
	dest, err := archiveFile(src, c.settings.ProcessedFolder, c.now())
	if err != nil {
		metrics.ArchiveFailures.Inc()
		logger.Warn("could not archive users file", "source", src, "error", err)
		return ""
	}
	logger.Debug("users file archived", "dest", dest)
	return dest
}
