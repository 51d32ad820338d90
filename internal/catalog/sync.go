package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"barstock/internal"
	"barstock/internal/connectors"
	"barstock/internal/pipeline"
	"barstock/internal/storage"
)

// Fetcher is satisfied by *connectors.FetchService.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (connectors.FetchResult, error)
}

// SyncService runs ingestion cycles: fetch, build, publish, persist.
type SyncService struct {
	db      *storage.DB
	fetcher Fetcher
	builder *pipeline.Builder
	catalog *Catalog
	now     func() time.Time
}

type RefreshResult struct {
	Run      internal.RunRecord
	Rows     []internal.NormalizedRow
	Skipped  int
	Warnings int
	Empty    bool
}

// NewSyncService wires the cycle. db may be nil, in which case nothing is
// persisted.
func NewSyncService(db *storage.DB, fetcher Fetcher, builder *pipeline.Builder, catalog *Catalog) *SyncService {
	return &SyncService{db: db, fetcher: fetcher, builder: builder, catalog: catalog, now: time.Now}
}

func (s *SyncService) Catalog() *Catalog {
	return s.catalog
}

// Refresh replaces the catalog with a fresh build. On fetch or parse failure
// the current catalog stays in place and the error is returned unchanged.
// An empty sheet is not an error: the catalog becomes empty.
func (s *SyncService) Refresh(ctx context.Context) (RefreshResult, error) {
	started := s.now().UTC()
	run := internal.RunRecord{
		ID:        uuid.NewString(),
		Source:    s.fetcher.Name(),
		StartedAt: started.Format(time.RFC3339Nano),
	}
	logger := slog.With("run_id", run.ID, "source", run.Source)

	fetched, err := s.fetcher.Fetch(ctx)
	if err != nil {
		run.Status = internal.RunStatusFor(err)
		run.Error = err.Error()
		run.FinishedAt = s.now().UTC().Format(time.RFC3339Nano)
		logger.Warn("catalog refresh failed", "status", run.Status, "error", err)
		if s.db != nil {
			if dbErr := s.db.InsertRun(run); dbErr != nil {
				logger.Error("record failed run", "error", dbErr)
			}
		}
		return RefreshResult{Run: run}, err
	}

	built := s.builder.Build(fetched.Tables...)
	run.Status = internal.RunOK
	if built.Empty {
		run.Status = internal.RunEmpty
	}
	run.RowCount = len(built.Rows)
	run.FinishedAt = s.now().UTC().Format(time.RFC3339Nano)

	s.catalog.Replace(&Snapshot{
		RunID:    run.ID,
		Source:   run.Source,
		LoadedAt: started,
		Rows:     built.Rows,
		Headers:  built.Headers,
		Warnings: built.Warnings,
	})

	if s.db != nil {
		snap := storage.Snapshot{Run: run, Rows: built.Rows, Headers: built.Headers, Warnings: built.Warnings}
		if err := s.db.SaveSnapshot(snap); err != nil {
			logger.Error("persist catalog snapshot", "error", err)
		}
		_ = s.db.SetMetadata("catalog.last_refresh", run.FinishedAt)
	}

	logger.Info("catalog refreshed", "rows", run.RowCount, "skipped", built.Skipped, "warnings", len(built.Warnings), "empty", built.Empty)
	return RefreshResult{
		Run:      run,
		Rows:     built.Rows,
		Skipped:  built.Skipped,
		Warnings: len(built.Warnings),
		Empty:    built.Empty,
	}, nil
}

// WarmStart seeds the catalog from the last persisted snapshot so the API has
// data before the first refresh completes. It reports whether one was found.
func (s *SyncService) WarmStart() (bool, error) {
	if s.db == nil {
		return false, nil
	}
	stored, err := s.db.LatestSnapshot()
	if err != nil {
		return false, fmt.Errorf("load last snapshot: %w", err)
	}
	if stored == nil {
		return false, nil
	}
	loaded, err := time.Parse(time.RFC3339Nano, stored.Run.StartedAt)
	if err != nil {
		loaded = time.Time{}
	}
	s.catalog.Replace(&Snapshot{
		RunID:    stored.Run.ID,
		Source:   stored.Run.Source,
		LoadedAt: loaded,
		Rows:     stored.Rows,
		Headers:  stored.Headers,
		Warnings: stored.Warnings,
	})
	slog.Info("catalog warm start", "run_id", stored.Run.ID, "rows", len(stored.Rows))
	return true, nil
}

// Runs lists recent ingestion runs, newest first.
func (s *SyncService) Runs(limit int) ([]internal.RunRecord, error) {
	if s.db == nil {
		return []internal.RunRecord{}, nil
	}
	return s.db.ListRuns(limit)
}
