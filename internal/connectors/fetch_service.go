package connectors

import (
	"context"
	"log/slog"

	"barstock/internal"
	"barstock/internal/storage"
)

// Observable sources report each downloaded payload before parsing it.
type Observable interface {
	SetObserver(RawObserver)
}

type FetchService struct {
	source TableSource
	store  *RawStoreService
}

type FetchResult struct {
	Tables []internal.Table
	Rows   int
}

// NewFetchService wraps source. With a nil db raw payloads are not archived.
func NewFetchService(db *storage.DB, rawDir string, source TableSource) *FetchService {
	s := &FetchService{source: source}
	if db != nil && rawDir != "" {
		s.store = NewRawStoreService(db, rawDir)
		if o, ok := source.(Observable); ok {
			o.SetObserver(s.archive)
		}
	}
	return s
}

func (s *FetchService) Name() string {
	return s.source.Name()
}

func (s *FetchService) Fetch(ctx context.Context) (FetchResult, error) {
	tables, err := s.source.Fetch(ctx)
	if err != nil {
		return FetchResult{}, err
	}
	rows := 0
	for _, t := range tables {
		rows += t.Len()
	}
	return FetchResult{Tables: tables, Rows: rows}, nil
}

// archive never fails a refresh; the payload is already in memory.
func (s *FetchService) archive(body RawBody) {
	row, err := s.store.Store(body)
	if err != nil {
		slog.Warn("raw archive failed", "source", body.Source, "tab", body.Tab, "error", err)
		return
	}
	slog.Debug("raw payload archived", "source", body.Source, "tab", body.Tab, "hash", row.Hash, "path", row.RawRef)
}
