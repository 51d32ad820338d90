package connectors

import (
	"context"

	"barstock/internal"
)

// TableSource acquires the sheet and returns its parsed tabs.
type TableSource interface {
	Name() string
	Fetch(ctx context.Context) ([]internal.Table, error)
}

// RawBody is one fetched payload before parsing.
type RawBody struct {
	Source      string
	Tab         string
	ContentType string
	Body        []byte
}

// RawObserver is told about every payload a source downloads.
type RawObserver func(RawBody)
