package catalog

import (
	"sync/atomic"
	"time"

	"barstock/internal"
)

// DefaultSearchFields are searched when none are configured.
var DefaultSearchFields = []internal.LogicalField{internal.FieldDrinkName, internal.FieldCategory, internal.FieldSupplier}

// Snapshot is one complete catalog build. It is never modified after being
// published.
type Snapshot struct {
	RunID    string                      `json:"runId"`
	Source   string                      `json:"source"`
	LoadedAt time.Time                   `json:"loadedAt"`
	Rows     []internal.NormalizedRow    `json:"rows"`
	Headers  []internal.HeaderResolution `json:"headers"`
	Warnings []internal.ParseWarning     `json:"warnings"`
	Empty    bool                        `json:"empty"`

	index *Index
}

// Catalog is the query surface. Readers always see one whole snapshot;
// Replace swaps it in a single step.
type Catalog struct {
	current      atomic.Pointer[Snapshot]
	searchFields []internal.LogicalField
}

func New(searchFields []internal.LogicalField) *Catalog {
	if len(searchFields) == 0 {
		searchFields = DefaultSearchFields
	}
	c := &Catalog{searchFields: append([]internal.LogicalField(nil), searchFields...)}
	c.Replace(&Snapshot{Empty: true})
	return c
}

func (c *Catalog) SearchFields() []internal.LogicalField {
	return append([]internal.LogicalField(nil), c.searchFields...)
}

// Replace publishes snap. Concurrent callers race; the last store wins.
func (c *Catalog) Replace(snap *Snapshot) {
	if snap.Rows == nil {
		snap.Rows = []internal.NormalizedRow{}
	}
	snap.Empty = len(snap.Rows) == 0
	snap.index = BuildIndex(snap.Rows, c.searchFields)
	c.current.Store(snap)
}

func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

func (c *Catalog) Loaded() bool {
	return c.current.Load().Loaded()
}

func (c *Catalog) ListAll() []internal.NormalizedRow {
	return c.current.Load().ListAll()
}

func (c *Catalog) Search(q string) []internal.NormalizedRow {
	return c.current.Load().Search(q)
}

func (c *Catalog) Get(id int) (internal.NormalizedRow, bool) {
	return c.current.Load().Get(id)
}

// Loaded reports whether the snapshot came from a refresh or warm start.
func (s *Snapshot) Loaded() bool {
	return s.RunID != ""
}

// ListAll returns a copy of the rows in catalog order.
func (s *Snapshot) ListAll() []internal.NormalizedRow {
	return append([]internal.NormalizedRow(nil), s.Rows...)
}

// Search matches rows where every whitespace separated token of q occurs,
// case-insensitively, in at least one searched field. A blank query returns
// every row.
func (s *Snapshot) Search(q string) []internal.NormalizedRow {
	positions := s.index.Match(q)
	out := make([]internal.NormalizedRow, 0, len(positions))
	for _, pos := range positions {
		out = append(out, s.Rows[pos])
	}
	return out
}

func (s *Snapshot) Get(id int) (internal.NormalizedRow, bool) {
	pos, ok := s.index.Position(id)
	if !ok {
		return internal.NormalizedRow{}, false
	}
	return s.Rows[pos], true
}
