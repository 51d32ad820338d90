package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"barstock/internal"
	"barstock/internal/connectors"
	"barstock/internal/headers"
	"barstock/internal/pipeline"
	"barstock/internal/storage"
)

func nrow(id int, name, category, supplier string) internal.NormalizedRow {
	return internal.NormalizedRow{ID: id, SourceRow: id + 1, Values: internal.MappedRow{
		"drinkName": name, "category": category, "supplier": supplier, "price": "", "unit": "N/A",
	}}
}

func sampleCatalog() *Catalog {
	c := New(nil)
	c.Replace(&Snapshot{RunID: "r1", Rows: []internal.NormalizedRow{
		nrow(1, "Red Stripe", "Beer", "Desnoes & Geddes"),
		nrow(2, "Appleton Estate 12", "Rum", "J. Wray & Nephew"),
		nrow(3, "Wray & Nephew Overproof", "Rum", "J. Wray & Nephew"),
		nrow(4, "Ting", "Soda", "Wisynco"),
	}})
	return c
}

func TestSearch(t *testing.T) {
	c := sampleCatalog()
	cases := []struct {
		query string
		ids   []int
	}{
		{query: "", ids: []int{1, 2, 3, 4}},
		{query: "   ", ids: []int{1, 2, 3, 4}},
		{query: "rum", ids: []int{2, 3}},
		{query: "RUM wray", ids: []int{2, 3}},
		{query: "rum appleton", ids: []int{2}},
		{query: "wisynco", ids: []int{4}},
		{query: "beer wisynco", ids: []int{}},
		{query: "vodka", ids: []int{}},
	}
	for _, tc := range cases {
		got := c.Search(tc.query)
		if len(got) != len(tc.ids) {
			t.Fatalf("%q: got %d rows want %d", tc.query, len(got), len(tc.ids))
		}
		for i, id := range tc.ids {
			if got[i].ID != id {
				t.Fatalf("%q: row %d id=%d want %d", tc.query, i, got[i].ID, id)
			}
		}
	}
}

func TestSearchIgnoresUnsearchedFields(t *testing.T) {
	c := New(nil)
	row := nrow(1, "Ting", "Soda", "Wisynco")
	row.Values["notes"] = "grapefruit"
	c.Replace(&Snapshot{RunID: "r", Rows: []internal.NormalizedRow{row}})
	if got := c.Search("grapefruit"); len(got) != 0 {
		t.Fatalf("got %d", len(got))
	}

	c = New([]internal.LogicalField{internal.FieldNotes})
	c.Replace(&Snapshot{RunID: "r", Rows: []internal.NormalizedRow{row}})
	if got := c.Search("grapefruit"); len(got) != 1 {
		t.Fatalf("got %d", len(got))
	}
}

func TestGetAndListAll(t *testing.T) {
	c := sampleCatalog()
	row, ok := c.Get(3)
	if !ok || row.Get(internal.FieldDrinkName) != "Wray & Nephew Overproof" {
		t.Fatalf("row=%+v ok=%v", row, ok)
	}
	if _, ok := c.Get(99); ok {
		t.Fatal("expected missing")
	}
	all := c.ListAll()
	all[0] = internal.NormalizedRow{}
	if c.ListAll()[0].ID != 1 {
		t.Fatal("ListAll must not expose the snapshot slice")
	}
}

func TestSnapshotReadsSurviveReplace(t *testing.T) {
	c := sampleCatalog()
	held := c.Snapshot()
	c.Replace(&Snapshot{RunID: "r2", Rows: []internal.NormalizedRow{nrow(1, "Ting", "Soda", "Wisynco")}})

	if held.RunID != "r1" || len(held.ListAll()) != 4 {
		t.Fatalf("held run=%s rows=%d", held.RunID, len(held.ListAll()))
	}
	if got := held.Search("rum"); len(got) != 2 {
		t.Fatalf("held search got %d", len(got))
	}
	if row, ok := held.Get(1); !ok || row.Get(internal.FieldDrinkName) != "Red Stripe" {
		t.Fatalf("held get=%+v ok=%v", row, ok)
	}
	if got := c.Search("rum"); len(got) != 0 {
		t.Fatalf("current search got %d", len(got))
	}
	if row, _ := c.Get(1); row.Get(internal.FieldDrinkName) != "Ting" {
		t.Fatalf("current get=%+v", row)
	}
}

func TestNewCatalogIsEmpty(t *testing.T) {
	c := New(nil)
	if !c.Snapshot().Empty || len(c.ListAll()) != 0 || c.Loaded() {
		t.Fatalf("snap=%+v", c.Snapshot())
	}
}

func TestReplaceIsAtomic(t *testing.T) {
	c := New(nil)
	mk := func(run string, n int) *Snapshot {
		rows := make([]internal.NormalizedRow, n)
		for i := range rows {
			rows[i] = nrow(i+1, run, "x", "y")
		}
		return &Snapshot{RunID: run, Rows: rows}
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				c.Replace(mk("old", 5))
			} else {
				c.Replace(mk("new", 9))
			}
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		rows := c.ListAll()
		if len(rows) == 0 {
			continue
		}
		run := rows[0].Get(internal.FieldDrinkName)
		want := 5
		if run == "new" {
			want = 9
		}
		if len(rows) != want {
			t.Fatalf("mixed snapshot: run=%s len=%d", run, len(rows))
		}
		for _, r := range rows {
			if r.Get(internal.FieldDrinkName) != run {
				t.Fatalf("mixed snapshot rows")
			}
		}
	}
}

type fakeFetcher struct {
	tables []internal.Table
	err    error
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context) (connectors.FetchResult, error) {
	if f.err != nil {
		return connectors.FetchResult{}, f.err
	}
	return connectors.FetchResult{Tables: f.tables}, nil
}

func sheetTable(rows ...[]string) internal.Table {
	hdr := []string{"Drink Name", "Category", "Supplier", "Price (JMD)", "Size"}
	t := internal.Table{Tab: "Sheet1", Headers: hdr}
	for _, r := range rows {
		raw := internal.RawRow{}
		for i, h := range hdr {
			raw = append(raw, internal.Cell{Header: h, Value: r[i]})
		}
		t.Rows = append(t.Rows, raw)
	}
	return t
}

func newTestSync(t *testing.T, f Fetcher) (*SyncService, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	builder := pipeline.NewBuilder(headers.MustResolver(headers.DefaultTable()), pipeline.BuildOptions{})
	return NewSyncService(db, f, builder, New(nil)), db
}

func TestRefreshPublishesAndPersists(t *testing.T) {
	f := &fakeFetcher{tables: []internal.Table{sheetTable(
		[]string{"Red Stripe", "Beer", "D&G", "1,250", "33cl"},
		[]string{"", "", "", "", ""},
		[]string{"Ting", "Soda", "Wisynco", "USD 1", ""},
	)}}
	svc, db := newTestSync(t, f)

	res, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Run.Status != internal.RunOK || len(res.Rows) != 2 || res.Skipped != 1 {
		t.Fatalf("res=%+v", res)
	}
	rows := svc.Catalog().ListAll()
	if rows[0].Get(internal.FieldPrice) != "1250.00" || rows[0].Get(internal.FieldUnit) != "330ml" {
		t.Fatalf("row=%+v", rows[0])
	}
	if rows[1].Get(internal.FieldPrice) != "155.00" || rows[1].Get(internal.FieldUnit) != "N/A" {
		t.Fatalf("row=%+v", rows[1])
	}

	stored, err := db.LatestSnapshot()
	if err != nil || stored == nil {
		t.Fatalf("stored=%v err=%v", stored, err)
	}
	if stored.Run.ID != res.Run.ID || len(stored.Rows) != 2 {
		t.Fatalf("stored=%+v", stored.Run)
	}
}

func TestFailedRefreshKeepsPreviousCatalog(t *testing.T) {
	f := &fakeFetcher{tables: []internal.Table{sheetTable([]string{"Ting", "Soda", "Wisynco", "120", ""})}}
	svc, db := newTestSync(t, f)
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := svc.Catalog().Snapshot()

	f.err = &internal.FetchError{Source: "fake", StatusCode: 503, Err: errors.New("unavailable")}
	res, err := svc.Refresh(context.Background())
	if !internal.IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if res.Run.Status != internal.RunFetchError {
		t.Fatalf("status=%s", res.Run.Status)
	}
	if svc.Catalog().Snapshot() != before {
		t.Fatal("catalog replaced after failed refresh")
	}

	f.err = &internal.ParseError{Source: "fake", Line: 1, Err: errors.New("html")}
	if _, err := svc.Refresh(context.Background()); !internal.IsParseError(err) {
		t.Fatalf("expected ParseError, got %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("runs=%d", len(runs))
	}
}

func TestEmptyRefreshIsNotAnError(t *testing.T) {
	f := &fakeFetcher{tables: []internal.Table{sheetTable([]string{"", "", "", "", ""})}}
	svc, _ := newTestSync(t, f)
	res, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Empty || res.Run.Status != internal.RunEmpty || !svc.Catalog().Snapshot().Empty {
		t.Fatalf("res=%+v", res)
	}
	if !svc.Catalog().Loaded() {
		t.Fatal("empty catalog should still count as loaded")
	}
}

func TestWarmStart(t *testing.T) {
	f := &fakeFetcher{tables: []internal.Table{sheetTable([]string{"Ting", "Soda", "Wisynco", "120", ""})}}
	svc, db := newTestSync(t, f)
	if ok, err := svc.WarmStart(); err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	builder := pipeline.NewBuilder(headers.MustResolver(headers.DefaultTable()), pipeline.BuildOptions{})
	fresh := NewSyncService(db, &fakeFetcher{err: errors.New("offline")}, builder, New(nil))
	ok, err := fresh.WarmStart()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got := fresh.Catalog().Search("ting"); len(got) != 1 {
		t.Fatalf("got %d", len(got))
	}
}
