package connectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"barstock/internal"
	"barstock/internal/storage"
)

type stubSource struct {
	observe RawObserver
	body    []byte
}

func (s *stubSource) Name() string              { return "stub" }
func (s *stubSource) SetObserver(o RawObserver) { s.observe = o }

func (s *stubSource) Fetch(ctx context.Context) ([]internal.Table, error) {
	if s.observe != nil {
		s.observe(RawBody{Source: "https://example.test/sheet", Tab: "0", ContentType: "text/csv; charset=utf-8", Body: s.body})
	}
	return []internal.Table{{Tab: "0", Headers: []string{"Drink Name"}, Rows: []internal.RawRow{{{Header: "Drink Name", Value: "Ting"}}}}}, nil
}

func TestFetchServiceArchivesRawBodies(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	src := &stubSource{body: []byte("Drink Name\nTing\n")}
	rawDir := filepath.Join(tmp, "raw")
	svc := NewFetchService(db, rawDir, src)

	for i := 0; i < 2; i++ {
		res, err := svc.Fetch(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Tables) != 1 || res.Rows != 1 {
			t.Fatalf("res=%+v", res)
		}
	}

	files, err := filepath.Glob(filepath.Join(rawDir, "*", "*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
	blob, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != "Drink Name\nTing\n" {
		t.Fatalf("blob=%q", blob)
	}
}

func TestFetchServiceWithoutArchive(t *testing.T) {
	src := &stubSource{}
	svc := NewFetchService(nil, "", src)
	if src.observe != nil {
		t.Fatal("observer should not be installed without a db")
	}
	if svc.Name() != "stub" {
		t.Fatalf("name=%s", svc.Name())
	}
}
