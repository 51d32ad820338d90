package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"barstock/internal"
	"barstock/internal/connectors"
)

func TestFetchCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drinks.csv")
	if err := os.WriteFile(path, []byte("Drink Name,Supplier\nTing,Wisynco\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewSource(path, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	var seen []connectors.RawBody
	src.SetObserver(func(b connectors.RawBody) { seen = append(seen, b) })

	tables, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 || tables[0].Tab != "drinks" || tables[0].Len() != 1 {
		t.Fatalf("tables=%+v", tables)
	}
	if len(seen) != 1 || len(seen[0].Body) == 0 {
		t.Fatalf("observed=%+v", seen)
	}
}

func TestFetchTSVByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drinks.tsv")
	if err := os.WriteFile(path, []byte("Drink Name\tPrice, JMD\nTing\t1,200\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewSource(path, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	tables, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tables[0].Headers[1] != "Price, JMD" || tables[0].Rows[0][1].Value != "1,200" {
		t.Fatalf("table=%+v", tables[0])
	}
}

func TestFetchMissingFile(t *testing.T) {
	src, err := NewSource(filepath.Join(t.TempDir(), "nope.csv"), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Fetch(context.Background()); !internal.IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestNewSourceRejectsFormat(t *testing.T) {
	if _, err := NewSource("x.csv", "pdf", nil); err == nil {
		t.Fatal("expected error")
	}
}
