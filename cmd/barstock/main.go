package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"barstock/internal"
	"barstock/internal/catalog"
	"barstock/internal/config"
	fileconnector "barstock/internal/connectors/file"
	"barstock/internal/export"
	"barstock/internal/headers"
	"barstock/internal/logging"
	"barstock/internal/pipeline"
	"barstock/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "headers:explain":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		header := fs.String("header", "", "sheet column header")
		_ = fs.Parse(os.Args[2:])
		names := fs.Args()
		if strings.TrimSpace(*header) != "" {
			names = append([]string{*header}, names...)
		}
		if len(names) == 0 {
			must(fmt.Errorf("--header is required"))
		}
		table, err := cfg.HeaderTable()
		must(err)
		resolver, err := headers.NewResolver(table)
		must(err)
		printResolutions(resolver.ExplainAll(names))
		return
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "csv|tsv|html|xlsx file")
		output := fs.String("output", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *output == "" {
			must(fmt.Errorf("--input and --output are required"))
		}
		must(runOnce(cfg, *input, *output))
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx := context.Background()
	svc, err := catalog.NewFromConfig(ctx, db, cfg)
	must(err)

	switch cmd {
	case "catalog:refresh":
		res, err := svc.Refresh(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, internal.UserMessage(err))
		}
		must(err)
		fmt.Printf("refresh complete run=%s status=%s rows=%d skipped=%d warnings=%d\n",
			res.Run.ID, res.Run.Status, len(res.Rows), res.Skipped, res.Warnings)
	case "catalog:list":
		mustLoad(ctx, svc)
		printRows(svc.Catalog().ListAll())
	case "catalog:search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		q := fs.String("q", "", "search text")
		_ = fs.Parse(os.Args[2:])
		query := strings.TrimSpace(strings.Join(append([]string{*q}, fs.Args()...), " "))
		mustLoad(ctx, svc)
		printRows(svc.Catalog().Search(query))
	case "catalog:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Int("id", 0, "row id")
		_ = fs.Parse(os.Args[2:])
		if *id <= 0 {
			must(fmt.Errorf("--id is required"))
		}
		mustLoad(ctx, svc)
		row, ok := svc.Catalog().Get(*id)
		if !ok {
			must(fmt.Errorf("no drink with id=%d", *id))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		must(enc.Encode(row))
	case "catalog:headers":
		mustLoad(ctx, svc)
		snap := svc.Catalog().Snapshot()
		printResolutions(snap.Headers)
		for _, w := range snap.Warnings {
			fmt.Printf("warning tab=%s line=%d %s\n", w.Tab, w.Line, w.Message)
		}
	case "catalog:runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := svc.Runs(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s\t%s\t%s\trows=%d\t%s\n", r.StartedAt, r.ID, r.Status, r.RowCount, r.Error)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", filepath.Join(cfg.OutputDir, "catalog.xlsx"), "output xlsx path")
		fresh := fs.Bool("refresh", false, "refresh from the sheet before exporting")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		if *fresh {
			_, err := svc.Refresh(ctx)
			must(err)
		} else {
			mustLoad(ctx, svc)
		}
		snap := svc.Catalog().Snapshot()
		if len(snap.Rows) == 0 {
			must(fmt.Errorf("catalog is empty, nothing to export"))
		}
		must(export.RowsToXLSX(snap.Rows, snap.Headers, *out))
		fmt.Printf("exported %d rows to %s\n", len(snap.Rows), *out)
	default:
		usage()
		os.Exit(1)
	}
}

// mustLoad uses the last stored catalog and falls back to a live refresh.
func mustLoad(ctx context.Context, svc *catalog.SyncService) {
	ok, err := svc.WarmStart()
	must(err)
	if ok {
		return
	}
	_, err = svc.Refresh(ctx)
	must(err)
}

// runOnce builds a catalog from a local file and writes it straight to xlsx
// without touching the database.
func runOnce(cfg config.Config, input, output string) error {
	table, err := cfg.HeaderTable()
	if err != nil {
		return err
	}
	resolver, err := headers.NewResolver(table)
	if err != nil {
		return err
	}
	src, err := fileconnector.NewSource(input, "", cfg.SheetTabs)
	if err != nil {
		return err
	}
	tables, err := src.Fetch(context.Background())
	if err != nil {
		return err
	}
	built := pipeline.NewBuilder(resolver, pipeline.BuildOptions{
		USDRate:          cfg.USDToJMDRate,
		RequireDrinkName: cfg.RequireDrinkName,
	}).Build(tables...)
	if err := export.RowsToXLSX(built.Rows, built.Headers, output); err != nil {
		return err
	}
	fmt.Printf("run done rows=%d skipped=%d output=%s\n", len(built.Rows), built.Skipped, output)
	return nil
}

func printRows(rows []internal.NormalizedRow) {
	for _, r := range rows {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Get(internal.FieldDrinkName),
			r.Get(internal.FieldCategory),
			r.Get(internal.FieldSupplier),
			r.Get(internal.FieldPrice),
			r.Get(internal.FieldUnit),
		)
	}
	fmt.Printf("%d rows\n", len(rows))
}

func printResolutions(res []internal.HeaderResolution) {
	for _, h := range res {
		field := string(h.Field)
		if field == "" {
			field = "-"
		}
		fmt.Printf("%q\t%s\t%s\n", h.Header, field, h.Via)
	}
}

func usage() {
	fmt.Println("usage: barstock <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:refresh")
	fmt.Println("  catalog:list")
	fmt.Println("  catalog:search --q=\"rum appleton\"")
	fmt.Println("  catalog:show --id=3")
	fmt.Println("  catalog:headers")
	fmt.Println("  catalog:runs [--limit=20]")
	fmt.Println("  export:xlsx [--out=./out/catalog.xlsx] [--refresh]")
	fmt.Println("  headers:explain --header=\"Price (JMD)\" [more headers...]")
	fmt.Println("  run --input=./sheet.csv --output=./out/catalog.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
