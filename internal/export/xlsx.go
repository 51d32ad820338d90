package export

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"barstock/internal"
)

const (
	catalogSheet = "catalog"
	headersSheet = "headers"
)

// RowsToXLSX writes the catalog with one column per logical field followed by
// the custom columns. When resolutions are given a second
// sheet explains how each source header was mapped.
func RowsToXLSX(rows []internal.NormalizedRow, resolutions []internal.HeaderResolution, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), catalogSheet); err != nil {
		return err
	}

	custom := customColumns(rows, resolutions)
	headers := []string{"id", "tab", "source_row"}
	for _, field := range internal.AllFields {
		headers = append(headers, string(field))
	}
	headers = append(headers, "raw_price", "raw_unit")
	headers = append(headers, custom...)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(catalogSheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		col := 0
		set := func(value any) {
			col++
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(catalogSheet, cell, value)
		}

		set(row.ID)
		set(row.Tab)
		set(row.SourceRow)
		for _, field := range internal.AllFields {
			set(row.Get(field))
		}
		set(row.RawPrice)
		set(row.RawUnit)
		for _, h := range custom {
			set(row.Values[h])
		}
	}
	_ = f.SetPanes(catalogSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if len(resolutions) > 0 {
		if _, err := f.NewSheet(headersSheet); err != nil {
			return err
		}
		for i, h := range []string{"header", "field", "via"} {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(headersSheet, cell, h)
		}
		for i, res := range resolutions {
			_ = f.SetSheetRow(headersSheet, "A"+strconv.Itoa(i+2), &[]any{res.Header, string(res.Field), string(res.Via)})
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// customColumns orders passthrough columns as the sheet did, using the
// header resolutions; any left over are appended sorted.
func customColumns(rows []internal.NormalizedRow, resolutions []internal.HeaderResolution) []string {
	present := map[string]struct{}{}
	for _, row := range rows {
		for k := range row.Values {
			if !internal.IsLogicalField(k) {
				present[k] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(present))
	for _, res := range resolutions {
		if _, ok := present[res.Header]; ok && res.Via == internal.ViaCustom {
			out = append(out, res.Header)
			delete(present, res.Header)
		}
	}
	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(out, rest...)
}
