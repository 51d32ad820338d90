package tabular

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"barstock/internal"
)

// ParseXLSX reads each worksheet of a workbook as one tab.
func ParseXLSX(content []byte, opts Options) ([]internal.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, parseErr(opts, 0, "xlsx: %w", err)
	}
	defer f.Close()

	out := []internal.Table{}
	for _, sheet := range f.GetSheetList() {
		if !wantSheet(opts.Sheets, sheet) {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, parseErr(opts, 0, "xlsx sheet %s: %w", sheet, err)
		}
		out = append(out, FromRecords(sheet, rows, nil))
	}
	return out, nil
}
