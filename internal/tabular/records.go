package tabular

import (
	"fmt"
	"strings"

	"barstock/internal"
)

type Options struct {
	// Source names the input in errors, usually a URL or file path.
	Source string
	Tab    string
	// Delimiter forces the field separator; zero means sniff it.
	Delimiter rune
	// Sheets limits workbook parsing to these tab names.
	Sheets []string
}

// FromRecords builds a table from a grid whose first non-blank record is the
// header row. lines gives the 1-based source line of each record; nil means
// the record index plus one.
func FromRecords(tab string, records [][]string, lines []int) internal.Table {
	table := internal.Table{Tab: tab, Rows: []internal.RawRow{}}

	lineOf := func(i int) int {
		if i < len(lines) {
			return lines[i]
		}
		return i + 1
	}

	end := len(records)
	for end > 0 && blankRecord(records[end-1]) {
		end--
	}

	start := 0
	for start < end && blankRecord(records[start]) {
		start++
	}
	if start >= end {
		return table
	}

	table.Headers = append([]string(nil), records[start]...)

	for i := start + 1; i < end; i++ {
		rec := records[i]
		line := lineOf(i)
		if len(rec) > len(table.Headers) {
			if !blankRecord(rec[len(table.Headers):]) {
				table.Warnings = append(table.Warnings, internal.ParseWarning{
					Tab:     tab,
					Line:    line,
					Message: fmt.Sprintf("row has %d columns, expected %d; extra cells dropped", len(rec), len(table.Headers)),
				})
			}
			rec = rec[:len(table.Headers)]
		}

		row := make(internal.RawRow, len(table.Headers))
		for c, h := range table.Headers {
			value := ""
			if c < len(rec) {
				value = rec[c]
			}
			row[c] = internal.Cell{Header: h, Value: value}
		}
		table.Rows = append(table.Rows, row)
		table.Lines = append(table.Lines, line)
	}

	return table
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseErr(opts Options, line int, format string, args ...any) error {
	return &internal.ParseError{Source: opts.Source, Line: line, Err: fmt.Errorf(format, args...)}
}
