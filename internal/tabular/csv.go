package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"barstock/internal"
)

// ParseDelimited reads CSV/TSV text with a header line. Text with no content
// yields an empty table, not an error.
func ParseDelimited(data []byte, opts Options) (internal.Table, error) {
	decoded, _, err := Decode(data)
	if err != nil {
		return internal.Table{}, parseErr(opts, 0, "decode: %w", err)
	}
	if len(bytes.TrimSpace(decoded)) == 0 {
		return internal.Table{Tab: opts.Tab, Rows: []internal.RawRow{}}, nil
	}
	if looksLikeHTML(decoded) {
		return internal.Table{}, parseErr(opts, 1, "received an HTML page instead of delimited text")
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = SniffDelimiter(decoded)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delim
	reader.FieldsPerRecord = -1

	var records [][]string
	var lines []int
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return internal.Table{}, parseErr(opts, pe.StartLine, "%w", pe.Err)
			}
			return internal.Table{}, parseErr(opts, 0, "%w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	return FromRecords(opts.Tab, records, lines), nil
}

// SniffDelimiter picks tab, semicolon or comma from the header line.
func SniffDelimiter(data []byte) rune {
	first := string(data)
	if i := strings.IndexAny(first, "\r\n"); i >= 0 {
		first = first[:i]
	}
	best, bestCount := ',', strings.Count(first, ",")
	for _, d := range []rune{'\t', ';'} {
		if n := strings.Count(first, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func looksLikeHTML(data []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(data))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}
