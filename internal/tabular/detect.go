package tabular

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"barstock/internal"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

var zipMagic = []byte("PK\x03\x04")

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "html", "pubhtml":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported sheet format: %s", s)
	}
}

// FormatForPath guesses the format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return FormatTSV
	case ".xlsx":
		return FormatXLSX
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatCSV
	}
}

// Detect decides how to read a fetched body. The payload wins over the
// requested format, so a sign-in page served for a private sheet is read as
// HTML only when HTML was asked for.
func Detect(requested Format, contentType string, body []byte) Format {
	if bytes.HasPrefix(body, zipMagic) {
		return FormatXLSX
	}
	media, _, _ := mime.ParseMediaType(contentType)
	switch media {
	case "text/tab-separated-values":
		return FormatTSV
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX
	}
	if requested == FormatHTML && (media == "text/html" || looksLikeHTML(body)) {
		return FormatHTML
	}
	if requested == FormatXLSX {
		// not a zip: let the delimited parser report what it is
		return FormatCSV
	}
	if requested == "" {
		return FormatCSV
	}
	return requested
}

// Parse dispatches to the parser for format.
func Parse(format Format, body []byte, opts Options) ([]internal.Table, error) {
	switch format {
	case FormatXLSX:
		return ParseXLSX(body, opts)
	case FormatHTML:
		return ParseHTML(body, opts)
	case FormatTSV:
		opts.Delimiter = '\t'
	}
	table, err := ParseDelimited(body, opts)
	if err != nil {
		return nil, err
	}
	return []internal.Table{table}, nil
}
