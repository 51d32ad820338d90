package file

import (
	"context"
	"mime"
	"os"
	"path/filepath"

	"barstock/internal"
	"barstock/internal/connectors"
	"barstock/internal/tabular"
)

// Source reads a local csv, tsv, xlsx or saved html export.
type Source struct {
	path    string
	format  tabular.Format
	tabs    []string
	observe connectors.RawObserver
}

// NewSource guesses the format from the extension unless format is set.
func NewSource(path, format string, tabs []string) (*Source, error) {
	f := tabular.FormatForPath(path)
	if format != "" {
		parsed, err := tabular.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		f = parsed
	}
	return &Source{path: path, format: f, tabs: tabs}, nil
}

func (s *Source) Name() string {
	return s.path
}

func (s *Source) SetObserver(o connectors.RawObserver) {
	s.observe = o
}

func (s *Source) Fetch(ctx context.Context) ([]internal.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, &internal.FetchError{Source: s.path, Err: err}
	}
	blob, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &internal.FetchError{Source: s.path, Err: err}
	}
	contentType := mime.TypeByExtension(filepath.Ext(s.path))
	if s.observe != nil {
		s.observe(connectors.RawBody{Source: s.path, ContentType: contentType, Body: blob})
	}

	format := tabular.Detect(s.format, contentType, blob)
	return tabular.Parse(format, blob, tabular.Options{Source: s.path, Tab: tabFor(s.path, format), Sheets: s.tabs})
}

// Delimited files are one tab named after the file; workbooks and pages name
// their own tabs.
func tabFor(path string, format tabular.Format) string {
	if format == tabular.FormatCSV || format == tabular.FormatTSV {
		base := filepath.Base(path)
		return base[:len(base)-len(filepath.Ext(base))]
	}
	return ""
}
