package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"barstock/internal"
	"barstock/internal/config"
	"barstock/internal/connectors"
	"barstock/internal/tabular"
)

// Target is one download; Tab labels the rows it yields.
type Target struct {
	Tab string
	URL string
}

// Source reads a shared sheet through its export or pubhtml links.
type Source struct {
	client  *Client
	targets []Target
	format  tabular.Format
	tabs    []string
	observe connectors.RawObserver
}

func NewSource(cfg config.Config) (*Source, error) {
	format, err := tabular.ParseFormat(cfg.SheetFormat)
	if err != nil {
		return nil, err
	}
	targets, err := Targets(DefaultBaseURL, cfg.SheetURL, cfg.SheetID, cfg.SheetGIDs, format)
	if err != nil {
		return nil, err
	}
	client := NewClient(time.Duration(cfg.FetchTimeoutMs)*time.Millisecond, cfg.FetchRateLimitRPS, cfg.FetchMaxAttempts)
	return NewSourceWithClient(client, targets, format, cfg.SheetTabs), nil
}

func NewSourceWithClient(client *Client, targets []Target, format tabular.Format, tabs []string) *Source {
	return &Source{client: client, targets: targets, format: format, tabs: tabs}
}

// Targets expands the configured sheet reference into download links. A
// direct link is used as is; otherwise one link per gid is built.
func Targets(baseURL, sheetURL, sheetID string, gids []string, format tabular.Format) ([]Target, error) {
	if sheetURL = strings.TrimSpace(sheetURL); sheetURL != "" && IsDirectURL(sheetURL) {
		return []Target{{Tab: ParseGID(sheetURL), URL: sheetURL}}, nil
	}

	ref := strings.TrimSpace(sheetID)
	if ref == "" {
		ref = sheetURL
	}
	if ref == "" {
		return nil, fmt.Errorf("missing required env var: SHEET_URL or SHEET_ID")
	}
	id, err := ParseSheetID(ref)
	if err != nil {
		return nil, err
	}

	if len(gids) == 0 {
		gids = []string{ParseGID(sheetURL)}
	}
	if format == tabular.FormatXLSX {
		gids = gids[:1]
	}

	out := make([]Target, 0, len(gids))
	for _, gid := range gids {
		tab := gid
		if format == tabular.FormatXLSX {
			tab = ""
		}
		out = append(out, Target{Tab: tab, URL: ExportURL(baseURL, id, format, gid)})
	}
	return out, nil
}

func (s *Source) Name() string {
	if len(s.targets) == 0 {
		return "export"
	}
	if len(s.targets) == 1 {
		return s.targets[0].URL
	}
	return fmt.Sprintf("%s (+%d tabs)", s.targets[0].URL, len(s.targets)-1)
}

func (s *Source) SetObserver(o connectors.RawObserver) {
	s.observe = o
}

func (s *Source) Fetch(ctx context.Context) ([]internal.Table, error) {
	if len(s.targets) == 0 {
		return nil, &internal.FetchError{Source: "export", Err: fmt.Errorf("no sheet configured")}
	}

	var out []internal.Table
	for _, target := range s.targets {
		resp, err := s.client.Get(ctx, target.URL)
		if err != nil {
			return nil, err
		}
		if s.observe != nil {
			s.observe(connectors.RawBody{Source: target.URL, Tab: target.Tab, ContentType: resp.ContentType, Body: resp.Body})
		}

		format := tabular.Detect(s.format, resp.ContentType, resp.Body)
		tables, err := tabular.Parse(format, resp.Body, tabular.Options{Source: target.URL, Tab: target.Tab, Sheets: s.tabs})
		if err != nil {
			return nil, err
		}
		slog.Debug("sheet tab fetched", "url", target.URL, "format", format, "tables", len(tables), "bytes", len(resp.Body))
		out = append(out, tables...)
	}
	return out, nil
}
