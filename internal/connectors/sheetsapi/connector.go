package sheetsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"barstock/internal"
	"barstock/internal/config"
	"barstock/internal/connectors"
	"barstock/internal/connectors/export"
	"barstock/internal/tabular"
)

// Source reads cell values through the Sheets API v4. Each range becomes one
// tab; with no ranges configured every sheet of the spreadsheet is read.
type Source struct {
	service       *sheets.Service
	spreadsheetID string
	ranges        []string
	observe       connectors.RawObserver
}

func NewSource(ctx context.Context, cfg config.Config) (*Source, error) {
	ref := cfg.SheetID
	if strings.TrimSpace(ref) == "" {
		ref = cfg.SheetURL
	}
	if err := cfg.Require("SHEET_ID", ref); err != nil {
		return nil, err
	}
	id, err := export.ParseSheetID(ref)
	if err != nil {
		return nil, err
	}

	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return NewSourceWithService(svc, id, cfg.SheetRanges), nil
}

// clientOptions prefers an API key, which is enough for link-shared sheets,
// and falls back to an OAuth refresh token.
func clientOptions(ctx context.Context, cfg config.Config) ([]option.ClientOption, error) {
	if key := strings.TrimSpace(cfg.GoogleAPIKey); key != "" {
		return []option.ClientOption{option.WithAPIKey(key)}, nil
	}
	if err := cfg.Require("GOOGLE_CLIENT_ID", cfg.GoogleClientID); err != nil {
		return nil, fmt.Errorf("%w (or set GOOGLE_API_KEY)", err)
	}
	if err := cfg.Require("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_REFRESH_TOKEN", cfg.GoogleRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken})
	return []option.ClientOption{option.WithTokenSource(tokenSource)}, nil
}

func NewSourceWithService(svc *sheets.Service, spreadsheetID string, ranges []string) *Source {
	return &Source{service: svc, spreadsheetID: spreadsheetID, ranges: ranges}
}

func (s *Source) Name() string {
	return "sheets:" + s.spreadsheetID
}

func (s *Source) SetObserver(o connectors.RawObserver) {
	s.observe = o
}

func (s *Source) Fetch(ctx context.Context) ([]internal.Table, error) {
	ranges := s.ranges
	if len(ranges) == 0 {
		titles, err := s.sheetTitles(ctx)
		if err != nil {
			return nil, err
		}
		ranges = titles
	}

	out := make([]internal.Table, 0, len(ranges))
	for _, rng := range ranges {
		vr, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rng).
			ValueRenderOption("FORMATTED_VALUE").
			Context(ctx).
			Do()
		if err != nil {
			return nil, s.fetchErr(rng, err)
		}
		if s.observe != nil {
			if blob, err := json.Marshal(vr); err == nil {
				s.observe(connectors.RawBody{Source: s.Name(), Tab: rng, ContentType: "application/json", Body: blob})
			}
		}
		out = append(out, tabular.FromRecords(tabName(rng), toRecords(vr.Values), nil))
	}
	return out, nil
}

func (s *Source) sheetTitles(ctx context.Context) ([]string, error) {
	ss, err := s.service.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, s.fetchErr("", err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title != "" {
			titles = append(titles, sh.Properties.Title)
		}
	}
	if len(titles) == 0 {
		return nil, &internal.ParseError{Source: s.Name(), Err: errors.New("spreadsheet has no sheets")}
	}
	return titles, nil
}

func (s *Source) fetchErr(rng string, err error) error {
	source := s.Name()
	if rng != "" {
		source += "!" + rng
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &internal.FetchError{Source: source, StatusCode: gerr.Code, Err: err}
	}
	return &internal.FetchError{Source: source, Err: err}
}

func toRecords(values [][]interface{}) [][]string {
	out := make([][]string, 0, len(values))
	for _, row := range values {
		rec := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				rec[i] = fmt.Sprint(v)
			}
		}
		out = append(out, rec)
	}
	return out
}

// tabName strips the cell span and quoting from an A1 range.
func tabName(rng string) string {
	name, _, _ := strings.Cut(rng, "!")
	name = strings.TrimSpace(name)
	if len(name) >= 2 && strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'") {
		name = strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}
