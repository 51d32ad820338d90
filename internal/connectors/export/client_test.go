package export

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"barstock/internal"
	"barstock/internal/connectors"
	"barstock/internal/tabular"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(rt http.RoundTripper) *Client {
	c := NewClient(time.Second, 1000, 4)
	c.backoffBase = time.Millisecond
	if rt != nil {
		c.httpClient = &http.Client{Transport: rt}
	}
	return c
}

func textResponse(status int, contentType, body string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(strings.NewReader(body))}
}

func TestGetRetriesServerErrors(t *testing.T) {
	attempt := 0
	client := newTestClient(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		attempt++
		if attempt == 1 {
			return textResponse(http.StatusInternalServerError, "text/plain", "boom"), nil
		}
		if attempt == 2 {
			return textResponse(http.StatusTooManyRequests, "text/plain", "slow down"), nil
		}
		return textResponse(http.StatusOK, "text/csv", "Drink Name\nTing\n"), nil
	}))

	resp, err := client.Get(context.Background(), "https://example.test/sheet.csv")
	if err != nil {
		t.Fatal(err)
	}
	if attempt != 3 || string(resp.Body) != "Drink Name\nTing\n" {
		t.Fatalf("attempt=%d body=%q", attempt, resp.Body)
	}
}

func TestGetNotFoundIsFetchError(t *testing.T) {
	attempt := 0
	client := newTestClient(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		attempt++
		return textResponse(http.StatusNotFound, "text/html", "missing"), nil
	}))

	_, err := client.Get(context.Background(), "https://example.test/missing")
	var fe *internal.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound || attempt != 1 {
		t.Fatalf("status=%d attempt=%d", fe.StatusCode, attempt)
	}
}

func TestGetTransportFailureIsFetchError(t *testing.T) {
	attempt := 0
	client := newTestClient(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		attempt++
		return nil, errors.New("dial tcp: connection refused")
	}))

	_, err := client.Get(context.Background(), "https://example.test/sheet.csv")
	if !internal.IsFetchError(err) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if attempt != 4 {
		t.Fatalf("attempt=%d", attempt)
	}
}

func TestGetHonoursCancelledContext(t *testing.T) {
	client := newTestClient(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatal("request should not be sent")
		return nil, nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Get(ctx, "https://example.test/sheet.csv")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}

func TestParseSheetID(t *testing.T) {
	id := "1AbCdEfGhIjKlMnOpQrStUvWxYz0123456789-_"
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://docs.google.com/spreadsheets/d/" + id + "/edit#gid=0", want: id},
		{in: "https://docs.google.com/spreadsheets/d/" + id, want: id},
		{in: id, want: id},
		{in: "https://docs.google.com/spreadsheets/d/e/2PACX-abc/pubhtml", wantErr: true},
		{in: "not a sheet", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseSheetID(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q err=%v", tc.in, got, err)
		}
	}
}

func TestExportURL(t *testing.T) {
	cases := []struct {
		format tabular.Format
		gid    string
		want   string
	}{
		{tabular.FormatCSV, "0", "https://docs.google.com/spreadsheets/d/abc/export?format=csv&gid=0"},
		{tabular.FormatTSV, "", "https://docs.google.com/spreadsheets/d/abc/export?format=tsv"},
		{tabular.FormatXLSX, "7", "https://docs.google.com/spreadsheets/d/abc/export?format=xlsx"},
		{tabular.FormatHTML, "", "https://docs.google.com/spreadsheets/d/abc/pubhtml"},
		{tabular.FormatHTML, "7", "https://docs.google.com/spreadsheets/d/abc/pubhtml?gid=7&single=true"},
	}
	for _, tc := range cases {
		if got := ExportURL("", "abc", tc.format, tc.gid); got != tc.want {
			t.Fatalf("%s/%s: got %s", tc.format, tc.gid, got)
		}
	}
}

func TestTargets(t *testing.T) {
	share := "https://docs.google.com/spreadsheets/d/abcdefghijklmnopqrstuvwxyz/edit#gid=42"
	targets, err := Targets("", share, "", nil, tabular.FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].Tab != "42" || !strings.HasSuffix(targets[0].URL, "format=csv&gid=42") {
		t.Fatalf("targets=%+v", targets)
	}

	targets, err = Targets("", share, "", []string{"0", "99"}, tabular.FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 || targets[1].Tab != "99" {
		t.Fatalf("targets=%+v", targets)
	}

	direct := "https://docs.google.com/spreadsheets/d/e/2PACX-1vQ/pub?output=csv&gid=5"
	targets, err = Targets("", direct, "", []string{"0", "1"}, tabular.FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].URL != direct || targets[0].Tab != "5" {
		t.Fatalf("targets=%+v", targets)
	}

	if _, err := Targets("", "", "", nil, tabular.FormatCSV); err == nil {
		t.Fatal("expected error without sheet")
	}
}

func TestSourceFetchesEveryTab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("gid") {
		case "0":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			_, _ = io.WriteString(w, "Drink Name,Price (JMD),Size\nRed Stripe,250,275ML\n")
		case "1":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			_, _ = io.WriteString(w, "Product,USD Price\nAppleton 12,USD 40\n,\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	targets, err := Targets(srv.URL, "", "abcdefghijklmnopqrstuvwxyz", []string{"0", "1"}, tabular.FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	src := NewSourceWithClient(newTestClient(nil), targets, tabular.FormatCSV, nil)

	var seen []connectors.RawBody
	src.SetObserver(func(b connectors.RawBody) { seen = append(seen, b) })

	tables, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 2 || tables[0].Tab != "0" || tables[1].Tab != "1" {
		t.Fatalf("tables=%+v", tables)
	}
	if tables[1].Len() != 1 || tables[1].Rows[0][0].Value != "Appleton 12" {
		t.Fatalf("rum rows=%+v", tables[1].Rows)
	}
	if len(seen) != 2 || !strings.HasPrefix(seen[0].ContentType, "text/csv") {
		t.Fatalf("observed=%d", len(seen))
	}
}

func TestSourcePrivateSheetIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<!DOCTYPE html><html><body>Sign in</body></html>")
	}))
	defer srv.Close()

	src := NewSourceWithClient(newTestClient(nil), []Target{{URL: srv.URL + "/sheet.csv"}}, tabular.FormatCSV, nil)
	_, err := src.Fetch(context.Background())
	if !internal.IsParseError(err) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
