package export

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"barstock/internal/tabular"
)

const DefaultBaseURL = "https://docs.google.com"

var (
	reSheetID   = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	reBareID    = regexp.MustCompile(`^[a-zA-Z0-9-_]{20,}$`)
	reGID       = regexp.MustCompile(`[#&?]gid=(\d+)`)
	rePublished = regexp.MustCompile(`/spreadsheets/d/e/`)
)

// ParseSheetID extracts the spreadsheet id from a share link or accepts a
// bare id.
func ParseSheetID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty sheet reference")
	}
	if rePublished.MatchString(input) {
		return "", fmt.Errorf("published link %q has no spreadsheet id; use it as SHEET_URL", input)
	}
	if m := reSheetID.FindStringSubmatch(input); m != nil {
		return m[1], nil
	}
	if reBareID.MatchString(input) {
		return input, nil
	}
	return "", fmt.Errorf("not a google sheets link or id: %q", input)
}

// ParseGID returns the gid fragment or query value of a share link.
func ParseGID(input string) string {
	if m := reGID.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return ""
}

// IsDirectURL reports links that already point at a downloadable rendition.
func IsDirectURL(input string) bool {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil || u.Host == "" {
		return false
	}
	if rePublished.MatchString(u.Path) {
		return true
	}
	return strings.HasSuffix(u.Path, "/export") || strings.HasSuffix(u.Path, "/pub") ||
		strings.HasSuffix(u.Path, "/pubhtml") || !strings.Contains(u.Path, "/spreadsheets/")
}

// ExportURL builds the download link for one tab. gid is ignored for xlsx,
// which always covers the whole workbook.
func ExportURL(baseURL, sheetID string, format tabular.Format, gid string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := strings.TrimRight(baseURL, "/") + "/spreadsheets/d/" + url.PathEscape(sheetID)
	q := url.Values{}
	if format == tabular.FormatHTML {
		if gid != "" {
			q.Set("gid", gid)
			q.Set("single", "true")
		}
		if len(q) == 0 {
			return base + "/pubhtml"
		}
		return base + "/pubhtml?" + q.Encode()
	}

	q.Set("format", string(format))
	if gid != "" && format != tabular.FormatXLSX {
		q.Set("gid", gid)
	}
	return base + "/export?" + q.Encode()
}
