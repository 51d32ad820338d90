package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"barstock/internal"
	"barstock/internal/util"
)

// ParseHTML reads every <table> of a page as one tab. Published Google sheets
// ("pubhtml") render a row of column letters in <th> and row numbers in a
// leading <th>; both are ignored.
func ParseHTML(data []byte, opts Options) ([]internal.Table, error) {
	decoded, _, err := Decode(data)
	if err != nil {
		return nil, parseErr(opts, 0, "decode: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, parseErr(opts, 0, "html: %w", err)
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, parseErr(opts, 0, "html page contains no table")
	}

	names := sheetNames(doc)
	out := []internal.Table{}
	tables.Each(func(i int, table *goquery.Selection) {
		if table.ParentsFiltered("table").Length() > 0 {
			return
		}
		tab := opts.Tab
		if tab == "" {
			tab = tableName(table, names, i)
		}
		if !wantSheet(opts.Sheets, tab) {
			return
		}

		published := table.HasClass("waffle")
		var records [][]string
		var lines []int
		table.Find("tr").Each(func(r int, tr *goquery.Selection) {
			cells := tr.ChildrenFiltered("td")
			if cells.Length() == 0 {
				if published {
					return
				}
				cells = tr.ChildrenFiltered("th")
			}
			rec := make([]string, 0, cells.Length())
			cells.Each(func(_ int, cell *goquery.Selection) {
				rec = append(rec, util.NormalizeSpaces(cell.Text()))
			})
			records = append(records, rec)
			lines = append(lines, r+1)
		})
		out = append(out, FromRecords(tab, records, lines))
	})
	return out, nil
}

// sheetNames maps pubhtml sheet ids to the tab captions in the sheet menu.
func sheetNames(doc *goquery.Document) map[string]string {
	names := map[string]string{}
	doc.Find("#sheet-menu li").Each(func(_ int, li *goquery.Selection) {
		id, _ := li.Attr("id")
		id = strings.TrimPrefix(id, "sheet-button-")
		if name := util.NormalizeSpaces(li.Text()); id != "" && name != "" {
			names[id] = name
		}
	})
	return names
}

func tableName(table *goquery.Selection, names map[string]string, i int) string {
	if holder := table.ParentsFiltered("div[id]").First(); holder.Length() > 0 {
		id, _ := holder.Attr("id")
		if name, ok := names[id]; ok {
			return name
		}
	}
	if caption := util.NormalizeSpaces(table.Find("caption").First().Text()); caption != "" {
		return caption
	}
	return fmt.Sprintf("table %d", i+1)
}

func wantSheet(sheets []string, tab string) bool {
	if len(sheets) == 0 {
		return true
	}
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), tab) {
			return true
		}
	}
	return false
}
