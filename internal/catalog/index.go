package catalog

import (
	"strings"

	"barstock/internal"
	"barstock/internal/util"
)

// Index holds lowercased search text per row, built once per snapshot.
type Index struct {
	positionByID map[int]int
	haystacks    [][]string
}

func BuildIndex(rows []internal.NormalizedRow, fields []internal.LogicalField) *Index {
	idx := &Index{
		positionByID: make(map[int]int, len(rows)),
		haystacks:    make([][]string, len(rows)),
	}
	for i, row := range rows {
		idx.positionByID[row.ID] = i
		hay := make([]string, 0, len(fields))
		for _, f := range fields {
			if v := row.Get(f); v != "" {
				hay = append(hay, strings.ToLower(v))
			}
		}
		idx.haystacks[i] = hay
	}
	return idx
}

// Match returns the positions of rows where every token is a substring of at
// least one searched field.
func (idx *Index) Match(query string) []int {
	tokens := util.SearchTokens(query)
	out := []int{}
	for i, hay := range idx.haystacks {
		if matchesAll(hay, tokens) {
			out = append(out, i)
		}
	}
	return out
}

func (idx *Index) Position(id int) (int, bool) {
	pos, ok := idx.positionByID[id]
	return pos, ok
}

func matchesAll(hay []string, tokens []string) bool {
	for _, tok := range tokens {
		found := false
		for _, field := range hay {
			if strings.Contains(field, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
