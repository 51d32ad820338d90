package pipeline

import (
	"barstock/internal"
	"barstock/internal/headers"
	"barstock/internal/util"
)

// Mapper rekeys raw rows by logical field.
type Mapper struct {
	resolver *headers.Resolver
}

func NewMapper(resolver *headers.Resolver) *Mapper {
	return &Mapper{resolver: resolver}
}

// MapRow resolves every column of row. For a field fed by several columns the
// first non-empty value wins and an empty value only fills a missing slot.
// Unrecognised columns pass through under their original header.
func (m *Mapper) MapRow(row internal.RawRow) internal.MappedRow {
	mapped := internal.MappedRow{}
	for _, cell := range row {
		field, ok := m.resolver.Resolve(cell.Header)
		if !ok {
			mapped[cell.Header] = cell.Value
			continue
		}
		key := string(field)
		current, exists := mapped[key]
		if !exists || (util.IsBlank(current) && !util.IsBlank(cell.Value)) {
			mapped[key] = cell.Value
		}
	}

	for _, f := range internal.CriticalFields {
		if _, ok := mapped[string(f)]; !ok {
			mapped[string(f)] = ""
		}
	}
	return mapped
}

func (m *Mapper) MapRows(rows []internal.RawRow) []internal.MappedRow {
	out := make([]internal.MappedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.MapRow(row))
	}
	return out
}
