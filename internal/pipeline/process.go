package pipeline

import (
	"barstock/internal"
	"barstock/internal/headers"
	"barstock/internal/util"
)

type BuildOptions struct {
	USDRate float64
	// RequireDrinkName drops rows whose mapped drink name is blank.
	RequireDrinkName bool
}

// Builder turns parsed tabs into catalog rows. It holds no per-build state.
type Builder struct {
	resolver *headers.Resolver
	mapper   *Mapper
	deriver  *Deriver
	opts     BuildOptions
}

type BuildResult struct {
	Rows     []internal.NormalizedRow
	Headers  []internal.HeaderResolution
	Warnings []internal.ParseWarning
	Skipped  int
	// Empty is true when no data rows survived; not an error.
	Empty bool
}

func NewBuilder(resolver *headers.Resolver, opts BuildOptions) *Builder {
	return &Builder{
		resolver: resolver,
		mapper:   NewMapper(resolver),
		deriver:  NewDeriver(opts.USDRate),
		opts:     opts,
	}
}

// Build concatenates tabs in order. Row IDs are assigned after filtering.
func (b *Builder) Build(tables ...internal.Table) BuildResult {
	res := BuildResult{Rows: []internal.NormalizedRow{}}
	var allHeaders []string

	for _, table := range tables {
		allHeaders = append(allHeaders, table.Headers...)
		res.Warnings = append(res.Warnings, table.Warnings...)

		for i, raw := range table.Rows {
			if raw.IsBlank() {
				res.Skipped++
				continue
			}
			mapped := b.mapper.MapRow(raw)
			if b.opts.RequireDrinkName && util.IsBlank(mapped.Get(internal.FieldDrinkName)) {
				res.Skipped++
				continue
			}
			row := b.deriver.Derive(mapped)
			row.ID = len(res.Rows) + 1
			row.Tab = table.Tab
			row.SourceRow = table.LineOf(i)
			res.Rows = append(res.Rows, row)
		}
	}

	res.Headers = b.resolver.ExplainAll(allHeaders)
	res.Empty = len(res.Rows) == 0
	return res
}
