package pipeline

import (
	"barstock/internal"
	"barstock/internal/util"
)

// Deriver replaces price and unit with their canonical forms.
type Deriver struct {
	USDRate float64
}

func NewDeriver(usdRate float64) *Deriver {
	if usdRate <= 0 {
		usdRate = util.DefaultUSDRate
	}
	return &Deriver{USDRate: usdRate}
}

func (d *Deriver) Derive(row internal.MappedRow) internal.NormalizedRow {
	values := make(internal.MappedRow, len(row))
	for k, v := range row {
		values[k] = v
	}
	rawPrice := row.Get(internal.FieldPrice)
	rawUnit := row.Get(internal.FieldUnit)
	values[string(internal.FieldPrice)] = util.NormalizePrice(rawPrice, d.USDRate)
	values[string(internal.FieldUnit)] = util.NormalizeUnit(rawUnit)

	return internal.NormalizedRow{Values: values, RawPrice: rawPrice, RawUnit: rawUnit}
}
