package pipeline

import (
	"testing"

	"barstock/internal"
	"barstock/internal/headers"
)

func newTestBuilder(opts BuildOptions) *Builder {
	return NewBuilder(headers.MustResolver(headers.DefaultTable()), opts)
}

func TestDeriverKeepsRawValues(t *testing.T) {
	d := NewDeriver(0)
	out := d.Derive(internal.MappedRow{"price": "US$ 10.00", "unit": "75cl", "drinkName": "Appleton"})
	if out.Get(internal.FieldPrice) != "1550.00" || out.RawPrice != "US$ 10.00" {
		t.Fatalf("price=%q raw=%q", out.Get(internal.FieldPrice), out.RawPrice)
	}
	if out.Get(internal.FieldUnit) != "750ml" || out.RawUnit != "75cl" {
		t.Fatalf("unit=%q raw=%q", out.Get(internal.FieldUnit), out.RawUnit)
	}
}

func TestDeriverDoesNotTouchInput(t *testing.T) {
	in := internal.MappedRow{"price": "450", "unit": ""}
	NewDeriver(155).Derive(in)
	if in["price"] != "450" || in["unit"] != "" {
		t.Fatalf("input mutated: %+v", in)
	}
}

func TestBuildConcatenatesTabs(t *testing.T) {
	b := newTestBuilder(BuildOptions{USDRate: 155})
	beer := internal.Table{
		Tab:     "Beer",
		Headers: []string{"Drink Name", "Price (JMD)", "Size"},
		Rows: []internal.RawRow{
			row("Drink Name", "Red Stripe", "Price (JMD)", "250", "Size", "275ML"),
			row("Drink Name", "", "Price (JMD)", "", "Size", ""),
			row("Drink Name", "Guinness", "Price (JMD)", "320", "Size", "33cl"),
		},
	}
	rum := internal.Table{
		Tab:     "Rum",
		Headers: []string{"Product", "USD Price", "Volume", "Vintage"},
		Rows: []internal.RawRow{
			row("Product", "Appleton 12", "USD Price", "USD 40", "Volume", "75cl", "Vintage", "2012"),
		},
	}

	res := b.Build(beer, rum)
	if res.Empty {
		t.Fatal("unexpected empty result")
	}
	if len(res.Rows) != 3 || res.Skipped != 1 {
		t.Fatalf("rows=%d skipped=%d", len(res.Rows), res.Skipped)
	}
	for i, r := range res.Rows {
		if r.ID != i+1 {
			t.Fatalf("row %d id=%d", i, r.ID)
		}
	}
	if res.Rows[1].SourceRow != 4 || res.Rows[1].Tab != "Beer" {
		t.Fatalf("guinness source=%d tab=%s", res.Rows[1].SourceRow, res.Rows[1].Tab)
	}
	if res.Rows[0].Get(internal.FieldUnit) != "275ml" || res.Rows[1].Get(internal.FieldUnit) != "330ml" {
		t.Fatalf("units %q %q", res.Rows[0].Get(internal.FieldUnit), res.Rows[1].Get(internal.FieldUnit))
	}
	appleton := res.Rows[2]
	if appleton.Get(internal.FieldPrice) != "6200.00" || appleton.Values["Vintage"] != "2012" {
		t.Fatalf("appleton %+v", appleton.Values)
	}
	if len(res.Headers) != 7 {
		t.Fatalf("headers=%+v", res.Headers)
	}
}

func TestBuildEmptyIsNotAnError(t *testing.T) {
	b := newTestBuilder(BuildOptions{})
	res := b.Build(internal.Table{Headers: []string{"Drink Name"}})
	if !res.Empty || len(res.Rows) != 0 {
		t.Fatalf("res=%+v", res)
	}
	if res.Rows == nil {
		t.Fatal("rows should be an empty slice")
	}
}

func TestBuildRequireDrinkName(t *testing.T) {
	b := newTestBuilder(BuildOptions{RequireDrinkName: true})
	res := b.Build(internal.Table{
		Headers: []string{"Drink Name", "Supplier"},
		Rows: []internal.RawRow{
			row("Drink Name", "", "Supplier", "Wisynco"),
			row("Drink Name", "Bigga", "Supplier", "Wisynco"),
		},
	})
	if len(res.Rows) != 1 || res.Skipped != 1 || res.Rows[0].ID != 1 {
		t.Fatalf("res=%+v", res)
	}
}
