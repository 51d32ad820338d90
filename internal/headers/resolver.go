package headers

import (
	"strings"

	"barstock/internal"
)

type heuristic struct {
	field    internal.LogicalField
	contains []string
	excludes []string
}

// Checked in order; the first match wins.
var heuristics = []heuristic{
	{field: internal.FieldPrice, contains: []string{"price", "cost"}},
	{field: internal.FieldEmail, contains: []string{"email", "e-mail"}},
	{field: internal.FieldPhone, contains: []string{"phone", "tel"}},
	{field: internal.FieldSupplier, contains: []string{"supplier", "vendor"}},
	{field: internal.FieldDrinkName, contains: []string{"name"}, excludes: []string{"contact"}},
}

// Resolver maps arbitrary sheet headers onto logical fields. It is immutable
// and safe for concurrent use.
type Resolver struct {
	exact     map[string]internal.LogicalField
	overrides map[string]internal.LogicalField
}

func NewResolver(t Table) (*Resolver, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	r := &Resolver{
		exact:     map[string]internal.LogicalField{},
		overrides: map[string]internal.LogicalField{},
	}
	for _, fv := range t.Fields {
		for _, v := range fv.Variants {
			key := normalize(v)
			if _, ok := r.exact[key]; !ok {
				r.exact[key] = fv.Field
			}
		}
	}
	for f, h := range t.Overrides {
		r.overrides[normalize(h)] = f
	}
	return r, nil
}

// MustResolver panics on an invalid table. Meant for the built-in table and tests.
func MustResolver(t Table) *Resolver {
	r, err := NewResolver(t)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Resolver) Resolve(header string) (internal.LogicalField, bool) {
	res := r.Explain(header)
	return res.Field, res.Via != internal.ViaCustom
}

func (r *Resolver) Explain(header string) internal.HeaderResolution {
	out := internal.HeaderResolution{Header: header, Via: internal.ViaCustom}
	key := normalize(header)
	if key == "" {
		return out
	}
	if f, ok := r.overrides[key]; ok {
		out.Field, out.Via = f, internal.ViaOverride
		return out
	}
	if f, ok := r.exact[key]; ok {
		out.Field, out.Via = f, internal.ViaExact
		return out
	}
	for _, h := range heuristics {
		if h.matches(key) {
			out.Field, out.Via = h.field, internal.ViaHeuristic
			return out
		}
	}
	return out
}

// ExplainAll reports each distinct header once, in first-seen order.
func (r *Resolver) ExplainAll(headers []string) []internal.HeaderResolution {
	seen := map[string]struct{}{}
	out := make([]internal.HeaderResolution, 0, len(headers))
	for _, h := range headers {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, r.Explain(h))
	}
	return out
}

func (h heuristic) matches(key string) bool {
	for _, ex := range h.excludes {
		if strings.Contains(key, ex) {
			return false
		}
	}
	for _, c := range h.contains {
		if strings.Contains(key, c) {
			return true
		}
	}
	return false
}
