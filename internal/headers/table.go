package headers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"barstock/internal"
)

// FieldVariants lists the spreadsheet headers accepted for one field.
type FieldVariants struct {
	Field    internal.LogicalField `yaml:"field"`
	Variants []string              `yaml:"variants"`
}

// Table is the HeaderVariantTable. Field order is the priority order.
type Table struct {
	Fields    []FieldVariants                  `yaml:"fields"`
	Overrides map[internal.LogicalField]string `yaml:"overrides,omitempty"`
}

func DefaultTable() Table {
	return Table{Fields: []FieldVariants{
		{Field: internal.FieldDrinkName, Variants: []string{
			"Drink Name", "Product Name", "Product", "Item Name", "Item",
			"Beverage Name", "Beverage", "Name", "Description", "Product Description",
		}},
		{Field: internal.FieldCategory, Variants: []string{
			"Category", "Product Category", "Type", "Product Type", "Beverage Type",
			"Classification", "Group", "Product Group",
		}},
		{Field: internal.FieldBrand, Variants: []string{
			"Brand", "Brand Name", "Manufacturer", "Make", "Label",
		}},
		{Field: internal.FieldSupplier, Variants: []string{
			"Supplier", "Supplier Name", "Vendor", "Vendor Name", "Distributor",
			"Company", "Provider", "Source",
		}},
		{Field: internal.FieldContactPerson, Variants: []string{
			"Contact Person", "Contact Name", "Contact", "Representative", "Rep",
			"Account Manager", "Sales Rep", "Sales Contact",
		}},
		{Field: internal.FieldEmail, Variants: []string{
			"Email", "Email Address", "E-mail", "Contact Email", "Supplier Email",
			"Vendor Email", "Email Contact",
		}},
		{Field: internal.FieldPhone, Variants: []string{
			"Phone", "Phone Number", "Telephone", "Tel", "Contact Number",
			"Contact Phone", "Mobile", "Cell", "Supplier Phone", "Vendor Phone",
		}},
		{Field: internal.FieldPrice, Variants: []string{
			"Price (JMD)", "Price", "Unit Price", "Cost", "Unit Cost", "Price per Unit",
			"Rate", "Price (USD)", "Price ($)", "JMD Price", "USD Price",
		}},
		{Field: internal.FieldUnit, Variants: []string{
			"Unit", "Size", "Package Size", "Volume", "Quantity", "Pack Size",
			"Container Size", "Bottle Size", "Can Size", "Unit Size", "Packaging",
		}},
		{Field: internal.FieldMinOrder, Variants: []string{
			"Min Order Qty", "Minimum Order Quantity", "Min Order", "MOQ", "Minimum Order",
			"Min Qty", "Minimum Qty", "Min Order Quantity", "Minimum Purchase",
		}},
		{Field: internal.FieldAddress, Variants: []string{
			"Address", "Supplier Address", "Vendor Address", "Location", "Street Address",
			"Company Address", "Business Address",
		}},
		{Field: internal.FieldDeliveryDays, Variants: []string{
			"Delivery Days", "Delivery Schedule", "Delivery", "Lead Time", "Delivery Time",
			"Shipping Days", "Available Days", "Delivery Period",
		}},
		{Field: internal.FieldPaymentTerms, Variants: []string{
			"Payment Terms", "Terms", "Payment", "Credit Terms", "Payment Method",
			"Payment Options", "Terms of Payment",
		}},
		{Field: internal.FieldStock, Variants: []string{
			"Stock", "In Stock", "Availability", "Stock Status", "Inventory",
			"Stock Level", "Available", "Quantity Available",
		}},
		// "Description" already belongs to drinkName.
		{Field: internal.FieldNotes, Variants: []string{
			"Notes", "Comments", "Remarks", "Additional Info", "Special Notes", "Other",
		}},
	}}
}

// Validate enforces that a variant or override header resolves to exactly
// one field.
func (t Table) Validate() error {
	seenField := map[internal.LogicalField]struct{}{}
	owner := map[string]internal.LogicalField{}
	for _, fv := range t.Fields {
		if !internal.IsLogicalField(string(fv.Field)) {
			return fmt.Errorf("unknown logical field %q", fv.Field)
		}
		if _, dup := seenField[fv.Field]; dup {
			return fmt.Errorf("field %s declared twice", fv.Field)
		}
		seenField[fv.Field] = struct{}{}
		for _, v := range fv.Variants {
			key := normalize(v)
			if key == "" {
				return fmt.Errorf("field %s has an empty variant", fv.Field)
			}
			if prev, ok := owner[key]; ok && prev != fv.Field {
				return fmt.Errorf("variant %q listed under both %s and %s", v, prev, fv.Field)
			}
			owner[key] = fv.Field
		}
	}
	fields := make([]internal.LogicalField, 0, len(t.Overrides))
	for f := range t.Overrides {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	overridden := map[string]internal.LogicalField{}
	for _, f := range fields {
		if !internal.IsLogicalField(string(f)) {
			return fmt.Errorf("override for unknown logical field %q", f)
		}
		key := normalize(t.Overrides[f])
		if key == "" {
			return fmt.Errorf("override for %s is empty", f)
		}
		if prev, ok := overridden[key]; ok {
			return fmt.Errorf("override %q set for both %s and %s", t.Overrides[f], prev, f)
		}
		overridden[key] = f
	}
	return nil
}

// WithOverrides returns a copy of t whose overrides are merged with extra.
func (t Table) WithOverrides(extra map[internal.LogicalField]string) Table {
	out := Table{Fields: make([]FieldVariants, len(t.Fields))}
	for i, fv := range t.Fields {
		out.Fields[i] = FieldVariants{Field: fv.Field, Variants: append([]string(nil), fv.Variants...)}
	}
	if len(t.Overrides)+len(extra) > 0 {
		out.Overrides = map[internal.LogicalField]string{}
		for f, h := range t.Overrides {
			out.Overrides[f] = h
		}
		for f, h := range extra {
			if strings.TrimSpace(h) == "" {
				continue
			}
			out.Overrides[f] = h
		}
	}
	return out
}

// LoadTableFile reads a YAML header table replacing the built-in one.
func LoadTableFile(path string) (Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	var t Table
	if err := yaml.Unmarshal(blob, &t); err != nil {
		return Table{}, fmt.Errorf("header table %s: %w", path, err)
	}
	if len(t.Fields) == 0 {
		return Table{}, fmt.Errorf("header table %s: no fields", path)
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("header table %s: %w", path, err)
	}
	return t, nil
}

// ParseOverrides reads "drinkName=Beverage;price=Cost JMD".
func ParseOverrides(spec string) (map[internal.LogicalField]string, error) {
	out := map[internal.LogicalField]string{}
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, header, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("header override %q: expected field=header", part)
		}
		field, ok := internal.ParseLogicalField(name)
		if !ok {
			return nil, fmt.Errorf("header override %q: unknown field %q", part, strings.TrimSpace(name))
		}
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		out[field] = header
	}
	return out, nil
}

func normalize(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}
