package internal

import "strings"

// LogicalField is the canonical name of a catalog attribute, independent of
// how a spreadsheet happens to label the column.
type LogicalField string

const (
	FieldDrinkName     LogicalField = "drinkName"
	FieldCategory      LogicalField = "category"
	FieldBrand         LogicalField = "brand"
	FieldSupplier      LogicalField = "supplier"
	FieldContactPerson LogicalField = "contactPerson"
	FieldEmail         LogicalField = "email"
	FieldPhone         LogicalField = "phone"
	FieldPrice         LogicalField = "price"
	FieldUnit          LogicalField = "unit"
	FieldMinOrder      LogicalField = "minOrder"
	FieldAddress       LogicalField = "address"
	FieldDeliveryDays  LogicalField = "deliveryDays"
	FieldPaymentTerms  LogicalField = "paymentTerms"
	FieldStock         LogicalField = "stock"
	FieldNotes         LogicalField = "notes"
)

// AllFields lists every logical field in display order.
var AllFields = []LogicalField{
	FieldDrinkName,
	FieldCategory,
	FieldBrand,
	FieldSupplier,
	FieldContactPerson,
	FieldEmail,
	FieldPhone,
	FieldPrice,
	FieldUnit,
	FieldMinOrder,
	FieldAddress,
	FieldDeliveryDays,
	FieldPaymentTerms,
	FieldStock,
	FieldNotes,
}

// CriticalFields are present on every mapped row, empty when the sheet has no such column.
var CriticalFields = []LogicalField{FieldDrinkName, FieldCategory, FieldSupplier, FieldPrice, FieldUnit}

// ParseLogicalField accepts a field name in any casing.
func ParseLogicalField(name string) (LogicalField, bool) {
	name = strings.TrimSpace(name)
	for _, f := range AllFields {
		if strings.EqualFold(string(f), name) {
			return f, true
		}
	}
	return "", false
}

func IsLogicalField(key string) bool {
	for _, f := range AllFields {
		if string(f) == key {
			return true
		}
	}
	return false
}

type Cell struct {
	Header string
	Value  string
}

// RawRow keeps cells in sheet column order; headers may repeat.
type RawRow []Cell

func (r RawRow) IsBlank() bool {
	for _, c := range r {
		if strings.TrimSpace(c.Value) != "" {
			return false
		}
	}
	return true
}

type ParseWarning struct {
	Tab     string `json:"tab,omitempty"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Table is one parsed sheet tab.
type Table struct {
	Tab      string
	Headers  []string
	Rows     []RawRow
	Lines    []int
	Warnings []ParseWarning
}

func (t Table) Len() int {
	return len(t.Rows)
}

// LineOf returns the 1-based source line of row i, header being line 1.
func (t Table) LineOf(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// MappedRow is keyed by logical field name for recognised columns and by the
// original header text for anything else.
type MappedRow map[string]string

func (r MappedRow) Get(f LogicalField) string {
	return r[string(f)]
}

// Custom returns the passthrough columns, those not keyed by a logical field.
func (r MappedRow) Custom() map[string]string {
	out := map[string]string{}
	for k, v := range r {
		if !IsLogicalField(k) {
			out[k] = v
		}
	}
	return out
}

type NormalizedRow struct {
	ID        int       `json:"id"`
	Tab       string    `json:"tab,omitempty"`
	SourceRow int       `json:"sourceRow"`
	Values    MappedRow `json:"values"`
	RawPrice  string    `json:"rawPrice"`
	RawUnit   string    `json:"rawUnit"`
}

func (r NormalizedRow) Get(f LogicalField) string {
	return r.Values.Get(f)
}

type ResolutionVia string

const (
	ViaOverride  ResolutionVia = "override"
	ViaExact     ResolutionVia = "exact"
	ViaHeuristic ResolutionVia = "heuristic"
	ViaCustom    ResolutionVia = "custom"
)

// HeaderResolution explains how one sheet header was classified.
type HeaderResolution struct {
	Header string        `json:"header"`
	Field  LogicalField  `json:"field,omitempty"`
	Via    ResolutionVia `json:"via"`
}

type RunStatus string

const (
	RunOK         RunStatus = "ok"
	RunEmpty      RunStatus = "empty"
	RunFetchError RunStatus = "fetch_error"
	RunParseError RunStatus = "parse_error"
	RunFailed     RunStatus = "failed"
)

type RunRecord struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Status     RunStatus `json:"status"`
	RowCount   int       `json:"rowCount"`
	Error      string    `json:"error,omitempty"`
	StartedAt  string    `json:"startedAt"`
	FinishedAt string    `json:"finishedAt"`
}
