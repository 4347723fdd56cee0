// Package filter owns the sales list filter state and its query-string mirror.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/simaogato/luthier-backend/internal/domain"
)

// Query parameter names
const (
	ParamFrom          = "from"
	ParamTo            = "to"
	ParamSearch        = "search"
	ParamHasClient     = "hasClient"
	ParamSortColumn    = "sortColumn"
	ParamSortDirection = "sortDirection"
)

// DateLayout is the wire format of from/to
const DateLayout = "2006-01-02"

const (
	FallbackSortColumn    = domain.SaleDateColumn
	FallbackSortDirection = domain.SortDescending
)

var params = []string{ParamFrom, ParamTo, ParamSearch, ParamHasClient, ParamSortColumn, ParamSortDirection}

var sortableColumns = []string{
	domain.SaleDateColumn,
	domain.SalePriceColumn,
	domain.CreatedAtColumn,
	domain.ClientNameColumn,
}

var (
	ErrInvalidDate   = errors.New("date must use the YYYY-MM-DD format")
	ErrInvertedRange = errors.New("from must not be after to")
)

// Filters is one snapshot of the sales filter state.
// From and To are calendar dates in DateLayout or empty for "unbounded".
type Filters struct {
	From          string               `json:"from,omitempty"`
	To            string               `json:"to,omitempty"`
	Search        string               `json:"search,omitempty"`
	HasClient     *bool                `json:"hasClient,omitempty"`
	SortColumn    string               `json:"sortColumn"`
	SortDirection domain.SortDirection `json:"sortDirection"`
}

// Equal compares two snapshots field by field
func (f Filters) Equal(o Filters) bool {
	return f.From == o.From &&
		f.To == o.To &&
		f.Search == o.Search &&
		boolPtrEqual(f.HasClient, o.HasClient) &&
		f.SortColumn == o.SortColumn &&
		f.SortDirection == o.SortDirection
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IsSortable reports whether column can be used as sortColumn
func IsSortable(column string) bool {
	return slices.Contains(sortableColumns, column)
}

// ParseDate parses a DateLayout string; the empty string is a nil date
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return &t, nil
}

// CheckRange rejects a bounded range whose start is after its end.
// Both dates must already be well formed or empty.
func CheckRange(from, to string) error {
	if from == "" || to == "" {
		return nil
	}
	f, err := ParseDate(from)
	if err != nil {
		return err
	}
	t, err := ParseDate(to)
	if err != nil {
		return err
	}
	if f.After(*t) {
		return fmt.Errorf("%w: %s > %s", ErrInvertedRange, from, to)
	}
	return nil
}

// effectiveDefaults fills the sort fields the caller left unset
func effectiveDefaults(defaults Filters) Filters {
	if !IsSortable(defaults.SortColumn) {
		defaults.SortColumn = FallbackSortColumn
	}
	if !defaults.SortDirection.Valid() {
		defaults.SortDirection = FallbackSortDirection
	}
	return defaults
}

// Resolve builds the initial snapshot. Each field takes the query value when it
// is present and well formed, then the caller default, then the fallback.
// A parameter present with an empty value explicitly clears a text field.
func Resolve(values url.Values, defaults Filters) Filters {
	d := effectiveDefaults(defaults)
	f := d

	if v, ok := lookup(values, ParamFrom); ok {
		if _, err := ParseDate(v); err == nil {
			f.From = v
		}
	}
	if v, ok := lookup(values, ParamTo); ok {
		if _, err := ParseDate(v); err == nil {
			f.To = v
		}
	}
	if v, ok := lookup(values, ParamSearch); ok {
		f.Search = v
	}
	if v, ok := lookup(values, ParamHasClient); ok {
		if v == "" {
			f.HasClient = nil
		} else if b, err := strconv.ParseBool(v); err == nil {
			f.HasClient = &b
		}
	}
	if v, ok := lookup(values, ParamSortColumn); ok && IsSortable(v) {
		f.SortColumn = v
	}
	if v, ok := lookup(values, ParamSortDirection); ok && domain.SortDirection(v).Valid() {
		f.SortDirection = domain.SortDirection(v)
	}
	return f
}

func lookup(values url.Values, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Encode writes only the fields that differ from their default
func Encode(f Filters, defaults Filters) url.Values {
	d := effectiveDefaults(defaults)
	values := url.Values{}

	if f.From != d.From {
		values.Set(ParamFrom, f.From)
	}
	if f.To != d.To {
		values.Set(ParamTo, f.To)
	}
	if f.Search != d.Search {
		values.Set(ParamSearch, f.Search)
	}
	if !boolPtrEqual(f.HasClient, d.HasClient) {
		if f.HasClient == nil {
			values.Set(ParamHasClient, "")
		} else {
			values.Set(ParamHasClient, strconv.FormatBool(*f.HasClient))
		}
	}
	if f.SortColumn != d.SortColumn {
		values.Set(ParamSortColumn, f.SortColumn)
	}
	if f.SortDirection != d.SortDirection {
		values.Set(ParamSortDirection, string(f.SortDirection))
	}
	return values
}

// Merge returns a copy of current with every filter parameter replaced by the
// encoding of f. Unrelated parameters are kept.
func Merge(current url.Values, f Filters, defaults Filters) url.Values {
	merged := url.Values{}
	for k, vs := range current {
		if slices.Contains(params, k) {
			continue
		}
		merged[k] = slices.Clone(vs)
	}
	for k, vs := range Encode(f, defaults) {
		merged[k] = vs
	}
	return merged
}

// ToQuery converts the snapshot into a repository query
func (f Filters) ToQuery() (domain.SaleQuery, error) {
	from, err := ParseDate(f.From)
	if err != nil {
		return domain.SaleQuery{}, err
	}
	to, err := ParseDate(f.To)
	if err != nil {
		return domain.SaleQuery{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return domain.SaleQuery{}, fmt.Errorf("%w: %s > %s", ErrInvertedRange, f.From, f.To)
	}

	q := domain.SaleQuery{
		From:          from,
		To:            to,
		Search:        f.Search,
		SortColumn:    f.SortColumn,
		SortDirection: f.SortDirection,
	}
	if f.HasClient != nil {
		v := *f.HasClient
		q.HasClient = &v
	}
	return q, nil
}
