package datatable

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Ids of the display-only columns. They never take part in export.
const (
	SelectColumnID  = "select"
	ActionsColumnID = "actions"
)

// DefaultColumnSize is the width used for pinning offsets when a column has no Size
const DefaultColumnSize = 150

// FilterFunc reports whether a cell value passes a column filter value
type FilterFunc func(cell, filter any) bool

// Column describes one column of a table over rows of type T.
//
// ID defaults to AccessorKey. A column without an Accessor is display only:
// it cannot be sorted, filtered or exported.
type Column[T any] struct {
	ID             string
	AccessorKey    string
	Header         string
	Accessor       func(row T) any
	FilterFn       FilterFunc
	DisableSorting bool
	DisableHiding  bool
	Size           int
}

// HeaderLabel is the display header, falling back to the accessor key and then "Unknown"
func (c Column[T]) HeaderLabel() string {
	if c.Header != "" {
		return c.Header
	}
	if c.AccessorKey != "" {
		return c.AccessorKey
	}
	return "Unknown"
}

// CanSort reports whether the column can be sorted
func (c Column[T]) CanSort() bool {
	return c.Accessor != nil && !c.DisableSorting
}

// CanHide reports whether the column's visibility can be toggled
func (c Column[T]) CanHide() bool {
	return !c.DisableHiding
}

func (c Column[T]) exportable() bool {
	return c.ID != SelectColumnID && c.ID != ActionsColumnID && c.AccessorKey != "" && c.Accessor != nil
}

func (c Column[T]) value(row T) any {
	if c.Accessor == nil {
		return nil
	}
	return normalize(c.Accessor(row))
}

func (c Column[T]) filter() FilterFunc {
	if c.FilterFn != nil {
		return c.FilterFn
	}
	return FilterIncludesString
}

func (c Column[T]) width() int {
	if c.Size > 0 {
		return c.Size
	}
	return DefaultColumnSize
}

// FilterIncludesString matches when the cell contains the filter text, ignoring case
func FilterIncludesString(cell, filter any) bool {
	return strings.Contains(strings.ToLower(Stringify(cell)), strings.ToLower(Stringify(filter)))
}

// FilterEquals matches when the cell and filter render to the same text
func FilterEquals(cell, filter any) bool {
	return Stringify(cell) == Stringify(filter)
}

// FilterInSet matches when the cell is one of the filter values. It backs the
// faceted multi-select filters.
func FilterInSet(cell, filter any) bool {
	values := filterValues(filter)
	if len(values) == 0 {
		return true
	}
	s := Stringify(cell)
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func filterValues(filter any) []string {
	switch v := filter.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, Stringify(item))
		}
		return out
	default:
		return []string{Stringify(v)}
	}
}

// isEmptyFilter reports whether setting value should remove the filter instead
func isEmptyFilter(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

// Stringify renders a cell value as text. nil and nil pointers become "".
func Stringify(v any) string {
	switch x := normalize(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// normalize dereferences pointers and folds named scalar types onto their
// underlying kind so values compare the same way whatever the row type uses
func normalize(v any) any {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	if t, ok := rv.Interface().(time.Time); ok {
		return t
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return rv.Interface()
}

// compareValues orders two normalized, non-nil values. Strings compare
// case-insensitively; mismatched types compare by their text.
func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case uint64:
		if y, ok := b.(uint64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return cmp.Compare(Stringify(a), Stringify(b))
}
