package datatable

import (
	"fmt"
	"slices"
	"strings"
)

// SetColumnFilter sets the filter value of a column. An empty value (nil, ""
// or an empty slice) removes the filter. Any change returns to the first page.
func (t *Table[T]) SetColumnFilter(id string, value any) error {
	col, ok := t.Column(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
	}
	if col.Accessor == nil {
		return fmt.Errorf("%w: %s", ErrNotFilterable, id)
	}

	filters := slices.DeleteFunc(t.state.ColumnFilters, func(f ColumnFilter) bool { return f.ID == id })
	if !isEmptyFilter(value) {
		filters = append(filters, ColumnFilter{ID: id, Value: value})
	}
	t.state.ColumnFilters = filters
	t.state.Pagination.PageIndex = 0
	return nil
}

// ColumnFilterValue returns the active filter value of a column, or nil
func (t *Table[T]) ColumnFilterValue(id string) any {
	for _, f := range t.state.ColumnFilters {
		if f.ID == id {
			return f.Value
		}
	}
	return nil
}

// ResetColumnFilters removes every column filter
func (t *Table[T]) ResetColumnFilters() {
	t.state.ColumnFilters = nil
	t.state.Pagination.PageIndex = 0
}

// IsFiltered reports whether any column filter is active
func (t *Table[T]) IsFiltered() bool {
	return len(t.state.ColumnFilters) > 0
}

// filterRows applies every active filter except the one on skip
func (t *Table[T]) filterRows(skip string) []T {
	rows := make([]T, 0, len(t.data))
	for _, row := range t.data {
		if t.matches(row, skip) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (t *Table[T]) matches(row T, skip string) bool {
	for _, f := range t.state.ColumnFilters {
		if f.ID == skip {
			continue
		}
		col, _ := t.Column(f.ID)
		if !col.filter()(col.value(row), f.Value) {
			return false
		}
	}
	return true
}

// SetSorting replaces the sort order. Every id must name a sortable column;
// later duplicates of an id are dropped.
func (t *Table[T]) SetSorting(sorting []ColumnSort) error {
	out := make([]ColumnSort, 0, len(sorting))
	seen := make(map[string]bool, len(sorting))
	for _, s := range sorting {
		if err := t.checkSortable(s.ID); err != nil {
			return err
		}
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}

	t.state.Sorting = out
	t.state.Pagination.PageIndex = 0
	return nil
}

// ToggleSorting cycles a column between ascending and descending. A column
// that is not sorted yet starts ascending. Without multi the column becomes
// the only sort key; with multi it is added to or flipped in place within the
// existing order. Sorting is never removed by toggling.
func (t *Table[T]) ToggleSorting(id string, multi bool) error {
	if err := t.checkSortable(id); err != nil {
		return err
	}

	next := ColumnSort{ID: id}
	pos := slices.IndexFunc(t.state.Sorting, func(s ColumnSort) bool { return s.ID == id })
	if pos >= 0 {
		next.Desc = !t.state.Sorting[pos].Desc
	}

	switch {
	case !multi:
		t.state.Sorting = []ColumnSort{next}
	case pos >= 0:
		t.state.Sorting[pos] = next
	default:
		t.state.Sorting = append(t.state.Sorting, next)
	}

	t.state.Pagination.PageIndex = 0
	return nil
}

// SortDirection returns the sort direction of a column, if it is sorted
func (t *Table[T]) SortDirection(id string) (desc bool, sorted bool) {
	for _, s := range t.state.Sorting {
		if s.ID == id {
			return s.Desc, true
		}
	}
	return false, false
}

// ResetSorting clears the sort order and returns to the first page
func (t *Table[T]) ResetSorting() {
	t.state.Sorting = nil
	t.state.Pagination.PageIndex = 0
}

func (t *Table[T]) checkSortable(id string) error {
	col, ok := t.Column(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
	}
	if !col.CanSort() {
		return fmt.Errorf("%w: %s", ErrNotSortable, id)
	}
	return nil
}

func (t *Table[T]) sortRows(rows []T) {
	if len(t.state.Sorting) == 0 {
		return
	}

	slices.SortStableFunc(rows, func(a, b T) int {
		for _, s := range t.state.Sorting {
			col, _ := t.Column(s.ID)
			va, vb := col.value(a), col.value(b)

			// nil sorts last in either direction
			switch {
			case va == nil && vb == nil:
				continue
			case va == nil:
				return 1
			case vb == nil:
				return -1
			}

			c := compareValues(va, vb)
			if s.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

// FilteredRows returns every row that passes the filters, in sort order,
// across all pages
func (t *Table[T]) FilteredRows() []T {
	rows := t.filterRows("")
	t.sortRows(rows)
	return rows
}

// RowCount is the number of rows after filtering and before pagination
func (t *Table[T]) RowCount() int {
	return len(t.filterRows(""))
}

// Rows returns the rows of the current page
func (t *Table[T]) Rows() []T {
	rows := t.FilteredRows()

	p := t.state.Pagination
	start := p.PageIndex * p.PageSize
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+p.PageSize, len(rows))
	return rows[start:end]
}

// ParseSorting reads a sort expression such as "name,-created_at": a
// comma-separated list of column ids where a leading "-" means descending
func ParseSorting(expr string) []ColumnSort {
	var sorting []ColumnSort
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		part = strings.TrimPrefix(part, "-")
		if part == "" {
			continue
		}
		sorting = append(sorting, ColumnSort{ID: part, Desc: desc})
	}
	return sorting
}
