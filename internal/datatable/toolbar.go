package datatable

import "fmt"

// FacetOption is one choice of a faceted filter
type FacetOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Facet describes a multi-select filter over one column
type Facet struct {
	Label    string        `json:"label"`
	ColumnID string        `json:"columnId"`
	Options  []FacetOption `json:"options"`
}

// FacetCounts counts the values of a column across the rows that pass every
// filter except the column's own
func (t *Table[T]) FacetCounts(columnID string) (map[string]int, error) {
	col, ok := t.Column(columnID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}

	counts := make(map[string]int)
	for _, row := range t.filterRows(columnID) {
		counts[Stringify(col.value(row))]++
	}
	return counts, nil
}

// FacetState is a facet with its current selection and value counts
type FacetState struct {
	Facet
	Selected []string       `json:"selected"`
	Counts   map[string]int `json:"counts"`
}

// ColumnToggle is one entry of the view options menu
type ColumnToggle struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
}

// Toolbar is the state of the controls above the table.
//
// While rows are selected the toolbar is in bulk-action mode: the free-text
// filter, facets and reset are hidden and the delete control is shown.
type Toolbar struct {
	ShowFilters    bool           `json:"showFilters"`
	FilterColumn   string         `json:"filterColumn,omitempty"`
	FilterValue    string         `json:"filterValue"`
	Facets         []FacetState   `json:"facets"`
	ShowReset      bool           `json:"showReset"`
	ShowDelete     bool           `json:"showDelete"`
	SelectedCount  int            `json:"selectedCount"`
	ExportDisabled bool           `json:"exportDisabled"`
	ExportCount    int            `json:"exportCount"`
	Columns        []ColumnToggle `json:"columns"`
}

// Toolbar derives the toolbar state from the current view state
func (t *Table[T]) Toolbar() Toolbar {
	selected := t.SelectedCount()
	rowCount := t.RowCount()

	tb := Toolbar{
		ShowFilters:    selected == 0,
		ShowDelete:     selected > 0 && t.onDelete != nil,
		SelectedCount:  selected,
		ExportDisabled: rowCount == 0,
		ExportCount:    rowCount,
		Facets:         []FacetState{},
	}

	for _, col := range t.HideableColumns() {
		tb.Columns = append(tb.Columns, ColumnToggle{ID: col.ID, Visible: t.IsColumnVisible(col.ID)})
	}

	if !tb.ShowFilters {
		return tb
	}

	if _, ok := t.Column(t.filterColumn); ok {
		tb.FilterColumn = t.filterColumn
		tb.FilterValue = Stringify(t.ColumnFilterValue(t.filterColumn))
	}
	tb.ShowReset = t.IsFiltered()

	for _, f := range t.facets {
		counts, _ := t.FacetCounts(f.ColumnID)
		tb.Facets = append(tb.Facets, FacetState{
			Facet:    f,
			Selected: append([]string{}, filterValues(t.ColumnFilterValue(f.ColumnID))...),
			Counts:   counts,
		})
	}

	return tb
}
