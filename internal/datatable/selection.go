package datatable

// ToggleRowSelected selects or deselects the row with the given id. It
// returns false when no row has that id.
func (t *Table[T]) ToggleRowSelected(id string, selected bool) bool {
	for _, row := range t.data {
		if t.rowID(row) == id {
			t.setSelected(id, selected)
			return true
		}
	}
	return false
}

func (t *Table[T]) setSelected(id string, selected bool) {
	if selected {
		t.state.RowSelection[id] = true
		return
	}
	delete(t.state.RowSelection, id)
}

// IsRowSelected reports whether the row with the given id is selected
func (t *Table[T]) IsRowSelected(id string) bool {
	return t.state.RowSelection[id]
}

// ToggleAllPageRowsSelected selects or deselects every row on the current page
func (t *Table[T]) ToggleAllPageRowsSelected(selected bool) {
	for _, row := range t.Rows() {
		t.setSelected(t.rowID(row), selected)
	}
}

// ToggleAllRowsSelected selects or deselects every row that passes the filters
func (t *Table[T]) ToggleAllRowsSelected(selected bool) {
	for _, row := range t.filterRows("") {
		t.setSelected(t.rowID(row), selected)
	}
}

// IsAllRowsSelected reports whether every filtered row is selected
func (t *Table[T]) IsAllRowsSelected() bool {
	return t.allSelected(t.filterRows(""))
}

// IsAllPageRowsSelected reports whether every row on the current page is selected
func (t *Table[T]) IsAllPageRowsSelected() bool {
	return t.allSelected(t.Rows())
}

// IsSomeRowsSelected reports whether some, but not all, filtered rows are selected
func (t *Table[T]) IsSomeRowsSelected() bool {
	return t.SelectedCount() > 0 && !t.IsAllRowsSelected()
}

func (t *Table[T]) allSelected(rows []T) bool {
	if len(rows) == 0 {
		return false
	}
	for _, row := range rows {
		if !t.state.RowSelection[t.rowID(row)] {
			return false
		}
	}
	return true
}

// ResetRowSelection clears the selection
func (t *Table[T]) ResetRowSelection() {
	clear(t.state.RowSelection)
}

// SelectedRows returns the selected rows in collection order. Selection is
// independent of filters and pages.
func (t *Table[T]) SelectedRows() []T {
	rows := make([]T, 0, len(t.state.RowSelection))
	for _, row := range t.data {
		if t.state.RowSelection[t.rowID(row)] {
			rows = append(rows, row)
		}
	}
	return rows
}

// SelectedIDs returns the ids of the selected rows in collection order
func (t *Table[T]) SelectedIDs() []string {
	rows := t.SelectedRows()
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = t.rowID(row)
	}
	return ids
}

func (t *Table[T]) SelectedCount() int {
	return len(t.SelectedRows())
}
