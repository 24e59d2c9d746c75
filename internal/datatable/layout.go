package datatable

import (
	"fmt"
	"slices"
)

// SetColumnVisibility shows or hides a column. Columns that cannot be hidden
// ignore the call.
func (t *Table[T]) SetColumnVisibility(id string, visible bool) error {
	col, ok := t.Column(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
	}
	if !col.CanHide() {
		return nil
	}
	if visible {
		delete(t.state.ColumnVisibility, id)
	} else {
		t.state.ColumnVisibility[id] = false
	}
	return nil
}

// IsColumnVisible reports whether a column is shown. Columns are visible by default.
func (t *Table[T]) IsColumnVisible(id string) bool {
	visible, ok := t.state.ColumnVisibility[id]
	return !ok || visible
}

// VisibleColumns returns the shown columns: left-pinned first, then unpinned in
// definition order, then right-pinned
func (t *Table[T]) VisibleColumns() []Column[T] {
	var left, center, right []Column[T]

	for _, id := range t.state.ColumnPinning.Left {
		if col, ok := t.Column(id); ok && t.IsColumnVisible(id) {
			left = append(left, col)
		}
	}
	for _, col := range t.columns {
		if t.ColumnPinPosition(col.ID) == PinNone && t.IsColumnVisible(col.ID) {
			center = append(center, col)
		}
	}
	for _, id := range t.state.ColumnPinning.Right {
		if col, ok := t.Column(id); ok && t.IsColumnVisible(id) {
			right = append(right, col)
		}
	}

	return slices.Concat(left, center, right)
}

// HideableColumns returns the columns listed in the view options menu
func (t *Table[T]) HideableColumns() []Column[T] {
	var cols []Column[T]
	for _, col := range t.columns {
		if col.CanHide() {
			cols = append(cols, col)
		}
	}
	return cols
}

// PinColumn pins a column to the left or right edge, or unpins it with PinNone.
// A newly pinned column is appended to the pinned group of its side.
func (t *Table[T]) PinColumn(id string, pos PinPosition) error {
	if _, ok := t.Column(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
	}

	isID := func(s string) bool { return s == id }
	pinning := &t.state.ColumnPinning
	pinning.Left = slices.DeleteFunc(pinning.Left, isID)
	pinning.Right = slices.DeleteFunc(pinning.Right, isID)

	switch pos {
	case PinLeft:
		pinning.Left = append(pinning.Left, id)
	case PinRight:
		pinning.Right = append(pinning.Right, id)
	case PinNone:
	default:
		return fmt.Errorf("datatable: invalid pin position %q", pos)
	}
	return nil
}

// ColumnPinPosition returns the side a column is pinned to
func (t *Table[T]) ColumnPinPosition(id string) PinPosition {
	if slices.Contains(t.state.ColumnPinning.Left, id) {
		return PinLeft
	}
	if slices.Contains(t.state.ColumnPinning.Right, id) {
		return PinRight
	}
	return PinNone
}

// PinnedStart is the left offset of a left-pinned column: the summed width of
// the visible left-pinned columns before it. It is zero for other columns.
func (t *Table[T]) PinnedStart(id string) int {
	if t.ColumnPinPosition(id) != PinLeft {
		return 0
	}
	offset := 0
	for _, other := range t.state.ColumnPinning.Left {
		if other == id {
			break
		}
		offset += t.visibleWidth(other)
	}
	return offset
}

// PinnedAfter is the right offset of a right-pinned column: the summed width of
// the visible right-pinned columns after it. It is zero for other columns.
func (t *Table[T]) PinnedAfter(id string) int {
	if t.ColumnPinPosition(id) != PinRight {
		return 0
	}
	right := t.state.ColumnPinning.Right
	offset := 0
	for i := len(right) - 1; i >= 0 && right[i] != id; i-- {
		offset += t.visibleWidth(right[i])
	}
	return offset
}

func (t *Table[T]) visibleWidth(id string) int {
	col, ok := t.Column(id)
	if !ok || !t.IsColumnVisible(id) {
		return 0
	}
	return col.width()
}
