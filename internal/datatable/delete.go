package datatable

import (
	"context"
	"fmt"
)

// DeleteConfirmation is the content of the confirmation dialog shown before a
// bulk delete
type DeleteConfirmation struct {
	Count   int    `json:"count"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// DeleteConfirmation describes the pending delete of the selected rows
func (t *Table[T]) DeleteConfirmation() DeleteConfirmation {
	n := t.SelectedCount()
	return DeleteConfirmation{
		Count: n,
		Title: "Are you absolutely sure?",
		Message: fmt.Sprintf("This action cannot be undone. This will permanently delete %d selected %s.",
			n, plural(n, "row", "rows")),
	}
}

// ConfirmDelete hands the ids of the selected rows to the delete handler in a
// single call. The selection is cleared only when the handler succeeds; on
// failure it is kept so the user can retry, and the error is returned.
func (t *Table[T]) ConfirmDelete(ctx context.Context) error {
	if t.onDelete == nil {
		return ErrNoDeleteHandler
	}

	ids := t.SelectedIDs()
	if len(ids) == 0 {
		return ErrNothingSelected
	}

	noun := plural(len(ids), "item", "items")
	dismiss := t.notifier.Loading(fmt.Sprintf("Deleting %d %s...", len(ids), noun))
	err := t.onDelete(ctx, ids)
	dismiss()

	if err != nil {
		t.notifier.Error("Failed to delete items", "")
		return err
	}

	t.notifier.Success(fmt.Sprintf("%d %s deleted", len(ids), noun), "")
	t.ResetRowSelection()
	return nil
}
