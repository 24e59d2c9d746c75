package datatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnIDs(cols []Column[item]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.ID
	}
	return out
}

func TestColumnVisibility(t *testing.T) {
	table := newItemTable(t, sampleItems())

	require.NoError(t, table.SetColumnVisibility("note", false))
	require.NoError(t, table.SetColumnVisibility(SelectColumnID, false))

	assert.False(t, table.IsColumnVisible("note"))
	assert.True(t, table.IsColumnVisible(SelectColumnID), "select cannot be hidden")
	assert.Equal(t, []string{SelectColumnID, "name", "status", "score", "created_at", ActionsColumnID}, columnIDs(table.VisibleColumns()))

	require.NoError(t, table.SetColumnVisibility("note", true))
	assert.True(t, table.IsColumnVisible("note"))

	assert.ErrorIs(t, table.SetColumnVisibility("owner", false), ErrUnknownColumn)
}

func TestHideableColumns(t *testing.T) {
	table := newItemTable(t, sampleItems())

	assert.Equal(t, []string{"name", "status", "score", "note", "created_at"}, columnIDs(table.HideableColumns()))
}

func TestColumnPinning(t *testing.T) {
	table := newItemTable(t, sampleItems())

	require.NoError(t, table.PinColumn("name", PinLeft))
	require.NoError(t, table.PinColumn("status", PinLeft))
	require.NoError(t, table.PinColumn(ActionsColumnID, PinRight))
	require.NoError(t, table.PinColumn("score", PinRight))

	assert.Equal(t,
		[]string{"name", "status", SelectColumnID, "note", "created_at", ActionsColumnID, "score"},
		columnIDs(table.VisibleColumns()))

	assert.Equal(t, 0, table.PinnedStart("name"))
	assert.Equal(t, 200, table.PinnedStart("status"))
	assert.Equal(t, 0, table.PinnedAfter("score"))
	assert.Equal(t, DefaultColumnSize, table.PinnedAfter(ActionsColumnID))
	assert.Equal(t, 0, table.PinnedStart("note"), "unpinned columns have no offset")

	require.NoError(t, table.SetColumnVisibility("name", false))
	assert.Equal(t, 0, table.PinnedStart("status"), "hidden columns take no space")
}

func TestPinColumn_Move(t *testing.T) {
	table := newItemTable(t, sampleItems())

	require.NoError(t, table.PinColumn("name", PinLeft))
	require.NoError(t, table.PinColumn("name", PinRight))
	assert.Equal(t, PinRight, table.ColumnPinPosition("name"))
	assert.Empty(t, table.State().ColumnPinning.Left)

	require.NoError(t, table.PinColumn("name", PinNone))
	assert.Equal(t, PinNone, table.ColumnPinPosition("name"))

	assert.ErrorIs(t, table.PinColumn("owner", PinLeft), ErrUnknownColumn)
	assert.Error(t, table.PinColumn("name", PinPosition("top")))
}
