package datatable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacetCounts_IgnoreOwnFilter(t *testing.T) {
	table := newItemTable(t, sampleItems())
	require.NoError(t, table.SetColumnFilter("status", []string{"active"}))

	counts, err := table.FacetCounts("status")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"active": 2, "archived": 1, "inactive": 1}, counts)

	require.NoError(t, table.SetColumnFilter("name", "charlie"))
	counts, err = table.FacetCounts("status")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"active": 1}, counts)

	_, err = table.FacetCounts("owner")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestToolbar_FilterMode(t *testing.T) {
	table := newItemTable(t, sampleItems(), func(o *Options[item]) {
		o.OnDelete = func(ctx context.Context, ids []string) error { return nil }
	})
	require.NoError(t, table.SetColumnFilter("name", "a"))
	require.NoError(t, table.SetColumnFilter("status", []string{"active"}))

	tb := table.Toolbar()

	assert.True(t, tb.ShowFilters)
	assert.Equal(t, "name", tb.FilterColumn)
	assert.Equal(t, "a", tb.FilterValue)
	assert.True(t, tb.ShowReset)
	assert.False(t, tb.ShowDelete)
	require.Len(t, tb.Facets, 1)
	assert.Equal(t, []string{"active"}, tb.Facets[0].Selected)
	assert.Equal(t, 2, tb.Facets[0].Counts["active"])
	assert.False(t, tb.ExportDisabled)
	assert.Equal(t, 2, tb.ExportCount)
	assert.Len(t, tb.Columns, 5)
}

func TestToolbar_SelectionHidesFilters(t *testing.T) {
	table := newItemTable(t, sampleItems(), func(o *Options[item]) {
		o.OnDelete = func(ctx context.Context, ids []string) error { return nil }
	})
	require.NoError(t, table.SetColumnFilter("name", "a"))
	table.ToggleRowSelected("1", true)

	tb := table.Toolbar()

	assert.False(t, tb.ShowFilters)
	assert.False(t, tb.ShowReset)
	assert.Empty(t, tb.Facets)
	assert.Empty(t, tb.FilterColumn)
	assert.True(t, tb.ShowDelete)
	assert.Equal(t, 1, tb.SelectedCount)
}

func TestToolbar_DeleteNeedsHandler(t *testing.T) {
	table := newItemTable(t, sampleItems())
	table.ToggleRowSelected("1", true)

	assert.False(t, table.Toolbar().ShowDelete)
}

func TestToolbar_ExportDisabledWithoutRows(t *testing.T) {
	table := newItemTable(t, sampleItems())
	require.NoError(t, table.SetColumnFilter("name", "nothing"))

	tb := table.Toolbar()

	assert.True(t, tb.ExportDisabled)
	assert.Zero(t, tb.ExportCount)
	assert.True(t, tb.ShowReset)
}
