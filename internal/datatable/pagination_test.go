package datatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination_Navigation(t *testing.T) {
	table := newItemTable(t, manyItems(23))

	assert.Equal(t, 3, table.PageCount())
	assert.False(t, table.CanPreviousPage())
	assert.True(t, table.CanNextPage())
	assert.Equal(t, "id-00", table.Rows()[0].ID)

	table.NextPage()
	assert.Equal(t, "id-10", table.Rows()[0].ID)
	assert.True(t, table.CanPreviousPage())

	table.LastPage()
	assert.Equal(t, 2, table.State().Pagination.PageIndex)
	assert.Len(t, table.Rows(), 3)
	assert.False(t, table.CanNextPage())

	table.NextPage()
	assert.Equal(t, 2, table.State().Pagination.PageIndex, "next on the last page is a no-op")

	table.PreviousPage()
	assert.Equal(t, 1, table.State().Pagination.PageIndex)

	table.FirstPage()
	table.PreviousPage()
	assert.Equal(t, 0, table.State().Pagination.PageIndex)
}

func TestSetPageIndex_Clamps(t *testing.T) {
	table := newItemTable(t, manyItems(23))

	table.SetPageIndex(99)
	assert.Equal(t, 2, table.State().Pagination.PageIndex)

	table.SetPageIndex(-3)
	assert.Equal(t, 0, table.State().Pagination.PageIndex)
}

func TestSetPageSize_KeepsTopRowVisible(t *testing.T) {
	table := newItemTable(t, manyItems(50))
	table.SetPageIndex(2)

	table.SetPageSize(25)
	assert.Equal(t, Pagination{PageIndex: 0, PageSize: 25}, table.State().Pagination)

	table.SetPageIndex(1)
	table.SetPageSize(5)
	assert.Equal(t, Pagination{PageIndex: 5, PageSize: 5}, table.State().Pagination)
	assert.Equal(t, "id-25", table.Rows()[0].ID)

	table.SetPageSize(0)
	assert.Equal(t, DefaultPageSize, table.State().Pagination.PageSize)
}

func TestPageRange(t *testing.T) {
	table := newItemTable(t, manyItems(23))

	from, to := table.PageRange()
	assert.Equal(t, 1, from)
	assert.Equal(t, 10, to)

	table.LastPage()
	from, to = table.PageRange()
	assert.Equal(t, 21, from)
	assert.Equal(t, 23, to)

	require.NoError(t, table.SetColumnFilter("name", "nothing matches"))
	from, to = table.PageRange()
	assert.Zero(t, from)
	assert.Zero(t, to)
	assert.Zero(t, table.PageCount())
	assert.False(t, table.CanNextPage())
}

func TestRowCount_IsPostFilterPrePagination(t *testing.T) {
	table := newItemTable(t, manyItems(23))
	require.NoError(t, table.SetColumnFilter("name", "item-1"))

	assert.Equal(t, 10, table.RowCount())
	assert.Equal(t, 1, table.PageCount())
}
