package datatable

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type item struct {
	ID        string
	Name      string
	Status    string
	Score     int
	Note      *string
	CreatedAt time.Time
}

var baseTime = time.Date(2025, 1, 5, 10, 30, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func itemColumns() []Column[item] {
	return []Column[item]{
		{ID: SelectColumnID, DisableSorting: true, DisableHiding: true, Size: 50},
		{AccessorKey: "name", Header: "Name", Accessor: func(i item) any { return i.Name }, Size: 200},
		{AccessorKey: "status", Header: "Status", Accessor: func(i item) any { return i.Status }, FilterFn: FilterInSet},
		{AccessorKey: "score", Header: "Score", Accessor: func(i item) any { return i.Score }},
		{AccessorKey: "note", Accessor: func(i item) any { return i.Note }},
		{AccessorKey: "created_at", Header: "Created At", Accessor: func(i item) any { return i.CreatedAt }},
		{ID: ActionsColumnID, DisableHiding: true, Size: 60},
	}
}

func sampleItems() []item {
	return []item{
		{ID: "1", Name: "Alpha", Status: "active", Score: 30, Note: strp("first"), CreatedAt: baseTime},
		{ID: "2", Name: "bravo", Status: "archived", Score: 10, CreatedAt: baseTime.Add(24 * time.Hour)},
		{ID: "3", Name: "Charlie", Status: "active", Score: 20, Note: strp("has, comma"), CreatedAt: baseTime.Add(48 * time.Hour)},
		{ID: "4", Name: "delta", Status: "inactive", Score: 10, Note: strp(`say "hi"`), CreatedAt: baseTime.Add(72 * time.Hour)},
	}
}

func manyItems(n int) []item {
	items := make([]item, n)
	for i := range items {
		items[i] = item{
			ID:        fmt.Sprintf("id-%02d", i),
			Name:      fmt.Sprintf("item-%02d", i),
			Status:    "active",
			Score:     i,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Hour),
		}
	}
	return items
}

func newItemTable(t *testing.T, data []item, configure ...func(*Options[item])) *Table[item] {
	t.Helper()
	opts := Options[item]{
		Columns: itemColumns(),
		RowID:   func(i item) string { return i.ID },
		Facets: []Facet{{
			Label:    "Status",
			ColumnID: "status",
			Options: []FacetOption{
				{Label: "Active", Value: "active"},
				{Label: "Inactive", Value: "inactive"},
				{Label: "Archived", Value: "archived"},
			},
		}},
	}
	for _, c := range configure {
		c(&opts)
	}
	table, err := New(data, opts)
	require.NoError(t, err)
	return table
}

func ids(rows []item) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
