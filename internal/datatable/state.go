package datatable

import "maps"

// ColumnSort is one entry of the sort order
type ColumnSort struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// ColumnFilter is an active filter on one column
type ColumnFilter struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// Pagination is the current page window
type Pagination struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
}

// PinPosition is the side a column is pinned to
type PinPosition string

const (
	PinNone  PinPosition = ""
	PinLeft  PinPosition = "left"
	PinRight PinPosition = "right"
)

// ColumnPinning lists pinned column ids in display order per side
type ColumnPinning struct {
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// State is the view state of one table. It is never persisted.
type State struct {
	Sorting          []ColumnSort    `json:"sorting"`
	ColumnFilters    []ColumnFilter  `json:"columnFilters"`
	ColumnVisibility map[string]bool `json:"columnVisibility"`
	RowSelection     map[string]bool `json:"rowSelection"`
	Pagination       Pagination      `json:"pagination"`
	ColumnPinning    ColumnPinning   `json:"columnPinning"`
}

func (s State) clone() State {
	return State{
		Sorting:          append([]ColumnSort{}, s.Sorting...),
		ColumnFilters:    append([]ColumnFilter{}, s.ColumnFilters...),
		ColumnVisibility: maps.Clone(s.ColumnVisibility),
		RowSelection:     maps.Clone(s.RowSelection),
		Pagination:       s.Pagination,
		ColumnPinning: ColumnPinning{
			Left:  append([]string{}, s.ColumnPinning.Left...),
			Right: append([]string{}, s.ColumnPinning.Right...),
		},
	}
}
