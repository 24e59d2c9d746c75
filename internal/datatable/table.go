// Package datatable is an in-memory table view over a typed row collection.
//
// A Table holds the rows handed to it plus the view state (filters, sorting,
// visibility, selection, pagination and pinning). The rows shown are derived
// on every call: filter, then sort, then paginate. The only operation that
// leaves the table is the delegated bulk delete. A Table is not safe for
// concurrent use.
package datatable

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultPageSize is the page size of a new table
	DefaultPageSize = 10
	// DefaultFilterColumn is the column bound to the toolbar's free-text filter
	DefaultFilterColumn = "name"
)

// PageSizeOptions are the page sizes offered by the page size selector
var PageSizeOptions = []int{5, 10, 25, 50}

var (
	ErrNoColumns           = errors.New("datatable: no columns defined")
	ErrNoRowID             = errors.New("datatable: row id function is required")
	ErrDuplicateColumn     = errors.New("datatable: duplicate column id")
	ErrMissingColumnID     = errors.New("datatable: column has no id")
	ErrMissingAccessor     = errors.New("datatable: accessor key set without accessor")
	ErrUnknownColumn       = errors.New("datatable: unknown column")
	ErrNotSortable         = errors.New("datatable: column cannot be sorted")
	ErrNotFilterable       = errors.New("datatable: column cannot be filtered")
	ErrNoRows              = errors.New("datatable: no rows to export")
	ErrNoExportableColumns = errors.New("datatable: no exportable columns")
	ErrNothingSelected     = errors.New("datatable: no rows selected")
	ErrNoDeleteHandler     = errors.New("datatable: no delete handler configured")
)

// DeleteFunc deletes the rows with the given ids. It is supplied by the caller.
type DeleteFunc func(ctx context.Context, ids []string) error

// Options configures a Table
type Options[T any] struct {
	Columns []Column[T]
	// RowID returns the stable identity of a row, used for selection and delete
	RowID func(row T) string

	PageSize     int
	FilterColumn string
	Facets       []Facet
	ExportPrefix string
	OnDelete     DeleteFunc
	Notifier     Notifier
}

// Table is the view over one row collection
type Table[T any] struct {
	columns []Column[T]
	index   map[string]int
	rowID   func(T) string
	data    []T

	filterColumn string
	facets       []Facet
	exportPrefix string
	onDelete     DeleteFunc
	notifier     Notifier

	state State
}

// New validates opts and returns a table over data
func New[T any](data []T, opts Options[T]) (*Table[T], error) {
	if len(opts.Columns) == 0 {
		return nil, ErrNoColumns
	}
	if opts.RowID == nil {
		return nil, ErrNoRowID
	}

	columns := make([]Column[T], len(opts.Columns))
	index := make(map[string]int, len(opts.Columns))
	for i, col := range opts.Columns {
		if col.ID == "" {
			col.ID = col.AccessorKey
		}
		if col.ID == "" {
			return nil, fmt.Errorf("%w: column %d", ErrMissingColumnID, i)
		}
		if _, ok := index[col.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, col.ID)
		}
		if col.AccessorKey != "" && col.Accessor == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingAccessor, col.ID)
		}
		columns[i] = col
		index[col.ID] = i
	}

	for _, f := range opts.Facets {
		if _, ok := index[f.ColumnID]; !ok {
			return nil, fmt.Errorf("%w: facet %s", ErrUnknownColumn, f.ColumnID)
		}
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	filterColumn := opts.FilterColumn
	if filterColumn == "" {
		filterColumn = DefaultFilterColumn
	}
	exportPrefix := opts.ExportPrefix
	if exportPrefix == "" {
		exportPrefix = DefaultExportPrefix
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	t := &Table[T]{
		columns:      columns,
		index:        index,
		rowID:        opts.RowID,
		filterColumn: filterColumn,
		facets:       opts.Facets,
		exportPrefix: exportPrefix,
		onDelete:     opts.OnDelete,
		notifier:     notifier,
		state: State{
			ColumnVisibility: make(map[string]bool),
			RowSelection:     make(map[string]bool),
			Pagination:       Pagination{PageSize: pageSize},
		},
	}
	t.SetData(data)
	return t, nil
}

// SetData replaces the row collection. Selected ids that are no longer present
// are dropped and the page index returns to the first page.
func (t *Table[T]) SetData(data []T) {
	t.data = data

	present := make(map[string]bool, len(data))
	for _, row := range data {
		present[t.rowID(row)] = true
	}
	for id := range t.state.RowSelection {
		if !present[id] {
			delete(t.state.RowSelection, id)
		}
	}

	t.state.Pagination.PageIndex = 0
}

// Data returns the full, unfiltered row collection
func (t *Table[T]) Data() []T {
	return t.data
}

// State returns a copy of the current view state
func (t *Table[T]) State() State {
	return t.state.clone()
}

// Column looks a column up by id
func (t *Table[T]) Column(id string) (Column[T], bool) {
	i, ok := t.index[id]
	if !ok {
		return Column[T]{}, false
	}
	return t.columns[i], true
}

// Columns returns every column in definition order
func (t *Table[T]) Columns() []Column[T] {
	return append([]Column[T]{}, t.columns...)
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
