package datatable

// PageCount is the number of pages over the filtered rows; zero when there are none
func (t *Table[T]) PageCount() int {
	size := t.state.Pagination.PageSize
	return (t.RowCount() + size - 1) / size
}

// SetPageIndex moves to a page, clamped to the valid range
func (t *Table[T]) SetPageIndex(index int) {
	last := max(t.PageCount()-1, 0)
	t.state.Pagination.PageIndex = min(max(index, 0), last)
}

// SetPageSize changes the page size and moves to the page that contains the
// row previously at the top of the page. A non-positive size resets it to
// DefaultPageSize.
func (t *Table[T]) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	top := t.state.Pagination.PageIndex * t.state.Pagination.PageSize
	t.state.Pagination = Pagination{PageIndex: top / size, PageSize: size}
}

func (t *Table[T]) FirstPage() {
	t.SetPageIndex(0)
}

func (t *Table[T]) PreviousPage() {
	t.SetPageIndex(t.state.Pagination.PageIndex - 1)
}

func (t *Table[T]) NextPage() {
	t.SetPageIndex(t.state.Pagination.PageIndex + 1)
}

func (t *Table[T]) LastPage() {
	t.SetPageIndex(t.PageCount() - 1)
}

func (t *Table[T]) CanPreviousPage() bool {
	return t.state.Pagination.PageIndex > 0
}

func (t *Table[T]) CanNextPage() bool {
	return t.state.Pagination.PageIndex < t.PageCount()-1
}

// PageRange returns the 1-based positions of the first and last row on the
// current page, as shown in "11-20 of 42". Both are zero when no row matches.
func (t *Table[T]) PageRange() (from, to int) {
	count := t.RowCount()
	if count == 0 {
		return 0, 0
	}
	p := t.state.Pagination
	from = p.PageIndex*p.PageSize + 1
	to = min(p.PageIndex*p.PageSize+p.PageSize, count)
	return from, to
}
