// Package table presents an arbitrary row set as a sortable, filterable,
// paginated grid. Columns come from the rows themselves; nothing about the
// schema is known up front.
//
// Rows flow through filter, then sort, then pagination. The view never
// mutates the rows it is given.
package table

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"csvdeck/internal/dataset"
)

// DefaultPageSizes is the page size menu; the smallest entry is the default.
var DefaultPageSizes = []int{10, 25, 50, 100}

// Placeholder is shown instead of a grid when there are no rows.
const Placeholder = "Select a dataset to view its rows."

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrPageSize      = errors.New("page size not offered")
)

// SortSpec is one active sort. Only one is kept at a time.
type SortSpec struct {
	Column string
	Desc   bool
}

func (s SortSpec) String() string {
	if s.Desc {
		return s.Column + " desc"
	}
	return s.Column + " asc"
}

// State is the user-controlled part of the view.
type State struct {
	Sorting      []SortSpec
	GlobalFilter string
	PageIndex    int
	PageSize     int
}

type View struct {
	rows      []dataset.Row
	columns   []string
	pageSizes []int
	state     State

	// filter+sort output, rebuilt lazily
	model []dataset.Row
	dirty bool
}

// New builds an empty view. Sizes below one are dropped; when none remain
// the menu is DefaultPageSizes.
func New(pageSizes ...int) *View {
	sizes := slices.DeleteFunc(slices.Clone(pageSizes), func(n int) bool { return n <= 0 })
	if len(sizes) == 0 {
		sizes = slices.Clone(DefaultPageSizes)
	}
	slices.Sort(sizes)
	sizes = slices.Compact(sizes)

	return &View{
		pageSizes: sizes,
		state:     State{PageSize: sizes[0]},
		dirty:     true,
	}
}

// SetRows swaps in a new row set. Sorting, filter and page index reset;
// the chosen page size is kept.
func (v *View) SetRows(rs *dataset.RowSet) {
	if rs == nil {
		v.rows, v.columns = nil, nil
	} else {
		v.rows = rs.Rows
		v.columns = rs.Columns()
	}
	v.state.Sorting = nil
	v.state.GlobalFilter = ""
	v.state.PageIndex = 0
	v.dirty = true
}

func (v *View) Columns() []string { return slices.Clone(v.columns) }
func (v *View) PageSizes() []int  { return slices.Clone(v.pageSizes) }
func (v *View) TotalRows() int    { return len(v.rows) }

// Empty reports whether the placeholder should be shown instead of a grid.
func (v *View) Empty() bool { return len(v.rows) == 0 }

// State returns a copy of the current state.
func (v *View) State() State {
	s := v.state
	s.Sorting = slices.Clone(v.state.Sorting)
	return s
}

func (v *View) hasColumn(column string) bool {
	return slices.Contains(v.columns, column)
}

// SortDirection reports how column is sorted, if at all.
func (v *View) SortDirection(column string) (desc, sorted bool) {
	for _, s := range v.state.Sorting {
		if s.Column == column {
			return s.Desc, true
		}
	}
	return false, false
}

// ToggleSort cycles column through unsorted, ascending, descending and back
// to unsorted. Toggling a column that is not sorted replaces any other sort.
func (v *View) ToggleSort(column string) error {
	if !v.hasColumn(column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	desc, sorted := v.SortDirection(column)
	switch {
	case !sorted:
		v.state.Sorting = []SortSpec{{Column: column}}
	case !desc:
		v.state.Sorting = []SortSpec{{Column: column, Desc: true}}
	default:
		v.state.Sorting = nil
	}
	v.resetPage()
	return nil
}

// SetSort replaces the active sort.
func (v *View) SetSort(column string, desc bool) error {
	if !v.hasColumn(column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	v.state.Sorting = []SortSpec{{Column: column, Desc: desc}}
	v.resetPage()
	return nil
}

func (v *View) Sorting() []SortSpec { return slices.Clone(v.state.Sorting) }

// SetFilter sets the free-text query and goes back to the first page.
func (v *View) SetFilter(query string) {
	if query == v.state.GlobalFilter {
		return
	}
	v.state.GlobalFilter = query
	v.resetPage()
}

func (v *View) Filter() string { return v.state.GlobalFilter }

func (v *View) resetPage() {
	v.state.PageIndex = 0
	v.dirty = true
}

// Matches reports whether any visible cell of row contains query, ignoring
// case. Null cells never match; an empty query matches every row.
func (v *View) Matches(row dataset.Row, query string) bool {
	if query == "" {
		return true
	}
	needle := strings.ToLower(query)
	for _, col := range v.columns {
		cell := row.Get(col)
		if cell.IsNull() {
			continue
		}
		if strings.Contains(strings.ToLower(cell.String()), needle) {
			return true
		}
	}
	return false
}

func (v *View) rebuild() {
	if !v.dirty {
		return
	}
	v.dirty = false

	filtered := make([]dataset.Row, 0, len(v.rows))
	for _, row := range v.rows {
		if v.Matches(row, v.state.GlobalFilter) {
			filtered = append(filtered, row)
		}
	}

	if len(v.state.Sorting) > 0 {
		spec := v.state.Sorting[0]
		sort.SliceStable(filtered, func(i, j int) bool {
			c := dataset.Compare(filtered[i].Get(spec.Column), filtered[j].Get(spec.Column))
			if spec.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	v.model = filtered
}

// Filtered returns every row that passes the filter, in sorted order.
func (v *View) Filtered() []dataset.Row {
	v.rebuild()
	return slices.Clone(v.model)
}

func (v *View) FilteredCount() int {
	v.rebuild()
	return len(v.model)
}

// PageCount is the number of pages of the filtered rows; zero when nothing
// matches.
func (v *View) PageCount() int {
	n := v.FilteredCount()
	return (n + v.state.PageSize - 1) / v.state.PageSize
}

// DisplayPageCount never reports fewer than one page.
func (v *View) DisplayPageCount() int {
	return max(1, v.PageCount())
}

func (v *View) PageIndex() int { return v.state.PageIndex }
func (v *View) PageSize() int  { return v.state.PageSize }

// Page returns the rows of the current page.
func (v *View) Page() []dataset.Row {
	return v.pageAt(v.state.PageIndex)
}

func (v *View) pageAt(index int) []dataset.Row {
	v.rebuild()
	start := index * v.state.PageSize
	if index < 0 || start >= len(v.model) {
		return nil
	}
	end := min(start+v.state.PageSize, len(v.model))
	return slices.Clone(v.model[start:end])
}

// Pages splits the filtered, sorted rows into consecutive pages.
func (v *View) Pages() [][]dataset.Row {
	count := v.PageCount()
	pages := make([][]dataset.Row, 0, count)
	for i := 0; i < count; i++ {
		pages = append(pages, v.pageAt(i))
	}
	return pages
}

func (v *View) CanPrevPage() bool { return v.state.PageIndex > 0 }
func (v *View) CanNextPage() bool { return v.state.PageIndex < v.PageCount()-1 }

// SetPageIndex moves to index, clamped to the existing pages.
func (v *View) SetPageIndex(index int) {
	last := max(0, v.PageCount()-1)
	v.state.PageIndex = min(max(index, 0), last)
}

func (v *View) NextPage() bool {
	if !v.CanNextPage() {
		return false
	}
	v.state.PageIndex++
	return true
}

func (v *View) PrevPage() bool {
	if !v.CanPrevPage() {
		return false
	}
	v.state.PageIndex--
	return true
}

func (v *View) FirstPage() bool {
	if !v.CanPrevPage() {
		return false
	}
	v.state.PageIndex = 0
	return true
}

func (v *View) LastPage() bool {
	if !v.CanNextPage() {
		return false
	}
	v.state.PageIndex = v.PageCount() - 1
	return true
}

// SetPageSize switches to size, which must be on the menu. The first row
// currently on screen stays on screen.
func (v *View) SetPageSize(size int) error {
	if !slices.Contains(v.pageSizes, size) {
		return fmt.Errorf("%w: %d", ErrPageSize, size)
	}
	top := v.state.PageIndex * v.state.PageSize
	v.state.PageSize = size
	v.state.PageIndex = top / size
	return nil
}

// StepPageSize moves delta entries along the page size menu, stopping at
// either end. It reports whether the size changed.
func (v *View) StepPageSize(delta int) bool {
	i := slices.Index(v.pageSizes, v.state.PageSize)
	j := min(max(i+delta, 0), len(v.pageSizes)-1)
	if j == i {
		return false
	}
	return v.SetPageSize(v.pageSizes[j]) == nil
}
