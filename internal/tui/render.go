package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"csvdeck/internal/loader"
	tableview "csvdeck/internal/table"
)

const (
	minColWidth = 4
	maxColWidth = 28
)

func (m Model) gridWidth() int {
	return max(m.width-listWidth-8, 20)
}

// refreshGrid copies the current page of the view into the grid widget.
// Columns scroll horizontally so the cursor column is always visible.
func (m *Model) refreshGrid() {
	cols := m.view.Columns()
	page := m.view.Page()
	m.colCursor = min(m.colCursor, max(len(cols)-1, 0))

	widths := make([]int, len(cols))
	for i, col := range cols {
		w := lipgloss.Width(col) + 2
		for _, row := range page {
			w = max(w, lipgloss.Width(row.Get(col).String()))
		}
		widths[i] = min(max(w, minColWidth), maxColWidth)
	}

	avail := m.gridWidth()
	if m.colCursor < m.colOffset {
		m.colOffset = m.colCursor
	}
	for m.colOffset < m.colCursor && span(widths[m.colOffset:m.colCursor+1]) > avail {
		m.colOffset++
	}
	end := m.colOffset
	for end < len(cols) && (end == m.colOffset || span(widths[m.colOffset:end+1]) <= avail) {
		end++
	}

	columns := make([]table.Column, 0, end-m.colOffset)
	for i := m.colOffset; i < end; i++ {
		columns = append(columns, table.Column{Title: m.columnTitle(cols[i], i), Width: widths[i]})
	}
	rows := make([]table.Row, 0, len(page))
	for _, r := range page {
		cells := make(table.Row, 0, len(columns))
		for i := m.colOffset; i < end; i++ {
			cells = append(cells, r.Get(cols[i]).String())
		}
		rows = append(rows, cells)
	}

	// rows must never be wider than the columns while they are swapped
	m.grid.SetRows(nil)
	m.grid.SetColumns(columns)
	m.grid.SetRows(rows)
	m.grid.SetHeight(min(m.view.PageSize(), max(m.height-14, 3)) + 1)
	if m.grid.Cursor() >= len(rows) {
		m.grid.SetCursor(0)
	}
}

// span is the rendered width of columns with their cell padding.
func span(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	return total
}

func (m Model) columnTitle(col string, index int) string {
	title := col
	if desc, sorted := m.view.SortDirection(col); sorted {
		if desc {
			title += " ▼"
		} else {
			title += " ▲"
		}
	}
	if index == m.colCursor && m.focus == paneGrid {
		title = "›" + title
	}
	return title
}

func (m Model) View() string {
	listStyle, gridStyle := m.styles.FocusedPane, m.styles.Pane
	if m.focus == paneGrid {
		listStyle, gridStyle = m.styles.Pane, m.styles.FocusedPane
	}

	left := listStyle.Render(m.renderSelector())
	right := gridStyle.Width(m.gridWidth() + 2).Render(m.renderDataset())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	header := m.styles.Title.Render("csvdeck") + "  " + m.styles.Muted.Render(m.manifestName)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.help.View(m.keys))
}

func (m Model) renderSelector() string {
	switch {
	case m.manifestLoading && m.registry.Len() == 0:
		return m.spinner.View() + " Loading datasets..."
	case m.manifestErr != "":
		return m.styles.Error.Render("Could not load the dataset list") + "\n" +
			m.styles.Muted.Width(listWidth).Render(m.manifestErr)
	case m.registry.Len() == 0:
		return m.styles.Muted.Render("No datasets published.")
	}
	return m.list.View()
}

func (m Model) renderDataset() string {
	var b strings.Builder

	if d := m.snap.Descriptor; d != nil {
		b.WriteString(m.styles.Title.Render(d.Title) + "\n")
		b.WriteString(m.infoLine("File", d.FileName))
		b.WriteString(m.infoLine("Last modified", d.LastModified.UTC().Format("2006-01-02 15:04:05 MST")+
			" ("+humanize.Time(d.LastModified.Time)+")"))
		b.WriteString(m.infoLine("Size", fmt.Sprintf("%.2f KB", float64(d.Size)/1024)))
		b.WriteString("\n")
	}

	switch m.snap.State {
	case loader.StateLoading:
		b.WriteString(m.spinner.View() + m.styles.Status.Render(" Loading "+m.snap.Descriptor.FileName+"...") + "\n")
	case loader.StateError:
		b.WriteString(m.styles.Error.Render("Error: "+m.snap.Message) + "\n")
	}

	if m.view.Empty() {
		if m.snap.State != loader.StateLoading && m.snap.State != loader.StateError {
			b.WriteString(m.styles.Placeholder.Render(tableview.Placeholder))
		}
		return b.String()
	}

	if m.filtering || m.view.Filter() != "" {
		b.WriteString(m.filter.View() + "\n")
	}
	b.WriteString(m.grid.View() + "\n")
	b.WriteString(m.styles.Muted.Render(m.pagerLine()))
	if m.statsLine != "" {
		b.WriteString("\n" + m.styles.Info.Render(m.statsLine))
	}
	return b.String()
}

func (m Model) infoLine(label, value string) string {
	return m.styles.Label.Render(label) + m.styles.Info.Render(value) + "\n"
}

func (m Model) pagerLine() string {
	rows := fmt.Sprintf("%s rows", humanize.Comma(int64(m.view.FilteredCount())))
	if m.view.Filter() != "" {
		rows += fmt.Sprintf(" (filtered from %s)", humanize.Comma(int64(m.view.TotalRows())))
	}
	return fmt.Sprintf("Page %d of %d · %d per page · %s",
		m.view.PageIndex()+1, m.view.DisplayPageCount(), m.view.PageSize(), rows)
}
