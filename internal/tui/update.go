package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"csvdeck/internal/loader"
	"csvdeck/internal/stats"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case manifestMsg:
		return m.onManifest(msg)

	case loadedMsg:
		if !m.loader.Apply(msg.result) {
			return m, nil
		}
		m.sync()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) onManifest(msg manifestMsg) (tea.Model, tea.Cmd) {
	m.manifestLoading = false
	if msg.err != nil {
		m.manifestErr = msg.err.Error()
		m.registry = loader.NewRegistry(nil)
		m.logger.Warn("manifest unavailable", "error", msg.err)
	} else {
		m.manifestErr = ""
		m.registry = loader.NewRegistry(msg.manifest)
		m.logger.Info("manifest loaded", "datasets", m.registry.Len())
	}

	datasets := m.registry.Datasets()
	items := make([]list.Item, len(datasets))
	for i, d := range datasets {
		items[i] = datasetItem{desc: d}
	}
	return m, m.list.SetItems(items)
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.LeaveInput) {
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.view.SetFilter(m.filter.Value())
	m.refreshGrid()
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == paneList {
			m.setFocus(paneGrid)
		} else {
			m.setFocus(paneList)
		}
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.manifestLoading = true
		return m, tea.Batch(m.fetchManifest(), m.spinner.Tick)
	case key.Matches(msg, m.keys.Filter):
		if m.view.Empty() {
			return m, nil
		}
		m.filtering = true
		return m, m.filter.Focus()
	}

	if m.focus == paneList {
		return m.updateList(msg)
	}
	return m.updateGrid(msg)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Select) {
		item, ok := m.list.SelectedItem().(datasetItem)
		if !ok {
			return m, nil
		}
		return m.selectDataset(item.desc)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.view.Columns()
	changed := true

	switch {
	case key.Matches(msg, m.keys.ColLeft):
		m.colCursor = max(m.colCursor-1, 0)
	case key.Matches(msg, m.keys.ColRight):
		m.colCursor = min(m.colCursor+1, max(len(cols)-1, 0))
	case key.Matches(msg, m.keys.Sort):
		if len(cols) == 0 {
			return m, nil
		}
		if err := m.view.ToggleSort(cols[m.colCursor]); err != nil {
			m.logger.Debug("sort failed", "error", err)
		}
	case key.Matches(msg, m.keys.NextPage):
		changed = m.view.NextPage()
	case key.Matches(msg, m.keys.PrevPage):
		changed = m.view.PrevPage()
	case key.Matches(msg, m.keys.FirstPage):
		changed = m.view.FirstPage()
	case key.Matches(msg, m.keys.LastPage):
		changed = m.view.LastPage()
	case key.Matches(msg, m.keys.Bigger):
		changed = m.view.StepPageSize(1)
	case key.Matches(msg, m.keys.Smaller):
		changed = m.view.StepPageSize(-1)
	case key.Matches(msg, m.keys.Stats):
		m.statsLine = m.describe(cols)
		return m, nil
	case key.Matches(msg, m.keys.RowUp, m.keys.RowDown):
		var cmd tea.Cmd
		m.grid, cmd = m.grid.Update(msg)
		return m, cmd
	default:
		changed = false
	}

	if changed {
		m.refreshGrid()
	}
	return m, nil
}

// describe summarizes the numeric cells of the cursor column across every
// row that passes the filter.
func (m Model) describe(cols []string) string {
	if len(cols) == 0 {
		return ""
	}
	col := cols[m.colCursor]
	s, err := stats.Summarize(m.view.Filtered(), col)
	if errors.Is(err, stats.ErrNoNumeric) {
		return fmt.Sprintf("%s: no numeric values", col)
	}
	if err != nil {
		return err.Error()
	}
	parts := []string{
		fmt.Sprintf("count %d", s.Count),
		"sum " + num(s.Sum),
		"mean " + num(s.Mean),
		"median " + num(s.Median),
		"min " + num(s.Min),
		"max " + num(s.Max),
		"std " + num(s.Std),
	}
	return col + ": " + strings.Join(parts, " · ")
}

func num(f float64) string {
	return humanize.CommafWithDigits(f, 2)
}
