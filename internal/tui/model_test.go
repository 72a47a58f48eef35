package tui

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvdeck/internal/loader"
	"csvdeck/internal/logging"
)

type mapFetcher map[string]string

func (f mapFetcher) Fetch(_ context.Context, relPath string) ([]byte, error) {
	body, ok := f[relPath]
	if !ok {
		return nil, loader.NewStatusError(relPath, http.StatusNotFound)
	}
	return []byte(body), nil
}

const testManifest = `{"generatedAt":"2024-05-01T12:00:00.000Z","fileCount":3,"files":[
{"fileName":"big.csv","title":"Big","relativePath":"data/big.csv","size":4096,"lastModified":"2024-05-01T10:00:00.000Z"},
{"fileName":"gone.csv","title":"Gone","relativePath":"data/gone.csv","size":10,"lastModified":"2024-05-01T10:00:00.000Z"},
{"fileName":"scores.csv","title":"Scores","relativePath":"data/scores.csv","size":22,"lastModified":"2024-05-01T10:00:00.000Z"}]}`

func bigCSV(n int) string {
	var b strings.Builder
	b.WriteString("id,label\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,row %d\n", i, i)
	}
	return b.String()
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	f := mapFetcher{
		"data-manifest.json": testManifest,
		"data/scores.csv":    "name,score\nAna,90\nBo,75\n",
		"data/big.csv":       bigCSV(120),
	}
	m := New(Options{Fetcher: f, Logger: logging.Discard()})
	return update(t, m, m.fetchManifest()())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

// drain runs cmd, flattening batches, and returns the loadedMsg it yields.
func drain(t *testing.T, cmd tea.Cmd) loadedMsg {
	t.Helper()
	for _, msg := range run(cmd) {
		if lm, ok := msg.(loadedMsg); ok {
			return lm
		}
	}
	t.Fatal("command produced no loadedMsg")
	return loadedMsg{}
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// open moves the selector to the dataset at index and loads it.
func open(t *testing.T, m Model, index int) Model {
	t.Helper()
	m.list.Select(index)
	m, cmd := press(t, m, "enter")
	return update(t, m, drain(t, cmd))
}

func TestModel_ManifestPopulatesSelector(t *testing.T) {
	m := newTestModel(t)
	assert.False(t, m.manifestLoading)
	assert.Equal(t, 3, m.registry.Len())
	require.Len(t, m.list.Items(), 3)
	assert.Equal(t, "Big", m.list.Items()[0].(datasetItem).Title())
	assert.Contains(t, m.list.Items()[0].(datasetItem).Description(), "4.1 kB")

	out := m.View()
	assert.Contains(t, out, "Datasets")
	assert.Contains(t, out, "Select a dataset to view its rows.")
}

func TestModel_ManifestFailure(t *testing.T) {
	m := New(Options{Fetcher: mapFetcher{}, Logger: logging.Discard()})
	m = update(t, m, m.fetchManifest()())
	assert.NotEmpty(t, m.manifestErr)
	assert.Equal(t, 0, m.registry.Len())
	assert.Contains(t, m.View(), "Could not load the dataset list")
}

func TestModel_SelectShowsRows(t *testing.T) {
	m := newTestModel(t)
	m.list.Select(2)

	m, cmd := press(t, m, "enter")
	assert.Equal(t, loader.StateLoading, m.snap.State)
	assert.Contains(t, m.View(), "Loading scores.csv")

	m = update(t, m, drain(t, cmd))
	assert.Equal(t, loader.StateReady, m.snap.State)
	assert.Equal(t, []string{"name", "score"}, m.view.Columns())
	assert.Len(t, m.grid.Rows(), 2)
	assert.Equal(t, [][]string{{"Ana", "90"}, {"Bo", "75"}}, table2(m))

	out := m.View()
	assert.Contains(t, out, "scores.csv")
	assert.Contains(t, out, "Page 1 of 1")
	assert.Contains(t, out, "0.02 KB")
}

func table2(m Model) [][]string {
	var out [][]string
	for _, r := range m.grid.Rows() {
		out = append(out, []string(r))
	}
	return out
}

func TestModel_LastSelectionWins(t *testing.T) {
	m := newTestModel(t)

	m.list.Select(0)
	m, first := press(t, m, "enter")
	m.list.Select(2)
	m, second := press(t, m, "enter")

	m = update(t, m, drain(t, second))
	stale := drain(t, first)
	m = update(t, m, stale)

	assert.Equal(t, "scores.csv", m.snap.Descriptor.FileName)
	assert.Equal(t, 2, m.view.TotalRows())
}

func TestModel_FailedLoadClearsGrid(t *testing.T) {
	m := newTestModel(t)
	m = open(t, m, 2)
	require.False(t, m.view.Empty())

	m = open(t, m, 1)
	assert.Equal(t, loader.StateError, m.snap.State)
	assert.True(t, m.view.Empty())
	out := m.View()
	assert.Contains(t, out, "Error:")
	assert.Contains(t, out, "404")
}

func TestModel_FilterKeys(t *testing.T) {
	m := newTestModel(t)
	m = open(t, m, 2)

	m, _ = press(t, m, "/")
	require.True(t, m.filtering)
	m, _ = press(t, m, "a", "n")
	assert.Equal(t, "an", m.view.Filter())
	assert.Equal(t, 1, m.view.FilteredCount())

	m, _ = press(t, m, "esc")
	assert.False(t, m.filtering)
	assert.Equal(t, "an", m.view.Filter(), "leaving the box keeps the filter")
	assert.Contains(t, m.View(), "filtered from 2")

	m, _ = press(t, m, "/", "x")
	assert.Equal(t, 0, m.view.FilteredCount())
	assert.Contains(t, m.View(), "Page 1 of 1")
}

func TestModel_SortAndColumnCursor(t *testing.T) {
	m := newTestModel(t)
	m = open(t, m, 2)
	m, _ = press(t, m, "tab")
	require.Equal(t, paneGrid, m.focus)

	m, _ = press(t, m, "right", "s")
	assert.Equal(t, 1, m.colCursor)
	assert.Equal(t, []string{"75", "90"}, []string{m.grid.Rows()[0][1], m.grid.Rows()[1][1]})

	m, _ = press(t, m, "s")
	assert.Equal(t, "90", m.grid.Rows()[0][1])

	m, _ = press(t, m, "right")
	assert.Equal(t, 1, m.colCursor, "cursor stops at the last column")
	m, _ = press(t, m, "left", "left")
	assert.Equal(t, 0, m.colCursor)
}

func TestModel_Paging(t *testing.T) {
	m := newTestModel(t)
	m = open(t, m, 0)
	m, _ = press(t, m, "tab")

	assert.Equal(t, 12, m.view.PageCount())
	m, _ = press(t, m, "n", "n")
	assert.Equal(t, 2, m.view.PageIndex())
	assert.Equal(t, "20", m.grid.Rows()[0][0])

	m, _ = press(t, m, "p")
	assert.Equal(t, 1, m.view.PageIndex())
	m, _ = press(t, m, "G")
	assert.Equal(t, 11, m.view.PageIndex())
	m, _ = press(t, m, "n")
	assert.Equal(t, 11, m.view.PageIndex())
	m, _ = press(t, m, "g")
	assert.Equal(t, 0, m.view.PageIndex())

	m, _ = press(t, m, "+")
	assert.Equal(t, 25, m.view.PageSize())
	assert.Len(t, m.grid.Rows(), 25)
	m, _ = press(t, m, "-", "-")
	assert.Equal(t, 10, m.view.PageSize())
}

func TestModel_Stats(t *testing.T) {
	m := newTestModel(t)
	m = open(t, m, 2)
	m, _ = press(t, m, "tab", "i")
	assert.Equal(t, "name: no numeric values", m.statsLine)

	m, _ = press(t, m, "right", "i")
	assert.Contains(t, m.statsLine, "score: count 2")
	assert.Contains(t, m.statsLine, "mean 82.5")
	assert.Contains(t, m.statsLine, "median 82.5")
	assert.Contains(t, m.View(), "score: count 2")
}

func TestModel_QuitAndStaleTicks(t *testing.T) {
	m := newTestModel(t)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(m.spinner.Tick())
	assert.Nil(t, cmd, "spinner stops when nothing is loading")
}

func TestModel_Resize(t *testing.T) {
	m := newTestModel(t)
	m = open(t, m, 2)
	m = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
	assert.Equal(t, 160, m.width)
	assert.NotEmpty(t, m.View())
}
