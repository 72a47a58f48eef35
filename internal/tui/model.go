// Package tui is the interactive terminal browser: a dataset selector fed by
// the manifest, and a sortable, filterable, paginated grid of the selected
// dataset.
package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"csvdeck/internal/loader"
	"csvdeck/internal/logging"
	"csvdeck/internal/manifest"
	tableview "csvdeck/internal/table"
)

type pane int

const (
	paneList pane = iota
	paneGrid
)

const (
	defaultWidth  = 110
	defaultHeight = 32
	listWidth     = 36
)

// Options wires the browser to its data source.
type Options struct {
	Fetcher      loader.Fetcher
	ManifestName string
	PageSizes    []int
	Logger       *slog.Logger
	Context      context.Context
}

type manifestMsg struct {
	manifest *manifest.Manifest
	err      error
}

type loadedMsg struct {
	result loader.Result
}

// datasetItem adapts a manifest descriptor to list.Item.
type datasetItem struct {
	desc manifest.Descriptor
}

func (i datasetItem) Title() string { return i.desc.Title }
func (i datasetItem) Description() string {
	return fmt.Sprintf("%s · %s", i.desc.FileName, humanize.Bytes(uint64(max(i.desc.Size, 0))))
}
func (i datasetItem) FilterValue() string { return i.desc.Title + " " + i.desc.FileName }

type Model struct {
	ctx          context.Context
	fetcher      loader.Fetcher
	loader       *loader.Loader
	manifestName string
	logger       *slog.Logger

	registry        *loader.Registry
	manifestLoading bool
	manifestErr     string

	view *tableview.View
	snap loader.Snapshot

	list    list.Model
	grid    table.Model
	filter  textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	styles  Styles

	focus     pane
	filtering bool
	colCursor int
	colOffset int
	statsLine string

	width  int
	height int
}

func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	name := opts.ManifestName
	if name == "" {
		name = "data-manifest.json"
	}
	logger := logging.OrDefault(opts.Logger).With("component", "tui")
	styles := DefaultStyles()

	l := list.New(nil, list.NewDefaultDelegate(), listWidth, defaultHeight-6)
	l.Title = "Datasets"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = styles.Title
	l.SetStatusBarItemName("dataset", "datasets")

	grid := table.New(
		table.WithFocused(false),
		table.WithHeight(10),
	)
	grid.SetStyles(styles.Grid)

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "filter rows..."
	fi.CharLimit = 200
	fi.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Title

	return Model{
		ctx:             ctx,
		fetcher:         opts.Fetcher,
		loader:          loader.New(opts.Fetcher, logger),
		manifestName:    name,
		logger:          logger,
		registry:        loader.NewRegistry(nil),
		manifestLoading: true,
		view:            tableview.New(opts.PageSizes...),
		list:            l,
		grid:            grid,
		filter:          fi,
		spinner:         sp,
		help:            help.New(),
		keys:            defaultKeyMap(),
		styles:          styles,
		width:           defaultWidth,
		height:          defaultHeight,
	}
}

// Run starts the browser and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	opts.Context = ctx
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchManifest(), m.spinner.Tick)
}

func (m Model) fetchManifest() tea.Cmd {
	ctx, fetcher, name := m.ctx, m.fetcher, m.manifestName
	return func() tea.Msg {
		doc, err := loader.FetchManifest(ctx, fetcher, name)
		return manifestMsg{manifest: doc, err: err}
	}
}

func (m Model) load(req loader.Request) tea.Cmd {
	ctx, l := m.ctx, m.loader
	return func() tea.Msg {
		return loadedMsg{result: l.Run(ctx, req)}
	}
}

func (m Model) busy() bool {
	return m.manifestLoading || m.snap.State == loader.StateLoading
}

// selectDataset starts loading desc. Whatever was loading before is left to
// finish and is dropped on arrival.
func (m Model) selectDataset(desc manifest.Descriptor) (Model, tea.Cmd) {
	req := m.loader.Select(desc)
	m.sync()
	return m, tea.Batch(m.load(req), m.spinner.Tick)
}

// sync pulls the loader state into the model and the grid.
func (m *Model) sync() {
	snap := m.loader.Snapshot()
	switch snap.State {
	case loader.StateReady:
		if snap.Rows != m.snap.Rows {
			m.view.SetRows(snap.Rows)
			m.resetGridState()
		}
	case loader.StateError:
		m.view.SetRows(nil)
		m.resetGridState()
	}
	m.snap = snap
	m.refreshGrid()
}

func (m *Model) resetGridState() {
	m.colCursor, m.colOffset = 0, 0
	m.statsLine = ""
	m.filtering = false
	m.filter.Blur()
	m.filter.SetValue("")
}

func (m *Model) setFocus(p pane) {
	m.focus = p
	if p == paneGrid {
		m.grid.Focus()
	} else {
		m.grid.Blur()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.list.SetSize(listWidth, max(height-6, 5))
	m.help.Width = width
	m.refreshGrid()
}
