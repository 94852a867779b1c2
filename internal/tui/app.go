// Package tui is a terminal browser over the progressive loader: series
// tabs, a filterable item list, and a status bar that tracks background
// loading without disturbing the visible total.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/muralproject/mural/internal/domain"
	"github.com/muralproject/mural/internal/loader"
	"github.com/muralproject/mural/internal/tui/styles"
)

const chromeLines = 3 // tabs + filter/status rows around the list

// Model is the root Bubble Tea model.
type Model struct {
	loader   *loader.Loader
	observer *ChannelObserver
	keys     KeyMap

	seriesIDs []string
	seriesIdx int

	snap     loader.Snapshot
	cursor   int
	offset   int
	filtered []int // indexes into snap.Items while filtering

	filtering   bool
	filterInput textinput.Model

	inspecting bool
	inspected  domain.Item

	spinner spinner.Model
	width   int
	height  int
	err     error
}

// NewModel creates the root model. The observer must already be registered
// on the loader as its progress func.
func NewModel(l *loader.Loader, observer *ChannelObserver, table domain.SeriesTable, defaultSeries string) Model {
	ids := table.IDs()
	sort.Strings(ids)

	idx := 0
	for i, id := range ids {
		if id == defaultSeries {
			idx = i
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle

	input := textinput.New()
	input.Placeholder = "filter"
	input.Prompt = "/"

	return Model{
		loader:      l,
		observer:    observer,
		keys:        DefaultKeyMap(),
		seriesIDs:   ids,
		seriesIdx:   idx,
		spinner:     sp,
		filterInput: input,
	}
}

func (m Model) activeSeries() string {
	if len(m.seriesIDs) == 0 {
		return ""
	}
	return m.seriesIDs[m.seriesIdx]
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		activateSeriesCmd(m.loader, m.activeSeries(), false),
		waitProgressCmd(m.observer.Updates()),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ErrMsg:
		m.err = msg
		m.refresh()
		return m, nil

	case SeriesActivatedMsg:
		m.err = nil
		m.refresh()
		return m, nil

	case ProgressMsg:
		m.refresh()
		return m, waitProgressCmd(m.observer.Updates())

	case LoadAllDoneMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) refresh() {
	m.snap = m.loader.Snapshot()
	m.applyFilter()
	m.clampCursor()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys

	if m.filtering {
		switch {
		case keyMatches(msg, keys.Escape):
			m.filtering = false
			m.filterInput.SetValue("")
			m.applyFilter()
			return m, nil
		case keyMatches(msg, keys.Enter):
			m.filtering = false
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.applyFilter()
			m.clampCursor()
			return m, cmd
		}
	}

	switch {
	case keyMatches(msg, keys.Quit):
		return m, tea.Quit

	case keyMatches(msg, keys.Escape):
		if m.inspecting {
			m.inspecting = false
			return m, nil
		}
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.applyFilter()
			m.clampCursor()
		}
		return m, nil

	case keyMatches(msg, keys.Up):
		m.moveCursor(-1)
	case keyMatches(msg, keys.Down):
		m.moveCursor(1)
	case keyMatches(msg, keys.PageUp):
		m.moveCursor(-m.listHeight())
	case keyMatches(msg, keys.PageDown):
		m.moveCursor(m.listHeight())
	case keyMatches(msg, keys.Home):
		m.cursor = 0
		m.offset = 0
	case keyMatches(msg, keys.End):
		m.cursor = m.visibleCount() - 1
		m.clampCursor()

	case keyMatches(msg, keys.Enter):
		if item, ok := m.selectedItem(); ok {
			m.inspected = item
			m.inspecting = true
		}

	case keyMatches(msg, keys.Filter):
		m.filtering = true
		m.inspecting = false
		m.filterInput.Focus()
		return m, textinput.Blink

	case keyMatches(msg, keys.NextSeries):
		return m.switchSeries(1)
	case keyMatches(msg, keys.PrevSeries):
		return m.switchSeries(-1)

	case keyMatches(msg, keys.Refresh):
		m.loader.ClearCache(m.activeSeries())
		return m, activateSeriesCmd(m.loader, m.activeSeries(), true)

	case keyMatches(msg, keys.LoadAll):
		return m, loadAllCmd(m.loader, m.activeSeries())
	}

	return m, nil
}

func (m Model) switchSeries(delta int) (tea.Model, tea.Cmd) {
	if len(m.seriesIDs) < 2 {
		return m, nil
	}
	m.seriesIdx = (m.seriesIdx + delta + len(m.seriesIDs)) % len(m.seriesIDs)
	m.cursor = 0
	m.offset = 0
	m.inspecting = false
	m.filterInput.SetValue("")
	m.filtered = nil
	return m, activateSeriesCmd(m.loader, m.activeSeries(), false)
}

// applyFilter recomputes the filtered index list from the filter input.
func (m *Model) applyFilter() {
	query := strings.TrimSpace(m.filterInput.Value())
	if query == "" {
		m.filtered = nil
		return
	}

	targets := make([]string, len(m.snap.Items))
	for i, item := range m.snap.Items {
		targets[i] = item.ID + " " + item.Category
	}

	matches := fuzzy.Find(query, targets)
	indexes := make([]int, len(matches))
	for i, match := range matches {
		indexes[i] = match.Index
	}
	m.filtered = indexes
}

func (m Model) visibleCount() int {
	if m.filtered != nil {
		return len(m.filtered)
	}
	return len(m.snap.Items)
}

func (m Model) itemAt(row int) domain.Item {
	if m.filtered != nil {
		return m.snap.Items[m.filtered[row]]
	}
	return m.snap.Items[row]
}

func (m Model) selectedItem() (domain.Item, bool) {
	if m.visibleCount() == 0 || m.cursor >= m.visibleCount() {
		return domain.Item{}, false
	}
	return m.itemAt(m.cursor), true
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	max := m.visibleCount() - 1
	if m.cursor > max {
		m.cursor = max
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) listHeight() int {
	h := m.height - chromeLines
	if h < 1 {
		return 1
	}
	return h
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.viewTabs())
	b.WriteString("\n")

	if m.inspecting {
		b.WriteString(m.viewInspector())
	} else {
		b.WriteString(m.viewList())
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	return b.String()
}

func (m Model) viewTabs() string {
	tabs := make([]string, 0, len(m.seriesIDs))
	for i, id := range m.seriesIDs {
		if i == m.seriesIdx {
			tabs = append(tabs, styles.ActiveTabStyle.Render(id))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(id))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewList() string {
	if m.snap.IsLoading {
		return styles.DimStyle.Render(m.spinner.View() + " loading series...")
	}
	if m.err != nil {
		return styles.ErrorStyle.Render("error: " + m.err.Error())
	}
	if m.visibleCount() == 0 {
		return styles.DimStyle.Render("no wallpapers")
	}

	h := m.listHeight()
	end := m.offset + h
	if end > m.visibleCount() {
		end = m.visibleCount()
	}

	rows := make([]string, 0, h)
	for row := m.offset; row < end; row++ {
		item := m.itemAt(row)
		line := fmt.Sprintf("%-28s %-16s %-6s %8s",
			truncate(item.ID, 28), truncate(item.Category, 16), item.Format, item.FormattedSize())
		if row == m.cursor {
			rows = append(rows, styles.SelectedItemStyle.Render(line))
		} else {
			rows = append(rows, styles.NormalItemStyle.Render(line))
		}
	}
	return strings.Join(rows, "\n")
}

func (m Model) viewInspector() string {
	item := m.inspected
	lines := []string{
		styles.TitleStyle.Render(item.ID),
		"",
		styles.SubtitleStyle.Render("category : ") + item.Category,
		styles.SubtitleStyle.Render("format   : ") + item.Format,
		styles.SubtitleStyle.Render("size     : ") + item.FormattedSize(),
		"",
		styles.SubtitleStyle.Render("url      : ") + item.URL,
		styles.SubtitleStyle.Render("thumb    : ") + item.ThumbnailURL,
		styles.SubtitleStyle.Render("download : ") + item.DownloadURL,
	}
	if item.PreviewURL != nil {
		lines = append(lines, styles.SubtitleStyle.Render("preview  : ")+*item.PreviewURL)
	} else {
		lines = append(lines, styles.DimStyle.Render("no preview"))
	}
	return styles.InspectorStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewStatus() string {
	if m.filtering {
		return styles.StatusBarStyle.Render(m.filterInput.View())
	}

	parts := []string{fmt.Sprintf("%d wallpapers", m.snap.VisibleTotal)}

	if m.snap.CategoryCount > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d categories", m.snap.CategoriesLoaded, m.snap.CategoryCount))
	}
	if m.snap.Legacy {
		parts = append(parts, "legacy dataset")
	}
	if m.snap.IsBackgroundLoading {
		parts = append(parts, m.spinner.View()+" loading more")
	}
	if m.filterInput.Value() != "" {
		parts = append(parts, fmt.Sprintf("filter: %q (%d)", m.filterInput.Value(), m.visibleCount()))
	}

	return styles.StatusBarStyle.Render(strings.Join(parts, " · "))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
