package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/insights"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilter
	modeHelp
	modeInsights
)

// Loader produces the result set for prefs. refresh asks it to bypass any
// cached result.
type Loader func(ctx context.Context, prefs dining.Preferences, refresh bool) (*dining.ResultSet, error)

type App struct {
	load   Loader
	campus string
	date   time.Time
	prefs  dining.Preferences

	rs     *dining.ResultSet
	items  []dining.ScoredFoodItem
	cursor int
	focus  focusPane
	mode   mode

	width  int
	height int

	// Sub-components
	searchInput textinput.Model
	spinner     spinner.Model
	mealBar     mealBar

	// State
	loading       bool
	previewScroll int
	timeout       time.Duration
	now           func() time.Time
	err           error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Campus  string
	Date    time.Time
	Prefs   dining.Preferences
	Load    Loader
	Timeout time.Duration
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search items..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 60

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}

	return &App{
		load:        opts.Load,
		campus:      opts.Campus,
		date:        opts.Date,
		prefs:       opts.Prefs,
		mealBar:     newMealBar(dining.AllMeals()),
		searchInput: ti,
		spinner:     sp,
		timeout:     opts.Timeout,
		now:         time.Now,
		loading:     true,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadCmd(false), a.spinner.Tick)
}

// loadCmd captures the current preferences into the closure to avoid races.
func (a *App) loadCmd(refresh bool) tea.Cmd {
	load := a.load
	prefs := a.prefs
	timeout := a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		rs, err := load(ctx, prefs, refresh)
		if err != nil {
			return loadErrMsg{err: err}
		}
		return resultLoadedMsg{rs: rs, prefs: prefs}
	}
}

func (a *App) reload(refresh bool) (tea.Model, tea.Cmd) {
	if a.loading {
		return a, nil
	}
	a.loading = true
	return a, tea.Batch(a.loadCmd(refresh), a.spinner.Tick)
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := openURL(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

// applyFilter recomputes the visible items from the meal tabs and search.
func (a *App) applyFilter() {
	if a.rs == nil {
		a.items = nil
		return
	}
	a.items = filterItems(a.rs.Items, a.mealBar.activeMeals(), a.searchInput.Value())
	if a.cursor >= len(a.items) {
		a.cursor = max(0, len(a.items)-1)
	}
	a.previewScroll = 0
}

func (a *App) selected() *dining.ScoredFoodItem {
	if len(a.items) > 0 && a.cursor < len(a.items) {
		return &a.items[a.cursor]
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case resultLoadedMsg:
		a.loading = false
		// a result for preferences that have since changed is stale
		if msg.prefs != a.prefs {
			return a.reload(false)
		}
		a.rs = msg.rs
		a.applyFilter()
		return a, nil

	case loadErrMsg:
		a.loading = false
		a.err = msg.err
		return a, nil

	case openErrMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	}

	// Mode-specific handling
	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	case modeInsights:
		if msg.String() == "i" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	// Normal mode
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.items)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if it := a.selected(); it != nil && it.Stub.HasNutrition() {
			return a, openURLCmd(it.Stub.NutritionURL)
		}
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "f":
		a.mode = modeFilter
		a.mealBar.filterMode = true
		return a, nil
	case "r":
		return a.reload(true)
	case "i":
		if a.rs != nil {
			a.mode = modeInsights
		}
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	case "v":
		a.prefs.Vegetarian = !a.prefs.Vegetarian
		return a.reload(false)
	case "V":
		a.prefs.Vegan = !a.prefs.Vegan
		return a.reload(false)
	case "B":
		a.prefs.ExcludeBeef = !a.prefs.ExcludeBeef
		return a.reload(false)
	case "P":
		a.prefs.ExcludePork = !a.prefs.ExcludePork
		return a.reload(false)
	case "p":
		a.prefs.PrioritizeProtein = !a.prefs.PrioritizeProtein
		return a.reload(false)
	}

	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.applyFilter()
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.applyFilter()
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	a.applyFilter()
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.mealBar.filterMode = false
		return a, nil
	case "left", "h":
		if a.mealBar.filterCursor > 0 {
			a.mealBar.filterCursor--
		}
		return a, nil
	case "right", "l":
		if a.mealBar.filterCursor < len(a.mealBar.meals)-1 {
			a.mealBar.filterCursor++
		}
		return a, nil
	case " ", "enter":
		a.mealBar.toggleCurrent()
		a.cursor = 0
		a.applyFilter()
		return a, nil
	case "1", "2", "3", "4":
		idx := int(msg.String()[0] - '1')
		if idx < len(a.mealBar.meals) {
			a.mealBar.toggle(a.mealBar.meals[idx])
			a.cursor = 0
			a.applyFilter()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderBottomBar(hints, a.width)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  menuscore")
	}

	if a.mode == modeHelp {
		return a.withBottomBar(a.renderHelp(), "? close  q quit")
	}

	if a.mode == modeInsights && a.rs != nil {
		return a.withBottomBar(renderInsights(insights.Build(a.rs, insights.DefaultTop), a.campus, a.height), "i close  q quit")
	}

	// Layout calculations
	headerHeight := 1
	filterHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - filterHeight - statusHeight - 4 // borders

	listWidth := int(float64(a.width) * 0.45)
	previewWidth := a.width - listWidth - 1 // gap

	if contentHeight < 3 {
		contentHeight = 3
	}

	// Header
	headerLeft := headerStyle.Render("menuscore · " + a.campus)
	right := a.date.Format("Mon Jan 2")
	if a.rs != nil {
		right += " · updated " + relativeTime(a.rs.GeneratedAt, a.now())
	}
	headerRight := headerDateStyle.Render(right)
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Meal tabs
	var counts map[dining.Meal]int
	if a.rs != nil {
		counts = make(map[dining.Meal]int)
		for _, it := range a.rs.Items {
			counts[it.Stub.Meal]++
		}
	}
	filter := a.mealBar.render(a.width, counts)

	// Search bar (replaces tabs when searching)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}

	// List pane
	innerListW := listWidth - 4 // border + padding
	var listContent string
	if a.rs == nil && a.loading {
		listContent = lipglossCenter(a.spinner.View()+" Fetching today's menu...", innerListW, contentHeight)
	} else {
		listContent = renderList(a.items, a.cursor, contentHeight, innerListW)
	}

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	// Preview pane
	innerPreviewW := previewWidth - 4
	previewContent := renderPreview(a.selected(), innerPreviewW, contentHeight, a.previewScroll)

	var previewPane string
	if a.focus == focusPreview {
		previewPane = previewPaneActiveStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	} else {
		previewPane = previewPaneStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	}

	// Join panes
	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	// Status bar
	status := renderStatusBar(
		len(a.items),
		a.mealBar.activeLabel(),
		a.prefs,
		a.width,
		a.mode == modeSearch,
		a.loading,
	)

	if a.loading {
		status = a.spinner.View() + " " + status
	}

	// Error display
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, filter, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("menuscore")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Navigate item list\n" +
		"  tab           Switch focus between list and details\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open nutrition label in browser\n" +
		"  r             Re-scrape today's menu\n" +
		"  /             Search items\n" +
		"  f             Toggle meal filter mode\n" +
		"  i             Day insights\n\n" +
		dim.Render("Preferences") + "\n" +
		"  v             Vegetarian\n" +
		"  V             Vegan\n" +
		"  B             No beef\n" +
		"  P             No pork\n" +
		"  p             Prioritize protein\n\n" +
		dim.Render("Meal Filter Mode") + "\n" +
		"  ←/→, h/l     Move between meals\n" +
		"  space/enter   Toggle meal\n" +
		"  1-4           Toggle meal by number\n" +
		"  esc, f        Exit filter mode\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
