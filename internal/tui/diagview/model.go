// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     diagview
// Description: Bubbletea model browsing the diagnostics of one file next to
//              the offending source line
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package diagview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/structlint/internal/validator"
	"github.com/msto63/structlint/pkg/core/version"
)

// Filter selects which severities are listed
type Filter int

const (
	FilterAll Filter = iota
	FilterErrors
	FilterWarnings
)

// ReloadFunc re-reads and re-lints the file
type ReloadFunc func() (lines []string, diagnostics []validator.Diagnostic, err error)

// Config holds the browser's input
type Config struct {
	Path        string
	Lines       []string
	Diagnostics []validator.Diagnostic
	// Reload is bound to "r"; nil disables it
	Reload ReloadFunc
}

// Model is the Bubbletea model of the diagnostics browser
type Model struct {
	// State
	width   int
	height  int
	ready   bool
	loading bool
	err     error

	// Components
	viewport viewport.Model
	spinner  spinner.Model

	// Diagnostics
	path    string
	lines   []string
	all     []validator.Diagnostic
	visible []validator.Diagnostic
	filter  Filter
	cursor  int

	reload ReloadFunc
}

// New creates a new browser model
func New(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	m := Model{
		spinner: sp,
		path:    cfg.Path,
		lines:   cfg.Lines,
		all:     cfg.Diagnostics,
		reload:  cfg.Reload,
	}
	m.applyFilter()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 5 // Title + filter bar
		footerHeight := 8 // Source panel + help
		viewportHeight := msg.Height - headerHeight - footerHeight
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case reloadMsg:
		if m.reload != nil {
			m.loading = true
			cmds = append(cmds, m.spinner.Tick, m.load)
		}

	case diagnosticsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.lines = msg.lines
			m.all = msg.diagnostics
			m.applyFilter()
			m.updateViewportContent()
		}
	}

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyUp:
		m.move(-1)
		return m, nil

	case tea.KeyDown:
		m.move(1)
		return m, nil

	case tea.KeyPgUp:
		m.move(-m.viewport.Height)
		return m, nil

	case tea.KeyPgDown:
		m.move(m.viewport.Height)
		return m, nil

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit
		case "k":
			m.move(-1)
		case "j":
			m.move(1)
		case "e":
			m.setFilter(FilterErrors)
		case "w":
			m.setFilter(FilterWarnings)
		case "a":
			m.setFilter(FilterAll)
		case "g":
			m.move(-len(m.visible))
		case "G":
			m.move(len(m.visible))
		case "r":
			return m, func() tea.Msg { return reloadMsg{} }
		}
	}
	return m, nil
}

func (m *Model) setFilter(f Filter) {
	m.filter = f
	m.applyFilter()
	m.updateViewportContent()
}

// move shifts the selection and keeps it inside the viewport
func (m *Model) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	m.updateViewportContent()

	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if h := m.viewport.Height; h > 0 && m.cursor >= m.viewport.YOffset+h {
		m.viewport.SetYOffset(m.cursor - h + 1)
	}
}

// applyFilter rebuilds the visible list and clamps the cursor
func (m *Model) applyFilter() {
	m.visible = make([]validator.Diagnostic, 0, len(m.all))
	for _, d := range m.all {
		switch m.filter {
		case FilterErrors:
			if d.Severity != validator.SeverityError {
				continue
			}
		case FilterWarnings:
			if d.Severity != validator.SeverityWarning {
				continue
			}
		}
		m.visible = append(m.visible, d)
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Selected returns the highlighted diagnostic
func (m Model) Selected() (validator.Diagnostic, bool) {
	if len(m.visible) == 0 {
		return validator.Diagnostic{}, false
	}
	return m.visible[m.cursor], true
}

// Visible returns the diagnostics passing the current filter
func (m Model) Visible() []validator.Diagnostic {
	return m.visible
}

// updateViewportContent renders the diagnostic list into the viewport
func (m *Model) updateViewportContent() {
	var content strings.Builder
	for i, d := range m.visible {
		line := fmt.Sprintf("%s %s %s %s",
			PositionStyle.Render(fmt.Sprintf("%4d:%-3d", d.Line+1, d.StartCol+1)),
			renderSeverity(d.Severity),
			MessageStyle.Render(d.Message),
			RuleStyle.Render("["+d.Rule+"]"),
		)
		if i == m.cursor {
			line = SelectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	m.viewport.SetContent(content.String())
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Lade Diagnosen..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")
	b.WriteString(ListPanelStyle.Width(m.width - 2).Render(m.renderList()))
	b.WriteString("\n")
	b.WriteString(SourcePanelStyle.Width(m.width - 2).Render(m.renderSource()))
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	status := StatusOKStyle.Render("keine Befunde")
	if len(m.all) > 0 {
		errs, warns := count(m.all)
		status = ErrorBadgeStyle.Render(fmt.Sprintf("%d Fehler", errs)) + "  " +
			WarningBadgeStyle.Render(fmt.Sprintf("%d Warnungen", warns))
	}
	if m.loading {
		status = m.spinner.View() + " Prüfe..."
	}
	if m.err != nil {
		status = ErrorBadgeStyle.Render("Fehler: " + m.err.Error())
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		LogoStyle.Render(Logo+" v"+version.CLI),
		strings.Repeat(" ", 3),
		PathStyle.Render(m.path),
		strings.Repeat(" ", 3),
		status,
	)
	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

func (m Model) renderFilterBar() string {
	filters := []string{
		"a:" + RenderFilterStatus("Alle", m.filter == FilterAll),
		"e:" + RenderFilterStatus("Fehler", m.filter == FilterErrors),
		"w:" + RenderFilterStatus("Warnungen", m.filter == FilterWarnings),
	}
	countStr := HelpDescStyle.Render(fmt.Sprintf("[%d/%d]", len(m.visible), len(m.all)))
	return FilterBarStyle.Width(m.width - 2).Render(strings.Join(filters, "  ") + "  " + countStr)
}

func (m Model) renderList() string {
	if len(m.visible) == 0 {
		return HelpDescStyle.Render("Keine Diagnosen für diesen Filter.")
	}
	return m.viewport.View()
}

// renderSource shows the selected line with its neighbours and a marker
// under the reported columns
func (m Model) renderSource() string {
	d, ok := m.Selected()
	if !ok || d.Line < 0 || d.Line >= len(m.lines) {
		return HelpDescStyle.Render("Keine Quelle.")
	}

	var b strings.Builder
	for i := d.Line - 1; i <= d.Line+1; i++ {
		if i < 0 || i >= len(m.lines) {
			continue
		}
		text := strings.ReplaceAll(strings.TrimRight(m.lines[i], "\r"), "\t", " ")
		b.WriteString(PositionStyle.Render(fmt.Sprintf("%4d │ ", i+1)))
		b.WriteString(SourceLineStyle.Render(text))
		b.WriteString("\n")
		if i == d.Line {
			width := d.EndCol - d.StartCol
			if width < 1 {
				width = 1
			}
			b.WriteString(strings.Repeat(" ", 7+d.StartCol))
			b.WriteString(SourceMarkerStyle.Render(strings.Repeat("^", width)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint("↑/↓", "Auswahl"),
		RenderKeyHint("e/w/a", "Filter"),
		RenderKeyHint("g/G", "Anfang/Ende"),
	}
	if m.reload != nil {
		items = append(items, RenderKeyHint("r", "Neu prüfen"))
	}
	items = append(items, RenderKeyHint("q", "Beenden"))
	return HelpStyle.Render(strings.Join(items, "  "))
}

// load re-lints the file through the reload function
func (m Model) load() tea.Msg {
	lines, diags, err := m.reload()
	return diagnosticsLoadedMsg{lines: lines, diagnostics: diags, err: err}
}

func renderSeverity(s validator.Severity) string {
	if s == validator.SeverityError {
		return ErrorBadgeStyle.Render("error  ")
	}
	return WarningBadgeStyle.Render("warning")
}

func count(diags []validator.Diagnostic) (errs, warns int) {
	for _, d := range diags {
		if d.Severity == validator.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return errs, warns
}

// Run starts the diagnostics browser
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
