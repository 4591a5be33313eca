package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/protocol"
	"github.com/muurk/mcparam/internal/ui"
)

// requestTimeout bounds every request the dashboard makes
const requestTimeout = 10 * time.Second

// Tuner is the subset of the tuning client the dashboard drives
type Tuner interface {
	List(ctx context.Context) ([]*protocol.ValueMessage, error)
	Describe(ctx context.Context, name string) (param.Definition, error)
	Set(ctx context.Context, name string, v param.Value) error
	Reset(ctx context.Context, name string) error
	Updates() <-chan *protocol.ValueMessage
}

// Message types for async operations
type paramsLoadedMsg struct {
	entries []entry
	err     error
}

type valueUpdateMsg struct {
	value *protocol.ValueMessage
}

type disconnectedMsg struct{}

type paramSetMsg struct {
	name  string
	reset bool
	err   error
}

// entry is one row of the dashboard
type entry struct {
	def     param.Definition
	value   param.Value
	state   param.State
	changes uint32
}

func (e *entry) apply(v *protocol.ValueMessage) {
	e.value = v.Value
	e.state = v.State
	e.changes = v.Changes
}

// dashboardKeyMap defines key bindings for browsing parameters
type dashboardKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Edit  key.Binding
	Reset key.Binding
	Back  key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Edit, k.Reset, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Edit, k.Reset},
		{k.Back, k.Quit},
	}
}

// editKeyMap defines key bindings while a value is being typed
type editKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k editKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k editKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// DashboardModel lists every parameter on a tuning server and edits them in place
type DashboardModel struct {
	URL   string
	tuner Tuner

	Entries []entry
	Cursor  int
	Offset  int // first visible row

	Loading      bool
	Editing      bool
	Input        textinput.Model
	Spinner      spinner.Model
	Status       string
	StatusErr    bool
	Err          error
	Disconnected bool

	BackRequested bool

	Width  int
	Height int

	Help     help.Model
	Keys     dashboardKeyMap
	EditKeys editKeyMap
}

// NewDashboardModel creates a dashboard for a connected tuner
func NewDashboardModel(url string, t Tuner) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.CharLimit = 32
	input.Width = 24
	input.PromptStyle = FocusedInputStyle

	return DashboardModel{
		URL:     url,
		tuner:   t,
		Loading: true,
		Input:   input,
		Spinner: s,
		Help:    help.New(),
		Keys: dashboardKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "down"),
			),
			Edit: key.NewBinding(
				key.WithKeys("enter", "e"),
				key.WithHelp("enter", "edit"),
			),
			Reset: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "reset to default"),
			),
			Back: key.NewBinding(
				key.WithKeys("esc", "b"),
				key.WithHelp("esc", "back"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
		EditKeys: editKeyMap{
			Confirm: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "apply"),
			),
			Cancel: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "cancel"),
			),
		},
	}
}

// Init loads the parameter list and starts listening for broadcasts
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		loadParams(m.tuner),
		waitForUpdate(m.tuner.Updates()),
	)
}

// IsBackRequested reports whether the user asked to leave the dashboard
func (m DashboardModel) IsBackRequested() bool {
	return m.BackRequested
}

// Close releases the tuner when it holds a connection
func (m DashboardModel) Close() {
	if c, ok := m.tuner.(io.Closer); ok {
		_ = c.Close()
	}
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.scrollToCursor()
		return m, nil

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case paramsLoadedMsg:
		m.Loading = false
		m.Err = msg.err
		if msg.err == nil {
			m.Entries = msg.entries
			m.Cursor = 0
			m.Offset = 0
		}
		return m, nil

	case valueUpdateMsg:
		for i := range m.Entries {
			if m.Entries[i].def.Name == msg.value.Name {
				m.Entries[i].apply(msg.value)
				break
			}
		}
		return m, waitForUpdate(m.tuner.Updates())

	case disconnectedMsg:
		m.Disconnected = true
		m.Editing = false
		m.setStatus("Connection to server lost", true)
		return m, nil

	case paramSetMsg:
		switch {
		case msg.err != nil:
			m.setStatus(fmt.Sprintf("%s: %s", msg.name, param.GetShortErrorMessage(msg.err)), true)
		case msg.reset:
			m.setStatus(fmt.Sprintf("✓ %s reset to default", msg.name), false)
		default:
			m.setStatus(fmt.Sprintf("✓ %s updated", msg.name), false)
		}
		return m, nil

	case tea.KeyMsg:
		if m.Editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

// updateBrowsing handles keys while moving through the list
func (m DashboardModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Back):
		m.BackRequested = true
		return m, nil

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		m.scrollToCursor()

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.Entries)-1 {
			m.Cursor++
		}
		m.scrollToCursor()

	case key.Matches(msg, m.Keys.Edit):
		e := m.selected()
		if e == nil || m.Disconnected {
			return m, nil
		}
		m.Editing = true
		m.Input.Prompt = e.def.Name + " = "
		m.Input.SetValue(e.value.String())
		m.Input.CursorEnd()
		m.Input.Focus()
		m.Status = ""
		return m, textinput.Blink

	case key.Matches(msg, m.Keys.Reset):
		e := m.selected()
		if e == nil || m.Disconnected {
			return m, nil
		}
		return m, resetParam(m.tuner, e.def.Name)
	}

	return m, nil
}

// updateEditing handles keys while the value input is focused
func (m DashboardModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.EditKeys.Cancel):
		m.Editing = false
		m.Input.Blur()
		return m, nil

	case key.Matches(msg, m.EditKeys.Confirm):
		e := m.selected()
		if e == nil {
			m.Editing = false
			return m, nil
		}
		v, err := e.def.ParseText(m.Input.Value())
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.Editing = false
		m.Input.Blur()
		return m, setParam(m.tuner, e.def.Name, v)
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m *DashboardModel) setStatus(text string, isErr bool) {
	m.Status = text
	m.StatusErr = isErr
}

func (m DashboardModel) selected() *entry {
	if m.Cursor < 0 || m.Cursor >= len(m.Entries) {
		return nil
	}
	return &m.Entries[m.Cursor]
}

// visibleRows is how many list rows fit between the header and the detail panel
func (m DashboardModel) visibleRows() int {
	rows := m.Height - 20
	if rows < 5 {
		rows = 5
	}
	return rows
}

func (m *DashboardModel) scrollToCursor() {
	rows := m.visibleRows()
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+rows {
		m.Offset = m.Cursor - rows + 1
	}
}

// View renders the dashboard
func (m DashboardModel) View() string {
	helpText := m.Help.View(m.Keys)
	if m.Editing {
		helpText = m.Help.View(m.EditKeys)
	}
	status := Status{State: LinkUp, Target: m.URL}
	if m.Disconnected {
		status.State = LinkDown
	}
	return RenderApplicationContainer(m.buildContent(), status, helpText, m.Width, m.Height)
}

func (m DashboardModel) buildContent() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Tuning " + m.URL))
	b.WriteString("\n")

	switch {
	case m.Loading:
		b.WriteString(SpinnerStyle.Render(m.Spinner.View() + " Loading parameters..."))
		return b.String()
	case m.Err != nil:
		b.WriteString(RenderError(fmt.Sprintf("Failed to load parameters: %v", m.Err)))
		return b.String()
	case len(m.Entries) == 0:
		b.WriteString(RenderSubtitle("The server has no parameters registered."))
		return b.String()
	}

	b.WriteString(m.renderList())
	b.WriteString("\n\n")
	b.WriteString(m.renderDetail())
	b.WriteString("\n")

	if m.Editing {
		b.WriteString("\n  ")
		b.WriteString(m.Input.View())
		b.WriteString("\n")
	}

	if m.Status != "" {
		style := StatusOKStyle
		if m.StatusErr {
			style = StatusErrorStyle
		}
		b.WriteString("\n  ")
		b.WriteString(style.Render(m.Status))
		b.WriteString("\n")
	}

	return b.String()
}

const rowFormat = "%-18s %-24s %-24s %-8s %7s"

func (m DashboardModel) renderList() string {
	lines := []string{ColumnHeaderStyle.Render("  " + fmt.Sprintf(rowFormat, "NAME", "VALUE", "DEFAULT", "UNIT", "CHANGES"))}

	end := m.Offset + m.visibleRows()
	if end > len(m.Entries) {
		end = len(m.Entries)
	}
	for i := m.Offset; i < end; i++ {
		e := m.Entries[i]
		name := e.def.Name
		if e.state == param.StateModified {
			name += " " + ui.ModifiedMarker
		}
		row := fmt.Sprintf(rowFormat,
			name,
			ui.FormatValue(e.def, e.value),
			ui.FormatValue(e.def, e.def.Default),
			e.def.Unit,
			fmt.Sprint(e.changes),
		)

		switch {
		case i == m.Cursor:
			lines = append(lines, CursorRowStyle.Render("→ "+row))
		case e.state == param.StateModified:
			lines = append(lines, ModifiedStyle.Render("  "+row))
		default:
			lines = append(lines, "  "+row)
		}
	}

	if len(m.Entries) > end-m.Offset {
		lines = append(lines, RenderSubtitle(fmt.Sprintf("  %d-%d of %d", m.Offset+1, end, len(m.Entries))))
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderDetail() string {
	e := m.selected()
	if e == nil {
		return ""
	}

	var lines []string
	title := e.def.Name
	if e.def.Short != "" {
		title += " - " + e.def.Short
	}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(title))
	if e.def.Long != "" {
		lines = append(lines, e.def.Long)
	}
	lines = append(lines, fmt.Sprintf("Type: %s   Range: %s   Group: %s", e.def.Type, ui.RangeText(e.def), e.def.Group))
	if e.def.IsSelector() {
		var opts []string
		for _, opt := range e.def.Options {
			opts = append(opts, fmt.Sprintf("%d=%s", opt.Value, opt.Label))
		}
		lines = append(lines, "Options: "+strings.Join(opts, ", "))
	}

	width := m.Width - 8
	if width < MinTerminalWidth-8 {
		width = MinTerminalWidth - 8
	}
	return DetailBoxStyle.Width(width).MarginLeft(2).Render(strings.Join(lines, "\n"))
}

// loadParams fetches every value and its description
func loadParams(t Tuner) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		values, err := t.List(ctx)
		if err != nil {
			return paramsLoadedMsg{err: err}
		}
		entries := make([]entry, 0, len(values))
		for _, v := range values {
			def, err := t.Describe(ctx, v.Name)
			if err != nil {
				return paramsLoadedMsg{err: fmt.Errorf("describe %s: %w", v.Name, err)}
			}
			e := entry{def: def}
			e.apply(v)
			entries = append(entries, e)
		}
		return paramsLoadedMsg{entries: entries}
	}
}

// waitForUpdate blocks on the broadcast channel for the next value
func waitForUpdate(ch <-chan *protocol.ValueMessage) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return disconnectedMsg{}
		}
		return valueUpdateMsg{value: v}
	}
}

func setParam(t Tuner, name string, v param.Value) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return paramSetMsg{name: name, err: t.Set(ctx, name, v)}
	}
}

func resetParam(t Tuner, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return paramSetMsg{name: name, reset: true, err: t.Reset(ctx, name)}
	}
}
