package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/mcparam/internal/discovery"
)

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	endpoints []*discovery.Endpoint
	err       error
}

// discoveryKeyMap defines key bindings for the discovery screen
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// endpointItem wraps an Endpoint for use with bubbles/list
type endpointItem struct {
	endpoint *discovery.Endpoint
}

// FilterValue implements list.Item
func (e endpointItem) FilterValue() string {
	return e.endpoint.Instance + " " + e.endpoint.IP + " " + e.endpoint.Host
}

// endpointDelegate renders one discovered server as a card
type endpointDelegate struct {
	width int
}

func (d endpointDelegate) Height() int { return 5 }

func (d endpointDelegate) Spacing() int { return 1 }

func (d endpointDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d endpointDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(endpointItem)
	if !ok {
		return
	}
	ep := it.endpoint
	selected := index == m.Index()

	var content strings.Builder
	if selected {
		content.WriteString(SelectedMenuItemStyle.Render("→ " + ep.Instance))
	} else {
		content.WriteString("  " + ep.Instance)
	}
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("  URL:        %s\n", ep.URL()))

	params := ep.GetMetadata(discovery.TXTParams)
	if params == "" {
		params = "?"
	}
	content.WriteString(fmt.Sprintf("  Parameters: %s   Version: %s", params, ep.GetMetadata(discovery.TXTVersion)))

	cardWidth := d.width - 6
	if cardWidth < MinTerminalWidth-6 {
		cardWidth = MinTerminalWidth - 6
	}
	if cardWidth > MaxContentWidth-6 {
		cardWidth = MaxContentWidth - 6
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 2).
		MarginLeft(2).
		Width(cardWidth)
	if selected {
		cardStyle = cardStyle.BorderForeground(HighlightColor)
	}

	fmt.Fprint(w, cardStyle.Render(content.String()))
}

// DiscoveryModel finds tuning servers on the local network
type DiscoveryModel struct {
	Scanning     bool
	EndpointList list.Model
	Selected     string // URL chosen by the user
	Err          error

	ManualMode bool
	URLInput   textinput.Model

	scanner       *discovery.Scanner
	Width         int
	Height        int
	Spinner       spinner.Model
	ProgressBar   progress.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          discoveryKeyMap
}

// NewDiscoveryModel creates a new discovery screen model
func NewDiscoveryModel(scanner *discovery.Scanner) DiscoveryModel {
	if scanner == nil {
		scanner = discovery.NewScanner()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	urlInput := textinput.New()
	urlInput.Placeholder = "ws://192.168.4.1:14560/ws"
	urlInput.CharLimit = 128
	urlInput.Width = 40

	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.Width = 40

	endpoints := list.New([]list.Item{}, endpointDelegate{width: MinTerminalWidth}, 0, 0)
	endpoints.Title = "Tuning Servers"
	endpoints.SetShowStatusBar(false)
	endpoints.SetFilteringEnabled(true)
	endpoints.Styles.Title = TitleStyle

	return DiscoveryModel{
		EndpointList: endpoints,
		URLInput:     urlInput,
		scanner:      scanner,
		Spinner:      s,
		ProgressBar:  progressBar,
		Help:         help.New(),
		Keys: discoveryKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Enter: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "connect"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Manual: key.NewBinding(
				key.WithKeys("m"),
				key.WithHelp("m", "enter URL"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init starts scanning immediately
func (m DiscoveryModel) Init() tea.Cmd {
	return m.startScan()
}

func (m DiscoveryModel) startScan() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		scanEndpoints(m.scanner),
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		if m.EndpointList.FilterState() != list.Filtering {
			if model, cmd, handled := m.updateNormalMode(msg); handled {
				return model, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.EndpointList.SetDelegate(endpointDelegate{width: msg.Width})
		m.EndpointList.SetWidth(msg.Width - 4)
		m.EndpointList.SetHeight(msg.Height - 8)
		return m, nil

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.endpoints))
		for i, ep := range msg.endpoints {
			items[i] = endpointItem{endpoint: ep}
		}
		cmd = m.EndpointList.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.Scanning {
		m.EndpointList, cmd = m.EndpointList.Update(msg)
	}
	return m, cmd
}

// updateNormalMode handles the screen's own keys; list navigation falls through
func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.Keys.Enter):
		if it, ok := m.EndpointList.SelectedItem().(endpointItem); ok && !m.Scanning {
			m.Selected = it.endpoint.URL()
		}
		return m, nil, true

	case key.Matches(msg, m.Keys.Rescan):
		if m.Scanning {
			return m, nil, true
		}
		m.Err = nil
		cmd := m.EndpointList.SetItems(nil)
		return m, tea.Batch(cmd, m.startScan()), true

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.URLInput.SetValue("")
		m.URLInput.Focus()
		return m, textinput.Blink, true
	}
	return m, nil, false
}

// updateManualMode handles keyboard input while a URL is typed
func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil

	case "enter":
		if value := strings.TrimSpace(m.URLInput.Value()); value != "" {
			m.Selected = value
			m.ManualMode = false
			m.URLInput.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.URLInput, cmd = m.URLInput.Update(msg)
	return m, cmd
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	width := m.Width
	if width == 0 {
		width = MinTerminalWidth
	}

	var content string
	switch {
	case m.ManualMode:
		content = "\n" + RenderSubtitle("  Enter the server URL") + "\n\n  URL: " + m.URLInput.View() + "\n"
	case m.Scanning:
		content = m.renderScanning(width)
	default:
		content = m.renderResults()
	}

	return RenderApplicationContainer(content, Status{}, m.Help.View(m.Keys), m.Width, m.Height)
}

func (m DiscoveryModel) renderScanning(width int) string {
	elapsed := time.Since(m.ScanStartTime)
	timeout := m.scanner.Timeout
	if timeout <= 0 {
		timeout = discovery.DefaultScanTimeout
	}
	fraction := float64(elapsed) / float64(timeout)
	if fraction > 1 {
		fraction = 1
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR TUNING SERVERS"),
		SubtitleStyle.Render("Browsing "+discovery.ServiceType+" on the local network..."),
		"",
		m.ProgressBar.ViewAs(fraction),
		"",
		SubtitleStyle.Render(fmt.Sprintf("Elapsed: %ds", int(elapsed.Seconds()))),
	)
	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(RenderError(fmt.Sprintf("Scan failed: %v", m.Err)))
		b.WriteString("\n")
	case len(m.EndpointList.Items()) == 0:
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ No tuning servers found"))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check mcparam-server is running without --no-mdns\n")
		b.WriteString("    • Multicast DNS may be blocked on this network; press m to enter a URL\n")
	default:
		b.WriteString(m.EndpointList.View())
	}
	return b.String()
}

// scanEndpoints browses for servers until the scanner timeout
func scanEndpoints(scanner *discovery.Scanner) tea.Cmd {
	return func() tea.Msg {
		endpoints, err := scanner.Scan(context.Background())
		return scanCompleteMsg{endpoints: endpoints, err: err}
	}
}
