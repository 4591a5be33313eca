package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/mcparam/internal/discovery"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery  Screen = "discovery"
	ScreenConnecting Screen = "connecting"
	ScreenDashboard  Screen = "dashboard"
)

// DialFunc connects to a tuning server URL
type DialFunc func(ctx context.Context, url string) (Tuner, error)

// Config selects how the application starts
type Config struct {
	// Tuner, when set, is an open connection to URL and the application
	// starts on the dashboard.
	Tuner Tuner
	URL   string

	// Dial connects to servers picked on the discovery screen
	Dial    DialFunc
	Scanner *discovery.Scanner
}

type connectedMsg struct {
	url   string
	tuner Tuner
	err   error
}

// connectingKeyMap defines key bindings while a connection is attempted
type connectingKeyMap struct {
	Back key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k connectingKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k connectingKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Back, k.Quit}}
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	DashboardModel DashboardModel

	config     Config
	TargetURL  string
	LastError  error
	connecting bool

	Width  int
	Height int

	Help           help.Model
	ConnectingKeys connectingKeyMap
}

// NewAppModel creates the application model
func NewAppModel(cfg Config) AppModel {
	m := AppModel{
		config: cfg,
		Help:   help.New(),
		ConnectingKeys: connectingKeyMap{
			Back: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "back"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
	}

	if cfg.Tuner != nil {
		m.CurrentScreen = ScreenDashboard
		m.TargetURL = cfg.URL
		m.DashboardModel = NewDashboardModel(cfg.URL, cfg.Tuner)
	} else {
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(cfg.Scanner)
	}
	return m
}

// Init initializes the starting screen
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenDashboard:
		return m.DashboardModel.Init()
	default:
		return m.DiscoveryModel.Init()
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		d, _ := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = d.(DiscoveryModel)
		b, _ := m.DashboardModel.Update(msg)
		m.DashboardModel = b.(DashboardModel)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.DashboardModel.Close()
			return m, tea.Quit
		}

	case connectedMsg:
		return m.handleConnected(msg)
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		updated, cmd := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)

		if url := m.DiscoveryModel.Selected; url != "" {
			m.DiscoveryModel.Selected = ""
			return m.connect(url)
		}
		return m, cmd

	case ScreenConnecting:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.Matches(keyMsg, m.ConnectingKeys.Quit):
				return m, tea.Quit
			case key.Matches(keyMsg, m.ConnectingKeys.Back):
				m.connecting = false
				m.CurrentScreen = ScreenDiscovery
			}
		}
		return m, nil

	case ScreenDashboard:
		updated, cmd := m.DashboardModel.Update(msg)
		m.DashboardModel = updated.(DashboardModel)

		if m.DashboardModel.IsBackRequested() {
			return m.goBack()
		}
		return m, cmd
	}
	return m, nil
}

// connect dials url in the background
func (m AppModel) connect(url string) (tea.Model, tea.Cmd) {
	m.CurrentScreen = ScreenConnecting
	m.TargetURL = url
	m.LastError = nil
	m.connecting = true

	dial := m.config.Dial
	if dial == nil {
		m.LastError = fmt.Errorf("no way to connect to %s", url)
		m.connecting = false
		return m, nil
	}
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := dial(ctx, url)
		return connectedMsg{url: url, tuner: t, err: err}
	}
}

func (m AppModel) handleConnected(msg connectedMsg) (tea.Model, tea.Cmd) {
	if !m.connecting || msg.url != m.TargetURL {
		// The user gave up on this attempt
		if msg.tuner != nil {
			NewDashboardModel(msg.url, msg.tuner).Close()
		}
		return m, nil
	}
	m.connecting = false

	if msg.err != nil {
		m.LastError = msg.err
		return m, nil
	}

	m.CurrentScreen = ScreenDashboard
	m.DashboardModel = NewDashboardModel(msg.url, msg.tuner)
	m.DashboardModel.Width = m.Width
	m.DashboardModel.Height = m.Height
	return m, m.DashboardModel.Init()
}

// goBack leaves the dashboard for the discovery screen
func (m AppModel) goBack() (tea.Model, tea.Cmd) {
	m.DashboardModel.Close()
	m.CurrentScreen = ScreenDiscovery
	m.DiscoveryModel = NewDiscoveryModel(m.config.Scanner)
	m.DiscoveryModel.Width = m.Width
	m.DiscoveryModel.Height = m.Height
	return m, m.DiscoveryModel.Init()
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenConnecting:
		return m.renderConnecting()
	case ScreenDashboard:
		return m.DashboardModel.View()
	default:
		return "Unknown screen"
	}
}

func (m AppModel) renderConnecting() string {
	content := "\n" + RenderTitle("Connecting to "+m.TargetURL)
	if m.LastError != nil {
		content += "\n" + RenderError(m.LastError.Error())
	} else {
		content += "\n" + RenderSubtitle("  Waiting for the server...")
	}
	state := LinkConnecting
	if m.LastError != nil {
		state = LinkDown
	}
	return RenderApplicationContainer(content, Status{State: state, Target: m.TargetURL}, m.Help.View(m.ConnectingKeys), m.Width, m.Height)
}

// Run starts the full-screen application and blocks until it exits
func Run(cfg Config) error {
	p := tea.NewProgram(NewAppModel(cfg), tea.WithAltScreen())
	final, err := p.Run()
	if app, ok := final.(AppModel); ok && app.CurrentScreen == ScreenDashboard {
		app.DashboardModel.Close()
	}
	return err
}
