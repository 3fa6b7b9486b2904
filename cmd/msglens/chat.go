// Interactive chat interface built on bubbletea. The model owns only
// presentation state; every turn is delegated to the session engine.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"msglens/internal/session"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statusReady  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusBusy   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

type chatMessage struct {
	role    string // "user" or "assistant"
	content string
	time    time.Time
}

// Messages for tea updates
type (
	turnMsg  session.TurnResult
	errorMsg error
)

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	history   []chatMessage
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	sess       *session.Session
	zThreshold float64
}

func initChat(sess *session.Session, zThreshold float64) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Which messages do you want to see? (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 1024
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	m := chatModel{
		textinput:  ti,
		viewport:   vp,
		spinner:    sp,
		renderer:   renderer,
		sess:       sess,
		zThreshold: zThreshold,
	}
	m.history = append(m.history, chatMessage{
		role:    "assistant",
		content: sess.Banner(),
		time:    time.Now(),
	})
	return m
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.isLoading {
				return m.handleSubmit()
			}
		}
		if !m.isLoading {
			m.textinput, tiCmd = m.textinput.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 3
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-headerHeight-inputHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - headerHeight - inputHeight - footerHeight
		}
		m.textinput.Width = msg.Width - 4

		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-8),
		)
		m.viewport.SetContent(m.renderHistory())

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case turnMsg:
		m.isLoading = false
		result := session.TurnResult(msg)
		if result.Kind == session.KindExit {
			return m, tea.Quit
		}
		m.history = append(m.history, chatMessage{
			role:    "assistant",
			content: renderTurn(result, m.zThreshold),
			time:    time.Now(),
		})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case errorMsg:
		m.isLoading = false
		m.err = msg
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}

	m.history = append(m.history, chatMessage{
		role:    "user",
		content: input,
		time:    time.Now(),
	})
	m.textinput.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	m.isLoading = true

	return m, tea.Batch(
		m.spinner.Tick,
		m.processInput(input),
	)
}

// processInput runs one session turn off the UI thread.
func (m chatModel) processInput(input string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()
		return turnMsg(m.sess.HandleTurn(ctx, input))
	}
}

func (m chatModel) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.role {
		case "user":
			sb.WriteString(userStyle.Render("You: ") + msg.content + "\n")
		default:
			if m.renderer != nil {
				if rendered, err := m.renderer.Render(msg.content); err == nil {
					sb.WriteString(rendered)
					continue
				}
			}
			sb.WriteString(msg.content + "\n")
		}
	}
	return sb.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := headerStyle.Render(" msglens ")
	var status string
	if m.isLoading {
		status = statusBusy.Render("● Thinking")
	} else {
		status = statusReady.Render("● Ready")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", status)

	chatView := m.viewport.View()
	if m.isLoading {
		chatView += "\n" + m.spinner.View() + " Thinking..."
	}
	if m.err != nil {
		chatView += "\n" + errorStyle.Render("Error: "+m.err.Error())
	}

	inputArea := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Render(m.textinput.View())

	footer := mutedStyle.Render("Enter: send • 'reset': clear filters • 'exit' or Ctrl+C: quit")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		inputArea,
		footer,
	)
}

// runChat wires the dataset, oracle and session together and starts the TUI.
func runChat() error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}

	client, err := newOracleClient()
	if err != nil {
		return err
	}

	adapter := newAdapter(client, ds)
	sess := session.New(ds, adapter, cfg.Spike.ZThreshold, logger)

	program := tea.NewProgram(
		initChat(sess, cfg.Spike.ZThreshold),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	return nil
}
