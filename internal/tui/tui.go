package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/victorzsh/blackjack-server/internal/client"
	"github.com/victorzsh/blackjack-server/internal/deck"
	"github.com/victorzsh/blackjack-server/internal/game"
	"github.com/victorzsh/blackjack-server/internal/server"
)

// Config holds the client run options
type Config struct {
	ServerURL  string
	PlayerName string
	RoomID     string // empty means create a fresh room
	Mode       int    // match length when creating a room
}

// Model is the Bubble Tea model for the interactive blackjack client
type Model struct {
	client *client.Client
	logger *log.Logger

	input    textinput.Model
	roomID   string
	playerID string
	name     string

	view    *game.PublicView // latest public snapshot
	gameLog []string
	lastErr string

	width    int
	quitting bool
}

// serverMsg wraps an inbound server message for the Bubble Tea loop
type serverMsg struct {
	msg *server.Message
}

// disconnectedMsg signals that the event stream closed
type disconnectedMsg struct{}

// Run connects to the server and drives the interactive client until the
// user quits or the connection drops.
func Run(cfg Config, logger *log.Logger) error {
	if os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	c := client.New(cfg.ServerURL, logger)

	roomID := cfg.RoomID
	if roomID == "" {
		created, err := c.CreateRoom(cfg.Mode)
		if err != nil {
			return err
		}
		roomID = created
	}

	if err := c.Connect(); err != nil {
		return err
	}
	defer func() { _ = c.Disconnect() }()

	if err := c.Join(roomID, cfg.PlayerName); err != nil {
		return err
	}

	m := newModel(c, roomID, cfg.PlayerName, logger)
	_, err := tea.NewProgram(m).Run()
	return err
}

func newModel(c *client.Client, roomID, name string, logger *log.Logger) *Model {
	ti := textinput.New()
	ti.Placeholder = "hit, stand, start, next, restart, quit"
	ti.Focus()
	ti.CharLimit = 32
	ti.Prompt = "> "

	return &Model{
		client: c,
		logger: logger.WithPrefix("tui"),
		input:  ti,
		roomID: roomID,
		name:   name,
	}
}

// Init starts listening for server events
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.nextEvent())
}

// nextEvent waits for one inbound server message
func (m *Model) nextEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.client.Events()
		if !ok {
			return disconnectedMsg{}
		}
		return serverMsg{msg: msg}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case disconnectedMsg:
		m.quitting = true
		return m, tea.Quit

	case serverMsg:
		m.applyServerMessage(msg.msg)
		return m, m.nextEvent()

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			cmd := m.runCommand(strings.TrimSpace(m.input.Value()))
			m.input.SetValue("")
			if cmd != nil {
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runCommand maps a typed command onto the wire protocol
func (m *Model) runCommand(command string) tea.Cmd {
	m.lastErr = ""

	var err error
	switch command {
	case "":
	case "hit", "h":
		err = m.client.Hit(m.roomID)
	case "stand", "s":
		err = m.client.Stand(m.roomID)
	case "start":
		err = m.client.StartGame(m.roomID)
	case "next", "n":
		err = m.client.StartNextRound(m.roomID)
	case "restart":
		err = m.client.RestartMatch(m.roomID)
	case "quit", "q":
		m.quitting = true
		return tea.Quit
	default:
		m.lastErr = fmt.Sprintf("unknown command: %s", command)
	}

	if err != nil {
		m.lastErr = err.Error()
	}
	return nil
}

// applyServerMessage folds one inbound message into the display state
func (m *Model) applyServerMessage(msg *server.Message) {
	switch msg.Type {
	case server.MessageTypeRoomJoined:
		var data server.RoomJoinedData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			m.playerID = data.PlayerID
			m.appendLog(fmt.Sprintf("joined room %s as %s", data.RoomID, data.PlayerName))
		}

	case server.MessageTypePublicUpdate:
		var view game.PublicView
		if err := json.Unmarshal(msg.Data, &view); err == nil {
			m.view = &view
		}

	case server.MessageTypeRoundResult:
		var result game.RoundResult
		if err := json.Unmarshal(msg.Data, &result); err == nil {
			m.appendLog(fmt.Sprintf("round won by %s with %d", result.PlayerName, result.Total))
		}

	case server.MessageTypeRoomError:
		var data server.RoomErrorData
		if err := json.Unmarshal(msg.Data, &data); err == nil {
			m.lastErr = data.Message
		}
	}
}

func (m *Model) appendLog(line string) {
	m.gameLog = append(m.gameLog, line)
	if len(m.gameLog) > 8 {
		m.gameLog = m.gameLog[len(m.gameLog)-8:]
	}
}

// View renders the table
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf(" blackjack · room %s ", m.roomID)))
	b.WriteString("\n\n")

	if m.view == nil {
		b.WriteString(InfoStyle.Render("waiting for the first update..."))
		b.WriteString("\n")
	} else {
		m.renderTable(&b)
	}

	if len(m.gameLog) > 0 {
		b.WriteString("\n")
		for _, line := range m.gameLog {
			b.WriteString(InfoStyle.Render(line))
			b.WriteString("\n")
		}
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	return b.String()
}

func (m *Model) renderTable(b *strings.Builder) {
	v := m.view

	if v.WinnerName != "" {
		b.WriteString(WinnerStyle.Render(fmt.Sprintf("match winner: %s", v.WinnerName)))
		b.WriteString("\n\n")
	}

	for _, p := range v.Players {
		marker := "  "
		if v.Active && p.ID == v.CurrentPlayerID {
			marker = TurnStyle.Render("▶ ")
		}

		name := p.Name
		if p.ID == m.playerID {
			name += " (you)"
		}

		status := ""
		switch {
		case p.Total > 21:
			status = ErrorStyle.Render(" bust")
		case p.Done:
			status = InfoStyle.Render(" done")
		}

		fmt.Fprintf(b, "%s%s %s = %d%s  wins: %d\n",
			marker,
			PlayerStyle.Render(name),
			renderHand(p.Hand),
			p.Total,
			status,
			v.Wins[p.ID],
		)
	}

	b.WriteString("\n")
	if v.Active {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("round in progress · first to %d wins", v.Mode)))
	} else {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("round over · first to %d wins · 'start' or 'next' to play", v.Mode)))
	}
	b.WriteString("\n")
}

func renderHand(hand []deck.Card) string {
	if len(hand) == 0 {
		return InfoStyle.Render("(no cards)")
	}

	parts := make([]string, len(hand))
	for i, c := range hand {
		if c.IsRed() {
			parts[i] = RedCardStyle.Render(c.String())
		} else {
			parts[i] = BlackCardStyle.Render(c.String())
		}
	}
	return strings.Join(parts, " ")
}
