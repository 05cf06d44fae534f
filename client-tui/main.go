// goparley TUI client.  The protocol is plain lines, so the client is a thin
// terminal on top of it: server lines scroll in a panel, whatever the user
// types goes to the server verbatim.  The login dialogue needs no special
// handling; its prompts arrive as ordinary lines.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type netMsg struct {
	line string
	err  error
}

type localMsg struct {
	line string
}

var (
	directStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	privateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
	selfStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

type model struct {
	input textinput.Model

	conn   net.Conn
	events <-chan netMsg
	addr   string

	lines  []string
	width  int
	height int
}

func waitNet(ch <-chan netMsg) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return netMsg{err: io.EOF}
		}
		return ev
	}
}

func logLine(s string) tea.Cmd {
	return func() tea.Msg { return localMsg{line: s} }
}

func stamp() string {
	return time.Now().Format("15:04:05")
}

// render styles one server line by its display prefix.  Chat lines keep the
// default color so they stand out against the grey notice noise.
func render(line string) string {
	switch {
	case strings.HasPrefix(line, "[direct] "):
		return directStyle.Render(line)
	case strings.HasPrefix(line, "[private] "):
		return privateStyle.Render(line)
	case strings.HasPrefix(line, "[all] "):
		return line
	default:
		return noticeStyle.Render(line)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitNet(m.events), textinput.Blink)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			_ = m.conn.Close()
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "/quit" {
				_ = m.conn.Close()
				return m, tea.Quit
			}
			if _, err := m.conn.Write([]byte(line + "\n")); err != nil {
				return m, tea.Batch(logLine("send error: "+err.Error()), tea.Quit)
			}
			return m, logLine(selfStyle.Render("me: " + line))
		}
	case netMsg:
		if msg.err != nil {
			if msg.err == io.EOF {
				return m, tea.Batch(logLine("connection closed"), tea.Quit)
			}
			return m, tea.Batch(logLine("network error: "+msg.err.Error()), tea.Quit)
		}
		m.lines = append(m.lines, stamp()+" "+render(msg.line))
		return m, waitNet(m.events)
	case localMsg:
		m.lines = append(m.lines, stamp()+" "+msg.line)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	boxStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)

	header := headerStyle.Render("goparley") + "  " + noticeStyle.Render(m.addr)

	maxLines := m.height - 6
	if maxLines < 4 {
		maxLines = 4
	}
	start := 0
	if len(m.lines) > maxLines {
		start = len(m.lines) - maxLines
	}
	body := strings.Join(m.lines[start:], "\n")
	if body == "" {
		body = "Connecting. /help for commands once logged in."
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	panel := boxStyle.Width(width).Render(body)

	return header + "\n" + panel + "\n" + m.input.View()
}

func readLoop(conn net.Conn, ch chan<- netMsg) {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			ch <- netMsg{err: err}
			close(ch)
			return
		}
		ch <- netMsg{line: strings.TrimRight(line, "\r\n")}
	}
}

func main() {
	addr := flag.String("addr", "127.0.0.1:2323", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Printf("connect failed: %v\n", err)
		os.Exit(1)
	}

	events := make(chan netMsg, 16)
	go readLoop(conn, events)

	in := textinput.New()
	in.Placeholder = "Type message or /help"
	in.Focus()
	in.CharLimit = 2048
	in.Width = 80

	m := model{
		input:  in,
		conn:   conn,
		events: events,
		addr:   *addr,
		lines:  []string{stamp() + " connected to " + *addr},
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("tui failed: %v\n", err)
		_ = conn.Close()
		os.Exit(1)
	}
}
