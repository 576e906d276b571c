package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sitepilot/crm-backend/internal/application/consts"
	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/observer"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	logStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type logMsg []dto.LogEntryView

type errMsg struct{ err error }

type tickMsg time.Time

type model struct {
	client   *observer.Client
	orderID  uint64
	interval time.Duration

	spinner  spinner.Model
	entries  []dto.LogEntryView
	lastSeen uint64
	terminal *dto.LogEntryView
	err      error
}

func newModel(client *observer.Client, orderID uint64, interval time.Duration) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = activeStyle
	return model{client: client, orderID: orderID, interval: interval, spinner: s}
}

func (m model) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := m.client.ReadLog(ctx, m.orderID)
	if err != nil {
		return errMsg{err}
	}
	return logMsg(entries)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case logMsg:
		for _, entry := range msg {
			if entry.ID <= m.lastSeen {
				continue
			}
			m.lastSeen = entry.ID
			m.entries = append(m.entries, entry)
			if m.terminal == nil && observer.IsTerminal(entry) {
				terminal := entry
				m.terminal = &terminal
			}
		}
		if m.terminal != nil {
			return m, tea.Quit
		}
		return m, tick(m.interval)
	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	case tickMsg:
		return m, m.fetch
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// phaseStates derives a display state per phase from the log alone: one
// entry seen means the phase started, two means it finished.
func (m model) phaseStates() map[consts.DeliverableType]int {
	counts := make(map[consts.DeliverableType]int)
	for _, entry := range m.entries {
		counts[consts.DeliverableType(entry.Step)]++
	}
	return counts
}

func (m model) View() string {
	var b []byte
	b = append(b, titleStyle.Render(fmt.Sprintf("Order #%d: site generation", m.orderID))...)
	b = append(b, '\n', '\n')

	counts := m.phaseStates()
	for _, phase := range consts.GenerationPhases {
		switch {
		case counts[phase] >= 2:
			b = append(b, doneStyle.Render("  ✓ "+string(phase))...)
		case counts[phase] == 1 && m.terminal == nil:
			b = append(b, activeStyle.Render("  "+m.spinner.View()+" "+string(phase))...)
		default:
			b = append(b, pendingStyle.Render("  · "+string(phase))...)
		}
		b = append(b, '\n')
	}
	b = append(b, '\n')

	tail := m.entries
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	for _, entry := range tail {
		line := fmt.Sprintf("%s  [%s/%s] %s", entry.CreatedAt.Format("15:04:05"), entry.Step, entry.Status, entry.Message)
		b = append(b, logStyle.Render(line)...)
		b = append(b, '\n')
	}

	if m.err != nil {
		b = append(b, errorStyle.Render("error: "+m.err.Error())...)
		b = append(b, '\n')
	}
	if m.terminal != nil {
		if m.terminal.Step == consts.LogStepError || m.terminal.Status == string(consts.LogStatusError) {
			b = append(b, errorStyle.Render("generation failed: "+m.terminal.Message)...)
		} else {
			b = append(b, doneStyle.Render("generation finished, order is in review")...)
		}
		b = append(b, '\n')
	}
	return string(b)
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "CRM backend base URL")
	order := flag.Uint64("order", 0, "order id to watch")
	token := flag.String("token", os.Getenv("CRM_TOKEN"), "bearer token")
	interval := flag.Duration("interval", observer.DefaultInterval, "poll interval")
	flag.Parse()

	if *order == 0 {
		fmt.Fprintln(os.Stderr, "usage: orderwatch -order <id> [-addr url] [-token t]")
		os.Exit(2)
	}

	client := observer.NewClient(*addr, *token)
	p := tea.NewProgram(newModel(client, *order, *interval))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
