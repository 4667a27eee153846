// Package tui provides an interactive terminal review of upcoming bills.
package tui

import (
	"context"
	"fmt"

	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/reward"
	"github.com/billwise/billwise/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// State represents the current state of the TUI.
type State int

const (
	StateList State = iota
	StatePaying
)

// Config holds everything the review screen needs.
type Config struct {
	Storage service.Storage
	Engine  *reward.Engine
	UserID  string
}

// Model holds the review screen state.
type Model struct {
	ctx       context.Context
	storage   service.Storage
	engine    *reward.Engine
	lastError error
	userID    string
	status    string
	pending   []model.PendingBill
	tbl       table.Model
	keymap    KeyMap
	state     State
	height    int
	width     int
	showHelp  bool
	quitting  bool
}

func newModel(ctx context.Context, cfg Config) Model {
	columns := []table.Column{
		{Title: "Due", Width: 12},
		{Title: "Merchant", Width: 24},
		{Title: "Description", Width: 28},
		{Title: "Amount", Width: 10},
		{Title: "Status", Width: 8},
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	tbl.SetStyles(styles)

	return Model{
		ctx:     ctx,
		storage: cfg.Storage,
		engine:  cfg.Engine,
		userID:  cfg.UserID,
		keymap:  DefaultKeyMap(),
		state:   StateList,
		tbl:     tbl,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, m.loadPending())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keymap.Refresh):
			return m, m.loadPending()
		case key.Matches(msg, m.keymap.Pay):
			if m.state == StateList {
				if bill := m.selectedBill(); bill != nil && bill.Status == model.PendingStatusPending {
					m.state = StatePaying
					m.status = fmt.Sprintf("Paying %s...", bill.Merchant)
					return m, m.payBill(bill.ID)
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tbl.SetHeight(max(4, msg.Height-8))

	case pendingLoadedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.pending = msg.pending
		m.tbl.SetRows(m.rows())

	case billPaidMsg:
		m.state = StateList
		if msg.err != nil {
			m.lastError = msg.err
			m.status = ""
			return m, nil
		}
		m.lastError = nil
		s := msg.settlement
		m.status = fmt.Sprintf("Paid %s: +%d pts, +$%.2f cashback (balance %d pts)",
			s.PendingBill.Merchant, s.RewardEarned, s.CashbackEarned, s.TotalPoints)
		return m, m.loadPending()
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

// View renders the review screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := cli.FormatTitle("Upcoming Bills")
	body := m.tbl.View()

	var footer string
	switch {
	case m.lastError != nil:
		footer = cli.FormatError(m.lastError.Error())
	case m.status != "":
		footer = cli.FormatInfo(m.status)
	default:
		footer = cli.SubtleStyle.Render("p pay · r refresh · ? help · q quit")
	}

	if m.showHelp {
		footer += "\n" + cli.SubtleStyle.Render(
			"↑/k up · ↓/j down · p/Enter pay selected · r refresh · q quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, "", footer)
}

func (m Model) selectedBill() *model.PendingBill {
	idx := m.tbl.Cursor()
	if idx < 0 || idx >= len(m.pending) {
		return nil
	}
	return &m.pending[idx]
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.pending))
	for _, pb := range m.pending {
		rows = append(rows, table.Row{
			pb.NextPaymentDate.Format("2006-01-02"),
			pb.Merchant,
			pb.Description,
			fmt.Sprintf("%.2f", pb.NextAmount),
			string(pb.Status),
		})
	}
	return rows
}

func (m Model) loadPending() tea.Cmd {
	return func() tea.Msg {
		pending, err := m.storage.GetPendingBills(m.ctx, m.userID)
		return pendingLoadedMsg{pending: pending, err: err}
	}
}

func (m Model) payBill(id string) tea.Cmd {
	return func() tea.Msg {
		settlement, err := m.engine.Pay(m.ctx, id)
		return billPaidMsg{billID: id, settlement: settlement, err: err}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
