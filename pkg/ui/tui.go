package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/pkg/ui/components"
)

// DefaultToastDuration is used when a notification has no auto-dismiss delay.
const DefaultToastDuration = 2 * time.Second

const maxTransactionRows = 8

// Action names carried by ActionDoneMsg.
const (
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
	ActionCheck      = "check"
	ActionRegister   = "register"
)

// Actions are the user actions the dashboard exposes.
// *whitelist/app.Dashboard satisfies it.
type Actions interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context)
	CheckWhitelisted(ctx context.Context) error
	Register(ctx context.Context) (common.Hash, error)
}

// Options configures the static parts of the dashboard.
type Options struct {
	Controller  string
	ExplorerURL string
	Version     string
}

type toast struct {
	id    int
	level walletdomain.NotificationLevel
	text  string
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctx     context.Context
	actions Actions
	opts    Options

	// Components
	status       *components.StatusComponent
	block        *components.BlockComponent
	whitelist    *components.WhitelistComponent
	transactions *components.TransactionsComponent

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	// State
	width       int
	quitting    bool
	spinning    bool
	loading     bool
	whitelisted bool
	busy        string // action in progress
	actionErr   string
	toast       *toast
	toastSeq    int
}

// New creates a new TUI model. Actions run with ctx.
func New(ctx context.Context, actions Actions, opts Options) Model {
	return Model{
		ctx:          ctx,
		actions:      actions,
		opts:         opts,
		status:       components.NewStatusComponent(),
		block:        components.NewBlockComponent(),
		whitelist:    components.NewWhitelistComponent(opts.Controller, opts.ExplorerURL),
		transactions: components.NewTransactionsComponent(maxTransactionRows),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case ConnectionMsg:
		m.status.Update(connectionStatus(msg.State))

	case BlockMsg:
		m.block.Update(blockInfo(msg.Block))

	case WhitelistMsg:
		m.loading = msg.State.IsLoading
		m.whitelisted = msg.State.IsWhitelisted
		m.whitelist.Update(whitelistInfo(msg.State))
		cmd := m.startSpinner()
		return m, cmd

	case TransactionsMsg:
		m.transactions.Update(transactionRows(msg.Transactions))

	case ToastMsg:
		m.toastSeq++
		m.toast = &toast{id: m.toastSeq, level: msg.Notification.Level, text: msg.Notification.Message}
		return m, dismissAfter(m.toastSeq, msg.Notification.AutoDismiss)

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}

	case ActionDoneMsg:
		m.busy = ""
		m.actionErr = ""
		if msg.Err != nil {
			m.actionErr = msg.Action + ": " + msg.Err.Error()
		}

	case spinner.TickMsg:
		if !m.loading && m.busy == "" {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	// one user action at a time
	if m.busy != "" || m.actions == nil {
		return m, nil
	}
	actions := m.actions

	switch {
	case key.Matches(msg, m.keys.Connect):
		return m.run(ActionConnect, func(ctx context.Context) ActionDoneMsg {
			return ActionDoneMsg{Err: actions.Connect(ctx)}
		})
	case key.Matches(msg, m.keys.Disconnect):
		return m.run(ActionDisconnect, func(ctx context.Context) ActionDoneMsg {
			actions.Disconnect(ctx)
			return ActionDoneMsg{}
		})
	case key.Matches(msg, m.keys.Check):
		return m.run(ActionCheck, func(ctx context.Context) ActionDoneMsg {
			return ActionDoneMsg{Err: actions.CheckWhitelisted(ctx)}
		})
	case key.Matches(msg, m.keys.Register):
		if m.whitelisted {
			return m, nil
		}
		return m.run(ActionRegister, func(ctx context.Context) ActionDoneMsg {
			hash, err := actions.Register(ctx)
			return ActionDoneMsg{Hash: hash, Err: err}
		})
	}

	return m, nil
}

// run marks name as in progress and executes fn off the update loop.
func (m Model) run(name string, fn func(ctx context.Context) ActionDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = name
	ctx := m.ctx

	action := func() tea.Msg {
		done := fn(ctx)
		done.Action = name
		return done
	}
	spin := m.startSpinner()
	return m, tea.Batch(action, spin)
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning || (!m.loading && m.busy == "") {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func dismissAfter(id int, d time.Duration) tea.Cmd {
	if d <= 0 {
		d = DefaultToastDuration
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Whitelist Registration "))
	if m.opts.Version != "" {
		b.WriteString(MutedValue.Render(" " + m.opts.Version))
	}
	b.WriteString("\n\n")

	if m.toast != nil {
		b.WriteString(toastStyle(m.toast.level).Render(m.toast.text))
		b.WriteString("\n\n")
	}

	leftCol := m.status.View() + "\n\n" + m.whitelist.View(m.spinner.View())
	rightCol := m.block.View() + "\n\n" + m.transactions.View()

	// Side by side if enough width
	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := max(m.width-4, 0)
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")

	if m.busy != "" {
		b.WriteString(m.spinner.View() + " " + MutedValue.Render(m.busy+"..."))
		b.WriteString("\n")
	}
	if m.actionErr != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(ColorDanger).Render("  • " + m.actionErr))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func toastStyle(level walletdomain.NotificationLevel) lipgloss.Style {
	switch level {
	case walletdomain.NotificationSuccess:
		return ToastSuccess
	case walletdomain.NotificationError:
		return ToastError
	default:
		return ToastInfo
	}
}

// NewProgram wraps m in a full-screen Bubble Tea program.
func NewProgram(m Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}
