package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// WhitelistInfo is the registration flow as shown in the whitelist panel.
type WhitelistInfo struct {
	Whitelisted bool
	FreeSlots   int64 // negative when not fetched
	Loading     bool
	LastError   string
	LastTx      string
}

// WhitelistComponent renders the registration flow.
type WhitelistComponent struct {
	info       WhitelistInfo
	controller string
	explorer   string
}

// NewWhitelistComponent creates a new whitelist component. explorer is the
// block explorer base URL used to link the contract and submitted txs.
func NewWhitelistComponent(controller, explorer string) *WhitelistComponent {
	return &WhitelistComponent{
		controller: controller,
		explorer:   strings.TrimRight(explorer, "/"),
	}
}

// Update replaces the displayed flow state.
func (w *WhitelistComponent) Update(info WhitelistInfo) {
	w.info = info
}

// View renders the whitelist component. spinner is shown while loading.
func (w *WhitelistComponent) View(spinner string) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("WHITELIST"))
	if w.info.Loading {
		sb.WriteString(" " + spinner)
	}
	sb.WriteString("\n")

	status := warnStyle.Render("✗ Not whitelisted")
	if w.info.Whitelisted {
		status = successStyle.Render("✓ Whitelisted")
	}
	sb.WriteString(fmt.Sprintf("├─ Status:     %s\n", status))

	slots := "-"
	if w.info.FreeSlots >= 0 {
		slots = fmt.Sprintf("%d", w.info.FreeSlots)
	}
	sb.WriteString(fmt.Sprintf("├─ Free slots: %s\n", slots))

	if w.info.LastTx != "" {
		sb.WriteString(fmt.Sprintf("├─ Last tx:    %s\n", w.link("tx", w.info.LastTx)))
	}
	sb.WriteString(fmt.Sprintf("└─ Contract:   %s", mutedStyle.Render(w.link("address", w.controller))))

	if w.info.LastError != "" {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render("  • " + w.info.LastError))
	}

	return sb.String()
}

func (w *WhitelistComponent) link(kind, id string) string {
	if w.explorer == "" || id == "" {
		return id
	}
	return fmt.Sprintf("%s/%s/%s", w.explorer, kind, id)
}
