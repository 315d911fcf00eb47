// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is the wallet connection as shown in the status panel.
type ConnectionStatus struct {
	Address   string // empty when no account is selected
	Connected bool
	Provider  string
}

// StatusComponent renders the wallet connection.
type StatusComponent struct {
	status ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces the displayed connection.
func (s *StatusComponent) Update(status ConnectionStatus) {
	s.status = status
}

// Connected reports whether the displayed connection is established.
func (s *StatusComponent) Connected() bool {
	return s.status.Connected && s.status.Address != ""
}

// View renders the status component.
func (s *StatusComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	status := "● Connected"
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	if !s.Connected() {
		status = "○ Disconnected"
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	}

	account := s.status.Address
	if account == "" {
		account = "none"
	}
	provider := s.status.Provider
	if provider == "" {
		provider = "unavailable"
	}

	return headerStyle.Render("WALLET") + "\n" +
		fmt.Sprintf("├─ Status:   %s\n", style.Render(status)) +
		fmt.Sprintf("├─ Account:  %s\n", account) +
		fmt.Sprintf("└─ Provider: %s", mutedStyle.Render(provider))
}
