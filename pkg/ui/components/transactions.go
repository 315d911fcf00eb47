package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// TransactionRow represents a tracked transaction in the list.
type TransactionRow struct {
	Hash        string
	Status      string
	BlockNumber uint64
	Submitted   string
}

// TransactionsComponent renders the tracked transactions, newest first.
type TransactionsComponent struct {
	rows    []TransactionRow
	maxRows int
}

// NewTransactionsComponent creates a new transactions component.
func NewTransactionsComponent(maxRows int) *TransactionsComponent {
	return &TransactionsComponent{
		rows:    make([]TransactionRow, 0),
		maxRows: maxRows,
	}
}

// Update replaces the list. rows are expected newest first.
func (t *TransactionsComponent) Update(rows []TransactionRow) {
	if len(rows) > t.maxRows {
		rows = rows[:t.maxRows]
	}
	t.rows = rows
}

// Len returns the number of displayed rows.
func (t *TransactionsComponent) Len() int {
	return len(t.rows)
}

// View renders the transactions component.
func (t *TransactionsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	if len(t.rows) == 0 {
		return headerStyle.Render("TRANSACTIONS") + "\nNo transactions submitted yet..."
	}

	acceptedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	rejectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	pendingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	result := headerStyle.Render(fmt.Sprintf("TRANSACTIONS (last %d)", t.maxRows)) + "\n"
	result += "┌──────────┬──────────────────┬─────────┬────────────┐\n"
	result += "│   Time   │       Hash       │  Block  │   Status   │\n"
	result += "├──────────┼──────────────────┼─────────┼────────────┤\n"

	for _, row := range t.rows {
		style := pendingStyle
		switch row.Status {
		case "accepted":
			style = acceptedStyle
		case "rejected":
			style = rejectedStyle
		}

		block := "-"
		if row.BlockNumber > 0 {
			block = fmt.Sprintf("%d", row.BlockNumber)
		}

		result += fmt.Sprintf("│ %8s │ %-16s │%8s │ %s │\n",
			row.Submitted,
			shorten(row.Hash),
			block,
			style.Render(fmt.Sprintf("%-10s", row.Status)),
		)
	}

	result += "└──────────┴──────────────────┴─────────┴────────────┘"
	return result
}

func shorten(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:8] + "…" + hash[len(hash)-6:]
}
