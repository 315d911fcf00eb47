package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// BlockInfo is the latest block as shown in the block panel.
type BlockInfo struct {
	Number     uint64
	Hash       string
	GasGwei    decimal.Decimal
	Timestamp  time.Time
	ObservedAt time.Time
	Known      bool
}

// BlockComponent renders the latest observed block.
type BlockComponent struct {
	info BlockInfo
	seen uint64
}

// NewBlockComponent creates a new block component.
func NewBlockComponent() *BlockComponent {
	return &BlockComponent{}
}

// Update replaces the displayed block. Repeated hashes are not counted.
func (b *BlockComponent) Update(info BlockInfo) {
	if info.Known && info.Hash != b.info.Hash {
		b.seen++
	}
	b.info = info
}

// Seen returns how many distinct blocks were displayed.
func (b *BlockComponent) Seen() uint64 {
	return b.seen
}

// View renders the block component.
func (b *BlockComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	if !b.info.Known {
		return headerStyle.Render("BLOCK") + "\n" + mutedStyle.Render("Waiting for first block...")
	}

	gas := "n/a"
	if !b.info.GasGwei.IsZero() {
		gas = b.info.GasGwei.StringFixed(2) + " gwei"
	}

	return headerStyle.Render("BLOCK") + "\n" +
		fmt.Sprintf("Number: %s  │  Hash: %s  │  Base fee: %s\n",
			valueStyle.Render(fmt.Sprintf("#%d", b.info.Number)),
			valueStyle.Render(b.info.Hash),
			valueStyle.Render(gas),
		) +
		mutedStyle.Render(fmt.Sprintf("Mined %s  │  observed %s ago  │  %d blocks seen",
			b.info.Timestamp.Format("15:04:05"),
			time.Since(b.info.ObservedAt).Round(time.Second),
			b.seen,
		))
}
