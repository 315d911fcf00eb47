package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	walletdomain "github.com/fd1az/whitelist-sync/business/wallet/domain"
)

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Relay is a Sender whose program is attached after construction.
// Messages sent before Attach are dropped.
type Relay struct {
	mu     sync.RWMutex
	target Sender
}

// NewRelay creates an unattached relay.
func NewRelay() *Relay {
	return &Relay{}
}

// Attach routes subsequent messages to target.
func (r *Relay) Attach(target Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
}

// Send forwards msg to the attached program, if any.
func (r *Relay) Send(msg tea.Msg) {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()

	if target != nil {
		target.Send(msg)
	}
}

// ToastNotifier shows notifications as dashboard toasts.
type ToastNotifier struct {
	sender Sender
}

// NewToastNotifier creates a notifier that sends ToastMsg through sender.
func NewToastNotifier(sender Sender) *ToastNotifier {
	return &ToastNotifier{sender: sender}
}

// Notify sends n as a toast; it dismisses itself after n.AutoDismiss.
func (t *ToastNotifier) Notify(_ context.Context, n walletdomain.Notification) {
	t.sender.Send(ToastMsg{Notification: n})
}
