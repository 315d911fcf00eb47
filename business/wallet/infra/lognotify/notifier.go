// Package lognotify delivers user notifications to the application log.
package lognotify

import (
	"context"

	"github.com/fd1az/whitelist-sync/business/wallet/app"
	"github.com/fd1az/whitelist-sync/business/wallet/domain"
	"github.com/fd1az/whitelist-sync/internal/logger"
)

// Notifier logs notifications; used in CLI mode where there is no toast.
type Notifier struct {
	logger logger.LoggerInterface
}

var _ app.Notifier = (*Notifier)(nil)

// New creates a log notifier.
func New(log logger.LoggerInterface) *Notifier {
	return &Notifier{logger: log}
}

// Notify writes n at a level matching its severity.
func (n *Notifier) Notify(ctx context.Context, note domain.Notification) {
	switch note.Level {
	case domain.NotificationError:
		n.logger.Warnc(ctx, 1, note.Message, "notification", string(note.Level))
	default:
		n.logger.Infoc(ctx, 1, note.Message, "notification", string(note.Level))
	}
}
