package domain

import "time"

// NotificationLevel is the severity of a user notification.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a transient, non-blocking user message.
type Notification struct {
	Level       NotificationLevel
	Message     string
	AutoDismiss time.Duration
}
