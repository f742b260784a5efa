package model

import "time"

// NotificationLevel is the severity tag of a transient notification.
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// DefaultNotificationDuration applies when a notification has no explicit duration.
const DefaultNotificationDuration = 3 * time.Second

// Notification is a short-lived, user-facing message produced by a mutation.
type Notification struct {
	Message    string            `json:"message"`
	Level      NotificationLevel `json:"level"`
	DurationMS int64             `json:"durationMs"`
}

// NewNotification builds a notification with the given display duration.
func NewNotification(level NotificationLevel, message string, d time.Duration) Notification {
	if d <= 0 {
		d = DefaultNotificationDuration
	}
	return Notification{
		Message:    message,
		Level:      level,
		DurationMS: d.Milliseconds(),
	}
}

// Duration returns the display duration.
func (n Notification) Duration() time.Duration {
	return time.Duration(n.DurationMS) * time.Millisecond
}
