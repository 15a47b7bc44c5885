package models

import "time"

type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
)

// Notification is a fire-and-forget message for the vendor, the CLI analogue of a toast.
type Notification struct {
	Level         NotificationLevel
	Title         string
	Description   string
	Duration      time.Duration
	TransactionID string
}
