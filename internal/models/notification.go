package models

import "time"

// NotificationKind distinguishes silent app updates from user-facing alerts.
type NotificationKind string

const (
	NotifyData  NotificationKind = "data"
	NotifyAlert NotificationKind = "alert"
)

// Notification is a single push event produced by the monitor loop.
type Notification struct {
	DoorName   string           `json:"door_name"`
	State      DoorState        `json:"state"`
	Duration   time.Duration    `json:"-"`
	DurationTx string           `json:"duration"` // human readable, see service.FormatDuration
	Kind       NotificationKind `json:"kind"`
	Target     string           `json:"target"`
	OccurredAt time.Time        `json:"occurred_at"`
}
