package models

import "time"

// DoorState is the position reported by the door contact.
type DoorState string

const (
	DoorOpen   DoorState = "open"
	DoorClosed DoorState = "closed"
)

// DoorStateFromContact maps the raw contact level to a door state (high = open).
func DoorStateFromContact(high bool) DoorState {
	if high {
		return DoorOpen
	}
	return DoorClosed
}

// Snapshot is the monitor's view of the door between ticks.
type Snapshot struct {
	State     DoorState `json:"state"`
	EnteredAt time.Time `json:"entered_at"`
	AlertSent bool      `json:"alert_sent"` // only ever true while State == DoorOpen
}

// Status is a read-only copy published by the monitor loop after every tick.
type Status struct {
	Name      string        `json:"name"`
	Snapshot  Snapshot      `json:"snapshot"`
	Settings  Settings      `json:"settings"`
	InState   time.Duration `json:"in_state_ns"`
	UpdatedAt time.Time     `json:"updated_at"`
}
