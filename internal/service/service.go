package service

import (
	"context"
	"time"

	"garage_door/internal/models"
)

// Door is the I/O controller: one input line for the contact, one output line for the relay.
type Door interface {
	ReadContact() (bool, error)
	// TriggerRelay pulses the relay output and blocks for the whole pulse.
	TriggerRelay() error
}

// Notifier delivers push events. Implementations are fire-and-forget and log their own failures.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Commander hands a command to the monitor loop and waits for its response.
type Commander interface {
	Submit(ctx context.Context, cmd models.Command) (models.Response, error)
}

// Monitoring exposes the last status published by the monitor loop.
type Monitoring interface {
	Status() models.Status
}

// Runner runs the monitor loop until ctx is canceled.
type Runner interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates what the transport layer needs.
type Service struct {
	Commander
	Monitoring
	Runner
}

// NewService exposes a monitor and its command channel to the handlers.
func NewService(m *Monitor) *Service {
	return &Service{
		Commander:  m.commands,
		Monitoring: m,
		Runner:     m,
	}
}
