// Package notify delivers door notifications to push services off the
// monitor loop.
package notify

import (
	"context"
	"errors"
	"time"

	"garage_door/internal/logger"
	"garage_door/internal/models"
)

const (
	DefaultQueueSize = 16
	DefaultTimeout   = 10 * time.Second
)

// ErrNotification wraps every delivery failure. Failures are logged, never retried.
var ErrNotification = errors.New("notification failed")

// Sender delivers one notification to one service.
type Sender interface {
	Name() string
	Send(ctx context.Context, n models.Notification) error
}

// Dispatcher queues notifications and hands them to every sender from a
// single worker, so a slow push service never stalls the caller.
type Dispatcher struct {
	senders []Sender
	queue   chan models.Notification
	timeout time.Duration
	log     *logger.Logger
}

// NewDispatcher returns a dispatcher; call Run to start delivering.
func NewDispatcher(log *logger.Logger, queueSize int, timeout time.Duration, senders ...Sender) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		senders: senders,
		queue:   make(chan models.Notification, queueSize),
		timeout: timeout,
		log:     log,
	}
}

// Notify enqueues n without blocking. A full queue drops it.
func (d *Dispatcher) Notify(_ context.Context, n models.Notification) {
	select {
	case d.queue <- n:
	default:
		d.log.Errorw("notification_dropped", "err", ErrNotification, "kind", n.Kind, "state", n.State, "reason", "queue full")
	}
}

// Run delivers queued notifications until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-d.queue:
			d.deliver(ctx, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n models.Notification) {
	for _, s := range d.senders {
		sctx, cancel := context.WithTimeout(ctx, d.timeout)
		err := s.Send(sctx, n)
		cancel()
		if err != nil {
			d.log.Errorw("notification_failed", "sender", s.Name(), "kind", n.Kind, "state", n.State, "err", err)
			continue
		}
		d.log.Infow("notification_sent", "sender", s.Name(), "kind", n.Kind, "name", n.DoorName, "state", n.State, "duration", n.DurationTx)
	}
}

// LogSender writes notifications to the log. It stands in when no push
// service is configured.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, n models.Notification) error {
	s.log.Infow("door_event", "kind", n.Kind, "name", n.DoorName, "state", n.State, "duration", n.DurationTx)
	return nil
}
