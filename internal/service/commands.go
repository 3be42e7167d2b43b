package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"garage_door/internal/models"

	"github.com/google/uuid"
)

// DefaultCommandTimeout bounds how long a submitter waits for the monitor loop.
const DefaultCommandTimeout = 10 * time.Second

// request is one command in flight.
type request struct {
	id    string
	cmd   models.Command
	reply chan models.Response // buffered(1): a late reply never blocks the loop
}

// CommandChannel is a single-slot rendezvous between request handlers and the
// monitor loop. At most one command is in flight; further submitters queue on
// the slot in arrival order.
type CommandChannel struct {
	slot      chan struct{}
	requests  chan *request
	done      chan struct{}
	closeOnce sync.Once
	timeout   time.Duration
}

// NewCommandChannel returns a channel whose submitters give up after timeout
// (DefaultCommandTimeout if timeout <= 0).
func NewCommandChannel(timeout time.Duration) *CommandChannel {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &CommandChannel{
		slot:     make(chan struct{}, 1),
		requests: make(chan *request),
		done:     make(chan struct{}),
		timeout:  timeout,
	}
}

// Submit blocks until the monitor loop has executed cmd and answered.
func (c *CommandChannel) Submit(ctx context.Context, cmd models.Command) (models.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// wait for our turn
	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return models.Response{}, waitError(ctx)
	case <-c.done:
		return models.Response{}, ErrMonitorStopped
	}
	defer func() { <-c.slot }()

	req := &request{
		id:    uuid.NewString(),
		cmd:   cmd,
		reply: make(chan models.Response, 1),
	}

	select {
	case c.requests <- req:
	case <-ctx.Done():
		return models.Response{}, waitError(ctx)
	case <-c.done:
		return models.Response{}, ErrMonitorStopped
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return models.Response{}, waitError(ctx)
	case <-c.done:
		return models.Response{}, ErrMonitorStopped
	}
}

// poll takes the pending command, if any, without blocking.
func (c *CommandChannel) poll() (*request, bool) {
	select {
	case req := <-c.requests:
		return req, true
	default:
		return nil, false
	}
}

// Close releases every waiting submitter with ErrMonitorStopped.
func (c *CommandChannel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func waitError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrCommandTimeout, ctx.Err())
	}
	return ctx.Err()
}
