// Package gpio holds the door controllers: a periph.io driver for the
// Raspberry Pi header and a simulated door for running anywhere else.
package gpio

import (
	"errors"
	"time"
)

const (
	// MinRelayHold is the shortest relay pulse the opener reacts to reliably.
	MinRelayHold = 2 * time.Second

	DefaultSensorPin  = 4
	DefaultRelayPin   = 7
	DefaultTravelTime = 12 * time.Second
)

// ErrNoPin is returned when a configured BCM pin does not exist on the host.
var ErrNoPin = errors.New("gpio pin not found")

// RelayHold clamps d to MinRelayHold.
func RelayHold(d time.Duration) time.Duration {
	if d < MinRelayHold {
		return MinRelayHold
	}
	return d
}
