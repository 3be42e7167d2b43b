package gpio

import (
	"fmt"
	"sync"
	"time"

	"garage_door/internal/logger"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph drives a door contact (input, pulled up) and an opener relay
// (output, active low) through periph.io.
type Periph struct {
	sensor gpio.PinIO
	relay  gpio.PinIO
	hold   time.Duration
	mu     sync.Mutex // one pulse at a time
}

// OpenPeriph initialises the host drivers and claims the two BCM pins.
// The relay line is driven high (released) before returning.
func OpenPeriph(sensorPin, relayPin int, hold time.Duration, log *logger.Logger) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	sensor := gpioreg.ByName(fmt.Sprintf("GPIO%d", sensorPin))
	if sensor == nil {
		return nil, fmt.Errorf("%w: sensor GPIO%d", ErrNoPin, sensorPin)
	}
	relay := gpioreg.ByName(fmt.Sprintf("GPIO%d", relayPin))
	if relay == nil {
		return nil, fmt.Errorf("%w: relay GPIO%d", ErrNoPin, relayPin)
	}

	p, err := newPeriph(sensor, relay, RelayHold(hold))
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Infow("gpio_opened", "sensor", sensor.Name(), "relay", relay.Name(), "hold", p.hold)
	}
	return p, nil
}

func newPeriph(sensor, relay gpio.PinIO, hold time.Duration) (*Periph, error) {
	if err := sensor.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure sensor %s: %w", sensor.Name(), err)
	}
	if err := relay.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("configure relay %s: %w", relay.Name(), err)
	}
	return &Periph{sensor: sensor, relay: relay, hold: hold}, nil
}

// ReadContact reports the contact level; high means the door is open.
func (p *Periph) ReadContact() (bool, error) {
	return p.sensor.Read() == gpio.High, nil
}

// TriggerRelay pulls the relay line low for the hold time, then releases it.
func (p *Periph) TriggerRelay() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.relay.Out(gpio.Low); err != nil {
		return fmt.Errorf("relay %s low: %w", p.relay.Name(), err)
	}
	time.Sleep(p.hold)
	if err := p.relay.Out(gpio.High); err != nil {
		return fmt.Errorf("relay %s high: %w", p.relay.Name(), err)
	}
	return nil
}
