package gpio

import (
	"sync"
	"time"
)

// Simulator is a door without hardware. A relay pulse starts the door
// moving; the contact flips once the travel time has passed.
type Simulator struct {
	mu       sync.Mutex
	open     bool
	moving   bool
	arriveAt time.Time
	travel   time.Duration
	hold     time.Duration
	now      func() time.Time
}

// NewSimulator returns a simulated door in the given position.
func NewSimulator(open bool, travel, hold time.Duration) *Simulator {
	if travel < 0 {
		travel = 0
	}
	return &Simulator{
		open:   open,
		travel: travel,
		hold:   hold,
		now:    time.Now,
	}
}

// ReadContact advances the simulation and reports whether the door is open.
func (s *Simulator) ReadContact() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(s.now())
	return s.open, nil
}

// TriggerRelay holds the simulated relay, then sets the door in motion.
// A pulse while moving stops the door before it reaches the other end.
func (s *Simulator) TriggerRelay() error {
	time.Sleep(s.hold)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.advance(now)

	if s.moving {
		s.moving = false
		return nil
	}
	s.moving = true
	s.arriveAt = now.Add(s.travel)
	s.advance(now)
	return nil
}

func (s *Simulator) advance(now time.Time) {
	if s.moving && !now.Before(s.arriveAt) {
		s.open = !s.open
		s.moving = false
	}
}
