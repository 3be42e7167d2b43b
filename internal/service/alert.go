package service

import (
	"math"
	"time"

	"garage_door/internal/models"
)

// ShouldAlert reports whether an open door that has been open for elapsed
// should raise an alert at the given hour of day. It keeps no state; the
// caller owns the once-per-episode latch.
func ShouldAlert(s models.Settings, elapsed time.Duration, hour int) bool {
	return forgottenOpen(s, elapsed) || windowAlert(s, elapsed, hour)
}

// maxThresholdMinutes is the largest minute count a time.Duration can hold.
const maxThresholdMinutes = uint64(math.MaxInt64 / int64(time.Minute))

func forgottenOpen(s models.Settings, elapsed time.Duration) bool {
	return s.ForgottenEnabled && openLongerThan(elapsed, s.ForgottenMinutes)
}

func windowAlert(s models.Settings, elapsed time.Duration, hour int) bool {
	return s.WindowAlertEnabled &&
		openLongerThan(elapsed, s.WindowAlertMinutes) &&
		InAlertWindow(s.WindowStartHour, s.WindowEndHour, hour)
}

// openLongerThan reports elapsed > minutes. Thresholds past what a Duration
// can hold are never reached.
func openLongerThan(elapsed time.Duration, minutes uint) bool {
	if uint64(minutes) > maxThresholdMinutes {
		return false
	}
	return elapsed > time.Duration(minutes)*time.Minute
}

// InAlertWindow reports whether hour lies in [start, end], wrapping past
// midnight when start >= end.
func InAlertWindow(start, end uint, hour int) bool {
	if hour < 0 {
		return false
	}
	h := uint(hour)
	if start < end {
		return h >= start && h <= end
	}
	return h >= start || h <= end
}
