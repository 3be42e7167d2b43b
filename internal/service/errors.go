package service

import "errors"

// Failure classes of the monitor. Only ErrStartupFatal stops the process;
// the rest are logged and the loop moves on to its next tick.
var (
	ErrStartupFatal   = errors.New("startup failed")
	ErrSensorRead     = errors.New("sensor read failed")
	ErrPersistence    = errors.New("settings persistence failed")
	ErrCommandTimeout = errors.New("command timed out")
	ErrMonitorStopped = errors.New("monitor stopped")
)
