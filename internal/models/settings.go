package models

import (
	"fmt"
	"strconv"
	"strings"
)

// PresenceMode is HOME or AWAY; AWAY alerts as soon as the door is open.
type PresenceMode string

const (
	PresenceHome PresenceMode = "home"
	PresenceAway PresenceMode = "away"
)

// Settings holds the user-editable alert configuration.
type Settings struct {
	Presence           PresenceMode `json:"home_away" yaml:"home_away"`
	WindowAlertEnabled bool         `json:"alert_open_notify" yaml:"alert_open_notify"`
	WindowAlertMinutes uint         `json:"alert_open_minutes" yaml:"alert_open_minutes"`
	WindowStartHour    uint         `json:"alert_open_start" yaml:"alert_open_start"`
	WindowEndHour      uint         `json:"alert_open_end" yaml:"alert_open_end"`
	ForgottenEnabled   bool         `json:"forgot_open_notify" yaml:"forgot_open_notify"`
	ForgottenMinutes   uint         `json:"forgot_open_minutes" yaml:"forgot_open_minutes"`
}

// Default settings applied when the store cannot be read.
const (
	DefaultWindowAlertMinutes = 1
	DefaultWindowStartHour    = 23
	DefaultWindowEndHour      = 7
	DefaultForgottenMinutes   = 15
)

// settingsFieldCount is the number of values in the set_settings parameter list.
const settingsFieldCount = 7

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{
		Presence:           PresenceHome,
		WindowAlertEnabled: false,
		WindowAlertMinutes: DefaultWindowAlertMinutes,
		WindowStartHour:    DefaultWindowStartHour,
		WindowEndHour:      DefaultWindowEndHour,
		ForgottenEnabled:   false,
		ForgottenMinutes:   DefaultForgottenMinutes,
	}
}

// Validate checks the presence mode and hour ranges.
func (s Settings) Validate() error {
	switch s.Presence {
	case PresenceHome, PresenceAway:
	default:
		return fmt.Errorf("invalid presence mode %q: must be home or away", s.Presence)
	}
	if s.WindowStartHour > 23 {
		return fmt.Errorf("alert window start hour %d out of range 0-23", s.WindowStartHour)
	}
	if s.WindowEndHour > 23 {
		return fmt.Errorf("alert window end hour %d out of range 0-23", s.WindowEndHour)
	}
	return nil
}

// CSV renders the settings in set_settings parameter order.
func (s Settings) CSV() string {
	return strings.Join([]string{
		string(s.Presence),
		strconv.FormatBool(s.WindowAlertEnabled),
		strconv.FormatUint(uint64(s.WindowAlertMinutes), 10),
		strconv.FormatUint(uint64(s.WindowStartHour), 10),
		strconv.FormatUint(uint64(s.WindowEndHour), 10),
		strconv.FormatBool(s.ForgottenEnabled),
		strconv.FormatUint(uint64(s.ForgottenMinutes), 10),
	}, ",")
}

// ParseSettingsCSV parses the ordered list
// home_away,alert_open_notify,alert_open_minutes,alert_open_start,alert_open_end,forgot_open_notify,forgot_open_minutes.
func ParseSettingsCSV(raw string) (Settings, error) {
	raw = strings.ReplaceAll(raw, "%20", "")
	raw = strings.ReplaceAll(raw, " ", "")
	parts := strings.Split(strings.ToLower(raw), ",")
	if len(parts) != settingsFieldCount {
		return Settings{}, fmt.Errorf("%w: expected %d settings values, got %d", ErrProtocolMisuse, settingsFieldCount, len(parts))
	}

	var (
		s   Settings
		err error
	)
	s.Presence = PresenceMode(parts[0])
	if s.WindowAlertEnabled, err = strconv.ParseBool(parts[1]); err != nil {
		return Settings{}, fmt.Errorf("%w: alert_open_notify: %v", ErrProtocolMisuse, err)
	}
	if s.WindowAlertMinutes, err = parseUint(parts[2]); err != nil {
		return Settings{}, fmt.Errorf("%w: alert_open_minutes: %v", ErrProtocolMisuse, err)
	}
	if s.WindowStartHour, err = parseUint(parts[3]); err != nil {
		return Settings{}, fmt.Errorf("%w: alert_open_start: %v", ErrProtocolMisuse, err)
	}
	if s.WindowEndHour, err = parseUint(parts[4]); err != nil {
		return Settings{}, fmt.Errorf("%w: alert_open_end: %v", ErrProtocolMisuse, err)
	}
	if s.ForgottenEnabled, err = strconv.ParseBool(parts[5]); err != nil {
		return Settings{}, fmt.Errorf("%w: forgot_open_notify: %v", ErrProtocolMisuse, err)
	}
	if s.ForgottenMinutes, err = parseUint(parts[6]); err != nil {
		return Settings{}, fmt.Errorf("%w: forgot_open_minutes: %v", ErrProtocolMisuse, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrProtocolMisuse, err)
	}
	return s, nil
}

func parseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
