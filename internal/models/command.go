package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProtocolMisuse marks input that does not map to any known command.
var ErrProtocolMisuse = errors.New("protocol misuse")

// CommandKind tags a Command.
type CommandKind string

const (
	CommandTrigger     CommandKind = "trigger"
	CommandOpen        CommandKind = "open"
	CommandClose       CommandKind = "close"
	CommandGetState    CommandKind = "get_state"
	CommandSetSettings CommandKind = "set_settings"
	CommandSetTarget   CommandKind = "set_target"
	CommandUnknown     CommandKind = "unknown"
)

// Response texts.
const (
	RespOpening          = "opening"
	RespClosing          = "closing"
	RespAlreadyOpen      = "already open"
	RespAlreadyClosed    = "already closed"
	RespSettingsSaved    = "Settings saved"
	RespSettingsNotSaved = "Settings applied but not saved"
	RespTargetSaved      = "Target saved"
	RespTargetNotSaved   = "Target applied but not saved"
	RespUnknownCommand   = "unknown command"
)

const (
	setSettingsPrefix = "set_settings"
	firebasePrefix    = "firebase:"
	targetPrefix      = "target:"
)

// Command is a parsed request for the monitor loop.
type Command struct {
	Kind     CommandKind
	Settings Settings // CommandSetSettings only
	Target   string   // CommandSetTarget only
	Raw      string
	Err      error // why a CommandUnknown could not be parsed
}

// Response is what the monitor loop answers to a Command.
type Response struct {
	Text string `json:"text"`
}

// ParseCommand maps an action token from the command surface to a Command.
// Unrecognised or malformed input yields a CommandUnknown whose Err wraps ErrProtocolMisuse.
func ParseCommand(action string) Command {
	raw := action
	// drop the client's cache-buster if it arrived as part of the token
	if i := strings.Index(action, "?_="); i >= 0 {
		action = action[:i]
	}
	action = strings.TrimSpace(action)
	lower := strings.ToLower(action)

	switch lower {
	case "trigger":
		return Command{Kind: CommandTrigger, Raw: raw}
	case "open", "up":
		return Command{Kind: CommandOpen, Raw: raw}
	case "close", "down", "clothes":
		return Command{Kind: CommandClose, Raw: raw}
	case "get_state", "get_status", "get_settings":
		return Command{Kind: CommandGetState, Raw: raw}
	}

	switch {
	case strings.HasPrefix(lower, setSettingsPrefix):
		s, err := ParseSettingsCSV(lower[len(setSettingsPrefix):])
		if err != nil {
			return Command{Kind: CommandUnknown, Raw: raw, Err: err}
		}
		return Command{Kind: CommandSetSettings, Settings: s, Raw: raw}
	case strings.HasPrefix(lower, firebasePrefix):
		return parseTarget(raw, action[len(firebasePrefix):])
	case strings.HasPrefix(lower, targetPrefix):
		return parseTarget(raw, action[len(targetPrefix):])
	}

	return Command{Kind: CommandUnknown, Raw: raw, Err: fmt.Errorf("%w: unrecognised action %q", ErrProtocolMisuse, action)}
}

// target ids are opaque, so their case is preserved
func parseTarget(raw, target string) Command {
	target = strings.TrimSpace(target)
	if target == "" {
		return Command{Kind: CommandUnknown, Raw: raw, Err: fmt.Errorf("%w: empty notifier target", ErrProtocolMisuse)}
	}
	return Command{Kind: CommandSetTarget, Target: target, Raw: raw}
}
