// Package estop manages a single emergency-stop switch wired to a GPIO pin.
// It reads the electrical level of the pin, interprets it under the
// configured wiring polarity (normally closed or normally open), combines
// it with a software override into one authoritative state, and guarantees
// the pin is left at the safe output level on every shutdown path.
//
// Hardware access lives in the gpio package; this package holds the pure
// interpretation logic, the controller, and the shutdown guard.
package estop

import (
	"fmt"
	"strings"

	"github.com/mcrory/estop/gpio"
)

// Mode is the wiring polarity of the switch circuit.
type Mode string

const (
	// ModeNC is normally-closed wiring: the circuit is closed at rest and
	// opening it signals a stop. The default, since a broken wire then
	// reads as a stop rather than as all-clear.
	ModeNC Mode = "nc"
	// ModeNO is normally-open wiring: the circuit is open at rest and
	// closing it signals a stop.
	ModeNO Mode = "no"
)

// ParseMode validates a wiring mode string. Anything but "nc" or "no" is
// rejected here, before it can reach the controller.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeNC:
		return ModeNC, nil
	case ModeNO:
		return ModeNO, nil
	}
	return "", fmt.Errorf("invalid mode %q (want %q or %q)", s, ModeNC, ModeNO)
}

func (m Mode) valid() bool { return m == ModeNC || m == ModeNO }

// Description returns the human-readable wiring name shown by the CLI.
func (m Mode) Description() string {
	if m == ModeNC {
		return "Normally Closed (safer)"
	}
	return "Normally Open"
}

// RestingLevel is the electrical level the pin sits at while the switch is
// in its resting position. Unavailable hardware is read as resting.
func (m Mode) RestingLevel() gpio.Level {
	if m == ModeNC {
		return gpio.High
	}
	return gpio.Low
}

// SafeOutputLevel is the level an external safety circuit reads as "stop".
// Every shutdown path drives the pin to this level.
func (m Mode) SafeOutputLevel() gpio.Level {
	if m == ModeNC {
		return gpio.Low
	}
	return gpio.High
}

// State is the authoritative e-stop state.
type State string

const (
	// StateActive means the stop condition is engaged.
	StateActive State = "active"
	// StateInactive means the stop condition is not engaged.
	StateInactive State = "inactive"
)

// Switch is the physical position of the switch contact. It is derived
// from the electrical level and never persisted.
type Switch string

const (
	SwitchOpen   Switch = "open"
	SwitchClosed Switch = "closed"
)

// SwitchPosition maps an electrical level to the contact position: a
// closed circuit pulls the pin high, an open one lets the pull-down take
// it low. The mapping does not depend on the wiring mode.
func SwitchPosition(level gpio.Level) Switch {
	if level == gpio.High {
		return SwitchClosed
	}
	return SwitchOpen
}

// Resolve interprets an electrical level under a wiring mode. It is total
// over all inputs: Unavailable reads as the mode's resting level, so a
// machine without hardware resolves to Inactive until an override engages.
func Resolve(level gpio.Level, mode Mode) State {
	if level == gpio.Unavailable {
		level = mode.RestingLevel()
	}
	sw := SwitchPosition(level)
	if mode == ModeNO {
		if sw == SwitchClosed {
			return StateActive
		}
		return StateInactive
	}
	// Normally closed: an open circuit is the stop condition.
	if sw == SwitchOpen {
		return StateActive
	}
	return StateInactive
}
