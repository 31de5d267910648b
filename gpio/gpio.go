// Package gpio provides single-pin GPIO access with hardware abstraction.
// The preferred implementation uses the Linux GPIO character device, with
// a periph.io backend and a no-hardware simulation as fallbacks.
// The fake implementation allows testing without hardware.
package gpio

import "log"

// Level is the electrical level of a pin. The integer values match what
// the character device reports for a line.
type Level int

const (
	// Low is a logical 0.
	Low Level = 0
	// High is a logical 1.
	High Level = 1
	// Unavailable means no level can be read: no hardware is bound, the
	// line has been closed, or the read failed.
	Unavailable Level = -1
)

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "unavailable"
	}
}

// Port is a single GPIO line, exclusively owned by its holder.
type Port interface {
	// ReadLevel returns the current electrical level. It never fails:
	// unbound hardware and transient read errors both read as Unavailable.
	ReadLevel() Level

	// Drive reconfigures the line as an output held at the given level.
	Drive(level Level) error

	// Available reports whether a physical line is currently bound.
	Available() bool

	// Driver names the backend serving this port.
	Driver() string

	// Close releases the line. Reads after Close return Unavailable; the
	// line is never reacquired.
	Close() error
}

// Open binds the pin using the best available backend: the Linux character
// device first, then periph.io, then simulation. It never fails; callers
// observe the outcome through Available and Driver rather than branching
// on the backend.
func Open(pin int) Port {
	if pin <= 0 {
		log.Printf("gpio: invalid pin %d, running in simulation mode", pin)
		return NewSim()
	}

	p, err := openCdev(pin)
	if err == nil {
		log.Printf("gpio: pin %d bound via %s", pin, p.Driver())
		return p
	}
	log.Printf("gpio: character device backend: %v", err)

	p, err = openPeriph(pin)
	if err == nil {
		log.Printf("gpio: pin %d bound via %s", pin, p.Driver())
		return p
	}
	log.Printf("gpio: periph backend: %v", err)

	log.Printf("gpio: no hardware for pin %d, running in simulation mode", pin)
	return NewSim()
}
