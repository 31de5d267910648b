package gpio

import "log"

// Sim is the no-hardware port. Every read is Unavailable and drives are
// logged no-ops, so callers degrade to simulation without special cases.
type Sim struct{}

// NewSim creates a simulated port bound to no hardware.
func NewSim() *Sim { return &Sim{} }

func (*Sim) ReadLevel() Level { return Unavailable }

func (*Sim) Drive(level Level) error {
	log.Printf("gpio: simulation mode, drive %s ignored", level)
	return nil
}

func (*Sim) Available() bool { return false }

func (*Sim) Driver() string { return "sim" }

func (*Sim) Close() error { return nil }
