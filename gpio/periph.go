package gpio

import (
	"fmt"
	"sync"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	hostInitOnce sync.Once
	hostInitErr  error
)

// periphPort drives a line through periph.io's memory-mapped driver. It
// serves boards where the character device cannot be opened.
type periphPort struct {
	mu     sync.Mutex
	pin    pgpio.PinIO
	num    int
	closed bool
}

func openPeriph(pin int) (Port, error) {
	hostInitOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	if hostInitErr != nil {
		return nil, fmt.Errorf("periph host init: %w", hostInitErr)
	}

	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return nil, fmt.Errorf("no pin GPIO%d registered", pin)
	}
	// Pull-down to match the character device backend, so both read the
	// same levels from the same wiring.
	if err := p.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure GPIO%d as input: %w", pin, err)
	}
	return &periphPort{pin: p, num: pin}, nil
}

func (p *periphPort) ReadLevel() Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Unavailable
	}
	if p.pin.Read() == pgpio.High {
		return High
	}
	return Low
}

func (p *periphPort) Drive(level Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("gpio: pin %d is closed", p.num)
	}
	switch level {
	case Low:
		return p.pin.Out(pgpio.Low)
	case High:
		return p.pin.Out(pgpio.High)
	}
	return fmt.Errorf("gpio: cannot drive level %s", level)
}

func (p *periphPort) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

func (p *periphPort) Driver() string { return "periph" }

// Close stops this port from using the pin. periph pins are process-global
// with no per-request handle to release, so the output register keeps the
// last level Drive set.
func (p *periphPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
