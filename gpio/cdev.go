//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// chipCandidates are tried in order. Raspberry Pi 5 kernels before 6.6.47
// expose the 40-pin header on gpiochip4; everything else uses gpiochip0.
var chipCandidates = []string{"gpiochip4", "gpiochip0"}

// cdevPort drives a line through the Linux GPIO character device.
type cdevPort struct {
	mu     sync.Mutex
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	pin    int
	closed bool
}

func openCdev(pin int) (Port, error) {
	var firstErr error
	for _, name := range chipCandidates {
		chip, err := gpiocdev.NewChip(name)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("open %s: %w", name, err)
			}
			continue
		}

		// Input with pull-down: a closed switch circuit pulls the pin high.
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			chip.Close()
			if firstErr == nil {
				firstErr = fmt.Errorf("request pin %d on %s: %w", pin, name, err)
			}
			continue
		}

		return &cdevPort{chip: chip, line: line, pin: pin}, nil
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("no usable gpio chip")
	}
	return nil, firstErr
}

func (p *cdevPort) ReadLevel() Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Unavailable
	}
	v, err := p.line.Value()
	if err != nil {
		log.Printf("gpio: read pin %d: %v", p.pin, err)
		return Unavailable
	}
	if v == 0 {
		return Low
	}
	return High
}

func (p *cdevPort) Drive(level Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("gpio: pin %d is closed", p.pin)
	}
	if level != Low && level != High {
		return fmt.Errorf("gpio: cannot drive level %s", level)
	}
	if err := p.line.Reconfigure(gpiocdev.AsOutput(int(level))); err != nil {
		return fmt.Errorf("drive pin %d %s: %w", p.pin, level, err)
	}
	return nil
}

func (p *cdevPort) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

func (p *cdevPort) Driver() string { return "gpiocdev" }

// Close releases the line and chip. The BCM output register holds the last
// driven level after release, so a level set by Drive persists until
// something else claims the pin.
func (p *cdevPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", p.pin, err))
	}
	if err := p.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
