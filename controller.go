package estop

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mcrory/estop/gpio"
)

// settleDelay gives the driven safe level time to propagate through the
// external circuit before the line is released.
const settleDelay = 100 * time.Millisecond

// Option configures a Controller at construction.
type Option func(*options)

type options struct {
	pin     int
	pinSet  bool
	mode    Mode
	modeSet bool
	store   Store
	path    string
	port    gpio.Port
}

// WithPin binds the controller to a specific BCM pin, overriding the
// persisted pin number.
func WithPin(pin int) Option {
	return func(o *options) { o.pin = pin; o.pinSet = true }
}

// WithMode selects the wiring polarity for this run, overriding the
// persisted mode without rewriting it.
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m; o.modeSet = true }
}

// WithStore injects a configuration store. The default is a FileStore at
// DefaultConfigPath.
func WithStore(s Store) Option {
	return func(o *options) { o.store = s }
}

// WithConfigPath selects the JSON file backing the default store. Ignored
// when WithStore is also given.
func WithConfigPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithPort injects a GPIO port directly, bypassing backend negotiation.
// Tests use it with gpio.Fake; embedders use it to share a line.
func WithPort(p gpio.Port) Option {
	return func(o *options) { o.port = p }
}

// Controller is the single source of truth for the e-stop state. It owns
// the persisted configuration and one GPIO port, and combines the live
// hardware reading with the manual override.
//
// State and Status are safe to call from any goroutine, including a
// signal handler's. Activate, Reset, SetMode and Close are meant for one
// logical caller at a time.
type Controller struct {
	store Store
	port  gpio.Port
	board string

	mu     sync.Mutex
	cfg    Config
	closed bool
}

// New builds a controller. The persisted configuration is loaded first
// (defaulting on any load failure, which is logged, not returned), then
// explicit options override it, then the pin is bound through gpio.Open
// unless a port is injected. New never fails: a machine without usable
// GPIO hardware yields a controller running in simulation mode.
func New(opts ...Option) *Controller {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		store = NewFileStore(o.path)
	}

	cfg, err := store.Load()
	if err != nil {
		log.Printf("estop: using default config: %v", err)
	}
	if o.pinSet {
		cfg.GPIOPin = o.pin
	}
	if o.modeSet {
		cfg.Mode = o.mode
	}
	cfg = cfg.sanitize()

	port := o.port
	if port == nil {
		port = gpio.Open(cfg.GPIOPin)
	}

	return &Controller{
		store: store,
		port:  port,
		board: gpio.BoardModel(),
		cfg:   cfg,
	}
}

// State returns the authoritative e-stop state. An engaged manual
// override wins before any hardware access; otherwise the current level
// is read and resolved under the configured mode. State never fails and
// never touches persistence.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.ManualOverride {
		return StateActive
	}
	return Resolve(c.port.ReadLevel(), c.cfg.Mode)
}

// Status is a full snapshot of the controller, shaped for the CLI and any
// JSON consumer.
type Status struct {
	State          State  `json:"estop_state"`
	GPIOPin        int    `json:"gpio_pin"`
	GPIOActive     bool   `json:"gpio_active"`
	Mode           Mode   `json:"mode"`
	ManualOverride bool   `json:"manual_override"`
	GPIOAvailable  bool   `json:"gpio_available"`
	Driver         string `json:"driver"`
	Board          string `json:"board"`
}

// Status takes a single hardware reading and derives the whole snapshot
// from it, so the reported state and pin level always agree.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	level := c.port.ReadLevel()
	state := Resolve(level, c.cfg.Mode)
	if c.cfg.ManualOverride {
		state = StateActive
	}
	return Status{
		State:          state,
		GPIOPin:        c.cfg.GPIOPin,
		GPIOActive:     level == gpio.High,
		Mode:           c.cfg.Mode,
		ManualOverride: c.cfg.ManualOverride,
		GPIOAvailable:  c.port.Available(),
		Driver:         c.port.Driver(),
		Board:          c.board,
	}
}

// Activate engages the software override. The override takes effect in
// memory unconditionally; the returned error reports only a persistence
// failure, which never blocks the stop itself.
func (c *Controller) Activate() error {
	c.mu.Lock()
	c.cfg.ManualOverride = true
	cfg := c.cfg
	c.mu.Unlock()

	return c.save(cfg)
}

// Reset clears the software override and hands authority back to the
// hardware: if the switch still signals a stop, the state stays active.
// Reset never forces Inactive.
func (c *Controller) Reset() error {
	c.mu.Lock()
	c.cfg.ManualOverride = false
	cfg := c.cfg
	c.mu.Unlock()

	return c.save(cfg)
}

// SetMode switches the wiring polarity and persists it. The manual
// override is left untouched.
func (c *Controller) SetMode(mode Mode) error {
	if !mode.valid() {
		return fmt.Errorf("invalid mode %q (want %q or %q)", mode, ModeNC, ModeNO)
	}

	c.mu.Lock()
	c.cfg.Mode = mode
	cfg := c.cfg
	c.mu.Unlock()

	return c.save(cfg)
}

// save runs outside the controller mutex so State and Status never wait
// on disk. Mutating calls are serialized by the caller, which keeps the
// stored file in step with memory.
func (c *Controller) save(cfg Config) error {
	if err := c.store.Save(cfg); err != nil {
		log.Printf("estop: could not save config: %v", err)
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Close drives the pin to the mode's safe output level, lets it settle,
// and releases the hardware. Only the first call acts; a drive failure is
// logged but never prevents the release. After Close the port reads as
// unavailable, so the state degrades the same way as simulation mode.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	safe := c.cfg.Mode.SafeOutputLevel()
	if err := c.port.Drive(safe); err != nil {
		log.Printf("estop: could not drive safe level %s: %v", safe, err)
	} else if c.port.Available() {
		time.Sleep(settleDelay)
	}

	if err := c.port.Close(); err != nil {
		return fmt.Errorf("release gpio: %w", err)
	}
	return nil
}
