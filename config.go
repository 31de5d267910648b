package estop

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPin is the BCM pin monitored when no pin is configured.
const DefaultPin = 4

const configFileName = ".estop_config.json"

// Config is the persisted controller configuration. The switch position
// is deliberately not part of it: hardware state is re-read, never stored.
type Config struct {
	Mode           Mode `json:"mode"`
	ManualOverride bool `json:"manual_override"`
	GPIOPin        int  `json:"gpio_pin"`
}

// DefaultConfig returns the configuration used when nothing valid is
// stored: normally-closed wiring, no override, DefaultPin.
func DefaultConfig() Config {
	return Config{Mode: ModeNC, ManualOverride: false, GPIOPin: DefaultPin}
}

// sanitize replaces invalid fields with their defaults, field by field, so
// one bad value in a stored file does not discard the rest.
func (c Config) sanitize() Config {
	if !c.Mode.valid() {
		c.Mode = ModeNC
	}
	if c.GPIOPin <= 0 {
		c.GPIOPin = DefaultPin
	}
	return c
}

// Store persists the controller configuration. Load must degrade rather
// than fail hard: implementations return DefaultConfig alongside any
// error so callers can log it and keep running.
type Store interface {
	Load() (Config, error)
	Save(Config) error
}

// DefaultConfigPath returns the config file in the user's home directory,
// falling back to the working directory when home cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, configFileName)
}

// FileStore keeps the configuration in a single JSON file, indented so it
// stays readable and editable by hand.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. An empty path selects
// DefaultConfigPath.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultConfigPath()
	}
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string { return s.path }

// Load reads the stored configuration. A missing file is the normal first
// run and yields plain defaults; an unreadable or malformed file yields
// defaults plus an advisory error. Unknown fields are ignored and invalid
// values fall back individually.
func (s *FileStore) Load() (Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("read config %s: %w", s.path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", s.path, err)
	}
	return cfg.sanitize(), nil
}

// Save writes the configuration, replacing the previous contents.
func (s *FileStore) Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}
	return nil
}

// MemStore keeps the configuration in memory. It backs tests and
// embedders that manage persistence themselves.
type MemStore struct {
	Cfg     Config
	LoadErr error // returned by Load when set
	SaveErr error // returned by Save when set
	Saves   int   // successful Save calls
}

// NewMemStore returns a MemStore seeded with DefaultConfig.
func NewMemStore() *MemStore {
	return &MemStore{Cfg: DefaultConfig()}
}

func (s *MemStore) Load() (Config, error) {
	if s.LoadErr != nil {
		return DefaultConfig(), s.LoadErr
	}
	return s.Cfg.sanitize(), nil
}

func (s *MemStore) Save(cfg Config) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Cfg = cfg
	s.Saves++
	return nil
}
