package gpio

// Fake is a test double that returns scripted levels.
type Fake struct {
	// Levels contains scripted values to return. Each call to ReadLevel
	// consumes the next entry; the last entry repeats once exhausted.
	Levels []Level

	// DriveCalls records every level passed to Drive, in order.
	DriveCalls []Level

	// DriveErr, if set, is returned by Drive (the call is still recorded).
	DriveErr error

	// Closed tracks whether Close was called.
	Closed bool

	// CloseCount counts Close calls.
	CloseCount int

	// Reads counts ReadLevel calls.
	Reads int

	// index tracks the current position in Levels.
	index int
}

// NewFake creates a Fake that plays back the given levels.
func NewFake(levels ...Level) *Fake {
	return &Fake{Levels: levels}
}

// ReadLevel returns the next scripted level, or Unavailable once closed
// or when no levels are scripted.
func (f *Fake) ReadLevel() Level {
	f.Reads++
	if f.Closed || len(f.Levels) == 0 {
		return Unavailable
	}
	l := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}
	return l
}

// Drive records the requested level.
func (f *Fake) Drive(level Level) error {
	f.DriveCalls = append(f.DriveCalls, level)
	return f.DriveErr
}

// Available reports true until Close is called.
func (f *Fake) Available() bool { return !f.Closed }

func (f *Fake) Driver() string { return "fake" }

// Close marks the fake as closed.
func (f *Fake) Close() error {
	f.Closed = true
	f.CloseCount++
	return nil
}

// Reset rewinds the script and reopens the fake.
func (f *Fake) Reset() {
	f.index = 0
	f.Closed = false
	f.CloseCount = 0
	f.Reads = 0
	f.DriveCalls = nil
}
