package relay

// FakeDriver records relay commands for test assertions.
type FakeDriver struct {
	// Commands contains every Set call in order.
	Commands []Command

	// States holds the last commanded state per channel (index 0 = channel 1).
	States [4]bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// Command is one recorded Set call.
type Command struct {
	ID int
	On bool
}

// NewFakeDriver creates a FakeDriver for testing.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Set records the command.
func (f *FakeDriver) Set(id int, on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Commands = append(f.Commands, Command{ID: id, On: on})
	f.States[id-1] = on
	return nil
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}
