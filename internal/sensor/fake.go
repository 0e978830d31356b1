package sensor

import "errors"

// FakeSource is a test double that returns scripted readings.
type FakeSource struct {
	// Frames contains scripted per-channel readings. Each call to
	// ReadAll() consumes the next frame; the last frame repeats once
	// the script is exhausted.
	Frames [][4]Reading

	// index tracks current position in Frames
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadAll()
	ReadError error
}

// NewFakeSource creates a FakeSource with the given frames.
func NewFakeSource(frames ...[4]Reading) *FakeSource {
	return &FakeSource{Frames: frames}
}

// ReadAll returns the next scripted frame.
func (f *FakeSource) ReadAll() ([4]Reading, error) {
	if f.ReadError != nil {
		return [4]Reading{}, f.ReadError
	}
	if len(f.Frames) == 0 {
		return [4]Reading{}, errors.New("no frames configured")
	}

	frame := f.Frames[f.index]
	if f.index < len(f.Frames)-1 {
		f.index++
	}
	return frame, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the script to the first frame.
func (f *FakeSource) Reset() {
	f.index = 0
	f.Closed = false
}

// Frame builds a frame with the same reading on every channel. Handy for
// tests that don't care about per-channel differences.
func Frame(r Reading) [4]Reading {
	return [4]Reading{r, r, r, r}
}
