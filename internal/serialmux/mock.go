package serialmux

import (
	"bytes"
	"errors"
	"strings"
	"sync"
)

// TestablePort implements Porter with configurable behaviour for testing.
// It captures every command written to the port and, when a Respond hook is
// installed, plays the instrument's side of the exchange by queueing a reply
// line for each written command.
type TestablePort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// Respond, if set, is invoked with each newline-terminated command
	// written to the port (terminator stripped). When it reports true, the
	// returned string is queued as a reply line.
	Respond func(command string) (string, bool)

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// WriteCalls records the number of Write calls
	WriteCalls int
}

// NewTestablePort creates a new TestablePort for testing.
func NewTestablePort() *TestablePort {
	return &TestablePort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

// Read reads from the read buffer, optionally simulating errors.
func (t *TestablePort) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}

	return t.ReadBuffer.Read(p)
}

// Write records the written bytes and feeds complete commands to the
// Respond hook.
func (t *TestablePort) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}

	n, err = t.WriteBuffer.Write(p)
	if err != nil {
		return n, err
	}

	if t.Respond != nil {
		for _, command := range commandsIn(p) {
			if reply, ok := t.Respond(command); ok {
				t.ReadBuffer.WriteString(reply + "\r\n")
			}
		}
	}
	return n, nil
}

// Close marks the port as closed.
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	return t.CloseError
}

// Commands returns every newline-terminated command written so far with
// terminators stripped.
func (t *TestablePort) Commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return commandsIn(t.WriteBuffer.Bytes())
}

// Reset clears all buffers and resets state.
func (t *TestablePort) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Reset()
	t.WriteBuffer.Reset()
	t.WriteCalls = 0
	t.Closed = false
	t.ReadError = nil
	t.WriteError = nil
	t.CloseError = nil
}

func commandsIn(p []byte) []string {
	var out []string
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
