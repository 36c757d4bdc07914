// Package serialmux provides exclusive request/response access to a
// line-oriented serial instrument. The lock-in amplifier answers query
// commands (suffixed "?") with exactly one line of text; all other commands
// produce no reply. A single mutex serializes every exchange so that at most
// one command is outstanding on the wire at a time.
package serialmux

import (
	"bufio"
	"fmt"
	"strings"
	"sync"
)

var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// Mux owns a serial port and mediates synchronous command/reply exchanges
// with the instrument. The port is singly owned: callers must not read from
// or write to the underlying port while the Mux is in use.
type Mux struct {
	port      Porter
	reader    *bufio.Reader
	commandMu sync.Mutex
}

// NewMux creates a Mux backed by the given port.
func NewMux(port Porter) *Mux {
	return &Mux{
		port:   port,
		reader: bufio.NewReader(port),
	}
}

// Command writes a single command to the instrument. A trailing newline is
// appended if the command does not already end with one.
func (m *Mux) Command(command string) error {
	m.commandMu.Lock()
	defer m.commandMu.Unlock()
	return m.write(command)
}

// Query writes a query command and reads back one line of reply text with
// the line terminator stripped. An unreadable or empty reply is a transport
// error.
func (m *Mux) Query(command string) (string, error) {
	m.commandMu.Lock()
	defer m.commandMu.Unlock()

	if err := m.write(command); err != nil {
		return "", err
	}

	line, err := m.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("no reply to %q: %w", command, err)
	}
	reply := strings.TrimRight(line, "\r\n")
	if reply == "" {
		return "", fmt.Errorf("empty reply to %q", command)
	}
	return reply, nil
}

func (m *Mux) write(command string) error {
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := m.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Close closes the underlying serial port.
func (m *Mux) Close() error {
	return m.port.Close()
}
