package serialmux

import (
	"time"

	"go.bug.st/serial"
)

// replyTimeout bounds how long a query waits for the instrument's reply.
const replyTimeout = 3 * time.Second

// Open creates a Mux backed by a real serial port at the given path using
// the provided serial options.
func Open(path string, opts PortOptions) (*Mux, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	if err := port.SetReadTimeout(replyTimeout); err != nil {
		port.Close()
		return nil, err
	}

	return NewMux(port), nil
}
