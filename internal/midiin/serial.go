package midiin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches common USB serial-to-MIDI bridges. DIN MIDI
// hardware runs at 31250.
const DefaultBaudRate = 115200

const readTimeout = 100 * time.Millisecond

// SerialSource reads raw MIDI bytes from a serial port.
type SerialSource struct {
	name   string
	port   serial.Port
	logger *slog.Logger
}

// OpenSerial opens the named serial device at baud.
func OpenSerial(name string, baud int, logger *slog.Logger) (*SerialSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if baud <= 0 {
		return nil, fmt.Errorf("midiin: baud rate must be > 0: %d", baud)
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("midiin: open serial %q: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("midiin: serial %q read timeout: %w", name, err)
	}

	logger.Info("serial MIDI opened", "device", name, "baud", baud)

	return &SerialSource{name: name, port: port, logger: logger}, nil
}

// SerialPorts lists the serial devices present on the system.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("midiin: list serial ports: %w", err)
	}
	return ports, nil
}

// Run decodes messages from the port into fn until ctx is done or the port
// fails.
func (s *SerialSource) Run(ctx context.Context, fn Handler) error {
	err := Stream(ctx, s.port, fn)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("serial MIDI stopped", "device", s.name, "err", err)
	}
	return err
}

// Close releases the port.
func (s *SerialSource) Close() error {
	s.logger.Info("serial MIDI closing", "device", s.name)
	return s.port.Close()
}

// Stream decodes r into fn until ctx is done, r is exhausted or a read
// fails. Reads returning no data are retried, which lets readers with a
// timeout observe ctx. Reaching EOF is not an error.
func Stream(ctx context.Context, r io.Reader, fn Handler) error {
	var p Parser
	buf := make([]byte, 256)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		p.Write(buf[:n], fn)

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("midiin: read: %w", err)
		}
	}
}
