package midiin

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// PortSource listens on an OS MIDI input port.
type PortSource struct {
	name   string
	drv    *rtmididrv.Driver
	in     drivers.In
	stop   func()
	logger *slog.Logger
}

// ListPorts returns the names of the available MIDI input ports.
func ListPorts() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midiin: rtmididrv: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("midiin: list inputs: %w", err)
	}

	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// OpenPort connects to the first input whose name contains name, ignoring
// case. An empty name selects the first input. Messages are delivered to fn
// on the driver's goroutine.
func OpenPort(name string, fn Handler, logger *slog.Logger) (*PortSource, error) {
	if fn == nil {
		return nil, fmt.Errorf("midiin: handler must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midiin: rtmididrv: %w", err)
	}

	ins, err := drv.Ins()
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("midiin: list inputs: %w", err)
	}

	var found drivers.In
	for _, in := range ins {
		if containsFold(in.String(), name) {
			found = in
			break
		}
	}
	if found == nil {
		_ = drv.Close()
		return nil, fmt.Errorf("midiin: input %q not found", name)
	}

	if err := found.Open(); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("midiin: open %q: %w", found.String(), err)
	}

	s := &PortSource{name: found.String(), drv: drv, in: found, logger: logger}

	// The driver may reuse its buffer; handlers get their own copy.
	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		fn(slices.Clone(msg))
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("MIDI listener error, device likely disconnected", "device", s.name, "err", listenErr)
	}))
	if err != nil {
		_ = found.Close()
		_ = drv.Close()
		return nil, fmt.Errorf("midiin: listen %q: %w", s.name, err)
	}
	s.stop = stop

	logger.Info("MIDI input connected", "device", s.name)

	return s, nil
}

// Name returns the connected port name.
func (s *PortSource) Name() string { return s.name }

// Close stops listening and releases the driver.
func (s *PortSource) Close() error {
	s.logger.Info("closing MIDI connection", "device", s.name)
	if s.stop != nil {
		s.stop()
	}
	_ = s.in.Close()
	return s.drv.Close()
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
