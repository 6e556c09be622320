package serialport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrNoPort is returned by Open when no port hint was given and no serial
// devices could be discovered on the host.
var ErrNoPort = errors.New("serialport: no serial port found; is the board connected?")

// Fixed line parameters the bootloader expects.
const (
	baudRate    = 115200
	readTimeout = 500 * time.Millisecond
)

// descriptionToken is preferred when auto-discovering a port: any device
// whose USB product description contains this (case-insensitively) is
// chosen over the first available port.
const descriptionToken = "tock"

// Transport owns a single open serial port for its lifetime. The zero value
// is not usable; construct one with Open.
type Transport struct {
	port serial.Port
	name string
}

// Open opens portHint if non-empty, otherwise discovers an attached serial
// device, preferring one whose USB description contains "tock". Both DTR
// and RTS are deasserted before the port is opened, since not every
// platform honors the library's initial line state.
func Open(portHint string) (*Transport, error) {
	name := portHint
	if name == "" {
		discovered, err := discoverPort()
		if err != nil {
			return nil, err
		}
		name = discovered
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		InitialStatusBits: &serial.ModemOutputBits{
			DTR: false,
			RTS: false,
		},
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %q: %w", name, err)
	}

	if err := port.SetDTR(false); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialport: deassert DTR on %q: %w", name, err)
	}
	if err := port.SetRTS(false); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialport: deassert RTS on %q: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialport: set read timeout on %q: %w", name, err)
	}

	return &Transport{port: port, name: name}, nil
}

func discoverPort() (string, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		for _, d := range details {
			if strings.Contains(strings.ToLower(d.Product), descriptionToken) {
				return d.Name, nil
			}
		}
		if len(details) > 0 {
			return details[0].Name, nil
		}
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("serialport: enumerate ports: %w", err)
	}
	if len(ports) == 0 {
		return "", ErrNoPort
	}
	return ports[0], nil
}

// Name returns the underlying device path or port name.
func (t *Transport) Name() string { return t.name }

// Write writes bytes to the port.
func (t *Transport) Write(p []byte) (int, error) { return t.port.Write(p) }

// Read reads bytes from the port, honoring the configured read timeout. A
// timed-out read may return fewer bytes than requested with a nil error,
// matching io.Reader's short-read convention.
func (t *Transport) Read(p []byte) (int, error) { return t.port.Read(p) }

// Close releases the underlying serial handle.
func (t *Transport) Close() error { return t.port.Close() }

// ToggleBootloaderEntry drives the exact DTR/RTS dance the target expects to
// reset into bootloader mode: DTR high (reset), RTS high (select
// bootloader), wait 100ms, DTR low (release reset), wait 500ms, RTS low.
func (t *Transport) ToggleBootloaderEntry() error {
	if err := t.port.SetDTR(true); err != nil {
		return fmt.Errorf("serialport: assert DTR: %w", err)
	}
	if err := t.port.SetRTS(true); err != nil {
		return fmt.Errorf("serialport: assert RTS: %w", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := t.port.SetDTR(false); err != nil {
		return fmt.Errorf("serialport: deassert DTR: %w", err)
	}
	time.Sleep(500 * time.Millisecond)

	if err := t.port.SetRTS(false); err != nil {
		return fmt.Errorf("serialport: deassert RTS: %w", err)
	}
	return nil
}

// ExitBootloader drives DTR high, RTS low, waits 100ms, then drives DTR low,
// resetting the target so it boots into the application instead.
func (t *Transport) ExitBootloader() error {
	if err := t.port.SetDTR(true); err != nil {
		return fmt.Errorf("serialport: assert DTR: %w", err)
	}
	if err := t.port.SetRTS(false); err != nil {
		return fmt.Errorf("serialport: deassert RTS: %w", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := t.port.SetDTR(false); err != nil {
		return fmt.Errorf("serialport: deassert DTR: %w", err)
	}
	return nil
}
