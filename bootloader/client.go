package bootloader

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/tock/tockloader-go/internal/frame"
)

// State is one position in the Client's connection lifecycle.
type State int

const (
	// Closed means the underlying device has not been opened, or has been
	// closed. No commands may be issued.
	Closed State = iota

	// Open means the device is open but the target has not yet been
	// confirmed to be in bootloader mode.
	Open

	// InBootloader means Enter succeeded and the target is responding to
	// bootloader commands.
	InBootloader
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case InBootloader:
		return "in-bootloader"
	default:
		return "unknown"
	}
}

// Device is anything a Client can drive through the bootloader protocol: a
// byte stream plus the two out-of-band controls used to enter and leave
// bootloader mode. internal/serialport.Transport is the production
// implementation; tests use an in-memory fake.
type Device interface {
	io.ReadWriter
	ToggleBootloaderEntry() error
	ExitBootloader() error
}

// Client orchestrates the serial bootloader protocol against a single
// Device: entering bootloader mode, reading and writing flash pages,
// erasing pages, computing CRCs, and exiting back to the application.
//
// Client is not safe for concurrent use; it models a strictly sequential
// request/response conversation.
type Client struct {
	device Device
	config Config
	state  State
}

// New creates a Client bound to device. The device is not touched until
// Enter is called.
func New(device Device, opts ...Option) *Client {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		device: device,
		config: cfg,
		state:  Open,
	}
}

// State reports the client's current position in its connection lifecycle.
func (c *Client) State() State { return c.state }

// Enter resets the target into bootloader mode and confirms it is alive by
// pinging it up to PingAttempts times. On success the client transitions to
// InBootloader.
func (c *Client) Enter() error {
	c.reportProgress(Progress{Phase: PhaseEntering, Percentage: 0})

	if err := c.device.ToggleBootloaderEntry(); err != nil {
		return fmt.Errorf("bootloader: toggle entry: %w", err)
	}

	for attempt := 1; attempt <= c.config.PingAttempts; attempt++ {
		c.reportProgress(Progress{
			Phase:      PhaseEntering,
			Attempt:    attempt,
			Percentage: 100 * float64(attempt) / float64(c.config.PingAttempts),
		})

		if c.ping() {
			c.state = InBootloader
			c.logInfo("entered bootloader", "attempts", attempt)
			return nil
		}
	}

	return &NoPongError{Attempts: c.config.PingAttempts}
}

// ping sends a single ping command and reports whether a pong came back.
// Any framing or I/O error is treated as a failed attempt, not a fatal one;
// Enter retries rather than propagating it.
func (c *Client) ping() bool {
	req := frame.EncodeRequest(cmdPing, nil)
	if _, err := c.device.Write(req); err != nil {
		c.logDebug("ping write failed", "error", err)
		return false
	}

	resp, err := frame.DecodeResponse(c.device, respPong, 0)
	if err != nil {
		c.logDebug("ping not answered", "error", err)
		return false
	}
	_ = resp
	return true
}

// Exit drives the target back to its installed application. It never
// returns an error: the target resets as part of leaving bootloader mode
// and may not send a response.
func (c *Client) Exit() error {
	c.reportProgress(Progress{Phase: PhaseExiting, Percentage: 100})
	err := c.device.ExitBootloader()
	c.state = Closed
	if err != nil {
		c.logError("exit bootloader", "error", err)
	}
	return nil
}

// writeSync sends the sync preamble that realigns the target's command
// buffer before a command. Every command except ping resyncs this way,
// since a command that went unanswered (or was answered short) can leave
// the target expecting bytes that never arrive otherwise.
func (c *Client) writeSync() error {
	if _, err := c.device.Write(frame.SyncPreamble); err != nil {
		return fmt.Errorf("bootloader: write sync preamble: %w", err)
	}
	return nil
}

// ReadRange reads length bytes of flash starting at address.
func (c *Client) ReadRange(address uint32, length uint16) ([]byte, error) {
	if c.state != InBootloader {
		return nil, ErrNotInBootloader
	}

	if err := c.writeSync(); err != nil {
		return nil, err
	}

	payload := make([]byte, 6)
	binary.LittleEndian.PutUint32(payload[0:4], address)
	binary.LittleEndian.PutUint16(payload[4:6], length)

	req := frame.EncodeRequest(cmdReadRange, payload)
	if _, err := c.device.Write(req); err != nil {
		return nil, fmt.Errorf("bootloader: write read_range: %w", err)
	}

	data, err := frame.DecodeResponse(c.device, respReadRange, int(length))
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WritePage writes a single PageSize-byte page at address, which must be a
// multiple of PageSize. When VerifyAfterWrite is enabled, it follows the
// write with a CRCInternalFlash call and compares it against the
// locally-computed CRC of page.
func (c *Client) WritePage(address uint32, page []byte) error {
	if c.state != InBootloader {
		return ErrNotInBootloader
	}
	if len(page) != PageSize {
		return ErrTooSmall
	}

	if err := c.writeSync(); err != nil {
		return err
	}

	payload := make([]byte, 0, 4+PageSize)
	payload = binary.LittleEndian.AppendUint32(payload, address)
	payload = append(payload, page...)

	req := frame.EncodeRequest(cmdWritePage, payload)
	if _, err := c.device.Write(req); err != nil {
		return fmt.Errorf("bootloader: write write_page: %w", err)
	}

	if err := c.readOKResponse(cmdWritePage, address); err != nil {
		return err
	}

	if c.config.VerifyAfterWrite {
		local := checksum(page)
		remote, err := c.CRCInternalFlash(address, uint32(len(page)))
		if err != nil {
			return fmt.Errorf("bootloader: verify page at 0x%08X: %w", address, err)
		}
		if local != remote {
			return &CRCMismatchError{Local: local, Remote: remote}
		}
	}

	return nil
}

// ErasePage erases the PageSize-byte page starting at address, which must
// be a multiple of PageSize.
func (c *Client) ErasePage(address uint32) error {
	if c.state != InBootloader {
		return ErrNotInBootloader
	}

	if err := c.writeSync(); err != nil {
		return err
	}

	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, address)

	req := frame.EncodeRequest(cmdErasePage, payload)
	if _, err := c.device.Write(req); err != nil {
		return fmt.Errorf("bootloader: write erase_page: %w", err)
	}

	return c.readOKResponse(cmdErasePage, address)
}

// readOKResponse reads a single-byte status response to write_page or
// erase_page and translates a non-OK status into a typed error.
func (c *Client) readOKResponse(command byte, address uint32) error {
	data, err := frame.DecodeResponse(c.device, respOK, 0)
	if err != nil {
		if fe, ok := err.(*frame.FrameError); ok && len(fe.GotHeader) == 2 {
			if code := fe.GotHeader[1]; code != 0 {
				return decodeWriteOrEraseError(command, address, code)
			}
		}
		return err
	}
	_ = data
	return nil
}

// CRCInternalFlash requests the target's CRC-32 over the length bytes of
// flash starting at address. Two trailing bytes beyond the 4-byte CRC are
// always drained and discarded, tolerating a known firmware quirk.
func (c *Client) CRCInternalFlash(address, length uint32) (uint32, error) {
	if c.state != InBootloader {
		return 0, ErrNotInBootloader
	}

	if err := c.writeSync(); err != nil {
		return 0, err
	}

	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], address)
	binary.LittleEndian.PutUint32(payload[4:8], length)

	req := frame.EncodeRequest(cmdCRCInternalFlash, payload)
	if _, err := c.device.Write(req); err != nil {
		return 0, fmt.Errorf("bootloader: write crc_internal_flash: %w", err)
	}

	data, err := frame.DecodeResponse(c.device, respCRCInternalFlash, 4)
	if err != nil {
		return 0, err
	}

	if crcTrailingDrainBytes > 0 {
		drain := make([]byte, crcTrailingDrainBytes)
		_, _ = frame.ReadFull(c.device, drain)
	}

	return binary.LittleEndian.Uint32(data), nil
}

// checksum computes the CRC-32 variant the target uses: polynomial
// 0x104C11DB7 with a zero initial value and an inverted final value,
// which is bit-for-bit Go's standard IEEE CRC-32.
func checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// reportProgress calls the progress callback if configured.
func (c *Client) reportProgress(progress Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(progress)
	}
}

// ReportProgress calls the configured ProgressCallback, if any. It exists
// so composing packages (ops.Flash's page loop, for instance) can drive the
// same callback the client reports Enter/Exit progress through, without
// each caller wiring its own progress channel.
func (c *Client) ReportProgress(progress Progress) {
	c.reportProgress(progress)
}

// logDebug logs a debug message if a logger is configured.
func (c *Client) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Client) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Client) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
