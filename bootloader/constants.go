package bootloader

// Command codes issued by the host. Values per the tockloader wire
// protocol.
const (
	cmdPing             = 0x01
	cmdReset            = 0x05
	cmdErasePage        = 0x06
	cmdWritePage        = 0x07
	cmdReadRange        = 0x11
	cmdCRCInternalFlash = 0x15
)

// Response codes returned by the target.
const (
	respPong             = 0x11
	respBadAddress       = 0x12
	respInternalError    = 0x13
	respBadArgs          = 0x14
	respOK               = 0x15
	respReadRange        = 0x20
	respCRCInternalFlash = 0x23
)

// PageSize is the flash programming page size in bytes. Every write_page
// address must be a multiple of it.
const PageSize = 512

// maxPingAttempts is the default number of ping rounds Enter tries before
// giving up with a *NoPongError.
const maxPingAttempts = 30

// crcTrailingDrainBytes is the number of extra bytes read (and discarded)
// after a CRC response, tolerating a known firmware bug that sometimes
// emits 6 bytes instead of 4. Always drained per the spec's stated safe
// default; not version-gated.
const crcTrailingDrainBytes = 2
