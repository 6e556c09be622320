package tbf

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed length of a version-1 application header in bytes.
const HeaderSize = 76

// PageSize is the programming page size; TotalSize must be a positive
// multiple of it.
const PageSize = 512

// VersionKind classifies a header's version field.
type VersionKind int

const (
	// VersionSupported means version was 1 and all base fields were decoded;
	// their invariants are checked separately by Validate.
	VersionSupported VersionKind = iota
	// VersionEndOfChain means version was 0 or 0xFFFFFFFF: no more apps follow.
	VersionEndOfChain
	// VersionUnknown means version was some other, unrecognized value.
	VersionUnknown
)

// Header is the parsed version-1 Tock Binary Format application header.
type Header struct {
	Version           uint32
	TotalSize         uint32
	EntryOffset       uint32
	RelDataOffset     uint32
	RelDataSize       uint32
	TextOffset        uint32
	TextSize          uint32
	GotOffset         uint32
	GotSize           uint32
	DataOffset        uint32
	DataSize          uint32
	BSSMemOffset      uint32
	BSSMemSize        uint32
	MinStackLen       uint32
	MinAppHeapLen     uint32
	MinKernelHeapLen  uint32
	PackageNameOffset uint32
	PackageNameSize   uint32
	Checksum          uint32

	// Sticky and FixedAddresses are host-side-only metadata: they are never
	// read from or written to the 76-byte wire encoding (see DESIGN.md,
	// "Open Question decisions"). They exist so bundle.Bundle can implement
	// spec'd sticky/fixed-address behavior without guessing at an
	// undocumented on-flash TLV layout.
	Sticky         bool
	FixedAddresses []uint32
}

// VersionKind classifies h.Version.
func (h *Header) VersionKind() VersionKind {
	switch h.Version {
	case 1:
		return VersionSupported
	case 0, 0xFFFFFFFF:
		return VersionEndOfChain
	default:
		return VersionUnknown
	}
}

// Decode parses the first HeaderSize bytes of buf as a Header. It returns an
// error only for a structurally too-short buffer; an unsupported or
// end-of-chain version decodes successfully with the version field set so
// the caller can inspect VersionKind().
func Decode(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("tbf: header buffer too short: got %d bytes, want %d", len(buf), HeaderSize)
	}

	le := binary.LittleEndian
	h := &Header{
		Version: le.Uint32(buf[0:4]),
	}

	if h.Version != 1 {
		// Base fields beyond version are meaningless for end-of-chain /
		// unknown-version headers; leave them zero.
		return h, nil
	}

	h.TotalSize = le.Uint32(buf[4:8])
	h.EntryOffset = le.Uint32(buf[8:12])
	h.RelDataOffset = le.Uint32(buf[12:16])
	h.RelDataSize = le.Uint32(buf[16:20])
	h.TextOffset = le.Uint32(buf[20:24])
	h.TextSize = le.Uint32(buf[24:28])
	h.GotOffset = le.Uint32(buf[28:32])
	h.GotSize = le.Uint32(buf[32:36])
	h.DataOffset = le.Uint32(buf[36:40])
	h.DataSize = le.Uint32(buf[40:44])
	h.BSSMemOffset = le.Uint32(buf[44:48])
	h.BSSMemSize = le.Uint32(buf[48:52])
	h.MinStackLen = le.Uint32(buf[52:56])
	h.MinAppHeapLen = le.Uint32(buf[56:60])
	h.MinKernelHeapLen = le.Uint32(buf[60:64])
	h.PackageNameOffset = le.Uint32(buf[64:68])
	h.PackageNameSize = le.Uint32(buf[68:72])
	h.Checksum = le.Uint32(buf[72:76])

	return h, nil
}

// Encode serializes h back to HeaderSize bytes, preserving all base fields.
// Used by the bundle emitter, so a SetAppSize rewrite shows up in the
// emitted image; Sticky and FixedAddresses are not encoded.
func Encode(h *Header) []byte {
	buf := make([]byte, HeaderSize)
	le := binary.LittleEndian

	le.PutUint32(buf[0:4], h.Version)
	le.PutUint32(buf[4:8], h.TotalSize)
	le.PutUint32(buf[8:12], h.EntryOffset)
	le.PutUint32(buf[12:16], h.RelDataOffset)
	le.PutUint32(buf[16:20], h.RelDataSize)
	le.PutUint32(buf[20:24], h.TextOffset)
	le.PutUint32(buf[24:28], h.TextSize)
	le.PutUint32(buf[28:32], h.GotOffset)
	le.PutUint32(buf[32:36], h.GotSize)
	le.PutUint32(buf[36:40], h.DataOffset)
	le.PutUint32(buf[40:44], h.DataSize)
	le.PutUint32(buf[44:48], h.BSSMemOffset)
	le.PutUint32(buf[48:52], h.BSSMemSize)
	le.PutUint32(buf[52:56], h.MinStackLen)
	le.PutUint32(buf[56:60], h.MinAppHeapLen)
	le.PutUint32(buf[60:64], h.MinKernelHeapLen)
	le.PutUint32(buf[64:68], h.PackageNameOffset)
	le.PutUint32(buf[68:72], h.PackageNameSize)
	le.PutUint32(buf[72:76], h.Checksum)

	return buf
}

// Validate checks the invariants spec'd for a live (version-1) header:
// TotalSize is a positive multiple of PageSize, every offset is strictly
// inside TotalSize, and the package name region fits within it.
func (h *Header) Validate() error {
	if h.Version != 1 {
		return fmt.Errorf("tbf: cannot validate non-version-1 header (version=%d)", h.Version)
	}
	if h.TotalSize == 0 || h.TotalSize%PageSize != 0 {
		return fmt.Errorf("tbf: total_size %d is not a positive multiple of %d", h.TotalSize, PageSize)
	}
	if h.PackageNameOffset+h.PackageNameSize > h.TotalSize {
		return fmt.Errorf("tbf: package name region [%d,%d) exceeds total_size %d", h.PackageNameOffset, h.PackageNameOffset+h.PackageNameSize, h.TotalSize)
	}
	offsets := []uint32{
		h.EntryOffset, h.RelDataOffset, h.TextOffset, h.GotOffset,
		h.DataOffset, h.BSSMemOffset, h.PackageNameOffset,
	}
	for _, off := range offsets {
		if off >= h.TotalSize {
			return fmt.Errorf("tbf: offset %d is not strictly less than total_size %d", off, h.TotalSize)
		}
	}
	return nil
}

// HeaderSize returns the fixed wire size of this header (always 76 for a
// version-1 header); it exists as a method to match the bundle/codec
// query surface spec'd for AppHeaderCodec.
func (h *Header) HeaderSize() uint32 { return HeaderSize }

// AppSize returns TotalSize, i.e. the total bytes this app consumes in flash
// including header and padding.
func (h *Header) AppSize() uint32 { return h.TotalSize }

// HasFixedAddresses reports whether this header was linked for one or more
// specific flash addresses.
func (h *Header) HasFixedAddresses() bool { return len(h.FixedAddresses) > 0 }

// FirstFixedAddress returns the first fixed flash address, if any.
func (h *Header) FirstFixedAddress() (uint32, bool) {
	if len(h.FixedAddresses) == 0 {
		return 0, false
	}
	return h.FixedAddresses[0], true
}

// SetFlag sets a named boolean flag on the header. Only "sticky" is
// currently recognized.
func (h *Header) SetFlag(name string, value bool) error {
	switch name {
	case "sticky":
		h.Sticky = value
		return nil
	default:
		return fmt.Errorf("tbf: unknown header flag %q", name)
	}
}

// SetAppSize rewrites TotalSize. Callers (bundle.Bundle.SetSize) are
// responsible for enforcing the growth-only invariant before calling this.
func (h *Header) SetAppSize(n uint32) { h.TotalSize = n }

// GetAppName reads the package name from buf, which must be the bytes of
// the app starting at its header (buf[PackageNameOffset:+PackageNameSize]).
func (h *Header) GetAppName(buf []byte) (string, error) {
	end := h.PackageNameOffset + h.PackageNameSize
	if uint32(len(buf)) < end {
		return "", fmt.Errorf("tbf: buffer too short for package name: have %d bytes, need %d", len(buf), end)
	}
	return string(buf[h.PackageNameOffset:end]), nil
}
