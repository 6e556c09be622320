package bundle

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tock/tockloader-go/tbf"
)

// tbfSuffix marks a TAB archive member as a variant image: a raw
// concatenation of a 76-byte tbf.Header followed by its payload, named
// "<board>.<arch>.tbf", or "<board>.<arch>.<fixed address>.tbf" for a
// variant linked at a specific flash base (e.g.
// "nrf52840dk.cortex-m4.0x30000.tbf"). The wire header carries no
// documented way to persist a fixed-address table past its base fields
// (see tbf.Header.FixedAddresses), so the TAB naming convention is the
// only place this repo's archive format can record one.
const tbfSuffix = ".tbf"

// Member is one entry read from a TAB archive: a name and its raw bytes.
// Unpacking the archive into Members is left to the caller; Load has no
// archive format dependency of its own, and cmd/tockloader does not load
// TABs (its verbs take a raw image file).
type Member struct {
	Name string
	Data []byte
}

// Load builds a Bundle from a sequence of TAB archive members, skipping
// anything that isn't named "*.tbf" (e.g. a metadata.toml manifest).
func Load(members []Member) (*Bundle, error) {
	var variants []*Variant

	for _, m := range members {
		if !strings.HasSuffix(m.Name, tbfSuffix) {
			continue
		}

		v, err := parseVariant(m)
		if err != nil {
			return nil, fmt.Errorf("bundle: %s: %w", m.Name, err)
		}
		variants = append(variants, v)
	}

	if len(variants) == 0 {
		return nil, fmt.Errorf("bundle: no .tbf members found in archive")
	}

	return New(variants), nil
}

// LoadReader drains every member from next() until it returns io.EOF, then
// calls Load. next mirrors the shape of an *archive/tar.Reader's Next/Read
// pair so a caller can wrap one without this package importing
// archive/tar itself.
func LoadReader(next func() (name string, data []byte, err error)) (*Bundle, error) {
	var members []Member
	for {
		name, data, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bundle: read archive: %w", err)
		}
		members = append(members, Member{Name: name, Data: data})
	}
	return Load(members)
}

func parseVariant(m Member) (*Variant, error) {
	header, err := tbf.Decode(m.Data)
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if header.VersionKind() != tbf.VersionSupported {
		return nil, fmt.Errorf("unsupported header version %d", header.Version)
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}

	arch, fixedAddresses := parseName(m.Name)
	header.FixedAddresses = fixedAddresses

	payload := make([]byte, len(m.Data)-tbf.HeaderSize)
	copy(payload, m.Data[tbf.HeaderSize:])

	return &Variant{Arch: arch, Header: header, Payload: payload}, nil
}

// parseName extracts the "<arch>" component from a member name following
// "<board>.<arch>.tbf" or "<board>.<arch>.<fixed address>.tbf", along
// with any fixed address the trailing component encodes. For any other
// name, arch is the last dot-separated component before ".tbf" (the whole
// name minus ".tbf" when it has no dots), and there are no fixed addresses
// unless that trailing component is a "0x" hex number.
func parseName(name string) (arch string, fixedAddresses []uint32) {
	trimmed := strings.TrimSuffix(name, tbfSuffix)
	parts := strings.Split(trimmed, ".")

	if len(parts) > 1 {
		if addr, ok := parseHexAddress(parts[len(parts)-1]); ok {
			fixedAddresses = []uint32{addr}
			parts = parts[:len(parts)-1]
		}
	}

	if len(parts) == 0 {
		return trimmed, fixedAddresses
	}
	return parts[len(parts)-1], fixedAddresses
}

// parseHexAddress parses s as a "0x"-prefixed hexadecimal flash address.
func parseHexAddress(s string) (uint32, bool) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, false
	}
	v, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
