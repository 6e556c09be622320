package bundle

import "github.com/tock/tockloader-go/tbf"

// Variant is one pre-linked build of an application: a header paired with
// the payload bytes that immediately follow it in the emitted image.
type Variant struct {
	// Arch names the variant's target, e.g. "cortex-m4", matching the
	// "<board>.<arch>.tbf" member name it was loaded from.
	Arch string

	Header  *tbf.Header
	Payload []byte
}

// Image returns the variant's on-flash bytes: header followed by payload,
// truncated or left as-is relative to Header.TotalSize by the caller
// (Bundle.Binary applies the size-based truncation rule).
func (v *Variant) Image() []byte {
	out := make([]byte, 0, tbf.HeaderSize+len(v.Payload))
	out = append(out, tbf.Encode(v.Header)...)
	out = append(out, v.Payload...)
	return out
}
