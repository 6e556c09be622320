package bundle

import (
	"errors"
	"fmt"

	"github.com/tock/tockloader-go/tbf"
)

// ErrNameMismatch is returned when a Bundle's variants disagree on
// package name.
var ErrNameMismatch = errors.New("bundle: variants disagree on package name")

// SizeMismatchError is returned by Size when a Bundle's variants disagree
// on total_size, and by SetSize when n is too small to hold a variant's
// header and payload.
type SizeMismatchError struct {
	Want uint32
	Have uint32
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("bundle: size mismatch: want %d, have %d", e.Want, e.Have)
}

// Bundle is an ordered sequence of Variants representing one logical
// application. All variants share the same package name.
type Bundle struct {
	variants []*Variant
}

// New constructs a Bundle from already-parsed variants. It does not
// validate name/size agreement; callers normally get a Bundle from Load.
func New(variants []*Variant) *Bundle {
	return &Bundle{variants: variants}
}

// Variants returns the bundle's variants in archive order.
func (b *Bundle) Variants() []*Variant { return b.variants }

// Name returns the package name shared by every variant. Disagreement
// between variants is a hard error.
func (b *Bundle) Name() (string, error) {
	var name string
	for i, v := range b.variants {
		n, err := v.Header.GetAppName(v.Image())
		if err != nil {
			return "", fmt.Errorf("bundle: variant %d: %w", i, err)
		}
		if i == 0 {
			name = n
			continue
		}
		if n != name {
			return "", ErrNameMismatch
		}
	}
	return name, nil
}

// Size returns the total_size shared by every variant. Disagreement
// between variants is a hard error.
func (b *Bundle) Size() (uint32, error) {
	var size uint32
	for i, v := range b.variants {
		if i == 0 {
			size = v.Header.TotalSize
			continue
		}
		if v.Header.TotalSize != size {
			return 0, &SizeMismatchError{Want: size, Have: v.Header.TotalSize}
		}
	}
	return size, nil
}

// SetSticky sets the sticky flag on every variant's header.
func (b *Bundle) SetSticky() {
	for _, v := range b.variants {
		_ = v.Header.SetFlag("sticky", true)
	}
}

// SetSize rewrites total_size to n on every variant, failing if n would be
// too small to hold that variant's header and payload. Growth only: this
// never shrinks a variant below its current footprint.
func (b *Bundle) SetSize(n uint32) error {
	for i, v := range b.variants {
		minSize := uint32(tbf.HeaderSize) + uint32(len(v.Payload))
		if n < minSize {
			return fmt.Errorf("bundle: variant %d: %w", i, &SizeMismatchError{Want: minSize, Have: n})
		}
	}
	for _, v := range b.variants {
		v.Header.SetAppSize(n)
	}
	return nil
}

// HasFixedAddresses reports whether any variant is fixed-linked.
func (b *Bundle) HasFixedAddresses() bool {
	for _, v := range b.variants {
		if v.Header.HasFixedAddresses() {
			return true
		}
	}
	return false
}

// Binary selects the variant appropriate for installation at target and
// emits its image, truncated to the bundle's declared size (excess bytes
// are padding; an undersize emission is left as-is since the flash tail is
// don't-care). It returns ok=false if no variant matches.
//
// Selection: the first variant that is not fixed-address is
// position-independent and is always eligible. Otherwise a fixed-address
// variant is eligible only if its first fixed flash address, less the
// header size, equals target.
func (b *Bundle) Binary(target uint32) (image []byte, ok bool) {
	for _, v := range b.variants {
		if !v.Header.HasFixedAddresses() {
			return b.emit(v), true
		}
		addr, _ := v.Header.FirstFixedAddress()
		if addr-uint32(tbf.HeaderSize) == target {
			return b.emit(v), true
		}
	}
	return nil, false
}

func (b *Bundle) emit(v *Variant) []byte {
	image := v.Image()
	if size := v.Header.TotalSize; uint32(len(image)) > size {
		image = image[:size]
	}
	return image
}
