package bundle

import (
	"io"
	"testing"

	"github.com/tock/tockloader-go/tbf"
)

func buildTBFBytes(name string, totalSize uint32) []byte {
	payload := []byte(name)
	h := &tbf.Header{
		Version:           1,
		TotalSize:         totalSize,
		PackageNameOffset: tbf.HeaderSize,
		PackageNameSize:   uint32(len(name)),
	}
	out := append(tbf.Encode(h), payload...)
	return out
}

func TestLoadSkipsNonTBFMembers(t *testing.T) {
	members := []Member{
		{Name: "metadata.toml", Data: []byte("name = \"blink\"\n")},
		{Name: "nrf52840dk.cortex-m4.tbf", Data: buildTBFBytes("blink", 512)},
	}

	b, err := Load(members)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(b.Variants()) != 1 {
		t.Fatalf("got %d variants, want 1", len(b.Variants()))
	}
	if b.Variants()[0].Arch != "cortex-m4" {
		t.Errorf("Arch = %q, want %q", b.Variants()[0].Arch, "cortex-m4")
	}
}

func TestLoadRejectsEmptyArchive(t *testing.T) {
	_, err := Load([]Member{{Name: "metadata.toml", Data: nil}})
	if err == nil {
		t.Fatal("expected error for archive with no .tbf members")
	}
}

func TestLoadParsesFixedAddressFromName(t *testing.T) {
	members := []Member{
		{Name: "nrf52840dk.cortex-m4.0x40000.tbf", Data: buildTBFBytes("blink", 512)},
	}

	b, err := Load(members)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	v := b.Variants()[0]
	if v.Arch != "cortex-m4" {
		t.Errorf("Arch = %q, want %q", v.Arch, "cortex-m4")
	}
	if len(v.Header.FixedAddresses) != 1 || v.Header.FixedAddresses[0] != 0x40000 {
		t.Errorf("FixedAddresses = %v, want [0x40000]", v.Header.FixedAddresses)
	}
}

func TestLoadReaderDrainsUntilEOF(t *testing.T) {
	data := [][]byte{
		buildTBFBytes("blink", 512),
		buildTBFBytes("blink", 512),
	}
	i := 0
	next := func() (string, []byte, error) {
		if i >= len(data) {
			return "", nil, io.EOF
		}
		d := data[i]
		i++
		return "nrf52840dk.cortex-m4.tbf", d, nil
	}

	b, err := LoadReader(next)
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if len(b.Variants()) != 2 {
		t.Fatalf("got %d variants, want 2", len(b.Variants()))
	}
}
