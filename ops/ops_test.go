package ops

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/tock/tockloader-go/bootloader"
	"github.com/tock/tockloader-go/bundle"
	"github.com/tock/tockloader-go/internal/frame"
	"github.com/tock/tockloader-go/tbf"
)

// fakeDevice is a minimal in-memory Device honoring write_page/erase_page/
// crc_internal_flash/read_range well enough to drive the ops layer without
// real hardware.
type fakeDevice struct {
	flash map[uint32][]byte
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{flash: make(map[uint32][]byte)}
}

func (f *fakeDevice) ToggleBootloaderEntry() error { return nil }
func (f *fakeDevice) ExitBootloader() error        { return nil }

// pending holds the response queued for the next Read call, built by Write
// as it recognizes each command.
type fakeConn struct {
	*fakeDevice
	pending []byte
}

func (f *fakeConn) Write(p []byte) (int, error) {
	// p is an escaped request; un-escape it and split off the trailing
	// (escape, command) terminator to recover the raw payload + command.
	raw, command := splitFrame(p)

	switch command {
	case 0x01: // ping
		f.pending = []byte{frame.EscapeByte, 0x11}
	case 0x07: // write_page
		addr := binary.LittleEndian.Uint32(raw[0:4])
		page := make([]byte, len(raw)-4)
		copy(page, raw[4:])
		f.flash[addr] = page
		f.pending = []byte{frame.EscapeByte, 0x15}
	case 0x06: // erase_page
		addr := binary.LittleEndian.Uint32(raw[0:4])
		f.flash[addr] = bytes.Repeat([]byte{0xFF}, bootloader.PageSize)
		f.pending = []byte{frame.EscapeByte, 0x15}
	case 0x15: // crc_internal_flash
		addr := binary.LittleEndian.Uint32(raw[0:4])
		length := binary.LittleEndian.Uint32(raw[4:8])
		data := f.readRange(addr, length)
		crc := crc32.ChecksumIEEE(data)
		resp := make([]byte, 6)
		resp[0] = frame.EscapeByte
		resp[1] = 0x23
		binary.LittleEndian.PutUint32(resp[2:], crc)
		f.pending = resp
	case 0x11: // read_range
		addr := binary.LittleEndian.Uint32(raw[0:4])
		length := binary.LittleEndian.Uint16(raw[4:6])
		data := f.readRange(addr, uint32(length))
		resp := append([]byte{frame.EscapeByte, 0x20}, data...)
		f.pending = resp
	}
	return len(p), nil
}

func (f *fakeConn) Read(p []byte) (int, error) {
	if len(f.pending) == 0 {
		return 0, errors.New("fakeConn: no pending response")
	}
	n := copy(p, f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

func (f *fakeConn) readRange(addr, length uint32) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = 0xFF
	}
	for pageAddr, page := range f.flash {
		pageEnd := pageAddr + uint32(len(page))
		reqEnd := addr + length
		lo := pageAddr
		if addr > lo {
			lo = addr
		}
		hi := pageEnd
		if reqEnd < hi {
			hi = reqEnd
		}
		if lo >= hi {
			continue
		}
		copy(out[lo-addr:hi-addr], page[lo-pageAddr:hi-pageAddr])
	}
	return out
}

// splitFrame reverses frame.EncodeRequest: un-double escape bytes within
// the payload and return (payload, command).
func splitFrame(encoded []byte) (payload []byte, command byte) {
	var out []byte
	i := 0
	for i < len(encoded)-2 {
		b := encoded[i]
		if b == frame.EscapeByte && i+1 < len(encoded) && encoded[i+1] == frame.EscapeByte {
			out = append(out, frame.EscapeByte)
			i += 2
			continue
		}
		out = append(out, b)
		i++
	}
	return out, encoded[len(encoded)-1]
}

func newClientOverFlash() (*bootloader.Client, *fakeConn) {
	conn := &fakeConn{fakeDevice: newFakeDevice()}
	client := bootloader.New(conn, bootloader.WithVerifyAfterWrite(true))
	return client, conn
}

func TestFlashWritesPaddedPages(t *testing.T) {
	client, conn := newClientOverFlash()

	data := bytes.Repeat([]byte{0x42}, 1000)
	result, err := Flash(context.Background(), client, 0x30000, data)
	if err != nil {
		t.Fatalf("Flash() error = %v", err)
	}
	if result.BytesWritten != 1024 {
		t.Errorf("BytesWritten = %d, want 1024", result.BytesWritten)
	}
	if _, ok := conn.flash[0x30000]; !ok {
		t.Error("expected a page written at 0x30000")
	}
	if _, ok := conn.flash[0x30200]; !ok {
		t.Error("expected a page written at 0x30200")
	}
	erased := conn.flash[0x30400]
	for _, b := range erased {
		if b != 0xFF {
			t.Fatal("expected boundary page to be erased (all 0xFF)")
		}
	}
}

func TestAppendWalksToEndOfChain(t *testing.T) {
	client, conn := newClientOverFlash()

	h := &tbf.Header{Version: 1, TotalSize: 512, PackageNameOffset: tbf.HeaderSize, PackageNameSize: 5}
	image := append(tbf.Encode(h), []byte("blink")...)
	image = append(image, bytes.Repeat([]byte{0xFF}, 512-len(image))...)
	conn.flash[0x30000] = image[:bootloader.PageSize]

	newData := bytes.Repeat([]byte{0x11}, 100)
	result, err := Append(context.Background(), client, newData, 0x30000, false)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if result.Address != 0x30000+512 {
		t.Errorf("Address = 0x%X, want 0x%X", result.Address, 0x30000+512)
	}
}

func TestReplaceFailsOnSizeMismatch(t *testing.T) {
	client, conn := newClientOverFlash()

	installed := &tbf.Header{Version: 1, TotalSize: 8192, PackageNameOffset: tbf.HeaderSize, PackageNameSize: 5}
	installedImage := append(tbf.Encode(installed), []byte("blink")...)
	installedImage = append(installedImage, bytes.Repeat([]byte{0xFF}, int(installed.TotalSize)-len(installedImage))...)
	for off := 0; off < len(installedImage); off += bootloader.PageSize {
		conn.flash[0x34000+uint32(off)] = installedImage[off : off+bootloader.PageSize]
	}

	newHeader := &tbf.Header{Version: 1, TotalSize: 4096, PackageNameOffset: tbf.HeaderSize, PackageNameSize: 5}
	newImage := append(tbf.Encode(newHeader), []byte("blink")...)
	newImage = append(newImage, bytes.Repeat([]byte{0x11}, int(newHeader.TotalSize)-len(newImage))...)

	_, err := Replace(context.Background(), client, newImage, 0x34000)
	var sme *bundle.SizeMismatchError
	if !errors.As(err, &sme) {
		t.Fatalf("Replace() error = %v, want *bundle.SizeMismatchError", err)
	}
	if sme.Want != 8192 || sme.Have != 4096 {
		t.Errorf("SizeMismatchError = %+v, want {Want:8192 Have:4096}", sme)
	}
}

func TestReplaceNotFound(t *testing.T) {
	client, conn := newClientOverFlash()
	_ = conn

	newHeader := &tbf.Header{Version: 1, TotalSize: 512, PackageNameOffset: tbf.HeaderSize, PackageNameSize: 6}
	newImage := append(tbf.Encode(newHeader), []byte("nonexi")...)
	newImage = append(newImage, bytes.Repeat([]byte{0x11}, int(newHeader.TotalSize)-len(newImage))...)

	_, err := Replace(context.Background(), client, newImage, 0x30000)
	var anf *AppNotFoundError
	if !errors.As(err, &anf) {
		t.Fatalf("Replace() error = %v, want *AppNotFoundError", err)
	}
}

func TestListReturnsInstalledApps(t *testing.T) {
	client, conn := newClientOverFlash()

	h := &tbf.Header{Version: 1, TotalSize: 512, PackageNameOffset: tbf.HeaderSize, PackageNameSize: 5}
	image := append(tbf.Encode(h), []byte("blink")...)
	image = append(image, bytes.Repeat([]byte{0xFF}, 512-len(image))...)
	conn.flash[0x30000] = image[:bootloader.PageSize]

	apps, err := List(context.Background(), client, 0x30000)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("got %d apps, want 1", len(apps))
	}
	if apps[0].Name != "blink" {
		t.Errorf("Name = %q, want %q", apps[0].Name, "blink")
	}
	if apps[0].EndAddress != 0x30000+512 {
		t.Errorf("EndAddress = 0x%X, want 0x%X", apps[0].EndAddress, 0x30000+512)
	}
}

func TestListEmptyChain(t *testing.T) {
	client, _ := newClientOverFlash()

	apps, err := List(context.Background(), client, 0x30000)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("got %d apps, want 0", len(apps))
	}
}
