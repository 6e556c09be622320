package appwalker

import (
	"context"
	"errors"
	"testing"

	"github.com/tock/tockloader-go/bootloader"
	"github.com/tock/tockloader-go/internal/frame"
	"github.com/tock/tockloader-go/tbf"
)

// fakeDevice feeds a Walker a pre-arranged sequence of header frames.
type fakeDevice struct {
	responses [][]byte
}

func (f *fakeDevice) Write(p []byte) (int, error) { return len(p), nil }

func (f *fakeDevice) Read(p []byte) (int, error) {
	if len(f.responses) == 0 {
		return 0, errors.New("fakeDevice: no more queued responses")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return copy(p, next), nil
}

func (f *fakeDevice) ToggleBootloaderEntry() error { return nil }
func (f *fakeDevice) ExitBootloader() error        { return nil }

func headerFrame(h *tbf.Header) []byte {
	encoded := tbf.Encode(h)
	return append([]byte{frame.EscapeByte, 0x20}, encoded...)
}

func endOfChainFrame() []byte {
	buf := make([]byte, tbf.HeaderSize)
	return append([]byte{frame.EscapeByte, 0x20}, buf...)
}

func unknownVersionFrame(version uint32) []byte {
	buf := make([]byte, tbf.HeaderSize)
	buf[0] = byte(version)
	buf[1] = byte(version >> 8)
	buf[2] = byte(version >> 16)
	buf[3] = byte(version >> 24)
	return append([]byte{frame.EscapeByte, 0x20}, buf...)
}

func newWalkerWithFrames(frames ...[]byte) *Walker {
	dev := &fakeDevice{responses: append([][]byte{{frame.EscapeByte, 0x11}}, frames...)}
	client := bootloader.New(dev)
	if err := client.Enter(); err != nil {
		panic(err)
	}
	return New(client)
}

func TestWalkYieldsLiveApps(t *testing.T) {
	h1 := &tbf.Header{Version: 1, TotalSize: 512, PackageNameOffset: 76, PackageNameSize: 5}
	h2 := &tbf.Header{Version: 1, TotalSize: 1024, PackageNameOffset: 76, PackageNameSize: 6}

	w := newWalkerWithFrames(headerFrame(h1), headerFrame(h2), endOfChainFrame())

	var seen []InstalledApp
	err := w.Walk(context.Background(), 0x30000, false, func(app InstalledApp) (bool, error) {
		seen = append(seen, app)
		return true, nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("got %d apps, want 2", len(seen))
	}
	if seen[0].FlashAddress != 0x30000 {
		t.Errorf("seen[0].FlashAddress = 0x%X, want 0x30000", seen[0].FlashAddress)
	}
	if seen[1].FlashAddress != 0x30000+512 {
		t.Errorf("seen[1].FlashAddress = 0x%X, want 0x%X", seen[1].FlashAddress, 0x30000+512)
	}
}

func TestWalkStopsAtEndOfChain(t *testing.T) {
	w := newWalkerWithFrames(endOfChainFrame())

	calls := 0
	err := w.Walk(context.Background(), 0x30000, false, func(app InstalledApp) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if calls != 0 {
		t.Errorf("visit called %d times, want 0", calls)
	}
}

func TestWalkFailsOnUnknownVersionWithoutForce(t *testing.T) {
	w := newWalkerWithFrames(unknownVersionFrame(2))

	err := w.Walk(context.Background(), 0x30000, false, func(app InstalledApp) (bool, error) {
		return true, nil
	})
	var uve *UnknownHeaderVersionError
	if !errors.As(err, &uve) {
		t.Fatalf("Walk() error = %v, want *UnknownHeaderVersionError", err)
	}
	if uve.Version != 2 {
		t.Errorf("Version = %d, want 2", uve.Version)
	}
}

func TestWalkTreatsUnknownVersionAsEndWithForce(t *testing.T) {
	w := newWalkerWithFrames(unknownVersionFrame(2))

	err := w.Walk(context.Background(), 0x30000, true, func(app InstalledApp) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v, want nil (forced end of chain)", err)
	}
}

func TestEndReturnsCursorPastLastApp(t *testing.T) {
	h1 := &tbf.Header{Version: 1, TotalSize: 512, PackageNameOffset: 76, PackageNameSize: 5}
	w := newWalkerWithFrames(headerFrame(h1), endOfChainFrame())

	end, err := w.End(context.Background(), 0x30000, false)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if end != 0x30000+512 {
		t.Errorf("End() = 0x%X, want 0x%X", end, 0x30000+512)
	}
}
