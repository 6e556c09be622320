package appwalker

import (
	"context"
	"fmt"

	"github.com/tock/tockloader-go/bootloader"
	"github.com/tock/tockloader-go/tbf"
)

// InstalledApp is a snapshot of one application header found while walking
// flash. It is ephemeral: nothing refreshes it once yielded.
type InstalledApp struct {
	FlashAddress uint32
	Header       *tbf.Header
}

// UnknownHeaderVersionError is returned by Walk when it reads a header whose
// version is neither 1 (a live app) nor 0/0xFFFFFFFF (end of chain), and the
// caller did not pass Force.
type UnknownHeaderVersionError struct {
	Version uint32
}

func (e *UnknownHeaderVersionError) Error() string {
	return fmt.Sprintf("appwalker: unknown header version 0x%08X", e.Version)
}

// Walker reads the sequential chain of AppHeaders installed in a target's
// internal flash, one BootloaderClient.ReadRange call at a time.
type Walker struct {
	client *bootloader.Client
}

// New creates a Walker that reads headers through client. The client must
// already be in bootloader mode.
func New(client *bootloader.Client) *Walker {
	return &Walker{client: client}
}

// Walk reads headers starting at start, advancing by each header's
// total_size, calling visit for every live (version 1) app found. It stops
// normally when it reaches an end-of-chain header.
//
// If it reads a header with an unrecognized version, it stops with an
// *UnknownHeaderVersionError unless force is true, in which case that
// position is treated as the end of the chain (matching the append --force
// path).
//
// visit may return cont=false to stop the walk early without error. Walk is
// restartable: passing a different start begins a fresh, independent walk.
func (w *Walker) Walk(ctx context.Context, start uint32, force bool, visit func(InstalledApp) (cont bool, err error)) error {
	cursor := start

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("appwalker: cancelled: %w", err)
		}

		buf, err := w.client.ReadRange(cursor, tbf.HeaderSize)
		if err != nil {
			return fmt.Errorf("appwalker: read header at 0x%08X: %w", cursor, err)
		}

		header, err := tbf.Decode(buf)
		if err != nil {
			return fmt.Errorf("appwalker: decode header at 0x%08X: %w", cursor, err)
		}

		switch header.VersionKind() {
		case tbf.VersionEndOfChain:
			return nil

		case tbf.VersionUnknown:
			if !force {
				return &UnknownHeaderVersionError{Version: header.Version}
			}
			return nil

		case tbf.VersionSupported:
			cont, err := visit(InstalledApp{FlashAddress: cursor, Header: header})
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
			cursor += header.TotalSize
		}
	}
}

// End walks from start and returns the flash address just past the last
// installed app: either the end-of-chain cursor, or (with force) the
// address of the first unrecognized header.
func (w *Walker) End(ctx context.Context, start uint32, force bool) (uint32, error) {
	end := start
	err := w.Walk(ctx, start, force, func(app InstalledApp) (bool, error) {
		end = app.FlashAddress + app.Header.TotalSize
		return true, nil
	})
	return end, err
}
