package ops

import (
	"context"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/tock/tockloader-go/appwalker"
	"github.com/tock/tockloader-go/bootloader"
)

// Result summarizes a completed write operation, for the CLI to report
// throughput.
type Result struct {
	Address      uint32
	BytesWritten int
	Elapsed      time.Duration
}

// padToPage pads data up to a multiple of bootloader.PageSize with 0xFF,
// the erased-flash value, returning a fresh slice.
func padToPage(data []byte) []byte {
	rem := len(data) % bootloader.PageSize
	if rem == 0 {
		padded := make([]byte, len(data))
		copy(padded, data)
		return padded
	}
	padded := make([]byte, len(data)+bootloader.PageSize-rem)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = 0xFF
	}
	return padded
}

// Flash pads data to a page boundary, writes it starting at address one
// page at a time, verifies the whole range's CRC against the target's
// reply, and erases the page immediately past the write to leave a clean
// chain boundary.
func Flash(ctx context.Context, client *bootloader.Client, address uint32, data []byte) (Result, error) {
	if err := client.Enter(); err != nil {
		return Result{}, fmt.Errorf("ops: flash: enter bootloader: %w", err)
	}
	defer client.Exit()

	return writePages(ctx, client, address, data)
}

// writePages assumes client is already in bootloader mode. It writes data
// (padded to a page boundary) starting at address, verifies the whole
// range's CRC, and erases the page just past the end.
func writePages(ctx context.Context, client *bootloader.Client, address uint32, data []byte) (Result, error) {
	padded := padToPage(data)
	start := time.Now()
	totalPages := len(padded) / bootloader.PageSize

	for offset := 0; offset < len(padded); offset += bootloader.PageSize {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("ops: flash: cancelled: %w", err)
		}

		page := padded[offset : offset+bootloader.PageSize]
		if err := client.WritePage(address+uint32(offset), page); err != nil {
			return Result{}, fmt.Errorf("ops: flash: write page at 0x%08X: %w", address+uint32(offset), err)
		}

		currentPage := offset/bootloader.PageSize + 1
		client.ReportProgress(bootloader.Progress{
			Phase:        bootloader.PhaseWriting,
			CurrentPage:  currentPage,
			TotalPages:   totalPages,
			Percentage:   100 * float64(currentPage) / float64(totalPages),
			BytesWritten: currentPage * bootloader.PageSize,
			ElapsedTime:  time.Since(start),
		})
	}

	client.ReportProgress(bootloader.Progress{Phase: bootloader.PhaseVerifying, TotalPages: totalPages, Percentage: 100})

	remote, err := client.CRCInternalFlash(address, uint32(len(padded)))
	if err != nil {
		return Result{}, fmt.Errorf("ops: flash: crc check: %w", err)
	}
	local := crc32.ChecksumIEEE(padded)
	if local != remote {
		return Result{}, &bootloader.CRCMismatchError{Local: local, Remote: remote}
	}

	end := address + uint32(len(padded))
	if err := client.ErasePage(end); err != nil {
		return Result{}, fmt.Errorf("ops: flash: erase boundary page at 0x%08X: %w", end, err)
	}

	result := Result{Address: address, BytesWritten: len(padded), Elapsed: time.Since(start)}
	client.ReportProgress(bootloader.Progress{
		Phase:        bootloader.PhaseComplete,
		TotalPages:   totalPages,
		Percentage:   100,
		BytesWritten: result.BytesWritten,
		ElapsedTime:  result.Elapsed,
	})
	return result, nil
}

// Append walks the installed app chain starting at address to find the end
// of chain, then flashes data there. If the walker encounters a header it
// does not recognize and force is false, Append fails with an
// *appwalker.UnknownHeaderVersionError instead of guessing where to write.
func Append(ctx context.Context, client *bootloader.Client, data []byte, address uint32, force bool) (Result, error) {
	if err := client.Enter(); err != nil {
		return Result{}, fmt.Errorf("ops: append: enter bootloader: %w", err)
	}
	defer client.Exit()

	walker := appwalker.New(client)
	cursor, err := walker.End(ctx, address, force)
	if err != nil {
		return Result{}, fmt.Errorf("ops: append: %w", err)
	}

	return writePages(ctx, client, cursor, data)
}
