package ops

import (
	"context"
	"fmt"

	"github.com/tock/tockloader-go/appwalker"
	"github.com/tock/tockloader-go/bootloader"
	"github.com/tock/tockloader-go/bundle"
	"github.com/tock/tockloader-go/tbf"
)

// Replace walks the installed app chain starting at address looking for an
// app whose name matches the new image's declared name. If found and its
// total_size matches the new image's, it is overwritten in place and
// CRC-verified; a size-class mismatch is a hard error rather than an
// automatic resize. If the walker reaches the end of chain without a
// match, Replace fails with an *AppNotFoundError.
func Replace(ctx context.Context, client *bootloader.Client, data []byte, address uint32) (Result, error) {
	newHeader, err := tbf.Decode(data)
	if err != nil {
		return Result{}, fmt.Errorf("ops: replace: decode new image header: %w", err)
	}
	newName, err := newHeader.GetAppName(data)
	if err != nil {
		return Result{}, fmt.Errorf("ops: replace: read new image name: %w", err)
	}

	if err := client.Enter(); err != nil {
		return Result{}, fmt.Errorf("ops: replace: enter bootloader: %w", err)
	}
	defer client.Exit()

	walker := appwalker.New(client)

	var (
		matchAddr uint32
		matched   *appwalker.InstalledApp
	)
	err = walker.Walk(ctx, address, false, func(app appwalker.InstalledApp) (bool, error) {
		name, err := readInstalledName(client, app)
		if err != nil {
			return false, err
		}
		if name == newName {
			a := app
			matched = &a
			matchAddr = app.FlashAddress
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("ops: replace: %w", err)
	}
	if matched == nil {
		return Result{}, &AppNotFoundError{Name: newName}
	}

	if matched.Header.TotalSize != newHeader.TotalSize {
		return Result{}, &bundle.SizeMismatchError{Want: matched.Header.TotalSize, Have: newHeader.TotalSize}
	}

	return writePages(ctx, client, matchAddr, data)
}

// readInstalledName fetches an installed app's package name directly from
// flash, since InstalledApp.Header only carries the name's offset and
// length, not the bytes themselves.
func readInstalledName(client *bootloader.Client, app appwalker.InstalledApp) (string, error) {
	buf, err := client.ReadRange(app.FlashAddress+app.Header.PackageNameOffset, uint16(app.Header.PackageNameSize))
	if err != nil {
		return "", fmt.Errorf("read package name at 0x%08X: %w", app.FlashAddress, err)
	}
	return string(buf), nil
}
