package ops

import (
	"context"
	"fmt"

	"github.com/tock/tockloader-go/appwalker"
	"github.com/tock/tockloader-go/bootloader"
)

// ListedApp is one row of List's output.
type ListedApp struct {
	FlashAddress uint32
	EndAddress   uint32
	Name         string
}

// List walks the installed app chain starting at address and returns one
// ListedApp per live header found. An empty result means "no apps
// flashed"; printing that message is the caller's concern.
func List(ctx context.Context, client *bootloader.Client, address uint32) ([]ListedApp, error) {
	if err := client.Enter(); err != nil {
		return nil, fmt.Errorf("ops: list: enter bootloader: %w", err)
	}
	defer client.Exit()

	walker := appwalker.New(client)

	var apps []ListedApp
	err := walker.Walk(ctx, address, false, func(app appwalker.InstalledApp) (bool, error) {
		name, err := readInstalledName(client, app)
		if err != nil {
			return false, err
		}
		apps = append(apps, ListedApp{
			FlashAddress: app.FlashAddress,
			EndAddress:   app.FlashAddress + app.Header.TotalSize,
			Name:         name,
		})
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ops: list: %w", err)
	}

	return apps, nil
}
