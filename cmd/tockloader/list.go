package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tock/tockloader-go/ops"
)

func newListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List applications installed on the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeTransport, err := openClient(flags)
			if err != nil {
				return err
			}
			defer closeTransport()

			apps, err := ops.List(context.Background(), client, flags.address)
			if err != nil {
				return err
			}

			if len(apps) == 0 {
				fmt.Println("no apps flashed")
				return nil
			}

			for _, app := range apps {
				if flags.verbose {
					fmt.Printf("0x%08X-0x%08X  %s\n", app.FlashAddress, app.EndAddress, app.Name)
				} else {
					fmt.Println(app.Name)
				}
			}
			return nil
		},
	}
}
