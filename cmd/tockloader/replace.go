package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tock/tockloader-go/ops"
)

func newReplaceCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <image>",
		Short: "Overwrite an installed application of the same name and size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			client, closeTransport, err := openClient(flags)
			if err != nil {
				return err
			}
			defer closeTransport()

			_, err = ops.Replace(context.Background(), client, data, flags.address)
			return err
		},
	}
}
