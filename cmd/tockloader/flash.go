package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tock/tockloader-go/ops"
)

func newFlashCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "flash <image>",
		Short: "Write an application image to the target's flash",
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

			_, err = ops.Flash(context.Background(), client, flags.address, data)
			return err
		},
	}
}
