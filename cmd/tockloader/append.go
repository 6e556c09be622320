package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tock/tockloader-go/ops"
)

func newAppendCommand(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "append <image>",
		Short: "Install an application after the last one already on the target",
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

			_, err = ops.Append(context.Background(), client, data, flags.address, force)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "treat an unrecognized installed header as end of chain")
	return cmd
}
