package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tock/tockloader-go/internal/serialport"
)

func newListenCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print the target's serial output until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, err := serialport.Open(flags.port)
			if err != nil {
				return err
			}
			defer transport.Close()

			_, err = io.Copy(os.Stdout, transport)
			return err
		},
	}
}
