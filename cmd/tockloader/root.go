package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tock/tockloader-go/bootloader"
	"github.com/tock/tockloader-go/internal/serialport"
)

const defaultAppAddress = 0x30000

// globalFlags holds flag values shared across every subcommand.
type globalFlags struct {
	port    string
	make    bool
	address uint32
	verbose bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "tockloader",
		Short:        "Flash and manage Tock applications over a serial bootloader",
		Version:      "0.1.0",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.port, "port", "", "serial port to use (auto-detected if omitted)")
	root.PersistentFlags().BoolVar(&flags.make, "make", false, "run `make` before the operation")
	root.PersistentFlags().Uint32Var(&flags.address, "address", defaultAppAddress, "base flash address of the application region")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(
		newFlashCommand(flags),
		newAppendCommand(flags),
		newReplaceCommand(flags),
		newListCommand(flags),
		newListenCommand(flags),
	)

	return root
}

// newLogger builds the CLI-layer zerolog.Logger, configured by --verbose.
func newLogger(flags *globalFlags) zerolog.Logger {
	level := zerolog.InfoLevel
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// openClient opens the serial port named by flags.port (or auto-detects
// one) and wraps it in a bootloader.Client configured with the CLI's
// logger and progress bar.
func openClient(flags *globalFlags) (*bootloader.Client, func() error, error) {
	if flags.make {
		if err := runMake(); err != nil {
			return nil, nil, fmt.Errorf("make: %w", err)
		}
	}

	transport, err := serialport.Open(flags.port)
	if err != nil {
		return nil, nil, err
	}

	log := newLogger(flags)
	client := bootloader.New(transport,
		bootloader.WithLogger(newZerologShim(log)),
		bootloader.WithProgressCallback(newProgressCallback()),
	)

	return client, transport.Close, nil
}

func runMake() error {
	cmd := exec.Command("make")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
