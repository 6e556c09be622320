// Package bootloader implements the host side of the tockloader serial
// bootloader protocol: entering and exiting bootloader mode, page-granular
// flash writes, range reads, erases, and CRC-based verification.
//
// # Overview
//
// Client orchestrates a strict request/response conversation with the
// target:
//   - Enter bootloader mode and confirm the target is alive (ping/pong)
//   - Issue read-range, write-page, erase-page, and CRC commands
//   - Exit bootloader mode, returning control to the installed application
//
// # Basic Usage
//
//	transport, err := serialport.Open("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer transport.Close()
//
//	client := bootloader.New(transport)
//	if err := client.Enter(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Exit()
//
//	if err := client.WritePage(0x30000, page); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	client := bootloader.New(transport,
//	    bootloader.WithLogger(myLogger),
//	    bootloader.WithProgressCallback(progressFunc),
//	    bootloader.WithPingAttempts(30),
//	)
//
// # State Machine
//
// A Client moves through Closed -> Open -> InBootloader -> Closed. Every
// command-issuing method requires InBootloader; calling one outside that
// state returns ErrNotInBootloader without touching the transport. Errors
// never silently transition the state machine.
//
// # Hardware Independence
//
// Client speaks to anything satisfying Device (io.ReadWriter plus the two
// bootloader-entry control methods); internal/serialport.Transport is the
// concrete implementation backed by go.bug.st/serial, but tests drive Client
// over an in-memory fake.
package bootloader
