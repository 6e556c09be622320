// Package serialport owns the serial line to the bootloader: opening the
// port with the parameters the target expects, driving DTR/RTS to select
// bootloader mode, and performing timed reads/writes.
//
// Transport is the only thing in this repository that talks to
// go.bug.st/serial directly; everything above it (bootloader.Client) speaks
// io.ReadWriter plus the two bootloader-entry control methods.
package serialport
