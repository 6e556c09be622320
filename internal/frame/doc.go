// Package frame implements the byte-stuffing wire framing used by the
// tockloader bootloader protocol.
//
// Every request frame is an escaped payload terminated by an escape byte and
// a command byte: escaped_payload + 0xFC + command. Every response frame is
// a fixed two-byte header (escape byte, response code) followed by a
// command-specific number of payload bytes. Escaping doubles any literal
// occurrence of the escape byte inside a payload so the terminator can never
// be mistaken for data.
package frame
