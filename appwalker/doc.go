// Package appwalker walks the chain of installed applications in a target's
// internal flash, reading one AppHeader at a time from the bootloader and
// advancing by each header's total_size until it hits the end of the chain
// or an unrecognized header version.
package appwalker
