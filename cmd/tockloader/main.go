// Command tockloader flashes, lists, and manages Tock applications
// installed on a target's internal flash over its serial bootloader.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
