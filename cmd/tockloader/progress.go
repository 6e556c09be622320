package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/tock/tockloader-go/bootloader"
)

// newProgressCallback returns a bootloader.ProgressCallback that drives a
// terminal progress bar during the page-write loop, re-created whenever the
// total changes. The other phases print a single status line instead of a
// bar.
func newProgressCallback() bootloader.ProgressCallback {
	var bar *progressbar.ProgressBar

	return func(p bootloader.Progress) {
		switch p.Phase {
		case bootloader.PhaseEntering:
			if p.Attempt <= 1 {
				fmt.Fprintln(os.Stderr, "entering bootloader mode...")
			}
		case bootloader.PhaseWriting:
			if bar == nil || bar.GetMax() != p.TotalPages {
				bar = progressbar.Default(int64(p.TotalPages), "writing")
			}
			bar.Set(p.CurrentPage)
		case bootloader.PhaseVerifying:
			fmt.Fprintln(os.Stderr, "verifying...")
		case bootloader.PhaseExiting:
			fmt.Fprintln(os.Stderr, "resetting target...")
		case bootloader.PhaseComplete:
			if bar != nil {
				_ = bar.Finish()
			}
			fmt.Fprintf(os.Stderr, "wrote %d bytes in %.3f seconds\n", p.BytesWritten, p.ElapsedTime.Seconds())
			fmt.Fprintln(os.Stderr, "CRC check passed")
		}
	}
}
