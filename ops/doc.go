// Package ops implements the four user-facing verbs — flash, append,
// replace, list — as straight-line compositions of a bootloader.Client and
// an appwalker.Walker. Each verb owns its own enter/exit pair; nothing here
// is retried at this layer, matching the wire protocol's one-shot page
// writes.
package ops
