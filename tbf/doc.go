// Package tbf decodes and encodes the Tock Binary Format application
// header: the fixed 76-byte little-endian record that prefixes every
// application image in a Tock-compatible device's internal flash.
//
// A version-1 header is fully described by Header. Headers the board
// doesn't recognize (version 0, the 0xFFFFFFFF erased-flash sentinel, or any
// other version number) decode successfully but carry a VersionKind other
// than VersionSupported; callers distinguish "end of chain" from "unknown
// format" by inspecting it rather than by comparing magic numbers at every
// call site.
package tbf
