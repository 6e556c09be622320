// Package bundle models a multi-variant application archive: an ordered
// set of pre-linked variants of the same logical application, differing in
// link-time fixed addresses or build options. A Bundle is loaded from a TAB
// (Tock Application Bundle) tar archive and is immutable after construction
// except for the explicit SetSticky/SetSize mutators.
package bundle
