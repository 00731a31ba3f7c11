// Package conv provides safe integer type conversion utilities. The color
// layer uses it at two kinds of boundary: decoding untrusted .bfg_colors
// file headers (unitig/slot counts, overflow-entry counts) and narrowing a
// 64-bit ColorKmerId into the uint32 domain roaring.Bitmap requires once a
// UnitigColors has promoted to its Bitmap representation.
//
// Use direct type casts instead, without going through this package, for
// conversions that are provably safe by local invariants (e.g. a loop index
// already bounded by a slice length).
package conv
