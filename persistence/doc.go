// Package persistence implements the binary `.bfg_colors` companion file:
// a magic/version preamble, the unitig/color/seed header, the overflow and
// dense-slot UnitigColors sections, the NUL-terminated color names, and a
// trailing CRC32C checksum.
//
// PLATFORM REQUIREMENTS:
// - Architecture: amd64 or arm64 only
// - Endianness: Little-endian (native on x86_64 and ARM64)
// - Alignment: 8-byte for uint64 slices
//
// The seed table is written and read through unsafe slice reinterpretation;
// those operations are verified at runtime with alignment checks and
// platform validation. See safety.go for implementation details.
package persistence
