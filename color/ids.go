// Package color defines the identifiers and graph-facing interfaces shared by
// the color-annotation subsystem: ColorId, UnitigId, KmerPos, the derived
// ColorKmerId key, and the narrow view of the compacted graph the color
// layer consumes.
package color

import "math/bits"

// ID identifies an input file (or group of sequences); order is file order
// and is fixed for the lifetime of a build.
type ID uint32

// UnitigID is a dense identifier assigned by the graph, stable until rebuild.
type UnitigID uint32

// KmerPos is an offset in [0, L-k] identifying the k-mer starting at that
// position on the forward strand of a unitig.
type KmerPos uint32

// KmerID is the single integer UnitigColors stores: color*K + pos, where K
// is the owning unitig's k-mer count.
type KmerID uint64

// Invalid is the all-ones sentinel returned by a default-constructed
// iterator or by accessor methods given an out-of-range KmerID.
const Invalid KmerID = ^KmerID(0)

// NewKmerID derives a ColorKmerId from a color id and k-mer position given
// the owning unitig's k-mer count K.
func NewKmerID(c ID, pos KmerPos, k uint32) KmerID {
	return KmerID(uint64(c)*uint64(k) + uint64(pos))
}

// Color extracts the color id component of a ColorKmerId given K.
func (id KmerID) Color(k uint32) ID {
	return ID(uint64(id) / uint64(k))
}

// Pos extracts the k-mer position component of a ColorKmerId given K.
func (id KmerID) Pos(k uint32) KmerPos {
	return KmerPos(uint64(id) % uint64(k))
}

// FitsBitVec62 reports whether id can be represented directly as a bit index
// in the 62-bit BitVec62 layout (ids 0..61 only). Implementers must promote
// defensively whenever this is false, per the open question in the design
// notes: the BitVec62 invariant is only sound when color_count*K <= 62.
func (id KmerID) FitsBitVec62() bool {
	return id < 62
}

// Head is a fixed-width packed representation of a unitig's head k-mer,
// used as the overflow table key. The color layer treats it as an opaque,
// comparable value supplied by the graph.
type Head [32]byte

// Hash computes a 64-bit digest of the head k-mer using an independent seed,
// used by ColorStorage's dense-slot claiming scheme (H seeds per unitig).
func (h Head) Hash(seed uint64) uint64 {
	// FNV-1a with a seed folded into the offset basis, applied to the fixed
	// byte representation. Fast and adequate: seeds are process-random, not
	// cryptographic.
	x := 14695981039346656037 ^ seed
	for _, b := range h {
		x ^= uint64(b)
		x *= 1099511628211
	}
	return bits.RotateLeft64(x, int(seed&63))
}
