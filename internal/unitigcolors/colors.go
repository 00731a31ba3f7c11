// Package unitigcolors implements UnitigColors, the per-unitig color
// container: a compact tagged union storing either a single ColorKmerId, a
// 62-bit vector of small ids, or a pointer to a compressed bitmap.
//
// Packing the tag into the low bits of a pointer-sized word is unsafe to
// express directly in Go, so the tag is an explicit discriminant field
// instead, at the cost of one extra machine word per UnitigColors. The tag
// encoding itself — 0=Bitmap, 1=BitVec62, 2=Single, 3=Unoccupied — matches
// the on-disk format bit for bit, so tag values read from disk need no
// translation.
package unitigcolors

import (
	"fmt"
	"sync/atomic"

	"github.com/bfgtools/ccdbg/color"
)

// Tag identifies which of the four physical representations a UnitigColors
// currently holds. The numeric values are part of the on-disk format.
type Tag uint8

const (
	TagBitmap     Tag = 0
	TagBitVec62   Tag = 1
	TagSingle     Tag = 2
	TagUnoccupied Tag = 3
)

func (t Tag) String() string {
	switch t {
	case TagBitmap:
		return "Bitmap"
	case TagBitVec62:
		return "BitVec62"
	case TagSingle:
		return "Single"
	case TagUnoccupied:
		return "Unoccupied"
	default:
		return fmt.Sprintf("Tag(%d)", t)
	}
}

// maxBitVectorIDs is the number of distinct ids a BitVec62 mask can hold.
const maxBitVectorIDs = 62

// UnitigColors is the per-unitig color container. The zero value is not
// Unoccupied: its tag is TagBitmap (0) with no bitmap allocated, an empty
// set. Use New for an Unoccupied value.
//
// Not safe for concurrent mutation without external synchronization; callers
// hold the unitig's lock (see internal/colorstorage) around every Add call.
type UnitigColors struct {
	tag    Tag
	single color.KmerID // valid when tag == TagSingle
	mask   uint64       // valid bits [0,61] when tag == TagBitVec62
	bitmap *bitmap      // valid when tag == TagBitmap

	// allocated tracks whether promotion to Bitmap has reserved memory
	// through a MemoryAcquirer, so Release knows whether to return it.
	allocated bool
}

// MemoryAcquirer bounds the memory a promotion to Bitmap may consume. It is
// satisfied by internal/resource.Controller; a nil acquirer means unlimited.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// bitmapAllocEstimate is the assumed footprint, in bytes, of a freshly
// allocated compressed bitmap container before any ids are added. It is a
// conservative placeholder charged against a MemoryAcquirer at promotion
// time; the real footprint is trued up via GetSizeInBytes on release.
const bitmapAllocEstimate = 256

// promotions is incremented on every promotion so callers (via
// MetricsCollector) can report it; it is not part of the persisted state.
var promotions atomic.Int64

// PromotionCount returns the process-wide count of representation
// promotions. Exposed for tests and for wiring into MetricsCollector.
func PromotionCount() int64 { return promotions.Load() }

// New returns an Unoccupied UnitigColors, matching a slot not yet claimed.
func New() *UnitigColors {
	return &UnitigColors{tag: TagUnoccupied}
}

// Tag returns the current representation tag.
func (u *UnitigColors) Tag() Tag { return u.tag }

// IsUnoccupied reports whether the slot has not yet been claimed.
func (u *UnitigColors) IsUnoccupied() bool { return u.tag == TagUnoccupied }

// SetOccupied transitions an Unoccupied slot to BitVec62 with an empty mask,
// claiming it. It is a no-op if the slot is already occupied.
func (u *UnitigColors) SetOccupied() {
	if u.tag == TagUnoccupied {
		u.tag = TagBitVec62
		u.mask = 0
	}
}

// SetUnoccupied releases any Bitmap this UnitigColors owns and resets it to
// Unoccupied. Used when a unitig's slot is torn down (graph rebuild).
func (u *UnitigColors) SetUnoccupied(mem MemoryAcquirer) {
	u.release(mem)
	u.tag = TagUnoccupied
	u.mask = 0
	u.single = 0
}

// release drops the Bitmap pointer, if any, returning reserved memory to mem.
func (u *UnitigColors) release(mem MemoryAcquirer) {
	if u.tag == TagBitmap && u.bitmap != nil {
		if u.allocated && mem != nil {
			mem.ReleaseMemory(int64(u.bitmap.sizeInBytes()))
		}
		u.bitmap.free()
		u.bitmap = nil
		u.allocated = false
	}
}

// Add inserts every ColorKmerId in the mapping's k-mer range for the given
// color into the set, promoting the representation as needed. K is the
// owning unitig's k-mer count, used to derive ColorKmerIds.
//
// Promotion is monotone and one-way: Unoccupied -> Single -> BitVec62 ->
// Bitmap. It never demotes a set that holds ids; a claimed but still empty
// BitVec62 slot takes the Single state on its first id.
func (u *UnitigColors) Add(c color.ID, dist, length int, k uint32, mem MemoryAcquirer) error {
	if length <= 0 {
		return nil
	}
	for p := dist; p < dist+length; p++ {
		id := color.NewKmerID(c, color.KmerPos(p), k)
		if err := u.addOne(id, mem); err != nil {
			return err
		}
	}
	return nil
}

func (u *UnitigColors) addOne(id color.KmerID, mem MemoryAcquirer) error {
	switch u.tag {
	case TagUnoccupied:
		u.tag = TagSingle
		u.single = id
		return nil

	case TagBitVec62:
		if u.mask == 0 {
			// Claimed but never written (see colorstorage.claim's
			// SetOccupied call): the first real color still goes to
			// Single, so a one-color one-position unitig uses Single.
			u.tag = TagSingle
			u.single = id
			return nil
		}
		if id.FitsBitVec62() && bitIsFree(u.mask, id) {
			u.mask |= 1 << uint64(id)
			return nil
		}
		if id.FitsBitVec62() && bitSet(u.mask, id) {
			return nil // idempotent: already present
		}
		return u.promoteFromBitVec62(id, mem)

	case TagSingle:
		if u.single == id {
			return nil // idempotent
		}
		return u.promoteFromSingle(id, mem)

	case TagBitmap:
		if u.bitmap == nil {
			b, err := newBitmap(mem)
			if err != nil {
				return err
			}
			u.bitmap = b
			u.allocated = true
		}
		return u.bitmap.add(id)

	default:
		return fmt.Errorf("unitigcolors: unknown tag %v", u.tag)
	}
}

// promoteFromBitVec62 allocates a Bitmap, transfers the existing mask bits,
// then continues as Bitmap.
func (u *UnitigColors) promoteFromBitVec62(id color.KmerID, mem MemoryAcquirer) error {
	b, err := newBitmap(mem)
	if err != nil {
		return err
	}
	for i := range uint64(maxBitVectorIDs) {
		if u.mask&(1<<i) != 0 {
			if err := b.add(color.KmerID(i)); err != nil {
				b.free()
				return err
			}
		}
	}
	if err := b.add(id); err != nil {
		b.free()
		return err
	}
	u.tag = TagBitmap
	u.bitmap = b
	u.allocated = true
	u.mask = 0
	promotions.Add(1)
	return nil
}

// promoteFromSingle promotes a Single entry given a second, distinct id.
// If both ids fit the BitVec62 layout the representation steps up to
// BitVec62, matching the monotone Unoccupied -> Single -> BitVec62 ->
// Bitmap ladder; otherwise it jumps straight to Bitmap.
func (u *UnitigColors) promoteFromSingle(id color.KmerID, mem MemoryAcquirer) error {
	if u.single.FitsBitVec62() && id.FitsBitVec62() {
		u.tag = TagBitVec62
		u.mask = 1<<uint64(u.single) | 1<<uint64(id)
		u.single = 0
		promotions.Add(1)
		return nil
	}

	b, err := newBitmap(mem)
	if err != nil {
		return err
	}
	if err := b.add(u.single); err != nil {
		b.free()
		return err
	}
	if err := b.add(id); err != nil {
		b.free()
		return err
	}
	u.tag = TagBitmap
	u.bitmap = b
	u.allocated = true
	promotions.Add(1)
	return nil
}

func bitSet(mask uint64, id color.KmerID) bool {
	return mask&(1<<uint64(id)) != 0
}

func bitIsFree(mask uint64, id color.KmerID) bool {
	return !bitSet(mask, id)
}

func newBitmap(mem MemoryAcquirer) (*bitmap, error) {
	if mem != nil {
		if err := mem.AcquireMemory(bitmapAllocEstimate); err != nil {
			return nil, err
		}
	}
	return newEmptyBitmap(), nil
}

// Contains reports whether every position in [dist, dist+length) has color c
// recorded against it, for the given k-mer count K.
func (u *UnitigColors) Contains(c color.ID, dist, length int, k uint32) bool {
	if length <= 0 {
		return false
	}
	for p := dist; p < dist+length; p++ {
		id := color.NewKmerID(c, color.KmerPos(p), k)
		if !u.containsOne(id) {
			return false
		}
	}
	return true
}

func (u *UnitigColors) containsOne(id color.KmerID) bool {
	switch u.tag {
	case TagUnoccupied:
		return false
	case TagSingle:
		return u.single == id
	case TagBitVec62:
		return id.FitsBitVec62() && bitSet(u.mask, id)
	case TagBitmap:
		return u.bitmap != nil && u.bitmap.contains(id)
	default:
		return false
	}
}

// Size returns the count of distinct ColorKmerIds stored.
func (u *UnitigColors) Size() int {
	switch u.tag {
	case TagUnoccupied:
		return 0
	case TagSingle:
		return 1
	case TagBitVec62:
		return popcount62(u.mask)
	case TagBitmap:
		if u.bitmap == nil {
			return 0
		}
		return int(u.bitmap.cardinality())
	default:
		return 0
	}
}

func popcount62(mask uint64) int {
	count := 0
	for i := range uint64(maxBitVectorIDs) {
		if mask&(1<<i) != 0 {
			count++
		}
	}
	return count
}

// Optimize collapses runs of consecutive ids into run-length segments when
// in Bitmap state. It is a pure, lossless memory-compaction and is optional:
// callers may skip it entirely.
func (u *UnitigColors) Optimize() {
	if u.tag == TagBitmap && u.bitmap != nil {
		u.bitmap.optimize()
	}
}

// Iter calls fn for every stored ColorKmerId in ascending order, stopping
// early if fn returns false.
func (u *UnitigColors) Iter(fn func(color.KmerID) bool) {
	switch u.tag {
	case TagUnoccupied:
		return
	case TagSingle:
		fn(u.single)
	case TagBitVec62:
		for i := range uint64(maxBitVectorIDs) {
			if u.mask&(1<<i) != 0 {
				if !fn(color.KmerID(i)) {
					return
				}
			}
		}
	case TagBitmap:
		if u.bitmap != nil {
			u.bitmap.forEach(fn)
		}
	}
}

// Reverse re-indexes every stored ColorKmerId as if the owning unitig had
// been reverse-complemented: a position p becomes L-1-p, where L is the
// unitig's k-mer count. The color component is unchanged.
func (u *UnitigColors) Reverse(k uint32, mem MemoryAcquirer) error {
	if k == 0 {
		return nil
	}
	wasOccupied := u.tag != TagUnoccupied
	ids := make([]color.KmerID, 0, u.Size())
	u.Iter(func(id color.KmerID) bool {
		ids = append(ids, id)
		return true
	})
	u.SetUnoccupied(mem)
	for _, id := range ids {
		c := id.Color(k)
		pos := id.Pos(k)
		reversed := color.NewKmerID(c, color.KmerPos(k-1)-pos, k)
		if err := u.addOne(reversed, mem); err != nil {
			return err
		}
	}
	if len(ids) == 0 && wasOccupied {
		// An empty but claimed slot stays claimed through a reversal.
		u.SetOccupied()
	}
	return nil
}

// Merge adds every ColorKmerId in other to u, promoting as needed. other is
// left unmodified. Both UnitigColors must use the same K.
func (u *UnitigColors) Merge(other *UnitigColors, mem MemoryAcquirer) error {
	if other == nil {
		return nil
	}
	var addErr error
	other.Iter(func(id color.KmerID) bool {
		if err := u.addOne(id, mem); err != nil {
			addErr = err
			return false
		}
		return true
	})
	return addErr
}

// Clone returns a deep, independent copy of u.
func (u *UnitigColors) Clone() *UnitigColors {
	c := &UnitigColors{tag: u.tag, single: u.single, mask: u.mask}
	if u.tag == TagBitmap && u.bitmap != nil {
		c.bitmap = u.bitmap.clone()
		c.allocated = u.allocated
	}
	return c
}
