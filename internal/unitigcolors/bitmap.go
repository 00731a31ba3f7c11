package unitigcolors

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/conv"
)

// ErrIDOutOfRange is returned when a ColorKmerId cannot be represented in
// the Bitmap state's 32-bit id domain. The id was not stored.
var ErrIDOutOfRange = errors.New("unitigcolors: color k-mer id out of range")

// bitmap wraps a compressed roaring bitmap as the Bitmap representation of
// a UnitigColors, pooling *roaring.Bitmap values so promotions and
// deserializations reuse allocations.
//
// roaring.Bitmap stores 32-bit ids. A ColorKmerId is color*K+pos and is
// defined as 64-bit, but in practice stays well under 2^32 for any build
// whose color count times unitig length is realistic; ids that don't fit
// are rejected rather than silently truncated.
type bitmap struct {
	rb *roaring.Bitmap
}

var bitmapPool = sync.Pool{
	New: func() any { return &bitmap{rb: roaring.New()} },
}

func newEmptyBitmap() *bitmap {
	b := bitmapPool.Get().(*bitmap)
	b.rb.Clear()
	return b
}

// free returns the underlying roaring.Bitmap to the pool. Callers must not
// use b after calling free.
func (b *bitmap) free() {
	b.rb.Clear()
	bitmapPool.Put(b)
}

func (b *bitmap) add(id color.KmerID) error {
	v, err := conv.Uint64ToUint32(uint64(id))
	if err != nil {
		return fmt.Errorf("%w: %d exceeds the bitmap's 32-bit domain", ErrIDOutOfRange, uint64(id))
	}
	b.rb.Add(v)
	return nil
}

func (b *bitmap) contains(id color.KmerID) bool {
	v, err := conv.Uint64ToUint32(uint64(id))
	if err != nil {
		return false
	}
	return b.rb.Contains(v)
}

func (b *bitmap) cardinality() uint64 {
	return b.rb.GetCardinality()
}

func (b *bitmap) sizeInBytes() uint64 {
	return b.rb.GetSizeInBytes()
}

func (b *bitmap) optimize() {
	b.rb.RunOptimize()
}

func (b *bitmap) clone() *bitmap {
	return &bitmap{rb: b.rb.Clone()}
}

// forEach calls fn for every id in ascending order, stopping early if fn
// returns false.
func (b *bitmap) forEach(fn func(color.KmerID) bool) {
	it := b.rb.Iterator()
	for it.HasNext() {
		if !fn(color.KmerID(it.Next())) {
			return
		}
	}
}

func (b *bitmap) writeTo(w io.Writer) (int64, error) {
	return b.rb.WriteTo(w)
}

func (b *bitmap) readFrom(r io.Reader) (int64, error) {
	return b.rb.ReadFrom(r)
}
