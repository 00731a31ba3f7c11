package unitigcolors

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bfgtools/ccdbg/color"
)

// WriteTo encodes u in the on-disk wire format:
//
//	u8 tag
//	Single:     u64 color_kmer_id
//	BitVec62:   u64 mask_with_tag_bits (bit i+2 set <=> id i present; low 2 bits = 01)
//	Bitmap:     u32 length, length bytes of roaring-encoded payload
//	Unoccupied: (nothing further)
//
// The BitVec62 word keeps the original storage layout on disk: the 62-bit
// mask occupies bits 2..63 with the tag in the low 2 bits, even though the
// in-memory representation holds the mask unshifted.
func (u *UnitigColors) WriteTo(w io.Writer) (int64, error) {
	var n int64
	if err := binary.Write(w, binary.LittleEndian, uint8(u.tag)); err != nil {
		return n, err
	}
	n++

	switch u.tag {
	case TagUnoccupied:
		return n, nil

	case TagSingle:
		if err := binary.Write(w, binary.LittleEndian, uint64(u.single)); err != nil {
			return n, err
		}
		n += 8
		return n, nil

	case TagBitVec62:
		if err := binary.Write(w, binary.LittleEndian, u.mask<<2|uint64(TagBitVec62)); err != nil {
			return n, err
		}
		n += 8
		return n, nil

	case TagBitmap:
		var buf bytes.Buffer
		if u.bitmap != nil {
			if _, err := u.bitmap.writeTo(&buf); err != nil {
				return n, err
			}
		}
		length, err := safeUint32(buf.Len())
		if err != nil {
			return n, err
		}
		if err := binary.Write(w, binary.LittleEndian, length); err != nil {
			return n, err
		}
		n += 4
		m, err := w.Write(buf.Bytes())
		n += int64(m)
		return n, err

	default:
		return n, fmt.Errorf("unitigcolors: cannot encode tag %v", u.tag)
	}
}

// ReadFrom decodes a UnitigColors previously written by WriteTo, replacing
// u's current contents. mem bounds the memory a Bitmap payload may reserve.
func (u *UnitigColors) ReadFrom(r io.Reader, mem MemoryAcquirer) (int64, error) {
	u.release(mem)

	var n int64
	var rawTag uint8
	if err := binary.Read(r, binary.LittleEndian, &rawTag); err != nil {
		return n, err
	}
	n++
	tag := Tag(rawTag)

	switch tag {
	case TagUnoccupied:
		u.tag = TagUnoccupied
		u.mask = 0
		u.single = 0
		return n, nil

	case TagSingle:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return n, err
		}
		n += 8
		u.tag = TagSingle
		u.single = color.KmerID(v)
		return n, nil

	case TagBitVec62:
		var word uint64
		if err := binary.Read(r, binary.LittleEndian, &word); err != nil {
			return n, err
		}
		n += 8
		if Tag(word&3) != TagBitVec62 {
			return n, fmt.Errorf("unitigcolors: bit-vector word has tag bits %d, want %d", word&3, TagBitVec62)
		}
		u.tag = TagBitVec62
		u.mask = word >> 2
		return n, nil

	case TagBitmap:
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return n, err
		}
		n += 4
		if mem != nil {
			if err := mem.AcquireMemory(int64(length)); err != nil {
				return n, err
			}
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return n, err
		}
		n += int64(length)
		b := newEmptyBitmap()
		if _, err := b.readFrom(bytes.NewReader(payload)); err != nil {
			b.free()
			return n, err
		}
		u.tag = TagBitmap
		u.bitmap = b
		u.allocated = true
		return n, nil

	default:
		return n, fmt.Errorf("unitigcolors: unknown tag byte %d", rawTag)
	}
}

func safeUint32(n int) (uint32, error) {
	if n < 0 || uint(n) > 0xffffffff {
		return 0, fmt.Errorf("unitigcolors: bitmap payload too large: %d bytes", n)
	}
	return uint32(n), nil
}
