package colorbuilder

import (
	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/unitigcolors"
)

// MemoryAcquirer bounds Bitmap-promotion memory; satisfied by
// internal/resource.Controller.
type MemoryAcquirer = unitigcolors.MemoryAcquirer

// JoinColors re-indexes colors for a unitig merge: dest and src are
// re-indexed onto the concatenated unitig's K (= destK + srcK) and combined
// into a fresh UnitigColors. Neither input is mutated; its own orientation
// is normalised to forward first if its strand flag is false.
func JoinColors(dest, src *unitigcolors.UnitigColors, destK, srcK uint32, destStrand, srcStrand bool, mem MemoryAcquirer) (*unitigcolors.UnitigColors, error) {
	destFwd, err := orientForward(dest, destK, destStrand, mem)
	if err != nil {
		return nil, err
	}
	srcFwd, err := orientForward(src, srcK, srcStrand, mem)
	if err != nil {
		return nil, err
	}

	mergedK := destK + srcK
	merged := unitigcolors.New()

	var addErr error
	destFwd.Iter(func(id color.KmerID) bool {
		c := id.Color(destK)
		pos := id.Pos(destK)
		if err := merged.Add(c, int(pos), 1, mergedK, mem); err != nil {
			addErr = err
			return false
		}
		return true
	})
	if addErr != nil {
		return nil, addErr
	}

	srcFwd.Iter(func(id color.KmerID) bool {
		c := id.Color(srcK)
		pos := id.Pos(srcK)
		offsetPos := int(pos) + int(destK)
		if err := merged.Add(c, offsetPos, 1, mergedK, mem); err != nil {
			addErr = err
			return false
		}
		return true
	})
	if addErr != nil {
		return nil, addErr
	}

	return merged, nil
}

// ExtractColors re-indexes colors for a unitig split: every
// ColorKmerId whose position falls within [dist, dist+length) is re-indexed
// onto a fresh UnitigColors with K = length.
func ExtractColors(src *unitigcolors.UnitigColors, srcK uint32, dist, length int, mem MemoryAcquirer) (*unitigcolors.UnitigColors, error) {
	extracted := unitigcolors.New()
	if length <= 0 {
		return extracted, nil
	}

	var addErr error
	src.Iter(func(id color.KmerID) bool {
		c := id.Color(srcK)
		pos := int(id.Pos(srcK))
		if pos < dist || pos >= dist+length {
			return true
		}
		if err := extracted.Add(c, pos-dist, 1, uint32(length), mem); err != nil {
			addErr = err
			return false
		}
		return true
	})
	if addErr != nil {
		return nil, addErr
	}
	return extracted, nil
}

// orientForward returns u unchanged if strand is forward, else a reversed
// clone, so both sides of a join are combined in forward orientation.
func orientForward(u *unitigcolors.UnitigColors, k uint32, strand bool, mem MemoryAcquirer) (*unitigcolors.UnitigColors, error) {
	if strand {
		return u, nil
	}
	clone := u.Clone()
	if err := clone.Reverse(k, mem); err != nil {
		return nil, err
	}
	return clone, nil
}
