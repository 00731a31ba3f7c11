// Package colorstorage implements ColorStorage: the dense per-unitig
// UnitigColors array plus its overflow hash table, addressed by the
// DataAccessor byte the graph stores alongside each unitig.
//
// The dense backing array is a container.SegmentedArray: it is sized once
// at init and never grows afterward, but its lock-free Get lets concurrent
// Add calls on different unitigs resolve their slot without contending on
// a single mutex.
package colorstorage

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/container"
	"github.com/bfgtools/ccdbg/internal/unitigcolors"
)

// DefaultHashSeeds is H, the number of independent hash functions tried when
// claiming a dense slot for a unitig during initialization.
const DefaultHashSeeds = 31

// overflowUnoccupied marks a DataAccessor byte whose unitig missed every
// seed and was routed to the overflow table.
const overflowUnoccupied = 0

// MemoryAcquirer bounds Bitmap-promotion memory; satisfied by
// internal/resource.Controller.
type MemoryAcquirer = unitigcolors.MemoryAcquirer

type overflowEntry struct {
	head   color.Head
	colors *unitigcolors.UnitigColors
}

// Storage holds every UnitigColors for a graph: a dense array sized to the
// unitig count plus an overflow table for unitigs that missed every hash
// seed.
type Storage struct {
	graph color.Graph

	slots    *container.SegmentedArray[*unitigcolors.UnitigColors]
	numSlots int

	overflowMu sync.RWMutex
	overflow   map[color.Head]*overflowEntry

	seeds       []uint64
	locks       *lockTable
	mem         MemoryAcquirer
	onPromotion func()

	colorCount int
}

// Config configures Storage construction.
type Config struct {
	NumHashSeeds int
	ColorCount   int
	Mem          MemoryAcquirer
	Seeds        []uint64 // optional: fixed seeds, for reproducible tests

	// OnPromotion, if non-nil, is invoked (under the unitig's lock) at most
	// once per Add call, when the call leaves the UnitigColors at a higher
	// tagRank than it found it at a rank above 0. A claimed but empty dense
	// slot has rank 2 (BitVec62), so its first id (to Single) is not counted,
	// and several promotions within one Add count once.
	OnPromotion func()
}

// New builds a Storage for graph and runs the one-shot serial init pass:
// every unitig tries its H hash seeds in order
// and claims the first Unoccupied slot it finds, falling back to the
// overflow table if all seeds collide.
func New(graph color.Graph, cfg Config) (*Storage, error) {
	h := cfg.NumHashSeeds
	if h <= 0 {
		h = DefaultHashSeeds
	}
	seeds := cfg.Seeds
	if len(seeds) == 0 {
		seeds = randomSeeds(h)
	} else if len(seeds) != h {
		return nil, fmt.Errorf("colorstorage: got %d seeds, want %d", len(seeds), h)
	}

	u := graph.UnitigCount()
	s := &Storage{
		graph:       graph,
		slots:       container.NewSegmentedArray[*unitigcolors.UnitigColors](),
		numSlots:    u,
		overflow:    make(map[color.Head]*overflowEntry),
		seeds:       seeds,
		locks:       newLockTable(),
		mem:         cfg.Mem,
		onPromotion: cfg.OnPromotion,
		colorCount:  cfg.ColorCount,
	}
	for i := 0; i < u; i++ {
		s.slots.Set(uint32(i), unitigcolors.New())
	}

	for id := range u {
		unitigID := color.UnitigID(id)
		s.claim(unitigID)
	}
	return s, nil
}

func (s *Storage) slotAt(idx uint64) *unitigcolors.UnitigColors {
	uc, _ := s.slots.Get(uint32(idx))
	return uc
}

// claim runs the per-unitig portion of the init algorithm: try each seed in
// turn, claim the first Unoccupied dense slot found, else fall back to the
// overflow table.
func (s *Storage) claim(id color.UnitigID) {
	head := s.graph.HeadKmer(id)
	slot := s.graph.DataSlot(id)

	for i, seed := range s.seeds {
		idx := head.Hash(seed) % uint64(s.numSlots)
		uc := s.slotAt(idx)
		if uc.IsUnoccupied() {
			uc.SetOccupied()
			*slot = byte(i + 1)
			return
		}
	}

	*slot = overflowUnoccupied
	s.overflowMu.Lock()
	s.overflow[head] = &overflowEntry{head: head, colors: unitigcolors.New()}
	s.overflowMu.Unlock()
}

// Get resolves um to its UnitigColors via the accessor byte: overflow
// table when 0, else the dense slot its seed hashes to.
func (s *Storage) Get(um color.Map) (*unitigcolors.UnitigColors, error) {
	accessor := DataAccessor(*s.graph.DataSlot(um.UnitigID))
	if accessor.IsOverflow() {
		head := s.graph.HeadKmer(um.UnitigID)
		s.overflowMu.RLock()
		entry, ok := s.overflow[head]
		s.overflowMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("colorstorage: unitig %d missing from overflow table", um.UnitigID)
		}
		return entry.colors, nil
	}

	seed := s.seeds[accessor.SeedIndex()]
	idx := s.graph.HeadKmer(um.UnitigID).Hash(seed) % uint64(s.numSlots)
	return s.slotAt(idx), nil
}

// Add locks the unitig identified by um and inserts color c over its
// mapped range. The DataAccessor byte is immutable identity only; locking
// lives in a separate striped table keyed by unitig id.
func (s *Storage) Add(um color.Map, c color.ID) error {
	uc, err := s.Get(um)
	if err != nil {
		return err
	}
	k := s.graph.KmCount(um.UnitigID)
	s.locks.lock(um.UnitigID)
	defer s.locks.unlock(um.UnitigID)
	before := tagRank(uc.Tag())
	err = uc.Add(c, um.Dist, um.Len, uint32(k), s.mem)
	if err == nil && s.onPromotion != nil && tagRank(uc.Tag()) > before && before > 0 {
		s.onPromotion()
	}
	return err
}

// tagRank orders the representations along the promotion ladder. Leaving
// Unoccupied (rank 0, an overflow entry's first id) is not counted as a
// promotion.
func tagRank(t unitigcolors.Tag) int {
	switch t {
	case unitigcolors.TagSingle:
		return 1
	case unitigcolors.TagBitVec62:
		return 2
	case unitigcolors.TagBitmap:
		return 3
	default:
		return 0
	}
}

// ColorCount returns C, the number of distinct input colors this storage
// was configured for.
func (s *Storage) ColorCount() int { return s.colorCount }

// UnitigCount returns U, the size of the dense slot array.
func (s *Storage) UnitigCount() int { return s.numSlots }

// OverflowCount returns the number of unitigs routed to the overflow table.
func (s *Storage) OverflowCount() int {
	s.overflowMu.RLock()
	defer s.overflowMu.RUnlock()
	return len(s.overflow)
}

// Seeds returns the H hash seeds in use, for persistence.
func (s *Storage) Seeds() []uint64 {
	out := make([]uint64, len(s.seeds))
	copy(out, s.seeds)
	return out
}

// Slots materializes the dense slot array as a plain slice, for
// persistence. Each element is a copy of the corresponding slot's value at
// the time of the call; callers must not call Slots concurrently with
// in-flight Add calls.
func (s *Storage) Slots() []unitigcolors.UnitigColors {
	out := make([]unitigcolors.UnitigColors, s.numSlots)
	for i := 0; i < s.numSlots; i++ {
		out[i] = *s.slotAt(uint64(i))
	}
	return out
}

// OverflowEntries returns a snapshot of the overflow table keyed by unitig
// head, for persistence.
func (s *Storage) OverflowEntries() map[color.Head]*unitigcolors.UnitigColors {
	s.overflowMu.RLock()
	defer s.overflowMu.RUnlock()
	out := make(map[color.Head]*unitigcolors.UnitigColors, len(s.overflow))
	for head, entry := range s.overflow {
		out[head] = entry.colors
	}
	return out
}

// Restore replaces the dense slots and overflow table with decoded contents
// loaded from a color file, and adopts its hash seeds. The caller is
// responsible for having verified the unitig count already matches this
// Storage's graph.
//
// The graph's per-unitig accessor bytes were written by New against this
// process's own random seeds, so after adopting the file's seeds they are
// rewritten by replaying the claim algorithm. The replay reproduces the
// byte values in effect when the file was written: claiming is
// deterministic given the seeds and the graph's unitig order.
func (s *Storage) Restore(slots []unitigcolors.UnitigColors, overflow map[color.Head]*unitigcolors.UnitigColors, seeds []uint64) {
	newSlots := container.NewSegmentedArray[*unitigcolors.UnitigColors]()
	for i := range slots {
		v := slots[i]
		newSlots.Set(uint32(i), &v)
	}
	s.slots = newSlots
	s.numSlots = len(slots)

	s.overflowMu.Lock()
	newOverflow := make(map[color.Head]*overflowEntry, len(overflow))
	for head, colors := range overflow {
		newOverflow[head] = &overflowEntry{head: head, colors: colors}
	}
	s.overflow = newOverflow
	s.overflowMu.Unlock()
	s.seeds = seeds

	s.replayAccessors()
}

// replayAccessors rewrites every unitig's accessor byte under the current
// seeds, walking unitigs in graph order and handing each the first dense
// slot index no earlier unitig has taken.
func (s *Storage) replayAccessors() {
	claimed := make(map[uint64]struct{}, s.numSlots)
	for id := range s.numSlots {
		unitigID := color.UnitigID(id)
		head := s.graph.HeadKmer(unitigID)
		slot := s.graph.DataSlot(unitigID)
		*slot = overflowUnoccupied
		for i, seed := range s.seeds {
			idx := head.Hash(seed) % uint64(s.numSlots)
			if _, taken := claimed[idx]; !taken {
				claimed[idx] = struct{}{}
				*slot = byte(i + 1)
				break
			}
		}
	}
}

func randomSeeds(h int) []uint64 {
	seeds := make([]uint64, h)
	for i := range seeds {
		seeds[i] = rand.Uint64()
	}
	return seeds
}
