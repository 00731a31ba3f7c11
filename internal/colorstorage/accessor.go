package colorstorage

// DataAccessor is the 1-byte value the graph stores in each unitig's small
// data slot: 0 means "stored in the overflow table", and
// 1..H means "stored at slots[hash_{v-1}(head) mod U]".
//
// This byte is written once during Storage construction and never mutated
// again; locking lives in lockTable instead of sharing the byte.
type DataAccessor uint8

// IsOverflow reports whether a is the sentinel selecting the overflow path.
func (a DataAccessor) IsOverflow() bool { return a == overflowUnoccupied }

// SeedIndex returns the hash-seed index a selects. Only meaningful when
// !a.IsOverflow().
func (a DataAccessor) SeedIndex() int { return int(a) - 1 }
