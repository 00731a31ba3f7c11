package colorstorage

import (
	"sync"

	"github.com/bfgtools/ccdbg/color"
)

// numStripes is the width of the striped lock table: a fixed number of
// independently-locked stripes rather than one mutex per unitig.
const numStripes = 256

// lockTable splits unitig identity from unitig locking: the DataAccessor
// byte stays immutable after init, and concurrent adds serialise through
// this separate table instead of through a lock bit folded into the
// identity byte.
type lockTable struct {
	stripes [numStripes]sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{}
}

func (lt *lockTable) stripeFor(id color.UnitigID) *sync.Mutex {
	return &lt.stripes[uint32(id)&(numStripes-1)]
}

func (lt *lockTable) lock(id color.UnitigID)   { lt.stripeFor(id).Lock() }
func (lt *lockTable) unlock(id color.UnitigID) { lt.stripeFor(id).Unlock() }
