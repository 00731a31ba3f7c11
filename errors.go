package ccdbg

import (
	"errors"
	"fmt"
	"io"

	"github.com/bfgtools/ccdbg/internal/resource"
	"github.com/bfgtools/ccdbg/internal/unitigcolors"
	"github.com/bfgtools/ccdbg/persistence"
)

var (
	// ErrInvalidColorKmerID is returned when a ColorKmerId falls outside the
	// range permitted by a unitig's k-mer count, or when the all-ones sentinel
	// is passed where a concrete id is required.
	ErrInvalidColorKmerID = errors.New("invalid color-kmer id")

	// ErrIoTruncated is returned when a read encounters fewer bytes than the
	// format requires.
	ErrIoTruncated = errors.New("truncated color file")

	// ErrIoVersionMismatch is returned when a color file's format version is
	// not understood by this build.
	ErrIoVersionMismatch = errors.New("color file version mismatch")

	// ErrAllocationFailed is returned when promoting a UnitigColors to Bitmap
	// state would exceed the configured memory budget.
	ErrAllocationFailed = errors.New("color storage allocation failed")

	// ErrGraphMismatch is returned when a loaded color file's unitig count
	// does not match the graph it is being attached to.
	ErrGraphMismatch = errors.New("color file does not match graph")

	// ErrOverflowInsertFailed is returned when a unitig cannot be claimed in
	// the dense slot array and the overflow table also refuses the insert.
	// Expected to be unreachable with the documented hashing scheme.
	ErrOverflowInsertFailed = errors.New("overflow insert failed")

	// ErrClosed is returned by operations attempted after the builder or
	// storage has been closed.
	ErrClosed = errors.New("color storage is closed")
)

// translateError normalizes lower-level I/O and decode errors into the
// package's typed error kinds so callers can reliably use errors.Is
// regardless of which layer produced the failure.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var cm *persistence.ChecksumMismatchError
	if errors.As(err, &cm) {
		return fmt.Errorf("%w: %w", ErrIoTruncated, err)
	}

	var um *persistence.UnitigCountMismatchError
	if errors.As(err, &um) {
		return fmt.Errorf("%w: %w", ErrGraphMismatch, err)
	}

	if errors.Is(err, persistence.ErrInvalidVersion) {
		return fmt.Errorf("%w: %w", ErrIoVersionMismatch, err)
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrIoTruncated, err)
	}

	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}

	if errors.Is(err, unitigcolors.ErrIDOutOfRange) {
		return fmt.Errorf("%w: %w", ErrInvalidColorKmerID, err)
	}

	return err
}
