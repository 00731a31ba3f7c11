package colorbuilder

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/colorstorage"
)

// singleUnitigGraph is a minimal color.Graph exposing one unitig whose
// sequence is known in full, used to exercise the builder's k-mer walk.
type singleUnitigGraph struct {
	seq  []byte
	k    int
	head color.Head
	slot byte
}

func newSingleUnitigGraph(seq string, k int) *singleUnitigGraph {
	return &singleUnitigGraph{seq: []byte(seq), k: k}
}

func (g *singleUnitigGraph) Find(kmer []byte) (color.Map, error) {
	lastPos := len(g.seq) - g.k + 1
	for p := 0; p < lastPos; p++ {
		if bytes.Equal(g.seq[p:p+g.k], kmer) {
			return color.Map{UnitigID: 0, Dist: p, Len: 1, Strand: true}, nil
		}
	}
	return color.Map{Empty: true}, nil
}

func (g *singleUnitigGraph) HeadKmer(color.UnitigID) color.Head { return g.head }
func (g *singleUnitigGraph) KmCount(color.UnitigID) int         { return len(g.seq) - g.k + 1 }
func (g *singleUnitigGraph) UnitigCount() int                   { return 1 }
func (g *singleUnitigGraph) DataSlot(color.UnitigID) *byte      { return &g.slot }

func TestBuilder_Build_TwoColorRanges(t *testing.T) {
	// k=5 over "ACGTACGT" gives K=4 k-mer positions.
	g := newSingleUnitigGraph("ACGTACGT", 5)
	storage, err := colorstorage.New(g, colorstorage.Config{NumHashSeeds: 3, ColorCount: 2})
	require.NoError(t, err)

	b := New(g, storage, Config{K: 5, NumWorkers: 2, ChunkSize: 2}, nil)

	seqs := make(chan Sequence, 6)
	// color 0 over dist=0 len=4: every k-mer in the unitig.
	for p := 0; p < 4; p++ {
		seqs <- Sequence{ColorID: 0, Bases: g.seq[p : p+5]}
	}
	// color 1 over dist=2 len=2.
	for p := 2; p < 4; p++ {
		seqs <- Sequence{ColorID: 1, Bases: g.seq[p : p+5]}
	}
	close(seqs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	processed, err := b.Build(ctx, seqs)
	require.NoError(t, err)
	assert.Equal(t, 6, processed)

	uc, err := storage.Get(color.Map{UnitigID: 0, Dist: 0, Len: 4})
	require.NoError(t, err)

	var got []color.KmerID
	uc.Iter(func(id color.KmerID) bool {
		got = append(got, id)
		return true
	})
	assert.ElementsMatch(t, []color.KmerID{0, 1, 2, 3, 6, 7}, got)
}
