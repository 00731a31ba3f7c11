package ccdbg

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfgtools/ccdbg/blobstore"
	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/colorbuilder"
	"github.com/bfgtools/ccdbg/internal/unitigcolors"
)

// singleUnitigGraph is a minimal color.Graph exposing one unitig whose
// sequence is known in full, mirroring internal/colorbuilder's test fake.
type singleUnitigGraph struct {
	seq  []byte
	k    int
	head color.Head
	slot byte
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

func TestColorStorage_BuildThenGetColorSet(t *testing.T) {
	g := &singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}
	cs, err := NewColorStorage(g, WithKmerLength(5), WithNumWorkers(2), WithChunkSize(2), WithColorNames("a", "b"))
	require.NoError(t, err)
	defer cs.Close()

	seqs := make(chan colorbuilder.Sequence, 6)
	for p := 0; p < 4; p++ {
		seqs <- colorbuilder.Sequence{ColorID: 0, Bases: g.seq[p : p+5]}
	}
	for p := 2; p < 4; p++ {
		seqs <- colorbuilder.Sequence{ColorID: 1, Bases: g.seq[p : p+5]}
	}
	close(seqs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, cs.Build(ctx, seqs))

	uc, err := cs.GetColorSet(color.Map{UnitigID: 0, Dist: 0, Len: 4})
	require.NoError(t, err)

	var got []color.KmerID
	uc.Iter(func(id color.KmerID) bool {
		got = append(got, id)
		return true
	})
	assert.ElementsMatch(t, []color.KmerID{0, 1, 2, 3, 6, 7}, got)
}

func TestColorStorage_SetColor_RejectsEmptyMapping(t *testing.T) {
	g := &singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}
	cs, err := NewColorStorage(g, WithKmerLength(5))
	require.NoError(t, err)
	defer cs.Close()

	ok, err := cs.SetColor(color.Map{Empty: true}, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestColorStorage_SaveLoad_RoundTrips(t *testing.T) {
	g := &singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}
	cs, err := NewColorStorage(g, WithKmerLength(5), WithColorNames("a", "b"))
	require.NoError(t, err)
	defer cs.Close()

	ok, err := cs.SetColor(color.Map{UnitigID: 0, Dist: 0, Len: 4}, 0)
	require.NoError(t, err)
	require.True(t, ok)

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.bfg_colors")
	require.NoError(t, cs.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	reloaded, err := NewColorStorage(g, WithKmerLength(5))
	require.NoError(t, err)
	defer reloaded.Close()

	require.NoError(t, reloaded.Load(path))

	uc, err := reloaded.GetColorSet(color.Map{UnitigID: 0, Dist: 0, Len: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, uc.Size())
}

func TestColorStorage_LoadFromBlobStore(t *testing.T) {
	g := &singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}
	cs, err := NewColorStorage(g, WithKmerLength(5), WithColorNames("a", "b"))
	require.NoError(t, err)
	defer cs.Close()

	ok, err := cs.SetColor(color.Map{UnitigID: 0, Dist: 0, Len: 4}, 0)
	require.NoError(t, err)
	require.True(t, ok)

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.bfg_colors")
	require.NoError(t, cs.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	require.NoError(t, bs.Put(ctx, "graph.bfg_colors", data))

	reloaded, err := NewColorStorage(g, WithKmerLength(5))
	require.NoError(t, err)
	defer reloaded.Close()

	require.NoError(t, reloaded.LoadFromBlobStore(ctx, bs, "graph.bfg_colors"))

	uc, err := reloaded.GetColorSet(color.Map{UnitigID: 0, Dist: 0, Len: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, uc.Size())
}

func TestColorStorage_SaveManifest(t *testing.T) {
	g := &singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}
	cs, err := NewColorStorage(g, WithKmerLength(5), WithColorNames("a", "b"))
	require.NoError(t, err)
	defer cs.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.manifest.json")
	require.NoError(t, cs.SaveManifest(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"color_names"`)
	assert.Contains(t, string(data), `"unitig_count":1`)
}

// twoUnitigGraph behaves like singleUnitigGraph but reports two unitigs, so
// a file saved against it cannot be loaded against a one-unitig graph.
type twoUnitigGraph struct {
	singleUnitigGraph
	slot1 byte
}

func (g *twoUnitigGraph) UnitigCount() int { return 2 }
func (g *twoUnitigGraph) DataSlot(id color.UnitigID) *byte {
	if id == 1 {
		return &g.slot1
	}
	return &g.slot
}

func TestColorStorage_Load_RejectsUnitigCountMismatch(t *testing.T) {
	g := &twoUnitigGraph{singleUnitigGraph: singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}}
	cs, err := NewColorStorage(g, WithKmerLength(5))
	require.NoError(t, err)
	defer cs.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.bfg_colors")
	require.NoError(t, cs.Save(path))

	single := &singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}
	reloaded, err := NewColorStorage(single, WithKmerLength(5))
	require.NoError(t, err)
	defer reloaded.Close()

	err = reloaded.Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphMismatch)
}

func TestColorStorage_JoinAndExtractColors(t *testing.T) {
	g := &singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}
	cs, err := NewColorStorage(g, WithKmerLength(5))
	require.NoError(t, err)
	defer cs.Close()

	// dest K=4 holding only color 0 over every position, src K=3 holding
	// color 1 over every position, both forward.
	dest := unitigcolors.New()
	require.NoError(t, dest.Add(0, 0, 4, 4, nil))
	src := unitigcolors.New()
	require.NoError(t, src.Add(1, 0, 3, 3, nil))

	merged, err := cs.JoinColors(dest, src, 4, 3, true, true)
	require.NoError(t, err)

	var got []color.KmerID
	merged.Iter(func(id color.KmerID) bool {
		got = append(got, id)
		return true
	})
	assert.ElementsMatch(t, []color.KmerID{0, 1, 2, 3, 11, 12, 13}, got)

	extracted, err := cs.ExtractColors(merged, 7, color.Map{Dist: 0, Len: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, extracted.Size())
	assert.True(t, extracted.Contains(0, 0, 4, 4))
}

// multiUnitigGraph exposes n unitigs with distinct heads and no sequence
// lookup, enough to exercise slot claiming and persistence at a scale where
// accessor bytes actually matter.
type multiUnitigGraph struct {
	heads []color.Head
	slots []byte
	km    int
}

func newMultiUnitigGraph(n, km int) *multiUnitigGraph {
	g := &multiUnitigGraph{
		heads: make([]color.Head, n),
		slots: make([]byte, n),
		km:    km,
	}
	for i := range n {
		g.heads[i][0] = byte(i)
		g.heads[i][1] = byte(i >> 8)
		g.heads[i][2] = 0xC7
	}
	return g
}

func (g *multiUnitigGraph) Find([]byte) (color.Map, error) { return color.Map{Empty: true}, nil }
func (g *multiUnitigGraph) HeadKmer(id color.UnitigID) color.Head { return g.heads[id] }
func (g *multiUnitigGraph) KmCount(color.UnitigID) int            { return g.km }
func (g *multiUnitigGraph) UnitigCount() int                      { return len(g.heads) }
func (g *multiUnitigGraph) DataSlot(id color.UnitigID) *byte      { return &g.slots[id] }

func TestColorStorage_SaveLoad_ManyUnitigs(t *testing.T) {
	const n = 64
	g := newMultiUnitigGraph(n, 4)
	cs, err := NewColorStorage(g, WithKmerLength(5), WithColorNames("a", "b"))
	require.NoError(t, err)
	defer cs.Close()

	for i := range n {
		ok, err := cs.SetColor(color.Map{UnitigID: color.UnitigID(i), Dist: i % 4, Len: 1}, color.ID(i%2))
		require.NoError(t, err)
		require.True(t, ok)
	}

	path := filepath.Join(t.TempDir(), "graph.bfg_colors")
	require.NoError(t, cs.Save(path))

	// A fresh graph instance starts with blank accessor bytes, and the new
	// storage claims its slots under different random seeds; Load must
	// rebind every accessor byte to the file's seeds.
	g2 := newMultiUnitigGraph(n, 4)
	reloaded, err := NewColorStorage(g2, WithKmerLength(5), WithColorNames("a", "b"))
	require.NoError(t, err)
	defer reloaded.Close()
	require.NoError(t, reloaded.Load(path))

	for i := range n {
		uc, err := reloaded.GetColorSet(color.Map{UnitigID: color.UnitigID(i)})
		require.NoError(t, err)
		assert.True(t, uc.Contains(color.ID(i%2), i%4, 1, 4), "unitig %d lost its color across save/load", i)
	}
}

func TestColorStorage_ManifestRoundTrip(t *testing.T) {
	g := &singleUnitigGraph{seq: []byte("ACGTACGT"), k: 5}
	cs, err := NewColorStorage(g, WithKmerLength(5), WithColorNames("a", "b"))
	require.NoError(t, err)
	defer cs.Close()

	path := filepath.Join(t.TempDir(), "graph.manifest.json")
	require.NoError(t, cs.SaveManifest(path))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "json", m.Codec)
	assert.Equal(t, 1, m.UnitigCount)
	assert.Equal(t, 2, m.ColorCount)
	assert.Equal(t, []string{"a", "b"}, m.ColorNames)
}
