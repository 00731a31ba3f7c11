// Package ccdbg implements the color-annotation subsystem of a colored
// compacted de Bruijn graph (ccDBG): the per-unitig color container, the
// graph-wide color storage that locates it from a unitig's small data slot,
// and a concurrent builder that streams input sequences into it.
//
// # Quick start
//
//	storage, err := ccdbg.NewColorStorage(graph,
//		ccdbg.WithKmerLength(31),
//		ccdbg.WithNumWorkers(8),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer storage.Close()
//
//	err = storage.Build(ctx, sequences)
//
// # Build
//
// Build streams tagged sequences through a producer-consumer pool: a single
// reader batches sequences into chunks, W workers locate each k-mer's
// mapped unitig span via the graph and insert the sequence's color,
// promoting a unitig's representation along Single, BitVec62, and Bitmap
// as needed. A failed build aborts and its partial ColorStorage must
// be discarded; there is no partial-recovery path.
//
// # Graph mutation
//
// JoinColors and ExtractColors re-index a unitig's colors onto a new k-mer
// count when the graph merges or splits unitigs.
//
// # Persistence
//
// Save writes the `.bfg_colors` companion file to local disk. Load can
// read it back either from local disk or through a pluggable
// blobstore.BlobStore backend (local disk or S3), for deployments that keep
// colors alongside other graph segments in object storage.
package ccdbg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bfgtools/ccdbg/blobstore"
	"github.com/bfgtools/ccdbg/codec"
	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/colorbuilder"
	"github.com/bfgtools/ccdbg/internal/colorstorage"
	"github.com/bfgtools/ccdbg/internal/resource"
	"github.com/bfgtools/ccdbg/internal/unitigcolors"
	"github.com/bfgtools/ccdbg/persistence"
	pubresource "github.com/bfgtools/ccdbg/resource"
)

// ColorStorage is the top-level color-annotation subsystem for one graph:
// the graph-wide color storage plus the builder and resource budget that
// operate over it.
type ColorStorage struct {
	graph     color.Graph
	storage   *colorstorage.Storage
	resources *resource.Controller
	io        *pubresource.Controller
	builder   *colorbuilder.Builder
	opts      options

	closed bool
}

// NewColorStorage runs the one-shot serial init pass over graph, claiming a dense slot for every unitig (or routing it to the
// overflow table), then prepares a builder ready for Build.
func NewColorStorage(graph color.Graph, optFns ...Option) (*ColorStorage, error) {
	o := applyOptions(optFns)
	if o.kmerLength <= 0 {
		return nil, fmt.Errorf("ccdbg: WithKmerLength must be set to a positive k-mer length")
	}

	rc := resource.NewController(o.resourceConfig())

	storage, err := colorstorage.New(graph, colorstorage.Config{
		NumHashSeeds: o.numHashSeeds,
		ColorCount:   len(o.colorNames),
		Mem:          rc,
		OnPromotion:  o.metricsCollector.RecordPromotion,
	})
	if err != nil {
		return nil, translateError(err)
	}

	cs := &ColorStorage{
		graph:     graph,
		storage:   storage,
		resources: rc,
		io:        pubresource.NewController(o.ioResourceConfig()),
		opts:      o,
	}
	cs.builder = colorbuilder.New(graph, storage, colorbuilder.Config{
		K:          uint32(o.kmerLength),
		NumWorkers: o.numWorkers,
		ChunkSize:  o.chunkSize,
	}, builderMetricsAdapter{o.metricsCollector})

	for i := range storage.UnitigCount() {
		if *graph.DataSlot(color.UnitigID(i)) == 0 {
			o.logger.LogOverflow(context.Background(), uint32(i))
			o.metricsCollector.RecordOverflowInsert()
		}
	}
	o.logger.LogInit(context.Background(), storage.UnitigCount(), o.numHashSeeds, storage.OverflowCount())
	return cs, nil
}

// Build streams seqs into storage via the concurrent producer-consumer
// builder, blocking until seqs is drained or ctx is
// cancelled.
func (cs *ColorStorage) Build(ctx context.Context, seqs <-chan colorbuilder.Sequence) error {
	if cs.closed {
		return ErrClosed
	}
	if err := cs.resources.AcquireBackground(ctx); err != nil {
		return err
	}
	defer cs.resources.ReleaseBackground()
	sequences, err := cs.builder.Build(ctx, seqs)
	cs.opts.logger.LogBuild(ctx, sequences, err)
	return translateError(err)
}

// SetColor inserts a single color over um's mapped k-mer range. Returns
// false (with no error) if um is empty.
func (cs *ColorStorage) SetColor(um color.Map, c color.ID) (bool, error) {
	if cs.closed {
		return false, ErrClosed
	}
	if um.Empty {
		return false, nil
	}
	if err := cs.storage.Add(um, c); err != nil {
		return false, translateError(err)
	}
	return true, nil
}

// GetColorSet resolves um to its UnitigColors.
func (cs *ColorStorage) GetColorSet(um color.Map) (*unitigcolors.UnitigColors, error) {
	if cs.closed {
		return nil, ErrClosed
	}
	uc, err := cs.storage.Get(um)
	return uc, translateError(err)
}

// JoinColors merges dest's and src's color sets onto the concatenated
// unitig's k-mer count, re-indexing both sides for the merged unitig.
func (cs *ColorStorage) JoinColors(dest, src *unitigcolors.UnitigColors, destK, srcK uint32, destStrand, srcStrand bool) (*unitigcolors.UnitigColors, error) {
	start := time.Now()
	merged, err := colorbuilder.JoinColors(dest, src, destK, srcK, destStrand, srcStrand, cs.resources)
	cs.opts.metricsCollector.RecordJoin(time.Since(start), err)
	cs.opts.logger.LogJoin(context.Background(), uint32(destK), uint32(srcK), err)
	if err != nil {
		return nil, translateError(err)
	}
	return merged, nil
}

// ExtractColors re-indexes the portion of src's colors covered by um onto a
// fresh UnitigColors with K = um.Len, for use after a unitig split.
func (cs *ColorStorage) ExtractColors(src *unitigcolors.UnitigColors, srcK uint32, um color.Map) (*unitigcolors.UnitigColors, error) {
	start := time.Now()
	extracted, err := colorbuilder.ExtractColors(src, srcK, um.Dist, um.Len, cs.resources)
	cs.opts.metricsCollector.RecordSplit(time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}
	cs.opts.logger.LogSplit(context.Background(), uint32(um.UnitigID), um.Dist, um.Len)
	return extracted, nil
}

// Save writes the `.bfg_colors` companion file to path on local disk,
// atomically replacing any existing file.
func (cs *ColorStorage) Save(path string) error {
	var buf bytes.Buffer
	if err := persistence.WriteColorFile(&buf, cs.snapshot()); err != nil {
		cs.opts.logger.LogSave(context.Background(), path, 0, err)
		return err
	}

	err := persistence.SaveToFile(path, func(w io.Writer) error {
		rl := pubresource.NewRateLimitedWriter(w, cs.io, context.Background())
		_, err := rl.Write(buf.Bytes())
		return err
	})
	cs.opts.logger.LogSave(context.Background(), path, int64(buf.Len()), err)
	return err
}

// Load reads a `.bfg_colors` file from local disk and populates storage's
// dense slots and overflow table, rejecting a unitig count that doesn't
// match the graph.
func (cs *ColorStorage) Load(path string) error {
	var cf *persistence.ColorFile
	err := persistence.LoadFromFile(path, func(r io.Reader) error {
		rl := pubresource.NewRateLimitedReader(r, cs.io, context.Background())
		parsed, err := persistence.ReadColorFile(rl, uint32(cs.storage.UnitigCount()), cs.resources)
		if err != nil {
			return err
		}
		cf = parsed
		return nil
	})
	if err != nil {
		err = translateError(err)
		cs.opts.logger.LogLoad(context.Background(), path, 0, err)
		return err
	}
	cs.restore(cf)
	cs.opts.logger.LogLoad(context.Background(), path, len(cf.Slots), nil)
	return nil
}

// LoadFromBlobStore reads a `.bfg_colors` blob named name through bs,
// for deployments that keep colors in object storage alongside other
// graph segments.
func (cs *ColorStorage) LoadFromBlobStore(ctx context.Context, bs blobstore.BlobStore, name string) error {
	blob, err := bs.Open(ctx, name)
	if err != nil {
		cs.opts.logger.LogLoad(ctx, name, 0, err)
		return err
	}
	defer blob.Close()

	r := io.NewSectionReader(blobReaderAt{ctx: ctx, blob: blob}, 0, blob.Size())
	cf, err := persistence.ReadColorFile(r, uint32(cs.storage.UnitigCount()), cs.resources)
	if err != nil {
		err = translateError(err)
		cs.opts.logger.LogLoad(ctx, name, 0, err)
		return err
	}
	cs.restore(cf)
	cs.opts.logger.LogLoad(ctx, name, len(cf.Slots), nil)
	return nil
}

// blobReaderAt binds a fixed context to a blobstore.Blob so it can satisfy
// the plain io.ReaderAt contract io.NewSectionReader requires.
type blobReaderAt struct {
	ctx  context.Context
	blob blobstore.Blob
}

func (r blobReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return r.blob.ReadAt(r.ctx, p, off)
}

// Close marks the storage unusable. Safe to call more than once.
func (cs *ColorStorage) Close() error {
	cs.closed = true
	return nil
}

// Manifest is a human-inspectable summary of a ColorStorage, sidecar to the
// `.bfg_colors` binary payload.
type Manifest struct {
	Codec         string   `json:"codec"`
	UnitigCount   int      `json:"unitig_count"`
	OverflowCount int      `json:"overflow_count"`
	ColorCount    int      `json:"color_count"`
	ColorNames    []string `json:"color_names,omitempty"`
	HashSeeds     int      `json:"hash_seeds"`
	Promotions    int64    `json:"promotions"`
}

// SaveManifest encodes a Manifest describing the current storage state to
// path, via the configured codec (WithCodec; JSON by default). Unlike the
// `.bfg_colors` binary file, the manifest is not required to load a
// ColorStorage back; it exists for operators and tooling.
func (cs *ColorStorage) SaveManifest(path string) error {
	m := Manifest{
		Codec:         cs.opts.codec.Name(),
		UnitigCount:   cs.storage.UnitigCount(),
		OverflowCount: cs.storage.OverflowCount(),
		ColorCount:    cs.storage.ColorCount(),
		ColorNames:    cs.opts.colorNames,
		HashSeeds:     len(cs.storage.Seeds()),
		Promotions:    unitigcolors.PromotionCount(),
	}
	data, err := cs.opts.codec.Marshal(m)
	if err != nil {
		return err
	}
	return persistence.SaveToFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// LoadManifest decodes a Manifest previously written by SaveManifest. The
// manifest is self-describing: it records the name of the codec that
// encoded it, and a manifest from an unknown codec is rejected rather than
// half-decoded.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := codec.Default.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Codec != "" && m.Codec != codec.Default.Name() {
		c, ok := codec.ByName(m.Codec)
		if !ok {
			return nil, fmt.Errorf("ccdbg: manifest encoded with unknown codec %q", m.Codec)
		}
		if err := c.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (cs *ColorStorage) snapshot() *persistence.ColorFile {
	overflow := make(map[color.Head]*unitigcolors.UnitigColors)
	for head, uc := range cs.storage.OverflowEntries() {
		overflow[head] = uc
	}
	return &persistence.ColorFile{
		ColorCount: uint32(len(cs.opts.colorNames)),
		Seeds:      cs.storage.Seeds(),
		ColorNames: cs.opts.colorNames,
		Overflow:   overflow,
		Slots:      cs.storage.Slots(),
	}
}

func (cs *ColorStorage) restore(cf *persistence.ColorFile) {
	cs.storage.Restore(cf.Slots, cf.Overflow, cf.Seeds)
	cs.opts.colorNames = cf.ColorNames
}

// builderMetricsAdapter adapts the top-level MetricsCollector to the
// narrow interface internal/colorbuilder consumes, keeping that package
// free of a dependency on this one.
type builderMetricsAdapter struct {
	mc MetricsCollector
}

func (a builderMetricsAdapter) RecordBuild(sequences int, duration time.Duration, err error) {
	if a.mc != nil {
		a.mc.RecordBuild(sequences, duration, err)
	}
}
