// Package colorbuilder implements the batched producer-consumer color
// build: a single reader fills chunk buffers with input
// sequences tagged by their source color, and W worker goroutines scan each
// sequence's k-mers against the graph, inserting into ColorStorage.
package colorbuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/colorstorage"
)

// Sequence is one input read tagged with its source color id.
type Sequence struct {
	ColorID color.ID
	Bases   []byte
}

// chunk is a batch of sequences handed from the reader to a worker in one
// piece, bounded by Config.ChunkSize.
type chunk struct {
	sequences []Sequence
}

// Config configures a Builder.
type Config struct {
	// K is the k-mer length used to walk each sequence.
	K uint32
	// NumWorkers is W, the number of worker goroutines partitioning
	// chunks. <= 0 uses runtime.GOMAXPROCS(0).
	NumWorkers int
	// ChunkSize is the number of sequences the reader batches per chunk.
	ChunkSize int
}

// Metrics is the narrow subset of MetricsCollector the builder reports to.
// Its signature matches the top-level MetricsCollector.RecordBuild method,
// so any ccdbg.MetricsCollector satisfies it; ccdbg passes its collector
// through a small nil-checking adapter.
type Metrics interface {
	RecordBuild(sequences int, duration time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordBuild(int, time.Duration, error) {}

// Builder streams sequences into a ColorStorage.
type Builder struct {
	graph   color.Graph
	storage *colorstorage.Storage
	k       uint32
	cfg     Config
	metrics Metrics

	pool  *workerPool
	errCh chan error
}

// New constructs a Builder over graph and storage. If metrics is nil, build
// counts are not reported anywhere.
func New(graph color.Graph, storage *colorstorage.Storage, cfg Config, metrics Metrics) *Builder {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4096
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	b := &Builder{
		graph:   graph,
		storage: storage,
		k:       cfg.K,
		cfg:     cfg,
		metrics: metrics,
		errCh:   make(chan error, 1),
	}
	b.pool = newWorkerPool(cfg.NumWorkers, b.processChunk)
	return b
}

// Build consumes every sequence from seqs, chunking and fanning them out to
// the worker pool, and blocks until all have been processed or ctx is
// cancelled. It returns the number of sequences dispatched. The first worker
// error aborts the build; a failed build leaves storage in an unspecified,
// to-be-discarded state.
func (b *Builder) Build(ctx context.Context, seqs <-chan Sequence) (int, error) {
	start := time.Now()
	total := 0
	var buildErr error
	defer func() {
		b.metrics.RecordBuild(total, time.Since(start), buildErr)
	}()
	defer b.pool.close()

	buf := make([]Sequence, 0, b.cfg.ChunkSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		total += len(buf)
		c := &chunk{sequences: buf}
		buf = make([]Sequence, 0, b.cfg.ChunkSize)
		return b.pool.submit(ctx, c)
	}

loop:
	for {
		select {
		case <-ctx.Done():
			buildErr = ctx.Err()
			break loop
		case err := <-b.errCh:
			buildErr = err
			break loop
		case seq, ok := <-seqs:
			if !ok {
				if err := flush(); err != nil {
					buildErr = err
					break loop
				}
				b.pool.close()
				select {
				case err := <-b.errCh:
					buildErr = err
				default:
				}
				break loop
			}
			buf = append(buf, seq)
			if len(buf) >= b.cfg.ChunkSize {
				if err := flush(); err != nil {
					buildErr = err
					break loop
				}
			}
		}
	}
	return total, buildErr
}

// processChunk is the worker body: for each sequence, walk its k-mers,
// locate the mapped unitig span, and insert the sequence's color over that
// span, advancing by the mapped length to avoid re-locating within the same
// unitig run.
func (b *Builder) processChunk(c *chunk) {
	for _, seq := range c.sequences {
		if err := b.processSequence(seq); err != nil {
			select {
			case b.errCh <- err:
			default:
			}
			return
		}
	}
}

func (b *Builder) processSequence(seq Sequence) error {
	if len(seq.Bases) < int(b.k) {
		return nil
	}
	lastPos := len(seq.Bases) - int(b.k) + 1
	for p := 0; p < lastPos; {
		kmer := seq.Bases[p : p+int(b.k)]
		um, err := b.graph.Find(kmer)
		if err != nil {
			return fmt.Errorf("colorbuilder: find at seq offset %d: %w", p, err)
		}
		if um.Empty {
			p++
			continue
		}
		if err := b.storage.Add(um, seq.ColorID); err != nil {
			return fmt.Errorf("colorbuilder: add color %d to unitig %d: %w", seq.ColorID, um.UnitigID, err)
		}
		if um.Len <= 0 {
			p++
			continue
		}
		p += um.Len
	}
	return nil
}
