package ccdbg

import (
	"log/slog"

	"github.com/bfgtools/ccdbg/codec"
	"github.com/bfgtools/ccdbg/internal/resource"
	pubresource "github.com/bfgtools/ccdbg/resource"
)

type options struct {
	codec              codec.Codec
	numWorkers         int
	chunkSize          int
	numHashSeeds       int
	kmerLength         int
	colorNames         []string
	memoryLimitBytes   int64
	ioLimitBytesPerSec int64
	metricsCollector   MetricsCollector
	logger             *Logger
}

// Option configures a Builder or ColorStorage.
//
// Breaking changes are expected while ccdbg is pre-release.
type Option func(*options)

// WithCodec configures the codec used for the optional JSON sidecar file.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithNumWorkers configures the number of worker goroutines the color
// builder partitions sequence chunks across. Mirrors CCDBG_Build_opt's
// nb_threads.
//
// If <= 0, runtime.GOMAXPROCS(0) is used.
func WithNumWorkers(numWorkers int) Option {
	return func(o *options) {
		o.numWorkers = numWorkers
	}
}

// WithChunkSize configures how many sequences the reader goroutine batches
// per chunk before handing it to the worker pool. Mirrors CCDBG_Build_opt's
// read_chunksize.
func WithChunkSize(chunkSize int) Option {
	return func(o *options) {
		o.chunkSize = chunkSize
	}
}

// WithKmerLength configures k, the fixed k-mer length the graph was built
// with. The color builder uses it to walk each input sequence.
func WithKmerLength(k int) Option {
	return func(o *options) {
		o.kmerLength = k
	}
}

// WithNumHashSeeds configures H, the number of independent hash seeds tried
// when claiming a dense slot for a unitig during ColorStorage initialization.
// The spec default is 31.
func WithNumHashSeeds(h int) Option {
	return func(o *options) {
		o.numHashSeeds = h
	}
}

// WithColorNames attaches a human-readable name to each color id, in color-id
// order. These are persisted in the `.bfg_colors` trailer and in the optional
// JSON sidecar. Mirrors CCDBG_Build_opt's filename_colors_in/outputColors
// bookkeeping.
func WithColorNames(names ...string) Option {
	return func(o *options) {
		o.colorNames = names
	}
}

// WithMemoryLimit bounds the memory the ColorStorage may reserve for Bitmap
// promotions. Exceeding it surfaces ErrAllocationFailed from add(). 0 means
// unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimitBytes = bytes
	}
}

// WithIOLimit caps the throughput of Save and Load against the `.bfg_colors`
// file, in bytes per second. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimitBytesPerSec = bytesPerSec
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// build/join/split operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		numHashSeeds:     31,
		chunkSize:        4096,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// resourceConfig derives an internal/resource.Config from the options so the
// builder and storage share a single memory/concurrency budget.
func (o options) resourceConfig() resource.Config {
	return resource.Config{
		MemoryLimitBytes:     o.memoryLimitBytes,
		MaxBackgroundWorkers: int64(max(o.numWorkers, 1)),
	}
}

// ioResourceConfig derives the public resource.Config used to rate-limit
// Save/Load file I/O, kept separate from resourceConfig's internal-package
// memory budget since the two Controller types serve distinct concerns.
func (o options) ioResourceConfig() pubresource.Config {
	return pubresource.Config{
		IOLimitBytesPerSec: o.ioLimitBytesPerSec,
	}
}
