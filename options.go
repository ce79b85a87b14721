package escomatch

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hupe1980/escomatch/blobstore"
	"github.com/hupe1980/escomatch/codec"
	"github.com/hupe1980/escomatch/compress"
	"github.com/hupe1980/escomatch/taxonomy"
)

const (
	// DefaultSkillThreshold is the minimum cosine similarity a skill match
	// must exceed. Matches at exactly the threshold are excluded.
	DefaultSkillThreshold float32 = 0.6

	// DefaultOccupationThreshold is the minimum cosine similarity an
	// occupation or occupation-group match must exceed.
	DefaultOccupationThreshold float32 = 0.55
)

type options struct {
	skillThreshold      float32
	occupationThreshold float32
	maxSentenceWords    int
	blobs               blobstore.BlobStore
	codec               codec.Codec
	compressor          compress.Compressor
	device              string
	concurrency         int
	metricsCollector    MetricsCollector
	logger              *Logger
}

// Option configures Extractor construction.
type Option func(*options)

// WithSkillThreshold sets the similarity threshold for the skill category.
// A sentence matches an entity only when similarity is strictly greater
// than the threshold. Must lie in [-1, 1].
func WithSkillThreshold(t float32) Option {
	return func(o *options) {
		o.skillThreshold = t
	}
}

// WithOccupationThreshold sets the similarity threshold for the occupation
// and occupation-group categories. Must lie in [-1, 1].
func WithOccupationThreshold(t float32) Option {
	return func(o *options) {
		o.occupationThreshold = t
	}
}

// WithMaxSentenceWords enables extractive summarization of sentences longer
// than maxWords before they are embedded. Long run-on sentences dilute
// embeddings toward the mean and miss matches; summarization keeps the most
// salient clauses. A value <= 0 (the default) disables it.
func WithMaxSentenceWords(maxWords int) Option {
	return func(o *options) {
		o.maxSentenceWords = maxWords
	}
}

// WithBlobStore sets the store backing the persistent reference-embedding
// cache. Defaults to a local directory under the user cache dir. Use
// blobstore.NewMemoryStore() for a cache that does not outlive the process,
// or the s3/minio stores for a cache shared between instances.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		if bs != nil {
			o.blobs = bs
		}
	}
}

// WithCodec configures the codec used for cache records.
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

// WithCompressor configures the compressor used for cache records.
//
// If nil is passed, compress.Default is used.
func WithCompressor(c compress.Compressor) Option {
	return func(o *options) {
		if c == nil {
			c = compress.Default
		}
		o.compressor = c
	}
}

// WithDevice passes a compute device hint ("cpu", "cuda", ...) to the
// embedding provider. Ignored by providers that do not implement
// embedding.DeviceConfigurable.
func WithDevice(device string) Option {
	return func(o *options) {
		o.device = device
	}
}

// WithConcurrency bounds how many documents are embedded and scored in
// parallel. Defaults to runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &escomatch.BasicMetricsCollector{}
//	ex, _ := escomatch.New(source, provider, escomatch.WithMetricsCollector(metrics))
//	// ... use ex ...
//	stats := metrics.GetStats()
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
//
// Example with JSON logging:
//
//	logger := escomatch.NewJSONLogger(slog.LevelInfo)
//	ex, _ := escomatch.New(source, provider, escomatch.WithLogger(logger))
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
		skillThreshold:      DefaultSkillThreshold,
		occupationThreshold: DefaultOccupationThreshold,
		concurrency:         runtime.GOMAXPROCS(0),
		metricsCollector:    NoopMetricsCollector{},
		logger:              NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.blobs == nil {
		o.blobs = defaultBlobStore()
	}
	return o
}

func (o *options) thresholdFor(category taxonomy.Category) float32 {
	if category == taxonomy.CategorySkill {
		return o.skillThreshold
	}
	return o.occupationThreshold
}

// defaultBlobStore places the cache under the OS user cache directory,
// falling back to the working directory when none is available.
func defaultBlobStore() blobstore.BlobStore {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return blobstore.NewLocalStore(filepath.Join(dir, "escomatch"))
}
