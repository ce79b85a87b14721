package escomatch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordExtract is called after each extraction run.
	// docs is the number of input documents, duration is the total time
	// taken, err is nil if successful.
	RecordExtract(docs int, duration time.Duration, err error)

	// RecordEmbedBatch is called after each call to the embedding backend.
	// texts is the batch size.
	RecordEmbedBatch(texts int, duration time.Duration, err error)

	// RecordReferenceBuild is called when a reference embedding set is
	// computed from scratch (a cache miss).
	RecordReferenceBuild(entities int, duration time.Duration)

	// RecordCacheHit is called when a reference embedding set is served
	// from the persistent cache.
	RecordCacheHit()

	// RecordPersistFailure is called when a built reference set could not
	// be written to the cache.
	RecordPersistFailure()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordExtract(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordEmbedBatch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordReferenceBuild(int, time.Duration)    {}
func (NoopMetricsCollector) RecordCacheHit()                            {}
func (NoopMetricsCollector) RecordPersistFailure()                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ExtractCount      atomic.Int64
	ExtractErrors     atomic.Int64
	ExtractDocs       atomic.Int64
	ExtractTotalNanos atomic.Int64
	EmbedBatchCount   atomic.Int64
	EmbedBatchErrors  atomic.Int64
	EmbedBatchTexts   atomic.Int64
	EmbedTotalNanos   atomic.Int64
	ReferenceBuilds   atomic.Int64
	ReferenceEntities atomic.Int64
	CacheHits         atomic.Int64
	PersistFailures   atomic.Int64
}

// RecordExtract implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExtract(docs int, duration time.Duration, err error) {
	b.ExtractCount.Add(1)
	b.ExtractDocs.Add(int64(docs))
	b.ExtractTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExtractErrors.Add(1)
	}
}

// RecordEmbedBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmbedBatch(texts int, duration time.Duration, err error) {
	b.EmbedBatchCount.Add(1)
	b.EmbedBatchTexts.Add(int64(texts))
	b.EmbedTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EmbedBatchErrors.Add(1)
	}
}

// RecordReferenceBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReferenceBuild(entities int, duration time.Duration) {
	b.ReferenceBuilds.Add(1)
	b.ReferenceEntities.Add(int64(entities))
}

// RecordCacheHit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheHit() {
	b.CacheHits.Add(1)
}

// RecordPersistFailure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersistFailure() {
	b.PersistFailures.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ExtractCount:      b.ExtractCount.Load(),
		ExtractErrors:     b.ExtractErrors.Load(),
		ExtractDocs:       b.ExtractDocs.Load(),
		ExtractAvgNanos:   b.getAvgExtractNanos(),
		EmbedBatchCount:   b.EmbedBatchCount.Load(),
		EmbedBatchErrors:  b.EmbedBatchErrors.Load(),
		EmbedBatchTexts:   b.EmbedBatchTexts.Load(),
		ReferenceBuilds:   b.ReferenceBuilds.Load(),
		ReferenceEntities: b.ReferenceEntities.Load(),
		CacheHits:         b.CacheHits.Load(),
		PersistFailures:   b.PersistFailures.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgExtractNanos() int64 {
	count := b.ExtractCount.Load()
	if count == 0 {
		return 0
	}
	return b.ExtractTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ExtractCount      int64
	ExtractErrors     int64
	ExtractDocs       int64
	ExtractAvgNanos   int64
	EmbedBatchCount   int64
	EmbedBatchErrors  int64
	EmbedBatchTexts   int64
	ReferenceBuilds   int64
	ReferenceEntities int64
	CacheHits         int64
	PersistFailures   int64
}
