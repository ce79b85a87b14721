package escomatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/escomatch/cache"
	"github.com/hupe1980/escomatch/embedding"
	"github.com/hupe1980/escomatch/segment"
	"github.com/hupe1980/escomatch/taxonomy"
)

// Extractor maps free-form documents to taxonomy entity IDs by comparing
// sentence embeddings against cached reference embeddings.
// Safe for concurrent use.
type Extractor struct {
	source     taxonomy.Source
	provider   embedding.Provider
	cache      *cache.Store
	summarizer *segment.Summarizer
	opts       options

	mu        sync.RWMutex
	snapshots map[taxonomy.Category]*taxonomy.Snapshot
}

// New creates an Extractor over a taxonomy source and an embedding provider.
//
// The provider's model name keys the reference-embedding cache: switching
// models gets a fresh cache record instead of scoring against stale vectors.
func New(source taxonomy.Source, provider embedding.Provider, optFns ...Option) (*Extractor, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil taxonomy source", ErrInvalidInput)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: nil embedding provider", ErrInvalidInput)
	}

	opts := applyOptions(optFns)

	if t := opts.skillThreshold; t < -1 || t > 1 {
		return nil, &InvalidThresholdError{Category: taxonomy.CategorySkill, Threshold: t}
	}
	if t := opts.occupationThreshold; t < -1 || t > 1 {
		return nil, &InvalidThresholdError{Category: taxonomy.CategoryOccupation, Threshold: t}
	}

	if opts.device != "" {
		if dc, ok := provider.(embedding.DeviceConfigurable); ok {
			dc.SetDevice(opts.device)
		}
	}

	cacheOpts := []cache.Option{
		cache.WithLogger(opts.logger.Logger),
	}
	if opts.codec != nil {
		cacheOpts = append(cacheOpts, cache.WithCodec(opts.codec))
	}
	if opts.compressor != nil {
		cacheOpts = append(cacheOpts, cache.WithCompressor(opts.compressor))
	}

	return &Extractor{
		source:     source,
		provider:   provider,
		cache:      cache.New(opts.blobs, cacheOpts...),
		summarizer: segment.NewSummarizer(opts.maxSentenceWords),
		opts:       opts,
		snapshots:  make(map[taxonomy.Category]*taxonomy.Snapshot),
	}, nil
}

// Extract maps each document to the set of entity IDs of the given category
// whose best sentence similarity exceeds the category threshold.
//
// The result has one ID list per input document, in input order; IDs within
// a list follow taxonomy source order. Two calls with equal inputs, cache
// state, and thresholds produce identical output. An empty document yields
// an empty set without calling the embedding backend; an empty document
// list is ErrInvalidInput.
func (e *Extractor) Extract(ctx context.Context, documents []string, category taxonomy.Category) ([][]string, error) {
	start := time.Now()
	results, err := e.extract(ctx, documents, category)

	duration := time.Since(start)
	e.opts.metricsCollector.RecordExtract(len(documents), duration, err)
	e.opts.logger.LogExtract(ctx, category, len(documents), duration, err)

	return results, err
}

// ExtractSkills is shorthand for Extract with the skill category.
func (e *Extractor) ExtractSkills(ctx context.Context, documents []string) ([][]string, error) {
	return e.Extract(ctx, documents, taxonomy.CategorySkill)
}

// ExtractOccupations is shorthand for Extract with the occupation category.
// Depending on the dataset layout this includes occupation-group codes.
func (e *Extractor) ExtractOccupations(ctx context.Context, documents []string) ([][]string, error) {
	return e.Extract(ctx, documents, taxonomy.CategoryOccupation)
}

func (e *Extractor) extract(ctx context.Context, documents []string, category taxonomy.Category) ([][]string, error) {
	if len(documents) == 0 {
		return nil, fmt.Errorf("%w: empty document list", ErrInvalidInput)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}

	snapshot, err := e.snapshot(ctx, category)
	if err != nil {
		return nil, err
	}

	refs, err := e.referenceEmbeddings(ctx, category, snapshot)
	if err != nil {
		return nil, err
	}

	threshold := e.opts.thresholdFor(category)

	results := make([][]string, len(documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.concurrency)

	for i, doc := range documents {
		g.Go(func() error {
			ids, err := e.extractOne(gctx, doc, snapshot, refs, threshold)
			if err != nil {
				return err
			}
			results[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (e *Extractor) extractOne(ctx context.Context, doc string, snapshot *taxonomy.Snapshot, refs map[string][]float32, threshold float32) ([]string, error) {
	sentences := segment.Split(doc)
	if len(sentences) == 0 {
		return []string{}, nil
	}

	if e.summarizer.Enabled() {
		for i, s := range sentences {
			sentences[i] = e.summarizer.Summarize(s)
		}
	}

	vecs, err := e.embedBatch(ctx, sentences)
	if err != nil {
		return nil, err
	}

	return matchDocument(vecs, snapshot, refs, threshold)
}

// referenceEmbeddings loads or builds the reference vectors for one category.
// A persist failure is logged and reported to metrics but does not fail the
// call: the freshly built vectors are still correct.
func (e *Extractor) referenceEmbeddings(ctx context.Context, category taxonomy.Category, snapshot *taxonomy.Snapshot) (map[string][]float32, error) {
	built := false
	start := time.Now()

	refs, err := e.cache.GetOrBuild(ctx, category, e.provider.ModelName(), snapshot.Entities(),
		func(ctx context.Context, texts []string) ([][]float32, error) {
			built = true
			return e.embedBatch(ctx, texts)
		})

	var perr *cache.PersistError
	if errors.As(err, &perr) {
		e.opts.logger.LogPersistFailure(ctx, perr.Key, perr)
		e.opts.metricsCollector.RecordPersistFailure()
		err = nil
	}
	if err != nil {
		return nil, err
	}

	if built {
		duration := time.Since(start)
		e.opts.metricsCollector.RecordReferenceBuild(snapshot.Len(), duration)
		e.opts.logger.LogReferenceBuild(ctx, category, snapshot.Len(), duration)
	} else {
		e.opts.metricsCollector.RecordCacheHit()
	}

	return refs, nil
}

func (e *Extractor) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.provider.EmbedBatch(ctx, texts)
	e.opts.metricsCollector.RecordEmbedBatch(len(texts), time.Since(start), err)
	if err != nil {
		return nil, translateProviderError(err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrProvider, len(vecs), len(texts))
	}
	return vecs, nil
}

// snapshot loads and memoizes the taxonomy snapshot for one category.
// Sources are read-only for the process lifetime, so one load suffices.
func (e *Extractor) snapshot(ctx context.Context, category taxonomy.Category) (*taxonomy.Snapshot, error) {
	e.mu.RLock()
	snap, ok := e.snapshots[category]
	e.mu.RUnlock()
	if ok {
		return snap, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if snap, ok := e.snapshots[category]; ok {
		return snap, nil
	}

	snap, err := e.source.Load(ctx, category)
	if err != nil {
		return nil, err
	}
	e.snapshots[category] = snap
	return snap, nil
}

// ResetCache deletes persisted reference embeddings for the given model
// name, or for all models when modelName is empty. The next Extract call
// recomputes from scratch. This is the supported path for picking up a new
// embedding model or a changed taxonomy.
func (e *Extractor) ResetCache(ctx context.Context, modelName string) error {
	var err error
	if modelName == "" {
		err = e.cache.InvalidateAll(ctx)
	} else {
		err = e.cache.Invalidate(ctx, modelName)
	}
	e.opts.logger.LogCacheReset(ctx, modelName, err)
	return err
}
