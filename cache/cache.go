// Package cache persists reference-entity embeddings keyed by
// (category, model name) so they are computed once and reused across runs.
//
// Records are immutable: they are built in full on first use, read on every
// subsequent use, and removed only by explicit invalidation. There is no
// partial update and no automatic staleness detection - picking up a new
// model or a changed taxonomy requires Invalidate.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/escomatch/blobstore"
	"github.com/hupe1980/escomatch/codec"
	"github.com/hupe1980/escomatch/compress"
	"github.com/hupe1980/escomatch/taxonomy"
)

// ErrSnapshotMismatch is returned when a persisted record does not cover the
// entity set the caller passed. A curated reference set drifting from its
// cache is a caller error; rebuilding silently could mask a storage or
// deployment bug, so it never triggers recomputation.
var ErrSnapshotMismatch = errors.New("cached record does not match taxonomy snapshot")

// CorruptError indicates an unreadable or undecodable record. Fatal for the
// affected (category, model) key; surfaced, not auto-repaired.
type CorruptError struct {
	Key   string
	cause error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("cache record %s corrupt: %v", e.Key, e.cause)
}

func (e *CorruptError) Unwrap() error { return e.cause }

// PersistError indicates that a freshly built record could not be written.
// The in-memory result returned alongside it is fully usable; later calls
// will rebuild and retry persistence.
type PersistError struct {
	Key   string
	cause error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("cache record %s not persisted: %v", e.Key, e.cause)
}

func (e *PersistError) Unwrap() error { return e.cause }

// EmbedBatchFunc computes one embedding per input text, in input order.
type EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Store is the persistent reference-embedding cache.
// Safe for concurrent use.
type Store struct {
	blobs  blobstore.BlobStore
	codec  codec.Codec
	comp   compress.Compressor
	logger *slog.Logger
	group  singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithCodec sets the payload codec. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithCompressor sets the payload compressor. Defaults to compress.Default.
func WithCompressor(c compress.Compressor) Option {
	return func(s *Store) {
		if c != nil {
			s.comp = c
		}
	}
}

// WithLogger sets the logger for recoverable events (read fallback, persist
// failure). Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store on top of the given blob store.
func New(blobs blobstore.BlobStore, optFns ...Option) *Store {
	s := &Store{
		blobs:  blobs,
		codec:  codec.Default,
		comp:   compress.Default,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

const recordPrefix = "reference/"

// recordKey builds the blob name for one (category, model) record.
// Model names may contain path-hostile characters ("org/model:tag").
func recordKey(category taxonomy.Category, modelName string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '\\', ' ':
			return '_'
		default:
			return r
		}
	}, modelName)
	return recordPrefix + sanitized + "/" + string(category) + ".esc"
}

// GetOrBuild returns the reference embeddings for every entity, keyed by
// entity ID.
//
// If a record for (category, modelName) exists it is loaded and returned
// directly - no recomputation, and no validation beyond an ID sanity check
// against entities (see ErrSnapshotMismatch). If absent, every entity label
// is embedded via embed, the record is persisted, and the result returned.
//
// Concurrent callers of the same uncached key share a single build; distinct
// keys build in parallel. A caller whose context is cancelled stops waiting,
// but a build already in flight runs to completion so the shared result
// stays usable.
//
// On a persist failure the built result is returned together with a
// *PersistError: the caller can proceed, persistence is retried on a later
// miss.
func (s *Store) GetOrBuild(ctx context.Context, category taxonomy.Category, modelName string, entities []taxonomy.Entity, embed EmbedBatchFunc) (map[string][]float32, error) {
	key := recordKey(category, modelName)

	type buildResult struct {
		vectors map[string][]float32
		persist *PersistError
	}

	// The flight is shared between callers, so it must not die with the
	// caller that happened to start it. Cancelled callers stop waiting via
	// the select below; the build itself runs to completion.
	buildCtx := context.WithoutCancel(ctx)

	ch := s.group.DoChan(key, func() (any, error) {
		vectors, hit, err := s.load(buildCtx, key, entities)
		if err != nil {
			return nil, err
		}
		if hit {
			return buildResult{vectors: vectors}, nil
		}

		vectors, persistErr, err := s.build(buildCtx, key, category, modelName, entities, embed)
		if err != nil {
			return nil, err
		}
		return buildResult{vectors: vectors, persist: persistErr}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		br := res.Val.(buildResult)
		if br.persist != nil {
			return br.vectors, br.persist
		}
		return br.vectors, nil
	}
}

// load reads and decodes an existing record. hit is false when the record is
// absent or unreadable in a recoverable way (treated as a miss).
func (s *Store) load(ctx context.Context, key string, entities []taxonomy.Entity) (vectors map[string][]float32, hit bool, err error) {
	data, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, false, nil
		}
		if errors.Is(err, os.ErrPermission) {
			return nil, false, &CorruptError{Key: key, cause: err}
		}
		// Transient read failure: fall back to a rebuild.
		s.logger.Warn("cache read failed, rebuilding", "key", key, "error", err)
		return nil, false, nil
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, false, &CorruptError{Key: key, cause: err}
	}

	if err := rec.sanityCheck(entities); err != nil {
		return nil, false, err
	}

	vectors = make(map[string][]float32, len(rec.IDs))
	for i, id := range rec.IDs {
		vectors[id] = rec.Vectors[i]
	}
	return vectors, true, nil
}

// build computes, persists and returns a fresh record.
func (s *Store) build(ctx context.Context, key string, category taxonomy.Category, modelName string, entities []taxonomy.Entity, embed EmbedBatchFunc) (map[string][]float32, *PersistError, error) {
	labels := make([]string, len(entities))
	ids := make([]string, len(entities))
	for i, e := range entities {
		labels[i] = e.Label
		ids[i] = e.ID
	}

	embedded, err := embed(ctx, labels)
	if err != nil {
		return nil, nil, err
	}
	if len(embedded) != len(entities) {
		return nil, nil, fmt.Errorf("embed returned %d vectors for %d entities", len(embedded), len(entities))
	}

	dimension := 0
	if len(embedded) > 0 {
		dimension = len(embedded[0])
	}
	for i, v := range embedded {
		if len(v) != dimension {
			return nil, nil, fmt.Errorf("embed returned inconsistent dimensions: %d and %d (entity %s)", dimension, len(v), ids[i])
		}
	}

	rec := &record{
		Category:  category,
		ModelName: modelName,
		Dimension: dimension,
		IDs:       ids,
		Vectors:   embedded,
	}

	vectors := make(map[string][]float32, len(ids))
	for i, id := range ids {
		vectors[id] = embedded[i]
	}

	data, err := encodeRecord(rec, s.codec, s.comp)
	if err != nil {
		return vectors, &PersistError{Key: key, cause: err}, nil
	}
	if err := s.blobs.Put(ctx, key, data); err != nil {
		return vectors, &PersistError{Key: key, cause: err}, nil
	}

	s.logger.Info("cache record built", "key", key, "entities", len(ids), "dimension", dimension)
	return vectors, nil, nil
}

// Invalidate deletes all records for one model name, so the next GetOrBuild
// for that model recomputes from scratch. This is the only supported path
// for picking up a new embedding model or a changed taxonomy.
func (s *Store) Invalidate(ctx context.Context, modelName string) error {
	// recordKey ends with "<category>.esc"; the model prefix is its directory.
	prefix := recordKey("", modelName)
	prefix = strings.TrimSuffix(prefix, ".esc")
	return s.deletePrefix(ctx, prefix)
}

// InvalidateAll deletes every record.
func (s *Store) InvalidateAll(ctx context.Context) error {
	return s.deletePrefix(ctx, recordPrefix)
}

func (s *Store) deletePrefix(ctx context.Context, prefix string) error {
	names, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.blobs.Delete(ctx, name); err != nil {
			return err
		}
		s.logger.Info("cache record invalidated", "key", name)
	}
	return nil
}
