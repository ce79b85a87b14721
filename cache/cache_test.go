package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/escomatch/blobstore"
	"github.com/hupe1980/escomatch/taxonomy"
)

func testEntities() []taxonomy.Entity {
	return []taxonomy.Entity{
		{ID: "s1", Label: "install containers", Category: taxonomy.CategorySkill},
		{ID: "s2", Label: "apply basic programming skills", Category: taxonomy.CategorySkill},
	}
}

// countingEmbed returns unit vectors along distinct axes and counts calls.
func countingEmbed(calls *atomic.Int64) EmbedBatchFunc {
	return func(_ context.Context, texts []string) ([][]float32, error) {
		calls.Add(1)
		out := make([][]float32, len(texts))
		for i := range texts {
			v := make([]float32, len(texts))
			v[i] = 1
			out[i] = v
		}
		return out, nil
	}
}

func TestStore_GetOrBuild(t *testing.T) {
	t.Run("ComputesOncePerKey", func(t *testing.T) {
		store := New(blobstore.NewMemoryStore())
		entities := testEntities()

		var calls atomic.Int64
		embed := countingEmbed(&calls)

		first, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, embed)
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, []float32{1, 0}, first["s1"])

		second, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, embed)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("DistinctKeysBuildSeparately", func(t *testing.T) {
		store := New(blobstore.NewMemoryStore())
		entities := testEntities()

		var calls atomic.Int64
		embed := countingEmbed(&calls)

		_, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, embed)
		require.NoError(t, err)
		_, err = store.GetOrBuild(context.Background(), taxonomy.CategoryOccupation, "m1", entities, embed)
		require.NoError(t, err)
		_, err = store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m2", entities, embed)
		require.NoError(t, err)

		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("ConcurrentCallersShareOneBuild", func(t *testing.T) {
		store := New(blobstore.NewMemoryStore())
		entities := testEntities()

		var calls atomic.Int64
		gate := make(chan struct{})
		embed := func(ctx context.Context, texts []string) ([][]float32, error) {
			<-gate
			return countingEmbed(&calls)(ctx, texts)
		}

		const n = 8
		results := make([]map[string][]float32, n)
		errs := make([]error, n)

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, embed)
			}()
		}
		close(gate)
		wg.Wait()

		for i := range n {
			require.NoError(t, errs[i])
			assert.Equal(t, results[0], results[i])
		}
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("OwnerCancelDoesNotAbortSharedBuild", func(t *testing.T) {
		store := New(blobstore.NewMemoryStore())
		entities := testEntities()

		started := make(chan struct{})
		gate := make(chan struct{})
		var calls atomic.Int64
		embed := func(ctx context.Context, texts []string) ([][]float32, error) {
			close(started)
			<-gate
			// The shared build must outlive the caller that started it.
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return countingEmbed(&calls)(ctx, texts)
		}

		ownerCtx, cancel := context.WithCancel(context.Background())
		ownerErr := make(chan error, 1)
		go func() {
			_, err := store.GetOrBuild(ownerCtx, taxonomy.CategorySkill, "m1", entities, embed)
			ownerErr <- err
		}()

		<-started

		// A second caller with a live context joins the in-flight build.
		waiterRes := make(chan map[string][]float32, 1)
		waiterErr := make(chan error, 1)
		go func() {
			vectors, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities,
				countingEmbed(&calls))
			waiterRes <- vectors
			waiterErr <- err
		}()
		time.Sleep(50 * time.Millisecond)

		cancel()
		require.ErrorIs(t, <-ownerErr, context.Canceled)

		close(gate)
		require.NoError(t, <-waiterErr)
		require.Len(t, <-waiterRes, 2)
	})

	t.Run("EmbedFailurePropagates", func(t *testing.T) {
		store := New(blobstore.NewMemoryStore())
		boom := errors.New("backend down")

		_, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", testEntities(),
			func(context.Context, []string) ([][]float32, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	})

	t.Run("CountMismatchFails", func(t *testing.T) {
		store := New(blobstore.NewMemoryStore())

		_, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", testEntities(),
			func(_ context.Context, _ []string) ([][]float32, error) {
				return [][]float32{{1}}, nil
			})
		require.Error(t, err)
	})

	t.Run("EmptyEntities", func(t *testing.T) {
		store := New(blobstore.NewMemoryStore())

		vectors, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", nil,
			func(_ context.Context, texts []string) ([][]float32, error) {
				return make([][]float32, len(texts)), nil
			})
		require.NoError(t, err)
		assert.Empty(t, vectors)
	})
}

func TestStore_PersistFailure(t *testing.T) {
	blobs := newFailingPutStore()
	store := New(blobs)
	entities := testEntities()

	var calls atomic.Int64
	embed := countingEmbed(&calls)

	// The result is usable even though the write failed.
	vectors, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, embed)

	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Key, "m1")
	require.Len(t, vectors, 2)

	// Nothing was persisted, so the next call rebuilds and retries the write.
	blobs.fail = false
	_, err = store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, embed)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

type failingPutStore struct {
	blobstore.BlobStore
	mu   sync.Mutex
	fail bool
}

func (s *failingPutStore) Put(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return s.BlobStore.Put(ctx, name, data)
}

func newFailingPutStore() *failingPutStore {
	return &failingPutStore{BlobStore: blobstore.NewMemoryStore(), fail: true}
}

func TestStore_CorruptRecord(t *testing.T) {
	blobs := blobstore.NewMemoryStore()
	store := New(blobs)
	entities := testEntities()

	key := recordKey(taxonomy.CategorySkill, "m1")
	require.NoError(t, blobs.Put(context.Background(), key, []byte("not a record")))

	_, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities,
		func(context.Context, []string) ([][]float32, error) {
			t.Error("embed must not run on a corrupt record")
			return nil, errors.New("unexpected build")
		})

	var cerr *CorruptError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, key, cerr.Key)
}

func TestStore_SnapshotMismatch(t *testing.T) {
	store := New(blobstore.NewMemoryStore())
	entities := testEntities()

	var calls atomic.Int64
	_, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, countingEmbed(&calls))
	require.NoError(t, err)

	changed := append(entities[:1:1], taxonomy.Entity{ID: "s9", Label: "other", Category: taxonomy.CategorySkill})
	_, err = store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", changed, countingEmbed(&calls))
	require.ErrorIs(t, err, ErrSnapshotMismatch)

	// The mismatch never triggers a silent rebuild.
	assert.EqualValues(t, 1, calls.Load())
}

func TestStore_Invalidate(t *testing.T) {
	store := New(blobstore.NewMemoryStore())
	entities := testEntities()

	var calls atomic.Int64
	embed := countingEmbed(&calls)

	_, err := store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, embed)
	require.NoError(t, err)
	_, err = store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m2", entities, embed)
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	require.NoError(t, store.Invalidate(context.Background(), "m1"))

	// m1 rebuilds, m2 is untouched.
	_, err = store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m1", entities, embed)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())

	_, err = store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m2", entities, embed)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())

	require.NoError(t, store.InvalidateAll(context.Background()))

	_, err = store.GetOrBuild(context.Background(), taxonomy.CategorySkill, "m2", entities, embed)
	require.NoError(t, err)
	assert.EqualValues(t, 4, calls.Load())
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "reference/all-MiniLM-L6-v2/skill.esc", recordKey(taxonomy.CategorySkill, "all-MiniLM-L6-v2"))
	assert.Equal(t, "reference/org_model_tag/occupation.esc", recordKey(taxonomy.CategoryOccupation, "org/model:tag"))
}

func TestRecordRoundTrip(t *testing.T) {
	rec := &record{
		Category:  taxonomy.CategorySkill,
		ModelName: "m",
		Dimension: 2,
		IDs:       []string{"a", "b"},
		Vectors:   [][]float32{{1, 0}, {0, 1}},
	}

	store := New(nil)
	data, err := encodeRecord(rec, store.codec, store.comp)
	require.NoError(t, err)

	got, err := decodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeRecord_Malformed(t *testing.T) {
	for name, data := range map[string][]byte{
		"Empty":      {},
		"BadMagic":   []byte("XXXX\x01"),
		"BadVersion": []byte("ESCR\x09"),
		"Truncated":  []byte("ESCR\x01\x08js"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeRecord(data)
			require.ErrorIs(t, err, errMalformedRecord)
		})
	}
}
