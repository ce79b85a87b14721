package escomatch_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/escomatch"
	"github.com/hupe1980/escomatch/blobstore"
	"github.com/hupe1980/escomatch/taxonomy"
	"github.com/hupe1980/escomatch/testutil"
)

func Example() {
	ctx := context.Background()

	source, err := taxonomy.NewStaticSource(map[taxonomy.Category][]taxonomy.Entity{
		taxonomy.CategorySkill: {
			{ID: "skill/install-containers", Label: "install containers", Category: taxonomy.CategorySkill},
			{ID: "skill/basic-programming", Label: "apply basic programming skills", Category: taxonomy.CategorySkill},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	// A deterministic in-process provider; production code would use
	// ollamaembed.New or another embedding.Provider implementation.
	provider := testutil.NewKeywordProvider("example-model", map[string][]string{
		"containers":  {"docker", "kubernetes", "install"},
		"programming": {"apply", "basic", "skills", "code"},
	})

	ex, err := escomatch.New(source, provider,
		escomatch.WithBlobStore(blobstore.NewMemoryStore()),
	)
	if err != nil {
		log.Fatal(err)
	}

	results, err := ex.ExtractSkills(ctx, []string{
		"Experience with Docker containers required.",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(results[0])
	// Output: [skill/install-containers]
}

func ExampleExtractor_ResetCache() {
	ctx := context.Background()

	source, _ := taxonomy.NewStaticSource(map[taxonomy.Category][]taxonomy.Entity{
		taxonomy.CategorySkill: {
			{ID: "skill/install-containers", Label: "install containers", Category: taxonomy.CategorySkill},
		},
	})
	provider := testutil.NewKeywordProvider("example-model", map[string][]string{
		"containers": {"docker", "install"},
	})

	ex, _ := escomatch.New(source, provider,
		escomatch.WithBlobStore(blobstore.NewMemoryStore()),
	)

	if _, err := ex.ExtractSkills(ctx, []string{"Docker experience."}); err != nil {
		log.Fatal(err)
	}

	// After switching models or editing the taxonomy, drop the persisted
	// reference embeddings. An empty model name resets every model.
	if err := ex.ResetCache(ctx, "example-model"); err != nil {
		log.Fatal(err)
	}

	fmt.Println("cache reset")
	// Output: cache reset
}
