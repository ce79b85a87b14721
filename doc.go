// Package escomatch maps free-form text to taxonomy entity IDs.
//
// Documents such as job ads or CVs are split into sentences, each sentence
// is embedded, and the sentence embeddings are compared by cosine similarity
// against cached reference embeddings of taxonomy entity labels (skills,
// occupations, occupation groups). An entity matches a document when any of
// its sentences scores strictly above the category threshold.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	source := taxonomy.NewCSVSource(os.DirFS("./data"))
//	provider := ollamaembed.New("http://localhost:11434", "all-minilm")
//
//	ex, _ := escomatch.New(source, provider)
//	skills, _ := ex.ExtractSkills(ctx, []string{
//	    "We are looking for a Go engineer with Docker experience.",
//	})
//
// # Thresholds
//
// Skills and occupations use independent thresholds (defaults 0.6 and 0.55)
// because their label lengths and embedding distributions differ:
//
//	ex, _ := escomatch.New(source, provider,
//	    escomatch.WithSkillThreshold(0.45),
//	    escomatch.WithOccupationThreshold(0.55),
//	)
//
// # Reference Cache
//
// Reference embeddings are computed once per (category, model) and persisted
// through a pluggable blob store. The default is a local directory; S3 and
// MinIO backed stores share the cache between instances:
//
//	s3Store, _ := s3.NewDefaultStore(ctx, "my-bucket", "escomatch/")
//	ex, _ := escomatch.New(source, provider, escomatch.WithBlobStore(s3Store))
//
// The cache never expires on its own. After switching models or editing the
// taxonomy, reset it explicitly:
//
//	_ = ex.ResetCache(ctx, "")  // all models
//
// # Key Features
//
//   - Sentence-level max-score matching (one strong sentence is a match)
//   - Persistent reference-embedding cache (local, S3, MinIO)
//   - Optional extractive summarization of over-long sentences
//   - Deterministic output ordered by taxonomy source order
//   - Structured logging (slog) and pluggable metrics
package escomatch
