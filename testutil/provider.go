package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/hupe1980/escomatch/metric"
)

// KeywordProvider is a deterministic embedding provider for tests. Each
// configured concept owns one vector dimension; a text's embedding counts how
// many of its tokens belong to each concept and is then L2-normalized.
//
// Texts that share concept vocabulary get high cosine similarity, unrelated
// texts get zero. The provider is pure: equal input, equal output.
type KeywordProvider struct {
	model    string
	concepts []string       // dimension order, sorted for determinism
	synonyms map[string]int // token -> concept dimension
	calls    atomic.Int64
}

// NewKeywordProvider creates a provider from a concept-to-synonyms map.
// Synonym tokens are matched case-insensitively against the words of the
// input text.
func NewKeywordProvider(model string, concepts map[string][]string) *KeywordProvider {
	names := make([]string, 0, len(concepts))
	for name := range concepts {
		names = append(names, name)
	}
	sort.Strings(names)

	synonyms := make(map[string]int)
	for dim, name := range names {
		synonyms[strings.ToLower(name)] = dim
		for _, s := range concepts[name] {
			synonyms[strings.ToLower(s)] = dim
		}
	}

	return &KeywordProvider{
		model:    model,
		concepts: names,
		synonyms: synonyms,
	}
}

// ModelName implements embedding.Provider.
func (p *KeywordProvider) ModelName() string { return p.model }

// Calls returns how many EmbedBatch invocations the provider has served.
func (p *KeywordProvider) Calls() int64 { return p.calls.Load() }

// EmbedBatch implements embedding.Provider.
func (p *KeywordProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.calls.Add(1)

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(p.concepts))
		for _, token := range tokenize(text) {
			if dim, ok := p.synonyms[token]; ok {
				vec[dim]++
			}
		}
		metric.NormalizeL2InPlace(vec)
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// StaticProvider maps exact input texts to fixed vectors, for tests that
// need precise cosine scores. Unknown texts are an error so a typo in a test
// fixture fails loudly instead of matching nothing.
type StaticProvider struct {
	model   string
	vectors map[string][]float32
	calls   atomic.Int64
}

// NewStaticProvider creates a provider over a fixed text-to-vector table.
func NewStaticProvider(model string, vectors map[string][]float32) *StaticProvider {
	return &StaticProvider{model: model, vectors: vectors}
}

// ModelName implements embedding.Provider.
func (p *StaticProvider) ModelName() string { return p.model }

// Calls returns how many EmbedBatch invocations the provider has served.
func (p *StaticProvider) Calls() int64 { return p.calls.Load() }

// EmbedBatch implements embedding.Provider.
func (p *StaticProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.calls.Add(1)

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := p.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no fixture vector for %q", text)
		}
		out[i] = vec
	}
	return out, nil
}
