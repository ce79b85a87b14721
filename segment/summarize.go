package segment

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"
)

const (
	dampingFactor      = 0.85
	rankIterations     = 50
	rankTolerance      = 1e-6
	clauseSeparator    = ", "
	minClauseWordCount = 1
)

// Summarizer compresses sentences that exceed a word budget by extractive,
// graph-based ranking over the sentence's own clauses. Selection keeps the
// highest-salience clauses whose combined length stays within the budget;
// output order follows original clause position, not rank.
type Summarizer struct {
	maxWords int
}

// NewSummarizer creates a Summarizer with the given word budget.
// A budget <= 0 disables summarization entirely.
func NewSummarizer(maxWords int) *Summarizer {
	return &Summarizer{maxWords: maxWords}
}

// Enabled reports whether the summarizer compresses anything at all.
func (s *Summarizer) Enabled() bool { return s.maxWords > 0 }

// Summarize returns sentence unchanged when it is within budget, otherwise
// a clause subset of at most maxWords words in original order. The
// operation is idempotent: output is always within budget, so summarizing
// it again is a no-op.
func (s *Summarizer) Summarize(sentence string) string {
	if !s.Enabled() || WordCount(sentence) <= s.maxWords {
		return sentence
	}

	clauses := splitClauses(sentence)
	if len(clauses) < 2 {
		// No internal boundaries to rank over; fall back to a hard cut at
		// the budget.
		words := strings.Fields(sentence)
		return strings.Join(words[:s.maxWords], " ")
	}

	ranks := textRank(clauses)

	// Greedy pick by salience within the budget. The top clause is always
	// kept so the result is never empty; when it alone exceeds the budget
	// it is cut at the budget like the no-boundary fallback above.
	order := rankOrder(ranks)
	selected := make([]bool, len(clauses))
	budget := s.maxWords

	for n, i := range order {
		wc := WordCount(clauses[i])
		if wc > budget {
			if n == 0 {
				words := strings.Fields(clauses[i])
				return strings.Join(words[:s.maxWords], " ")
			}
			continue
		}
		selected[i] = true
		budget -= wc
		if budget < minClauseWordCount {
			break
		}
	}

	var kept []string
	for i, clause := range clauses {
		if selected[i] {
			kept = append(kept, clause)
		}
	}
	return strings.Join(kept, clauseSeparator)
}

// splitClauses splits a sentence into clause units on commas, semicolons,
// colons and dashes.
func splitClauses(sentence string) []string {
	var clauses []string
	var b strings.Builder

	flush := func() {
		c := strings.TrimSpace(b.String())
		if c != "" {
			clauses = append(clauses, c)
		}
		b.Reset()
	}

	for _, r := range sentence {
		switch r {
		case ',', ';', ':', '–', '—':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()

	return clauses
}

// textRank scores clauses by damped power iteration over a word-overlap
// similarity graph (the classic TextRank formulation).
func textRank(clauses []string) []float64 {
	n := len(clauses)
	tokens := make([]map[string]struct{}, n)
	for i, c := range clauses {
		tokens[i] = tokenSet(c)
	}

	// Column-stochastic transition matrix from pairwise overlap similarity.
	m := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		var sum float64
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			if i == j {
				continue
			}
			col[i] = overlapSimilarity(tokens[i], tokens[j])
			sum += col[i]
		}
		for i := 0; i < n; i++ {
			if sum > 0 {
				m.Set(i, j, col[i]/sum)
			} else {
				// Dangling clause: distribute uniformly.
				m.Set(i, j, 1/float64(n))
			}
		}
	}

	rank := mat.NewVecDense(n, nil)
	next := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rank.SetVec(i, 1/float64(n))
	}

	base := (1 - dampingFactor) / float64(n)
	for range rankIterations {
		next.MulVec(m, rank)

		var delta float64
		for i := 0; i < n; i++ {
			v := base + dampingFactor*next.AtVec(i)
			delta += math.Abs(v - rank.AtVec(i))
			rank.SetVec(i, v)
		}
		if delta < rankTolerance {
			break
		}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = rank.AtVec(i)
	}
	return out
}

// overlapSimilarity is |A∩B| normalized by log sizes, so long clauses do not
// dominate purely by length.
func overlapSimilarity(a, b map[string]struct{}) float64 {
	var common float64
	for w := range a {
		if _, ok := b[w]; ok {
			common++
		}
	}
	if common == 0 {
		return 0
	}

	denom := math.Log(float64(len(a))) + math.Log(float64(len(b)))
	if denom <= 0 {
		denom = 1
	}
	return common / denom
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = struct{}{}
	}
	return set
}

// rankOrder returns clause indices sorted by descending rank, ties broken by
// original position for determinism.
func rankOrder(ranks []float64) []int {
	order := make([]int, len(ranks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool {
		if ranks[order[x]] != ranks[order[y]] {
			return ranks[order[x]] > ranks[order[y]]
		}
		return order[x] < order[y]
	})
	return order
}
