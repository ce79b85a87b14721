package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		got := Split("We build data pipelines. You will maintain them! Do you like Go?")
		require.Equal(t, []string{
			"We build data pipelines.",
			"You will maintain them!",
			"Do you like Go?",
		}, got)
	})

	t.Run("Abbreviations", func(t *testing.T) {
		got := Split("Experience with tooling, e.g. Docker and Kubernetes. Reports to Dr. Smith.")
		require.Equal(t, []string{
			"Experience with tooling, e.g. Docker and Kubernetes.",
			"Reports to Dr. Smith.",
		}, got)
	})

	t.Run("Newlines", func(t *testing.T) {
		got := Split("5+ years of Go\nStrong SQL skills\n\nRemote friendly")
		require.Equal(t, []string{
			"5+ years of Go",
			"Strong SQL skills",
			"Remote friendly",
		}, got)
	})

	t.Run("DecimalNotABoundary", func(t *testing.T) {
		got := Split("Version 1.21 or newer is required.")
		require.Equal(t, []string{"Version 1.21 or newer is required."}, got)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, Split(""))
		assert.Empty(t, Split("   \n\t "))
	})

	t.Run("Restartable", func(t *testing.T) {
		text := "One. Two. Three."
		assert.Equal(t, Split(text), Split(text))
	})
}

func TestSummarizer(t *testing.T) {
	t.Run("ShortSentenceIsNoOp", func(t *testing.T) {
		s := NewSummarizer(10)
		in := "Strong SQL skills required"
		assert.Equal(t, in, s.Summarize(in))
	})

	t.Run("DisabledPassesThrough", func(t *testing.T) {
		s := NewSummarizer(0)
		in := "a very long sentence that would otherwise certainly be compressed into something shorter than it currently is"
		assert.Equal(t, in, s.Summarize(in))
		assert.False(t, s.Enabled())
	})

	t.Run("Idempotent", func(t *testing.T) {
		s := NewSummarizer(12)
		in := "We operate container platforms at scale, we deploy container workloads daily, " +
			"we document processes thoroughly, the office has a nice view of the river, " +
			"candidates should enjoy container tooling and automation"

		once := s.Summarize(in)
		twice := s.Summarize(once)
		assert.Equal(t, once, twice)
	})

	t.Run("BudgetRespected", func(t *testing.T) {
		s := NewSummarizer(12)
		in := "We operate container platforms at scale, we deploy container workloads daily, " +
			"we document processes thoroughly, the office has a nice view of the river, " +
			"candidates should enjoy container tooling and automation"
		require.Greater(t, WordCount(in), 12)

		out := s.Summarize(in)
		require.NotEmpty(t, out)
		assert.LessOrEqual(t, WordCount(out), 12)
	})

	t.Run("OverBudgetTopClauseIsCut", func(t *testing.T) {
		s := NewSummarizer(5)
		in := "we operate docker container platforms at enormous scale, snacks provided"

		out := s.Summarize(in)
		assert.Equal(t, "we operate docker container platforms", out)
		assert.LessOrEqual(t, WordCount(out), 5)
		assert.Equal(t, out, s.Summarize(out))
	})

	t.Run("PositionPreserved", func(t *testing.T) {
		s := NewSummarizer(8)
		in := "alpha container work first, beta container work second, gamma container work third, unrelated rowing trivia here"

		out := s.Summarize(in)
		// Selected clauses appear in original order
		idxAlpha := strings.Index(out, "alpha")
		idxBeta := strings.Index(out, "beta")
		if idxAlpha >= 0 && idxBeta >= 0 {
			assert.Less(t, idxAlpha, idxBeta)
		}
	})

	t.Run("SingleClauseFallsBackToCut", func(t *testing.T) {
		s := NewSummarizer(5)
		in := "one two three four five six seven eight nine ten"

		out := s.Summarize(in)
		assert.Equal(t, "one two three four five", out)
	})

	t.Run("NeverEmpty", func(t *testing.T) {
		s := NewSummarizer(3)
		in := "responsible for maintaining large distributed systems, snacks provided"

		out := s.Summarize(in)
		assert.NotEmpty(t, out)
	})
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 3, WordCount("  a   b\tc "))
}
