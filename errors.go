package escomatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/escomatch/embedding"
	"github.com/hupe1980/escomatch/taxonomy"
)

var (
	// ErrInvalidInput is returned for malformed requests: an empty document
	// batch, an unknown category, or an out-of-range threshold.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTaxonomyUnavailable is returned when the reference entity set
	// cannot be loaded. Alias of taxonomy.ErrUnavailable.
	ErrTaxonomyUnavailable = taxonomy.ErrUnavailable

	// ErrProvider is returned when the embedding backend fails.
	// Alias of embedding.ErrProvider.
	ErrProvider = embedding.ErrProvider
)

// InvalidThresholdError indicates a similarity threshold outside [-1, 1].
type InvalidThresholdError struct {
	Category  taxonomy.Category
	Threshold float32
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("threshold %g for category %s outside [-1, 1]", e.Threshold, e.Category)
}

// Unwrap makes the error match ErrInvalidInput via errors.Is.
func (e *InvalidThresholdError) Unwrap() error { return ErrInvalidInput }

// translateProviderError unifies embedding backend failures under
// ErrProvider. User-supplied providers are not required to wrap their own
// errors; cancellation passes through untouched.
func translateProviderError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, embedding.ErrProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", embedding.ErrProvider, err)
}
