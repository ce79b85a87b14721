// Package taxonomy defines the reference entities that text is matched
// against: skills, occupations, and occupation-group codes with stable
// identifiers and human-readable labels.
package taxonomy

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the backing taxonomy dataset cannot be
// read or parsed. It is fatal: nothing can be matched without a reference set.
var ErrUnavailable = errors.New("taxonomy unavailable")

// Category identifies one family of taxonomy entities.
type Category string

const (
	// CategorySkill covers skill and competence entities.
	CategorySkill Category = "skill"

	// CategoryOccupation covers occupation entities. The occupation dataset
	// also carries occupation-group codes, so extraction against this
	// category reports both.
	CategoryOccupation Category = "occupation"

	// CategoryOccupationGroup covers occupation-group codes (e.g. ISCO groups)
	// when they are maintained as a separate dataset.
	CategoryOccupationGroup Category = "occupation-group"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategorySkill, CategoryOccupation, CategoryOccupationGroup:
		return true
	default:
		return false
	}
}

// Entity is one taxonomy item. Immutable once loaded.
type Entity struct {
	// ID is a stable URI or code, globally unique within its category.
	ID string

	// Label is the display text used to build the reference embedding.
	Label string

	// Category is the entity's category family.
	Category Category
}

// Snapshot is the full loaded entity set for one category at one point in
// time. Entity order follows the source and is the canonical output order
// for match sets.
type Snapshot struct {
	category Category
	entities []Entity
	ordinals map[string]int
}

// NewSnapshot creates a Snapshot from an ordered entity list.
// Duplicate IDs are rejected.
func NewSnapshot(category Category, entities []Entity) (*Snapshot, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrUnavailable, category)
	}

	ordinals := make(map[string]int, len(entities))
	for i, e := range entities {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: entity %d has empty id", ErrUnavailable, i)
		}
		if _, ok := ordinals[e.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate entity id %q", ErrUnavailable, e.ID)
		}
		ordinals[e.ID] = i
	}

	return &Snapshot{
		category: category,
		entities: entities,
		ordinals: ordinals,
	}, nil
}

// Category returns the snapshot's category.
func (s *Snapshot) Category() Category { return s.category }

// Len returns the number of entities.
func (s *Snapshot) Len() int { return len(s.entities) }

// Entities returns the entities in source order.
// The returned slice must not be modified.
func (s *Snapshot) Entities() []Entity { return s.entities }

// Labels returns the entity labels in source order.
func (s *Snapshot) Labels() []string {
	labels := make([]string, len(s.entities))
	for i, e := range s.entities {
		labels[i] = e.Label
	}
	return labels
}

// Ordinal returns the source-order position of the entity with the given ID.
func (s *Snapshot) Ordinal(id string) (int, bool) {
	i, ok := s.ordinals[id]
	return i, ok
}

// Source loads taxonomy snapshots. Implementations are read-only for the
// lifetime of a process; Load with the same category always yields the same
// entities in the same order.
type Source interface {
	Load(ctx context.Context, category Category) (*Snapshot, error)
}

// StaticSource serves pre-built snapshots from memory. Useful for tests and
// for callers that assemble their taxonomy elsewhere.
type StaticSource struct {
	snapshots map[Category]*Snapshot
}

// NewStaticSource creates a StaticSource from entity lists keyed by category.
func NewStaticSource(entities map[Category][]Entity) (*StaticSource, error) {
	snapshots := make(map[Category]*Snapshot, len(entities))
	for category, list := range entities {
		snap, err := NewSnapshot(category, list)
		if err != nil {
			return nil, err
		}
		snapshots[category] = snap
	}
	return &StaticSource{snapshots: snapshots}, nil
}

// Load implements Source.
func (s *StaticSource) Load(_ context.Context, category Category) (*Snapshot, error) {
	snap, ok := s.snapshots[category]
	if !ok {
		return nil, fmt.Errorf("%w: no snapshot for category %q", ErrUnavailable, category)
	}
	return snap, nil
}
