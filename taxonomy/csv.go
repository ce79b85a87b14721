package taxonomy

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// DefaultFiles maps categories to their conventional dataset file names.
var DefaultFiles = map[Category]string{
	CategorySkill:           "skills.csv",
	CategoryOccupation:      "occupations.csv",
	CategoryOccupationGroup: "occupation_groups.csv",
}

// CSVSource loads snapshots from CSV datasets on an fs.FS.
//
// Expected format: a header row naming an `id` column and a `label` column
// (`description` is accepted as an alias, matching the published ESCO
// exports). Additional columns are ignored. Row order is preserved.
type CSVSource struct {
	fsys  fs.FS
	files map[Category]string
}

// CSVOption configures a CSVSource.
type CSVOption func(*CSVSource)

// WithFile overrides the dataset file name for a category.
func WithFile(category Category, name string) CSVOption {
	return func(s *CSVSource) {
		s.files[category] = name
	}
}

// NewCSVSource creates a CSVSource reading from fsys.
func NewCSVSource(fsys fs.FS, optFns ...CSVOption) *CSVSource {
	s := &CSVSource{
		fsys:  fsys,
		files: make(map[Category]string, len(DefaultFiles)),
	}
	for category, name := range DefaultFiles {
		s.files[category] = name
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Load implements Source.
func (s *CSVSource) Load(_ context.Context, category Category) (*Snapshot, error) {
	name, ok := s.files[category]
	if !ok {
		return nil, fmt.Errorf("%w: no dataset for category %q", ErrUnavailable, category)
	}

	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, name, err)
	}
	defer f.Close()

	entities, err := parseCSV(f, category)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrUnavailable, name, err)
	}

	return NewSnapshot(category, entities)
}

func parseCSV(r io.Reader, category Category) ([]Entity, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idCol, labelCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "id":
			idCol = i
		case "label", "description":
			if labelCol == -1 {
				labelCol = i
			}
		}
	}
	if idCol == -1 || labelCol == -1 {
		return nil, fmt.Errorf("header must name id and label columns, got %v", header)
	}

	var entities []Entity
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if idCol >= len(record) || labelCol >= len(record) {
			return nil, fmt.Errorf("row %d: too few columns", len(entities)+2)
		}

		entities = append(entities, Entity{
			ID:       strings.TrimSpace(record[idCol]),
			Label:    strings.TrimSpace(record[labelCol]),
			Category: category,
		})
	}

	return entities, nil
}
