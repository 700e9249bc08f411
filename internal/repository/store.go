// Package repository persists catalog records. The request path works on
// schema-driven maps rather than per-entity structs, so one store serves
// every catalog entity.
package repository

import (
	"context"

	"github.com/impala-radio/impala/internal/schema"
)

// Record is a single catalog row keyed by column name.
type Record = map[string]any

// Page bounds a listing. Page numbers start at 1.
type Page struct {
	Page  int
	Limit int
}

// Offset converts the page number into a row offset.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HoldingSearchFilter narrows a holdings search. All populated filters
// must match; Any matches against artist, title and label together.
type HoldingSearchFilter struct {
	Any         string
	AlbumArtist string
	AlbumTitle  string
	Label       string
}

// Store is the persistence boundary for catalog records.
type Store interface {
	// Insert writes a fully validated and stamped record.
	Insert(ctx context.Context, s *schema.Schema, rec Record) error

	// Update applies the given fields to the identified record.
	// Returns ErrNotFound when no row matches.
	Update(ctx context.Context, s *schema.Schema, id string, fields Record) error

	// GetByID fetches one record, or ErrNotFound.
	GetByID(ctx context.Context, s *schema.Schema, id string) (Record, error)

	// List returns a page of records, newest first.
	List(ctx context.Context, s *schema.Schema, page Page) ([]Record, error)

	// SearchHoldings returns active holdings joined with their holding
	// group, newest first.
	SearchHoldings(ctx context.Context, filter HoldingSearchFilter, page Page) ([]Record, error)
}
