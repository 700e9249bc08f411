package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/impala-radio/impala/internal/schema"
)

// BunStore persists catalog records using Bun against PostgreSQL or SQLite.
type BunStore struct {
	db *bun.DB
}

// NewBunStore constructs a store backed by Bun.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// Insert writes a new record inside a transaction.
func (r *BunStore) Insert(ctx context.Context, s *schema.Schema, rec Record) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rec).
			TableExpr(s.Table).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert %s: %w", s.Entity, translateError(err))
	}
	return nil
}

// Update applies the given fields to one record inside a transaction.
func (r *BunStore) Update(ctx context.Context, s *schema.Schema, id string, fields Record) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model(&fields).
			TableExpr(s.Table).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", s.Entity, translateError(err))
	}
	return nil
}

// GetByID fetches one record by primary key.
func (r *BunStore) GetByID(ctx context.Context, s *schema.Schema, id string) (Record, error) {
	q := r.db.NewSelect().
		ColumnExpr("*").
		TableExpr(s.Table).
		Where("id = ?", id).
		Limit(1)

	recs, err := r.scanRecords(ctx, q, s)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.Entity, translateError(err))
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("get %s: %w", s.Entity, ErrNotFound)
	}
	return recs[0], nil
}

// List returns one page of records, newest first.
func (r *BunStore) List(ctx context.Context, s *schema.Schema, page Page) ([]Record, error) {
	q := r.db.NewSelect().
		ColumnExpr("*").
		TableExpr(s.Table).
		OrderExpr("added_at DESC").
		Limit(page.Limit).
		Offset(page.Offset())

	recs, err := r.scanRecords(ctx, q, s)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Entity, translateError(err))
	}
	return recs, nil
}

// SearchHoldings joins active holdings with their holding group. Column
// order matters: group columns first, holding columns second, so shared
// names (id, added_by, added_at) resolve to the holding's values.
func (r *BunStore) SearchHoldings(ctx context.Context, filter HoldingSearchFilter, page Page) ([]Record, error) {
	q := r.db.NewSelect().
		ColumnExpr("hg.*").
		ColumnExpr("h.*").
		TableExpr("holdings AS h").
		Join("JOIN holding_groups AS hg ON hg.id = h.holding_group_id").
		Where("h.active = ?", true).
		OrderExpr("h.added_at DESC").
		Limit(page.Limit).
		Offset(page.Offset())

	// The any filter spans the group's artist and title only; label has
	// its own filter.
	if filter.Any != "" {
		p := likePattern(filter.Any)
		q = q.Where(
			"(LOWER(hg.album_artist) LIKE ? OR LOWER(hg.album_title) LIKE ?)",
			p, p,
		)
	}
	if filter.AlbumArtist != "" {
		q = q.Where("LOWER(hg.album_artist) LIKE ?", likePattern(filter.AlbumArtist))
	}
	if filter.AlbumTitle != "" {
		q = q.Where("LOWER(hg.album_title) LIKE ?", likePattern(filter.AlbumTitle))
	}
	if filter.Label != "" {
		q = q.Where("LOWER(h.label) LIKE ?", likePattern(filter.Label))
	}

	recs, err := r.scanSearchRows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search holdings: %w", translateError(err))
	}
	return recs, nil
}

func likePattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

// scanRecords runs the query and builds schema-normalized maps.
func (r *BunStore) scanRecords(ctx context.Context, q *bun.SelectQuery, s *schema.Schema) ([]Record, error) {
	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows, func(col string, v any) any {
		f, ok := s.Field(col)
		if !ok {
			return v
		}
		return normalizeValue(f.Type, v)
	})
}

// scanSearchRows normalizes the merged holding/group result set. A column
// can belong to either schema; the holding takes precedence because the
// shared names carry its values after the merge.
func (r *BunStore) scanSearchRows(ctx context.Context, q *bun.SelectQuery) ([]Record, error) {
	rows, err := q.Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows, func(col string, v any) any {
		if f, ok := schema.Holdings.Field(col); ok {
			return normalizeValue(f.Type, v)
		}
		if f, ok := schema.HoldingGroups.Field(col); ok {
			return normalizeValue(f.Type, v)
		}
		return v
	})
}

// collectRecords scans every row into a map. Duplicate column names keep
// the last occurrence, which is how the search merge resolves shared
// columns in favor of the holding.
func collectRecords(rows *sql.Rows, normalize func(col string, v any) any) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	recs := []Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(Record, len(cols))
		for i, col := range cols {
			rec[col] = normalize(col, values[i])
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// storedTimeLayouts covers the formats the two backends hand back for
// timestamp columns.
var storedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeValue converts driver-level values into the canonical Go types
// the response encoder expects. SQLite hands booleans back as int64 and
// timestamps as strings.
func normalizeValue(t schema.FieldType, v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch t {
	case schema.TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x
		case int64:
			return x != 0
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b
			}
		}
	case schema.TypeInteger:
		switch x := v.(type) {
		case int64:
			return x
		case float64:
			return int64(x)
		case string:
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n
			}
		}
	case schema.TypeDate, schema.TypeDateTime:
		switch x := v.(type) {
		case time.Time:
			return x.UTC()
		case string:
			for _, layout := range storedTimeLayouts {
				if ts, err := time.Parse(layout, x); err == nil {
					return ts.UTC()
				}
			}
		}
	}
	return v
}

// translateError maps backend-specific failures onto the package
// sentinels so callers never see driver errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "23505", "23503":
			// unique_violation, foreign_key_violation
			return ErrConflict
		case "22P02":
			// invalid_text_representation
			return ErrSyntax
		}
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrConflict
	}
	return err
}
