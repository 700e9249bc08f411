package migrations

import (
	"context"
	"fmt"

	"github.com/impala-radio/impala/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20250801000001, down_20250801000001)
}

// catalogTables lists every catalog model with its foreign keys, in
// dependency order so creation and teardown stay consistent.
var catalogTables = []struct {
	name        string
	model       any
	foreignKeys []string
	indexes     []string
}{
	{
		name:  "stacks",
		model: (*models.Stack)(nil),
	},
	{
		name:  "formats",
		model: (*models.Format)(nil),
	},
	{
		name:  "holding_groups",
		model: (*models.HoldingGroup)(nil),
		foreignKeys: []string{
			`(stack_id) REFERENCES stacks(id)`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_holding_groups_stack_id ON holding_groups(stack_id)`,
		},
	},
	{
		name:  "holdings",
		model: (*models.Holding)(nil),
		foreignKeys: []string{
			`(holding_group_id) REFERENCES holding_groups(id)`,
			`(format_id) REFERENCES formats(id)`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_holdings_holding_group_id ON holdings(holding_group_id)`,
			`CREATE INDEX IF NOT EXISTS idx_holdings_format_id ON holdings(format_id)`,
		},
	},
	{
		name:  "rotation_releases",
		model: (*models.RotationRelease)(nil),
		foreignKeys: []string{
			`(holding_id) REFERENCES holdings(id)`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_rotation_releases_holding_id ON rotation_releases(holding_id)`,
		},
	},
	{
		name:  "holding_tags",
		model: (*models.HoldingTag)(nil),
		foreignKeys: []string{
			`(holding_id) REFERENCES holdings(id)`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_holding_tags_holding_id ON holding_tags(holding_id)`,
		},
	},
	{
		name:  "holding_comments",
		model: (*models.HoldingComment)(nil),
		foreignKeys: []string{
			`(holding_id) REFERENCES holdings(id)`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_holding_comments_holding_id ON holding_comments(holding_id)`,
		},
	},
	{
		name:  "tracks",
		model: (*models.Track)(nil),
		foreignKeys: []string{
			`(holding_id) REFERENCES holdings(id)`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_tracks_holding_id ON tracks(holding_id)`,
		},
	},
	{
		name:  "track_metadata",
		model: (*models.TrackMetadatum)(nil),
		foreignKeys: []string{
			`(track_id) REFERENCES tracks(id)`,
		},
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_track_metadata_track_id ON track_metadata(track_id)`,
		},
	},
}

// up_20250801000001 creates the full catalog schema.
func up_20250801000001(ctx context.Context, db *bun.DB) error {
	for _, t := range catalogTables {
		fmt.Printf(" [up] creating %s table...", t.name)

		q := db.NewCreateTable().
			Model(t.model).
			IfNotExists()

		// SQLite only honors FKs declared at table creation; they work
		// for Postgres here too, so declare them unconditionally.
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}

		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}

		for _, idx := range t.indexes {
			if _, err := db.Exec(idx); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", t.name, err)
			}
		}
		fmt.Println(" OK")
	}

	// Case-insensitive search runs LOWER(...) LIKE; give Postgres
	// expression indexes for the searched columns. SQLite plans these
	// queries as scans either way.
	if IsPostgreSQL(db) {
		searchIndexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_holding_groups_album_artist_lower ON holding_groups (LOWER(album_artist) text_pattern_ops)`,
			`CREATE INDEX IF NOT EXISTS idx_holding_groups_album_title_lower ON holding_groups (LOWER(album_title) text_pattern_ops)`,
			`CREATE INDEX IF NOT EXISTS idx_holdings_label_lower ON holdings (LOWER(label) text_pattern_ops)`,
		}
		for _, idx := range searchIndexes {
			if _, err := db.Exec(idx); err != nil {
				return fmt.Errorf("failed to create search index: %w", err)
			}
		}
	}
	return nil
}

// down_20250801000001 drops the catalog tables in reverse dependency order.
func down_20250801000001(ctx context.Context, db *bun.DB) error {
	for i := len(catalogTables) - 1; i >= 0; i-- {
		t := catalogTables[i]
		fmt.Printf(" [down] dropping %s table...", t.name)

		_, err := db.NewDropTable().
			Model(t.model).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop %s table: %w", t.name, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
