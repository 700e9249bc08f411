package schema

// Server-managed audit columns shared by every catalog entity. The
// controller stamps them; the validator strips them from all input.
const (
	FieldID      = "id"
	FieldAddedBy = "added_by"
	FieldAddedAt = "added_at"
)

// HoldingCommentTypes are the accepted values for holding_comments.type.
var HoldingCommentTypes = []string{"Review", "Comment", "Track warning", "Other"}

// TrackFccStatuses are the accepted values for tracks.has_fcc.
var TrackFccStatuses = []string{"Yes", "No", "Unknown"}

func withAudit(fields ...Field) []Field {
	audit := []Field{
		{Name: FieldID, Type: TypeUUID, ServerManaged: true},
		{Name: FieldAddedBy, Type: TypeString, ServerManaged: true},
		{Name: FieldAddedAt, Type: TypeDateTime, ServerManaged: true},
	}
	return append(audit, fields...)
}

var (
	Stacks = &Schema{
		Entity: "stacks",
		Table:  "stacks",
		Fields: withAudit(
			Field{Name: "name", Type: TypeString},
			Field{Name: "description", Type: TypeText, Nullable: true},
		),
	}

	Formats = &Schema{
		Entity: "formats",
		Table:  "formats",
		Fields: withAudit(
			Field{Name: "name", Type: TypeString},
			Field{Name: "description", Type: TypeText, Nullable: true},
			Field{Name: "physical", Type: TypeBoolean},
		),
	}

	HoldingGroups = &Schema{
		Entity: "holding_groups",
		Table:  "holding_groups",
		Fields: withAudit(
			Field{Name: "album_title", Type: TypeString},
			Field{Name: "album_artist", Type: TypeString},
			Field{Name: "releasegroup_mbid", Type: TypeUUID, Nullable: true},
			Field{Name: "description", Type: TypeText, Nullable: true},
			Field{Name: "active", Type: TypeBoolean, Default: "true"},
			Field{Name: "stack_id", Type: TypeUUID, References: "stacks"},
		),
	}

	Holdings = &Schema{
		Entity: "holdings",
		Table:  "holdings",
		Fields: withAudit(
			Field{Name: "label", Type: TypeString, Nullable: true},
			Field{Name: "release_mbid", Type: TypeUUID, Nullable: true},
			Field{Name: "description", Type: TypeText, Nullable: true},
			Field{Name: "source_url", Type: TypeString, Nullable: true},
			Field{Name: "source_desc", Type: TypeText, Nullable: true},
			Field{Name: "active", Type: TypeBoolean, Default: "true"},
			Field{Name: "holding_group_id", Type: TypeUUID, References: "holding_groups"},
			Field{Name: "format_id", Type: TypeUUID, References: "formats"},
		),
	}

	RotationReleases = &Schema{
		Entity: "rotation_releases",
		Table:  "rotation_releases",
		Fields: withAudit(
			Field{Name: "start", Type: TypeDateTime},
			Field{Name: "stop", Type: TypeDateTime, Nullable: true},
			Field{Name: "bin", Type: TypeString, Nullable: true},
			Field{Name: "holding_id", Type: TypeUUID, References: "holdings"},
		),
	}

	HoldingTags = &Schema{
		Entity: "holding_tags",
		Table:  "holding_tags",
		Fields: withAudit(
			Field{Name: "owner", Type: TypeString, Nullable: true},
			Field{Name: "tag", Type: TypeString},
			Field{Name: "holding_id", Type: TypeUUID, References: "holdings"},
		),
	}

	HoldingComments = &Schema{
		Entity: "holding_comments",
		Table:  "holding_comments",
		Fields: withAudit(
			Field{Name: "comment_text", Type: TypeText, Nullable: true},
			Field{Name: "reviewer_username", Type: TypeString, Nullable: true},
			Field{Name: "reviewer_fullname", Type: TypeString},
			Field{Name: "rating", Type: TypeInteger, Nullable: true},
			Field{Name: "review_date", Type: TypeDate, Nullable: true},
			Field{Name: "type", Type: TypeEnum, Enum: HoldingCommentTypes, Default: "Other"},
			Field{Name: "holding_id", Type: TypeUUID, References: "holdings"},
		),
	}

	Tracks = &Schema{
		Entity: "tracks",
		Table:  "tracks",
		Fields: withAudit(
			Field{Name: "title", Type: TypeString},
			Field{Name: "artist", Type: TypeString},
			Field{Name: "file_path", Type: TypeString, Nullable: true},
			Field{Name: "track_num", Type: TypeInteger},
			Field{Name: "disc_num", Type: TypeInteger, Default: "1"},
			Field{Name: "track_mbid", Type: TypeUUID, Nullable: true},
			Field{Name: "recording_mbid", Type: TypeUUID, Nullable: true},
			Field{Name: "has_fcc", Type: TypeEnum, Enum: TrackFccStatuses, Default: "Unknown"},
			Field{Name: "holding_id", Type: TypeUUID, References: "holdings"},
		),
	}

	TrackMetadata = &Schema{
		Entity: "track_metadata",
		Table:  "track_metadata",
		Fields: withAudit(
			Field{Name: "key", Type: TypeString},
			Field{Name: "value", Type: TypeText},
			Field{Name: "track_id", Type: TypeUUID, References: "tracks"},
		),
	}
)

// Catalog returns every entity schema in registration order.
func Catalog() []*Schema {
	return []*Schema{
		Stacks,
		Formats,
		HoldingGroups,
		Holdings,
		RotationReleases,
		HoldingTags,
		HoldingComments,
		Tracks,
		TrackMetadata,
	}
}

// ByEntity looks a schema up by its URL path segment.
func ByEntity(entity string) (*Schema, bool) {
	for _, s := range Catalog() {
		if s.Entity == entity {
			return s, true
		}
	}
	return nil, false
}
