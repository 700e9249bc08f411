// Package models defines the persisted catalog records. The request path
// works on schema-driven maps; these structs exist so migrations can derive
// DDL from one authoritative place.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Stack is a physical shelving location for holdings.
type Stack struct {
	bun.BaseModel `bun:"table:stacks,alias:st"`

	ID          string    `bun:"id,pk,type:uuid"`
	Name        string    `bun:"name,notnull"`
	Description *string   `bun:"description"`
	AddedBy     string    `bun:"added_by,notnull"`
	AddedAt     time.Time `bun:"added_at,notnull"`
}

// Format is a physical or digital media format.
type Format struct {
	bun.BaseModel `bun:"table:formats,alias:f"`

	ID          string    `bun:"id,pk,type:uuid"`
	Name        string    `bun:"name,notnull"`
	Description *string   `bun:"description"`
	Physical    bool      `bun:"physical,notnull"`
	AddedBy     string    `bun:"added_by,notnull"`
	AddedAt     time.Time `bun:"added_at,notnull"`
}

// HoldingGroup is a release as catalogued, grouping one or more holdings.
type HoldingGroup struct {
	bun.BaseModel `bun:"table:holding_groups,alias:hg"`

	ID               string    `bun:"id,pk,type:uuid"`
	AlbumTitle       string    `bun:"album_title,notnull"`
	AlbumArtist      string    `bun:"album_artist,notnull"`
	ReleaseGroupMBID *string   `bun:"releasegroup_mbid,type:uuid"`
	Description      *string   `bun:"description"`
	Active           bool      `bun:"active,notnull,default:true"`
	StackID          string    `bun:"stack_id,notnull,type:uuid"`
	AddedBy          string    `bun:"added_by,notnull"`
	AddedAt          time.Time `bun:"added_at,notnull"`
}

// Holding is one physical or digital copy within a holding group.
type Holding struct {
	bun.BaseModel `bun:"table:holdings,alias:h"`

	ID             string    `bun:"id,pk,type:uuid"`
	Label          *string   `bun:"label"`
	ReleaseMBID    *string   `bun:"release_mbid,type:uuid"`
	Description    *string   `bun:"description"`
	SourceURL      *string   `bun:"source_url"`
	SourceDesc     *string   `bun:"source_desc"`
	Active         bool      `bun:"active,notnull,default:true"`
	HoldingGroupID string    `bun:"holding_group_id,notnull,type:uuid"`
	FormatID       string    `bun:"format_id,notnull,type:uuid"`
	AddedBy        string    `bun:"added_by,notnull"`
	AddedAt        time.Time `bun:"added_at,notnull"`
}

// RotationRelease records a holding's time window in rotation.
type RotationRelease struct {
	bun.BaseModel `bun:"table:rotation_releases,alias:rr"`

	ID        string     `bun:"id,pk,type:uuid"`
	Start     time.Time  `bun:"start,notnull"`
	Stop      *time.Time `bun:"stop"`
	Bin       *string    `bun:"bin"`
	HoldingID string     `bun:"holding_id,notnull,type:uuid"`
	AddedBy   string     `bun:"added_by,notnull"`
	AddedAt   time.Time  `bun:"added_at,notnull"`
}

// HoldingTag is a free-form tag a user attached to a holding.
type HoldingTag struct {
	bun.BaseModel `bun:"table:holding_tags,alias:ht"`

	ID        string    `bun:"id,pk,type:uuid"`
	Owner     *string   `bun:"owner"`
	Tag       string    `bun:"tag,notnull"`
	HoldingID string    `bun:"holding_id,notnull,type:uuid"`
	AddedBy   string    `bun:"added_by,notnull"`
	AddedAt   time.Time `bun:"added_at,notnull"`
}

// HoldingComment is a review or note attached to a holding.
type HoldingComment struct {
	bun.BaseModel `bun:"table:holding_comments,alias:hc"`

	ID               string     `bun:"id,pk,type:uuid"`
	CommentText      *string    `bun:"comment_text"`
	ReviewerUsername *string    `bun:"reviewer_username"`
	ReviewerFullname string     `bun:"reviewer_fullname,notnull"`
	Rating           *int64     `bun:"rating"`
	ReviewDate       *time.Time `bun:"review_date"`
	Type             string     `bun:"type,notnull,default:'Other'"`
	HoldingID        string     `bun:"holding_id,notnull,type:uuid"`
	AddedBy          string     `bun:"added_by,notnull"`
	AddedAt          time.Time  `bun:"added_at,notnull"`
}

// Track is a single track on a holding.
type Track struct {
	bun.BaseModel `bun:"table:tracks,alias:t"`

	ID            string    `bun:"id,pk,type:uuid"`
	Title         string    `bun:"title,notnull"`
	Artist        string    `bun:"artist,notnull"`
	FilePath      *string   `bun:"file_path"`
	TrackNum      int64     `bun:"track_num,notnull"`
	DiscNum       int64     `bun:"disc_num,notnull,default:1"`
	TrackMBID     *string   `bun:"track_mbid,type:uuid"`
	RecordingMBID *string   `bun:"recording_mbid,type:uuid"`
	HasFcc        string    `bun:"has_fcc,notnull,default:'Unknown'"`
	HoldingID     string    `bun:"holding_id,notnull,type:uuid"`
	AddedBy       string    `bun:"added_by,notnull"`
	AddedAt       time.Time `bun:"added_at,notnull"`
}

// TrackMetadatum is an arbitrary key/value pair attached to a track.
type TrackMetadatum struct {
	bun.BaseModel `bun:"table:track_metadata,alias:tm"`

	ID      string    `bun:"id,pk,type:uuid"`
	Key     string    `bun:"key,notnull"`
	Value   string    `bun:"value,notnull"`
	TrackID string    `bun:"track_id,notnull,type:uuid"`
	AddedBy string    `bun:"added_by,notnull"`
	AddedAt time.Time `bun:"added_at,notnull"`
}
