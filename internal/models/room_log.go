package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Room log event types. "join" rows carry an origin in their meta so the
// logout flow can tell whether the user came from the timeline.
const (
	LogEventCreate    = "Create"
	LogEventJoin      = "Join"
	LogEventLeft      = "Left"
	LogEventPlayed    = "Played"
	LogEventPublish   = "Publish"
	LogEventUnpublish = "Unpublish"
	LogEventProtect   = "Protect"
	LogEventUnprotect = "Unprotect"
	LogEventEdit      = "Edit"
	LogEventDelete    = "Delete"
	LogEventImport    = "Import"
)

// RoomLog is one append-only audit record for a room.
type RoomLog struct {
	ID        uuid.UUID       `json:"id"`
	RoomID    uuid.UUID       `json:"room_id"`
	UserID    uuid.UUID       `json:"user_id"`
	MeetingID string          `json:"meeting_id"`
	Event     string          `json:"event"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// JoinMeta is the meta payload of a Join log row.
type JoinMeta struct {
	Origin Origin `json:"origin"`
}

// CreateMeta is the meta payload of a Create log row.
type CreateMeta struct {
	Record bool `json:"record"`
}
