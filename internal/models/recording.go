package models

import (
	"time"

	"github.com/google/uuid"
)

// ArchiveStatus represents the lifecycle of a recording's S3 archive copy.
const (
	ArchiveStatusNone      = "none"
	ArchiveStatusPending   = "pending"
	ArchiveStatusCompleted = "completed"
	ArchiveStatusFailed    = "failed"
)

// Playback is one playback format link of a recording.
type Playback struct {
	Type   string `json:"type"` // e.g. "presentation", "video"
	URL    string `json:"url"`
	Length int    `json:"length"` // minutes
}

// Recording is one row of the recordings table. Rows come either straight
// from the remote conferencing server or from the local imported_recordings
// table; identity is RecordID in both cases. State flags are only mutated
// through the broker, never locally.
type Recording struct {
	RecordID  string     `json:"record_id"`
	MeetingID string     `json:"meeting_id"`
	RoomID    uuid.UUID  `json:"room_id"`
	Name      string     `json:"name"`
	Published bool       `json:"published"`
	Protected bool       `json:"protected"`
	Imported  bool       `json:"imported"`
	Playbacks []Playback `json:"playbacks"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`

	// Archive copy on S3, populated by the archive worker after import.
	ArchiveStatus string `json:"archive_status,omitempty"`
	S3Key         string `json:"s3_key,omitempty"`
	S3URL         string `json:"s3_url,omitempty"`
}

// Links returns the number of playback format links the recording carries.
func (r *Recording) Links() int { return len(r.Playbacks) }
