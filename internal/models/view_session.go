package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Origin identifies the page a join was initiated from. It is stored with
// the join log and drives the post-logout redirect decision.
type Origin int

const (
	OriginBase Origin = iota
	OriginTimeline
	OriginIndex
)

// ViewSession is the per-user cached bundle of course/room/meeting data used
// across the plugin views. It is rebuilt whenever the user arrives from an
// index or timeline entry point and persisted in the session store; it is
// never destroyed explicitly, only expired with its TTL.
type ViewSession struct {
	UserID        uuid.UUID `json:"user_id"`
	UserFullName  string    `json:"user_full_name"`
	CourseID      uuid.UUID `json:"course_id"`
	CourseName    string    `json:"course_name"`
	RoomID        uuid.UUID `json:"room_id"`
	ModuleID      int64     `json:"module_id"`
	MeetingID     string    `json:"meeting_id"`
	MeetingName   string    `json:"meeting_name"`
	Administrator bool      `json:"administrator"`
	Moderator     bool      `json:"moderator"`
	Wait          bool      `json:"wait"`
	Record        bool      `json:"record"`
	GroupID       *int64    `json:"group_id,omitempty"`
	Welcome       string    `json:"welcome,omitempty"`
	ModeratorPass string    `json:"moderator_pass"`
	ViewerPass    string    `json:"viewer_pass"`

	PresentationName string `json:"presentation_name,omitempty"`
	PresentationURL  string `json:"presentation_url,omitempty"`

	LogoutURL     string `json:"logout_url"`
	ServerVersion string `json:"server_version"`

	RefreshedAt time.Time `json:"refreshed_at"`
}

// ApplyGroup scopes the session's meeting identifier and name to a group.
// Group 0 means "all participants".
func (s *ViewSession) ApplyGroup(groupID int64, groupName string) {
	s.GroupID = &groupID
	s.MeetingID = fmt.Sprintf("%s[%d]", s.MeetingID, groupID)
	s.MeetingName = fmt.Sprintf("%s (%s)", s.MeetingName, groupName)
}

// JoinPassword returns the meeting password matching the caller's role.
func (s *ViewSession) JoinPassword() string {
	if s.Administrator || s.Moderator {
		return s.ModeratorPass
	}
	return s.ViewerPass
}
