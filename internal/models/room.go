package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is the LMS course a meeting room belongs to.
type Course struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	ShortName string    `json:"short_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Room is a meeting-room activity inside a course (one conferencing instance).
// ModuleID is the course-module number exposed to the frontend ("id" request
// parameter); the room's own ID is the "bn" parameter.
type Room struct {
	ID               uuid.UUID `json:"id"`
	ModuleID         int64     `json:"module_id"`
	CourseID         uuid.UUID `json:"course_id"`
	Name             string    `json:"name"`
	MeetingID        string    `json:"meeting_id"`
	ModeratorPass    string    `json:"-"`
	ViewerPass       string    `json:"-"`
	WaitForModerator bool      `json:"wait_for_moderator"`
	Record           bool      `json:"record"`
	WelcomeMessage   string    `json:"welcome_message"`
	PresentationName string    `json:"presentation_name,omitempty"`
	PresentationURL  string    `json:"presentation_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Group is a course group used to partition a room's meetings.
type Group struct {
	ID       int64     `json:"id"`
	CourseID uuid.UUID `json:"course_id"`
	Name     string    `json:"name"`
}

// Enrolment links a user to a course with a course-level role.
type Enrolment struct {
	CourseID uuid.UUID `json:"course_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     Role      `json:"role"`
}
