package rooms

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusmeet/backend/internal/models"
)

// ErrNotFound is returned when no room matches the given identifiers.
var ErrNotFound = errors.New("room not found")

// Repository handles room, course and enrolment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a rooms repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roomColumns = `r.id, r.module_id, r.course_id, r.name, r.meeting_id, r.moderator_pass, r.viewer_pass,
	r.wait_for_moderator, r.record, COALESCE(r.welcome_message,''), COALESCE(r.presentation_name,''), COALESCE(r.presentation_url,''),
	r.created_at, r.updated_at`

func scanRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	err := row.Scan(&r.ID, &r.ModuleID, &r.CourseID, &r.Name, &r.MeetingID, &r.ModeratorPass, &r.ViewerPass,
		&r.WaitForModerator, &r.Record, &r.WelcomeMessage, &r.PresentationName, &r.PresentationURL,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// ValidateView resolves the room/course pair from either the course-module
// number (id param) or the room ID (bn param). Exactly the one that is set
// is used; both zero-valued means the request carried no valid parameters.
func (r *Repository) ValidateView(ctx context.Context, moduleID int64, roomID uuid.UUID) (*models.Room, *models.Course, error) {
	var room *models.Room
	var err error
	switch {
	case moduleID > 0:
		room, err = scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms r WHERE r.module_id = $1`, moduleID))
	case roomID != uuid.Nil:
		room, err = scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms r WHERE r.id = $1`, roomID))
	default:
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	course, err := r.GetCourse(ctx, room.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return room, course, nil
}

// GetCourse returns a course by ID.
func (r *Repository) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	const q = `SELECT id, full_name, short_name, created_at FROM courses WHERE id = $1`
	var c models.Course
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.FullName, &c.ShortName, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// EnrolmentRole returns the user's role in a course, or "" when not enrolled.
func (r *Repository) EnrolmentRole(ctx context.Context, courseID, userID uuid.UUID) (models.Role, error) {
	const q = `SELECT role FROM enrolments WHERE course_id = $1 AND user_id = $2`
	var role string
	err := r.pool.QueryRow(ctx, q, courseID, userID).Scan(&role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return models.Role(role), nil
}

// GroupName returns a course group's display name. Group 0 means all
// participants and is resolved by the caller.
func (r *Repository) GroupName(ctx context.Context, groupID int64) (string, error) {
	const q = `SELECT name FROM groups WHERE id = $1`
	var name string
	err := r.pool.QueryRow(ctx, q, groupID).Scan(&name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// GetByMeetingID resolves the room that owns the given meeting identifier.
// Group-scoped meeting IDs ("<id>[<group>]") match on their base identifier.
func (r *Repository) GetByMeetingID(ctx context.Context, meetingID string) (*models.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms r WHERE r.meeting_id = split_part($1, '[', 1)`
	return scanRoom(r.pool.QueryRow(ctx, q, meetingID))
}
