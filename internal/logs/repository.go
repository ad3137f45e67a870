// Package logs keeps the plugin's append-only audit trail of room events.
package logs

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusmeet/backend/internal/models"
)

// Repository handles room log persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a room logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one audit record. Meta may be nil.
func (r *Repository) Insert(ctx context.Context, log *models.RoomLog) error {
	const q = `INSERT INTO room_logs (id, room_id, user_id, meeting_id, event, meta)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	var meta any
	if len(log.Meta) > 0 {
		meta = log.Meta
	}
	return r.pool.QueryRow(ctx, q, log.RoomID, log.UserID, log.MeetingID, log.Event, meta).
		Scan(&log.ID, &log.CreatedAt)
}

// LogJoin appends a Join record carrying the entry origin.
func (r *Repository) LogJoin(ctx context.Context, roomID, userID uuid.UUID, meetingID string, origin models.Origin) error {
	meta, err := json.Marshal(models.JoinMeta{Origin: origin})
	if err != nil {
		return err
	}
	return r.Insert(ctx, &models.RoomLog{RoomID: roomID, UserID: userID, MeetingID: meetingID, Event: models.LogEventJoin, Meta: meta})
}

// LogCreate appends a Create record capturing whether recording is enabled.
func (r *Repository) LogCreate(ctx context.Context, roomID, userID uuid.UUID, meetingID string, record bool) error {
	meta, err := json.Marshal(models.CreateMeta{Record: record})
	if err != nil {
		return err
	}
	return r.Insert(ctx, &models.RoomLog{RoomID: roomID, UserID: userID, MeetingID: meetingID, Event: models.LogEventCreate, Meta: meta})
}

// LastJoin returns the user's most recent Join record, or nil when the user
// never joined. Used by the logout flow to detect a timeline origin.
func (r *Repository) LastJoin(ctx context.Context, userID uuid.UUID) (*models.RoomLog, error) {
	const q = `SELECT id, room_id, user_id, meeting_id, event, COALESCE(meta, 'null'::jsonb), created_at
		FROM room_logs WHERE user_id = $1 AND event = $2 ORDER BY created_at DESC LIMIT 1`
	var log models.RoomLog
	err := r.pool.QueryRow(ctx, q, userID, models.LogEventJoin).
		Scan(&log.ID, &log.RoomID, &log.UserID, &log.MeetingID, &log.Event, &log.Meta, &log.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

// ListByRoom returns a room's audit trail, newest first.
func (r *Repository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.RoomLog, error) {
	const q = `SELECT id, room_id, user_id, meeting_id, event, COALESCE(meta, 'null'::jsonb), created_at
		FROM room_logs WHERE room_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.RoomLog
	for rows.Next() {
		var log models.RoomLog
		if err := rows.Scan(&log.ID, &log.RoomID, &log.UserID, &log.MeetingID, &log.Event, &log.Meta, &log.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, log)
	}
	return list, rows.Err()
}
