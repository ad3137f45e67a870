package recordings

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusmeet/backend/internal/models"
)

// Repository persists imported recordings. Recordings living on the remote
// server are never stored here; a row exists only once an instructor imports
// the recording into a room.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an imported-recordings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordingColumns = `record_id, meeting_id, room_id, name, published, protected, playbacks,
	start_time, end_time, archive_status, COALESCE(s3_key,''), COALESCE(s3_url,'')`

func scanRecording(row pgx.Row) (*models.Recording, error) {
	var rec models.Recording
	var playbacks []byte
	err := row.Scan(&rec.RecordID, &rec.MeetingID, &rec.RoomID, &rec.Name, &rec.Published, &rec.Protected,
		&playbacks, &rec.StartTime, &rec.EndTime, &rec.ArchiveStatus, &rec.S3Key, &rec.S3URL)
	if err != nil {
		return nil, err
	}
	if len(playbacks) > 0 {
		if err := json.Unmarshal(playbacks, &rec.Playbacks); err != nil {
			return nil, err
		}
	}
	rec.Imported = true
	return &rec, nil
}

// Create inserts an imported recording row.
func (r *Repository) Create(ctx context.Context, rec *models.Recording) error {
	playbacks, err := json.Marshal(rec.Playbacks)
	if err != nil {
		return err
	}
	const q = `INSERT INTO imported_recordings
		(record_id, meeting_id, room_id, name, published, protected, playbacks, start_time, end_time, archive_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.pool.Exec(ctx, q, rec.RecordID, rec.MeetingID, rec.RoomID, rec.Name,
		rec.Published, rec.Protected, playbacks, rec.StartTime, rec.EndTime, models.ArchiveStatusPending)
	return err
}

// GetByRecordID returns an imported recording, or nil when absent.
func (r *Repository) GetByRecordID(ctx context.Context, recordID string) (*models.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM imported_recordings WHERE record_id = $1`
	rec, err := scanRecording(r.pool.QueryRow(ctx, q, recordID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// ListByRoom returns a room's imported recordings, newest first.
func (r *Repository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM imported_recordings WHERE room_id = $1 ORDER BY start_time DESC`
	rows, err := r.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

// SetPublished flips the published flag of an imported row.
func (r *Repository) SetPublished(ctx context.Context, recordID string, published bool) error {
	const q = `UPDATE imported_recordings SET published = $1, updated_at = NOW() WHERE record_id = $2`
	_, err := r.pool.Exec(ctx, q, published, recordID)
	return err
}

// SetProtected flips the protected flag of an imported row.
func (r *Repository) SetProtected(ctx context.Context, recordID string, protected bool) error {
	const q = `UPDATE imported_recordings SET protected = $1, updated_at = NOW() WHERE record_id = $2`
	_, err := r.pool.Exec(ctx, q, protected, recordID)
	return err
}

// SetName renames an imported row.
func (r *Repository) SetName(ctx context.Context, recordID, name string) error {
	const q = `UPDATE imported_recordings SET name = $1, updated_at = NOW() WHERE record_id = $2`
	_, err := r.pool.Exec(ctx, q, name, recordID)
	return err
}

// Delete removes an imported row.
func (r *Repository) Delete(ctx context.Context, recordID string) error {
	const q = `DELETE FROM imported_recordings WHERE record_id = $1`
	_, err := r.pool.Exec(ctx, q, recordID)
	return err
}

// UpdateArchiveStatus sets only the archive lifecycle state.
func (r *Repository) UpdateArchiveStatus(ctx context.Context, recordID, status string) error {
	const q = `UPDATE imported_recordings SET archive_status = $1, updated_at = NOW() WHERE record_id = $2`
	_, err := r.pool.Exec(ctx, q, status, recordID)
	return err
}

// ClearArchive drops the row's S3 bookkeeping after the archived copy is
// removed.
func (r *Repository) ClearArchive(ctx context.Context, recordID string) error {
	const q = `UPDATE imported_recordings SET s3_url = NULL, s3_key = NULL, archive_status = $1, updated_at = NOW() WHERE record_id = $2`
	_, err := r.pool.Exec(ctx, q, models.ArchiveStatusNone, recordID)
	return err
}

// UpdateArchiveResult records the S3 copy produced by the archive worker.
func (r *Repository) UpdateArchiveResult(ctx context.Context, recordID, s3URL, s3Key string) error {
	const q = `UPDATE imported_recordings SET s3_url = $1, s3_key = $2, archive_status = $3, updated_at = NOW() WHERE record_id = $4`
	_, err := r.pool.Exec(ctx, q, s3URL, s3Key, models.ArchiveStatusCompleted, recordID)
	return err
}
