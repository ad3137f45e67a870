package recordings

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusmeet/backend/internal/bigbluebutton"
	"github.com/campusmeet/backend/internal/models"
	"github.com/campusmeet/backend/internal/rooms"
	"github.com/campusmeet/backend/pkg/response"
	"github.com/campusmeet/backend/pkg/storage"
)

// Handler serves the recordings table and archive downloads.
type Handler struct {
	api      MeetAPI
	repo     *Repository
	roomRepo *rooms.Repository
	s3       *storage.S3
	logger   *zap.Logger
}

// NewHandler creates a recordings handler.
func NewHandler(api MeetAPI, repo *Repository, roomRepo *rooms.Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{api: api, repo: repo, roomRepo: roomRepo, s3: s3, logger: logger}
}

// tableRow is one serialized row of the recordings table, affordances included.
type tableRow struct {
	Recording   models.Recording      `json:"recording"`
	Affordances map[Action]Affordance `json:"affordances"`
}

// ListByRoom handles GET /rooms/:id/recordings. Server-side recordings for
// the room's meeting are merged with locally imported rows; the empty-state
// message is included so the client can swap the table out wholesale.
func (h *Handler) ListByRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	room, _, err := h.roomRepo.ValidateView(c.Request.Context(), 0, roomID)
	if err != nil {
		response.NotFound(c, "room not found")
		return
	}

	var recs []models.Recording
	remote, err := h.api.GetRecordings(c.Request.Context(), room.MeetingID, "")
	if err != nil {
		h.logger.Warn("remote recordings unavailable", zap.Error(err), zap.String("meeting_id", room.MeetingID))
	} else {
		for _, info := range remote {
			recs = append(recs, remoteToModel(room.ID, info))
		}
	}
	imported, err := h.repo.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("list imported recordings failed", zap.Error(err), zap.String("room_id", roomID.String()))
		response.Internal(c, "failed to list recordings")
		return
	}
	recs = append(recs, imported...)

	table := NewTable(recs)
	out := make([]tableRow, 0, table.Len())
	for _, row := range table.Rows() {
		out = append(out, tableRow{Recording: row.Recording, Affordances: row.Affordances})
	}
	response.OK(c, gin.H{
		"rows":          out,
		"has_table":     table.HasTable,
		"empty_message": table.EmptyMessage,
	})
}

// GenerateDownloadURL handles GET /recordings/:id/download-url for archived
// imported recordings: returns a presigned S3 GET URL.
func (h *Handler) GenerateDownloadURL(c *gin.Context) {
	recordID := c.Param("id")
	rec, err := h.repo.GetByRecordID(c.Request.Context(), recordID)
	if err != nil || rec == nil {
		response.NotFound(c, "recording not found")
		return
	}
	if rec.ArchiveStatus != models.ArchiveStatusCompleted || rec.S3Key == "" {
		response.BadRequest(c, "recording not archived yet")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	if _, err := h.s3.HeadObject(c.Request.Context(), h.s3.RecordingsBucket(), rec.S3Key); err != nil {
		h.logger.Warn("archived object missing", zap.Error(err), zap.String("s3_key", rec.S3Key))
		response.NotFound(c, "archived copy not found")
		return
	}
	expire := h.s3.PresignExpire()
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), h.s3.RecordingsBucket(), rec.S3Key, expire)
	if err != nil {
		h.logger.Error("presign recording download failed", zap.Error(err), zap.String("record_id", recordID))
		response.Internal(c, "failed to generate download URL")
		return
	}
	response.OK(c, gin.H{"download_url": url, "expires_in": int(expire.Seconds())})
}

// DeleteArchive handles DELETE /recordings/:id/archive: removes the S3 copy
// of an imported recording and resets its archive state. The imported row
// itself stays; only the archived media is dropped.
func (h *Handler) DeleteArchive(c *gin.Context) {
	recordID := c.Param("id")
	rec, err := h.repo.GetByRecordID(c.Request.Context(), recordID)
	if err != nil || rec == nil {
		response.NotFound(c, "recording not found")
		return
	}
	if rec.S3Key == "" {
		response.BadRequest(c, "recording has no archived copy")
		return
	}
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	if err := h.s3.DeleteRecording(c.Request.Context(), rec.S3Key); err != nil {
		h.logger.Error("delete archived recording failed", zap.Error(err), zap.String("s3_key", rec.S3Key))
		response.Internal(c, "failed to delete archived copy")
		return
	}
	if err := h.repo.ClearArchive(c.Request.Context(), recordID); err != nil {
		h.logger.Error("clear archive state failed", zap.Error(err), zap.String("record_id", recordID))
		response.Internal(c, "failed to update recording")
		return
	}
	response.OK(c, gin.H{"record_id": recordID, "archive_status": models.ArchiveStatusNone})
}

func remoteToModel(roomID uuid.UUID, info bigbluebutton.RecordingInfo) models.Recording {
	rec := models.Recording{
		RecordID:  info.RecordID,
		MeetingID: info.MeetingID,
		RoomID:    roomID,
		Name:      info.Name,
		Published: info.Published,
		Protected: info.Protected,
		StartTime: time.UnixMilli(info.StartTime),
		EndTime:   time.UnixMilli(info.EndTime),
	}
	for _, p := range info.Playbacks {
		rec.Playbacks = append(rec.Playbacks, models.Playback{Type: p.Type, URL: p.URL, Length: p.Length})
	}
	return rec
}
