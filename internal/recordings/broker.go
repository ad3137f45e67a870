package recordings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusmeet/backend/internal/bigbluebutton"
	"github.com/campusmeet/backend/internal/locale"
	"github.com/campusmeet/backend/internal/middleware"
	"github.com/campusmeet/backend/internal/models"
	"github.com/campusmeet/backend/pkg/queue"
	"github.com/campusmeet/backend/pkg/response"
)

const (
	defaultVerifyAttempts = 5
	verifyInterval        = 300 * time.Millisecond

	// EventRecordingChanged is broadcast to a room's realtime subscribers
	// after a successful broker mutation so other open tables reconcile.
	EventRecordingChanged = "recording_changed"
)

// MeetAPI is the slice of the conferencing server API the broker consumes.
type MeetAPI interface {
	GetRecordings(ctx context.Context, meetingID, recordID string) ([]bigbluebutton.RecordingInfo, error)
	PublishRecordings(ctx context.Context, recordID string, publish bool) error
	DeleteRecordings(ctx context.Context, recordID string) error
	UpdateRecordings(ctx context.Context, recordID string, protect *bool, meta map[string]string) error
}

// Notifier broadcasts room events to connected clients.
type Notifier interface {
	BroadcastToRoom(roomID uuid.UUID, event string, payload any)
}

// RoomDirectory maps a meeting identifier back to its room.
type RoomDirectory interface {
	GetByMeetingID(ctx context.Context, meetingID string) (*models.Room, error)
}

// AuditLog records the per-action audit rows.
type AuditLog interface {
	Insert(ctx context.Context, log *models.RoomLog) error
}

// ArchiveQueue enqueues archive jobs for imported recordings.
type ArchiveQueue interface {
	EnqueueRecordingArchive(ctx context.Context, payload queue.RecordingArchivePayload) error
}

// Broker performs recording state mutations: it maps an Action Request onto
// the remote API (or the imported-recordings table), verifies the goal state
// and reports the outcome as JSON.
type Broker struct {
	api      MeetAPI
	repo     *Repository
	roomRepo RoomDirectory
	logRepo  AuditLog
	notifier Notifier
	archive  ArchiveQueue
	logger   *zap.Logger
}

// NewBroker creates the recording broker.
func NewBroker(api MeetAPI, repo *Repository, roomRepo RoomDirectory, logRepo AuditLog,
	notifier Notifier, archive ArchiveQueue, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{api: api, repo: repo, roomRepo: roomRepo, logRepo: logRepo,
		notifier: notifier, archive: archive, logger: logger}
}

// brokerResult is the JSON body of every broker response. Status false
// carries the message the client surfaces in its failure alert.
type brokerResult struct {
	Action      Action `json:"action"`
	RecordingID string `json:"recordingid"`
	Status      bool   `json:"status"`
	Message     string `json:"message,omitempty"`
	PlaybackURL string `json:"playback_url,omitempty"`
}

// PerformAction handles POST /broker/recordings.
func (b *Broker) PerformAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	action, err := ParseAction(string(req.Action))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Action = action

	ctx := c.Request.Context()
	imported, err := b.repo.GetByRecordID(ctx, req.RecordingID)
	if err != nil {
		b.logger.Error("load imported recording failed", zap.Error(err), zap.String("record_id", req.RecordingID))
		response.Internal(c, "failed to resolve recording")
		return
	}
	if req.Source == "" {
		req.FillDefaults(imported != nil)
	}

	result := brokerResult{Action: req.Action, RecordingID: req.RecordingID, Status: true}
	switch req.Action {
	case ActionPlay:
		result.PlaybackURL, err = b.play(ctx, &req, imported)
	case ActionPublish, ActionUnpublish:
		err = b.togglePublished(ctx, &req, imported)
	case ActionProtect, ActionUnprotect:
		err = b.toggleProtected(ctx, &req, imported)
	case ActionEdit:
		err = b.edit(ctx, &req, imported)
	case ActionDelete:
		err = b.delete(ctx, &req, imported)
	case ActionImport:
		err = b.importRecording(ctx, &req)
	}
	if err != nil {
		result.Status = false
		result.Message = err.Error()
		b.logger.Warn("recording action failed",
			zap.String("action", string(req.Action)),
			zap.String("record_id", req.RecordingID),
			zap.Error(err))
		c.JSON(http.StatusOK, response.Body{Success: false, Data: result, Error: result.Message})
		return
	}

	b.logAndNotify(ctx, c, &req)
	response.OK(c, result)
}

func (b *Broker) play(ctx context.Context, req *ActionRequest, imported *models.Recording) (string, error) {
	if imported != nil {
		if !imported.Published {
			return "", errors.New(locale.Str("view_recording_format_error_unreachable"))
		}
		return firstPlaybackURL(imported.Playbacks), nil
	}
	recs, err := b.api.GetRecordings(ctx, "", req.RecordingID)
	if err != nil || len(recs) == 0 || !recs[0].Published {
		return "", errors.New(locale.Str("view_recording_format_error_unreachable"))
	}
	for _, p := range recs[0].Playbacks {
		if req.Target == "" || p.Type == req.Target {
			return p.URL, nil
		}
	}
	return "", errors.New(locale.Str("view_recording_format_error_unreachable"))
}

func (b *Broker) togglePublished(ctx context.Context, req *ActionRequest, imported *models.Recording) error {
	goal := req.Action == ActionPublish
	if imported != nil {
		return b.repo.SetPublished(ctx, req.RecordingID, goal)
	}
	if err := b.api.PublishRecordings(ctx, req.RecordingID, goal); err != nil {
		return err
	}
	return b.verify(ctx, req)
}

func (b *Broker) toggleProtected(ctx context.Context, req *ActionRequest, imported *models.Recording) error {
	goal := req.Action == ActionProtect
	if imported != nil {
		return b.repo.SetProtected(ctx, req.RecordingID, goal)
	}
	if err := b.api.UpdateRecordings(ctx, req.RecordingID, &goal, nil); err != nil {
		return err
	}
	return b.verify(ctx, req)
}

func (b *Broker) edit(ctx context.Context, req *ActionRequest, imported *models.Recording) error {
	name := req.GoalState
	if name == "" {
		return fmt.Errorf("empty recording name")
	}
	if imported != nil {
		return b.repo.SetName(ctx, req.RecordingID, name)
	}
	return b.api.UpdateRecordings(ctx, req.RecordingID, nil, map[string]string{"name": name})
}

func (b *Broker) delete(ctx context.Context, req *ActionRequest, imported *models.Recording) error {
	if imported != nil {
		// Only the local link copy is removed; the server-side recording
		// stays untouched.
		return b.repo.Delete(ctx, req.RecordingID)
	}
	if err := b.api.DeleteRecordings(ctx, req.RecordingID); err != nil {
		return err
	}
	return b.verify(ctx, req)
}

func (b *Broker) importRecording(ctx context.Context, req *ActionRequest) error {
	recs, err := b.api.GetRecordings(ctx, "", req.RecordingID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("recording %s not found on server", req.RecordingID)
	}
	info := recs[0]

	roomID, err := uuid.Parse(req.Target)
	if err != nil {
		room, rerr := b.roomRepo.GetByMeetingID(ctx, info.MeetingID)
		if rerr != nil {
			return fmt.Errorf("resolve destination room: %w", rerr)
		}
		roomID = room.ID
	}

	rec := &models.Recording{
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
	if err := b.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("store imported recording: %w", err)
	}

	if b.archive != nil {
		payload := queue.RecordingArchivePayload{
			RecordID:  rec.RecordID,
			RoomID:    rec.RoomID,
			SourceURL: firstPlaybackURL(rec.Playbacks),
		}
		if payload.SourceURL != "" {
			if err := b.archive.EnqueueRecordingArchive(ctx, payload); err != nil {
				b.logger.Warn("enqueue archive failed", zap.Error(err), zap.String("record_id", rec.RecordID))
			}
		}
	}
	return nil
}

// verify polls the request's source flag until the goal state is reached or
// attempts run out. delete polls for absence.
func (b *Broker) verify(ctx context.Context, req *ActionRequest) error {
	attempts := req.Attempts
	if attempts <= 0 {
		attempts = defaultVerifyAttempts
	}
	goal := req.GoalState == "true"
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(verifyInterval):
			}
		}
		recs, err := b.api.GetRecordings(ctx, "", req.RecordingID)
		if err != nil {
			return err
		}
		switch req.Source {
		case SourceFound:
			if (len(recs) > 0) == goal {
				return nil
			}
		case SourcePublished:
			if len(recs) > 0 && recs[0].Published == goal {
				return nil
			}
		case SourceProtected:
			if len(recs) > 0 && recs[0].Protected == goal {
				return nil
			}
		default:
			return nil
		}
	}
	return fmt.Errorf("recording %s did not reach goal state %s=%s", req.RecordingID, req.Source, req.GoalState)
}

// auditEvents maps every broker action onto its audit log event; each
// successful mutation leaves exactly one row.
var auditEvents = map[Action]string{
	ActionPlay:      models.LogEventPlayed,
	ActionPublish:   models.LogEventPublish,
	ActionUnpublish: models.LogEventUnpublish,
	ActionProtect:   models.LogEventProtect,
	ActionUnprotect: models.LogEventUnprotect,
	ActionEdit:      models.LogEventEdit,
	ActionDelete:    models.LogEventDelete,
	ActionImport:    models.LogEventImport,
}

func (b *Broker) logAndNotify(ctx context.Context, c *gin.Context, req *ActionRequest) {
	room, err := b.roomRepo.GetByMeetingID(ctx, req.MeetingID)
	if err != nil {
		return
	}
	userID, _ := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if event := auditEvents[req.Action]; event != "" {
		if err := b.logRepo.Insert(ctx, &models.RoomLog{
			RoomID: room.ID, UserID: userID, MeetingID: req.MeetingID, Event: event,
		}); err != nil {
			b.logger.Warn("audit log insert failed", zap.Error(err))
		}
	}
	if b.notifier != nil {
		b.notifier.BroadcastToRoom(room.ID, EventRecordingChanged, gin.H{
			"action":      req.Action,
			"recordingid": req.RecordingID,
			"meetingid":   req.MeetingID,
		})
	}
}

func firstPlaybackURL(playbacks []models.Playback) string {
	for _, p := range playbacks {
		if p.URL != "" {
			return p.URL
		}
	}
	return ""
}
