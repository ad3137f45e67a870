package recordings

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmeet/backend/internal/middleware"
	"github.com/campusmeet/backend/internal/models"
)

type fakeRoomDirectory struct {
	room *models.Room
	err  error
}

func (f *fakeRoomDirectory) GetByMeetingID(_ context.Context, _ string) (*models.Room, error) {
	return f.room, f.err
}

type fakeAuditLog struct {
	inserted []*models.RoomLog
}

func (f *fakeAuditLog) Insert(_ context.Context, log *models.RoomLog) error {
	f.inserted = append(f.inserted, log)
	return nil
}

type fakeNotifier struct {
	broadcasts int
	lastEvent  string
}

func (f *fakeNotifier) BroadcastToRoom(_ uuid.UUID, event string, _ any) {
	f.broadcasts++
	f.lastEvent = event
}

func TestLogAndNotifyWritesAuditRowPerAction(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		action Action
		event  string
	}{
		{ActionPlay, models.LogEventPlayed},
		{ActionPublish, models.LogEventPublish},
		{ActionUnpublish, models.LogEventUnpublish},
		{ActionProtect, models.LogEventProtect},
		{ActionUnprotect, models.LogEventUnprotect},
		{ActionEdit, models.LogEventEdit},
		{ActionDelete, models.LogEventDelete},
		{ActionImport, models.LogEventImport},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			room := &models.Room{ID: uuid.New(), MeetingID: "algebra-weekly-7"}
			audit := &fakeAuditLog{}
			notifier := &fakeNotifier{}
			b := NewBroker(nil, nil, &fakeRoomDirectory{room: room}, audit, notifier, nil, nil)

			userID := uuid.New()
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Set(middleware.ContextUserID, userID)

			b.logAndNotify(context.Background(), c, &ActionRequest{
				Action:      tc.action,
				RecordingID: "rec-1",
				MeetingID:   room.MeetingID,
			})

			require.Len(t, audit.inserted, 1)
			assert.Equal(t, tc.event, audit.inserted[0].Event)
			assert.Equal(t, room.ID, audit.inserted[0].RoomID)
			assert.Equal(t, userID, audit.inserted[0].UserID)
			assert.Equal(t, room.MeetingID, audit.inserted[0].MeetingID)
			assert.Equal(t, 1, notifier.broadcasts)
			assert.Equal(t, EventRecordingChanged, notifier.lastEvent)
		})
	}
}

func TestLogAndNotifySkipsUnresolvableRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)

	audit := &fakeAuditLog{}
	notifier := &fakeNotifier{}
	b := NewBroker(nil, nil, &fakeRoomDirectory{err: context.DeadlineExceeded}, audit, notifier, nil, nil)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(middleware.ContextUserID, uuid.New())

	b.logAndNotify(context.Background(), c, &ActionRequest{Action: ActionPublish, RecordingID: "rec-1", MeetingID: "gone"})

	assert.Empty(t, audit.inserted)
	assert.Zero(t, notifier.broadcasts)
}
