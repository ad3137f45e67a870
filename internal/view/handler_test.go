package view

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmeet/backend/config"
	"github.com/campusmeet/backend/internal/bigbluebutton"
	"github.com/campusmeet/backend/internal/locale"
	"github.com/campusmeet/backend/internal/middleware"
	"github.com/campusmeet/backend/internal/models"
)

type fakeRooms struct {
	room        *models.Room
	course      *models.Course
	validateErr error
	role        models.Role
	roleErr     error
	groupName   string

	validateCalls int
}

func (f *fakeRooms) ValidateView(_ context.Context, _ int64, _ uuid.UUID) (*models.Room, *models.Course, error) {
	f.validateCalls++
	if f.validateErr != nil {
		return nil, nil, f.validateErr
	}
	return f.room, f.course, nil
}

func (f *fakeRooms) EnrolmentRole(_ context.Context, _, _ uuid.UUID) (models.Role, error) {
	return f.role, f.roleErr
}

func (f *fakeRooms) GroupName(_ context.Context, _ int64) (string, error) {
	return f.groupName, nil
}

type fakeSessions struct {
	stored *models.ViewSession
	saved  *models.ViewSession
}

func (f *fakeSessions) Get(_ context.Context, _ uuid.UUID) (*models.ViewSession, error) {
	return f.stored, nil
}

func (f *fakeSessions) Set(_ context.Context, vs *models.ViewSession) error {
	f.saved = vs
	return nil
}

type fakeAPI struct {
	version       string
	versionErr    error
	running       bool
	runningErr    error
	createRes     *bigbluebutton.CreateResult
	createErr     error
	recordings    []bigbluebutton.RecordingInfo
	recordingsErr error

	versionCalls      int
	createCalls       int
	lastCreate        bigbluebutton.CreateRequest
	lastRecordingsMID string
}

func (f *fakeAPI) ServerVersion(_ context.Context) (string, error) {
	f.versionCalls++
	return f.version, f.versionErr
}

func (f *fakeAPI) IsMeetingRunning(_ context.Context, _ string) (bool, error) {
	return f.running, f.runningErr
}

func (f *fakeAPI) GetMeetingInfo(_ context.Context, meetingID string) (*bigbluebutton.MeetingInfo, error) {
	return &bigbluebutton.MeetingInfo{MeetingID: meetingID}, nil
}

func (f *fakeAPI) CreateMeeting(_ context.Context, req bigbluebutton.CreateRequest) (*bigbluebutton.CreateResult, error) {
	f.createCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createRes != nil {
		return f.createRes, nil
	}
	return &bigbluebutton.CreateResult{ReturnCode: bigbluebutton.ReturnCodeSuccess}, nil
}

func (f *fakeAPI) GetRecordings(_ context.Context, meetingID, _ string) ([]bigbluebutton.RecordingInfo, error) {
	f.lastRecordingsMID = meetingID
	return f.recordings, f.recordingsErr
}

func (f *fakeAPI) JoinURL(meetingID, fullName, password string) string {
	return "https://meet.example/join?meetingID=" + meetingID + "&pw=" + password
}

type fakeLogs struct {
	events   []string
	lastJoin *models.RoomLog
}

func (f *fakeLogs) LogJoin(_ context.Context, _, _ uuid.UUID, _ string, _ models.Origin) error {
	f.events = append(f.events, models.LogEventJoin)
	return nil
}

func (f *fakeLogs) LogCreate(_ context.Context, _, _ uuid.UUID, _ string, _ bool) error {
	f.events = append(f.events, models.LogEventCreate)
	return nil
}

func (f *fakeLogs) Insert(_ context.Context, log *models.RoomLog) error {
	f.events = append(f.events, log.Event)
	return nil
}

func (f *fakeLogs) LastJoin(_ context.Context, _ uuid.UUID) (*models.RoomLog, error) {
	return f.lastJoin, nil
}

var testPortal = config.PortalConfig{
	BaseURL:       "https://lms.example",
	DashboardPath: "/my",
	SettingsPath:  "/admin/settings",
	CoursePath:    "/course/view",
}

type viewFixture struct {
	handler  *Handler
	rooms    *fakeRooms
	sessions *fakeSessions
	api      *fakeAPI
	logs     *fakeLogs
	userID   uuid.UUID
}

func newFixture() *viewFixture {
	roomID := uuid.New()
	rooms := &fakeRooms{
		room: &models.Room{
			ID:            roomID,
			ModuleID:      7,
			CourseID:      uuid.New(),
			Name:          "Algebra weekly",
			MeetingID:     "algebra-weekly-7",
			ModeratorPass: "mod-pass",
			ViewerPass:    "view-pass",
		},
		course: &models.Course{ID: uuid.New(), FullName: "Algebra I"},
		role:   models.RoleStudent,
	}
	rooms.room.CourseID = rooms.course.ID
	sessions := &fakeSessions{}
	api := &fakeAPI{version: "2.7"}
	logs := &fakeLogs{}
	return &viewFixture{
		handler:  NewHandler(rooms, sessions, api, logs, testPortal, config.MeetConfig{}, nil),
		rooms:    rooms,
		sessions: sessions,
		api:      api,
		logs:     logs,
		userID:   uuid.New(),
	}
}

func (f *viewFixture) serve(t *testing.T, query string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/rooms/view?"+query, nil)
	c.Set(middleware.ContextUserID, f.userID)
	c.Set(middleware.ContextUserName, "Sam Taylor")
	c.Set(middleware.ContextUserRole, string(f.rooms.role))
	f.handler.Serve(c)
	return rec
}

func (f *viewFixture) session() *models.ViewSession {
	vs := &models.ViewSession{
		UserID:        f.userID,
		UserFullName:  "Sam Taylor",
		CourseID:      f.rooms.course.ID,
		CourseName:    f.rooms.course.FullName,
		RoomID:        f.rooms.room.ID,
		ModuleID:      f.rooms.room.ModuleID,
		MeetingID:     f.rooms.room.MeetingID,
		MeetingName:   f.rooms.room.Name,
		ModeratorPass: "mod-pass",
		ViewerPass:    "view-pass",
		LogoutURL:     testPortal.BaseURL + "/rooms/view?action=logout&id=7",
	}
	return vs
}

func TestServeMissingParameters(t *testing.T) {
	f := newFixture()
	rec := f.serve(t, "action=join")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), locale.Str("view_error_url_missing_parameters"))
	assert.Zero(t, f.rooms.validateCalls, "no lookup before parameter validation")
	assert.Nil(t, f.sessions.saved)
	assert.Empty(t, f.logs.events)
}

func TestServeNotEnrolled(t *testing.T) {
	f := newFixture()
	f.rooms.role = ""

	rec := f.serve(t, "id=7&action=join")

	assert.Contains(t, rec.Body.String(), locale.Str("view_error_not_enrolled"))
	assert.Contains(t, rec.Body.String(), testPortal.DashboardURL())
	assert.Zero(t, f.api.createCalls)
}

func TestServeUnreachableByRole(t *testing.T) {
	cases := []struct {
		name    string
		role    models.Role
		message string
		link    string
	}{
		{"admin gets settings link", models.RoleAdmin, "view_error_unable_join", testPortal.SettingsURL()},
		{"teacher gets course link", models.RoleTeacher, "view_error_unable_join_teacher", "/course/view"},
		{"student gets course link", models.RoleStudent, "view_error_unable_join_student", "/course/view"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.rooms.role = tc.role
			f.api.versionErr = bigbluebutton.ErrServerUnreachable

			rec := f.serve(t, "id=7&action=join")

			assert.Contains(t, rec.Body.String(), locale.Str(tc.message))
			assert.Contains(t, rec.Body.String(), tc.link)
		})
	}
}

func TestJoinRunningMeetingRedirects(t *testing.T) {
	f := newFixture()
	f.sessions.stored = f.session()
	f.api.running = true

	rec := f.serve(t, "id=7&action=join")

	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "meetingID=algebra-weekly-7")
	assert.Contains(t, loc, "pw=view-pass", "students join with the viewer password")
	assert.Zero(t, f.api.createCalls, "a running meeting is never re-created")
	assert.Equal(t, []string{models.LogEventJoin}, f.logs.events)
}

func TestJoinStudentWaitsForModerator(t *testing.T) {
	f := newFixture()
	vs := f.session()
	vs.Wait = true
	f.sessions.stored = vs
	f.api.running = false

	rec := f.serve(t, "id=7&action=join")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, vs.LogoutURL, rec.Header().Get("Location"))
	assert.Zero(t, f.api.createCalls)
	assert.Empty(t, f.logs.events)
}

func TestJoinModeratorCreatesMeeting(t *testing.T) {
	f := newFixture()
	f.rooms.role = models.RoleTeacher
	f.api.running = false

	rec := f.serve(t, "id=7&action=join")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, 1, f.api.createCalls)
	assert.Equal(t, "algebra-weekly-7", f.api.lastCreate.MeetingID)
	assert.Equal(t, "campusmeet", f.api.lastCreate.Metadata["origin"])
	assert.Equal(t, "Algebra I", f.api.lastCreate.Metadata["origin-server-name"])
	assert.Contains(t, rec.Header().Get("Location"), "pw=mod-pass")
	assert.Equal(t, []string{models.LogEventCreate, models.LogEventJoin}, f.logs.events)
	require.NotNil(t, f.sessions.saved, "rebuilt session is persisted")
	assert.True(t, f.sessions.saved.Moderator)
}

func TestJoinCreateFailedUsesMappedKey(t *testing.T) {
	f := newFixture()
	f.rooms.role = models.RoleTeacher
	f.api.createRes = &bigbluebutton.CreateResult{
		ReturnCode: bigbluebutton.ReturnCodeFailed,
		MessageKey: "maxParticipantsReached",
		Message:    "server text",
	}

	rec := f.serve(t, "id=7&action=join")

	assert.Contains(t, rec.Body.String(), locale.Str("view_error_max_concurrent"))
	assert.NotContains(t, rec.Body.String(), "server text")
	assert.Empty(t, f.logs.events)
}

func TestJoinCreateFailedFallsBackToServerMessage(t *testing.T) {
	f := newFixture()
	f.rooms.role = models.RoleTeacher
	f.api.createRes = &bigbluebutton.CreateResult{
		ReturnCode: bigbluebutton.ReturnCodeFailed,
		MessageKey: "somethingNovel",
		Message:    "the server is on fire",
	}

	rec := f.serve(t, "id=7&action=join")

	assert.Contains(t, rec.Body.String(), "the server is on fire")
}

func TestJoinGroupScopesMeeting(t *testing.T) {
	f := newFixture()
	f.rooms.role = models.RoleTeacher
	f.rooms.groupName = "Group B"
	f.api.running = true

	rec := f.serve(t, "id=7&group=3&action=join")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "algebra-weekly-7[3]")
	require.NotNil(t, f.sessions.saved)
	assert.Equal(t, "Algebra weekly (Group B)", f.sessions.saved.MeetingName)
}

func TestPlayRedirectsToDecodedHref(t *testing.T) {
	f := newFixture()
	f.sessions.stored = f.session()

	rec := f.serve(t, "id=7&action=play&href=https%3A%2F%2Fplayback.example%2Frec-1%3Ft%3D5&rid=rec-1&rtype=presentation")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://playback.example/rec-1?t=5", rec.Header().Get("Location"))
	assert.Equal(t, []string{models.LogEventPlayed}, f.logs.events)
}

func TestPlayWithoutHref(t *testing.T) {
	f := newFixture()
	f.sessions.stored = f.session()

	rec := f.serve(t, "id=7&action=play")

	assert.Contains(t, rec.Body.String(), locale.Str("view_error_url_missing_parameters"))
	assert.Empty(t, f.logs.events)
}

func TestPlayResolvesPlaybackFromIdentifiers(t *testing.T) {
	f := newFixture()
	f.api.recordings = []bigbluebutton.RecordingInfo{{
		RecordID: "rec-1",
		Playbacks: []bigbluebutton.PlaybackFormat{
			{Type: "statistics", URL: "https://playback.example/rec-1/stats"},
			{Type: "presentation", URL: "https://playback.example/rec-1/capture"},
		},
	}}

	rec := f.serve(t, "id=7&action=play&mid=algebra-weekly-7&rid=rec-1&rtype=presentation")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://playback.example/rec-1/capture", rec.Header().Get("Location"))
	assert.Equal(t, "algebra-weekly-7", f.api.lastRecordingsMID)
	assert.Equal(t, []string{models.LogEventPlayed}, f.logs.events)
}

func TestPlayUnknownFormatRendersError(t *testing.T) {
	f := newFixture()
	f.api.recordings = []bigbluebutton.RecordingInfo{{
		RecordID:  "rec-1",
		Playbacks: []bigbluebutton.PlaybackFormat{{Type: "statistics", URL: "https://playback.example/rec-1/stats"}},
	}}

	rec := f.serve(t, "id=7&action=play&mid=algebra-weekly-7&rid=rec-1&rtype=video")

	assert.Contains(t, rec.Body.String(), locale.Str("view_recording_format_error_unreachable"))
	assert.Empty(t, f.logs.events)
}

func TestLogoutRendersForwardedErrors(t *testing.T) {
	f := newFixture()
	f.sessions.stored = f.session()

	rec := f.serve(t, "id=7&action=logout&errors=You%20have%20been%20removed")

	assert.Contains(t, rec.Body.String(), "You have been removed")
	assert.Empty(t, f.logs.events, "forwarded errors skip the left log")
}

func TestLogoutTimelineJoinReturnsToDashboard(t *testing.T) {
	f := newFixture()
	f.sessions.stored = f.session()
	meta, err := json.Marshal(models.JoinMeta{Origin: models.OriginTimeline})
	require.NoError(t, err)
	f.logs.lastJoin = &models.RoomLog{Event: models.LogEventJoin, Meta: meta}

	rec := f.serve(t, "id=7&action=logout")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testPortal.DashboardURL(), rec.Header().Get("Location"))
	assert.Equal(t, []string{models.LogEventLeft}, f.logs.events)
}

func TestLogoutBaseJoinClosesWindow(t *testing.T) {
	f := newFixture()
	f.sessions.stored = f.session()
	meta, err := json.Marshal(models.JoinMeta{Origin: models.OriginBase})
	require.NoError(t, err)
	f.logs.lastJoin = &models.RoomLog{Event: models.LogEventJoin, Meta: meta}

	rec := f.serve(t, "id=7&action=logout")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), locale.Str("view_message_close_window"))
}

func TestLogoutWithoutSessionClosesWindow(t *testing.T) {
	f := newFixture()
	f.api.versionErr = bigbluebutton.ErrServerUnreachable

	rec := f.serve(t, "id=7&action=logout")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), locale.Str("view_message_close_window"))
	assert.Zero(t, f.api.versionCalls, "logout never probes the server")
	assert.Empty(t, f.logs.events)
}

func TestJoinGroupZeroScopesToAllParticipants(t *testing.T) {
	f := newFixture()
	f.rooms.role = models.RoleTeacher
	f.api.running = true

	rec := f.serve(t, "id=7&group=0&action=join")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "algebra-weekly-7[0]")
	require.NotNil(t, f.sessions.saved)
	assert.Equal(t, "Algebra weekly (All participants)", f.sessions.saved.MeetingName)
}

func TestUnknownActionClosesWindow(t *testing.T) {
	f := newFixture()
	f.sessions.stored = f.session()

	rec := f.serve(t, "id=7&action=reticulate")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), locale.Str("view_message_close_window"))
}
