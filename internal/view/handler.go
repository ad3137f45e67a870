package view

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusmeet/backend/config"
	"github.com/campusmeet/backend/internal/bigbluebutton"
	"github.com/campusmeet/backend/internal/locale"
	"github.com/campusmeet/backend/internal/middleware"
	"github.com/campusmeet/backend/internal/models"
)

// RoomResolver resolves and authorizes the course/room pair for a view request.
type RoomResolver interface {
	ValidateView(ctx context.Context, moduleID int64, roomID uuid.UUID) (*models.Room, *models.Course, error)
	EnrolmentRole(ctx context.Context, courseID, userID uuid.UUID) (models.Role, error)
	GroupName(ctx context.Context, groupID int64) (string, error)
}

// SessionStore persists the per-user view session.
type SessionStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.ViewSession, error)
	Set(ctx context.Context, vs *models.ViewSession) error
}

// MeetAPI is the slice of the conferencing server API the view flow needs.
type MeetAPI interface {
	ServerVersion(ctx context.Context) (string, error)
	IsMeetingRunning(ctx context.Context, meetingID string) (bool, error)
	GetMeetingInfo(ctx context.Context, meetingID string) (*bigbluebutton.MeetingInfo, error)
	CreateMeeting(ctx context.Context, req bigbluebutton.CreateRequest) (*bigbluebutton.CreateResult, error)
	GetRecordings(ctx context.Context, meetingID, recordID string) ([]bigbluebutton.RecordingInfo, error)
	JoinURL(meetingID, fullName, password string) string
}

// LogStore records audit events and answers the last-join lookup.
type LogStore interface {
	LogJoin(ctx context.Context, roomID, userID uuid.UUID, meetingID string, origin models.Origin) error
	LogCreate(ctx context.Context, roomID, userID uuid.UUID, meetingID string, record bool) error
	Insert(ctx context.Context, log *models.RoomLog) error
	LastJoin(ctx context.Context, userID uuid.UUID) (*models.RoomLog, error)
}

// Handler dispatches the room view actions: join, logout and play. Every
// participant-facing failure renders a localized error page; there are no
// retries, each failure is terminal for the request.
type Handler struct {
	rooms    RoomResolver
	sessions SessionStore
	api      MeetAPI
	logs     LogStore
	portal   config.PortalConfig
	meet     config.MeetConfig
	logger   *zap.Logger
}

// NewHandler creates the view handler.
func NewHandler(rooms RoomResolver, sessions SessionStore, api MeetAPI, logs LogStore, portal config.PortalConfig, meet config.MeetConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{rooms: rooms, sessions: sessions, api: api, logs: logs, portal: portal, meet: meet, logger: logger}
}

// Serve handles GET /rooms/view. The request carries either the course-module
// number ("id") or the room UUID ("bn"); "timeline" and "index" mark the entry
// origin, "group" scopes the meeting to a course group, and "href"/"rid"/
// "rtype" identify a playback for action=play.
func (h *Handler) Serve(c *gin.Context) {
	ctx := c.Request.Context()

	userID, fullName, userRole, ok := callerIdentity(c)
	if !ok {
		renderError(c, locale.Str("view_error_url_missing_parameters"), "", "")
		return
	}

	moduleID, _ := strconv.ParseInt(c.Query("id"), 10, 64)
	roomID, _ := uuid.Parse(c.Query("bn"))
	if moduleID == 0 && roomID == uuid.Nil {
		renderError(c, locale.Str("view_error_url_missing_parameters"), "", "")
		return
	}

	room, course, err := h.rooms.ValidateView(ctx, moduleID, roomID)
	if err != nil {
		renderError(c, locale.Str("view_error_url_missing_parameters"), "", "")
		return
	}

	admin := userRole == string(models.RoleAdmin)
	moderator := false
	if !admin {
		role, err := h.rooms.EnrolmentRole(ctx, course.ID, userID)
		if err != nil || role == "" {
			renderError(c, locale.Str("view_error_not_enrolled"), h.portal.DashboardURL(), "")
			return
		}
		moderator = role == models.RoleTeacher
	} else {
		moderator = true
	}

	vs, err := h.sessions.Get(ctx, userID)
	if err != nil {
		h.logger.Warn("session load failed", zap.Error(err), zap.String("user_id", userID.String()))
	}

	// Arriving from a timeline or index listing rebuilds the session from the
	// current course/room bindings and re-checks server reachability. A join
	// without any usable cached session also rebuilds, so direct join links
	// keep working; logout and play never rebuild.
	fromTimeline := truthy(c.Query("timeline"))
	fromIndex := truthy(c.Query("index"))
	action := strings.ToLower(c.Query("action"))
	rebuild := fromTimeline || fromIndex
	if action == "join" && (vs == nil || vs.RoomID != room.ID) {
		rebuild = true
	}
	if rebuild {
		vs, err = h.buildSession(ctx, room, course, userID, fullName, admin, moderator)
		if err != nil {
			h.renderUnreachable(c, admin, moderator, course.ID)
			return
		}
		if g := c.Query("group"); g != "" {
			if groupID, err := strconv.ParseInt(g, 10, 64); err == nil && groupID >= 0 {
				if name, ok := h.groupName(ctx, groupID); ok {
					vs.ApplyGroup(groupID, name)
				}
			}
		}
		if err := h.sessions.Set(ctx, vs); err != nil {
			h.logger.Warn("session persist failed", zap.Error(err), zap.String("user_id", userID.String()))
		}
	}

	switch action {
	case "join":
		h.join(c, vs, origin(fromTimeline, fromIndex))
	case "logout":
		h.logout(c, vs, userID)
	case "play":
		h.play(c, room, userID)
	default:
		renderCloseWindow(c)
	}
}

// groupName resolves the display name for a group scope. Group 0 is the
// whole-course scope and has no stored group record.
func (h *Handler) groupName(ctx context.Context, groupID int64) (string, bool) {
	if groupID == 0 {
		return locale.Str("allparticipants"), true
	}
	name, err := h.rooms.GroupName(ctx, groupID)
	if err != nil {
		return "", false
	}
	return name, true
}

// join redirects the caller into the meeting, creating it remotely when it is
// not yet running. Plain participants with wait-for-moderator enabled are sent
// to the logout URL instead of triggering creation.
func (h *Handler) join(c *gin.Context, vs *models.ViewSession, origin models.Origin) {
	ctx := c.Request.Context()

	running, err := h.api.IsMeetingRunning(ctx, vs.MeetingID)
	if err != nil {
		h.renderUnreachable(c, vs.Administrator, vs.Moderator, vs.CourseID)
		return
	}
	if running {
		h.enterMeeting(c, vs, origin, false)
		return
	}
	if !vs.Administrator && !vs.Moderator && vs.Wait {
		c.Redirect(http.StatusFound, vs.LogoutURL)
		return
	}

	result, err := h.api.CreateMeeting(ctx, bigbluebutton.CreateRequest{
		MeetingID:        vs.MeetingID,
		Name:             vs.MeetingName,
		AttendeePW:       vs.ViewerPass,
		ModeratorPW:      vs.ModeratorPass,
		Record:           vs.Record,
		Welcome:          vs.Welcome,
		LogoutURL:        vs.LogoutURL,
		PresentationName: vs.PresentationName,
		PresentationURL:  vs.PresentationURL,
		Metadata: map[string]string{
			"origin":             "campusmeet",
			"origin-server-name": vs.CourseName,
		},
	})
	if err != nil {
		if errors.Is(err, bigbluebutton.ErrServerUnreachable) {
			h.renderUnreachable(c, vs.Administrator, vs.Moderator, vs.CourseID)
			return
		}
		renderError(c, locale.Str("view_error_create"), "", "")
		return
	}
	if result.ReturnCode == bigbluebutton.ReturnCodeFailed {
		// Prefer the mapped message key; fall back to the server's own text.
		if key := bigbluebutton.CreateErrorKey(result.MessageKey); key != "" {
			renderError(c, locale.Str(key), "", "")
		} else if result.Message != "" {
			renderError(c, result.Message, "", "")
		} else {
			renderError(c, locale.Str("view_error_create"), "", "")
		}
		return
	}
	if result.HasBeenForciblyEnded {
		renderError(c, locale.Str("index_error_forciblyended"), "", "")
		return
	}

	if err := h.logs.LogCreate(ctx, vs.RoomID, vs.UserID, vs.MeetingID, vs.Record); err != nil {
		h.logger.Warn("create log failed", zap.Error(err))
	}
	h.enterMeeting(c, vs, origin, true)
}

func (h *Handler) enterMeeting(c *gin.Context, vs *models.ViewSession, origin models.Origin, created bool) {
	ctx := c.Request.Context()
	if err := h.logs.LogJoin(ctx, vs.RoomID, vs.UserID, vs.MeetingID, origin); err != nil {
		h.logger.Warn("join log failed", zap.Error(err))
	}
	h.logger.Info("joining meeting",
		zap.String("meeting_id", vs.MeetingID),
		zap.String("user_id", vs.UserID.String()),
		zap.Bool("created", created))
	c.Redirect(http.StatusFound, h.api.JoinURL(vs.MeetingID, vs.UserFullName, vs.JoinPassword()))
}

// logout records the meeting-left event and decides between closing the
// window and redirecting to the dashboard (when the join originated on the
// timeline). Error parameters passed through from the meeting server are
// rendered as-is.
func (h *Handler) logout(c *gin.Context, vs *models.ViewSession, userID uuid.UUID) {
	ctx := c.Request.Context()

	if errs := c.Query("errors"); errs != "" {
		if decoded, err := url.QueryUnescape(errs); err == nil {
			renderError(c, decoded, "", "")
		} else {
			renderError(c, errs, "", "")
		}
		return
	}
	if vs == nil {
		renderCloseWindow(c)
		return
	}

	if err := h.logs.Insert(ctx, &models.RoomLog{
		RoomID:    vs.RoomID,
		UserID:    userID,
		MeetingID: vs.MeetingID,
		Event:     models.LogEventLeft,
	}); err != nil {
		h.logger.Warn("left log failed", zap.Error(err))
	}

	// Refresh the cached meeting info; the meeting may have ended.
	if _, err := h.api.GetMeetingInfo(ctx, vs.MeetingID); err != nil {
		h.logger.Debug("meeting info refresh failed", zap.Error(err))
	}

	last, err := h.logs.LastJoin(ctx, userID)
	if err == nil && last != nil && len(last.Meta) > 0 {
		var meta models.JoinMeta
		if json.Unmarshal(last.Meta, &meta) == nil && meta.Origin == models.OriginTimeline {
			c.Redirect(http.StatusFound, h.portal.DashboardURL())
			return
		}
	}
	renderCloseWindow(c)
}

// play resolves the playback target, records the event and redirects the
// browser to it. An explicit href wins; otherwise the recording's playback of
// the requested format is looked up on the meeting server.
func (h *Handler) play(c *gin.Context, room *models.Room, userID uuid.UUID) {
	ctx := c.Request.Context()

	rid := c.Query("rid")
	rtype := c.Query("rtype")
	if rtype == "" {
		rtype = "presentation"
	}
	mid := c.Query("mid")
	href, err := h.playbackHref(ctx, c.Query("href"), mid, rid, rtype)
	if err != nil {
		renderError(c, locale.Str("view_recording_format_error_unreachable"), "", "")
		return
	}
	if href == "" {
		if mid != "" && rid != "" {
			// The lookup ran but found no playback of the requested format.
			renderError(c, locale.Str("view_recording_format_error_unreachable"), "", "")
		} else {
			renderError(c, locale.Str("view_error_url_missing_parameters"), "", "")
		}
		return
	}
	target, err := url.QueryUnescape(href)
	if err != nil {
		renderError(c, locale.Str("view_recording_format_error_unreachable"), "", "")
		return
	}

	meta, _ := json.Marshal(map[string]string{
		"recording_id": rid,
		"format":       rtype,
	})
	if err := h.logs.Insert(ctx, &models.RoomLog{
		RoomID:    room.ID,
		UserID:    userID,
		MeetingID: room.MeetingID,
		Event:     models.LogEventPlayed,
		Meta:      meta,
	}); err != nil {
		h.logger.Warn("played log failed", zap.Error(err))
	}
	c.Redirect(http.StatusFound, target)
}

// playbackHref returns href as-is when given (or when the identifiers needed
// for a lookup are missing), else it fetches the recording and picks the
// playback matching rtype.
func (h *Handler) playbackHref(ctx context.Context, href, mid, rid, rtype string) (string, error) {
	if href != "" || mid == "" || rid == "" {
		return href, nil
	}
	recs, err := h.api.GetRecordings(ctx, mid, rid)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return "", nil
	}
	for _, p := range recs[0].Playbacks {
		if p.Type == rtype {
			return p.URL, nil
		}
	}
	return "", nil
}

// buildSession assembles a fresh view session for the room. It fails when the
// meeting server cannot be reached so the caller can render the role-specific
// error.
func (h *Handler) buildSession(ctx context.Context, room *models.Room, course *models.Course, userID uuid.UUID, fullName string, admin, moderator bool) (*models.ViewSession, error) {
	version, err := h.api.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	// Rooms without their own slide deck fall back to the site-wide default.
	presName, presURL := room.PresentationName, room.PresentationURL
	if presURL == "" {
		presName, presURL = h.meet.PresentationName, h.meet.PresentationURL
	}
	return &models.ViewSession{
		UserID:           userID,
		UserFullName:     fullName,
		CourseID:         course.ID,
		CourseName:       course.FullName,
		RoomID:           room.ID,
		ModuleID:         room.ModuleID,
		MeetingID:        room.MeetingID,
		MeetingName:      room.Name,
		Administrator:    admin,
		Moderator:        moderator,
		Wait:             room.WaitForModerator,
		Record:           room.Record,
		Welcome:          room.WelcomeMessage,
		ModeratorPass:    room.ModeratorPass,
		ViewerPass:       room.ViewerPass,
		PresentationName: presName,
		PresentationURL:  presURL,
		LogoutURL:        h.logoutURL(room.ModuleID),
		ServerVersion:    version,
		RefreshedAt:      time.Now(),
	}, nil
}

func (h *Handler) logoutURL(moduleID int64) string {
	return h.portal.BaseURL + "/rooms/view?action=logout&id=" + strconv.FormatInt(moduleID, 10)
}

// renderUnreachable renders the server-unreachable error with the remediation
// the caller's role allows: admins get the plugin settings page, teachers the
// course page, students a plain message.
func (h *Handler) renderUnreachable(c *gin.Context, admin, moderator bool, courseID uuid.UUID) {
	switch {
	case admin:
		renderError(c, locale.Str("view_error_unable_join"), h.portal.SettingsURL(), "")
	case moderator:
		renderError(c, locale.Str("view_error_unable_join_teacher"), h.portal.CourseURL(courseID.String()), "")
	default:
		renderError(c, locale.Str("view_error_unable_join_student"), h.portal.CourseURL(courseID.String()), "")
	}
}

func callerIdentity(c *gin.Context) (uuid.UUID, string, string, bool) {
	idVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, "", "", false
	}
	userID, ok := idVal.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", "", false
	}
	name := c.GetString(middleware.ContextUserName)
	role := c.GetString(middleware.ContextUserRole)
	return userID, name, role, true
}

func origin(timeline, index bool) models.Origin {
	switch {
	case timeline:
		return models.OriginTimeline
	case index:
		return models.OriginIndex
	default:
		return models.OriginBase
	}
}

func truthy(v string) bool {
	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}
