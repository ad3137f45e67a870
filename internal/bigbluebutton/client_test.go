package bigbluebutton

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	c := New("https://meet.example/api", "secret", nil)

	raw := "meetingID=room-1"
	want := sha1.Sum([]byte("isMeetingRunning" + raw + "secret"))
	assert.Equal(t, hex.EncodeToString(want[:]), c.checksum("isMeetingRunning", raw))
}

func TestCallURLSignsQuery(t *testing.T) {
	c := New("https://meet.example/api/", "secret", nil)

	params := url.Values{}
	params.Set("meetingID", "room-1")
	u := c.callURL("join", params)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "/api/join", parsed.Path)
	assert.Equal(t, "room-1", parsed.Query().Get("meetingID"))
	assert.NotEmpty(t, parsed.Query().Get("checksum"))
}

func TestJoinURL(t *testing.T) {
	c := New("https://meet.example/api", "secret", nil)

	u := c.JoinURL("room-1[3]", "Jamie Lee", "mod-pass")
	parsed, err := url.Parse(u)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "room-1[3]", q.Get("meetingID"))
	assert.Equal(t, "Jamie Lee", q.Get("fullName"))
	assert.Equal(t, "mod-pass", q.Get("password"))
	assert.Equal(t, "true", q.Get("redirect"))
	assert.NotEmpty(t, q.Get("checksum"))
}

func TestIsMeetingRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/isMeetingRunning", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("checksum"))
		w.Write([]byte(`<response><returncode>SUCCESS</returncode><running>true</running></response>`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", nil)
	running, err := c.IsMeetingRunning(context.Background(), "room-1")
	require.NoError(t, err)
	assert.True(t, running)
}

func TestGetRecordingsParsesEnvelope(t *testing.T) {
	const body = `<response><returncode>SUCCESS</returncode><recordings>
		<recording>
			<recordID>rec-1</recordID>
			<meetingID>room-1</meetingID>
			<name>Weekly lecture</name>
			<published>true</published>
			<protected>false</protected>
			<startTime>1710000000000</startTime>
			<endTime>1710003600000</endTime>
			<playback>
				<format><type>presentation</type><url>https://playback.example/rec-1</url><length>60</length></format>
			</playback>
		</recording>
	</recordings></response>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rec-1", r.URL.Query().Get("recordID"))
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", nil)
	recs, err := c.GetRecordings(context.Background(), "", "rec-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "rec-1", rec.RecordID)
	assert.Equal(t, "room-1", rec.MeetingID)
	assert.Equal(t, "Weekly lecture", rec.Name)
	assert.True(t, rec.Published)
	assert.False(t, rec.Protected)
	assert.Equal(t, int64(1710000000000), rec.StartTime)
	require.Len(t, rec.Playbacks, 1)
	assert.Equal(t, "presentation", rec.Playbacks[0].Type)
	assert.Equal(t, 60, rec.Playbacks[0].Length)
}

func TestCreateMeetingFailedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`<response><returncode>FAILED</returncode><messageKey>maxParticipantsReached</messageKey><message>full</message></response>`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", nil)
	result, err := c.CreateMeeting(context.Background(), CreateRequest{MeetingID: "room-1", Name: "Room"})
	require.NoError(t, err, "a FAILED envelope is a result, not a transport error")
	assert.Equal(t, ReturnCodeFailed, result.ReturnCode)
	assert.Equal(t, "maxParticipantsReached", result.MessageKey)
	assert.Equal(t, "full", result.Message)
}

func TestCreateMeetingUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "secret", nil)
	_, err := c.CreateMeeting(context.Background(), CreateRequest{MeetingID: "room-1", Name: "Room"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerUnreachable)
}

func TestCreateMeetingSendsPresentation(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`<response><returncode>SUCCESS</returncode></response>`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", nil)
	_, err := c.CreateMeeting(context.Background(), CreateRequest{
		MeetingID:        "room-1",
		Name:             "Room",
		PresentationName: "slides.pdf",
		PresentationURL:  "https://lms.example/slides.pdf",
	})
	require.NoError(t, err)
	assert.Contains(t, gotContentType, "application/xml")
	assert.True(t, strings.Contains(gotBody, "https://lms.example/slides.pdf"))
	assert.True(t, strings.Contains(gotBody, "slides.pdf"))
}

func TestCreateErrorKey(t *testing.T) {
	assert.Equal(t, "view_error_max_concurrent", CreateErrorKey("maxParticipantsReached"))
	assert.Equal(t, "view_error_meeting_not_running", CreateErrorKey("notFound"))
	assert.Equal(t, "view_error_create", CreateErrorKey("idNotUnique"))
	assert.Equal(t, "view_error_create", CreateErrorKey("checksumError"))
	assert.Empty(t, CreateErrorKey("somethingElse"))
}
