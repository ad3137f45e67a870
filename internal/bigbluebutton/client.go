// Package bigbluebutton implements the BigBlueButton-protocol HTTP API used
// by the remote conferencing server: signed query strings, XML envelopes.
package bigbluebutton

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrServerUnreachable signals that the conferencing server did not answer.
// The view router maps it to a role-differentiated error page.
var ErrServerUnreachable = errors.New("conferencing server unreachable")

// Client talks to the conferencing server API. All calls sign the query
// string with the shared secret (checksum = SHA1(call + query + secret)).
type Client struct {
	serverURL string
	secret    string
	rest      *resty.Client
	logger    *zap.Logger
}

// New creates an API client for the given server URL (API root) and secret.
func New(serverURL, secret string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rest := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/xml")
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		secret:    secret,
		rest:      rest,
		logger:    logger,
	}
}

// checksum signs an API call per the BigBlueButton protocol.
func (c *Client) checksum(call, rawQuery string) string {
	sum := sha1.Sum([]byte(call + rawQuery + c.secret))
	return hex.EncodeToString(sum[:])
}

// callURL builds the signed URL for an API call.
func (c *Client) callURL(call string, params url.Values) string {
	raw := params.Encode()
	signed := raw
	if signed != "" {
		signed += "&"
	}
	signed += "checksum=" + c.checksum(call, raw)
	return c.serverURL + "/" + call + "?" + signed
}

// get performs a signed GET call and decodes the XML envelope.
func (c *Client) get(ctx context.Context, call string, params url.Values) (*xmlResponse, error) {
	resp, err := c.rest.R().SetContext(ctx).Get(c.callURL(call, params))
	if err != nil {
		c.logger.Warn("conferencing API call failed", zap.String("call", call), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", call, ErrServerUnreachable)
	}
	var envelope xmlResponse
	if err := xml.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", call, err)
	}
	return &envelope, nil
}

// ServerVersion probes the API root. Returns the reported version, or an
// ErrServerUnreachable-wrapped error when the server does not answer.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	envelope, err := c.get(ctx, "", url.Values{})
	if err != nil {
		return "", err
	}
	if envelope.ReturnCode != ReturnCodeSuccess {
		return "", fmt.Errorf("version probe: %w", ErrServerUnreachable)
	}
	return envelope.Version, nil
}

// IsMeetingRunning reports whether the meeting is currently running.
func (c *Client) IsMeetingRunning(ctx context.Context, meetingID string) (bool, error) {
	params := url.Values{}
	params.Set("meetingID", meetingID)
	envelope, err := c.get(ctx, "isMeetingRunning", params)
	if err != nil {
		return false, err
	}
	return envelope.Running == "true", nil
}

// GetMeetingInfo fetches current meeting state.
func (c *Client) GetMeetingInfo(ctx context.Context, meetingID string) (*MeetingInfo, error) {
	params := url.Values{}
	params.Set("meetingID", meetingID)
	envelope, err := c.get(ctx, "getMeetingInfo", params)
	if err != nil {
		return nil, err
	}
	if envelope.ReturnCode != ReturnCodeSuccess {
		return nil, fmt.Errorf("getMeetingInfo: %s", envelope.MessageKey)
	}
	return &MeetingInfo{
		MeetingID:            envelope.MeetingID,
		MeetingName:          envelope.MeetingName,
		Running:              envelope.Running == "true",
		ParticipantCount:     envelope.ParticipantCount,
		ModeratorCount:       envelope.ModeratorCount,
		HasBeenForciblyEnded: envelope.HasBeenForciblyEnded == "true",
	}, nil
}

// CreateMeeting creates the meeting. A non-nil result with ReturnCode FAILED
// means the server rejected the request; the error is reserved for transport
// failures.
func (c *Client) CreateMeeting(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	params := url.Values{}
	params.Set("meetingID", req.MeetingID)
	params.Set("name", req.Name)
	params.Set("attendeePW", req.AttendeePW)
	params.Set("moderatorPW", req.ModeratorPW)
	params.Set("record", strconv.FormatBool(req.Record))
	if req.Welcome != "" {
		params.Set("welcome", req.Welcome)
	}
	if req.LogoutURL != "" {
		params.Set("logoutURL", req.LogoutURL)
	}
	for k, v := range req.Metadata {
		params.Set("meta_"+k, v)
	}

	callURL := c.callURL("create", params)
	request := c.rest.R().SetContext(ctx)
	if req.PresentationURL != "" {
		request.SetHeader("Content-Type", "application/xml")
		request.SetBody(presentationBody(req.PresentationName, req.PresentationURL))
	}
	resp, err := request.Post(callURL)
	if err != nil {
		c.logger.Warn("create meeting failed", zap.String("meeting_id", req.MeetingID), zap.Error(err))
		return nil, fmt.Errorf("create: %w", ErrServerUnreachable)
	}
	var envelope xmlResponse
	if err := xml.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("create: decode response: %w", err)
	}
	return &CreateResult{
		ReturnCode:           envelope.ReturnCode,
		MessageKey:           envelope.MessageKey,
		Message:              envelope.Message,
		HasBeenForciblyEnded: envelope.HasBeenForciblyEnded == "true",
	}, nil
}

// JoinURL builds the signed browser redirect URL into a meeting.
func (c *Client) JoinURL(meetingID, fullName, password string) string {
	params := url.Values{}
	params.Set("meetingID", meetingID)
	params.Set("fullName", fullName)
	params.Set("password", password)
	params.Set("redirect", "true")
	return c.callURL("join", params)
}

// GetRecordings lists recordings by meeting or record ID (either may be empty).
func (c *Client) GetRecordings(ctx context.Context, meetingID, recordID string) ([]RecordingInfo, error) {
	params := url.Values{}
	if meetingID != "" {
		params.Set("meetingID", meetingID)
	}
	if recordID != "" {
		params.Set("recordID", recordID)
	}
	envelope, err := c.get(ctx, "getRecordings", params)
	if err != nil {
		return nil, err
	}
	if envelope.ReturnCode != ReturnCodeSuccess {
		return nil, fmt.Errorf("getRecordings: %s", envelope.MessageKey)
	}
	list := make([]RecordingInfo, 0, len(envelope.Recordings))
	for _, rec := range envelope.Recordings {
		list = append(list, rec.toInfo())
	}
	return list, nil
}

// PublishRecordings sets the published flag of a recording.
func (c *Client) PublishRecordings(ctx context.Context, recordID string, publish bool) error {
	params := url.Values{}
	params.Set("recordID", recordID)
	params.Set("publish", strconv.FormatBool(publish))
	return c.expectSuccess(ctx, "publishRecordings", params)
}

// DeleteRecordings removes a recording from the server.
func (c *Client) DeleteRecordings(ctx context.Context, recordID string) error {
	params := url.Values{}
	params.Set("recordID", recordID)
	return c.expectSuccess(ctx, "deleteRecordings", params)
}

// UpdateRecordings updates recording metadata (e.g. meta_name) and the
// protect flag when set.
func (c *Client) UpdateRecordings(ctx context.Context, recordID string, protect *bool, meta map[string]string) error {
	params := url.Values{}
	params.Set("recordID", recordID)
	if protect != nil {
		params.Set("protect", strconv.FormatBool(*protect))
	}
	for k, v := range meta {
		params.Set("meta_"+k, v)
	}
	return c.expectSuccess(ctx, "updateRecordings", params)
}

func (c *Client) expectSuccess(ctx context.Context, call string, params url.Values) error {
	envelope, err := c.get(ctx, call, params)
	if err != nil {
		return err
	}
	if envelope.ReturnCode != ReturnCodeSuccess {
		msg := envelope.Message
		if msg == "" {
			msg = envelope.MessageKey
		}
		return fmt.Errorf("%s: %s", call, msg)
	}
	return nil
}

func presentationBody(name, docURL string) string {
	if name == "" {
		name = "presentation"
	}
	return fmt.Sprintf(
		`<modules><module name="presentation"><document url=%q filename=%q/></module></modules>`,
		docURL, name,
	)
}
