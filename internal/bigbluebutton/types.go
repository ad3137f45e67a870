package bigbluebutton

import "encoding/xml"

// API return codes.
const (
	ReturnCodeSuccess = "SUCCESS"
	ReturnCodeFailed  = "FAILED"
)

// CreateRequest holds parameters for the create API call.
type CreateRequest struct {
	MeetingID        string
	Name             string
	AttendeePW       string
	ModeratorPW      string
	Welcome          string
	Record           bool
	LogoutURL        string
	Metadata         map[string]string
	PresentationName string
	PresentationURL  string
}

// CreateResult is the parsed result of the create API call.
type CreateResult struct {
	ReturnCode           string
	MessageKey           string
	Message              string
	HasBeenForciblyEnded bool
}

// MeetingInfo is the parsed result of the getMeetingInfo API call.
type MeetingInfo struct {
	MeetingID            string
	MeetingName          string
	Running              bool
	ParticipantCount     int
	ModeratorCount       int
	HasBeenForciblyEnded bool
}

// RecordingInfo is one recording as reported by getRecordings.
type RecordingInfo struct {
	RecordID  string
	MeetingID string
	Name      string
	Published bool
	Protected bool
	StartTime int64 // epoch millis
	EndTime   int64
	Playbacks []PlaybackFormat
}

// PlaybackFormat is one playback format of a recording.
type PlaybackFormat struct {
	Type   string
	URL    string
	Length int
}

// xmlResponse is the wire envelope shared by all API calls.
type xmlResponse struct {
	XMLName              xml.Name       `xml:"response"`
	ReturnCode           string         `xml:"returncode"`
	MessageKey           string         `xml:"messageKey"`
	Message              string         `xml:"message"`
	Version              string         `xml:"version"`
	Running              string         `xml:"running"`
	HasBeenForciblyEnded string         `xml:"hasBeenForciblyEnded"`
	MeetingID            string         `xml:"meetingID"`
	MeetingName          string         `xml:"meetingName"`
	ParticipantCount     int            `xml:"participantCount"`
	ModeratorCount       int            `xml:"moderatorCount"`
	Recordings           []xmlRecording `xml:"recordings>recording"`
}

type xmlRecording struct {
	RecordID  string      `xml:"recordID"`
	MeetingID string      `xml:"meetingID"`
	Name      string      `xml:"name"`
	Published string      `xml:"published"`
	Protected string      `xml:"protected"`
	StartTime int64       `xml:"startTime"`
	EndTime   int64       `xml:"endTime"`
	Formats   []xmlFormat `xml:"playback>format"`
}

type xmlFormat struct {
	Type   string `xml:"type"`
	URL    string `xml:"url"`
	Length int    `xml:"length"`
}

func (r xmlRecording) toInfo() RecordingInfo {
	info := RecordingInfo{
		RecordID:  r.RecordID,
		MeetingID: r.MeetingID,
		Name:      r.Name,
		Published: r.Published == "true",
		Protected: r.Protected == "true",
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
	for _, f := range r.Formats {
		info.Playbacks = append(info.Playbacks, PlaybackFormat{Type: f.Type, URL: f.URL, Length: f.Length})
	}
	return info
}
