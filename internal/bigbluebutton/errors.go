package bigbluebutton

// createErrorKeys maps server messageKeys from a FAILED create response to
// localized message keys. Unknown keys map to "", in which case the caller
// falls back to the server-supplied message text.
var createErrorKeys = map[string]string{
	"maxParticipantsReached": "view_error_max_concurrent",
	"notFound":               "view_error_meeting_not_running",
	"idNotUnique":            "view_error_create",
	"checksumError":          "view_error_create",
}

// CreateErrorKey resolves a FAILED create messageKey to a localized key, or
// "" when no mapping exists.
func CreateErrorKey(messageKey string) string {
	return createErrorKeys[messageKey]
}
