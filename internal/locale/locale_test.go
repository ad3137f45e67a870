package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrFallsBackToKey(t *testing.T) {
	assert.Equal(t, "There are no valid parameters for this page.", Str("view_error_url_missing_parameters"))
	assert.Equal(t, "no_such_key", Str("no_such_key"), "unknown keys stay diagnosable")
}

func TestGetReportsPresence(t *testing.T) {
	_, ok := Get("view_recording_delete_confirmation")
	assert.True(t, ok)
	_, ok = Get("view_recording_play_confirmation")
	assert.False(t, ok, "play has no confirmation text")
}

func TestFormatSubstitutesPlaceholder(t *testing.T) {
	got := Format("view_recording_delete_confirmation", "recording link")
	assert.Equal(t, "Are you sure you want to delete this recording link?", got)
	assert.Equal(t, "This recording has 2 associated links", Format("view_recording_confirmation_warning_p", "2"))
}
