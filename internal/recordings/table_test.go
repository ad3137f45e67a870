package recordings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmeet/backend/internal/locale"
	"github.com/campusmeet/backend/internal/models"
)

func sampleRecording(id string) models.Recording {
	return models.Recording{
		RecordID:  id,
		MeetingID: "meeting-1",
		Name:      "Weekly lecture",
		Published: true,
		Playbacks: []models.Playback{{Type: "presentation", URL: "https://playback.example/" + id}},
	}
}

func TestRowBusyGuard(t *testing.T) {
	row := NewRow(sampleRecording("rec-1"))

	require.NoError(t, row.Begin(ActionUnpublish))
	assert.Equal(t, StateBusy, row.State())
	assert.Equal(t, BusyIconClass, row.Affordances[ActionUnpublish].IconClass)

	// Repeated clicks while busy are rejected, whatever the action.
	assert.ErrorIs(t, row.Begin(ActionUnpublish), ErrRowBusy)
	assert.ErrorIs(t, row.Begin(ActionDelete), ErrRowBusy)
}

func TestRowCompleteSwapsAffordance(t *testing.T) {
	row := NewRow(sampleRecording("rec-1"))
	require.NoError(t, row.Begin(ActionUnpublish))

	row.Complete(ActionUnpublish, "")

	assert.Equal(t, StateIdle, row.State())
	assert.False(t, row.Recording.Published)
	assert.False(t, row.PlaybacksVisible)

	_, hasOld := row.Affordances[ActionUnpublish]
	assert.False(t, hasOld, "completed action affordance should be gone")

	swapped, hasNew := row.Affordances[ActionPublish]
	require.True(t, hasNew, "reversed affordance should be installed")
	assert.Equal(t, ActionPublish.ElementID("rec-1"), swapped.ElementID)
	assert.Equal(t, ActionPublish.IconClass(), swapped.IconClass)
	assert.Equal(t, ActionPublish.Tooltip(), swapped.Tooltip)
}

func TestRowSelfReversedCompleteLeavesAffordanceAlone(t *testing.T) {
	row := NewRow(sampleRecording("rec-1"))
	before := row.Affordances[ActionPlay]

	require.NoError(t, row.Begin(ActionPlay))
	row.Complete(ActionPlay, "")

	assert.Equal(t, StateIdle, row.State())
	assert.Equal(t, before, row.Affordances[ActionPlay], "icon, id and tooltip must stay unchanged")
}

func TestRowFailRestoresPriorAffordance(t *testing.T) {
	row := NewRow(sampleRecording("rec-1"))
	before := row.Affordances[ActionUnpublish]

	require.NoError(t, row.Begin(ActionUnpublish))
	row.Fail(ActionUnpublish)

	assert.Equal(t, StateIdle, row.State())
	assert.Equal(t, before, row.Affordances[ActionUnpublish])
	assert.True(t, row.Recording.Published, "state flag must not change on failure")
}

func TestRowEditFailureRevertsName(t *testing.T) {
	row := NewRow(sampleRecording("rec-1"))

	prev := row.StartEdit()
	assert.Equal(t, "Weekly lecture", prev)

	require.NoError(t, row.Begin(ActionEdit))
	row.Fail(ActionEdit)

	assert.Equal(t, "Weekly lecture", row.Recording.Name)
	assert.Equal(t, StateIdle, row.State())
}

func TestRowEditCompleteCommitsName(t *testing.T) {
	row := NewRow(sampleRecording("rec-1"))
	row.StartEdit()
	require.NoError(t, row.Begin(ActionEdit))

	row.Complete(ActionEdit, "Final lecture")

	assert.Equal(t, "Final lecture", row.Recording.Name)
	assert.Equal(t, StateIdle, row.State())
}

func TestTableRemoveLastRow(t *testing.T) {
	table := NewTable([]models.Recording{sampleRecording("rec-1")})
	require.True(t, table.HasTable)
	require.Equal(t, 1, table.Len())

	table.Remove("rec-1")

	assert.Equal(t, 0, table.Len())
	assert.False(t, table.HasTable, "table element should be replaced")
	assert.Equal(t, locale.Str("view_message_norecordings"), table.EmptyMessage)
}

func TestTableRemoveKeepsRemainingRows(t *testing.T) {
	table := NewTable([]models.Recording{sampleRecording("rec-1"), sampleRecording("rec-2")})

	table.Remove("rec-1")

	assert.Equal(t, 1, table.Len())
	assert.True(t, table.HasTable)
	assert.Nil(t, table.Row("rec-1"))
	assert.NotNil(t, table.Row("rec-2"))
}

func TestNewRowAffordancesFollowState(t *testing.T) {
	published := NewRow(sampleRecording("rec-1"))
	_, hasUnpublish := published.Affordances[ActionUnpublish]
	_, hasPublish := published.Affordances[ActionPublish]
	assert.True(t, hasUnpublish)
	assert.False(t, hasPublish)

	rec := sampleRecording("rec-2")
	rec.Published = false
	rec.Protected = true
	hidden := NewRow(rec)
	_, hasPublish = hidden.Affordances[ActionPublish]
	_, hasUnprotect := hidden.Affordances[ActionUnprotect]
	assert.True(t, hasPublish)
	assert.True(t, hasUnprotect)
	assert.False(t, hidden.PlaybacksVisible)
}
