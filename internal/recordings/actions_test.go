package recordings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmeet/backend/internal/models"
)

func TestParseAction(t *testing.T) {
	t.Run("accepts known actions case-insensitively", func(t *testing.T) {
		a, err := ParseAction("Publish")
		require.NoError(t, err)
		assert.Equal(t, ActionPublish, a)

		a, err = ParseAction("DELETE")
		require.NoError(t, err)
		assert.Equal(t, ActionDelete, a)
	})

	t.Run("rejects unknown actions", func(t *testing.T) {
		_, err := ParseAction("explode")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownAction)
	})
}

func TestFillDefaults(t *testing.T) {
	cases := []struct {
		action    Action
		imported  bool
		source    string
		goalState string
		attempts  int
	}{
		{ActionPublish, false, SourcePublished, "true", 0},
		{ActionUnpublish, false, SourcePublished, "false", 0},
		{ActionProtect, false, SourceProtected, "true", 0},
		{ActionUnprotect, false, SourceProtected, "false", 0},
		{ActionDelete, false, SourceFound, "false", 0},
		{ActionDelete, true, SourceStatus, "true", 1},
		{ActionPlay, false, SourcePublished, "true", 1},
	}
	for _, tc := range cases {
		req := ActionRequest{Action: tc.action, RecordingID: "rec-1"}
		req.FillDefaults(tc.imported)
		assert.Equal(t, tc.source, req.Source, "source for %s imported=%v", tc.action, tc.imported)
		assert.Equal(t, tc.goalState, req.GoalState, "goalstate for %s imported=%v", tc.action, tc.imported)
		assert.Equal(t, tc.attempts, req.Attempts, "attempts for %s imported=%v", tc.action, tc.imported)
	}
}

func TestReversed(t *testing.T) {
	assert.Equal(t, ActionUnpublish, ActionPublish.Reversed())
	assert.Equal(t, ActionPublish, ActionUnpublish.Reversed())
	assert.Equal(t, ActionUnprotect, ActionProtect.Reversed())
	assert.Equal(t, ActionProtect, ActionUnprotect.Reversed())

	// Self mappings mark actions without a semantic opposite.
	for _, a := range []Action{ActionPlay, ActionEdit, ActionImport, ActionDelete} {
		assert.Equal(t, a, a.Reversed(), "%s should reverse to itself", a)
	}
}

func TestRequiresConfirmation(t *testing.T) {
	withLinks := func(n int) *models.Recording {
		rec := &models.Recording{RecordID: "rec-1"}
		for i := 0; i < n; i++ {
			rec.Playbacks = append(rec.Playbacks, models.Playback{Type: "presentation", URL: "https://playback.example/p"})
		}
		return rec
	}

	t.Run("unpublish with zero links skips confirmation", func(t *testing.T) {
		assert.False(t, ActionUnpublish.RequiresConfirmation(withLinks(0)))
	})

	t.Run("publish-class toggles confirm only above one link", func(t *testing.T) {
		assert.False(t, ActionPublish.RequiresConfirmation(withLinks(1)))
		assert.True(t, ActionPublish.RequiresConfirmation(withLinks(2)))
		assert.True(t, ActionUnprotect.RequiresConfirmation(withLinks(3)))
	})

	t.Run("delete always confirms unless the row is imported", func(t *testing.T) {
		assert.True(t, ActionDelete.RequiresConfirmation(withLinks(0)))
		imported := withLinks(0)
		imported.Imported = true
		assert.False(t, ActionDelete.RequiresConfirmation(imported))
	})

	t.Run("import always confirms", func(t *testing.T) {
		assert.True(t, ActionImport.RequiresConfirmation(withLinks(0)))
	})

	t.Run("play and edit never confirm", func(t *testing.T) {
		assert.False(t, ActionPlay.RequiresConfirmation(withLinks(5)))
		assert.False(t, ActionEdit.RequiresConfirmation(withLinks(5)))
	})
}

func TestConfirmationMessage(t *testing.T) {
	t.Run("imported rows use the link noun", func(t *testing.T) {
		rec := &models.Recording{RecordID: "rec-1", Imported: true}
		msg := ActionDelete.ConfirmationMessage(rec)
		assert.Contains(t, msg, "recording link")
	})

	t.Run("singular and plural warnings follow the link count", func(t *testing.T) {
		rec := &models.Recording{RecordID: "rec-1", Playbacks: []models.Playback{{URL: "u1"}}}
		assert.Contains(t, ActionUnpublish.ConfirmationMessage(rec), "1 associated link")

		rec.Playbacks = append(rec.Playbacks, models.Playback{URL: "u2"})
		assert.Contains(t, ActionUnpublish.ConfirmationMessage(rec), "2 associated links")
	})

	t.Run("actions without confirmation text return empty", func(t *testing.T) {
		rec := &models.Recording{RecordID: "rec-1"}
		assert.Empty(t, ActionPlay.ConfirmationMessage(rec))
		assert.Empty(t, ActionEdit.ConfirmationMessage(rec))
	})
}
