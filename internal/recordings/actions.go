package recordings

import (
	"fmt"
	"strings"

	"github.com/campusmeet/backend/internal/locale"
	"github.com/campusmeet/backend/internal/models"
)

// Action is the closed set of recording state-toggle actions.
type Action string

const (
	ActionPlay      Action = "play"
	ActionPublish   Action = "publish"
	ActionUnpublish Action = "unpublish"
	ActionProtect   Action = "protect"
	ActionUnprotect Action = "unprotect"
	ActionEdit      Action = "edit"
	ActionImport    Action = "import"
	ActionDelete    Action = "delete"
)

// ErrUnknownAction is wrapped by ParseAction for values outside the set.
var ErrUnknownAction = fmt.Errorf("unknown recording action")

// ParseAction matches an action string case-insensitively against the closed set.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(s)); a {
	case ActionPlay, ActionPublish, ActionUnpublish, ActionProtect, ActionUnprotect,
		ActionEdit, ActionImport, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// The broker verifies a mutation by polling one of these source flags until
// it reaches the goal state.
const (
	SourcePublished = "published"
	SourceProtected = "protected"
	SourceFound     = "found"
	SourceStatus    = "status"
)

// ActionRequest is the ephemeral payload describing one requested recording
// state change. It is built per click and discarded once the broker call
// completes.
type ActionRequest struct {
	Action      Action `form:"action" json:"action" binding:"required"`
	RecordingID string `form:"recordingid" json:"recordingid" binding:"required"`
	MeetingID   string `form:"meetingid" json:"meetingid"`
	Target      string `form:"target" json:"target"`
	Source      string `form:"source" json:"source"`
	GoalState   string `form:"goalstate" json:"goalstate"`
	Attempts    int    `form:"attempts" json:"attempts"`
}

// FillDefaults completes the request with the fixed per-action payload.
// Imported rows invert the delete payload: the row only exists locally, so
// the broker flips its status instead of polling the server for absence.
func (r *ActionRequest) FillDefaults(imported bool) {
	switch r.Action {
	case ActionPublish:
		r.Source, r.GoalState = SourcePublished, "true"
	case ActionUnpublish:
		r.Source, r.GoalState = SourcePublished, "false"
	case ActionProtect:
		r.Source, r.GoalState = SourceProtected, "true"
	case ActionUnprotect:
		r.Source, r.GoalState = SourceProtected, "false"
	case ActionDelete:
		if imported {
			r.Source, r.GoalState, r.Attempts = SourceStatus, "true", 1
		} else {
			r.Source, r.GoalState = SourceFound, "false"
		}
	case ActionPlay:
		r.Source, r.GoalState, r.Attempts = SourcePublished, "true", 1
	}
}

// actionReversed maps each action to its semantic opposite. A self mapping
// means the action has no opposite and reconciliation must not touch the
// row's affordance.
var actionReversed = map[Action]Action{
	ActionPlay:      ActionPlay,
	ActionPublish:   ActionUnpublish,
	ActionUnpublish: ActionPublish,
	ActionProtect:   ActionUnprotect,
	ActionUnprotect: ActionProtect,
	ActionEdit:      ActionEdit,
	ActionImport:    ActionImport,
	ActionDelete:    ActionDelete,
}

// Reversed returns the action's semantic opposite (or the action itself).
func (a Action) Reversed() Action {
	return actionReversed[a]
}

// actionTag names the icon glyph per action.
var actionTag = map[Action]string{
	ActionPlay:      "play",
	ActionPublish:   "hide",
	ActionUnpublish: "show",
	ActionProtect:   "lock",
	ActionUnprotect: "unlock",
	ActionEdit:      "edit",
	ActionImport:    "import",
	ActionDelete:    "delete",
}

// actionIconClass is the CSS class of each action's idle icon.
var actionIconClass = map[Action]string{
	ActionPlay:      "icon fa fa-play fa-fw iconsmall",
	ActionPublish:   "icon fa fa-eye-slash fa-fw iconsmall",
	ActionUnpublish: "icon fa fa-eye fa-fw iconsmall",
	ActionProtect:   "icon fa fa-unlock fa-fw iconsmall",
	ActionUnprotect: "icon fa fa-lock fa-fw iconsmall",
	ActionEdit:      "icon fa fa-pencil fa-fw iconsmall",
	ActionImport:    "icon fa fa-download fa-fw iconsmall",
	ActionDelete:    "icon fa fa-trash fa-fw iconsmall",
}

// BusyIconClass replaces the idle icon while the row's broker call is in flight.
const BusyIconClass = "icon fa fa-spinner fa-spin iconsmall"

// Tag returns the icon glyph name for the action.
func (a Action) Tag() string { return actionTag[a] }

// IconClass returns the idle icon CSS class for the action.
func (a Action) IconClass() string { return actionIconClass[a] }

// Tooltip returns the localized idle tooltip for the action's affordance.
func (a Action) Tooltip() string {
	return locale.Str("view_recording_list_actionbar_" + string(a))
}

// BusyTooltip returns the localized in-flight tooltip for the action.
func (a Action) BusyTooltip() string {
	return locale.Str("view_recording_list_action_" + string(a))
}

// ElementID returns the DOM identifier of the action's affordance for a row.
func (a Action) ElementID(recordingID string) string {
	return "recording-" + string(a) + "-" + recordingID
}

// RequiresConfirmation reports whether the action needs an explicit
// confirmation before the broker call proceeds. Delete and import are
// irreversible and always confirm (a locally imported row skips the delete
// confirmation: only the link copy is removed). Publish-class toggles confirm
// only when the recording carries more than one playback link.
func (a Action) RequiresConfirmation(rec *models.Recording) bool {
	switch a {
	case ActionImport:
		return true
	case ActionDelete:
		return !rec.Imported
	case ActionPublish, ActionUnpublish, ActionProtect, ActionUnprotect:
		return rec.Links() > 1
	default:
		return false
	}
}

// ConfirmationMessage builds the localized confirmation prompt, including the
// link-count warning and the "recording" vs "recording link" noun for
// imported rows. Returns "" when the action carries no confirmation text.
func (a Action) ConfirmationMessage(rec *models.Recording) string {
	base, ok := locale.Get("view_recording_" + string(a) + "_confirmation")
	if !ok {
		return ""
	}
	noun := locale.Str("view_recording")
	if rec.Imported {
		noun = locale.Str("view_recording_link")
	}
	base = strings.ReplaceAll(base, locale.Placeholder, noun)
	if a == ActionImport {
		return base
	}
	links := rec.Links()
	if links == 0 {
		return base
	}
	warningKey := "view_recording_confirmation_warning_p"
	if links == 1 {
		warningKey = "view_recording_confirmation_warning_s"
	}
	warning := locale.Format(warningKey, fmt.Sprintf("%d", links))
	return warning + ".\n\n" + base
}
