package recordings

import (
	"errors"

	"github.com/campusmeet/backend/internal/locale"
	"github.com/campusmeet/backend/internal/models"
)

// ErrRowBusy is returned when an action is begun on a row that already has a
// broker call in flight. The trigger stays suspended until the outstanding
// call completes or fails.
var ErrRowBusy = errors.New("recording row is busy")

// RowState is the per-row lifecycle: idle -> busy -> idle.
type RowState int

const (
	StateIdle RowState = iota
	StateBusy
)

// Affordance is the visual handle of one row action: element identifier,
// icon class and tooltip. It is owned by the row view-model, not scraped
// back out of the rendered markup.
type Affordance struct {
	ElementID string `json:"element_id"`
	IconClass string `json:"icon_class"`
	Tooltip   string `json:"tooltip"`
	Action    Action `json:"action"`
}

func affordanceFor(a Action, recordingID string) Affordance {
	return Affordance{
		ElementID: a.ElementID(recordingID),
		IconClass: a.IconClass(),
		Tooltip:   a.Tooltip(),
		Action:    a,
	}
}

// busyContext preserves what the busy indicator replaced so a failure can
// restore the row exactly.
type busyContext struct {
	action Action
	prev   Affordance
}

// editContext preserves the pre-edit display name for rollback.
type editContext struct {
	previous string
}

// Row is the view-model of one recordings-table row. State flags mirror the
// server and are only adjusted locally as optimistic UI that Complete/Fail
// reconcile.
type Row struct {
	Recording        models.Recording
	Affordances      map[Action]Affordance
	PlaybacksVisible bool

	state RowState
	busy  *busyContext
	edit  *editContext
}

// NewRow builds the view-model for a recording with its idle affordances.
func NewRow(rec models.Recording) *Row {
	row := &Row{
		Recording:        rec,
		Affordances:      make(map[Action]Affordance),
		PlaybacksVisible: rec.Published,
	}
	actions := []Action{ActionPlay, ActionEdit, ActionImport, ActionDelete}
	if rec.Published {
		actions = append(actions, ActionUnpublish)
	} else {
		actions = append(actions, ActionPublish)
	}
	if rec.Protected {
		actions = append(actions, ActionUnprotect)
	} else {
		actions = append(actions, ActionProtect)
	}
	for _, a := range actions {
		row.Affordances[a] = affordanceFor(a, rec.RecordID)
	}
	return row
}

// State returns the row's current lifecycle state.
func (r *Row) State() RowState { return r.state }

// Begin moves the row to busy: the trigger is suspended and its affordance
// swapped for the busy indicator, with the prior affordance preserved for
// restoration. A second Begin while busy is rejected.
func (r *Row) Begin(action Action) error {
	if r.state == StateBusy {
		return ErrRowBusy
	}
	prev, ok := r.Affordances[action]
	if !ok {
		prev = affordanceFor(action, r.Recording.RecordID)
	}
	r.busy = &busyContext{action: action, prev: prev}
	r.Affordances[action] = Affordance{
		ElementID: prev.ElementID,
		IconClass: BusyIconClass,
		Tooltip:   action.BusyTooltip(),
		Action:    action,
	}
	r.state = StateBusy
	return nil
}

// StartEdit opens the inline rename, remembering the current name so a
// failed completion can restore it.
func (r *Row) StartEdit() string {
	r.edit = &editContext{previous: r.Recording.Name}
	return r.Recording.Name
}

// Complete reconciles the row after a successful broker call. For actions
// whose reversed mapping is themselves the affordance is left untouched;
// otherwise icon class, tooltip and element identifier all swap to the
// semantic opposite.
func (r *Row) Complete(action Action, newName string) {
	switch action {
	case ActionEdit:
		r.Recording.Name = newName
		r.edit = nil
	case ActionPublish:
		r.Recording.Published = true
		r.PlaybacksVisible = true
	case ActionUnpublish:
		r.Recording.Published = false
		r.PlaybacksVisible = false
	case ActionProtect:
		r.Recording.Protected = true
	case ActionUnprotect:
		r.Recording.Protected = false
	}

	reversed := action.Reversed()
	if reversed == action {
		// Self-reversed actions have no opposite; restoring the preserved
		// affordance leaves icon, tooltip and identifier unchanged.
		r.clearBusy()
		return
	}
	r.busy = nil
	r.state = StateIdle
	delete(r.Affordances, action)
	r.Affordances[reversed] = affordanceFor(reversed, r.Recording.RecordID)
}

// Fail restores the row after a failed broker call: the busy indicator is
// cleared and the prior affordance reinstated. A failed edit additionally
// reverts the name to its pre-edit value.
func (r *Row) Fail(action Action) {
	if action == ActionEdit && r.edit != nil {
		r.Recording.Name = r.edit.previous
		r.edit = nil
	}
	r.clearBusy()
}

func (r *Row) clearBusy() {
	if r.busy != nil {
		r.Affordances[r.busy.action] = r.busy.prev
		r.busy = nil
	}
	r.state = StateIdle
}

// Table is the view-model of the recordings table.
type Table struct {
	rows []*Row
	byID map[string]*Row

	// HasTable is false once the last row is removed and the table element
	// is replaced by the empty-state message.
	HasTable     bool
	EmptyMessage string
}

// NewTable builds the table view-model from recordings in display order.
func NewTable(recs []models.Recording) *Table {
	t := &Table{byID: make(map[string]*Row), HasTable: len(recs) > 0}
	if len(recs) == 0 {
		t.EmptyMessage = locale.Str("view_message_norecordings")
	}
	for _, rec := range recs {
		row := NewRow(rec)
		t.rows = append(t.rows, row)
		t.byID[rec.RecordID] = row
	}
	return t
}

// Row returns the row for a recording identifier, or nil.
func (t *Table) Row(recordingID string) *Row {
	return t.byID[recordingID]
}

// Len returns the number of rows still in the table.
func (t *Table) Len() int { return len(t.rows) }

// Remove drops a row after a successful delete or import. Removing the last
// row replaces the whole table with the "no recordings" message.
func (t *Table) Remove(recordingID string) {
	row, ok := t.byID[recordingID]
	if !ok {
		return
	}
	delete(t.byID, recordingID)
	for i, r := range t.rows {
		if r == row {
			t.rows = append(t.rows[:i], t.rows[i+1:]...)
			break
		}
	}
	if len(t.rows) == 0 {
		t.HasTable = false
		t.EmptyMessage = locale.Str("view_message_norecordings")
	}
}

// Rows returns the rows in display order.
func (t *Table) Rows() []*Row { return t.rows }
