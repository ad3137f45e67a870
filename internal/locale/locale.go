// Package locale resolves message keys to user-facing strings. The plugin
// surfaces every participant-facing failure as a message key; handlers never
// embed literal English.
package locale

import "strings"

// Placeholder is substituted by Format.
const Placeholder = "{$a}"

var strs = map[string]string{
	"view_error_url_missing_parameters": "There are no valid parameters for this page.",
	"view_error_unable_join":            "Unable to join the meeting. Please check the meeting server URL in the plugin settings and make sure the server is running.",
	"view_error_unable_join_teacher":    "Unable to connect to the meeting server. Please contact your administrator.",
	"view_error_unable_join_student":    "Unable to connect. Please try again later or contact your teacher.",
	"view_error_create":                 "The meeting server responded with an error. The meeting could not be created.",
	"view_error_max_concurrent":         "The maximum number of concurrent meetings allowed has been reached.",
	"view_error_meeting_not_running":    "Something went wrong; the meeting is not running.",
	"index_error_forciblyended":         "Unable to join this meeting because it has been manually ended.",
	"view_error_not_enrolled":           "You are not enrolled in this course.",
	"view_message_close_window":         "The meeting has ended. You can close this window.",
	"allparticipants":                   "All participants",

	"view_message_norecordings": "There are no recordings available.",
	"view_recording":            "recording",
	"view_recording_link":       "recording link",

	"view_recording_delete_confirmation":    "Are you sure you want to delete this {$a}?",
	"view_recording_import_confirmation":    "Are you sure you want to import this {$a}?",
	"view_recording_publish_confirmation":   "Are you sure you want to publish this {$a}?",
	"view_recording_unpublish_confirmation": "Are you sure you want to unpublish this {$a}?",
	"view_recording_protect_confirmation":   "Are you sure you want to protect this {$a}?",
	"view_recording_unprotect_confirmation": "Are you sure you want to unprotect this {$a}?",

	"view_recording_confirmation_warning_s": "This recording has {$a} associated link",
	"view_recording_confirmation_warning_p": "This recording has {$a} associated links",

	"view_recording_list_action_play":      "Playing recording",
	"view_recording_list_action_publish":   "Publishing recording",
	"view_recording_list_action_unpublish": "Unpublishing recording",
	"view_recording_list_action_protect":   "Protecting recording",
	"view_recording_list_action_unprotect": "Unprotecting recording",
	"view_recording_list_action_edit":      "Updating recording",
	"view_recording_list_action_import":    "Importing recording",
	"view_recording_list_action_delete":    "Deleting recording",

	"view_recording_list_actionbar_play":      "Play",
	"view_recording_list_actionbar_publish":   "Publish",
	"view_recording_list_actionbar_unpublish": "Unpublish",
	"view_recording_list_actionbar_protect":   "Protect",
	"view_recording_list_actionbar_unprotect": "Unprotect",
	"view_recording_list_actionbar_edit":      "Edit",
	"view_recording_list_actionbar_import":    "Import",
	"view_recording_list_actionbar_delete":    "Delete",

	"view_recording_format_error_unreachable": "The playback URL for this recording is not reachable.",
}

// Get returns the string for key and whether it exists.
func Get(key string) (string, bool) {
	s, ok := strs[key]
	return s, ok
}

// Str returns the string for key, or the key itself when unknown so that a
// missing translation stays diagnosable instead of rendering empty.
func Str(key string) string {
	if s, ok := strs[key]; ok {
		return s
	}
	return key
}

// Format returns the string for key with the placeholder substituted.
func Format(key, a string) string {
	return strings.ReplaceAll(Str(key), Placeholder, a)
}
