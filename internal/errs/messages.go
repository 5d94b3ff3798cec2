package errs

import "errors"

// messages maps each sentinel to the short text shown to the user. Rendering
// lives here, classification lives with the sentinels; the two never mix.
var messages = []struct {
	marker error
	text   string
}{
	{ErrNoSourceFound, "No source available for this url"},
	{ErrUserNotAuthorized, "Authentication failed. Check your cookies or username and password"},
	{ErrDataNotPresent, "Could not find expected data on the page. The site may have changed, or you may not be logged in"},
	{ErrMissingBookAccess, "Your account does not have access to this book"},
	{ErrBookNotFound, "The book could not be found"},
	{ErrBookNotReleased, "The book has not been released yet"},
	{ErrBookHasNoAudiobook, "The book does not have an audiobook edition"},
	{ErrRequest, "A network request failed"},
	{ErrNoFilesFound, "No audio files were found for this book"},
	{ErrFailedCombining, "Combining the audio files failed"},
	{ErrMissingDependency, "A required external program is not installed"},
	{ErrConfigNotFound, "The specified config file does not exist"},
}

// UserMessage returns the human-readable text for err, or an empty string
// when err carries no known marker and the raw error should be printed.
func UserMessage(err error) string {
	for _, entry := range messages {
		if errors.Is(err, entry.marker) {
			return entry.text
		}
	}
	return ""
}
