package service

import "errors"

var (
	// ErrPersonaNotFound means the requested persona is not configured.
	ErrPersonaNotFound = errors.New("persona not found")

	// ErrPersonaConfigInvalid means the persona exists but its script has
	// no context.
	ErrPersonaConfigInvalid = errors.New("persona config invalid")

	// ErrEmptyHistory means there is nothing to compile.
	ErrEmptyHistory = errors.New("conversation history is empty")

	// ErrCompilationParse means the compiler answered without a JSON object.
	ErrCompilationParse = errors.New("compilation response is not a JSON object")

	// ErrDialogFinished is returned under FinishedPolicyReject when a turn is
	// sent after the persona has closed the dialog.
	ErrDialogFinished = errors.New("dialog already finished")

	// ErrBriefingNotFound means the briefing does not exist or belongs to
	// someone else.
	ErrBriefingNotFound = errors.New("briefing not found")
)

// IsConfigError reports whether err is a server-side persona misconfiguration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrPersonaNotFound) || errors.Is(err, ErrPersonaConfigInvalid)
}
