package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNoController is returned when a Runner is built without a wizard.
	ErrNoController = errors.New("prompt: wizard controller is required")
)
