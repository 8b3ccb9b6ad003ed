package notebook

import "errors"

var (
	// ErrValidation is returned for empty note content.
	ErrValidation = errors.New("validation failed")

	// ErrConfirmationMismatch is returned when a delete request does not
	// carry the exact confirmation phrase.
	ErrConfirmationMismatch = errors.New("confirmation mismatch")

	// ErrNotFound is returned when the note does not exist.
	ErrNotFound = errors.New("note not found")
)
