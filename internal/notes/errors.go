package notes

import "errors"

// Errors returned by Service. Match them with errors.Is; the wrapped
// message carries the human-readable detail.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("note not found")
	ErrNotOwner   = errors.New("not owner of note")
	ErrStorage    = errors.New("storage failure")
)
