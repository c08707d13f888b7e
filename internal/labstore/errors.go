package labstore

import "errors"

var (
	// ErrNotFound reports an experiment id that is not stored.
	ErrNotFound = errors.New("record not found")
	// ErrMissingID reports an upsert without an experiment id.
	ErrMissingID = errors.New("record has no experiment id")
)
