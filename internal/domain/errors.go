package domain

import "errors"

// Error taxonomy shared by services, dispatcher and REST adapters.
// Wrap with fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	// ErrValidation — malformed or missing payload fields. Nothing was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrAccessDenied — a guard rejected the acting user before any mutation.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound — a referenced event/playlist/track/user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict — the mutation contradicts current state (e.g. duplicate track).
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable — the store failed transiently; callers retry a
	// bounded number of times before surfacing a generic failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)
