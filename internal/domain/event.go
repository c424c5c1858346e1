package domain

import "time"

type EventID int64

type AccessType string

const (
	AccessPublic  AccessType = "public"  // everyone can access
	AccessPrivate AccessType = "private" // only invited users can access
)

func (t AccessType) Valid() bool {
	return t == AccessPublic || t == AccessPrivate
}

type AccessMode string

const (
	AccessModeGuest         AccessMode = "guest"         // only view
	AccessModeModerator     AccessMode = "moderator"     // edit playlist, invite users
	AccessModeAdministrator AccessMode = "administrator" // moderator rights + change access modes
)

func (m AccessMode) Valid() bool {
	return m == AccessModeGuest || m == AccessModeModerator || m == AccessModeAdministrator
}

type Event struct {
	ID         EventID    `json:"id"`
	Name       string     `json:"name"`
	AuthorID   UserID     `json:"author_id"`
	AccessType AccessType `json:"access_type"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	IsFinished bool       `json:"is_finished"`
	// PlayerSessionID points to the shared player session, if any.
	// At most one non-nil session per event at a time.
	PlayerSessionID *PlayerSessionID `json:"player_session_id,omitempty"`
}

// EventAccess grants a user one access mode on one event.
// The event's author is implicitly administrator and has no row.
type EventAccess struct {
	UserID     UserID     `json:"user_id"`
	EventID    EventID    `json:"event_id"`
	AccessMode AccessMode `json:"access_mode"`
}
