package domain

type (
	SessionTrackID  int64
	PlayerSessionID int64
)

type TrackState string

const (
	StateStopped TrackState = "stopped"
	StatePlaying TrackState = "playing"
	StatePaused  TrackState = "paused"
)

type PlayerMode string

const (
	ModeNormal PlayerMode = "normal" // tracks play in queue order
	ModeRepeat PlayerMode = "repeat" // repeat single track in a loop
)

func (m PlayerMode) Valid() bool {
	return m == ModeNormal || m == ModeRepeat
}

// SessionTrack is one queue entry of a player session.
// VotesCount mirrors len(Votes) at all times; the voting engine is the
// only mutator of both.
type SessionTrack struct {
	ID         SessionTrackID  `json:"id"`
	State      TrackState      `json:"state"`
	TrackID    TrackID         `json:"track_id"`
	Votes      map[UserID]bool `json:"-"`
	VotesCount int             `json:"votes_count"`
	Progress   float64         `json:"progress"` // elapsed seconds, 0 <= Progress <= duration
	Order      int             `json:"order"`    // tie-break key, source playlist position
}

type PlayerSession struct {
	ID         PlayerSessionID  `json:"id"`
	PlaylistID PlaylistID       `json:"playlist_id"`
	AuthorID   UserID           `json:"author_id"`
	Mode       PlayerMode       `json:"mode"`
	TrackQueue []SessionTrackID `json:"track_queue"`
}
