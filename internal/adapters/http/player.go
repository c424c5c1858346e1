package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nickaroot/music-room/internal/domain"
)

// Player endpoints are keyed by event so the same guards protect both
// surfaces; REST and the realtime layer share one source of truth.

type createSessionRequest struct {
	PlaylistID int64  `json:"playlist_id" validate:"required,gt=0"`
	Mode       string `json:"mode" validate:"omitempty,oneof=normal repeat"`
}

func (a *API) CreateSession(c *gin.Context) {
	user, event, ok := a.guardedEvent(c, a.Guards.OnlyForStaff)
	if !ok {
		return
	}
	var req createSessionRequest
	if !a.bind(c, &req) {
		return
	}
	mode := domain.PlayerMode(req.Mode)
	if req.Mode == "" {
		mode = domain.ModeNormal
	}
	sess, err := a.Players.CreateSession(domain.PlaylistID(req.PlaylistID), user.ID, mode)
	if err != nil {
		abortErr(c, err)
		return
	}
	if err := a.Events.SetPlayerSession(event.ID, sess.ID); err != nil {
		abortErr(c, err)
		return
	}
	view, err := a.Players.View(sess.ID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (a *API) sessionOf(c *gin.Context, event *domain.Event) (domain.PlayerSessionID, bool) {
	if event.PlayerSessionID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event has no player session"})
		return 0, false
	}
	return *event.PlayerSessionID, true
}

type voteRequest struct {
	TrackID int64 `json:"track_id" validate:"required,gt=0"`
}

func (a *API) VoteTrack(c *gin.Context) {
	user, event, ok := a.guardedEvent(c, a.Guards.OnlyForAccessed)
	if !ok {
		return
	}
	var req voteRequest
	if !a.bind(c, &req) {
		return
	}
	sessionID, ok := a.sessionOf(c, event)
	if !ok {
		return
	}
	if _, err := a.Players.Vote(domain.SessionTrackID(req.TrackID), user.ID); err != nil {
		abortErr(c, err)
		return
	}
	a.sessionView(c, sessionID)
}

type playTrackRequest struct {
	TrackID int64 `json:"track_id" validate:"required,gt=0"`
}

func (a *API) PlayTrack(c *gin.Context) {
	_, event, ok := a.guardedEvent(c, a.Guards.OnlyForStaff)
	if !ok {
		return
	}
	var req playTrackRequest
	if !a.bind(c, &req) {
		return
	}
	sessionID, ok := a.sessionOf(c, event)
	if !ok {
		return
	}
	if err := a.Players.PlayTrack(sessionID, domain.SessionTrackID(req.TrackID)); err != nil {
		abortErr(c, err)
		return
	}
	a.sessionView(c, sessionID)
}

type syncTrackRequest struct {
	Progress float64 `json:"progress" validate:"gte=0"`
}

func (a *API) SyncTrack(c *gin.Context) {
	_, event, ok := a.guardedEvent(c, a.Guards.OnlyForStaff)
	if !ok {
		return
	}
	var req syncTrackRequest
	if !a.bind(c, &req) {
		return
	}
	sessionID, ok := a.sessionOf(c, event)
	if !ok {
		return
	}
	if err := a.Players.SyncProgress(sessionID, req.Progress); err != nil {
		abortErr(c, err)
		return
	}
	a.sessionView(c, sessionID)
}

// PlayerControl covers the body-less controls: pause, resume, stop, next,
// previous, shuffle.
func (a *API) PlayerControl(op func(domain.PlayerSessionID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, event, ok := a.guardedEvent(c, a.Guards.OnlyForStaff)
		if !ok {
			return
		}
		sessionID, ok := a.sessionOf(c, event)
		if !ok {
			return
		}
		if err := op(sessionID); err != nil {
			abortErr(c, err)
			return
		}
		a.sessionView(c, sessionID)
	}
}

func (a *API) sessionView(c *gin.Context, id domain.PlayerSessionID) {
	view, err := a.Players.View(id)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
