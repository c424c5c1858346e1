package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/nickaroot/music-room/internal/app"
	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/service"
	"github.com/nickaroot/music-room/internal/store"
)

// API exposes the bootstrap REST surface. Collaborative mutations flow
// through the websocket; REST covers record creation and read views.
type API struct {
	Users     *service.UserService
	Events    *service.EventService
	Playlists *service.PlaylistService
	Players   *service.PlayerService
	Guards    *app.Guards
	Store     store.Store

	validate *validator.Validate
}

func NewAPI(users *service.UserService, events *service.EventService, playlists *service.PlaylistService, players *service.PlayerService, guards *app.Guards, st store.Store) *API {
	return &API{
		Users:     users,
		Events:    events,
		Playlists: playlists,
		Players:   players,
		Guards:    guards,
		Store:     st,
		validate:  validator.New(),
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortErr(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = "temporary failure, try again"
	}
	c.JSON(status, gin.H{"error": msg})
}

// caller resolves the pre-authenticated identity from the X-User-Id
// header. Token issuance belongs to the excluded auth layer.
func (a *API) caller(c *gin.Context) (*domain.User, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-User-Id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return nil, false
	}
	user, err := a.Store.GetUser(domain.UserID(id))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return nil, false
	}
	return user, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (a *API) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return false
	}
	if err := a.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=150"`
}

func (a *API) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !a.bind(c, &req) {
		return
	}
	user, err := a.Users.Create(req.Username)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type createArtistRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (a *API) CreateArtist(c *gin.Context) {
	var req createArtistRequest
	if !a.bind(c, &req) {
		return
	}
	artist := &domain.Artist{Name: req.Name}
	if err := a.Store.SaveArtist(artist); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, artist)
}

type createTrackRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	ArtistID int64  `json:"artist_id" validate:"required"`
}

func (a *API) CreateTrack(c *gin.Context) {
	var req createTrackRequest
	if !a.bind(c, &req) {
		return
	}
	if _, err := a.Store.GetArtist(domain.ArtistID(req.ArtistID)); err != nil {
		abortErr(c, err)
		return
	}
	track := &domain.Track{Name: req.Name, ArtistID: domain.ArtistID(req.ArtistID)}
	if err := a.Store.SaveTrack(track); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, track)
}

type createTrackFileRequest struct {
	Extension string  `json:"extension" validate:"required,oneof=mp3 flac"`
	Duration  float64 `json:"duration" validate:"gte=0"`
}

func (a *API) CreateTrackFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req createTrackFileRequest
	if !a.bind(c, &req) {
		return
	}
	if _, err := a.Store.GetTrack(domain.TrackID(id)); err != nil {
		abortErr(c, err)
		return
	}
	file := &domain.TrackFile{
		TrackID:   domain.TrackID(id),
		Extension: domain.TrackExtension(req.Extension),
		Duration:  req.Duration,
	}
	if err := a.Store.SaveTrackFile(file); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

type createPlaylistRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Type       string `json:"type" validate:"required,oneof=default custom temporary"`
	AccessType string `json:"access_type" validate:"required,oneof=public private"`
}

func (a *API) CreatePlaylist(c *gin.Context) {
	user, ok := a.caller(c)
	if !ok {
		return
	}
	var req createPlaylistRequest
	if !a.bind(c, &req) {
		return
	}
	playlist, err := a.Playlists.Create(req.Name, user.ID, domain.PlaylistType(req.Type), domain.AccessType(req.AccessType))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, playlist)
}

func (a *API) GetPlaylist(c *gin.Context) {
	if _, ok := a.caller(c); !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := a.Playlists.View(domain.PlaylistID(id))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type createEventRequest struct {
	Name       string    `json:"name" validate:"required,max=200"`
	AccessType string    `json:"access_type" validate:"required,oneof=public private"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
}

func (a *API) CreateEvent(c *gin.Context) {
	user, ok := a.caller(c)
	if !ok {
		return
	}
	var req createEventRequest
	if !a.bind(c, &req) {
		return
	}
	event, err := a.Events.Create(req.Name, user.ID, domain.AccessType(req.AccessType), req.StartDate, req.EndDate)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (a *API) GetEvent(c *gin.Context) {
	_, event, ok := a.guardedEvent(c, a.Guards.OnlyForAccessed)
	if !ok {
		return
	}
	view, err := a.Events.View(event.ID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// guardedEvent resolves the caller and the path event, then runs one guard.
func (a *API) guardedEvent(c *gin.Context, guard app.Guard) (*domain.User, *domain.Event, bool) {
	user, ok := a.caller(c)
	if !ok {
		return nil, nil, false
	}
	id, ok := pathID(c)
	if !ok {
		return nil, nil, false
	}
	event, err := a.Events.Get(domain.EventID(id))
	if err != nil {
		abortErr(c, err)
		return nil, nil, false
	}
	if err := guard(user.ID, event); err != nil {
		abortErr(c, err)
		return nil, nil, false
	}
	return user, event, true
}

type changeEventRequest struct {
	Name       string `json:"name" validate:"omitempty,max=200"`
	AccessType string `json:"access_type" validate:"omitempty,oneof=public private"`
}

func (a *API) ChangeEvent(c *gin.Context) {
	_, event, ok := a.guardedEvent(c, a.Guards.OnlyForAdministrator)
	if !ok {
		return
	}
	var req changeEventRequest
	if !a.bind(c, &req) {
		return
	}
	change := service.EventChange{}
	if req.Name != "" {
		change.Name = &req.Name
	}
	if req.AccessType != "" {
		at := domain.AccessType(req.AccessType)
		change.AccessType = &at
	}
	changed, err := a.Events.Change(event.ID, change)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, changed)
}

type eventAccessRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (a *API) InviteUser(c *gin.Context) {
	_, event, ok := a.guardedEvent(c, a.Guards.OnlyForStaff)
	if !ok {
		return
	}
	var req eventAccessRequest
	if !a.bind(c, &req) {
		return
	}
	if err := a.Events.InviteUser(event.ID, domain.UserID(req.UserID)); err != nil {
		abortErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) RevokeUser(c *gin.Context) {
	_, event, ok := a.guardedEvent(c, a.Guards.OnlyForStaff)
	if !ok {
		return
	}
	var req eventAccessRequest
	if !a.bind(c, &req) {
		return
	}
	if err := a.Events.RevokeUser(event.ID, domain.UserID(req.UserID)); err != nil {
		abortErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type accessModeRequest struct {
	UserID     int64  `json:"user_id" validate:"required,gt=0"`
	AccessMode string `json:"access_mode" validate:"required,oneof=guest moderator administrator"`
}

func (a *API) ChangeUserAccessMode(c *gin.Context) {
	_, event, ok := a.guardedEvent(c, a.Guards.OnlyForAdministrator)
	if !ok {
		return
	}
	var req accessModeRequest
	if !a.bind(c, &req) {
		return
	}
	if err := a.Events.ChangeUserAccessMode(event.ID, domain.UserID(req.UserID), domain.AccessMode(req.AccessMode)); err != nil {
		abortErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type playlistTrackRequest struct {
	TrackID int64 `json:"track_id" validate:"required,gt=0"`
}

func (a *API) AddPlaylistTrack(c *gin.Context) {
	user, ok := a.caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req playlistTrackRequest
	if !a.bind(c, &req) {
		return
	}
	if !a.playlistEditor(c, domain.PlaylistID(id), user.ID) {
		return
	}
	view, err := a.Playlists.AddTrack(domain.PlaylistID(id), domain.TrackID(req.TrackID))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) RemovePlaylistTrack(c *gin.Context) {
	user, ok := a.caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	trackID, err := strconv.ParseInt(c.Param("trackId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid track id"})
		return
	}
	if !a.playlistEditor(c, domain.PlaylistID(id), user.ID) {
		return
	}
	view, err := a.Playlists.RemoveTrack(domain.PlaylistID(id), domain.TrackID(trackID))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SharePlaylist grants another user edit access to a playlist.
func (a *API) SharePlaylist(c *gin.Context) {
	user, ok := a.caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		UserID int64 `json:"user_id" validate:"required,gt=0"`
	}
	if !a.bind(c, &req) {
		return
	}
	if err := a.Playlists.GrantAccess(domain.PlaylistID(id), user.ID, domain.UserID(req.UserID)); err != nil {
		abortErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// playlistEditor restricts REST playlist mutations to the author and users
// the author has shared the playlist with; event-scoped editing flows
// through the realtime layer where event guards apply.
func (a *API) playlistEditor(c *gin.Context, id domain.PlaylistID, userID domain.UserID) bool {
	allowed, err := a.Playlists.CanEdit(id, userID)
	if err != nil {
		abortErr(c, err)
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "no edit access to playlist"})
		return false
	}
	return true
}
