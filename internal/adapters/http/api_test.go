package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickaroot/music-room/internal/app"
	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/service"
	"github.com/nickaroot/music-room/internal/store"
)

func newTestAPI(t *testing.T) (*gin.Engine, *API, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	locks := store.NewKeyedLocks()
	users := service.NewUserService(st)
	events := service.NewEventService(st, locks)
	playlists := service.NewPlaylistService(st, locks)
	players := service.NewPlayerService(st, locks)
	api := NewAPI(users, events, playlists, players, app.NewGuards(st), st)

	r := gin.New()
	g := r.Group("/api")
	g.POST("/users", api.CreateUser)
	g.POST("/artists", api.CreateArtist)
	g.POST("/tracks", api.CreateTrack)
	g.POST("/tracks/:id/files", api.CreateTrackFile)
	g.POST("/playlists", api.CreatePlaylist)
	g.GET("/playlists/:id", api.GetPlaylist)
	g.POST("/playlists/:id/tracks", api.AddPlaylistTrack)
	g.DELETE("/playlists/:id/tracks/:trackId", api.RemovePlaylistTrack)
	g.POST("/playlists/:id/access", api.SharePlaylist)
	g.POST("/events", api.CreateEvent)
	g.GET("/events/:id", api.GetEvent)
	g.PATCH("/events/:id", api.ChangeEvent)
	g.POST("/events/:id/invite", api.InviteUser)
	g.POST("/events/:id/session", api.CreateSession)
	g.POST("/events/:id/player/vote", api.VoteTrack)
	g.POST("/events/:id/player/pause", api.PlayerControl(players.Pause))
	return r, api, st
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-Id", fmt.Sprintf("%d", userID))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateUserEndpoint(t *testing.T) {
	r, _, _ := newTestAPI(t)

	w := doJSON(t, r, "POST", "/api/users", 0, map[string]any{"username": "alice"})
	require.Equal(t, http.StatusCreated, w.Code)

	var user domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.NotZero(t, user.ID)
}

func TestCreateUserValidation(t *testing.T) {
	r, _, _ := newTestAPI(t)
	w := doJSON(t, r, "POST", "/api/users", 0, map[string]any{"username": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEventRequiresIdentity(t *testing.T) {
	r, _, _ := newTestAPI(t)
	w := doJSON(t, r, "POST", "/api/events", 0, map[string]any{
		"name":        "party",
		"access_type": "public",
		"start_date":  "2026-08-28T20:00:00Z",
		"end_date":    "2026-08-29T00:00:00Z",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPrivateEventHiddenFromStrangers(t *testing.T) {
	r, _, st := newTestAPI(t)

	alice := &domain.User{Username: "alice"}
	bob := &domain.User{Username: "bob"}
	require.NoError(t, st.SaveUser(alice))
	require.NoError(t, st.SaveUser(bob))

	w := doJSON(t, r, "POST", "/api/events", int64(alice.ID), map[string]any{
		"name":        "private party",
		"access_type": "private",
		"start_date":  "2026-08-28T20:00:00Z",
		"end_date":    "2026-08-29T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var event domain.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))

	w = doJSON(t, r, "GET", fmt.Sprintf("/api/events/%d", event.ID), int64(bob.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, "GET", fmt.Sprintf("/api/events/%d", event.ID), int64(alice.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetEventNotFound(t *testing.T) {
	r, _, st := newTestAPI(t)
	alice := &domain.User{Username: "alice"}
	require.NoError(t, st.SaveUser(alice))

	w := doJSON(t, r, "GET", "/api/events/999", int64(alice.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrackUploadFlow(t *testing.T) {
	r, _, _ := newTestAPI(t)

	w := doJSON(t, r, "POST", "/api/artists", 0, map[string]any{"name": "Moderat"})
	require.Equal(t, http.StatusCreated, w.Code)
	var artist domain.Artist
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artist))

	w = doJSON(t, r, "POST", "/api/tracks", 0, map[string]any{"name": "A New Error", "artist_id": artist.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var track domain.Track
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &track))

	w = doJSON(t, r, "POST", fmt.Sprintf("/api/tracks/%d/files", track.ID), 0, map[string]any{
		"extension": "mp3",
		"duration":  365.4,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "POST", fmt.Sprintf("/api/tracks/%d/files", track.ID), 0, map[string]any{
		"extension": "wav",
		"duration":  365.4,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unsupported extension rejected")
}

func TestCreateTrackUnknownArtist(t *testing.T) {
	r, _, _ := newTestAPI(t)
	w := doJSON(t, r, "POST", "/api/tracks", 0, map[string]any{"name": "orphan", "artist_id": 42})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaylistEndpoints(t *testing.T) {
	r, _, st := newTestAPI(t)
	alice := &domain.User{Username: "alice"}
	require.NoError(t, st.SaveUser(alice))

	w := doJSON(t, r, "POST", "/api/playlists", int64(alice.ID), map[string]any{
		"name":        "morning",
		"type":        "custom",
		"access_type": "public",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var playlist domain.Playlist
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &playlist))

	w = doJSON(t, r, "GET", fmt.Sprintf("/api/playlists/%d", playlist.ID), int64(alice.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view service.PlaylistView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "morning", view.Playlist.Name)
	assert.Empty(t, view.Tracks)
}

func seedRESTEvent(t *testing.T, r *gin.Engine, st *store.MemoryStore) (alice, bob *domain.User, eventID domain.EventID, playlistID domain.PlaylistID) {
	t.Helper()
	alice = &domain.User{Username: "alice"}
	bob = &domain.User{Username: "bob"}
	require.NoError(t, st.SaveUser(alice))
	require.NoError(t, st.SaveUser(bob))

	w := doJSON(t, r, "POST", "/api/events", int64(alice.ID), map[string]any{
		"name":        "party",
		"access_type": "private",
		"start_date":  "2026-08-28T20:00:00Z",
		"end_date":    "2026-08-29T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var event domain.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))

	artist := &domain.Artist{Name: "Kavinsky"}
	require.NoError(t, st.SaveArtist(artist))
	track := &domain.Track{Name: "Nightcall", ArtistID: artist.ID}
	require.NoError(t, st.SaveTrack(track))
	require.NoError(t, st.SaveTrackFile(&domain.TrackFile{TrackID: track.ID, Extension: domain.ExtensionMP3, Duration: 258}))

	w = doJSON(t, r, "POST", "/api/playlists", int64(alice.ID), map[string]any{
		"name": "drive", "type": "custom", "access_type": "public",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var playlist domain.Playlist
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &playlist))

	w = doJSON(t, r, "POST", fmt.Sprintf("/api/playlists/%d/tracks", playlist.ID), int64(alice.ID), map[string]any{
		"track_id": track.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	return alice, bob, event.ID, playlist.ID
}

func TestChangeEventGuardedByAdministrator(t *testing.T) {
	r, _, st := newTestAPI(t)
	alice, bob, eventID, _ := seedRESTEvent(t, r, st)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/events/%d/invite", eventID), int64(alice.ID), map[string]any{
		"user_id": bob.ID,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, "PATCH", fmt.Sprintf("/api/events/%d", eventID), int64(bob.ID), map[string]any{
		"name": "hostile",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, "PATCH", fmt.Sprintf("/api/events/%d", eventID), int64(alice.ID), map[string]any{
		"name": "afterparty",
	})
	require.Equal(t, http.StatusOK, w.Code)
	stored, err := st.GetEvent(eventID)
	require.NoError(t, err)
	assert.Equal(t, "afterparty", stored.Name)
}

func TestPlayerSessionOverREST(t *testing.T) {
	r, _, st := newTestAPI(t)
	alice, bob, eventID, playlistID := seedRESTEvent(t, r, st)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/events/%d/invite", eventID), int64(alice.ID), map[string]any{
		"user_id": bob.ID,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	// Guests cannot create sessions.
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/events/%d/session", eventID), int64(bob.ID), map[string]any{
		"playlist_id": playlistID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, "POST", fmt.Sprintf("/api/events/%d/session", eventID), int64(alice.ID), map[string]any{
		"playlist_id": playlistID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var view service.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.TrackQueue, 1)

	// Guests can vote.
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/events/%d/player/vote", eventID), int64(bob.ID), map[string]any{
		"track_id": view.TrackQueue[0].ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 1, view.TrackQueue[0].VotesCount)

	// Pause without a playing track maps conflict to 409.
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/events/%d/player/pause", eventID), int64(alice.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPlaylistMutationRequiresEditAccess(t *testing.T) {
	r, _, st := newTestAPI(t)
	alice, bob, _, playlistID := seedRESTEvent(t, r, st)

	track := &domain.Track{Name: "Pacific Coast Highway", ArtistID: 1}
	require.NoError(t, st.SaveTrack(track))
	require.NoError(t, st.SaveTrackFile(&domain.TrackFile{TrackID: track.ID, Extension: domain.ExtensionMP3, Duration: 253}))

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/playlists/%d/tracks", playlistID), int64(bob.ID), map[string]any{
		"track_id": track.ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// only the author may share
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/playlists/%d/access", playlistID), int64(bob.ID), map[string]any{
		"user_id": bob.ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, "POST", fmt.Sprintf("/api/playlists/%d/access", playlistID), int64(alice.ID), map[string]any{
		"user_id": bob.ID,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, "POST", fmt.Sprintf("/api/playlists/%d/tracks", playlistID), int64(bob.ID), map[string]any{
		"track_id": track.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
