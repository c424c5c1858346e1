// Package http wires the gin router: REST bootstrap endpoints plus the
// websocket event endpoint.
package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/adapters/ws"
	"github.com/nickaroot/music-room/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware issues a long-lived per-client cookie used as the
// websocket session id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, api *API, wsCtl *ws.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("MusicRoomSessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Msg("router setup")

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
	g.POST("/events/:id/revoke", api.RevokeUser)
	g.POST("/events/:id/access-mode", api.ChangeUserAccessMode)

	g.POST("/events/:id/session", api.CreateSession)
	g.POST("/events/:id/player/vote", api.VoteTrack)
	g.POST("/events/:id/player/play", api.PlayTrack)
	g.POST("/events/:id/player/sync", api.SyncTrack)
	g.POST("/events/:id/player/pause", api.PlayerControl(api.Players.Pause))
	g.POST("/events/:id/player/resume", api.PlayerControl(api.Players.Resume))
	g.POST("/events/:id/player/stop", api.PlayerControl(api.Players.Stop))
	g.POST("/events/:id/player/next", api.PlayerControl(api.Players.PlayNext))
	g.POST("/events/:id/player/previous", api.PlayerControl(api.Players.PlayPrevious))
	g.POST("/events/:id/player/shuffle", api.PlayerControl(api.Players.Shuffle))

	r.GET("/ws/event/:id", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws event endpoint hit")
		wsCtl.HandleEvent(ctx, c)
	})

	return r
}
