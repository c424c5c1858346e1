package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/app"
	"github.com/nickaroot/music-room/internal/core"
	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller upgrades event connections and feeds inbound frames to the
// dispatcher.
type Controller struct {
	Dispatcher *app.Dispatcher
	Guards     *app.Guards
	Store      store.Store
	SendBuffer int
	ReadLimit  int64
	Limiter    *ActionRateLimiter
}

func NewController(d *app.Dispatcher, g *app.Guards, st store.Store, sendBuffer int) *Controller {
	return &Controller{
		Dispatcher: d,
		Guards:     g,
		Store:      st,
		SendBuffer: sendBuffer,
		Limiter:    NewActionRateLimiter(30, time.Second),
	}
}

// HandleEvent serves GET /ws/event/:id. The caller must pass the accessed
// guard against the path event before the upgrade, else the connection is
// refused; on success it is joined to the room named for that event.
func (ctl *Controller) HandleEvent(ctx context.Context, c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	user, ok := ctl.identify(c)
	if !ok {
		return
	}

	event, err := ctl.Store.GetEvent(domain.EventID(eventID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err := ctl.Guards.OnlyForAccessed(user.ID, event); err != nil {
		log.Info().Str("module", "adapters.ws").Int64("user", int64(user.ID)).Int64("event", eventID).Msg("connection refused")
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	sid := core.SessionID(c.GetString("client_token"))
	if sid == "" {
		sid = core.SessionID(uuid.NewString())
	}

	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}

	if ctl.ReadLimit > 0 {
		socket.SetReadLimit(ctl.ReadLimit)
	}

	conn := newConn(socket, ctl.SendBuffer)
	sess := core.NewMemberSession(user, conn)
	connCtx, cancel := context.WithCancel(ctx)
	ctl.Dispatcher.Registry.Bind(sid, event.ID, sess, cancel)
	ctl.Dispatcher.Join(sid, event.ID, sess)
	log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Int64("event", eventID).Int64("user", int64(user.ID)).Msg("connection joined")

	go ctl.writePump(connCtx, conn)
	go ctl.readPump(connCtx, sid, *user, event.ID, conn)
}

// identify resolves the pre-authenticated caller identity; token issuance
// itself belongs to the excluded auth layer.
func (ctl *Controller) identify(c *gin.Context) (*domain.User, bool) {
	raw := c.GetHeader("X-User-Id")
	if raw == "" {
		raw = c.Query("user")
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return nil, false
	}
	user, err := ctl.Store.GetUser(domain.UserID(userID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return nil, false
	}
	return user, true
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, user domain.User, eventID domain.EventID, c *Conn) {
	defer func() {
		// Membership goes first so no further broadcast targets this
		// connection; in-flight actions still complete elsewhere.
		ctl.Dispatcher.Leave(sid)
		c.Close()
		log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("readPump closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "adapters.ws").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			if ctl.Limiter != nil && !ctl.Limiter.Allow(user.ID) {
				log.Warn().Str("module", "adapters.ws").Int64("user", int64(user.ID)).Msg("rate limited")
				continue
			}
			ctl.Dispatcher.Dispatch(sid, user, eventID, data)
		}
	}
}
