package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/core"
	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/service"
	"github.com/nickaroot/music-room/internal/store"
)

// Target selects the audience of a handler's response actions.
type Target int

const (
	// TargetInitiator sends only to the originating connection.
	TargetInitiator Target = iota
	// TargetMembers sends to every joined connection except the initiator.
	TargetMembers
	// TargetMembersAndInitiator sends to every joined connection.
	TargetMembersAndInitiator
)

// ActionContext carries one dispatch through decode, guards, mutation and
// response building. Mutate fills the view fields Respond reads.
type ActionContext struct {
	SID       core.SessionID
	Initiator domain.User
	Event     *domain.Event
	Req       any

	EventView     *service.EventView
	PlaylistView  *service.PlaylistView
	SessionView   *service.SessionView
	ChangeMessage string
}

// Handler is one entry of the action table: the declared guards, the
// hidden flag (hidden handlers only perform a side effect), the targeting
// policy, the typed request shape and the mutation/response steps.
type Handler struct {
	Guards     []Guard
	Hidden     bool
	Target     Target
	NewRequest func() any
	Mutate     func(c *ActionContext) error
	// Respond builds the response action shared by every audience; nil
	// means the handler emits nothing even when not hidden.
	Respond func(c *ActionContext) (core.OutAction, error)
}

// ErrorPayload is the initiator-only failure response.
type ErrorPayload struct {
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dispatcher is the protocol core: it decodes inbound actions, resolves
// handlers, runs guards, invokes services and fans responses out through
// the room registry. The guard, the mutation and the broadcast of one
// action are strictly sequenced.
type Dispatcher struct {
	Registry  *Registry
	Rooms     *core.RoomManager
	Guards    *Guards
	Users     *service.UserService
	Events    *service.EventService
	Playlists *service.PlaylistService
	Players   *service.PlayerService
	Store     store.Store

	RetryAttempts int
	RetryBackoff  time.Duration

	validate *validator.Validate
	handlers map[string]*Handler
}

func NewDispatcher(
	registry *Registry,
	rooms *core.RoomManager,
	guards *Guards,
	users *service.UserService,
	events *service.EventService,
	playlists *service.PlaylistService,
	players *service.PlayerService,
	st store.Store,
) *Dispatcher {
	d := &Dispatcher{
		Registry:      registry,
		Rooms:         rooms,
		Guards:        guards,
		Users:         users,
		Events:        events,
		Playlists:     playlists,
		Players:       players,
		Store:         st,
		RetryAttempts: 3,
		RetryBackoff:  50 * time.Millisecond,
		validate:      validator.New(),
	}
	d.handlers = d.buildHandlers()
	return d
}

// Join adds the connection to the event room after binding it.
func (d *Dispatcher) Join(sid core.SessionID, eventID domain.EventID, sess core.MemberSession) {
	d.Rooms.GetOrCreate(eventID).AddMember(sid, sess)
}

// Leave removes the connection from its room and the registry. Safe to
// call for connections that never joined.
func (d *Dispatcher) Leave(sid core.SessionID) {
	if eventID, _, ok := d.Registry.Get(sid); ok {
		if room, found := d.Rooms.Get(eventID); found {
			room.RemoveMember(sid)
		}
	}
	d.Registry.Unbind(sid)
}

// Dispatch handles one inbound frame from an authenticated connection.
func (d *Dispatcher) Dispatch(sid core.SessionID, initiator domain.User, eventID domain.EventID, raw core.Frame) {
	var action core.Action
	if err := json.Unmarshal(raw, &action); err != nil {
		d.sendError(sid, eventID, "", fmt.Errorf("malformed action: %w", domain.ErrValidation))
		return
	}
	action.System.SID = sid
	action.System.InitiatorID = initiator.ID

	h, ok := d.handlers[action.Event]
	if !ok {
		log.Warn().Str("module", "app.dispatcher").Str("action", action.Event).Msg("unknown action")
		d.sendError(sid, eventID, action.Event, fmt.Errorf("unknown action %q: %w", action.Event, domain.ErrValidation))
		return
	}

	c := &ActionContext{SID: sid, Initiator: initiator}

	if h.NewRequest != nil {
		req := h.NewRequest()
		if len(action.Payload) > 0 {
			if err := json.Unmarshal(action.Payload, req); err != nil {
				d.sendError(sid, eventID, action.Event, fmt.Errorf("bad payload: %w", domain.ErrValidation))
				return
			}
		}
		if err := d.validate.Struct(req); err != nil {
			d.sendError(sid, eventID, action.Event, fmt.Errorf("%s: %w", err, domain.ErrValidation))
			return
		}
		c.Req = req
	}

	event, err := d.Store.GetEvent(eventID)
	if err != nil {
		d.sendError(sid, eventID, action.Event, err)
		return
	}
	c.Event = event

	for _, guard := range h.Guards {
		if err := guard(initiator.ID, event); err != nil {
			log.Info().Str("module", "app.dispatcher").Str("action", action.Event).Int64("user", int64(initiator.ID)).Msg("guard rejected")
			d.sendError(sid, eventID, action.Event, err)
			return
		}
	}

	err = store.Retry(d.RetryAttempts, d.RetryBackoff, func() error {
		return h.Mutate(c)
	})
	if err != nil {
		d.sendError(sid, eventID, action.Event, err)
		return
	}

	if h.Hidden || h.Respond == nil {
		return
	}
	out, err := h.Respond(c)
	if err != nil {
		d.sendError(sid, eventID, action.Event, err)
		return
	}
	frame, err := out.Wire()
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("action", out.Event).Msg("response marshal")
		return
	}

	room := d.Rooms.GetOrCreate(eventID)
	switch h.Target {
	case TargetInitiator:
		// Dropped silently when the initiator already disconnected.
		room.Send(sid, frame)
	case TargetMembers:
		room.Broadcast(frame, sid)
	case TargetMembersAndInitiator:
		room.Broadcast(frame, "")
	}
}

// NotifySessionChanged broadcasts the session view to every room whose
// event references the session. Driven by the playback ticker.
func (d *Dispatcher) NotifySessionChanged(sessionID domain.PlayerSessionID) {
	view, err := d.Players.View(sessionID)
	if err != nil {
		return
	}
	out := core.OutAction{Event: ActionSessionChanged, Payload: SessionChangedPayload{Session: view}}
	frame, err := out.Wire()
	if err != nil {
		return
	}
	for _, info := range d.Rooms.List() {
		event, err := d.Store.GetEvent(info.EventID)
		if err != nil || event.PlayerSessionID == nil || *event.PlayerSessionID != sessionID {
			continue
		}
		if room, ok := d.Rooms.Get(info.EventID); ok {
			room.Broadcast(frame, "")
		}
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, domain.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "temporary_failure"
	default:
		return "internal_error"
	}
}

// sendError responds to the initiator only; failures never broadcast.
func (d *Dispatcher) sendError(sid core.SessionID, eventID domain.EventID, action string, err error) {
	payload := ErrorPayload{Action: action, Code: errorCode(err), Message: err.Error()}
	if payload.Code == "temporary_failure" || payload.Code == "internal_error" {
		payload.Message = "temporary failure, try again"
	}
	out := core.OutAction{Event: "error", Payload: payload}
	frame, merr := out.Wire()
	if merr != nil {
		return
	}
	if room, ok := d.Rooms.Get(eventID); ok && room.Send(sid, frame) {
		return
	}
	// Not joined yet (or already gone): try the registry-bound session.
	if _, sess, ok := d.Registry.Get(sid); ok {
		_ = sess.Signal().TrySend(frame)
	}
}
