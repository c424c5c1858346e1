package app

import (
	"fmt"

	"github.com/nickaroot/music-room/internal/core"
	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/service"
)

// Inbound action names (wire identifiers).
const (
	ActionChangeEvent          = "change_event"
	ActionChangeUserAccessMode = "change_user_access_mode"
	ActionAddTrack             = "add_track"
	ActionRemoveTrack          = "remove_track"
	ActionInviteToEvent        = "invite_to_event"
	ActionRevokeFromEvent      = "revoke_from_event"
	ActionCreateSession        = "create_session"
	ActionPlayTrack            = "play_track"
	ActionPlayNextTrack        = "play_next_track"
	ActionPlayPreviousTrack    = "play_previous_track"
	ActionPauseTrack           = "pause_track"
	ActionResumeTrack          = "resume_track"
	ActionStopTrack            = "stop_track"
	ActionShuffle              = "shuffle"
	ActionSyncTrack            = "sync_track"
	ActionVote                 = "vote"
)

// Outbound action names, derived from the readable handler names once at
// table-build time.
var (
	ActionEventChanged    = core.CamelToDot("EventChanged")    // event.changed
	ActionPlaylistChanged = core.CamelToDot("PlaylistChanged") // playlist.changed
	ActionSessionChanged  = core.CamelToDot("SessionChanged")  // session.changed
)

// Request payload shapes. Validation tags are enforced by the dispatcher
// before any guard or mutation runs.

type ChangeEventRequest struct {
	EventName       string `json:"event_name" validate:"omitempty,max=150"`
	EventAccessType string `json:"event_access_type" validate:"omitempty,oneof=public private"`
}

type ModifyEventAccessRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type ChangeUserAccessModeRequest struct {
	UserID     int64  `json:"user_id" validate:"required,gt=0"`
	AccessMode string `json:"access_mode" validate:"required,oneof=guest moderator administrator"`
}

// ModifyPlaylistTracksRequest edits a playlist; when playlist_id is
// omitted the event's active player-session playlist is targeted.
type ModifyPlaylistTracksRequest struct {
	TrackID    int64 `json:"track_id" validate:"required,gt=0"`
	PlaylistID int64 `json:"playlist_id" validate:"omitempty,gt=0"`
}

type CreateSessionRequest struct {
	PlaylistID int64  `json:"playlist_id" validate:"required,gt=0"`
	Mode       string `json:"mode" validate:"omitempty,oneof=normal repeat"`
}

// PlayTrackRequest and VoteRequest reference a session track, not a
// library track.
type PlayTrackRequest struct {
	TrackID int64 `json:"track_id" validate:"required,gt=0"`
}

type VoteRequest struct {
	TrackID int64 `json:"track_id" validate:"required,gt=0"`
}

type SyncTrackRequest struct {
	Progress float64 `json:"progress" validate:"gte=0"`
}

// Response payload shapes.

type EventChangedPayload struct {
	Event         *service.EventView `json:"event"`
	ChangeMessage string             `json:"change_message"`
}

type PlaylistChangedPayload struct {
	Playlist      *service.PlaylistView `json:"playlist"`
	ChangeMessage string                `json:"change_message"`
}

type SessionChangedPayload struct {
	Session *service.SessionView `json:"session"`
}

// buildHandlers constructs the action table once at startup.
func (d *Dispatcher) buildHandlers() map[string]*Handler {
	g := d.Guards

	respondEventChanged := func(c *ActionContext) (core.OutAction, error) {
		return core.OutAction{
			Event:   ActionEventChanged,
			Payload: EventChangedPayload{Event: c.EventView, ChangeMessage: c.ChangeMessage},
		}, nil
	}
	// A single builder serves both playlist mutations for both audiences;
	// the shapes are equal on purpose.
	respondPlaylistChanged := func(c *ActionContext) (core.OutAction, error) {
		return core.OutAction{
			Event:   ActionPlaylistChanged,
			Payload: PlaylistChangedPayload{Playlist: c.PlaylistView, ChangeMessage: c.ChangeMessage},
		}, nil
	}
	respondSessionChanged := func(c *ActionContext) (core.OutAction, error) {
		return core.OutAction{
			Event:   ActionSessionChanged,
			Payload: SessionChangedPayload{Session: c.SessionView},
		}, nil
	}

	playlistChange := func(remove bool) func(c *ActionContext) error {
		verb, prep := "add", "to"
		if remove {
			verb, prep = "remove", "from"
		}
		return func(c *ActionContext) error {
			req := c.Req.(*ModifyPlaylistTracksRequest)
			playlistID, err := d.resolvePlaylist(c.Event, req.PlaylistID)
			if err != nil {
				return err
			}
			trackID := domain.TrackID(req.TrackID)
			track, err := d.Store.GetTrack(trackID)
			if err != nil {
				return err
			}
			var view *service.PlaylistView
			if remove {
				view, err = d.Playlists.RemoveTrack(playlistID, trackID)
			} else {
				view, err = d.Playlists.AddTrack(playlistID, trackID)
			}
			if err != nil {
				return err
			}
			c.PlaylistView = view
			c.ChangeMessage = fmt.Sprintf("%s %s track %s %s playlist", c.Initiator.Username, verb, track.Name, prep)
			return nil
		}
	}

	playerControl := func(op func(domain.PlayerSessionID, *ActionContext) error) func(c *ActionContext) error {
		return func(c *ActionContext) error {
			sessionID, err := d.resolveSession(c.Event)
			if err != nil {
				return err
			}
			if err := op(sessionID, c); err != nil {
				return err
			}
			view, err := d.Players.View(sessionID)
			if err != nil {
				return err
			}
			c.SessionView = view
			return nil
		}
	}

	return map[string]*Handler{
		ActionChangeEvent: {
			Guards:     []Guard{g.OnlyForAdministrator},
			Target:     TargetInitiator,
			NewRequest: func() any { return &ChangeEventRequest{} },
			Mutate: func(c *ActionContext) error {
				req := c.Req.(*ChangeEventRequest)
				change := service.EventChange{}
				if req.EventName != "" {
					change.Name = &req.EventName
				}
				if req.EventAccessType != "" {
					at := domain.AccessType(req.EventAccessType)
					change.AccessType = &at
				}
				if _, err := d.Events.Change(c.Event.ID, change); err != nil {
					return err
				}
				view, err := d.Events.View(c.Event.ID)
				if err != nil {
					return err
				}
				c.EventView = view
				c.ChangeMessage = fmt.Sprintf("%s change event info", c.Initiator.Username)
				return nil
			},
			Respond: respondEventChanged,
		},
		ActionChangeUserAccessMode: {
			Hidden:     true,
			Guards:     []Guard{g.OnlyForAdministrator},
			NewRequest: func() any { return &ChangeUserAccessModeRequest{} },
			Mutate: func(c *ActionContext) error {
				req := c.Req.(*ChangeUserAccessModeRequest)
				return d.Events.ChangeUserAccessMode(c.Event.ID, domain.UserID(req.UserID), domain.AccessMode(req.AccessMode))
			},
		},
		ActionAddTrack: {
			Guards:     []Guard{g.OnlyForStaff},
			Target:     TargetMembersAndInitiator,
			NewRequest: func() any { return &ModifyPlaylistTracksRequest{} },
			Mutate:     playlistChange(false),
			Respond:    respondPlaylistChanged,
		},
		ActionRemoveTrack: {
			Guards:     []Guard{g.OnlyForStaff},
			Target:     TargetMembersAndInitiator,
			NewRequest: func() any { return &ModifyPlaylistTracksRequest{} },
			Mutate:     playlistChange(true),
			Respond:    respondPlaylistChanged,
		},
		ActionInviteToEvent: {
			Hidden:     true,
			Guards:     []Guard{g.OnlyForStaff},
			NewRequest: func() any { return &ModifyEventAccessRequest{} },
			Mutate: func(c *ActionContext) error {
				req := c.Req.(*ModifyEventAccessRequest)
				return d.Events.InviteUser(c.Event.ID, domain.UserID(req.UserID))
			},
		},
		ActionRevokeFromEvent: {
			Hidden:     true,
			Guards:     []Guard{g.OnlyForStaff},
			NewRequest: func() any { return &ModifyEventAccessRequest{} },
			Mutate: func(c *ActionContext) error {
				req := c.Req.(*ModifyEventAccessRequest)
				return d.Events.RevokeUser(c.Event.ID, domain.UserID(req.UserID))
			},
		},
		ActionCreateSession: {
			Guards:     []Guard{g.OnlyForStaff},
			Target:     TargetMembersAndInitiator,
			NewRequest: func() any { return &CreateSessionRequest{} },
			Mutate: func(c *ActionContext) error {
				req := c.Req.(*CreateSessionRequest)
				mode := domain.PlayerMode(req.Mode)
				if req.Mode == "" {
					mode = domain.ModeNormal
				}
				sess, err := d.Players.CreateSession(domain.PlaylistID(req.PlaylistID), c.Initiator.ID, mode)
				if err != nil {
					return err
				}
				if err := d.Events.SetPlayerSession(c.Event.ID, sess.ID); err != nil {
					return err
				}
				view, err := d.Players.View(sess.ID)
				if err != nil {
					return err
				}
				c.SessionView = view
				return nil
			},
			Respond: respondSessionChanged,
		},
		ActionPlayTrack: {
			Guards:     []Guard{g.OnlyForStaff},
			Target:     TargetMembersAndInitiator,
			NewRequest: func() any { return &PlayTrackRequest{} },
			Mutate: playerControl(func(id domain.PlayerSessionID, c *ActionContext) error {
				req := c.Req.(*PlayTrackRequest)
				return d.Players.PlayTrack(id, domain.SessionTrackID(req.TrackID))
			}),
			Respond: respondSessionChanged,
		},
		ActionPlayNextTrack: {
			Guards: []Guard{g.OnlyForStaff},
			Target: TargetMembersAndInitiator,
			Mutate: playerControl(func(id domain.PlayerSessionID, _ *ActionContext) error {
				return d.Players.PlayNext(id)
			}),
			Respond: respondSessionChanged,
		},
		ActionPlayPreviousTrack: {
			Guards: []Guard{g.OnlyForStaff},
			Target: TargetMembersAndInitiator,
			Mutate: playerControl(func(id domain.PlayerSessionID, _ *ActionContext) error {
				return d.Players.PlayPrevious(id)
			}),
			Respond: respondSessionChanged,
		},
		ActionPauseTrack: {
			Guards: []Guard{g.OnlyForStaff},
			Target: TargetMembersAndInitiator,
			Mutate: playerControl(func(id domain.PlayerSessionID, _ *ActionContext) error {
				return d.Players.Pause(id)
			}),
			Respond: respondSessionChanged,
		},
		ActionResumeTrack: {
			Guards: []Guard{g.OnlyForStaff},
			Target: TargetMembersAndInitiator,
			Mutate: playerControl(func(id domain.PlayerSessionID, _ *ActionContext) error {
				return d.Players.Resume(id)
			}),
			Respond: respondSessionChanged,
		},
		ActionStopTrack: {
			Guards: []Guard{g.OnlyForStaff},
			Target: TargetMembersAndInitiator,
			Mutate: playerControl(func(id domain.PlayerSessionID, _ *ActionContext) error {
				return d.Players.Stop(id)
			}),
			Respond: respondSessionChanged,
		},
		ActionShuffle: {
			Guards: []Guard{g.OnlyForStaff},
			Target: TargetMembersAndInitiator,
			Mutate: playerControl(func(id domain.PlayerSessionID, _ *ActionContext) error {
				return d.Players.Shuffle(id)
			}),
			Respond: respondSessionChanged,
		},
		ActionSyncTrack: {
			Guards:     []Guard{g.OnlyForStaff},
			Target:     TargetMembersAndInitiator,
			NewRequest: func() any { return &SyncTrackRequest{} },
			Mutate: playerControl(func(id domain.PlayerSessionID, c *ActionContext) error {
				req := c.Req.(*SyncTrackRequest)
				return d.Players.SyncProgress(id, req.Progress)
			}),
			Respond: respondSessionChanged,
		},
		ActionVote: {
			Guards:     []Guard{g.OnlyForAccessed},
			Target:     TargetMembersAndInitiator,
			NewRequest: func() any { return &VoteRequest{} },
			Mutate: playerControl(func(id domain.PlayerSessionID, c *ActionContext) error {
				req := c.Req.(*VoteRequest)
				_, err := d.Players.Vote(domain.SessionTrackID(req.TrackID), c.Initiator.ID)
				return err
			}),
			Respond: respondSessionChanged,
		},
	}
}

// resolvePlaylist picks the explicit playlist or falls back to the
// event's active player-session playlist.
func (d *Dispatcher) resolvePlaylist(event *domain.Event, explicit int64) (domain.PlaylistID, error) {
	if explicit > 0 {
		return domain.PlaylistID(explicit), nil
	}
	sessionID, err := d.resolveSession(event)
	if err != nil {
		return 0, err
	}
	sess, err := d.Store.GetSession(sessionID)
	if err != nil {
		return 0, err
	}
	return sess.PlaylistID, nil
}

func (d *Dispatcher) resolveSession(event *domain.Event) (domain.PlayerSessionID, error) {
	if event.PlayerSessionID == nil {
		return 0, fmt.Errorf("event %d has no player session: %w", event.ID, domain.ErrNotFound)
	}
	return *event.PlayerSessionID, nil
}
