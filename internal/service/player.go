package service

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/domain"
	"github.com/nickaroot/music-room/internal/store"
)

// TickSource drives playback progress for active sessions. The engine
// registers a session whenever a track starts playing and unregisters it
// when playback stops; the source calls Advance on its own schedule.
type TickSource interface {
	Watch(id domain.PlayerSessionID)
	Unwatch(id domain.PlayerSessionID)
}

// PlayerService is the voting/queue engine and the session state machine.
// Per-track transitions: stopped -> playing -> {paused <-> playing, stopped}.
// Exactly one track per session may be playing at a time.
type PlayerService struct {
	store store.Store
	locks *store.KeyedLocks
	ticks TickSource
}

func NewPlayerService(st store.Store, locks *store.KeyedLocks) *PlayerService {
	return &PlayerService{store: st, locks: locks}
}

// SetTickSource wires the advance-on-completion collaborator.
func (s *PlayerService) SetTickSource(t TickSource) { s.ticks = t }

// CreateSession enforces single-active-session-per-author: any prior
// session owned by the author is deleted together with its queue, then a
// fresh queue is materialized from the playlist's current ordering.
func (s *PlayerService) CreateSession(playlistID domain.PlaylistID, author domain.UserID, mode domain.PlayerMode) (*domain.PlayerSession, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("player mode %q: %w", mode, domain.ErrValidation)
	}
	if _, err := s.store.GetUser(author); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPlaylist(playlistID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(store.Key("playerauthor", int64(author)))
	defer unlock()

	prior, err := s.store.ListSessionsByAuthor(author)
	if err != nil {
		return nil, err
	}
	for _, old := range prior {
		// each delete takes the per-track lock so an in-flight Vote cannot
		// re-save the track after it is gone
		for _, tid := range old.TrackQueue {
			tUnlock := s.locks.Lock(store.Key("sessiontrack", int64(tid)))
			err := s.store.DeleteSessionTrack(tid)
			tUnlock()
			if err != nil {
				return nil, err
			}
		}
		if err := s.store.DeleteSession(old.ID); err != nil {
			return nil, err
		}
		s.unwatch(old.ID)
		log.Info().Str("module", "service.player").Int64("session", int64(old.ID)).Msg("prior session invalidated")
	}

	rows, err := s.store.ListPlaylistTracks(playlistID)
	if err != nil {
		return nil, err
	}
	queue := make([]domain.SessionTrackID, 0, len(rows))
	for i, row := range rows {
		st := &domain.SessionTrack{
			State:   domain.StateStopped,
			TrackID: row.TrackID,
			Votes:   make(map[domain.UserID]bool),
			Order:   i,
		}
		if err := s.store.SaveSessionTrack(st); err != nil {
			return nil, err
		}
		queue = append(queue, st.ID)
	}

	sess := &domain.PlayerSession{
		PlaylistID: playlistID,
		AuthorID:   author,
		Mode:       mode,
		TrackQueue: queue,
	}
	if err := s.store.SaveSession(sess); err != nil {
		return nil, err
	}
	log.Info().Str("module", "service.player").Int64("session", int64(sess.ID)).Int("queue", len(queue)).Msg("session created")
	return sess, nil
}

// Vote adds the user to the track's voting set; a repeated vote by the
// same user changes nothing. VotesCount always equals the set size.
func (s *PlayerService) Vote(trackID domain.SessionTrackID, userID domain.UserID) (*domain.SessionTrack, error) {
	if _, err := s.store.GetUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(store.Key("sessiontrack", int64(trackID)))
	defer unlock()

	track, err := s.store.GetSessionTrack(trackID)
	if err != nil {
		return nil, err
	}
	if track.Votes[userID] {
		return track, nil
	}
	track.Votes[userID] = true
	track.VotesCount = len(track.Votes)
	if err := s.store.SaveSessionTrack(track); err != nil {
		return nil, err
	}
	log.Debug().Str("module", "service.player").Int64("track", int64(trackID)).Int("votes", track.VotesCount).Msg("vote applied")
	return track, nil
}

// OrderedQueue returns the session's tracks in presentation order:
// votes_count desc, then order asc, stable.
func (s *PlayerService) OrderedQueue(id domain.PlayerSessionID) ([]domain.SessionTrack, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	return s.orderedQueue(sess)
}

func (s *PlayerService) orderedQueue(sess *domain.PlayerSession) ([]domain.SessionTrack, error) {
	queue := make([]domain.SessionTrack, 0, len(sess.TrackQueue))
	for _, tid := range sess.TrackQueue {
		t, err := s.store.GetSessionTrack(tid)
		if err != nil {
			return nil, err
		}
		queue = append(queue, *t)
	}
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].VotesCount != queue[j].VotesCount {
			return queue[i].VotesCount > queue[j].VotesCount
		}
		return queue[i].Order < queue[j].Order
	})
	return queue, nil
}

// PlayTrack starts the given queue entry from the beginning; whatever was
// playing or paused stops.
func (s *PlayerService) PlayTrack(id domain.PlayerSessionID, trackID domain.SessionTrackID) error {
	unlock := s.locks.Lock(store.Key("playersession", int64(id)))
	defer unlock()

	sess, err := s.store.GetSession(id)
	if err != nil {
		return err
	}
	found := false
	for _, tid := range sess.TrackQueue {
		if tid == trackID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("session track %d not in session %d: %w", trackID, id, domain.ErrNotFound)
	}
	if err := s.stopAll(sess, trackID); err != nil {
		return err
	}
	if err := s.setTrackState(trackID, domain.StatePlaying, ptrFloat(0)); err != nil {
		return err
	}
	s.watch(id)
	return nil
}

// Pause suspends the playing track, keeping its progress.
func (s *PlayerService) Pause(id domain.PlayerSessionID) error {
	unlock := s.locks.Lock(store.Key("playersession", int64(id)))
	defer unlock()

	current, err := s.currentTrack(id, domain.StatePlaying)
	if err != nil {
		return err
	}
	if err := s.setTrackState(current.ID, domain.StatePaused, nil); err != nil {
		return err
	}
	s.unwatch(id)
	return nil
}

// Resume continues the paused track from its progress.
func (s *PlayerService) Resume(id domain.PlayerSessionID) error {
	unlock := s.locks.Lock(store.Key("playersession", int64(id)))
	defer unlock()

	current, err := s.currentTrack(id, domain.StatePaused)
	if err != nil {
		return err
	}
	if err := s.setTrackState(current.ID, domain.StatePlaying, nil); err != nil {
		return err
	}
	s.watch(id)
	return nil
}

// Stop stops whatever is playing or paused and resets its progress.
func (s *PlayerService) Stop(id domain.PlayerSessionID) error {
	unlock := s.locks.Lock(store.Key("playersession", int64(id)))
	defer unlock()

	sess, err := s.store.GetSession(id)
	if err != nil {
		return err
	}
	if err := s.stopAll(sess, 0); err != nil {
		return err
	}
	s.unwatch(id)
	return nil
}

// PlayNext skips to the next entry in the computed order, wrapping at the
// tail. Explicit skip advances even in repeat mode.
func (s *PlayerService) PlayNext(id domain.PlayerSessionID) error {
	return s.skip(id, 1)
}

// PlayPrevious skips backwards in the computed order, wrapping at the head.
func (s *PlayerService) PlayPrevious(id domain.PlayerSessionID) error {
	return s.skip(id, -1)
}

func (s *PlayerService) skip(id domain.PlayerSessionID, dir int) error {
	unlock := s.locks.Lock(store.Key("playersession", int64(id)))
	defer unlock()

	sess, err := s.store.GetSession(id)
	if err != nil {
		return err
	}
	queue, err := s.orderedQueue(sess)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		return fmt.Errorf("session %d queue empty: %w", id, domain.ErrConflict)
	}
	pos := 0
	for i, t := range queue {
		if t.State != domain.StateStopped {
			pos = (i + dir + len(queue)) % len(queue)
			break
		}
	}
	if err := s.stopAll(sess, queue[pos].ID); err != nil {
		return err
	}
	if err := s.setTrackState(queue[pos].ID, domain.StatePlaying, ptrFloat(0)); err != nil {
		return err
	}
	s.watch(id)
	return nil
}

// Shuffle permutes the queue's tie-break orders. Vote counts still
// dominate the presentation order.
func (s *PlayerService) Shuffle(id domain.PlayerSessionID) error {
	unlock := s.locks.Lock(store.Key("playersession", int64(id)))
	defer unlock()

	sess, err := s.store.GetSession(id)
	if err != nil {
		return err
	}
	orders := rand.Perm(len(sess.TrackQueue))
	for i, tid := range sess.TrackQueue {
		tUnlock := s.locks.Lock(store.Key("sessiontrack", int64(tid)))
		track, err := s.store.GetSessionTrack(tid)
		if err != nil {
			tUnlock()
			return err
		}
		track.Order = orders[i]
		err = s.store.SaveSessionTrack(track)
		tUnlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// SyncProgress pins the current track's progress (seek), clamped to
// [0, duration].
func (s *PlayerService) SyncProgress(id domain.PlayerSessionID, progress float64) error {
	unlock := s.locks.Lock(store.Key("playersession", int64(id)))
	defer unlock()

	sess, err := s.store.GetSession(id)
	if err != nil {
		return err
	}
	queue, err := s.orderedQueue(sess)
	if err != nil {
		return err
	}
	for _, t := range queue {
		if t.State == domain.StatePlaying || t.State == domain.StatePaused {
			if progress < 0 {
				progress = 0
			}
			if d := s.trackDuration(t.TrackID); d > 0 && progress > d {
				progress = d
			}
			return s.setTrackState(t.ID, t.State, &progress)
		}
	}
	return fmt.Errorf("session %d has no current track: %w", id, domain.ErrConflict)
}

// Advance accrues elapsed seconds on the playing track and, on
// completion, replays it (repeat mode) or moves to the next entry by the
// computed order (normal mode). At the tail the session stops. Returns
// whether anything changed.
func (s *PlayerService) Advance(id domain.PlayerSessionID, elapsed float64) (bool, error) {
	unlock := s.locks.Lock(store.Key("playersession", int64(id)))
	defer unlock()

	sess, err := s.store.GetSession(id)
	if err != nil {
		return false, err
	}
	queue, err := s.orderedQueue(sess)
	if err != nil {
		return false, err
	}
	pos := -1
	for i, t := range queue {
		if t.State == domain.StatePlaying {
			pos = i
			break
		}
	}
	if pos < 0 {
		s.unwatch(id)
		return false, nil
	}

	current := queue[pos]
	duration := s.trackDuration(current.TrackID)
	progress := current.Progress + elapsed
	if duration <= 0 || progress < duration {
		// Unknown duration never completes; it waits for an explicit skip.
		return true, s.setTrackState(current.ID, domain.StatePlaying, &progress)
	}

	if sess.Mode == domain.ModeRepeat {
		return true, s.setTrackState(current.ID, domain.StatePlaying, ptrFloat(0))
	}
	if err := s.setTrackState(current.ID, domain.StateStopped, ptrFloat(0)); err != nil {
		return false, err
	}
	if pos+1 >= len(queue) {
		s.unwatch(id)
		log.Info().Str("module", "service.player").Int64("session", int64(id)).Msg("queue finished")
		return true, nil
	}
	return true, s.setTrackState(queue[pos+1].ID, domain.StatePlaying, ptrFloat(0))
}

// View returns the session with its queue in presentation order.
func (s *PlayerService) View(id domain.PlayerSessionID) (*SessionView, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	queue, err := s.orderedQueue(sess)
	if err != nil {
		return nil, err
	}
	view := &SessionView{
		ID:         sess.ID,
		PlaylistID: sess.PlaylistID,
		AuthorID:   sess.AuthorID,
		Mode:       sess.Mode,
		TrackQueue: make([]SessionTrackView, 0, len(queue)),
	}
	for _, t := range queue {
		tv := TrackView{ID: t.TrackID}
		if track, err := s.store.GetTrack(t.TrackID); err == nil {
			tv.Name = track.Name
			if artist, err := s.store.GetArtist(track.ArtistID); err == nil {
				tv.Artist = artist.Name
			}
		}
		view.TrackQueue = append(view.TrackQueue, SessionTrackView{
			ID:         t.ID,
			State:      t.State,
			Track:      tv,
			VotesCount: t.VotesCount,
			Progress:   t.Progress,
			Order:      t.Order,
		})
	}
	return view, nil
}

// setTrackState re-reads the track under its own lock so concurrent votes
// are never overwritten by playback transitions. nil progress keeps the
// stored value.
func (s *PlayerService) setTrackState(id domain.SessionTrackID, state domain.TrackState, progress *float64) error {
	unlock := s.locks.Lock(store.Key("sessiontrack", int64(id)))
	defer unlock()

	track, err := s.store.GetSessionTrack(id)
	if err != nil {
		return err
	}
	track.State = state
	if progress != nil {
		track.Progress = *progress
	}
	return s.store.SaveSessionTrack(track)
}

// stopAll stops every playing or paused track except the one kept.
func (s *PlayerService) stopAll(sess *domain.PlayerSession, keep domain.SessionTrackID) error {
	for _, tid := range sess.TrackQueue {
		if tid == keep {
			continue
		}
		track, err := s.store.GetSessionTrack(tid)
		if err != nil {
			return err
		}
		if track.State == domain.StateStopped {
			continue
		}
		if err := s.setTrackState(tid, domain.StateStopped, ptrFloat(0)); err != nil {
			return err
		}
	}
	return nil
}

// currentTrack finds the single track in the wanted state.
func (s *PlayerService) currentTrack(id domain.PlayerSessionID, state domain.TrackState) (*domain.SessionTrack, error) {
	sess, err := s.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	for _, tid := range sess.TrackQueue {
		track, err := s.store.GetSessionTrack(tid)
		if err != nil {
			return nil, err
		}
		if track.State == state {
			return track, nil
		}
	}
	return nil, fmt.Errorf("session %d has no %s track: %w", id, state, domain.ErrConflict)
}

// trackDuration takes the longest known file duration; 0 means unknown.
func (s *PlayerService) trackDuration(id domain.TrackID) float64 {
	files, err := s.store.ListTrackFiles(id)
	if err != nil {
		return 0
	}
	duration := 0.0
	for _, f := range files {
		if f.Duration > duration {
			duration = f.Duration
		}
	}
	return duration
}

func (s *PlayerService) watch(id domain.PlayerSessionID) {
	if s.ticks != nil {
		s.ticks.Watch(id)
	}
}

func (s *PlayerService) unwatch(id domain.PlayerSessionID) {
	if s.ticks != nil {
		s.ticks.Unwatch(id)
	}
}

func ptrFloat(f float64) *float64 { return &f }
