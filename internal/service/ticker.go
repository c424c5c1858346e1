package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nickaroot/music-room/internal/domain"
)

// Ticker is the timing source behind TickSource: a background worker that
// advances watched sessions every period and reports changed ones through
// the notify callback (used by the realtime layer to broadcast).
type Ticker struct {
	players *PlayerService
	period  time.Duration
	notify  func(domain.PlayerSessionID)

	mu      sync.Mutex
	watched map[domain.PlayerSessionID]bool
}

func NewTicker(players *PlayerService, period time.Duration, notify func(domain.PlayerSessionID)) *Ticker {
	if period <= 0 {
		period = 500 * time.Millisecond
	}
	return &Ticker{
		players: players,
		period:  period,
		notify:  notify,
		watched: make(map[domain.PlayerSessionID]bool),
	}
}

func (t *Ticker) Watch(id domain.PlayerSessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watched[id] = true
}

func (t *Ticker) Unwatch(id domain.PlayerSessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.watched, id)
}

// Run blocks until ctx is done.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Ticker) tick() {
	t.mu.Lock()
	ids := make([]domain.PlayerSessionID, 0, len(t.watched))
	for id := range t.watched {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	elapsed := t.period.Seconds()
	for _, id := range ids {
		changed, err := t.players.Advance(id, elapsed)
		if err != nil {
			log.Warn().Err(err).Str("module", "service.ticker").Int64("session", int64(id)).Msg("advance failed")
			t.Unwatch(id)
			continue
		}
		if changed && t.notify != nil {
			t.notify(id)
		}
	}
}
