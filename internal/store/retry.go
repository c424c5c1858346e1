package store

import (
	"errors"
	"time"

	"github.com/nickaroot/music-room/internal/domain"
)

// Retry runs fn up to attempts times, sleeping backoff between tries.
// Only domain.ErrStoreUnavailable is retried; every other error (and
// success) returns immediately. The last error is surfaced as-is.
func Retry(attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrStoreUnavailable) {
			return err
		}
		if i < attempts-1 {
			time.Sleep(backoff)
		}
	}
	return err
}
