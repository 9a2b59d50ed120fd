package repository

import (
	"context"
	"time"
)

// resetCheckInterval is how often the sweep re-evaluates the clock. The
// actual reset cadence comes from Settings.ResetLimitInterval.
const resetCheckInterval = time.Hour

// ResetLimitsIfDue restores every user's quota to the current max when
// the configured interval has elapsed since the last reset. Returns
// whether a reset happened. It takes the same lock as all other user
// mutations, so it cannot race a concurrent decrement.
func (s *Store) ResetLimitsIfDue() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if now.Sub(s.data.Settings.LastReset) < s.data.Settings.ResetLimitInterval {
		return false, nil
	}
	for _, user := range s.data.Users {
		user.Limit = s.data.Settings.MaxLimit
	}
	s.data.Settings.LastReset = now
	if err := s.persistLocked(); err != nil {
		return false, err
	}
	s.log.Info("limits reset for all users", "users", len(s.data.Users), "at", now)
	return true, nil
}

// StartResetLoop runs the sweep once immediately and then on a fixed
// timer until ctx is cancelled.
func (s *Store) StartResetLoop(ctx context.Context) {
	check := func() {
		if _, err := s.ResetLimitsIfDue(); err != nil {
			s.log.Error("limit reset failed", "error", err)
		}
	}
	check()

	ticker := time.NewTicker(resetCheckInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
}
