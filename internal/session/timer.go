package session

import (
	"context"
	"time"
)

// StartRefreshTimer arms one-shot timer to refresh the token leeway before expiration
// (immediately if it is closer than that). Successful refresh arms the timer again;
// failed one stops the chain. Re-arming replaces the previously armed timer.
func (s *Session) StartRefreshTimer(ctx context.Context) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	s.arm(ctx)
}

// StopRefreshTimer cancels the armed timer, if any
func (s *Session) StopRefreshTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

// arm has to be called with s.timerMu held
func (s *Session) arm(ctx context.Context) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++

	expiresAt, ok := s.ExpiresAt(ctx)
	if !ok {
		return
	}

	delay := max(expiresAt.Sub(s.now())-s.leeway, 0)
	gen := s.timerGen

	s.timer = time.AfterFunc(delay, func() { s.fire(ctx, gen) })
	s.logger.Debug("Refresh timer armed", "delay", delay)
}

func (s *Session) fire(ctx context.Context, gen uint64) {
	if !s.isCurrentTimer(gen) || ctx.Err() != nil {
		return
	}

	if err := s.RefreshErr(ctx); err != nil {
		s.logger.Warn("Scheduled token refresh failed, refresh timer stopped", "error", err)
		return
	}

	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	// Stopped or re-armed while refreshing
	if s.timerGen != gen {
		return
	}
	s.arm(ctx)
}

func (s *Session) isCurrentTimer(gen uint64) bool {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	return s.timerGen == gen
}
