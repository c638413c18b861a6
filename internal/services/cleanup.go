package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StaleSessionRetention is how long an unstarted session may sit in the
// lobby before the sweep removes it.
const StaleSessionRetention = 24 * time.Hour

// StartCleanup runs the stale-session sweep on a ticker until ctx is done.
func (s *GameService) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Str("module", "services.game").Msg("cleanup sweep stopped")
				return
			case <-ticker.C:
				if _, err := s.CleanupStale(StaleSessionRetention); err != nil {
					log.Error().Err(err).Str("module", "services.game").Msg("cleanup sweep failed")
				}
			}
		}
	}()
}
