package invite

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StartPurge schedules PurgeExpired on the given cron expression and runs it
// until ctx is cancelled. The purge holds no locks beyond row-level
// transaction isolation, so any cadence is safe alongside foreground
// lookups and accepts.
func (s *Service) StartPurge(ctx context.Context, schedule string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		purgeCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		_, purgeErr := s.PurgeExpired(purgeCtx)
		if purgeErr != nil {
			log.Warn().Err(purgeErr).Msg("invite: purge run failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invite.StartPurge: %w", err)
	}

	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	return c, nil
}
