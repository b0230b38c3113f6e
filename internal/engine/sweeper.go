package engine

import (
	"context"
	"fmt"
	"time"
)

// SweepExpired retires every deal still waiting for confirmation past
// the deadline, archives it as expired and tells the group. Returns the
// number of deals swept.
func (e *Engine) SweepExpired(now time.Time) int {
	expired := e.registry.SweepExpired(now.Add(-e.deadline))
	for _, d := range expired {
		e.notifier.SendGroup(fmt.Sprintf("❌ Deal *%s* expired due to no confirmation.", d.ID))
		e.archiveDeal(d)
		e.logger.Info().Str("deal_id", d.ID).Msg("deal expired")
	}
	return len(expired)
}

// RunSweeper ticks until the context is cancelled.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.SweepExpired(now)
		}
	}
}
