package app

import (
	"context"
	"time"
)

// startScheduler launches the periodic market price sync for symbols backing
// open operations. The sweep itself isolates per-symbol failures, so a tick
// never kills the loop.
func (a *App) startScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	interval := a.Config.Sync.GetInterval()
	a.Logger.Info().Dur("interval", interval).Msg("Price sync scheduler started")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				a.Logger.Info().Msg("Price sync scheduler: stopped")
				return
			case <-ticker.C:
				start := time.Now()
				if err := a.SymbolService.SyncOpenOperationPrices(ctx); err != nil {
					a.Logger.Warn().Err(err).Msg("Price sync sweep failed")
					continue
				}
				a.Logger.Info().Dur("elapsed", time.Since(start)).Msg("Price sync sweep complete")
			}
		}
	}()
}
