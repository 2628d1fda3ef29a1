// services/scheduler.go
package services

import (
	"log"
	"time"

	"offerwall-credit-system/models"

	"github.com/go-co-op/gocron/v2"
)

// pendingOfferTTL: in-progress offers older than this are stale — the user
// abandoned the offer or the partner never completed it.
const pendingOfferTTL = 24 * time.Hour

// StartRetentionSweeper deletes stale pending-offer rows on a fixed
// schedule. Housekeeping only — skipping a run never affects ledger
// correctness.
func (s *LedgerService) StartRetentionSweeper() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-pendingOfferTTL)
			res := s.DB.Where("created_at < ?", cutoff).Delete(&models.PendingOffer{})
			if res.Error != nil {
				log.Printf("[Sweeper] DB error: %v", res.Error)
				return
			}
			if res.RowsAffected > 0 {
				log.Printf("🧹 Swept %d stale pending offer(s)", res.RowsAffected)
			}
		}),
	)
}
