// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"offerwall-credit-system/models"
	"offerwall-credit-system/services"
	"offerwall-credit-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MirroredProfile matches the JSON the auth provider's profile endpoint
// returns for each changed account.
type MirroredProfile struct {
	ExternalID     string    `json:"external_id"`
	Email          string    `json:"email"`
	EmailVerified  bool      `json:"email_verified"`
	ReferredByCode *string   `json:"referred_by_code,omitempty"`
	DeviceID       *string   `json:"device_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the provider response.
type GetProfileChangesResponse struct {
	Profiles []MirroredProfile `json:"profiles"`
}

// ProfileSyncWorker mirrors identity state (email verification, device
// fingerprint, referral attribution) from the external auth provider into
// the local users table, and triggers referral resolution for accounts whose
// email just became verified — the "first verified login" path.
type ProfileSyncWorker struct {
	db           *gorm.DB
	referrals    *services.ReferralService
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, referrals *services.ReferralService, authServiceBaseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		referrals:    referrals,
		interval:     1 * time.Minute,
		baseURL:      authServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   utils.HTTPClient,
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Profile Sync Worker (auth provider → users)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial profile sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Profile sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Profile Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local users table.
func (w *ProfileSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM users WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches profile changes and upserts identity columns only —
// balance, streak and audit state are owned locally and never overwritten.
func (w *ProfileSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)
	finalURL := fmt.Sprintf("%s%s?since=%s", w.baseURL, w.endpointPath, sinceStr)

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to auth provider failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("auth provider non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode auth provider response: %w", err)
	}

	if len(response.Profiles) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d profile change(s)…", len(response.Profiles))

	var upsertCount, errorCount int
	for _, profile := range response.Profiles {
		localUser := models.User{
			ID:            profile.ExternalID,
			Email:         profile.Email,
			EmailVerified: profile.EmailVerified,
			ReferralCode:  models.ReferralCodeFor(profile.ExternalID),
		}
		if profile.ReferredByCode != nil {
			localUser.ReferredBy = *profile.ReferredByCode
		}
		if profile.DeviceID != nil {
			localUser.DeviceID = *profile.DeviceID
		}

		// Identity columns only on conflict: referred_by is attribution set
		// at signup and carried on insert, never rewritten afterward.
		if err := w.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "email_verified", "device_id", "updated_at"}),
		}).Create(&localUser).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert user %q: %v", profile.ExternalID, err)
			continue
		}
		upsertCount++

		if profile.EmailVerified {
			w.resolveReferral(profile.ExternalID)
		}
	}

	log.Printf("[SYNC] ✅ Synced %d profile(s) (%d upserted, %d errors)", len(response.Profiles), upsertCount, errorCount)
	return nil
}

func (w *ProfileSyncWorker) resolveReferral(userID string) {
	var user models.User
	if err := w.db.Where("id = ? AND referral_pending = ?", userID, true).First(&user).Error; err != nil {
		return // nothing pending
	}
	if _, err := w.referrals.Resolve(userID); err != nil {
		log.Printf("[SYNC] ⚠️ Referral resolution failed for user %q: %v", userID, err)
	}
}
