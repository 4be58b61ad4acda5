// workers/tier_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"jungle-squad-academy/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteSubscription matches the JSON response from the billing service.
type RemoteSubscription struct {
	ExternalUserID     string    `json:"external_user_id"`
	TierName           string    `json:"tier_name"`
	TutorLimit         int       `json:"tutor_limit"`
	DoubleXP           bool      `json:"double_xp"`
	ExclusiveCosmetics bool      `json:"exclusive_cosmetics"`
	IsActive           bool      `json:"is_active"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// GetSubscriptionChangesResponse is the top-level structure of the billing service response.
type GetSubscriptionChangesResponse struct {
	Subscriptions []RemoteSubscription `json:"subscriptions"`
}

// TierSyncWorker mirrors subscription tiers from the billing service into
// subscription_mirrors so multiplier resolution never calls out mid-request.
type TierSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8600"
	endpointPath string // e.g., "/api/v1/public/subscriptions"
	serviceToken string
	httpClient   *http.Client
}

func NewTierSyncWorker(db *gorm.DB, billingBaseURL, endpointPath, serviceToken string) *TierSyncWorker {
	return &TierSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      billingBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *TierSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Tier Sync Worker (billing-service → subscription_mirrors)…")
	go w.run(ctx)
}

func (w *TierSyncWorker) run(ctx context.Context) {
	// Initial sync (backfill if needed) - sync from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial tier sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Tier sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Tier Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent SyncedAt from the local mirror table.
func (w *TierSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(synced_at) FROM subscription_mirrors WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches subscription changes from the billing service and upserts
// the local mirror rows.
func (w *TierSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid billing service URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Printf("[TIER_SYNC] ❌ Request to %s failed: %v", finalURL, err)
		return fmt.Errorf("HTTP request to billing service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			log.Printf("[TIER_SYNC] ⚠️ Failed to read error body from %s: %v", finalURL, readErr)
		}
		errMsg := string(body)
		log.Printf("[TIER_SYNC] ❌ Billing service returned %d for %s: %s", resp.StatusCode, finalURL, errMsg)
		return fmt.Errorf("billing service non-200 response: %d — %s", resp.StatusCode, errMsg)
	}

	var response GetSubscriptionChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode billing service response: %w", err)
	}

	if len(response.Subscriptions) == 0 {
		return nil
	}

	log.Printf("[TIER_SYNC] 📥 Processing %d subscription(s) from billing service…", len(response.Subscriptions))

	var upsertCount, errorCount int
	now := time.Now().UTC()
	for _, remote := range response.Subscriptions {
		mirror := models.SubscriptionMirror{
			ID:                 uuid.NewString(),
			ExternalUserID:     remote.ExternalUserID,
			TierName:           remote.TierName,
			TutorLimit:         remote.TutorLimit,
			DoubleXP:           remote.DoubleXP,
			ExclusiveCosmetics: remote.ExclusiveCosmetics,
			IsActive:           remote.IsActive,
			SyncedAt:           now,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tier_name", "tutor_limit", "double_xp",
				"exclusive_cosmetics", "is_active", "synced_at",
			}),
		}).Create(&mirror).Error; err != nil {
			errorCount++
			log.Printf("[TIER_SYNC] ⚠️ Failed to upsert subscription_mirror (external_id=%q, tier=%q): %v",
				remote.ExternalUserID, remote.TierName, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[TIER_SYNC] ✅ Synced %d subscriptions (%d upserted, %d errors)",
		len(response.Subscriptions), upsertCount, errorCount)

	return nil
}
