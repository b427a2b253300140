// workers/student_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"lexamen/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile matches one entry of the identity provider's profile feed.
type RemoteProfile struct {
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	FirstName  *string   `json:"first_name,omitempty"`
	LastName   *string   `json:"last_name,omitempty"`
	Plan       string    `json:"plan"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProfileChangesResponse is the top-level structure of the sync service response.
type ProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// StudentSyncWorker mirrors the provider's profiles into the users table so
// duels can look opponents up by email and caps can see the plan.
type StudentSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client

	mu    sync.Mutex
	since time.Time
}

func NewStudentSyncWorker(db *gorm.DB, syncServiceBaseURL, endpointPath, serviceToken string, interval time.Duration) *StudentSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StudentSyncWorker{
		db:           db,
		interval:     interval,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *StudentSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Student Sync Worker (sync-service → users)…")
	go w.run(ctx)
}

func (w *StudentSyncWorker) run(ctx context.Context) {
	// Initial sync from the beginning of time backfills every profile
	if err := w.SyncOnce(ctx); err != nil {
		log.Printf("⚠️ [SYNC] Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil {
				log.Printf("❌ [SYNC] Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Student Sync Worker stopped")
			return
		}
	}
}

// SyncOnce pulls every profile changed since the last successful batch.
func (w *StudentSyncWorker) SyncOnce(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	latest, err := w.syncBatch(ctx, w.since)
	if err != nil {
		return err
	}
	if latest.After(w.since) {
		w.since = latest
	}
	return nil
}

func (w *StudentSyncWorker) endpoint(since time.Time) (string, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base sync service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()
	return endpointURL.String(), nil
}

// syncBatch fetches profile changes and upserts them, returning the newest
// updated_at it saw.
func (w *StudentSyncWorker) syncBatch(ctx context.Context, since time.Time) (time.Time, error) {
	finalURL, err := w.endpoint(since)
	if err != nil {
		return time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("❌ [SYNC] Sync service returned %d for %s: %s", resp.StatusCode, finalURL, body)
		return time.Time{}, fmt.Errorf("sync service non-200 response: %d", resp.StatusCode)
	}

	var response ProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	if len(response.Users) == 0 {
		return since, nil
	}

	var latest time.Time
	var upsertCount, errorCount int
	for _, remote := range response.Users {
		if remote.UpdatedAt.After(latest) {
			latest = remote.UpdatedAt
		}
		if remote.ExternalID == "" || remote.Email == "" {
			errorCount++
			continue
		}

		if err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email", "first_name", "last_name", "plan", "updated_at",
			}),
		}).Create(studentFromProfile(remote)).Error; err != nil {
			errorCount++
			log.Printf("⚠️ [SYNC] Failed to upsert student (external_id=%q): %v", remote.ExternalID, err)
			continue
		}
		upsertCount++
	}

	log.Printf("✅ [SYNC] Synced %d profile(s) (%d upserted, %d errors), latest updated_at=%s",
		len(response.Users), upsertCount, errorCount, latest.Format(time.RFC3339))
	return latest, nil
}

func studentFromProfile(p RemoteProfile) *models.Student {
	st := &models.Student{
		ID:    p.ExternalID,
		Email: p.Email,
		Plan:  models.PlanFree,
	}
	if strings.EqualFold(p.Plan, string(models.PlanPremium)) {
		st.Plan = models.PlanPremium
	}
	if p.FirstName != nil {
		st.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		st.LastName = *p.LastName
	}
	st.CreatedAt = p.CreatedAt
	st.UpdatedAt = p.UpdatedAt
	return st
}
