// workers/wallet_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"zorapad/models"
	"zorapad/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletSyncClient mirrors payout wallets from the wallet service. Award and
// claim payouts land on these addresses; the mirror keeps dashboards from
// round-tripping to the wallet service on every render.
type WalletSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewWalletSyncClient(db *gorm.DB) *WalletSyncClient {
	baseURL := os.Getenv("SYNC_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("ZORAPAD_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("ZORAPAD_SERVICE_TOKEN environment variable is required for wallet sync")
	}

	return &WalletSyncClient{
		BaseURL:    baseURL,
		Token:      token,
		DB:         db,
		HTTPClient: utils.HTTPClient,
	}
}

func (c *WalletSyncClient) GetChangedWallets(ctx context.Context, since time.Time) ([]models.WalletMirror, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/wallets", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call sync service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Wallets []models.WalletMirror `json:"wallets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}

	return response.Wallets, nil
}

// PollWallets persists wallet changes to the local mirror.
func PollWallets(ctx context.Context, client *WalletSyncClient, pollInterval time.Duration) {
	log.Println("Starting wallet polling (DB-backed)...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Wallet polling stopped.")
			return
		case <-ticker.C:
			logTime := time.Now().UTC()

			wallets, err := client.GetChangedWallets(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling wallets: %v", err)
				continue
			}

			count := len(wallets)
			if count == 0 {
				continue
			}

			if err := client.DB.Clauses(
				clause.OnConflict{
					Columns: []clause.Column{{Name: "address"}}, // unique constraint target
					DoUpdates: clause.AssignmentColumns([]string{
						"user_id",
						"chain",
						"token",
						"is_active",
						"last_balance_check_at",
						"created_at",
						"updated_at",
					}),
				},
			).Create(&wallets).Error; err != nil {
				log.Printf("❌ Failed to upsert %d wallet(s) into wallet_mirror: %v", count, err)
				// Do NOT update lastSyncTime on failure — retry same window next tick
				continue
			}

			lastSyncTime = logTime
			log.Printf("✅ Upserted %d wallet(s) into wallet_mirror table.", count)
		}
	}
}

// GetUserWallets lists a user's mirrored payout wallets.
func GetUserWallets(db *gorm.DB, userID string) ([]models.WalletMirror, error) {
	var wallets []models.WalletMirror
	if err := db.Where("user_id = ? AND is_active = ?", userID, true).Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}
