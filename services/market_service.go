// services/market_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"zorapad/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MarketService fetches token market data for novels with a staking
// contract. The market lookup is a non-critical secondary source: when it
// fails, responses carry a null price instead of an error.
type MarketService struct {
	DB         *gorm.DB
	BaseURL    string
	HTTPClient *http.Client
}

func NewMarketService(db *gorm.DB, baseURL string) *MarketService {
	return &MarketService{
		DB:      db,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type tokenPrice struct {
	Contract  string  `json:"contract"`
	PriceUSD  float64 `json:"price_usd"`
	UpdatedAt string  `json:"updated_at"`
}

// fetchPrice queries the external market service for one contract.
func (s *MarketService) fetchPrice(contract string) (*tokenPrice, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid market service URL '%s': %w", s.BaseURL, err)
	}
	endpoint := base.JoinPath("/api/v1/tokens", contract, "price")

	resp, err := s.HTTPClient.Get(endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("failed to call market service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("market service returned status %d: %s", resp.StatusCode, string(body))
	}

	var price tokenPrice
	if err := json.NewDecoder(resp.Body).Decode(&price); err != nil {
		return nil, fmt.Errorf("failed to decode market service response: %w", err)
	}
	return &price, nil
}

// GetNovelTokenPrice handles GET /novels/:id/token-price. Price is null when
// the novel has no contract or the market lookup fails.
func (s *MarketService) GetNovelTokenPrice(c *fiber.Ctx) error {
	var novel models.Novel
	if err := s.DB.First(&novel, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Novel not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	res := fiber.Map{
		"novel_id":         novel.ID,
		"contract_address": novel.ContractAddress,
		"token_symbol":     novel.TokenSymbol,
		"price":            nil,
	}
	if novel.ContractAddress == "" {
		return c.JSON(res)
	}

	price, err := s.fetchPrice(novel.ContractAddress)
	if err != nil {
		// Degrade, don't fail: the dashboard still renders without a price.
		log.Printf("⚠️ Market lookup failed for %s: %v", novel.ContractAddress, err)
		return c.JSON(res)
	}
	res["price"] = price
	return c.JSON(res)
}
