// services/users.go
package services

import (
	"strconv"
	"strings"

	"zorapad/models"

	"github.com/gofiber/fiber/v2"
)

// SearchUsers searches within the local PlatformUser mirror.
func (s *NovelService) SearchUsers(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var users []models.PlatformUser
	db := s.DB.Model(&models.PlatformUser{}).Limit(limit)

	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ?",
			searchTerm, searchTerm,
		)
	}

	if err := db.Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "search failed", "details": err.Error()})
	}

	// Minimal projection: external consumers key on ExternalUserID.
	type UserSummary struct {
		ID             string  `json:"id"`
		ExternalUserID string  `json:"external_user_id"`
		Username       string  `json:"username"`
		PenName        *string `json:"pen_name,omitempty"`
	}

	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{
			ID:             u.ID,
			ExternalUserID: u.ExternalUserID,
			Username:       u.Username,
			PenName:        u.PenName,
		}
	}

	return c.JSON(res)
}
