// services/sse_rewards.go
package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"zorapad/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// awardEvent is pushed to a user when one of their contributions wins a
// bounty.
type awardEvent struct {
	Kind         string    `json:"kind"` // comment | reply | request
	TargetID     string    `json:"target_id"`
	BountyAmount string    `json:"bounty_amount"`
	AwardedAt    time.Time `json:"awarded_at"`
}

// StreamUserAwardEvents streams real-time award notifications for the
// authenticated user over SSE. Polls the ledger and advances a time cursor;
// the stream ends when the client disconnects.
func (s *RewardsService) StreamUserAwardEvents(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		// Awards already settled at the boundary instant are history, not
		// events; they seed the seen-set so the first poll skips them.
		cursor := s.latestAwardTime(userID)
		seen := make(map[string]bool)
		if history, err := s.awardsSince(userID, cursor); err == nil {
			for _, ev := range history {
				seen[ev.Kind+":"+ev.TargetID] = true
			}
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				events, next, err := s.nextAwardBatch(userID, cursor, seen)
				if err != nil {
					log.Printf("SSE query error for user %s: %v", userID, err)
					continue
				}
				cursor = next
				if len(events) == 0 {
					continue
				}

				for _, ev := range events {
					payload, _ := json.Marshal(ev)
					fmt.Fprintf(w, "event: award\ndata: %s\n\n", payload)
				}
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}

// latestAwardTime initializes the stream cursor so reconnecting clients only
// see awards settled after they attach.
func (s *RewardsService) latestAwardTime(userID string) time.Time {
	var latest time.Time

	var comment models.Comment
	if err := s.DB.
		Where("user_id = ? AND awarded_at IS NOT NULL", userID).
		Order("awarded_at DESC").
		First(&comment).Error; err == nil && comment.AwardedAt != nil {
		latest = *comment.AwardedAt
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("SSE init error for user %s: %v", userID, err)
	}

	var reply models.Reply
	if err := s.DB.
		Where("user_id = ? AND awarded_at IS NOT NULL", userID).
		Order("awarded_at DESC").
		First(&reply).Error; err == nil && reply.AwardedAt != nil && reply.AwardedAt.After(latest) {
		latest = *reply.AwardedAt
	}

	var request models.Request
	if err := s.DB.
		Where("winner_id = ? AND awarded_at IS NOT NULL", userID).
		Order("awarded_at DESC").
		First(&request).Error; err == nil && request.AwardedAt != nil && request.AwardedAt.After(latest) {
		latest = *request.AwardedAt
	}

	return latest
}

// nextAwardBatch polls once: it fetches awards at or after the cursor, drops
// the ones already streamed, and advances the cursor. The seen-set holds the
// events sitting exactly on the cursor instant, so two awards settled with
// the same timestamp across polls are both delivered and neither repeats.
func (s *RewardsService) nextAwardBatch(userID string, cursor time.Time, seen map[string]bool) ([]awardEvent, time.Time, error) {
	events, err := s.awardsSince(userID, cursor)
	if err != nil {
		return nil, cursor, err
	}

	fresh := make([]awardEvent, 0, len(events))
	for _, ev := range events {
		if !seen[ev.Kind+":"+ev.TargetID] {
			fresh = append(fresh, ev)
		}
	}
	if len(fresh) == 0 {
		return nil, cursor, nil
	}

	last := fresh[len(fresh)-1].AwardedAt
	if !last.Equal(cursor) {
		cursor = last
		for k := range seen {
			delete(seen, k)
		}
	}
	for _, ev := range events {
		if ev.AwardedAt.Equal(cursor) {
			seen[ev.Kind+":"+ev.TargetID] = true
		}
	}
	return fresh, cursor, nil
}

// awardsSince collects the user's settled awards at or after the cursor,
// oldest first so the cursor only ever moves forward. The boundary instant
// is included; nextAwardBatch dedups it by event identity.
func (s *RewardsService) awardsSince(userID string, cursor time.Time) ([]awardEvent, error) {
	var events []awardEvent

	var comments []models.Comment
	if err := s.DB.
		Where("user_id = ? AND awarded_at >= ?", userID, cursor).
		Order("awarded_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	for _, cm := range comments {
		events = append(events, awardEvent{
			Kind: "comment", TargetID: cm.ID,
			BountyAmount: derefOr(cm.BountyAmount, "0"), AwardedAt: *cm.AwardedAt,
		})
	}

	var replies []models.Reply
	if err := s.DB.
		Where("user_id = ? AND awarded_at >= ?", userID, cursor).
		Order("awarded_at ASC").
		Find(&replies).Error; err != nil {
		return nil, err
	}
	for _, r := range replies {
		events = append(events, awardEvent{
			Kind: "reply", TargetID: r.ID,
			BountyAmount: derefOr(r.BountyAmount, "0"), AwardedAt: *r.AwardedAt,
		})
	}

	var requests []models.Request
	if err := s.DB.
		Where("winner_id = ? AND awarded_at >= ?", userID, cursor).
		Order("awarded_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	for _, rq := range requests {
		events = append(events, awardEvent{
			Kind: "request", TargetID: rq.ID,
			BountyAmount: derefOr(rq.BountyAmount, "0"), AwardedAt: *rq.AwardedAt,
		})
	}

	// Merge the three streams by time.
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j].AwardedAt.Before(events[j-1].AwardedAt); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
	return events, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
