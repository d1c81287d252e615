// services/discussion_service.go
package services

import (
	"errors"
	"log"
	"strings"

	"zorapad/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscussionService owns the conversation surface: chapter comments, comment
// replies, author requests and request replies. Listing endpoints fold in
// the per-target engagement summary so clients render counts in one round
// trip.
type DiscussionService struct {
	DB         *gorm.DB
	Guard      *OwnershipGuard
	Engagement *EngagementService
}

func NewDiscussionService(db *gorm.DB, engagement *EngagementService) *DiscussionService {
	return &DiscussionService{DB: db, Guard: NewOwnershipGuard(db), Engagement: engagement}
}

// CreateComment posts a comment on a published chapter.
func (s *DiscussionService) CreateComment(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	chapterID := c.Params("id")
	var chapter models.Chapter
	if err := s.DB.First(&chapter, "id = ?", chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chapter not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if chapter.Status != "published" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Chapter is not open for comments"})
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body is required"})
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		ChapterID: chapterID,
		UserID:    userID,
		Body:      req.Body,
	}
	if err := s.DB.Create(comment).Error; err != nil {
		log.Printf("DB Error creating comment: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create comment"})
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// commentView decorates a comment with its engagement summary.
type commentView struct {
	models.Comment
	Engagement *EngagementSummary `json:"engagement"`
	IsAwarded  bool               `json:"is_awarded"`
}

// GetCommentsByChapter lists a chapter's comments with engagement folded in.
func (s *DiscussionService) GetCommentsByChapter(c *fiber.Ctx) error {
	chapterID := c.Params("id")

	var comments []models.Comment
	if err := s.DB.
		Where("chapter_id = ?", chapterID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		log.Printf("DB Error fetching comments: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch comments"})
	}

	views := make([]commentView, len(comments))
	for i, cm := range comments {
		summary, err := s.Engagement.Summary(models.TargetComment, cm.ID)
		if err != nil {
			log.Printf("DB Error summarizing comment %s: %v", cm.ID, err)
			summary = &EngagementSummary{TotalStaked: "0"}
		}
		views[i] = commentView{Comment: cm, Engagement: summary, IsAwarded: cm.IsAwarded()}
	}
	return c.JSON(views)
}

// CreateReply posts a threaded reply under a comment.
func (s *DiscussionService) CreateReply(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	commentID := c.Params("id")
	var count int64
	if err := s.DB.Model(&models.Comment{}).Where("id = ?", commentID).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if count == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Comment not found"})
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body is required"})
	}

	reply := &models.Reply{
		ID:        uuid.NewString(),
		CommentID: commentID,
		UserID:    userID,
		Body:      req.Body,
	}
	if err := s.DB.Create(reply).Error; err != nil {
		log.Printf("DB Error creating reply: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create reply"})
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

type replyView struct {
	models.Reply
	Engagement *EngagementSummary `json:"engagement"`
	IsAwarded  bool               `json:"is_awarded"`
}

// GetRepliesByComment lists replies with engagement folded in.
func (s *DiscussionService) GetRepliesByComment(c *fiber.Ctx) error {
	commentID := c.Params("id")

	var replies []models.Reply
	if err := s.DB.
		Where("comment_id = ?", commentID).
		Order("created_at ASC").
		Find(&replies).Error; err != nil {
		log.Printf("DB Error fetching replies: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch replies"})
	}

	views := make([]replyView, len(replies))
	for i, r := range replies {
		summary, err := s.Engagement.Summary(models.TargetReply, r.ID)
		if err != nil {
			summary = &EngagementSummary{TotalStaked: "0"}
		}
		views[i] = replyView{Reply: r, Engagement: summary, IsAwarded: r.IsAwarded()}
	}
	return c.JSON(views)
}

// CreateRequest posts a bounty prompt; novel author only.
func (s *DiscussionService) CreateRequest(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	novel, err := s.Guard.RequireNovelOwner(userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Title         string  `json:"title"`
		Body          string  `json:"body"`
		ChapterID     *string `json:"chapter_id"`
		BountyAmount  *string `json:"bounty_amount"`
		StakersReward *string `json:"stakers_reward"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	if req.BountyAmount != nil {
		if _, err := parseAmount(*req.BountyAmount); err != nil {
			return respondError(c, err)
		}
	}
	if req.ChapterID != nil {
		var count int64
		if err := s.DB.Model(&models.Chapter{}).
			Where("id = ? AND novel_id = ?", *req.ChapterID, novel.ID).
			Count(&count).Error; err != nil || count == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chapter not found in this novel"})
		}
	}

	request := &models.Request{
		ID:            uuid.NewString(),
		NovelID:       novel.ID,
		ChapterID:     req.ChapterID,
		AuthorID:      userID,
		Title:         req.Title,
		Body:          req.Body,
		BountyAmount:  req.BountyAmount,
		StakersReward: req.StakersReward,
	}
	if err := s.DB.Create(request).Error; err != nil {
		log.Printf("DB Error creating request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create request"})
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

// GetRequestsByNovel lists a novel's requests, open ones first.
func (s *DiscussionService) GetRequestsByNovel(c *fiber.Ctx) error {
	var requests []models.Request
	if err := s.DB.
		Where("novel_id = ?", c.Params("id")).
		Order("is_awarded ASC, created_at DESC").
		Find(&requests).Error; err != nil {
		log.Printf("DB Error fetching requests: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch requests"})
	}
	return c.JSON(requests)
}

// CreateRequestReply posts a reader's answer to an open request.
func (s *DiscussionService) CreateRequestReply(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	requestID := c.Params("id")
	var request models.Request
	if err := s.DB.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if request.IsAwarded() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Request is already settled"})
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body is required"})
	}

	reply := &models.RequestReply{
		ID:        uuid.NewString(),
		RequestID: requestID,
		UserID:    userID,
		Body:      req.Body,
	}
	if err := s.DB.Create(reply).Error; err != nil {
		log.Printf("DB Error creating request reply: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create request reply"})
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

type requestReplyView struct {
	models.RequestReply
	Engagement *EngagementSummary `json:"engagement"`
	IsWinner   bool               `json:"is_winner"`
}

// GetRequestReplies lists a request's replies with engagement folded in.
func (s *DiscussionService) GetRequestReplies(c *fiber.Ctx) error {
	requestID := c.Params("id")

	var request models.Request
	if err := s.DB.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Request not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var replies []models.RequestReply
	if err := s.DB.
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&replies).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch request replies"})
	}

	views := make([]requestReplyView, len(replies))
	for i, r := range replies {
		summary, err := s.Engagement.Summary(models.TargetRequestReply, r.ID)
		if err != nil {
			summary = &EngagementSummary{TotalStaked: "0"}
		}
		views[i] = requestReplyView{
			RequestReply: r,
			Engagement:   summary,
			IsWinner:     request.WinningReplyID != nil && *request.WinningReplyID == r.ID,
		}
	}
	return c.JSON(views)
}
