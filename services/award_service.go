// services/award_service.go
package services

import (
	"fmt"
	"math/big"
	"time"

	"zorapad/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AwardService lets a novel's author settle a bounty onto a winning comment,
// reply or request. Every operation is guard-gated and re-awarding an
// already-awarded target is rejected with ErrDuplicateAction: an award fixes
// payout amounts other users then claim against, so silently overwriting one
// would reprice claims that may already be in flight.
type AwardService struct {
	DB    *gorm.DB
	Guard *OwnershipGuard
}

func NewAwardService(db *gorm.DB) *AwardService {
	return &AwardService{DB: db, Guard: NewOwnershipGuard(db)}
}

func validateAward(bountyAmount, stakersReward, txHash string) error {
	if txHash == "" {
		return fmt.Errorf("%w: award transaction hash is required", ErrInvalidInput)
	}
	if _, err := parseAmount(bountyAmount); err != nil {
		return err
	}
	// Stakers' reward may legitimately be zero (author keeps the whole pot
	// for the winner), but it must still be a well-formed integer string.
	n, ok := new(big.Int).SetString(stakersReward, 10)
	if !ok || n.Sign() < 0 {
		return fmt.Errorf("%w: stakers reward must be a non-negative integer string, got %q", ErrInvalidInput, stakersReward)
	}
	return nil
}

// AwardComment marks a comment as the bounty winner for its chapter.
func (s *AwardService) AwardComment(awarderID, commentID, bountyAmount, stakersReward, txHash string) (*models.Comment, error) {
	if err := validateAward(bountyAmount, stakersReward, txHash); err != nil {
		return nil, err
	}
	if _, err := s.Guard.RequireOwner(awarderID, models.TargetComment, commentID); err != nil {
		return nil, err
	}

	var comment models.Comment
	if err := s.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		return nil, wrapLookup(err, "comment")
	}
	if comment.IsAwarded() {
		return nil, fmt.Errorf("%w: comment already awarded", ErrDuplicateAction)
	}

	now := time.Now()
	comment.BountyAmount = &bountyAmount
	comment.StakersReward = &stakersReward
	comment.AwardTransactionHash = &txHash
	comment.AwardedAt = &now
	if err := s.DB.Model(&models.Comment{}).Where("id = ?", commentID).
		Updates(map[string]interface{}{
			"bounty_amount":          bountyAmount,
			"stakers_reward":         stakersReward,
			"award_transaction_hash": txHash,
			"awarded_at":             now,
		}).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// AwardReply marks a reply as the bounty winner.
func (s *AwardService) AwardReply(awarderID, replyID, bountyAmount, stakersReward, txHash string) (*models.Reply, error) {
	if err := validateAward(bountyAmount, stakersReward, txHash); err != nil {
		return nil, err
	}
	if _, err := s.Guard.RequireOwner(awarderID, models.TargetReply, replyID); err != nil {
		return nil, err
	}

	var reply models.Reply
	if err := s.DB.First(&reply, "id = ?", replyID).Error; err != nil {
		return nil, wrapLookup(err, "reply")
	}
	if reply.IsAwarded() {
		return nil, fmt.Errorf("%w: reply already awarded", ErrDuplicateAction)
	}

	now := time.Now()
	reply.BountyAmount = &bountyAmount
	reply.StakersReward = &stakersReward
	reply.AwardTransactionHash = &txHash
	reply.AwardedAt = &now
	if err := s.DB.Model(&models.Reply{}).Where("id = ?", replyID).
		Updates(map[string]interface{}{
			"bounty_amount":          bountyAmount,
			"stakers_reward":         stakersReward,
			"award_transaction_hash": txHash,
			"awarded_at":             now,
		}).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

// AwardRequest settles a request bounty onto one of its replies. The winner
// id is taken from the winning reply's author; requests also flip their
// explicit is_awarded flag so IsAwarded means the same thing across target
// kinds.
func (s *AwardService) AwardRequest(awarderID, requestID, winningReplyID, bountyAmount, stakersReward, txHash string) (*models.Request, error) {
	if err := validateAward(bountyAmount, stakersReward, txHash); err != nil {
		return nil, err
	}
	if winningReplyID == "" {
		return nil, fmt.Errorf("%w: winning reply id is required", ErrInvalidInput)
	}
	if _, err := s.Guard.RequireOwner(awarderID, models.TargetRequest, requestID); err != nil {
		return nil, err
	}

	var request models.Request
	if err := s.DB.First(&request, "id = ?", requestID).Error; err != nil {
		return nil, wrapLookup(err, "request")
	}
	if request.IsAwarded() {
		return nil, fmt.Errorf("%w: request already awarded", ErrDuplicateAction)
	}

	var winning models.RequestReply
	if err := s.DB.First(&winning, "id = ? AND request_id = ?", winningReplyID, requestID).Error; err != nil {
		return nil, wrapLookup(err, "winning reply")
	}

	now := time.Now()
	if err := s.DB.Model(&models.Request{}).Where("id = ?", requestID).
		Updates(map[string]interface{}{
			"bounty_amount":          bountyAmount,
			"stakers_reward":         stakersReward,
			"award_transaction_hash": txHash,
			"is_awarded":             true,
			"awarded_at":             now,
			"winner_id":              winning.UserID,
			"winning_reply_id":       winningReplyID,
		}).Error; err != nil {
		return nil, err
	}

	request.BountyAmount = &bountyAmount
	request.StakersReward = &stakersReward
	request.AwardTransactionHash = &txHash
	request.Awarded = true
	request.AwardedAt = &now
	request.WinnerID = &winning.UserID
	request.WinningReplyID = &winningReplyID
	return &request, nil
}

// --- Fiber handlers ---

type awardRequestBody struct {
	BountyAmount    string `json:"bounty_amount"`
	StakersReward   string `json:"stakers_reward"`
	TransactionHash string `json:"transaction_hash"`
	WinningReplyID  string `json:"winning_reply_id,omitempty"` // requests only
}

// AwardCommentEndpoint handles POST /comments/:id/award.
func (s *AwardService) AwardCommentEndpoint(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req awardRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	comment, err := s.AwardComment(userID, c.Params("id"), req.BountyAmount, req.StakersReward, req.TransactionHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// AwardReplyEndpoint handles POST /replies/:id/award.
func (s *AwardService) AwardReplyEndpoint(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req awardRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	reply, err := s.AwardReply(userID, c.Params("id"), req.BountyAmount, req.StakersReward, req.TransactionHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reply)
}

// AwardRequestEndpoint handles POST /requests/:id/award.
func (s *AwardService) AwardRequestEndpoint(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req awardRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := s.AwardRequest(userID, c.Params("id"), req.WinningReplyID, req.BountyAmount, req.StakersReward, req.TransactionHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(request)
}
