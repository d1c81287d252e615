// services/claim_service.go
package services

import (
	"fmt"

	"zorapad/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ClaimService records that an awarded bounty or stake payout went out
// on-chain. The claimed flag is monotonic: once true it never resets. A
// repeat claim is not an error; it only overwrites the claim transaction
// hash (last-write-wins). That overwrite is a documented policy for retried
// client transactions, and no aggregation double-counts because they all key
// off the boolean, not the hash.
type ClaimService struct {
	DB *gorm.DB
}

func NewClaimService(db *gorm.DB) *ClaimService {
	return &ClaimService{DB: db}
}

// ClaimStake flips a stake to claimed and pins the claiming tx hash. It also
// forces contract_confirmed: a payout implies the original stake tx landed.
func (s *ClaimService) ClaimStake(stakeID, txHash string) (*models.Stake, error) {
	if txHash == "" {
		return nil, fmt.Errorf("%w: claim transaction hash is required", ErrInvalidInput)
	}

	var stake models.Stake
	if err := s.DB.First(&stake, "id = ?", stakeID).Error; err != nil {
		return nil, wrapLookup(err, "stake")
	}

	if err := s.DB.Model(&models.Stake{}).Where("id = ?", stakeID).
		Updates(map[string]interface{}{
			"claimed":                true,
			"claim_transaction_hash": txHash,
			"contract_confirmed":     true,
		}).Error; err != nil {
		return nil, err
	}

	stake.Claimed = true
	stake.ClaimTransactionHash = &txHash
	stake.ContractConfirmed = true
	return &stake, nil
}

// ClaimCommentBounty records the payout of an awarded comment's bounty.
func (s *ClaimService) ClaimCommentBounty(commentID, txHash string) (*models.Comment, error) {
	if txHash == "" {
		return nil, fmt.Errorf("%w: claim transaction hash is required", ErrInvalidInput)
	}

	var comment models.Comment
	if err := s.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		return nil, wrapLookup(err, "comment")
	}
	if !comment.IsAwarded() {
		return nil, fmt.Errorf("%w: comment has no award to claim", ErrInvalidInput)
	}

	if err := s.DB.Model(&models.Comment{}).Where("id = ?", commentID).
		Updates(map[string]interface{}{
			"bounty_claimed":         true,
			"claim_transaction_hash": txHash,
		}).Error; err != nil {
		return nil, err
	}

	comment.BountyClaimed = true
	comment.ClaimTransactionHash = &txHash
	return &comment, nil
}

// ClaimReplyBounty records the payout of an awarded reply's bounty.
func (s *ClaimService) ClaimReplyBounty(replyID, txHash string) (*models.Reply, error) {
	if txHash == "" {
		return nil, fmt.Errorf("%w: claim transaction hash is required", ErrInvalidInput)
	}

	var reply models.Reply
	if err := s.DB.First(&reply, "id = ?", replyID).Error; err != nil {
		return nil, wrapLookup(err, "reply")
	}
	if !reply.IsAwarded() {
		return nil, fmt.Errorf("%w: reply has no award to claim", ErrInvalidInput)
	}

	if err := s.DB.Model(&models.Reply{}).Where("id = ?", replyID).
		Updates(map[string]interface{}{
			"bounty_claimed":         true,
			"claim_transaction_hash": txHash,
		}).Error; err != nil {
		return nil, err
	}

	reply.BountyClaimed = true
	reply.ClaimTransactionHash = &txHash
	return &reply, nil
}

// UnstakeNovel is the claim path for a novel position: the user withdrew
// their stake on-chain and we record the unstake tx. The row survives for
// history; unstaked is the monotonic flag here.
func (s *ClaimService) UnstakeNovel(novelStakeID, txHash string) (*models.NovelStake, error) {
	if txHash == "" {
		return nil, fmt.Errorf("%w: unstake transaction hash is required", ErrInvalidInput)
	}

	var ns models.NovelStake
	if err := s.DB.First(&ns, "id = ?", novelStakeID).Error; err != nil {
		return nil, wrapLookup(err, "novel stake")
	}

	if err := s.DB.Model(&models.NovelStake{}).Where("id = ?", novelStakeID).
		Updates(map[string]interface{}{
			"unstaked":                 true,
			"unstake_transaction_hash": txHash,
		}).Error; err != nil {
		return nil, err
	}

	ns.Unstaked = true
	ns.UnstakeTransactionHash = &txHash
	return &ns, nil
}

// --- Fiber handlers ---

type claimRequestBody struct {
	TransactionHash string `json:"transaction_hash"`
}

// parseClaimBody reads the tx hash and requires an authenticated caller.
// Claims record an on-chain fact and are not owner-gated beyond that; the
// chain decides who can move the tokens.
func parseClaimBody(c *fiber.Ctx) (string, error) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return "", ErrUnauthorized
	}
	var req claimRequestBody
	if err := c.BodyParser(&req); err != nil {
		return "", fmt.Errorf("%w: invalid request body", ErrInvalidInput)
	}
	return req.TransactionHash, nil
}

// ClaimStakeEndpoint handles POST /stakes/:id/claim.
func (s *ClaimService) ClaimStakeEndpoint(c *fiber.Ctx) error {
	txHash, err := parseClaimBody(c)
	if err != nil {
		return respondError(c, err)
	}
	stake, err := s.ClaimStake(c.Params("id"), txHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stake)
}

// ClaimCommentBountyEndpoint handles POST /comments/:id/claim.
func (s *ClaimService) ClaimCommentBountyEndpoint(c *fiber.Ctx) error {
	txHash, err := parseClaimBody(c)
	if err != nil {
		return respondError(c, err)
	}
	comment, err := s.ClaimCommentBounty(c.Params("id"), txHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// ClaimReplyBountyEndpoint handles POST /replies/:id/claim.
func (s *ClaimService) ClaimReplyBountyEndpoint(c *fiber.Ctx) error {
	txHash, err := parseClaimBody(c)
	if err != nil {
		return respondError(c, err)
	}
	reply, err := s.ClaimReplyBounty(c.Params("id"), txHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reply)
}

// UnstakeNovelEndpoint handles POST /novel-stakes/:id/unstake.
func (s *ClaimService) UnstakeNovelEndpoint(c *fiber.Ctx) error {
	txHash, err := parseClaimBody(c)
	if err != nil {
		return respondError(c, err)
	}
	ns, err := s.UnstakeNovel(c.Params("id"), txHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ns)
}
