// services/engagement_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"math/big"

	"zorapad/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EngagementService records upvotes and stakes and serves engagement
// summaries. Upvote uniqueness is enforced by the composite unique index on
// the upvotes table, so concurrent duplicates lose at the storage layer.
type EngagementService struct {
	DB    *gorm.DB
	Guard *OwnershipGuard
}

func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{DB: db, Guard: NewOwnershipGuard(db)}
}

// EngagementSummary is the display projection for a single target.
// Upvotes folds in stake rows: every stake counts as an implicit upvote.
type EngagementSummary struct {
	Upvotes     int64  `json:"upvotes"`
	StakeCount  int64  `json:"stake_count"`
	TotalStaked string `json:"total_staked"`
}

// parseAmount validates a token amount: a base-10 unsigned integer string,
// strictly positive. Amounts are token base units and routinely exceed
// int64, hence big.Int.
func parseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer string, got %q", ErrInvalidInput, s)
	}
	return n, nil
}

// targetExists verifies the engagement target row is present. Fails closed:
// a missing row is ErrNotFound, never a silent insert against a dangling id.
func (s *EngagementService) targetExists(kind models.TargetKind, targetID string) error {
	var count int64
	var err error
	switch kind {
	case models.TargetComment:
		err = s.DB.Model(&models.Comment{}).Where("id = ?", targetID).Count(&count).Error
	case models.TargetReply:
		err = s.DB.Model(&models.Reply{}).Where("id = ?", targetID).Count(&count).Error
	case models.TargetRequestReply:
		err = s.DB.Model(&models.RequestReply{}).Where("id = ?", targetID).Count(&count).Error
	default:
		return fmt.Errorf("%w: unknown target kind %q", ErrInvalidInput, kind)
	}
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, targetID)
	}
	return nil
}

// RecordUpvote inserts the (target, user) upvote. A second call for the same
// pair returns ErrDuplicateAction off the unique-index violation.
func (s *EngagementService) RecordUpvote(kind models.TargetKind, targetID, userID string) (*models.Upvote, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := s.targetExists(kind, targetID); err != nil {
		return nil, err
	}

	upvote := &models.Upvote{
		ID:         uuid.NewString(),
		TargetKind: kind,
		TargetID:   targetID,
		UserID:     userID,
	}
	if err := s.DB.Create(upvote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: already upvoted", ErrDuplicateAction)
		}
		return nil, err
	}
	return upvote, nil
}

// RecordStake appends a stake row against a comment, reply or request reply.
// Repeat stakes by the same user on the same target each get their own row;
// only novel-level staking merges (see StakeOnNovel).
func (s *EngagementService) RecordStake(kind models.TargetKind, targetID, userID, amount, txHash string) (*models.Stake, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := parseAmount(amount); err != nil {
		return nil, err
	}
	if txHash == "" {
		return nil, fmt.Errorf("%w: transaction hash is required", ErrInvalidInput)
	}
	if err := s.targetExists(kind, targetID); err != nil {
		return nil, err
	}

	stake := &models.Stake{
		ID:                uuid.NewString(),
		TargetKind:        kind,
		TargetID:          targetID,
		UserID:            userID,
		Amount:            amount,
		TransactionHash:   txHash,
		ContractConfirmed: true, // caller asserts the on-chain tx succeeded
	}
	if err := s.DB.Create(stake).Error; err != nil {
		return nil, err
	}
	return stake, nil
}

// StakeOnNovel merges a stake into the single (user, novel) position. The
// addition happens in big.Int so totals stay exact past int64 on every
// backend; SQL numeric addition would overflow to a float on sqlite. The
// write is a compare-and-swap on the stored amount, so a concurrent stake
// forces a retry on fresh state instead of losing an increment.
func (s *EngagementService) StakeOnNovel(userID, novelID, amount, txHash string) (*models.NovelStake, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	add, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	if txHash == "" {
		return nil, fmt.Errorf("%w: transaction hash is required", ErrInvalidInput)
	}
	var novel models.Novel
	if err := s.DB.First(&novel, "id = ?", novelID).Error; err != nil {
		return nil, wrapLookup(err, "novel")
	}

	for {
		var ns models.NovelStake
		err := s.DB.Where("user_id = ? AND novel_id = ?", userID, novelID).First(&ns).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ns = models.NovelStake{
				ID:                   uuid.NewString(),
				UserID:               userID,
				NovelID:              novelID,
				AmountStaked:         amount,
				StakeTransactionHash: txHash,
			}
			if err := s.DB.Create(&ns).Error; err != nil {
				// Lost the create race to a concurrent first stake; fold
				// into the row that won.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue
				}
				return nil, err
			}
			return &ns, nil
		}
		if err != nil {
			return nil, err
		}

		total, ok := new(big.Int).SetString(ns.AmountStaked, 10)
		if !ok {
			return nil, fmt.Errorf("%w: stored stake amount %q is not an integer string", ErrInvalidInput, ns.AmountStaked)
		}
		total.Add(total, add)

		res := s.DB.Model(&models.NovelStake{}).
			Where("id = ? AND amount_staked = ?", ns.ID, ns.AmountStaked).
			Updates(map[string]interface{}{
				"amount_staked":          total.String(),
				"stake_transaction_hash": txHash,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent stake moved the amount under us.
			continue
		}
		ns.AmountStaked = total.String()
		ns.StakeTransactionHash = txHash
		return &ns, nil
	}
}

// TotalStaked sums confirmed stake amounts for a target with big.Int.
// Summation is done in Go, not SQL, so amounts past int64 stay exact.
func (s *EngagementService) TotalStaked(kind models.TargetKind, targetID string) (string, error) {
	var amounts []string
	err := s.DB.Model(&models.Stake{}).
		Where("target_kind = ? AND target_id = ? AND contract_confirmed = ?", kind, targetID, true).
		Pluck("amount", &amounts).Error
	if err != nil {
		return "0", err
	}

	total := new(big.Int)
	for _, a := range amounts {
		n, ok := new(big.Int).SetString(a, 10)
		if !ok {
			log.Printf("[ENGAGEMENT] skipping malformed stake amount %q on %s %s", a, kind, targetID)
			continue
		}
		total.Add(total, n)
	}
	return total.String(), nil
}

// Summary returns the display aggregation for a target. Unknown or temporary
// ids (e.g. optimistic client-side ids) are not an error: they read as zero
// engagement.
func (s *EngagementService) Summary(kind models.TargetKind, targetID string) (*EngagementSummary, error) {
	summary := &EngagementSummary{TotalStaked: "0"}
	if !models.ValidTargetKind(kind) || targetID == "" {
		return summary, nil
	}

	var upvotes int64
	if err := s.DB.Model(&models.Upvote{}).
		Where("target_kind = ? AND target_id = ?", kind, targetID).
		Count(&upvotes).Error; err != nil {
		return nil, err
	}

	var stakes int64
	if err := s.DB.Model(&models.Stake{}).
		Where("target_kind = ? AND target_id = ?", kind, targetID).
		Count(&stakes).Error; err != nil {
		return nil, err
	}

	total, err := s.TotalStaked(kind, targetID)
	if err != nil {
		return nil, err
	}

	// A stake doubles as an endorsement, so it counts toward the upvote
	// number shown next to the target.
	summary.Upvotes = upvotes + stakes
	summary.StakeCount = stakes
	summary.TotalStaked = total
	return summary, nil
}

// --- Fiber handlers ---

func (s *EngagementService) handleUpvote(c *fiber.Ctx, kind models.TargetKind) error {
	userID, _ := c.Locals("user_id").(string)
	targetID := c.Params("id")

	upvote, err := s.RecordUpvote(kind, targetID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "upvote": upvote})
}

func (s *EngagementService) handleStake(c *fiber.Ctx, kind models.TargetKind) error {
	userID, _ := c.Locals("user_id").(string)
	targetID := c.Params("id")

	var req struct {
		Amount          string `json:"amount"`
		TransactionHash string `json:"transaction_hash"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	stake, err := s.RecordStake(kind, targetID, userID, req.Amount, req.TransactionHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "stake": stake})
}

func (s *EngagementService) handleSummary(c *fiber.Ctx, kind models.TargetKind) error {
	summary, err := s.Summary(kind, c.Params("id"))
	if err != nil {
		log.Printf("DB Error building engagement summary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build summary"})
	}
	return c.JSON(summary)
}

func (s *EngagementService) UpvoteComment(c *fiber.Ctx) error      { return s.handleUpvote(c, models.TargetComment) }
func (s *EngagementService) UpvoteReply(c *fiber.Ctx) error        { return s.handleUpvote(c, models.TargetReply) }
func (s *EngagementService) UpvoteRequestReply(c *fiber.Ctx) error { return s.handleUpvote(c, models.TargetRequestReply) }

func (s *EngagementService) StakeComment(c *fiber.Ctx) error      { return s.handleStake(c, models.TargetComment) }
func (s *EngagementService) StakeReply(c *fiber.Ctx) error        { return s.handleStake(c, models.TargetReply) }
func (s *EngagementService) StakeRequestReply(c *fiber.Ctx) error { return s.handleStake(c, models.TargetRequestReply) }

func (s *EngagementService) CommentSummary(c *fiber.Ctx) error      { return s.handleSummary(c, models.TargetComment) }
func (s *EngagementService) ReplySummary(c *fiber.Ctx) error        { return s.handleSummary(c, models.TargetReply) }
func (s *EngagementService) RequestReplySummary(c *fiber.Ctx) error { return s.handleSummary(c, models.TargetRequestReply) }

// StakeNovel merges a reader's stake into their novel position.
func (s *EngagementService) StakeNovel(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	novelID := c.Params("id")

	var req struct {
		Amount          string `json:"amount"`
		TransactionHash string `json:"transaction_hash"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ns, err := s.StakeOnNovel(userID, novelID, req.Amount, req.TransactionHash)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "novel_stake": ns})
}
