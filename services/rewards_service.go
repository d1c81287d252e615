// services/rewards_service.go
package services

import (
	"log"
	"math/big"

	"zorapad/models"
	"zorapad/workers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RewardsService serves the read-only reward projections behind the reader
// dashboard: what a user upvoted, which of their stakes became claimable,
// and what they earned from request staking. All totals are big.Int sums
// over numeric-string amounts; nothing here goes through floats.
type RewardsService struct {
	DB *gorm.DB
}

func NewRewardsService(db *gorm.DB) *RewardsService {
	return &RewardsService{DB: db}
}

// TargetRef identifies one engagement target in a view result.
type TargetRef struct {
	Kind models.TargetKind `json:"kind"`
	ID   string            `json:"id"`
}

// ClaimableStake is a user's stake whose parent target won a bounty with a
// stakers' reward attached, decorated with novel display metadata.
type ClaimableStake struct {
	StakeID              string `json:"stake_id"`
	Amount               string `json:"amount"`
	TransactionHash      string `json:"transaction_hash"`
	TargetID             string `json:"target_id"`
	StakersReward        string `json:"stakers_reward"`
	AwardTransactionHash string `json:"award_transaction_hash"`
	NovelID              string `json:"novel_id"`
	NovelTitle           string `json:"novel_title"`
	NovelSlug            string `json:"novel_slug"`
	CoverURL             string `json:"cover_url"`
}

// RequestStakingReward is a user's stake on the reply that won a request
// bounty.
type RequestStakingReward struct {
	StakeID         string  `json:"stake_id"`
	Amount          string  `json:"amount"`
	Claimed         bool    `json:"claimed"`
	WinningReplyID  string  `json:"winning_reply_id"`
	RequestID       string  `json:"request_id"`
	RequestTitle    string  `json:"request_title"`
	StakersReward   *string `json:"stakers_reward,omitempty"`
	BountyAmount    *string `json:"bounty_amount,omitempty"`
}

// sumAmounts adds numeric-string amounts exactly. Malformed rows are skipped
// with a log line rather than poisoning the whole total.
func sumAmounts(amounts []string) string {
	total := new(big.Int)
	for _, a := range amounts {
		n, ok := new(big.Int).SetString(a, 10)
		if !ok {
			log.Printf("[REWARDS] skipping malformed amount %q in aggregation", a)
			continue
		}
		total.Add(total, n)
	}
	return total.String()
}

// UserUpvotedTargets returns the set of targets the user endorsed, directly
// or via a stake. A stake implies an upvote, and a user who did both still
// appears once per target.
func (s *RewardsService) UserUpvotedTargets(userID string) ([]TargetRef, error) {
	var upvotes []models.Upvote
	if err := s.DB.Where("user_id = ?", userID).Find(&upvotes).Error; err != nil {
		return nil, err
	}
	var stakes []models.Stake
	if err := s.DB.Where("user_id = ?", userID).Find(&stakes).Error; err != nil {
		return nil, err
	}

	seen := make(map[TargetRef]bool)
	refs := make([]TargetRef, 0, len(upvotes)+len(stakes))
	for _, u := range upvotes {
		ref := TargetRef{Kind: u.TargetKind, ID: u.TargetID}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	for _, st := range stakes {
		ref := TargetRef{Kind: st.TargetKind, ID: st.TargetID}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// UserClaimableCommentStakes lists the user's unclaimed comment stakes whose
// comment won an award carrying a stakers' reward.
func (s *RewardsService) UserClaimableCommentStakes(userID string) ([]ClaimableStake, error) {
	var rows []ClaimableStake
	err := s.DB.Raw(`
		SELECT s.id AS stake_id, s.amount, s.transaction_hash,
		       c.id AS target_id, c.stakers_reward, c.award_transaction_hash,
		       n.id AS novel_id, n.title AS novel_title, n.slug AS novel_slug, n.cover_url
		FROM stakes s
		INNER JOIN comments c ON c.id = s.target_id
		INNER JOIN chapters ch ON ch.id = c.chapter_id
		INNER JOIN novels n ON n.id = ch.novel_id
		WHERE s.user_id = ? AND s.target_kind = ? AND s.claimed = ?
		  AND c.award_transaction_hash IS NOT NULL
		  AND c.stakers_reward IS NOT NULL
		ORDER BY s.created_at DESC
	`, userID, models.TargetComment, false).Scan(&rows).Error
	return rows, err
}

// UserClaimableReplyStakes is the reply-side twin of
// UserClaimableCommentStakes; replies reach the novel through their parent
// comment.
func (s *RewardsService) UserClaimableReplyStakes(userID string) ([]ClaimableStake, error) {
	var rows []ClaimableStake
	err := s.DB.Raw(`
		SELECT s.id AS stake_id, s.amount, s.transaction_hash,
		       r.id AS target_id, r.stakers_reward, r.award_transaction_hash,
		       n.id AS novel_id, n.title AS novel_title, n.slug AS novel_slug, n.cover_url
		FROM stakes s
		INNER JOIN replies r ON r.id = s.target_id
		INNER JOIN comments c ON c.id = r.comment_id
		INNER JOIN chapters ch ON ch.id = c.chapter_id
		INNER JOIN novels n ON n.id = ch.novel_id
		WHERE s.user_id = ? AND s.target_kind = ? AND s.claimed = ?
		  AND r.award_transaction_hash IS NOT NULL
		  AND r.stakers_reward IS NOT NULL
		ORDER BY s.created_at DESC
	`, userID, models.TargetReply, false).Scan(&rows).Error
	return rows, err
}

// UserRequestStakingRewards finds the user's stakes that landed on winning
// request replies. Two steps: awarded requests with a winning reply first,
// then the user's stakes on exactly those reply ids.
func (s *RewardsService) UserRequestStakingRewards(userID string) ([]RequestStakingReward, error) {
	var requests []models.Request
	if err := s.DB.
		Where("is_awarded = ? AND winning_reply_id IS NOT NULL", true).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return []RequestStakingReward{}, nil
	}

	byReply := make(map[string]*models.Request, len(requests))
	winningIDs := make([]string, 0, len(requests))
	for i := range requests {
		id := *requests[i].WinningReplyID
		byReply[id] = &requests[i]
		winningIDs = append(winningIDs, id)
	}

	var stakes []models.Stake
	if err := s.DB.
		Where("user_id = ? AND target_kind = ? AND target_id IN ?",
			userID, models.TargetRequestReply, winningIDs).
		Find(&stakes).Error; err != nil {
		return nil, err
	}

	rewards := make([]RequestStakingReward, 0, len(stakes))
	for _, st := range stakes {
		req := byReply[st.TargetID]
		rewards = append(rewards, RequestStakingReward{
			StakeID:        st.ID,
			Amount:         st.Amount,
			Claimed:        st.Claimed,
			WinningReplyID: st.TargetID,
			RequestID:      req.ID,
			RequestTitle:   req.Title,
			StakersReward:  req.StakersReward,
			BountyAmount:   req.BountyAmount,
		})
	}
	return rewards, nil
}

// RewardsSummary is the dashboard rollup for one user.
type RewardsSummary struct {
	BountiesWon       int64                  `json:"bounties_won"`
	BountiesWonTotal  string                 `json:"bounties_won_total"`
	ClaimableComment  []ClaimableStake       `json:"claimable_comment_stakes"`
	ClaimableReply    []ClaimableStake       `json:"claimable_reply_stakes"`
	RequestRewards    []RequestStakingReward `json:"request_staking_rewards"`
	ActiveNovelStakes []models.NovelStake    `json:"active_novel_stakes"`
	TotalNovelStaked  string                 `json:"total_novel_staked"`
	PayoutWallets     []models.WalletMirror  `json:"payout_wallets"`
}

// UserRewardsSummary assembles the full dashboard projection.
func (s *RewardsService) UserRewardsSummary(userID string) (*RewardsSummary, error) {
	summary := &RewardsSummary{BountiesWonTotal: "0", TotalNovelStaked: "0"}

	var wonAmounts []string
	if err := s.DB.Model(&models.Comment{}).
		Where("user_id = ? AND award_transaction_hash IS NOT NULL", userID).
		Pluck("bounty_amount", &wonAmounts).Error; err != nil {
		return nil, err
	}
	var replyAmounts []string
	if err := s.DB.Model(&models.Reply{}).
		Where("user_id = ? AND award_transaction_hash IS NOT NULL", userID).
		Pluck("bounty_amount", &replyAmounts).Error; err != nil {
		return nil, err
	}
	var requestAmounts []string
	if err := s.DB.Model(&models.Request{}).
		Where("winner_id = ? AND is_awarded = ?", userID, true).
		Pluck("bounty_amount", &requestAmounts).Error; err != nil {
		return nil, err
	}
	wonAmounts = append(wonAmounts, replyAmounts...)
	wonAmounts = append(wonAmounts, requestAmounts...)
	summary.BountiesWon = int64(len(wonAmounts))
	summary.BountiesWonTotal = sumAmounts(wonAmounts)

	var err error
	if summary.ClaimableComment, err = s.UserClaimableCommentStakes(userID); err != nil {
		return nil, err
	}
	if summary.ClaimableReply, err = s.UserClaimableReplyStakes(userID); err != nil {
		return nil, err
	}
	if summary.RequestRewards, err = s.UserRequestStakingRewards(userID); err != nil {
		return nil, err
	}

	if err := s.DB.
		Where("user_id = ? AND unstaked = ?", userID, false).
		Find(&summary.ActiveNovelStakes).Error; err != nil {
		return nil, err
	}
	staked := make([]string, 0, len(summary.ActiveNovelStakes))
	for _, ns := range summary.ActiveNovelStakes {
		staked = append(staked, ns.AmountStaked)
	}
	summary.TotalNovelStaked = sumAmounts(staked)

	// Payout wallets come from the mirror the wallet sync worker maintains.
	wallets, err := workers.GetUserWallets(s.DB, userID)
	if err != nil {
		return nil, err
	}
	summary.PayoutWallets = wallets

	return summary, nil
}

// --- Fiber handlers ---

// GetUserRewardsSummary returns the dashboard rollup for the authenticated
// user.
func (s *RewardsService) GetUserRewardsSummary(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	summary, err := s.UserRewardsSummary(userID)
	if err != nil {
		log.Printf("DB Error building rewards summary for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build rewards summary"})
	}
	return c.JSON(summary)
}

// GetUserUpvotedTargets returns every target the user upvoted or staked on,
// deduplicated. Clients use this to paint the "already endorsed" state.
func (s *RewardsService) GetUserUpvotedTargets(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	refs, err := s.UserUpvotedTargets(userID)
	if err != nil {
		log.Printf("DB Error fetching upvoted targets for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch upvoted targets"})
	}
	return c.JSON(fiber.Map{"targets": refs})
}

// GetUserNovelStakes lists the user's novel positions, active first.
func (s *RewardsService) GetUserNovelStakes(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in context"})
	}

	var stakes []models.NovelStake
	if err := s.DB.
		Where("user_id = ?", userID).
		Order("unstaked ASC, updated_at DESC").
		Find(&stakes).Error; err != nil {
		log.Printf("DB Error fetching novel stakes for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch novel stakes"})
	}
	return c.JSON(stakes)
}
