package services

import (
	"testing"

	"zorapad/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserUpvotedTargetsUnionsUpvotesAndStakes(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	eng := NewEngagementService(db)
	svc := NewRewardsService(db)

	// reader2 upvotes the comment, stakes on it twice, and stakes on the
	// request reply. The comment must still appear exactly once.
	_, err := eng.RecordUpvote(models.TargetComment, f.Comment.ID, reader2ID)
	require.NoError(t, err)
	_, err = eng.RecordStake(models.TargetComment, f.Comment.ID, reader2ID, "10", "0xa")
	require.NoError(t, err)
	_, err = eng.RecordStake(models.TargetComment, f.Comment.ID, reader2ID, "20", "0xb")
	require.NoError(t, err)
	_, err = eng.RecordStake(models.TargetRequestReply, f.RequestReply.ID, reader2ID, "30", "0xc")
	require.NoError(t, err)

	// Someone else's engagement must not leak in.
	_, err = eng.RecordUpvote(models.TargetReply, f.Reply.ID, readerID)
	require.NoError(t, err)

	refs, err := svc.UserUpvotedTargets(reader2ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []TargetRef{
		{Kind: models.TargetComment, ID: f.Comment.ID},
		{Kind: models.TargetRequestReply, ID: f.RequestReply.ID},
	}, refs)
}

func TestUserUpvotedTargetsEmpty(t *testing.T) {
	db := newTestDB(t)
	seedLedger(t, db)
	svc := NewRewardsService(db)

	refs, err := svc.UserUpvotedTargets("nobody")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestUserClaimableCommentStakes(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	eng := NewEngagementService(db)
	awards := NewAwardService(db)
	claims := NewClaimService(db)
	svc := NewRewardsService(db)

	stake, err := eng.RecordStake(models.TargetComment, f.Comment.ID, reader2ID, "75", "0xstake")
	require.NoError(t, err)

	// Nothing claimable before the comment wins.
	rows, err := svc.UserClaimableCommentStakes(reader2ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = awards.AwardComment(authorID, f.Comment.ID, "500", "50", "0xaward")
	require.NoError(t, err)

	rows, err = svc.UserClaimableCommentStakes(reader2ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stake.ID, rows[0].StakeID)
	assert.Equal(t, "75", rows[0].Amount)
	assert.Equal(t, f.Comment.ID, rows[0].TargetID)
	assert.Equal(t, "50", rows[0].StakersReward)
	assert.Equal(t, "0xaward", rows[0].AwardTransactionHash)
	assert.Equal(t, f.Novel.ID, rows[0].NovelID)
	assert.Equal(t, "The Long Rain", rows[0].NovelTitle)
	assert.Equal(t, "the-long-rain", rows[0].NovelSlug)

	// The comment author's own absence of stakes means an empty view.
	rows, err = svc.UserClaimableCommentStakes(readerID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// A claimed stake drops out.
	_, err = claims.ClaimStake(stake.ID, "0xclaim")
	require.NoError(t, err)
	rows, err = svc.UserClaimableCommentStakes(reader2ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUserClaimableReplyStakes(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	eng := NewEngagementService(db)
	awards := NewAwardService(db)
	svc := NewRewardsService(db)

	stake, err := eng.RecordStake(models.TargetReply, f.Reply.ID, readerID, "33", "0xstake")
	require.NoError(t, err)
	_, err = awards.AwardReply(authorID, f.Reply.ID, "200", "20", "0xaward")
	require.NoError(t, err)

	rows, err := svc.UserClaimableReplyStakes(readerID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stake.ID, rows[0].StakeID)
	assert.Equal(t, f.Reply.ID, rows[0].TargetID)
	assert.Equal(t, "20", rows[0].StakersReward)
	assert.Equal(t, f.Novel.ID, rows[0].NovelID)

	// Reply stakes never show up in the comment view.
	commentRows, err := svc.UserClaimableCommentStakes(readerID)
	require.NoError(t, err)
	assert.Empty(t, commentRows)
}

func TestUserRequestStakingRewards(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	eng := NewEngagementService(db)
	awards := NewAwardService(db)
	svc := NewRewardsService(db)

	// reader2 backs the request reply; a second reply loses.
	loser := models.RequestReply{
		ID:        "rr-loser",
		RequestID: f.Request.ID,
		UserID:    reader2ID,
		Body:      "The keeper is a ghost.",
	}
	require.NoError(t, db.Create(&loser).Error)

	winStake, err := eng.RecordStake(models.TargetRequestReply, f.RequestReply.ID, reader2ID, "60", "0xwin")
	require.NoError(t, err)
	_, err = eng.RecordStake(models.TargetRequestReply, loser.ID, reader2ID, "40", "0xlose")
	require.NoError(t, err)

	rewards, err := svc.UserRequestStakingRewards(reader2ID)
	require.NoError(t, err)
	assert.Empty(t, rewards)

	_, err = awards.AwardRequest(authorID, f.Request.ID, f.RequestReply.ID, "1000", "100", "0xaward")
	require.NoError(t, err)

	rewards, err = svc.UserRequestStakingRewards(reader2ID)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, winStake.ID, rewards[0].StakeID)
	assert.Equal(t, "60", rewards[0].Amount)
	assert.Equal(t, f.RequestReply.ID, rewards[0].WinningReplyID)
	assert.Equal(t, f.Request.ID, rewards[0].RequestID)
	assert.Equal(t, "Pitch the next plot turn", rewards[0].RequestTitle)
	require.NotNil(t, rewards[0].StakersReward)
	assert.Equal(t, "100", *rewards[0].StakersReward)
}

func TestUserRewardsSummary(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	eng := NewEngagementService(db)
	awards := NewAwardService(db)
	svc := NewRewardsService(db)

	// readerID wrote the comment and the request reply; both win.
	_, err := awards.AwardComment(authorID, f.Comment.ID, "500", "50", "0xaward1")
	require.NoError(t, err)
	_, err = awards.AwardRequest(authorID, f.Request.ID, f.RequestReply.ID, "1000", "100", "0xaward2")
	require.NoError(t, err)

	// Plus two active novel positions.
	_, err = eng.StakeOnNovel(readerID, f.Novel.ID, "200", "0xn1")
	require.NoError(t, err)
	_, err = eng.StakeOnNovel(readerID, f.Novel.ID, "300", "0xn2")
	require.NoError(t, err)

	summary, err := svc.UserRewardsSummary(readerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.BountiesWon)
	assert.Equal(t, "1500", summary.BountiesWonTotal)
	assert.Empty(t, summary.ClaimableComment)
	assert.Empty(t, summary.ClaimableReply)
	assert.Empty(t, summary.RequestRewards)
	require.Len(t, summary.ActiveNovelStakes, 1)
	assert.Equal(t, "500", summary.TotalNovelStaked)

	// A fresh user gets a zeroed summary, not an error.
	empty, err := svc.UserRewardsSummary("nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.BountiesWon)
	assert.Equal(t, "0", empty.BountiesWonTotal)
	assert.Equal(t, "0", empty.TotalNovelStaked)
}
