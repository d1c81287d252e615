package services

import (
	"testing"

	"zorapad/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimStakeIsIdempotentOnClaimedFlag(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	eng := NewEngagementService(db)
	svc := NewClaimService(db)

	stake, err := eng.RecordStake(models.TargetComment, f.Comment.ID, readerID, "250", "0xstake")
	require.NoError(t, err)

	claimed, err := svc.ClaimStake(stake.ID, "0xclaim1")
	require.NoError(t, err)
	assert.True(t, claimed.Claimed)
	require.NotNil(t, claimed.ClaimTransactionHash)
	assert.Equal(t, "0xclaim1", *claimed.ClaimTransactionHash)

	// Retried claim: flag stays true, hash takes the latest value.
	again, err := svc.ClaimStake(stake.ID, "0xclaim2")
	require.NoError(t, err)
	assert.True(t, again.Claimed)
	assert.Equal(t, "0xclaim2", *again.ClaimTransactionHash)

	var stored models.Stake
	require.NoError(t, db.First(&stored, "id = ?", stake.ID).Error)
	assert.True(t, stored.Claimed)
	assert.Equal(t, "0xclaim2", *stored.ClaimTransactionHash)
}

func TestClaimStakeForcesContractConfirmed(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewClaimService(db)

	stake := models.Stake{
		ID:                "stake-pending",
		TargetKind:        models.TargetComment,
		TargetID:          f.Comment.ID,
		UserID:            readerID,
		Amount:            "40",
		TransactionHash:   "0xpending",
		ContractConfirmed: false,
	}
	require.NoError(t, db.Create(&stake).Error)

	claimed, err := svc.ClaimStake(stake.ID, "0xclaim")
	require.NoError(t, err)
	assert.True(t, claimed.ContractConfirmed)

	var stored models.Stake
	require.NoError(t, db.First(&stored, "id = ?", stake.ID).Error)
	assert.True(t, stored.ContractConfirmed)
}

func TestClaimStakeValidation(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	eng := NewEngagementService(db)
	svc := NewClaimService(db)

	stake, err := eng.RecordStake(models.TargetComment, f.Comment.ID, readerID, "10", "0xstake")
	require.NoError(t, err)

	_, err = svc.ClaimStake(stake.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ClaimStake("no-such-stake", "0xclaim")
	assert.ErrorIs(t, err, ErrNotFound)

	var stored models.Stake
	require.NoError(t, db.First(&stored, "id = ?", stake.ID).Error)
	assert.False(t, stored.Claimed)
}

func TestClaimCommentBountyRequiresAward(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewClaimService(db)

	_, err := svc.ClaimCommentBounty(f.Comment.ID, "0xclaim")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ClaimCommentBounty("no-such-comment", "0xclaim")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimCommentBountyAfterAward(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	awards := NewAwardService(db)
	svc := NewClaimService(db)

	_, err := awards.AwardComment(authorID, f.Comment.ID, "500", "50", "0xaward")
	require.NoError(t, err)

	claimed, err := svc.ClaimCommentBounty(f.Comment.ID, "0xclaim1")
	require.NoError(t, err)
	assert.True(t, claimed.BountyClaimed)
	assert.Equal(t, "0xclaim1", *claimed.ClaimTransactionHash)

	again, err := svc.ClaimCommentBounty(f.Comment.ID, "0xclaim2")
	require.NoError(t, err)
	assert.True(t, again.BountyClaimed)
	assert.Equal(t, "0xclaim2", *again.ClaimTransactionHash)

	var stored models.Comment
	require.NoError(t, db.First(&stored, "id = ?", f.Comment.ID).Error)
	assert.True(t, stored.BountyClaimed)
	assert.Equal(t, "0xclaim2", *stored.ClaimTransactionHash)
	// The award itself is untouched by the claim.
	assert.Equal(t, "500", *stored.BountyAmount)
	assert.Equal(t, "0xaward", *stored.AwardTransactionHash)
}

func TestClaimReplyBountyAfterAward(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	awards := NewAwardService(db)
	svc := NewClaimService(db)

	_, err := svc.ClaimReplyBounty(f.Reply.ID, "0xclaim")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = awards.AwardReply(authorID, f.Reply.ID, "300", "0", "0xaward")
	require.NoError(t, err)

	claimed, err := svc.ClaimReplyBounty(f.Reply.ID, "0xclaim")
	require.NoError(t, err)
	assert.True(t, claimed.BountyClaimed)
	assert.Equal(t, "0xclaim", *claimed.ClaimTransactionHash)
}

func TestUnstakeNovelIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	eng := NewEngagementService(db)
	svc := NewClaimService(db)

	ns, err := eng.StakeOnNovel(readerID, f.Novel.ID, "1000", "0xstake")
	require.NoError(t, err)

	unstaked, err := svc.UnstakeNovel(ns.ID, "0xout1")
	require.NoError(t, err)
	assert.True(t, unstaked.Unstaked)
	assert.Equal(t, "0xout1", *unstaked.UnstakeTransactionHash)

	again, err := svc.UnstakeNovel(ns.ID, "0xout2")
	require.NoError(t, err)
	assert.True(t, again.Unstaked)
	assert.Equal(t, "0xout2", *again.UnstakeTransactionHash)

	_, err = svc.UnstakeNovel("no-such-position", "0xout")
	assert.ErrorIs(t, err, ErrNotFound)

	// The row survives with its amount for history.
	var stored models.NovelStake
	require.NoError(t, db.First(&stored, "id = ?", ns.ID).Error)
	assert.Equal(t, "1000", stored.AmountStaked)
}
