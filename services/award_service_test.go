package services

import (
	"testing"

	"zorapad/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardCommentByOwner(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)

	awarded, err := svc.AwardComment(authorID, f.Comment.ID, "500", "50", "0xabc")
	require.NoError(t, err)

	require.NotNil(t, awarded.AwardTransactionHash)
	assert.Equal(t, "0xabc", *awarded.AwardTransactionHash)
	assert.Equal(t, "500", *awarded.BountyAmount)
	assert.Equal(t, "50", *awarded.StakersReward)
	assert.True(t, awarded.IsAwarded())

	var stored models.Comment
	require.NoError(t, db.First(&stored, "id = ?", f.Comment.ID).Error)
	assert.True(t, stored.IsAwarded())
	require.NotNil(t, stored.AwardedAt)
}

func TestAwardCommentByNonOwnerIsForbiddenAndWritesNothing(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)
	engagement := NewEngagementService(db)

	_, err := engagement.RecordStake(models.TargetComment, f.Comment.ID, reader2ID, "40", "0x9")
	require.NoError(t, err)
	before, err := engagement.Summary(models.TargetComment, f.Comment.ID)
	require.NoError(t, err)

	_, err = svc.AwardComment(reader2ID, f.Comment.ID, "500", "50", "0xabc")
	assert.ErrorIs(t, err, ErrForbidden)

	var stored models.Comment
	require.NoError(t, db.First(&stored, "id = ?", f.Comment.ID).Error)
	assert.False(t, stored.IsAwarded())

	after, err := engagement.Summary(models.TargetComment, f.Comment.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAwardCommentUnauthorized(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)

	_, err := svc.AwardComment("", f.Comment.ID, "500", "50", "0xabc")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAwardCommentNotFoundDistinctFromForbidden(t *testing.T) {
	db := newTestDB(t)
	seedLedger(t, db)
	svc := NewAwardService(db)

	_, err := svc.AwardComment(authorID, "missing-comment", "500", "50", "0xabc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestReAwardCommentRejected(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)

	_, err := svc.AwardComment(authorID, f.Comment.ID, "500", "50", "0xabc")
	require.NoError(t, err)

	// Awards fix payout amounts; a second settlement must not reprice them.
	_, err = svc.AwardComment(authorID, f.Comment.ID, "900", "90", "0xdef")
	assert.ErrorIs(t, err, ErrDuplicateAction)

	var stored models.Comment
	require.NoError(t, db.First(&stored, "id = ?", f.Comment.ID).Error)
	assert.Equal(t, "0xabc", *stored.AwardTransactionHash)
	assert.Equal(t, "500", *stored.BountyAmount)
}

func TestAwardValidation(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)

	_, err := svc.AwardComment(authorID, f.Comment.ID, "0", "50", "0xabc")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AwardComment(authorID, f.Comment.ID, "500", "-1", "0xabc")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AwardComment(authorID, f.Comment.ID, "500", "50", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Zero stakers' reward is a legal settlement.
	_, err = svc.AwardComment(authorID, f.Comment.ID, "500", "0", "0xabc")
	assert.NoError(t, err)
}

func TestAwardReplyByOwner(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)

	awarded, err := svc.AwardReply(authorID, f.Reply.ID, "300", "30", "0xbeef")
	require.NoError(t, err)
	assert.True(t, awarded.IsAwarded())

	// Ownership is checked before the awarded state, so a non-owner still
	// sees Forbidden.
	_, err = svc.AwardReply(reader2ID, f.Reply.ID, "300", "30", "0xcafe")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AwardReply(authorID, f.Reply.ID, "300", "30", "0xcafe")
	assert.ErrorIs(t, err, ErrDuplicateAction)
}

func TestAwardRequestSettlesWinner(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)

	awarded, err := svc.AwardRequest(authorID, f.Request.ID, f.RequestReply.ID, "1000", "100", "0xfeed")
	require.NoError(t, err)

	assert.True(t, awarded.IsAwarded())
	require.NotNil(t, awarded.WinnerID)
	assert.Equal(t, f.RequestReply.UserID, *awarded.WinnerID)
	require.NotNil(t, awarded.WinningReplyID)
	assert.Equal(t, f.RequestReply.ID, *awarded.WinningReplyID)

	var stored models.Request
	require.NoError(t, db.First(&stored, "id = ?", f.Request.ID).Error)
	assert.True(t, stored.Awarded)
	require.NotNil(t, stored.AwardedAt)
	assert.Equal(t, "1000", *stored.BountyAmount)
}

func TestAwardRequestRejectsForeignWinningReply(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)

	// A reply that belongs to a different request must not settle this one.
	other := models.Request{
		ID:       "req-other",
		NovelID:  f.Novel.ID,
		AuthorID: authorID,
		Title:    "Another prompt",
	}
	require.NoError(t, db.Create(&other).Error)
	foreign := models.RequestReply{
		ID:        "rr-foreign",
		RequestID: other.ID,
		UserID:    reader2ID,
		Body:      "answer to the other request",
	}
	require.NoError(t, db.Create(&foreign).Error)

	_, err := svc.AwardRequest(authorID, f.Request.ID, foreign.ID, "1000", "100", "0xfeed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReAwardRequestRejected(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewAwardService(db)

	_, err := svc.AwardRequest(authorID, f.Request.ID, f.RequestReply.ID, "1000", "100", "0xfeed")
	require.NoError(t, err)

	_, err = svc.AwardRequest(authorID, f.Request.ID, f.RequestReply.ID, "2000", "200", "0xf00d")
	assert.ErrorIs(t, err, ErrDuplicateAction)
}
