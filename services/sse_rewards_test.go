package services

import (
	"testing"
	"time"

	"zorapad/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func settleCommentAward(t *testing.T, db *gorm.DB, commentID, bounty string, at time.Time) {
	t.Helper()
	hash := "0xaward-" + commentID
	require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", commentID).Updates(map[string]interface{}{
		"bounty_amount":          bounty,
		"award_transaction_hash": hash,
		"awarded_at":             at,
	}).Error)
}

func TestNextAwardBatchDeliversSameInstantAwards(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewRewardsService(db)

	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	settleCommentAward(t, db, f.Comment.ID, "500", ts)

	seen := make(map[string]bool)
	batch, cursor, err := svc.nextAwardBatch(readerID, time.Time{}, seen)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, f.Comment.ID, batch[0].TargetID)
	assert.True(t, cursor.Equal(ts))

	// A second award settles with the exact same timestamp after the poll.
	second := models.Comment{
		ID:        "comment-same-instant",
		ChapterID: f.Chapter.ID,
		UserID:    readerID,
		Body:      "also worth a bounty",
	}
	require.NoError(t, db.Create(&second).Error)
	settleCommentAward(t, db, second.ID, "700", ts)

	batch, cursor, err = svc.nextAwardBatch(readerID, cursor, seen)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, second.ID, batch[0].TargetID)
	assert.True(t, cursor.Equal(ts))

	// Boundary events never repeat.
	batch, _, err = svc.nextAwardBatch(readerID, cursor, seen)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestNextAwardBatchAdvancesCursorAndResetsSeen(t *testing.T) {
	db := newTestDB(t)
	f := seedLedger(t, db)
	svc := NewRewardsService(db)

	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	settleCommentAward(t, db, f.Comment.ID, "500", ts)

	seen := make(map[string]bool)
	_, cursor, err := svc.nextAwardBatch(readerID, time.Time{}, seen)
	require.NoError(t, err)

	later := models.Comment{
		ID:        "comment-later",
		ChapterID: f.Chapter.ID,
		UserID:    readerID,
		Body:      "second round",
	}
	require.NoError(t, db.Create(&later).Error)
	settleCommentAward(t, db, later.ID, "900", ts.Add(time.Minute))

	batch, cursor, err := svc.nextAwardBatch(readerID, cursor, seen)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, later.ID, batch[0].TargetID)
	assert.True(t, cursor.Equal(ts.Add(time.Minute)))

	// The earlier instant fell behind the cursor, so seen now only tracks the
	// new boundary.
	assert.Equal(t, map[string]bool{"comment:comment-later": true}, seen)
}
