package services

import (
	"fmt"
	"testing"

	"zorapad/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a uniquely-named shared in-memory sqlite database so every
// pooled connection sees the same data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Novel{},
		&models.Chapter{},
		&models.Comment{},
		&models.Reply{},
		&models.Request{},
		&models.RequestReply{},
		&models.Upvote{},
		&models.Stake{},
		&models.NovelStake{},
		&models.PlatformUser{},
		&models.WalletMirror{},
	))
	return db
}

const (
	authorID  = "author-1"
	readerID  = "reader-1"
	reader2ID = "reader-2"
)

// ledgerFixture seeds one novel with a published chapter and a full target
// chain: a comment by readerID, a reply by reader2ID, and an open request
// with one reply by readerID.
type ledgerFixture struct {
	Novel        models.Novel
	Chapter      models.Chapter
	Comment      models.Comment
	Reply        models.Reply
	Request      models.Request
	RequestReply models.RequestReply
}

func seedLedger(t *testing.T, db *gorm.DB) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{}

	f.Novel = models.Novel{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Title:    "The Long Rain",
		Slug:     "the-long-rain",
		Genre:    models.NovelGenreFantasy,
		Status:   "published",
	}
	require.NoError(t, db.Create(&f.Novel).Error)

	f.Chapter = models.Chapter{
		ID:      uuid.NewString(),
		NovelID: f.Novel.ID,
		Number:  1,
		Title:   "Landfall",
		Status:  "published",
	}
	require.NoError(t, db.Create(&f.Chapter).Error)

	f.Comment = models.Comment{
		ID:        uuid.NewString(),
		ChapterID: f.Chapter.ID,
		UserID:    readerID,
		Body:      "The storm imagery lands hard.",
	}
	require.NoError(t, db.Create(&f.Comment).Error)

	f.Reply = models.Reply{
		ID:        uuid.NewString(),
		CommentID: f.Comment.ID,
		UserID:    reader2ID,
		Body:      "Agreed, especially the last paragraph.",
	}
	require.NoError(t, db.Create(&f.Reply).Error)

	f.Request = models.Request{
		ID:       uuid.NewString(),
		NovelID:  f.Novel.ID,
		AuthorID: authorID,
		Title:    "Pitch the next plot turn",
	}
	require.NoError(t, db.Create(&f.Request).Error)

	f.RequestReply = models.RequestReply{
		ID:        uuid.NewString(),
		RequestID: f.Request.ID,
		UserID:    readerID,
		Body:      "The lighthouse keeper is the narrator's father.",
	}
	require.NoError(t, db.Create(&f.RequestReply).Error)

	return f
}
