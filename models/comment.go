// models/comment.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is reader feedback on a published chapter. An author may later
// designate a comment as a bounty winner; the award fields stay null until
// that happens and are frozen once AwardTransactionHash is set.
type Comment struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	ChapterID string `json:"chapter_id" gorm:"index;not null"`
	UserID    string `json:"user_id" gorm:"index;not null"`
	Body      string `json:"body" gorm:"type:text;not null"`

	// 🏆 Award (set once by the novel's author)
	BountyAmount         *string    `json:"bounty_amount,omitempty" gorm:"type:varchar(78)"`
	StakersReward        *string    `json:"stakers_reward,omitempty" gorm:"type:varchar(78)"`
	AwardTransactionHash *string    `json:"award_transaction_hash,omitempty"`
	AwardedAt            *time.Time `json:"awarded_at,omitempty"`

	// 💸 Bounty payout claim (flipped once, hash may be overwritten)
	BountyClaimed        bool    `json:"bounty_claimed" gorm:"default:false"`
	ClaimTransactionHash *string `json:"claim_transaction_hash,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Replies []Reply `json:"replies,omitempty" gorm:"foreignKey:CommentID"`
}

// IsAwarded reports whether this comment has won a bounty. The award
// transaction hash is the single source of truth for comments.
func (c *Comment) IsAwarded() bool {
	return c.AwardTransactionHash != nil && *c.AwardTransactionHash != ""
}

// Reply is a threaded response to a comment. Carries the same award surface
// as Comment.
type Reply struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	CommentID string `json:"comment_id" gorm:"index;not null"`
	UserID    string `json:"user_id" gorm:"index;not null"`
	Body      string `json:"body" gorm:"type:text;not null"`

	BountyAmount         *string    `json:"bounty_amount,omitempty" gorm:"type:varchar(78)"`
	StakersReward        *string    `json:"stakers_reward,omitempty" gorm:"type:varchar(78)"`
	AwardTransactionHash *string    `json:"award_transaction_hash,omitempty"`
	AwardedAt            *time.Time `json:"awarded_at,omitempty"`

	BountyClaimed        bool    `json:"bounty_claimed" gorm:"default:false"`
	ClaimTransactionHash *string `json:"claim_transaction_hash,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (r *Reply) IsAwarded() bool {
	return r.AwardTransactionHash != nil && *r.AwardTransactionHash != ""
}

// Request is a bounty prompt an author posts against their novel
// (e.g. "pitch the next plot turn"). Readers answer with RequestReply rows;
// the author picks one winner.
type Request struct {
	ID        string  `json:"id" gorm:"primaryKey;type:uuid"`
	NovelID   string  `json:"novel_id" gorm:"index;not null"`
	ChapterID *string `json:"chapter_id,omitempty" gorm:"index"` // optional anchor chapter
	AuthorID  string  `json:"author_id" gorm:"index;not null"`
	Title     string  `json:"title" gorm:"not null"`
	Body      string  `json:"body" gorm:"type:text"`

	// 🏆 Award. Unlike Comment/Reply, requests carry an explicit flag because
	// the winning reply and winner id live here rather than on the reply row.
	BountyAmount         *string    `json:"bounty_amount,omitempty" gorm:"type:varchar(78)"`
	StakersReward        *string    `json:"stakers_reward,omitempty" gorm:"type:varchar(78)"`
	AwardTransactionHash *string    `json:"award_transaction_hash,omitempty"`
	Awarded              bool       `json:"is_awarded" gorm:"column:is_awarded;default:false"`
	AwardedAt            *time.Time `json:"awarded_at,omitempty"`
	WinnerID             *string    `json:"winner_id,omitempty"`
	WinningReplyID       *string    `json:"winning_reply_id,omitempty" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Replies []RequestReply `json:"replies,omitempty" gorm:"foreignKey:RequestID"`
}

func (r *Request) IsAwarded() bool {
	return r.Awarded
}

// RequestReply is a reader's answer to a Request.
type RequestReply struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	RequestID string `json:"request_id" gorm:"index;not null"`
	UserID    string `json:"user_id" gorm:"index;not null"`
	Body      string `json:"body" gorm:"type:text;not null"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
