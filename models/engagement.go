// models/engagement.go
package models

import (
	"time"
)

// TargetKind discriminates what an upvote or stake is attached to.
type TargetKind string

const (
	TargetComment      TargetKind = "comment"
	TargetReply        TargetKind = "reply"
	TargetRequestReply TargetKind = "request_reply"

	// TargetRequest is an ownership/award target only; requests take no
	// upvotes or stakes, so ValidTargetKind excludes it.
	TargetRequest TargetKind = "request"
)

// ValidTargetKind reports whether k names an engagement target table.
func ValidTargetKind(k TargetKind) bool {
	switch k {
	case TargetComment, TargetReply, TargetRequestReply:
		return true
	}
	return false
}

// Upvote = one user endorsing one target, at most once. Uniqueness is
// enforced by the composite index so a duplicate race loses at the
// storage layer, not in application code.
type Upvote struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	TargetKind TargetKind `gorm:"not null;uniqueIndex:uk_upvote_target_user,priority:1" json:"target_kind"`
	TargetID   string     `gorm:"not null;uniqueIndex:uk_upvote_target_user,priority:2" json:"target_id"`
	UserID     string     `gorm:"index;not null;uniqueIndex:uk_upvote_target_user,priority:3" json:"user_id"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// Stake = tokens a user commits against a comment/reply/request-reply.
// Amounts are token base units and may exceed int64, so they are stored as
// numeric strings and summed with big.Int. A user may stake repeatedly on
// the same target; each call adds a row (novel-level staking merges instead,
// see NovelStake).
type Stake struct {
	ID                   string     `gorm:"primaryKey;type:uuid" json:"id"`
	TargetKind           TargetKind `gorm:"not null;index:idx_stake_target,priority:1" json:"target_kind"`
	TargetID             string     `gorm:"not null;index:idx_stake_target,priority:2" json:"target_id"`
	UserID               string     `gorm:"index;not null" json:"user_id"`
	Amount               string     `gorm:"type:varchar(78);not null" json:"amount"`
	TransactionHash      string     `gorm:"not null" json:"transaction_hash"`
	ContractConfirmed    bool       `gorm:"default:true" json:"contract_confirmed"`
	Claimed              bool       `gorm:"default:false" json:"claimed"`
	ClaimTransactionHash *string    `json:"claim_transaction_hash,omitempty"`
	CreatedAt            time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// NovelStake = a reader's position on a whole novel. Exactly one row per
// (user, novel): repeat stakes accumulate into AmountStaked server-side and
// overwrite the stake tx hash with the latest.
type NovelStake struct {
	ID                     string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID                 string    `gorm:"not null;uniqueIndex:uk_novel_stake_user,priority:1" json:"user_id"`
	NovelID                string    `gorm:"not null;uniqueIndex:uk_novel_stake_user,priority:2" json:"novel_id"`
	AmountStaked           string    `gorm:"type:varchar(78);not null" json:"amount_staked"`
	StakeTransactionHash   string    `gorm:"not null" json:"stake_transaction_hash"`
	Unstaked               bool      `gorm:"default:false" json:"unstaked"`
	UnstakeTransactionHash *string   `json:"unstake_transaction_hash,omitempty"`
	CreatedAt              time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt              time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
