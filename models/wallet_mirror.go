// models/wallet_mirror.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// WalletMirror mirrors payout-wallet data from the wallet service. Award and
// claim payouts are sent to these addresses; this service only reads them.
// Table name: wallet_mirror
type WalletMirror struct {
	ID                 string    `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID             string    `gorm:"type:uuid;not null;index" json:"user_id"` // External user ID
	Chain              string    `gorm:"type:varchar(64);not null;index" json:"chain"`
	Token              string    `gorm:"type:varchar(64);not null" json:"token"`
	Address            string    `gorm:"type:varchar(128);not null;uniqueIndex" json:"address"` // Primary lookup key
	IsActive           bool      `gorm:"not null" json:"is_active"`
	LastBalanceCheckAt time.Time `gorm:"not null" json:"last_balance_check_at"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}
