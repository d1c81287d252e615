// models/novel.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NovelGenreFantasy    = "fantasy"
	NovelGenreSciFi      = "scifi"
	NovelGenreRomance    = "romance"
	NovelGenreMystery    = "mystery"
	NovelGenreThriller   = "thriller"
	NovelGenreHistorical = "historical"
	NovelGenreOther      = "other"
)

type Novel struct {
	ID       string `json:"id" gorm:"primaryKey"`
	AuthorID string `json:"author_id" gorm:"index;not null"` // external user id of the author
	Title    string `json:"title" gorm:"not null"`
	Slug     string `json:"slug" gorm:"uniqueIndex;not null"`
	Synopsis string `json:"synopsis"`
	Genre    string `json:"genre"`

	// 🖼️ Media
	CoverURL string `json:"cover_url"` // e.g., "https://cdn.../covers/abc.png"

	// 🪙 Staking token for this novel (readers stake this token's base units)
	ContractAddress string `json:"contract_address,omitempty"`
	TokenSymbol     string `json:"token_symbol,omitempty"`

	// 🎛️ Publishing state
	Status    string     `json:"status" gorm:"default:'draft'"` // draft | scheduled | published
	PublishAt *time.Time `json:"publish_at"`                    // only used if scheduled

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// 🔗 Chapters
	Chapters []Chapter `json:"chapters,omitempty" gorm:"foreignKey:NovelID"`
}

type Chapter struct {
	ID      string `json:"id" gorm:"primaryKey"`
	NovelID string `json:"novel_id" gorm:"index;not null"`
	Number  int    `json:"number" gorm:"not null"` // 1-based position in the novel
	Title   string `json:"title" gorm:"not null"`

	// 📁 Chapter text lives in object storage; only the key is kept here
	ContentKey string `json:"content_key"`
	ContentURL string `json:"content_url"`
	WordCount  int    `json:"word_count"`

	Status    string     `json:"status" gorm:"default:'draft'"` // draft | scheduled | published
	PublishAt *time.Time `json:"publish_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
