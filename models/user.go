package models

import (
	"time"

	"gorm.io/gorm"
)

// PlatformUser is a local snapshot of user data needed for novels, comments
// and reward dashboards. Owned and managed solely by the ZoraPad service.
// Populated via sync worker from the Profile Service's user table.
type PlatformUser struct {
	ID                string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID    string     `gorm:"uniqueIndex;not null" json:"external_user_id"` // The profile service's UUID (from users.external_id)
	Username          string     `gorm:"index;not null" json:"username"`
	Email             string     `json:"email,omitempty"`
	ProfilePictureURL *string    `json:"profile_picture_url,omitempty"`
	Bio               *string    `json:"bio,omitempty"`
	PenName           *string    `json:"pen_name,omitempty"` // display name on published novels
	CreatedAt         time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	LastSeen *time.Time `json:"last_seen,omitempty"`
	IsBanned bool       `json:"is_banned" gorm:"default:false"` // local moderation ban

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RemoteUser mirrors the schema of the foreign `users` table (read-only).
// Used by sync worker to fetch data from the profile service's DB.
type RemoteUser struct {
	ID                uint       `gorm:"column:id"`
	Username          string     `gorm:"column:username"`
	Email             string     `gorm:"column:email"`
	Bio               *string    `gorm:"column:bio"`
	ProfilePictureURL *string    `gorm:"column:profile_picture_url"`
	ExternalID        string     `gorm:"column:external_id"` // links to our PlatformUser.ExternalUserID
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
	DeletedAt         *time.Time `gorm:"column:deleted_at"` // soft-delete marker
}
