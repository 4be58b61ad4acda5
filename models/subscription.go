package models

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionMirror is a local snapshot of a user's billing-service subscription.
// Owned and managed solely by the economy service, read-only to business logic.
// Populated via sync worker from the billing service's public API.
type SubscriptionMirror struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	TierName   string `gorm:"type:varchar(64);not null" json:"tier_name"` // e.g., "Elite Legend Squad"
	TutorLimit int    `gorm:"default:1" json:"tutor_limit"`

	// Perk flags
	DoubleXP           bool `gorm:"default:false" json:"double_xp"`
	ExclusiveCosmetics bool `gorm:"default:false" json:"exclusive_cosmetics"`

	IsActive bool      `gorm:"default:false;index" json:"is_active"`
	SyncedAt time.Time `gorm:"not null" json:"synced_at"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
