package models

import (
	"time"

	"gorm.io/gorm"
)

// UserXP tracks gamified progression for each student (denormalized for performance)
type UserXP struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Core progression
	TotalXP int64 `json:"total_xp" gorm:"default:0"`
	TodayXP int64 `json:"today_xp" gorm:"default:0"`

	// Streak state
	StreakDays     int        `json:"streak_days" gorm:"default:0"`
	StreakResetAt  *time.Time `json:"streak_reset_at,omitempty"` // inactivity past this point breaks the streak
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`

	Timestamps
}

// XPTransaction is the append-only audit record of a single XP grant
type XPTransaction struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`

	BaseAmount  int64   `json:"base_amount" gorm:"not null"`
	Multiplier  float64 `json:"multiplier" gorm:"not null;default:1"`
	StreakBonus float64 `json:"streak_bonus" gorm:"not null;default:1"`
	FinalAmount int64   `json:"final_amount" gorm:"not null"`
	Source      string  `json:"source" gorm:"type:varchar(64);index"` // e.g., "chat_session", "quote_vote"

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// UserCoins is the spendable balance, separate from XP
type UserCoins struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	Balance int64 `json:"balance" gorm:"not null;default:0;check:balance >= 0"`

	Timestamps
}

// CoinTransactionType classifies a coin ledger entry
type CoinTransactionType string

const (
	CoinTxEarn   CoinTransactionType = "earn"
	CoinTxSpend  CoinTransactionType = "spend"
	CoinTxReward CoinTransactionType = "reward"
)

// CoinTransaction is the append-only audit record of a single coin change
type CoinTransaction struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`

	Amount      int64               `json:"amount" gorm:"not null"` // negative for spends
	Type        CoinTransactionType `json:"type" gorm:"type:varchar(16);not null"`
	Description string              `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
