package models

import "time"

// Achievement: static config for hidden easter-egg achievements
type Achievement struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	Code        string `gorm:"uniqueIndex;not null"` // e.g., "JUNGLE_EXPLORER", "NIGHT_OWL"
	Name        string `gorm:"not null"`
	Description string
	Rarity      string    `gorm:"type:varchar(16);default:'common'"` // common, rare, epic, legendary
	XPReward    int64     `gorm:"not null;default:25"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// UserAchievement: unlocked instance, one per (user, achievement) ever
type UserAchievement struct {
	ID             string    `gorm:"primaryKey;type:uuid"`
	ExternalUserID string    `gorm:"not null;index;uniqueIndex:idx_user_achievement"`
	AchievementID  string    `gorm:"not null;index;uniqueIndex:idx_user_achievement"`
	UnlockedAt     time.Time `gorm:"autoCreateTime"`
}

// Predefined achievement triggers, seeded at startup
var AchievementCatalog = []Achievement{
	{
		Code:        "WELCOME_TO_THE_JUNGLE",
		Name:        "Welcome to the Jungle",
		Description: "Joined the academy",
		Rarity:      "common",
	},
	{
		Code:        "JUNGLE_EXPLORER",
		Name:        "Jungle Explorer",
		Description: "Found the hidden map on the tutor screen",
		Rarity:      "rare",
	},
	{
		Code:        "NIGHT_OWL",
		Name:        "Night Owl",
		Description: "Studied after midnight",
		Rarity:      "common",
	},
	{
		Code:        "KONAMI_CUB",
		Name:        "Konami Cub",
		Description: "Entered the secret code on the home screen",
		Rarity:      "epic",
	},
	{
		Code:        "QUOTE_COLLECTOR",
		Name:        "Quote Collector",
		Description: "Tapped every quote on the wall of wisdom",
		Rarity:      "rare",
	},
}
