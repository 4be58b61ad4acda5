package models

import "time"

// RewardGrant is the shared idempotency ledger for every reward dispatch path.
// Each qualifying event writes exactly one row under a deterministic grant key
// (e.g., "quote_approval:<quote_id>", "quote_vote:<user>:<entry>",
// "free_coin:<user>:<date>"). An existing row inside the source's dedup window
// means the grant was already issued.
type RewardGrant struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	GrantKey       string `gorm:"index;not null" json:"grant_key"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	Source         string `gorm:"type:varchar(64);not null" json:"source"`

	XPAwarded    int64 `json:"xp_awarded" gorm:"default:0"`
	CoinsAwarded int64 `json:"coins_awarded" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
