package models

import "time"

// QuoteStatus tracks the moderation lifecycle of a submitted quote
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// QuoteEntry is a student-submitted quote for the weekly wall theme
type QuoteEntry struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`

	Theme  string      `gorm:"type:varchar(64);index;not null" json:"theme"`
	Text   string      `gorm:"type:text;not null" json:"text"`
	Status QuoteStatus `gorm:"type:varchar(16);default:'pending';index" json:"status"`

	// Featured quotes pay the larger approval reward
	Featured   bool       `gorm:"default:false" json:"featured"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	VoteCount  int64      `gorm:"default:0" json:"vote_count"`

	Timestamps
}

// QuoteShare records one share of a quote to an external platform.
// Every share is recorded; rewards are deduplicated separately (7-day window
// per (user, quote, platform) triple).
type QuoteShare struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	QuoteID        string `gorm:"index;not null" json:"quote_id"`
	Platform       string `gorm:"type:varchar(32);not null" json:"platform"` // twitter, whatsapp, instagram, ...

	Rewarded  bool      `gorm:"default:false" json:"rewarded"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// QuoteVote records one vote for a quote entry.
// A user may vote once per entry ever and once per theme per calendar day.
type QuoteVote struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"not null;index;uniqueIndex:idx_vote_user_entry" json:"external_user_id"`
	QuoteID        string `gorm:"not null;index;uniqueIndex:idx_vote_user_entry" json:"quote_id"`
	Theme          string `gorm:"type:varchar(64);index" json:"theme"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
