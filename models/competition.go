package models

import (
	"time"
)

// Competition represents a time-boxed scored event (weekly XP race, themed challenge run)
type Competition struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string `json:"title" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Description string `json:"description"`
	Theme       string `json:"theme" gorm:"type:varchar(64)"`
	BannerURL   string `json:"banner_url"`

	StartDate time.Time `json:"start_date" gorm:"not null;index"`
	EndDate   time.Time `json:"end_date" gorm:"not null;index"`

	// Participation rewards: users who reach the threshold get the flat coin reward
	ParticipationThreshold int64 `json:"participation_threshold" gorm:"default:0"` // min XP inside the window
	ParticipationReward    int64 `json:"participation_reward" gorm:"default:0"`    // coins

	Status  string     `json:"status" gorm:"type:varchar(16);default:'scheduled'"` // scheduled → active → ended
	EndedAt *time.Time `json:"ended_at,omitempty"`

	Timestamps

	// Calculated fields (not stored in DB)
	ParticipantsCount int64 `json:"participants_count,omitempty" gorm:"-"`
}

// IsOpen reports whether score submissions are accepted at the given instant.
func (c *Competition) IsOpen(now time.Time) bool {
	if c.Status == CompetitionStatusEnded {
		return false
	}
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

const (
	CompetitionStatusScheduled = "scheduled"
	CompetitionStatusActive    = "active"
	CompetitionStatusEnded     = "ended"
)

// CompetitionParticipant is a user's standing in one competition.
// Keyed by (competition_id, user_id); frozen once the competition ends.
type CompetitionParticipant struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	CompetitionID  string `gorm:"not null;index;uniqueIndex:idx_competition_user" json:"competition_id"`
	ExternalUserID string `gorm:"not null;index;uniqueIndex:idx_competition_user" json:"external_user_id"`

	TotalXP             int64 `json:"total_xp" gorm:"default:0"`
	ChallengesCompleted int64 `json:"challenges_completed" gorm:"default:0"`
	OptedIn             bool  `json:"opted_in" gorm:"default:false"`

	// Set by EndCompetition, never touched afterwards
	FinalRank  int   `json:"final_rank" gorm:"default:0"` // 0 = not ranked
	CoinsPaid  int64 `json:"coins_paid" gorm:"default:0"`
	RewardPaid bool  `json:"reward_paid" gorm:"default:false"`

	Timestamps
}
