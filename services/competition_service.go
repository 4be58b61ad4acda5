package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"jungle-squad-academy/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCompetitionNotFound  = errors.New("competition not found")
	ErrCompetitionNotActive = errors.New("competition is not accepting scores")
	ErrCompetitionEnded     = errors.New("competition already ended")
)

// Fixed podium payouts, in coins
var rankRewards = map[int]int64{
	1: 100,
	2: 50,
	3: 25,
}

type CompetitionService struct {
	DB    *gorm.DB
	Coins *CoinService
}

func NewCompetitionService(db *gorm.DB, coins *CoinService) *CompetitionService {
	return &CompetitionService{DB: db, Coins: coins}
}

// CompetitionInput is the admin payload for creating a competition.
type CompetitionInput struct {
	Title                  string    `json:"title"`
	Description            string    `json:"description"`
	Theme                  string    `json:"theme"`
	StartDate              time.Time `json:"start_date"`
	EndDate                time.Time `json:"end_date"`
	ParticipationThreshold int64     `json:"participation_threshold"`
	ParticipationReward    int64     `json:"participation_reward"`
}

// CreateCompetition creates a scheduled competition. The slug is derived from
// the title; a duplicate slug surfaces as a gorm duplicate-key error.
func (s *CompetitionService) CreateCompetition(in CompetitionInput, bannerURL string, now time.Time) (*models.Competition, error) {
	if in.Title == "" {
		return nil, errors.New("title is required")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, errors.New("end_date must be after start_date")
	}

	status := models.CompetitionStatusScheduled
	if !in.StartDate.After(now) {
		status = models.CompetitionStatusActive
	}

	comp := models.Competition{
		ID:                     uuid.NewString(),
		Title:                  in.Title,
		Slug:                   slug.Make(in.Title),
		Description:            in.Description,
		Theme:                  in.Theme,
		BannerURL:              bannerURL,
		StartDate:              in.StartDate,
		EndDate:                in.EndDate,
		ParticipationThreshold: in.ParticipationThreshold,
		ParticipationReward:    in.ParticipationReward,
		Status:                 status,
	}
	if err := s.DB.Create(&comp).Error; err != nil {
		return nil, err
	}

	log.Printf("🏆 Competition created: %s (%s → %s)", comp.Title,
		comp.StartDate.Format(time.RFC3339), comp.EndDate.Format(time.RFC3339))
	return &comp, nil
}

// ListCompetitions returns competitions, optionally filtered by status,
// newest window first.
func (s *CompetitionService) ListCompetitions(status string) ([]models.Competition, error) {
	query := s.DB.Order("start_date DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var comps []models.Competition
	if err := query.Find(&comps).Error; err != nil {
		return nil, fmt.Errorf("fetch competitions: %w", err)
	}
	return comps, nil
}

// GetCompetition fetches one competition with its participant count.
func (s *CompetitionService) GetCompetition(competitionID string) (*models.Competition, error) {
	var comp models.Competition
	if err := s.DB.First(&comp, "id = ?", competitionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if err := s.DB.Model(&models.CompetitionParticipant{}).
		Where("competition_id = ?", competitionID).
		Count(&comp.ParticipantsCount).Error; err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	return &comp, nil
}

// OptIn marks a user as a participant before their first score lands.
func (s *CompetitionService) OptIn(externalUserID, competitionID string, now time.Time) (*models.CompetitionParticipant, error) {
	comp, err := s.GetCompetition(competitionID)
	if err != nil {
		return nil, err
	}
	if !comp.IsOpen(now) {
		return nil, ErrCompetitionNotActive
	}

	participant := models.CompetitionParticipant{
		ID:             uuid.NewString(),
		CompetitionID:  competitionID,
		ExternalUserID: externalUserID,
		OptedIn:        true,
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "competition_id"}, {Name: "external_user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"opted_in": true}),
	}).Create(&participant).Error
	if err != nil {
		return nil, err
	}

	var current models.CompetitionParticipant
	if err := s.DB.Where("competition_id = ? AND external_user_id = ?", competitionID, externalUserID).
		First(&current).Error; err != nil {
		return nil, err
	}
	return &current, nil
}

// SubmitScore merges an XP delta (and optionally one completed challenge) into
// the caller's standing. Rejected outside the competition window; the merge and
// the challenge counter land in a single upsert, so a retried request can never
// split them.
func (s *CompetitionService) SubmitScore(externalUserID, competitionID string, xpDelta int64, challengeID string, now time.Time) (*models.CompetitionParticipant, error) {
	if xpDelta < 0 {
		return nil, ErrInvalidXPAmount
	}

	comp, err := s.GetCompetition(competitionID)
	if err != nil {
		return nil, err
	}
	if !comp.IsOpen(now) {
		return nil, ErrCompetitionNotActive
	}

	challengeInc := int64(0)
	if challengeID != "" {
		challengeInc = 1
	}

	var current models.CompetitionParticipant
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		participant := models.CompetitionParticipant{
			ID:                  uuid.NewString(),
			CompetitionID:       competitionID,
			ExternalUserID:      externalUserID,
			TotalXP:             xpDelta,
			ChallengesCompleted: challengeInc,
			OptedIn:             true,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "competition_id"}, {Name: "external_user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_xp":             gorm.Expr("competition_participants.total_xp + ?", xpDelta),
				"challenges_completed": gorm.Expr("competition_participants.challenges_completed + ?", challengeInc),
				"opted_in":             true,
			}),
		}).Create(&participant).Error; err != nil {
			return err
		}

		return tx.Where("competition_id = ? AND external_user_id = ?", competitionID, externalUserID).
			First(&current).Error
	})
	if err != nil {
		return nil, err
	}
	return &current, nil
}

// GetLeaderboard returns participants ranked by XP (challenges as tiebreak).
// After EndCompetition the frozen final ranks are returned instead.
func (s *CompetitionService) GetLeaderboard(competitionID string, limit int) ([]models.CompetitionParticipant, error) {
	comp, err := s.GetCompetition(competitionID)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var participants []models.CompetitionParticipant
	query := s.DB.Where("competition_id = ?", competitionID)
	if comp.Status == models.CompetitionStatusEnded {
		query = query.Where("final_rank > 0").Order("final_rank ASC")
	} else {
		query = query.Order("total_xp DESC, challenges_completed DESC, created_at ASC")
	}
	if err := query.Limit(limit).Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	return participants, nil
}

// EndCompetition freezes the final leaderboard and pays podium and
// participation rewards. Admin-triggered; idempotent via the status check.
func (s *CompetitionService) EndCompetition(competitionID string, now time.Time) ([]models.CompetitionParticipant, error) {
	var ranked []models.CompetitionParticipant
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var comp models.Competition
		if err := tx.First(&comp, "id = ?", competitionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompetitionNotFound
			}
			return err
		}
		if comp.Status == models.CompetitionStatusEnded {
			return ErrCompetitionEnded
		}

		if err := tx.Where("competition_id = ?", competitionID).
			Order("total_xp DESC, challenges_completed DESC, created_at ASC").
			Find(&ranked).Error; err != nil {
			return err
		}

		for i := range ranked {
			p := &ranked[i]
			p.FinalRank = i + 1

			payout := rankRewards[p.FinalRank]
			if comp.ParticipationReward > 0 && p.TotalXP >= comp.ParticipationThreshold {
				payout += comp.ParticipationReward
			}
			if payout > 0 && !p.RewardPaid {
				desc := fmt.Sprintf("competition %q — rank %d", comp.Title, p.FinalRank)
				if _, err := s.Coins.creditTx(tx, p.ExternalUserID, payout, models.CoinTxReward, desc); err != nil {
					return err
				}
				p.CoinsPaid = payout
				p.RewardPaid = true
			}

			if err := tx.Model(&models.CompetitionParticipant{}).
				Where("id = ?", p.ID).
				Updates(map[string]interface{}{
					"final_rank":  p.FinalRank,
					"coins_paid":  p.CoinsPaid,
					"reward_paid": p.RewardPaid,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&comp).Updates(map[string]interface{}{
			"status":   models.CompetitionStatusEnded,
			"ended_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🏁 Competition %s ended: %d participants ranked", competitionID, len(ranked))
	return ranked, nil
}

// ActivateScheduled flips competitions whose window opened to active.
// Closing is date-driven (IsOpen) plus the explicit admin EndCompetition.
func (s *CompetitionService) ActivateScheduled(now time.Time) (int64, error) {
	result := s.DB.Model(&models.Competition{}).
		Where("status = ? AND start_date <= ? AND end_date >= ?", models.CompetitionStatusScheduled, now, now).
		Update("status", models.CompetitionStatusActive)
	return result.RowsAffected, result.Error
}
