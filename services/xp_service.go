package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"jungle-squad-academy/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidXPAmount = errors.New("xp amount must be positive")

// XPPerLevel: flat leveling curve, every level costs 100 XP
const XPPerLevel = 100

// LevelForXP returns the level implied by a lifetime XP total.
// total=0 → level 1; each full 100 XP is one level.
func LevelForXP(total int64) int {
	return int(total/XPPerLevel) + 1
}

// LevelProgress returns the fraction [0,1) of the way to the next level.
func LevelProgress(total int64) float64 {
	return float64(total%XPPerLevel) / float64(XPPerLevel)
}

type XPService struct {
	DB *gorm.DB
}

func NewXPService(db *gorm.DB) *XPService {
	return &XPService{DB: db}
}

// EnsureRecord ensures a UserXP row exists (idempotent)
func (s *XPService) EnsureRecord(externalUserID string) (*models.UserXP, error) {
	var prog models.UserXP
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prog = models.UserXP{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
		}
		if err := s.DB.Create(&prog).Error; err != nil {
			return nil, err
		}
		return &prog, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// AwardXP applies the user's multiplier to a base amount, appends the audit
// transaction and updates the balance, all in one DB transaction.
func (s *XPService) AwardXP(externalUserID string, base int64, source string) (*models.UserXP, *models.XPTransaction, error) {
	var prog *models.UserXP
	var xpTx *models.XPTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		prog, xpTx, err = s.awardXPTx(tx, externalUserID, base, source, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return prog, xpTx, nil
}

// awardXPTx is the transactional core, shared with the reward dispatcher so a
// multi-effect grant (XP + coins) commits or fails as one unit.
func (s *XPService) awardXPTx(tx *gorm.DB, externalUserID string, base int64, source string, now time.Time) (*models.UserXP, *models.XPTransaction, error) {
	if base <= 0 {
		return nil, nil, ErrInvalidXPAmount
	}

	var prog models.UserXP
	err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prog = models.UserXP{ID: uuid.NewString(), ExternalUserID: externalUserID}
		if err := tx.Create(&prog).Error; err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, err
	}

	// Active subscription tier, if mirrored. Missing or inactive → base multiplier.
	tierName := ""
	var sub models.SubscriptionMirror
	if err := tx.Where("external_user_id = ? AND is_active = true", externalUserID).
		First(&sub).Error; err == nil {
		tierName = sub.TierName
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	s.advanceStreak(&prog, now)

	streakBonus := StreakBonus(prog.StreakDays)
	multiplier := ResolveMultiplier(tierName, prog.StreakDays)
	final := int64(math.Round(float64(base) * multiplier))

	prog.TotalXP += final
	prog.TodayXP += final
	prog.LastActivityAt = &now

	if err := tx.Save(&prog).Error; err != nil {
		return nil, nil, err
	}

	xpTx := &models.XPTransaction{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		BaseAmount:     base,
		Multiplier:     multiplier,
		StreakBonus:    streakBonus,
		FinalAmount:    final,
		Source:         source,
	}
	if err := tx.Create(xpTx).Error; err != nil {
		return nil, nil, err
	}

	log.Printf("🌟 XP awarded: %s +%d (base=%d ×%.2f, source=%s) → total=%d lvl=%d",
		externalUserID, final, base, multiplier, source, prog.TotalXP, LevelForXP(prog.TotalXP))

	return &prog, xpTx, nil
}

// advanceStreak updates streak state for an action at `now`. Same calendar day
// leaves the streak untouched; the next day extends it; a gap restarts at 1.
// TodayXP rolls over to 0 whenever the calendar day changed.
func (s *XPService) advanceStreak(prog *models.UserXP, now time.Time) {
	today := startOfDay(now)
	if prog.LastActivityAt == nil {
		prog.StreakDays = 1
	} else {
		last := startOfDay(prog.LastActivityAt.UTC())
		switch {
		case last.Equal(today):
			// second action today, nothing to advance
		case today.Sub(last) == 24*time.Hour:
			prog.StreakDays++
			prog.TodayXP = 0
		default:
			prog.StreakDays = 1
			prog.TodayXP = 0
		}
	}
	// The streak survives until the end of tomorrow; a full skipped day breaks it.
	resetAt := today.Add(48 * time.Hour)
	prog.StreakResetAt = &resetAt
}

// StreakTimeRemaining reports how long the user has before inactivity breaks
// the streak. Zero when no streak is running or the deadline already passed.
func StreakTimeRemaining(prog *models.UserXP, now time.Time) time.Duration {
	if prog.StreakDays == 0 || prog.StreakResetAt == nil {
		return 0
	}
	d := prog.StreakResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// ExpireStaleStreaks zeroes every streak whose reset point has passed.
// Runs from the daily scheduler job.
func (s *XPService) ExpireStaleStreaks(now time.Time) (int64, error) {
	result := s.DB.Model(&models.UserXP{}).
		Where("streak_days > 0 AND streak_reset_at IS NOT NULL AND streak_reset_at <= ?", now).
		Updates(map[string]interface{}{"streak_days": 0, "today_xp": 0})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetHistory returns the most recent XP transactions for a user.
func (s *XPService) GetHistory(externalUserID string, limit int) ([]models.XPTransaction, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var txs []models.XPTransaction
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("fetch xp history: %w", err)
	}
	return txs, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
