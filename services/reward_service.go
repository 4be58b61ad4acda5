package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jungle-squad-academy/models"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var (
	ErrQuoteNotFound       = errors.New("quote not found")
	ErrQuoteAlreadyJudged  = errors.New("quote already approved or rejected")
	ErrQuoteTextLength     = errors.New("quote text must be between 10 and 280 characters")
	ErrSelfVote            = errors.New("cannot vote for your own quote")
	ErrAlreadyVoted        = errors.New("already voted for this quote")
	ErrDailyVoteLimit      = errors.New("already voted for this theme today")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrAlreadyUnlocked     = errors.New("achievement already unlocked")
)

// Reward amounts per qualifying event
const (
	QuoteApprovalCoins = 10
	FeaturedQuoteCoins = 50
	QuoteShareXP       = 10
	QuoteShareCoins    = 5
	QuoteVoteXP        = 5

	// A repeat share of the same (user, quote, platform) triple inside this
	// window is recorded but pays nothing.
	ShareRewardWindow = 7 * 24 * time.Hour
)

var platformCaser = cases.Title(language.English)

// RewardService dispatches XP and coin rewards for qualifying events. Every
// path goes through the shared RewardGrant ledger, so "has this grant already
// been issued" is answered the same way everywhere, and XP + coins for one
// event commit in one transaction.
type RewardService struct {
	DB    *gorm.DB
	XP    *XPService
	Coins *CoinService
}

func NewRewardService(db *gorm.DB, xp *XPService, coins *CoinService) *RewardService {
	return &RewardService{DB: db, XP: xp, Coins: coins}
}

// issueGrant records a grant under key unless one already exists inside the
// dedup window (window 0 = forever). Returns false when the grant was already
// issued.
func (s *RewardService) issueGrant(tx *gorm.DB, key, externalUserID, source string, xp, coins int64, window time.Duration, now time.Time) (bool, error) {
	query := tx.Model(&models.RewardGrant{}).Where("grant_key = ?", key)
	if window > 0 {
		query = query.Where("created_at > ?", now.Add(-window))
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	return true, tx.Create(&models.RewardGrant{
		ID:             uuid.NewString(),
		GrantKey:       key,
		ExternalUserID: externalUserID,
		Source:         source,
		XPAwarded:      xp,
		CoinsAwarded:   coins,
		CreatedAt:      now,
	}).Error
}

// SubmitQuote creates a pending quote for the current wall theme.
func (s *RewardService) SubmitQuote(externalUserID, theme, text string) (*models.QuoteEntry, error) {
	text = strings.TrimSpace(text)
	if len(text) < 10 || len(text) > 280 {
		return nil, ErrQuoteTextLength
	}
	quote := models.QuoteEntry{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Theme:          theme,
		Text:           text,
		Status:         models.QuoteStatusPending,
	}
	if err := s.DB.Create(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// ApproveQuote marks a pending quote approved and pays the owner's coin
// reward (larger when featured). The status flip, grant row and coin credit
// commit together.
func (s *RewardService) ApproveQuote(quoteID string, featured bool, now time.Time) (*models.QuoteEntry, error) {
	var quote models.QuoteEntry
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&quote, "id = ?", quoteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuoteNotFound
			}
			return err
		}
		if quote.Status != models.QuoteStatusPending {
			return ErrQuoteAlreadyJudged
		}

		coins := int64(QuoteApprovalCoins)
		if featured {
			coins = FeaturedQuoteCoins
		}

		issued, err := s.issueGrant(tx, "quote_approval:"+quoteID, quote.ExternalUserID,
			"quote_approval", 0, coins, 0, now)
		if err != nil {
			return err
		}
		if issued {
			desc := "quote approved"
			if featured {
				desc = "featured quote approved"
			}
			if _, err := s.Coins.creditTx(tx, quote.ExternalUserID, coins, models.CoinTxReward, desc); err != nil {
				return err
			}
		}

		quote.Status = models.QuoteStatusApproved
		quote.Featured = featured
		quote.ApprovedAt = &now
		return tx.Save(&quote).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📜 Quote approved: %s (featured=%t, owner=%s)", quoteID, featured, quote.ExternalUserID)
	return &quote, nil
}

// RejectQuote marks a pending quote rejected. No rewards move.
func (s *RewardService) RejectQuote(quoteID string) (*models.QuoteEntry, error) {
	var quote models.QuoteEntry
	if err := s.DB.First(&quote, "id = ?", quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	if quote.Status != models.QuoteStatusPending {
		return nil, ErrQuoteAlreadyJudged
	}
	quote.Status = models.QuoteStatusRejected
	if err := s.DB.Save(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// ShareQuote records a share and, for the first share of the (user, quote,
// platform) triple in seven days, pays 10 XP + 5 coins. Repeat shares inside
// the window are still recorded, they just earn nothing.
func (s *RewardService) ShareQuote(externalUserID, quoteID, platform string, now time.Time) (share *models.QuoteShare, rewarded bool, err error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return nil, false, errors.New("platform is required")
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var quote models.QuoteEntry
		if err := tx.First(&quote, "id = ?", quoteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuoteNotFound
			}
			return err
		}

		grantKey := fmt.Sprintf("quote_share:%s:%s:%s", externalUserID, quoteID, platform)
		rewarded, err = s.issueGrant(tx, grantKey, externalUserID, "quote_share",
			QuoteShareXP, QuoteShareCoins, ShareRewardWindow, now)
		if err != nil {
			return err
		}

		share = &models.QuoteShare{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			QuoteID:        quoteID,
			Platform:       platform,
			Rewarded:       rewarded,
			CreatedAt:      now,
		}
		if err := tx.Create(share).Error; err != nil {
			return err
		}

		if !rewarded {
			return nil
		}
		desc := fmt.Sprintf("shared a quote on %s", platformCaser.String(platform))
		if _, _, err := s.XP.awardXPTx(tx, externalUserID, QuoteShareXP, "quote_share", now); err != nil {
			return err
		}
		_, err = s.Coins.creditTx(tx, externalUserID, QuoteShareCoins, models.CoinTxReward, desc)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return share, rewarded, nil
}

// VoteQuote casts a vote for another user's quote and pays the voter 5 XP.
// One vote per (user, entry) ever, one vote per (user, theme) per calendar
// day, never for the user's own entry.
func (s *RewardService) VoteQuote(externalUserID, quoteID string, now time.Time) (*models.QuoteVote, error) {
	var vote *models.QuoteVote
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var quote models.QuoteEntry
		if err := tx.First(&quote, "id = ?", quoteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuoteNotFound
			}
			return err
		}
		if quote.ExternalUserID == externalUserID {
			return ErrSelfVote
		}

		var count int64
		if err := tx.Model(&models.QuoteVote{}).
			Where("external_user_id = ? AND quote_id = ?", externalUserID, quoteID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyVoted
		}

		dayStart := startOfDay(now)
		if err := tx.Model(&models.QuoteVote{}).
			Where("external_user_id = ? AND theme = ? AND created_at >= ?", externalUserID, quote.Theme, dayStart).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDailyVoteLimit
		}

		vote = &models.QuoteVote{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			QuoteID:        quoteID,
			Theme:          quote.Theme,
			CreatedAt:      now,
		}
		if err := tx.Create(vote).Error; err != nil {
			return err
		}
		if err := tx.Model(&quote).Update("vote_count", gorm.Expr("vote_count + 1")).Error; err != nil {
			return err
		}

		grantKey := fmt.Sprintf("quote_vote:%s:%s", externalUserID, quoteID)
		issued, err := s.issueGrant(tx, grantKey, externalUserID, "quote_vote", QuoteVoteXP, 0, 0, now)
		if err != nil {
			return err
		}
		if !issued {
			return nil
		}
		_, _, err = s.XP.awardXPTx(tx, externalUserID, QuoteVoteXP, "quote_vote", now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vote, nil
}

// UnlockAchievement unlocks an easter-egg achievement once per user and pays
// its XP reward.
func (s *RewardService) UnlockAchievement(externalUserID, code string, now time.Time) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := s.DB.First(&achievement, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAchievementNotFound
		}
		return nil, err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		grantKey := fmt.Sprintf("achievement:%s:%s", externalUserID, achievement.ID)
		issued, err := s.issueGrant(tx, grantKey, externalUserID, "achievement",
			achievement.XPReward, 0, 0, now)
		if err != nil {
			return err
		}
		if !issued {
			return ErrAlreadyUnlocked
		}

		if err := tx.Create(&models.UserAchievement{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			AchievementID:  achievement.ID,
		}).Error; err != nil {
			return err
		}

		_, _, err = s.XP.awardXPTx(tx, externalUserID, achievement.XPReward, "achievement", now)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎖️ Achievement unlocked: %s → %s", achievement.Code, externalUserID)
	return &achievement, nil
}

// ListAchievements returns the catalog plus which entries the user unlocked.
func (s *RewardService) ListAchievements(externalUserID string) ([]models.Achievement, map[string]bool, error) {
	var catalog []models.Achievement
	if err := s.DB.Order("code ASC").Find(&catalog).Error; err != nil {
		return nil, nil, err
	}
	var unlocked []models.UserAchievement
	if err := s.DB.Where("external_user_id = ?", externalUserID).Find(&unlocked).Error; err != nil {
		return nil, nil, err
	}
	owned := make(map[string]bool, len(unlocked))
	for _, ua := range unlocked {
		owned[ua.AchievementID] = true
	}
	return catalog, owned, nil
}

// SeedAchievements inserts the static catalog rows that are missing.
func SeedAchievements(db *gorm.DB) error {
	for _, a := range models.AchievementCatalog {
		var count int64
		if err := db.Model(&models.Achievement{}).Where("code = ?", a.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		a.ID = uuid.NewString()
		if a.XPReward == 0 {
			a.XPReward = 25
		}
		if err := db.Create(&a).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetQuoteWall returns approved quotes for a theme, newest first.
func (s *RewardService) GetQuoteWall(theme string, limit int) ([]models.QuoteEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	query := s.DB.Where("status = ?", models.QuoteStatusApproved)
	if theme != "" {
		query = query.Where("theme = ?", theme)
	}
	var quotes []models.QuoteEntry
	if err := query.Order("created_at DESC").Limit(limit).Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("fetch quote wall: %w", err)
	}
	return quotes, nil
}
