package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"jungle-squad-academy/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInsufficientBalance = errors.New("insufficient coin balance")
	ErrWalletNotFound      = errors.New("coin wallet not found")
	ErrInvalidCoinAmount   = errors.New("coin amount must be positive")
	ErrFreeCoinClaimed     = errors.New("free coin already claimed today")
)

const (
	// InitialCoinGrant is credited once when a wallet is first created
	InitialCoinGrant = 5
	// FreeCoinAmount is the bounded daily free coin
	FreeCoinAmount = 1
)

type CoinService struct {
	DB *gorm.DB
}

func NewCoinService(db *gorm.DB) *CoinService {
	return &CoinService{DB: db}
}

// EnsureWallet creates the user's wallet with the signup grant (idempotent).
func (s *CoinService) EnsureWallet(externalUserID string) (*models.UserCoins, error) {
	var wallet models.UserCoins
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		wallet = models.UserCoins{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Balance:        InitialCoinGrant,
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}
		return tx.Create(&models.CoinTransaction{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Amount:         InitialCoinGrant,
			Type:           models.CoinTxEarn,
			Description:    "welcome grant",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetBalance returns the current balance, creating the wallet if needed.
func (s *CoinService) GetBalance(externalUserID string) (int64, error) {
	wallet, err := s.EnsureWallet(externalUserID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// Spend debits the wallet with a single conditional decrement: the UPDATE only
// matches when the balance covers the amount, so two concurrent spends can
// never drive the balance negative.
func (s *CoinService) Spend(externalUserID string, amount int64, description string) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidCoinAmount
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.UserCoins{}).
			Where("external_user_id = ? AND balance >= ?", externalUserID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// not found or not enough, tell the caller which
			var count int64
			if err := tx.Model(&models.UserCoins{}).
				Where("external_user_id = ?", externalUserID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrWalletNotFound
			}
			return ErrInsufficientBalance
		}

		if err := tx.Create(&models.CoinTransaction{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Amount:         -amount,
			Type:           models.CoinTxSpend,
			Description:    description,
		}).Error; err != nil {
			return err
		}

		var wallet models.UserCoins
		if err := tx.Where("external_user_id = ?", externalUserID).First(&wallet).Error; err != nil {
			return err
		}
		newBalance = wallet.Balance
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("🪙 Coins spent: %s -%d (%s) → balance=%d", externalUserID, amount, description, newBalance)
	return newBalance, nil
}

// Credit adds coins to the wallet and records the ledger entry.
func (s *CoinService) Credit(externalUserID string, amount int64, txType models.CoinTransactionType, description string) (newBalance int64, err error) {
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		newBalance, err = s.creditTx(tx, externalUserID, amount, txType, description)
		return err
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// creditTx is the transactional core, shared with the reward dispatcher.
func (s *CoinService) creditTx(tx *gorm.DB, externalUserID string, amount int64, txType models.CoinTransactionType, description string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidCoinAmount
	}

	result := tx.Model(&models.UserCoins{}).
		Where("external_user_id = ?", externalUserID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		// first credit for a user who never opened the wallet screen
		wallet := models.UserCoins{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Balance:        InitialCoinGrant + amount,
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return 0, err
		}
		if err := tx.Create(&models.CoinTransaction{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Amount:         InitialCoinGrant,
			Type:           models.CoinTxEarn,
			Description:    "welcome grant",
		}).Error; err != nil {
			return 0, err
		}
	}

	if err := tx.Create(&models.CoinTransaction{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Amount:         amount,
		Type:           txType,
		Description:    description,
	}).Error; err != nil {
		return 0, err
	}

	var wallet models.UserCoins
	if err := tx.Where("external_user_id = ?", externalUserID).First(&wallet).Error; err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// EarnFreeCoin grants the bounded daily free coin. The grant key carries the
// calendar date, so a second claim on the same day is rejected.
func (s *CoinService) EarnFreeCoin(externalUserID string, now time.Time) (newBalance int64, err error) {
	grantKey := fmt.Sprintf("free_coin:%s:%s", externalUserID, now.UTC().Format("2006-01-02"))

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RewardGrant{}).
			Where("grant_key = ?", grantKey).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrFreeCoinClaimed
		}

		if err := tx.Create(&models.RewardGrant{
			ID:             uuid.NewString(),
			GrantKey:       grantKey,
			ExternalUserID: externalUserID,
			Source:         "free_coin",
			CoinsAwarded:   FreeCoinAmount,
		}).Error; err != nil {
			return err
		}

		newBalance, err = s.creditTx(tx, externalUserID, FreeCoinAmount, models.CoinTxEarn, "daily free coin")
		return err
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// GetHistory returns the most recent coin transactions for a user.
func (s *CoinService) GetHistory(externalUserID string, limit int) ([]models.CoinTransaction, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var txs []models.CoinTransaction
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("fetch coin history: %w", err)
	}
	return txs, nil
}
