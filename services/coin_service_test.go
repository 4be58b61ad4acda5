package services

import (
	"errors"
	"testing"
	"time"

	"jungle-squad-academy/models"
)

func TestEnsureWallet_SignupGrant(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	wallet, err := svc.EnsureWallet("user-1")
	if err != nil {
		t.Fatalf("EnsureWallet() error: %v", err)
	}
	if wallet.Balance != InitialCoinGrant {
		t.Errorf("Balance = %d, want %d", wallet.Balance, InitialCoinGrant)
	}

	// idempotent: second call neither re-grants nor duplicates the row
	again, err := svc.EnsureWallet("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Balance != InitialCoinGrant {
		t.Errorf("Balance after second call = %d, want %d", again.Balance, InitialCoinGrant)
	}
	var txCount int64
	db.Model(&models.CoinTransaction{}).Where("external_user_id = ?", "user-1").Count(&txCount)
	if txCount != 1 {
		t.Errorf("transaction count = %d, want 1", txCount)
	}
}

func TestSpend(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	if _, err := svc.EnsureWallet("user-1"); err != nil {
		t.Fatal(err)
	}
	newBalance, err := svc.Spend("user-1", 3, "avatar hat")
	if err != nil {
		t.Fatalf("Spend() error: %v", err)
	}
	if newBalance != 2 {
		t.Errorf("balance = %d, want 2", newBalance)
	}

	var spendTx models.CoinTransaction
	if err := db.Where("external_user_id = ? AND type = ?", "user-1", models.CoinTxSpend).
		First(&spendTx).Error; err != nil {
		t.Fatalf("spend transaction missing: %v", err)
	}
	if spendTx.Amount != -3 {
		t.Errorf("spend amount = %d, want -3", spendTx.Amount)
	}
}

func TestSpend_InsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	if _, err := svc.EnsureWallet("user-1"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Spend("user-1", InitialCoinGrant+1, "too expensive")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Spend() error = %v, want ErrInsufficientBalance", err)
	}

	// balance untouched, no ledger entry
	balance, _ := svc.GetBalance("user-1")
	if balance != InitialCoinGrant {
		t.Errorf("balance = %d, want %d", balance, InitialCoinGrant)
	}
	var spendCount int64
	db.Model(&models.CoinTransaction{}).
		Where("external_user_id = ? AND type = ?", "user-1", models.CoinTxSpend).
		Count(&spendCount)
	if spendCount != 0 {
		t.Errorf("spend transaction count = %d, want 0", spendCount)
	}
}

func TestSpend_WalletNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	if _, err := svc.Spend("ghost", 1, "x"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Spend() error = %v, want ErrWalletNotFound", err)
	}
}

func TestSpend_RejectsNonPositive(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	for _, amount := range []int64{0, -2} {
		if _, err := svc.Spend("user-1", amount, "x"); !errors.Is(err, ErrInvalidCoinAmount) {
			t.Errorf("Spend(%d) error = %v, want ErrInvalidCoinAmount", amount, err)
		}
	}
}

func TestCredit_AutoCreatesWallet(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	// crediting a user who never opened the wallet includes the signup grant
	newBalance, err := svc.Credit("user-1", 10, models.CoinTxReward, "quote approved")
	if err != nil {
		t.Fatalf("Credit() error: %v", err)
	}
	if newBalance != InitialCoinGrant+10 {
		t.Errorf("balance = %d, want %d", newBalance, InitialCoinGrant+10)
	}
}

func TestEarnFreeCoin_DailyDedup(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	newBalance, err := svc.EarnFreeCoin("user-1", now)
	if err != nil {
		t.Fatalf("EarnFreeCoin() error: %v", err)
	}
	if newBalance != InitialCoinGrant+FreeCoinAmount {
		t.Errorf("balance = %d, want %d", newBalance, InitialCoinGrant+FreeCoinAmount)
	}

	// same calendar day, even hours later
	if _, err := svc.EarnFreeCoin("user-1", now.Add(10*time.Hour)); !errors.Is(err, ErrFreeCoinClaimed) {
		t.Fatalf("second claim error = %v, want ErrFreeCoinClaimed", err)
	}

	// next day is a fresh grant
	newBalance, err = svc.EarnFreeCoin("user-1", now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("next-day claim error: %v", err)
	}
	if newBalance != InitialCoinGrant+2*FreeCoinAmount {
		t.Errorf("balance = %d, want %d", newBalance, InitialCoinGrant+2*FreeCoinAmount)
	}
}

func TestCoinLedgerParity(t *testing.T) {
	db := newTestDB(t)
	svc := NewCoinService(db)

	if _, err := svc.EnsureWallet("user-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Credit("user-1", 10, models.CoinTxReward, "reward"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Spend("user-1", 4, "hat"); err != nil {
		t.Fatal(err)
	}

	var sum int64
	db.Model(&models.CoinTransaction{}).
		Where("external_user_id = ?", "user-1").
		Select("COALESCE(SUM(amount), 0)").Scan(&sum)
	balance, _ := svc.GetBalance("user-1")
	if sum != balance {
		t.Errorf("ledger sum = %d, balance = %d; want equal", sum, balance)
	}
}
