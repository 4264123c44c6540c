package repository

import (
	"errors"

	"poolvault/internal/domain"
	"poolvault/internal/models"

	"gorm.io/gorm"
)

var ErrWalletNotFound = errors.New("custodial wallet not found")

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// DepositWallets returns every per-user custodial wallet whose address the
// deposit scanner should watch.
func (r *WalletRepository) DepositWallets() ([]models.CustodialWallet, error) {
	var wallets []models.CustodialWallet
	err := r.db.Where("purpose = ?", domain.WalletPurposeUser).Find(&wallets).Error
	return wallets, err
}

func (r *WalletRepository) ByAddress(address string) (*models.CustodialWallet, error) {
	var w models.CustodialWallet
	err := r.db.Where("address = ?", address).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) ForUser(userID uint) (*models.CustodialWallet, error) {
	var w models.CustodialWallet
	err := r.db.Where("user_id = ? AND purpose = ?", userID, domain.WalletPurposeUser).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ByPurpose returns the shared wallet of the given purpose (HOT, TRADING,
// OPERATIONS). Exactly one wallet per purpose is expected.
func (r *WalletRepository) ByPurpose(purpose string) (*models.CustodialWallet, error) {
	var w models.CustodialWallet
	err := r.db.Where("purpose = ?", purpose).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
