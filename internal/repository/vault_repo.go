package repository

import (
	"poolvault/internal/models"

	"gorm.io/gorm"
)

type VaultRepository struct {
	db *gorm.DB
}

func NewVaultRepository(db *gorm.DB) *VaultRepository {
	return &VaultRepository{db: db}
}

func (r *VaultRepository) GetByID(id uint) (*models.Vault, error) {
	var v models.Vault
	if err := r.db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VaultRepository) ListActive() ([]models.Vault, error) {
	var vaults []models.Vault
	err := r.db.Where("active = ?", true).Find(&vaults).Error
	return vaults, err
}
