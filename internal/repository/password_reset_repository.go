package repository

import (
	"time"

	"mooc_backend/internal/model"

	"gorm.io/gorm"
)

type PasswordResetRepository struct {
	DB *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{DB: db}
}

func (r *PasswordResetRepository) Create(reset *model.PasswordReset) error {
	return r.DB.Create(reset).Error
}

func (r *PasswordResetRepository) FindByKey(key string) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	err := r.DB.Preload("User").Where("`key` = ?", key).First(&reset).Error
	return &reset, err
}

func (r *PasswordResetRepository) MarkConfirmed(id uint) error {
	now := time.Now()
	return r.DB.Model(&model.PasswordReset{}).
		Where("id = ?", id).
		Update("confirmed_at", now).
		Error
}
