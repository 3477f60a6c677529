package repository

import (
	"context"
	"errors"
	"time"

	"did-backend/internal/models"

	"gorm.io/gorm"
)

// SettingsRepository is the data access layer for runtime-mutable global
// configuration (sign checker, default resolver).
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, updatedBy string) error

	WithTx(tx *gorm.DB) SettingsRepository
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository instance
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) WithTx(tx *gorm.DB) SettingsRepository {
	if tx == nil {
		return r
	}
	return &settingsRepository{db: tx}
}

// Get returns the value for a key, or empty string when unset.
func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	var entry models.GlobalConfig
	err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return entry.ConfigValue, nil
}

// Set writes a key, creating it if needed.
func (r *settingsRepository) Set(ctx context.Context, key, value, updatedBy string) error {
	var entry models.GlobalConfig
	err := r.db.WithContext(ctx).Where("config_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = models.GlobalConfig{
			ConfigKey:   key,
			ConfigValue: value,
			UpdatedBy:   updatedBy,
		}
		return r.db.WithContext(ctx).Create(&entry).Error
	}
	if err != nil {
		return err
	}
	entry.ConfigValue = value
	entry.UpdatedBy = updatedBy
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(&entry).Error
}
