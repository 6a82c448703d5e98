package repositories

import (
	"context"
	"errors"

	"peerpay/internal/models"
	"peerpay/internal/repositories/cache"

	"gorm.io/gorm"
)

const settingsCacheKey = "settings:global"

// SettingsRepository manages the single global settings record. When no
// row exists yet, Get falls back to the default commission rate without
// writing one; the row is materialized on first update.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, rate float64) (*models.Settings, error)
}

type settingsRepository struct {
	db    *gorm.DB
	cache *cache.Service
}

func NewSettingsRepository(database *Database) SettingsRepository {
	return &settingsRepository{db: database.DB, cache: database.Cache}
}

func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var cached models.Settings
	if ok, _ := r.cache.Get(ctx, settingsCacheKey, &cached); ok {
		return &cached, nil
	}

	var settings models.Settings
	if err := r.db.WithContext(ctx).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Settings{CommissionRate: models.DefaultCommissionRate}, nil
		}
		return nil, err
	}
	_ = r.cache.Set(ctx, settingsCacheKey, &settings)
	return &settings, nil
}

func (r *settingsRepository) Update(ctx context.Context, rate float64) (*models.Settings, error) {
	settings := models.Settings{ID: 1, CommissionRate: rate}
	if err := r.db.WithContext(ctx).Save(&settings).Error; err != nil {
		return nil, err
	}
	_ = r.cache.Delete(ctx, settingsCacheKey)
	return &settings, nil
}
