package repositories

import (
	"context"
	"errors"

	"peerpay/internal/models"
	"peerpay/internal/repositories/cache"

	"gorm.io/gorm"
)

// TraderRepository is the store contract for trader profiles and their
// USDT balances. DebitBalance is the only balance-decreasing primitive in
// the system and is a conditional single-statement update.
type TraderRepository interface {
	Create(ctx context.Context, trader *models.Trader) error
	GetByID(ctx context.Context, id string) (*models.Trader, error)
	GetByUserID(ctx context.Context, userID string) (*models.Trader, error)
	List(ctx context.Context) ([]models.Trader, error)
	// AddBalance applies a signed delta and returns the new balance.
	AddBalance(ctx context.Context, id string, delta float64) (float64, error)
	// DebitBalance subtracts amount only while usdt_balance >= amount.
	DebitBalance(ctx context.Context, id string, amount float64) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	Count(ctx context.Context) (int64, error)
}

type traderRepository struct {
	db    *gorm.DB
	cache *cache.Service
}

func NewTraderRepository(database *Database) TraderRepository {
	return &traderRepository{db: database.DB, cache: database.Cache}
}

func (r *traderRepository) Create(ctx context.Context, trader *models.Trader) error {
	if err := r.db.WithContext(ctx).Create(trader).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrTraderExists
		}
		return err
	}
	return nil
}

func (r *traderRepository) GetByID(ctx context.Context, id string) (*models.Trader, error) {
	var trader models.Trader
	if err := r.db.WithContext(ctx).First(&trader, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTraderNotFound
		}
		return nil, err
	}
	return &trader, nil
}

func (r *traderRepository) GetByUserID(ctx context.Context, userID string) (*models.Trader, error) {
	var cached models.Trader
	if ok, _ := r.cache.Get(ctx, cache.Key("trader", "user", userID), &cached); ok {
		return &cached, nil
	}

	var trader models.Trader
	if err := r.db.WithContext(ctx).First(&trader, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTraderNotFound
		}
		return nil, err
	}
	_ = r.cache.Set(ctx, cache.Key("trader", "user", userID), &trader)
	return &trader, nil
}

func (r *traderRepository) List(ctx context.Context) ([]models.Trader, error) {
	var traders []models.Trader
	if err := r.db.WithContext(ctx).Order("created_at").Find(&traders).Error; err != nil {
		return nil, err
	}
	return traders, nil
}

func (r *traderRepository) AddBalance(ctx context.Context, id string, delta float64) (float64, error) {
	res := r.db.WithContext(ctx).Model(&models.Trader{}).
		Where("id = ?", id).
		UpdateColumn("usdt_balance", gorm.Expr("usdt_balance + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrTraderNotFound
	}

	trader, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx, trader)
	return trader.UsdtBalance, nil
}

func (r *traderRepository) DebitBalance(ctx context.Context, id string, amount float64) error {
	res := r.db.WithContext(ctx).Model(&models.Trader{}).
		Where("id = ? AND usdt_balance >= ?", id, amount).
		UpdateColumn("usdt_balance", gorm.Expr("usdt_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}

	if trader, err := r.GetByID(ctx, id); err == nil {
		r.invalidate(ctx, trader)
	}
	return nil
}

func (r *traderRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res := r.db.WithContext(ctx).Model(&models.Trader{}).
		Where("id = ?", id).
		Update("is_blocked", blocked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTraderNotFound
	}
	if trader, err := r.GetByID(ctx, id); err == nil {
		r.invalidate(ctx, trader)
	}
	return nil
}

func (r *traderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Trader{}).Count(&n).Error
	return n, err
}

func (r *traderRepository) invalidate(ctx context.Context, trader *models.Trader) {
	_ = r.cache.Delete(ctx, cache.Key("trader", "user", trader.UserID))
}
