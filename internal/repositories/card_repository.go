package repositories

import (
	"context"
	"errors"

	"peerpay/internal/models"

	"gorm.io/gorm"
)

// CardRepository is the store contract for bank cards. ReserveUsage and
// ReleaseUsage are conditional updates; the reserve guard keeps
// 0 <= current_usage <= limit even when allocations race.
type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, id string) (*models.Card, error)
	// GetByIDForTrader scopes the lookup to the owning trader so a foreign
	// card id reads as a miss.
	GetByIDForTrader(ctx context.Context, id, traderID string) (*models.Card, error)
	ListByTrader(ctx context.Context, traderID string) ([]models.Card, error)
	// ListActiveByCurrency returns active cards in insertion order; the
	// allocator scans it first-fit.
	ListActiveByCurrency(ctx context.Context, currency string) ([]models.Card, error)
	Update(ctx context.Context, id, traderID string, patch models.CardUpdate) (*models.Card, error)
	Delete(ctx context.Context, id, traderID string) error
	// ReserveUsage adds amount to current_usage only while it fits the limit.
	ReserveUsage(ctx context.Context, id string, amount float64) error
	// ReleaseUsage gives reserved capacity back; guarded so usage never
	// goes below zero. Only the expiry sweep calls this.
	ReleaseUsage(ctx context.Context, id string, amount float64) error
	CountByTrader(ctx context.Context, traderID string) (int64, error)
}

type cardRepository struct {
	db *gorm.DB
}

func NewCardRepository(database *Database) CardRepository {
	return &cardRepository{db: database.DB}
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *cardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	var card models.Card
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) GetByIDForTrader(ctx context.Context, id, traderID string) (*models.Card, error) {
	var card models.Card
	err := r.db.WithContext(ctx).
		First(&card, "id = ? AND trader_id = ?", id, traderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

func (r *cardRepository) ListByTrader(ctx context.Context, traderID string) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.WithContext(ctx).
		Where("trader_id = ?", traderID).
		Order("created_at").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *cardRepository) ListActiveByCurrency(ctx context.Context, currency string) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.WithContext(ctx).
		Where("status = ? AND currency = ?", models.CardStatusActive, currency).
		Order("created_at, id").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *cardRepository) Update(ctx context.Context, id, traderID string, patch models.CardUpdate) (*models.Card, error) {
	updates := map[string]interface{}{}
	if patch.Limit != nil {
		updates["limit"] = *patch.Limit
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Card{}).
			Where("id = ? AND trader_id = ?", id, traderID).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrCardNotFound
		}
	}
	return r.GetByIDForTrader(ctx, id, traderID)
}

func (r *cardRepository) Delete(ctx context.Context, id, traderID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND trader_id = ?", id, traderID).
		Delete(&models.Card{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) ReserveUsage(ctx context.Context, id string, amount float64) error {
	res := r.db.WithContext(ctx).Model(&models.Card{}).
		Where(`id = ? AND status = ? AND current_usage + ? <= "limit"`,
			id, models.CardStatusActive, amount).
		UpdateColumn("current_usage", gorm.Expr("current_usage + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCardCapacity
	}
	return nil
}

func (r *cardRepository) ReleaseUsage(ctx context.Context, id string, amount float64) error {
	res := r.db.WithContext(ctx).Model(&models.Card{}).
		Where("id = ? AND current_usage >= ?", id, amount).
		UpdateColumn("current_usage", gorm.Expr("current_usage - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) CountByTrader(ctx context.Context, traderID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Card{}).
		Where("trader_id = ?", traderID).Count(&n).Error
	return n, err
}
