package repositories

import (
	"context"
	"errors"
	"time"

	"peerpay/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository is the store contract for exchange transactions.
// UpdateStatus is the single state-transition primitive: the expected
// current status is part of the WHERE clause, so a transaction can never
// move backward or double-apply a transition.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByIDForUser(ctx context.Context, id, userID string) (*models.Transaction, error)
	GetByIDForTrader(ctx context.Context, id, traderID string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	ListByTrader(ctx context.Context, traderID string) ([]models.Transaction, error)
	List(ctx context.Context) ([]models.Transaction, error)
	// UpdateStatus moves id from one status to another, applying extra
	// column updates (timestamps) in the same statement.
	UpdateStatus(ctx context.Context, id string, from, to models.TransactionStatus, extra map[string]interface{}) error
	// ListExpiredPending returns pending transactions whose expiry has
	// passed, oldest first.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Transaction, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.TransactionStatus) (int64, error)
	CountByUser(ctx context.Context, userID string, statuses ...models.TransactionStatus) (int64, error)
	CountByTrader(ctx context.Context, traderID string, statuses ...models.TransactionStatus) (int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(database *Database) TransactionRepository {
	return &transactionRepository{db: database.DB}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *transactionRepository) GetByIDForUser(ctx context.Context, id, userID string) (*models.Transaction, error) {
	return r.getScoped(ctx, "id = ? AND user_id = ?", id, userID)
}

func (r *transactionRepository) GetByIDForTrader(ctx context.Context, id, traderID string) (*models.Transaction, error) {
	return r.getScoped(ctx, "id = ? AND trader_id = ?", id, traderID)
}

func (r *transactionRepository) getScoped(ctx context.Context, query string, args ...interface{}) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, append([]interface{}{query}, args...)...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	return r.list(ctx, "user_id = ?", userID)
}

func (r *transactionRepository) ListByTrader(ctx context.Context, traderID string) ([]models.Transaction, error) {
	return r.list(ctx, "trader_id = ?", traderID)
}

func (r *transactionRepository) List(ctx context.Context) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id string, from, to models.TransactionStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *transactionRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.TransactionPending, now).
		Order("expires_at").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).Count(&n).Error
	return n, err
}

func (r *transactionRepository) CountByStatus(ctx context.Context, status models.TransactionStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *transactionRepository) CountByUser(ctx context.Context, userID string, statuses ...models.TransactionStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND status IN ?", userID, statuses).Count(&n).Error
	return n, err
}

func (r *transactionRepository) CountByTrader(ctx context.Context, traderID string, statuses ...models.TransactionStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("trader_id = ? AND status IN ?", traderID, statuses).Count(&n).Error
	return n, err
}
