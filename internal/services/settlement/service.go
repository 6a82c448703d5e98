// Package settlement computes commission and debits a trader's USDT
// balance when a confirmed transaction completes. The on-chain transfer is
// emulated: the balance debit is the whole financial effect.
package settlement

import (
	"context"
	"errors"

	"peerpay/internal/logger"
	"peerpay/internal/models"
	"peerpay/internal/repositories"

	"go.uber.org/zap"
)

var ErrInsufficientBalance = errors.New("insufficient USDT balance")

// Result reports what the settlement released and retained.
// Commission + UsdtSent always equals the transaction amount.
type Result struct {
	UsdtSent   float64 `json:"usdt_sent"`
	Commission float64 `json:"commission"`
}

// Service settles a user-confirmed transaction against its trader.
type Service interface {
	Settle(ctx context.Context, txn *models.Transaction) (*Result, error)
}

type service struct {
	traders  repositories.TraderRepository
	settings repositories.SettingsRepository
}

func New(traders repositories.TraderRepository, settings repositories.SettingsRepository) Service {
	return &service{traders: traders, settings: settings}
}

// Settle reads the global commission rate, computes the USDT to release
// and debits the trader in one conditional update. On insufficient balance
// nothing is mutated. The rate itself is not validated here; bounds are an
// admin-boundary concern.
func (s *service) Settle(ctx context.Context, txn *models.Transaction) (*Result, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	commission := txn.Amount * settings.CommissionRate / 100
	usdtToSend := txn.Amount - commission

	if err := s.traders.DebitBalance(ctx, txn.TraderID, usdtToSend); err != nil {
		if errors.Is(err, repositories.ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}

	logger.Log.Info("transaction settled",
		zap.String("transaction_id", txn.ID),
		zap.String("trader_id", txn.TraderID),
		zap.Float64("usdt_sent", usdtToSend),
		zap.Float64("commission", commission))

	return &Result{UsdtSent: usdtToSend, Commission: commission}, nil
}
