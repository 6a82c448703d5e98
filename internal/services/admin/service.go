// Package admin covers platform administration: trader oversight, balance
// top-ups, block toggles and the global commission settings.
package admin

import (
	"context"
	"errors"

	"peerpay/internal/logger"
	"peerpay/internal/models"
	"peerpay/internal/repositories"

	"go.uber.org/zap"
)

var (
	ErrTraderNotFound = errors.New("trader not found")
	// ErrInvalidRate guards the admin boundary; the settlement engine
	// itself applies whatever rate is stored.
	ErrInvalidRate = errors.New("commission rate must be between 0 and 100")
)

type Service interface {
	ListTraders(ctx context.Context) ([]models.Trader, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// AddBalance applies a signed USDT delta to a trader's balance. The
	// delta is not validated; a negative top-up is an admin's call.
	AddBalance(ctx context.Context, traderID string, delta float64) (float64, error)
	// ToggleBlock flips the trader's blocked flag and returns the new value.
	ToggleBlock(ctx context.Context, traderID string) (bool, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	Settings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, rate float64) (*models.Settings, error)
}

type service struct {
	users    repositories.UserRepository
	traders  repositories.TraderRepository
	txns     repositories.TransactionRepository
	settings repositories.SettingsRepository
}

func New(
	users repositories.UserRepository,
	traders repositories.TraderRepository,
	txns repositories.TransactionRepository,
	settings repositories.SettingsRepository,
) Service {
	return &service{users: users, traders: traders, txns: txns, settings: settings}
}

// ListTraders enriches each profile with the owning user's email.
func (s *service) ListTraders(ctx context.Context) ([]models.Trader, error) {
	traders, err := s.traders.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range traders {
		if user, err := s.users.GetByID(ctx, traders[i].UserID); err == nil {
			traders[i].Email = user.Email
		}
	}
	return traders, nil
}

func (s *service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *service) AddBalance(ctx context.Context, traderID string, delta float64) (float64, error) {
	balance, err := s.traders.AddBalance(ctx, traderID, delta)
	if err != nil {
		if errors.Is(err, repositories.ErrTraderNotFound) {
			return 0, ErrTraderNotFound
		}
		return 0, err
	}

	logger.Log.Info("trader balance adjusted",
		zap.String("trader_id", traderID),
		zap.Float64("delta", delta),
		zap.Float64("balance", balance))
	return balance, nil
}

func (s *service) ToggleBlock(ctx context.Context, traderID string) (bool, error) {
	trader, err := s.traders.GetByID(ctx, traderID)
	if err != nil {
		if errors.Is(err, repositories.ErrTraderNotFound) {
			return false, ErrTraderNotFound
		}
		return false, err
	}

	blocked := !trader.IsBlocked
	if err := s.traders.SetBlocked(ctx, traderID, blocked); err != nil {
		return false, err
	}
	return blocked, nil
}

func (s *service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.txns.List(ctx)
}

func (s *service) Settings(ctx context.Context) (*models.Settings, error) {
	return s.settings.Get(ctx)
}

func (s *service) UpdateSettings(ctx context.Context, rate float64) (*models.Settings, error) {
	if rate < 0 || rate > 100 {
		return nil, ErrInvalidRate
	}
	settings, err := s.settings.Update(ctx, rate)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("commission rate updated", zap.Float64("rate", rate))
	return settings, nil
}
