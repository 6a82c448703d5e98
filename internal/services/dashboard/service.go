// Package dashboard aggregates per-role counters for the stats endpoint.
package dashboard

import (
	"context"

	"peerpay/internal/models"
	"peerpay/internal/repositories"
)

// TraderStats is what a trader sees on their dashboard.
type TraderStats struct {
	Balance               float64 `json:"balance"`
	CompletedTransactions int64   `json:"completed_transactions"`
	PendingTransactions   int64   `json:"pending_transactions"`
	CardsCount            int64   `json:"cards_count"`
}

// AdminStats is the platform-wide overview.
type AdminStats struct {
	TotalTraders          int64 `json:"total_traders"`
	TotalUsers            int64 `json:"total_users"`
	TotalTransactions     int64 `json:"total_transactions"`
	CompletedTransactions int64 `json:"completed_transactions"`
}

// UserStats counts the caller's own exchanges.
type UserStats struct {
	CompletedTransactions int64 `json:"completed_transactions"`
	PendingTransactions   int64 `json:"pending_transactions"`
}

type Service interface {
	ForTrader(ctx context.Context, trader *models.Trader) (*TraderStats, error)
	ForAdmin(ctx context.Context) (*AdminStats, error)
	ForUser(ctx context.Context, userID string) (*UserStats, error)
}

type service struct {
	users   repositories.UserRepository
	traders repositories.TraderRepository
	cards   repositories.CardRepository
	txns    repositories.TransactionRepository
}

func New(
	users repositories.UserRepository,
	traders repositories.TraderRepository,
	cards repositories.CardRepository,
	txns repositories.TransactionRepository,
) Service {
	return &service{users: users, traders: traders, cards: cards, txns: txns}
}

func (s *service) ForTrader(ctx context.Context, trader *models.Trader) (*TraderStats, error) {
	completed, err := s.txns.CountByTrader(ctx, trader.ID, models.TransactionCompleted)
	if err != nil {
		return nil, err
	}
	// "Pending" for a trader is work waiting on them: user-confirmed
	// transactions they have not settled yet.
	awaiting, err := s.txns.CountByTrader(ctx, trader.ID, models.TransactionUserConfirmed)
	if err != nil {
		return nil, err
	}
	cards, err := s.cards.CountByTrader(ctx, trader.ID)
	if err != nil {
		return nil, err
	}

	return &TraderStats{
		Balance:               trader.UsdtBalance,
		CompletedTransactions: completed,
		PendingTransactions:   awaiting,
		CardsCount:            cards,
	}, nil
}

func (s *service) ForAdmin(ctx context.Context) (*AdminStats, error) {
	traders, err := s.traders.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.CountByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, err
	}
	total, err := s.txns.Count(ctx)
	if err != nil {
		return nil, err
	}
	completed, err := s.txns.CountByStatus(ctx, models.TransactionCompleted)
	if err != nil {
		return nil, err
	}

	return &AdminStats{
		TotalTraders:          traders,
		TotalUsers:            users,
		TotalTransactions:     total,
		CompletedTransactions: completed,
	}, nil
}

func (s *service) ForUser(ctx context.Context, userID string) (*UserStats, error) {
	completed, err := s.txns.CountByUser(ctx, userID, models.TransactionCompleted)
	if err != nil {
		return nil, err
	}
	inFlight, err := s.txns.CountByUser(ctx, userID,
		models.TransactionPending, models.TransactionUserConfirmed)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		CompletedTransactions: completed,
		PendingTransactions:   inFlight,
	}, nil
}
