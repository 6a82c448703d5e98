// Package trader covers trader onboarding and card management.
package trader

import (
	"context"
	"errors"

	"peerpay/internal/logger"
	"peerpay/internal/models"
	"peerpay/internal/repositories"
	"peerpay/internal/validation"

	"go.uber.org/zap"
)

var (
	ErrAlreadyTrader   = errors.New("already a trader")
	ErrProfileExists   = errors.New("trader profile already exists")
	ErrProfileNotFound = errors.New("trader profile not found")
	ErrCardNotFound    = errors.New("card not found")
	ErrInvalidCard     = errors.New("invalid card details")
	ErrInvalidLimit    = errors.New("card limit must be positive")
	ErrInvalidStatus   = errors.New("card status must be active or paused")
)

// RegisterInput is the profile a user submits to become a trader.
type RegisterInput struct {
	Name        string `json:"name"`
	Nickname    string `json:"nickname"`
	UsdtAddress string `json:"usdt_address"`
	Phone       string `json:"phone"`
}

// CardInput is a new card submission.
type CardInput struct {
	CardNumber string  `json:"card_number"`
	BankName   string  `json:"bank_name"`
	HolderName string  `json:"holder_name"`
	Limit      float64 `json:"limit"`
	Currency   string  `json:"currency"`
}

type Service interface {
	// Become promotes the user to trader and creates the profile. The
	// promotion happens exactly once; repeat calls fail.
	Become(ctx context.Context, userID string, input RegisterInput) (*models.Trader, error)
	Profile(ctx context.Context, userID string) (*models.Trader, error)
	AddCard(ctx context.Context, userID string, input CardInput) (*models.Card, error)
	ListCards(ctx context.Context, userID string) ([]models.Card, error)
	UpdateCard(ctx context.Context, userID, cardID string, patch models.CardUpdate) (*models.Card, error)
	DeleteCard(ctx context.Context, userID, cardID string) error
}

type service struct {
	users   repositories.UserRepository
	traders repositories.TraderRepository
	cards   repositories.CardRepository
}

func New(
	users repositories.UserRepository,
	traders repositories.TraderRepository,
	cards repositories.CardRepository,
) Service {
	return &service{users: users, traders: traders, cards: cards}
}

func (s *service) Become(ctx context.Context, userID string, input RegisterInput) (*models.Trader, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleTrader {
		return nil, ErrAlreadyTrader
	}
	if _, err := s.traders.GetByUserID(ctx, user.ID); err == nil {
		return nil, ErrProfileExists
	}

	trader := &models.Trader{
		UserID:      user.ID,
		Name:        input.Name,
		Nickname:    input.Nickname,
		UsdtAddress: input.UsdtAddress,
		Phone:       input.Phone,
	}
	if err := s.traders.Create(ctx, trader); err != nil {
		if errors.Is(err, repositories.ErrTraderExists) {
			return nil, ErrProfileExists
		}
		return nil, err
	}

	if err := s.users.PromoteToTrader(ctx, user.ID); err != nil {
		return nil, err
	}

	logger.Log.Info("trader registered",
		zap.String("trader_id", trader.ID),
		zap.String("user_id", user.ID))
	return trader, nil
}

func (s *service) Profile(ctx context.Context, userID string) (*models.Trader, error) {
	trader, err := s.traders.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTraderNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return trader, nil
}

func (s *service) AddCard(ctx context.Context, userID string, input CardInput) (*models.Card, error) {
	trader, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !validation.ValidCardNumber(input.CardNumber) {
		return nil, ErrInvalidCard
	}
	if input.Limit <= 0 {
		return nil, ErrInvalidLimit
	}

	card := &models.Card{
		TraderID:   trader.ID,
		CardNumber: input.CardNumber,
		BankName:   input.BankName,
		HolderName: input.HolderName,
		Limit:      input.Limit,
		Currency:   input.Currency,
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *service) ListCards(ctx context.Context, userID string) ([]models.Card, error) {
	trader, err := s.traders.GetByUserID(ctx, userID)
	if err != nil {
		// Mirrors the card listing contract: no profile means no cards.
		if errors.Is(err, repositories.ErrTraderNotFound) {
			return []models.Card{}, nil
		}
		return nil, err
	}
	return s.cards.ListByTrader(ctx, trader.ID)
}

func (s *service) UpdateCard(ctx context.Context, userID, cardID string, patch models.CardUpdate) (*models.Card, error) {
	trader, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Limit != nil && *patch.Limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if patch.Status != nil &&
		*patch.Status != models.CardStatusActive && *patch.Status != models.CardStatusPaused {
		return nil, ErrInvalidStatus
	}

	card, err := s.cards.Update(ctx, cardID, trader.ID, patch)
	if err != nil {
		if errors.Is(err, repositories.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}

func (s *service) DeleteCard(ctx context.Context, userID, cardID string) error {
	trader, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.cards.Delete(ctx, cardID, trader.ID); err != nil {
		if errors.Is(err, repositories.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return err
	}
	return nil
}
